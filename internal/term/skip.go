package term

import (
	"bytes"
	"fmt"
)

// Skip consumes one complete term of any supported shape.
func (r *Reader) Skip() error {
	return r.skip(0)
}

// RawTerm consumes one complete term and returns its encoded bytes.
func (r *Reader) RawTerm() ([]byte, error) {
	prev := r.rec
	rec := new(bytes.Buffer)
	peeked := r.pending >= 0
	if peeked {
		rec.WriteByte(byte(r.pending))
	}
	r.rec = rec
	err := r.skip(0)
	r.rec = prev
	if err != nil {
		return nil, err
	}
	if prev != nil {
		// a peeked tag was already recorded by the outer capture
		if peeked {
			prev.Write(rec.Bytes()[1:])
		} else {
			prev.Write(rec.Bytes())
		}
	}
	return rec.Bytes(), nil
}

func (r *Reader) skip(depth int) error {
	if depth > r.limits.MaxDepth {
		return fmt.Errorf("%w: depth %d", ErrTooDeep, depth)
	}
	tag, err := r.read1("skip")
	if err != nil {
		return err
	}
	switch tag {
	case TagSmallInteger:
		return r.discard("skip", 1)
	case TagInteger:
		return r.discard("skip", 4)
	case TagNewFloat:
		return r.discard("skip", 8)
	case TagFloat:
		return r.discard("skip", 31)
	case TagSmallBig:
		n, err := r.read1("skip")
		if err != nil {
			return err
		}
		return r.discard("skip", uint64(n)+1)
	case TagLargeBig:
		n, err := r.readU32("skip")
		if err != nil {
			return err
		}
		return r.discard("skip", uint64(n)+1)
	case TagAtom, TagAtomUTF8, TagString:
		n, err := r.readU16("skip")
		if err != nil {
			return err
		}
		return r.discard("skip", uint64(n))
	case TagSmallAtom, TagSmallAtomUTF8:
		n, err := r.read1("skip")
		if err != nil {
			return err
		}
		return r.discard("skip", uint64(n))
	case TagPort:
		return r.skipIdentity(4 + 1)
	case TagNewPort:
		return r.skipIdentity(4 + 4)
	case TagV4Port:
		return r.skipIdentity(8 + 4)
	case TagPid:
		return r.skipIdentity(4 + 4 + 1)
	case TagNewPid:
		return r.skipIdentity(4 + 4 + 4)
	case TagReference:
		return r.skipIdentity(4 + 1)
	case TagNewReference, TagNewerReference:
		n, err := r.readU16("skip")
		if err != nil {
			return err
		}
		creation := uint64(4)
		if tag == TagNewReference {
			creation = 1
		}
		return r.skipIdentity(creation + 4*uint64(n))
	case TagSmallTuple:
		n, err := r.read1("skip")
		if err != nil {
			return err
		}
		return r.skipN(uint64(n), depth)
	case TagLargeTuple:
		n, err := r.readU32("skip")
		if err != nil {
			return err
		}
		return r.skipN(uint64(n), depth)
	case TagNil:
		return nil
	case TagList:
		n, err := r.readU32("skip")
		if err != nil {
			return err
		}
		// elements plus tail
		return r.skipN(uint64(n)+1, depth)
	case TagBinary:
		n, err := r.readU32("skip")
		if err != nil {
			return err
		}
		return r.discard("skip", uint64(n))
	case TagMap:
		n, err := r.readU32("skip")
		if err != nil {
			return err
		}
		return r.skipN(2*uint64(n), depth)
	default:
		return tagError("skip", tag)
	}
}

func (r *Reader) skipIdentity(rest uint64) error {
	if _, err := r.ReadAtom(); err != nil {
		return err
	}
	return r.discard("skip", rest)
}

func (r *Reader) skipN(n uint64, depth int) error {
	for i := uint64(0); i < n; i++ {
		if err := r.skip(depth + 1); err != nil {
			return err
		}
	}
	return nil
}
