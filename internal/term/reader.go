package term

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

// Limits constrains decode memory use.
type Limits struct {
	MaxBinaryBytes uint64
	MaxPacketBytes uint64
	MaxDepth       int
}

func DefaultLimits() Limits {
	return Limits{
		MaxBinaryBytes: 1 << 20,
		MaxPacketBytes: 8 * 1024 * 1024,
		MaxDepth:       256,
	}
}

// PortTerm is a decoded port identity. ID is wide enough for V4_PORT_EXT.
type PortTerm struct {
	Node     string
	ID       uint64
	Creation uint32
}

// PidTerm is a decoded process identity.
type PidTerm struct {
	Node     string
	ID       uint32
	Serial   uint32
	Creation uint32
}

// RefTerm is a decoded reference identity.
type RefTerm struct {
	Node     string
	Creation uint32
	IDs      []uint32
}

// Reader decodes terms from an underlying stream. It never reads past the
// end of the term being decoded, so a caller can check for trailing input.
// A Reader is owned by one caller and is not safe for concurrent use.
type Reader struct {
	r       io.Reader
	limits  Limits
	scratch [8]byte
	pending int
	rec     *bytes.Buffer
	n       int64
}

// NewReader returns a Reader over r with DefaultLimits.
func NewReader(r io.Reader) *Reader {
	return NewReaderLimits(r, DefaultLimits())
}

// NewReaderLimits returns a Reader over r with the given limits.
func NewReaderLimits(r io.Reader, limits Limits) *Reader {
	return &Reader{r: r, limits: limits, pending: -1}
}

// Consumed returns the number of bytes consumed so far.
func (r *Reader) Consumed() int64 {
	return r.n
}

func (r *Reader) fill(op string, b []byte) error {
	if _, err := io.ReadFull(r.r, b); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return opError(op, ErrTruncated)
		}
		return opError(op, fmt.Errorf("%w: read: %w", ErrIO, err))
	}
	if r.rec != nil {
		r.rec.Write(b)
	}
	return nil
}

func (r *Reader) read(op string, b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if r.pending >= 0 {
		b[0] = byte(r.pending)
		r.pending = -1
		r.n++
		b = b[1:]
		if len(b) == 0 {
			return nil
		}
	}
	if err := r.fill(op, b); err != nil {
		return err
	}
	r.n += int64(len(b))
	return nil
}

func (r *Reader) read1(op string) (byte, error) {
	if err := r.read(op, r.scratch[:1]); err != nil {
		return 0, err
	}
	return r.scratch[0], nil
}

func (r *Reader) readU16(op string) (uint16, error) {
	if err := r.read(op, r.scratch[:2]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(r.scratch[:2]), nil
}

func (r *Reader) readU32(op string) (uint32, error) {
	if err := r.read(op, r.scratch[:4]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(r.scratch[:4]), nil
}

func (r *Reader) readU64(op string) (uint64, error) {
	if err := r.read(op, r.scratch[:8]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(r.scratch[:8]), nil
}

func (r *Reader) readBytes(op string, n uint64) ([]byte, error) {
	if n > r.limits.MaxBinaryBytes {
		return nil, fmt.Errorf("%w: %s of %d bytes", ErrBinaryTooLarge, op, n)
	}
	buf := make([]byte, n)
	if err := r.read(op, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (r *Reader) discard(op string, n uint64) error {
	if n > r.limits.MaxBinaryBytes {
		return fmt.Errorf("%w: %s of %d bytes", ErrBinaryTooLarge, op, n)
	}
	var chunk [512]byte
	for n > 0 {
		step := uint64(len(chunk))
		if n < step {
			step = n
		}
		if err := r.read(op, chunk[:step]); err != nil {
			return err
		}
		n -= step
	}
	return nil
}

// PeekTag returns the tag of the next term without consuming it.
func (r *Reader) PeekTag() (byte, error) {
	if r.pending >= 0 {
		return byte(r.pending), nil
	}
	if err := r.fill("tag", r.scratch[:1]); err != nil {
		return 0, err
	}
	r.pending = int(r.scratch[0])
	return r.scratch[0], nil
}

// ReadVersion consumes the leading version byte of a term.
func (r *Reader) ReadVersion() error {
	v, err := r.read1("version")
	if err != nil {
		return err
	}
	if v != Version {
		return fmt.Errorf("%w: got %d", ErrBadVersion, v)
	}
	return nil
}

// ReadUlong reads an integer that must fit an unsigned 32-bit value.
func (r *Reader) ReadUlong() (uint32, error) {
	tag, err := r.read1("ulong")
	if err != nil {
		return 0, err
	}
	switch tag {
	case TagSmallInteger:
		v, err := r.read1("ulong")
		return uint32(v), err
	case TagInteger:
		v, err := r.readU32("ulong")
		if err != nil {
			return 0, err
		}
		if int32(v) < 0 {
			return 0, fmt.Errorf("%w: negative integer %d", ErrOutOfRange, int32(v))
		}
		return v, nil
	case TagSmallBig:
		n, err := r.read1("ulong")
		if err != nil {
			return 0, err
		}
		return r.readBigDigits(uint64(n))
	case TagLargeBig:
		n, err := r.readU32("ulong")
		if err != nil {
			return 0, err
		}
		return r.readBigDigits(uint64(n))
	default:
		return 0, tagError("ulong", tag)
	}
}

func (r *Reader) readBigDigits(n uint64) (uint32, error) {
	sign, err := r.read1("big")
	if err != nil {
		return 0, err
	}
	digits, err := r.readBytes("big", n)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i, d := range digits {
		if d == 0 {
			continue
		}
		if i >= 4 {
			return 0, fmt.Errorf("%w: big integer of %d bytes", ErrOutOfRange, n)
		}
		v |= uint64(d) << (8 * uint(i))
	}
	if sign != 0 && v != 0 {
		return 0, fmt.Errorf("%w: negative big integer", ErrOutOfRange)
	}
	return uint32(v), nil
}

// ReadString reads a string term: nil, STRING_EXT, or a proper list of
// character codes.
func (r *Reader) ReadString() (string, error) {
	tag, err := r.read1("string")
	if err != nil {
		return "", err
	}
	switch tag {
	case TagNil:
		return "", nil
	case TagString:
		n, err := r.readU16("string")
		if err != nil {
			return "", err
		}
		b, err := r.readBytes("string", uint64(n))
		if err != nil {
			return "", err
		}
		return string(b), nil
	case TagList:
		n, err := r.readU32("string")
		if err != nil {
			return "", err
		}
		if uint64(n) > r.limits.MaxBinaryBytes {
			return "", fmt.Errorf("%w: string list of %d elements", ErrBinaryTooLarge, n)
		}
		out := make([]byte, 0, n)
		for i := uint32(0); i < n; i++ {
			c, err := r.ReadUlong()
			if err != nil {
				return "", err
			}
			switch {
			case c <= math.MaxUint8:
				out = append(out, byte(c))
			case c <= utf8.MaxRune:
				out = utf8.AppendRune(out, rune(c))
			default:
				return "", fmt.Errorf("%w: character code %d", ErrOutOfRange, c)
			}
		}
		if err := r.ReadNil(); err != nil {
			return "", err
		}
		return string(out), nil
	default:
		return "", tagError("string", tag)
	}
}

// ReadAtom reads an atom in any of its four encodings.
func (r *Reader) ReadAtom() (string, error) {
	tag, err := r.read1("atom")
	if err != nil {
		return "", err
	}
	var n uint64
	switch tag {
	case TagAtom, TagAtomUTF8:
		v, err := r.readU16("atom")
		if err != nil {
			return "", err
		}
		n = uint64(v)
	case TagSmallAtom, TagSmallAtomUTF8:
		v, err := r.read1("atom")
		if err != nil {
			return "", err
		}
		n = uint64(v)
	default:
		return "", tagError("atom", tag)
	}
	b, err := r.readBytes("atom", n)
	if err != nil {
		return "", err
	}
	if tag == TagAtom || tag == TagSmallAtom {
		return latin1(b), nil
	}
	return string(b), nil
}

func latin1(b []byte) string {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		out = utf8.AppendRune(out, rune(c))
	}
	return string(out)
}

// ReadBoolean reads the atom true or false.
func (r *Reader) ReadBoolean() (bool, error) {
	a, err := r.ReadAtom()
	if err != nil {
		return false, err
	}
	switch a {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("%w: boolean atom %q", ErrUnexpectedTag, a)
	}
}

// ReadTupleHead reads a tuple header and returns its arity.
func (r *Reader) ReadTupleHead() (int, error) {
	tag, err := r.read1("tuple")
	if err != nil {
		return 0, err
	}
	switch tag {
	case TagSmallTuple:
		n, err := r.read1("tuple")
		return int(n), err
	case TagLargeTuple:
		n, err := r.readU32("tuple")
		return int(n), err
	default:
		return 0, tagError("tuple", tag)
	}
}

// ReadListHead reads a list header and returns its arity. Nil yields zero;
// otherwise the caller reads the elements and a closing ReadNil.
func (r *Reader) ReadListHead() (int, error) {
	tag, err := r.read1("list")
	if err != nil {
		return 0, err
	}
	switch tag {
	case TagNil:
		return 0, nil
	case TagList:
		n, err := r.readU32("list")
		return int(n), err
	default:
		return 0, tagError("list", tag)
	}
}

// ReadNil reads the empty list.
func (r *Reader) ReadNil() error {
	tag, err := r.read1("nil")
	if err != nil {
		return err
	}
	if tag != TagNil {
		return tagError("nil", tag)
	}
	return nil
}

// ReadBinary reads a binary term.
func (r *Reader) ReadBinary() ([]byte, error) {
	tag, err := r.read1("binary")
	if err != nil {
		return nil, err
	}
	if tag != TagBinary {
		return nil, tagError("binary", tag)
	}
	n, err := r.readU32("binary")
	if err != nil {
		return nil, err
	}
	return r.readBytes("binary", uint64(n))
}

// ReadPort reads a port identity in PORT_EXT, NEW_PORT_EXT or V4_PORT_EXT.
func (r *Reader) ReadPort() (PortTerm, error) {
	tag, err := r.read1("port")
	if err != nil {
		return PortTerm{}, err
	}
	if tag != TagPort && tag != TagNewPort && tag != TagV4Port {
		return PortTerm{}, tagError("port", tag)
	}
	node, err := r.ReadAtom()
	if err != nil {
		return PortTerm{}, opError("port.node", err)
	}
	p := PortTerm{Node: node}
	switch tag {
	case TagV4Port:
		if p.ID, err = r.readU64("port.id"); err != nil {
			return PortTerm{}, err
		}
	default:
		id, err := r.readU32("port.id")
		if err != nil {
			return PortTerm{}, err
		}
		p.ID = uint64(id)
	}
	if p.Creation, err = r.readCreation("port.creation", tag == TagPort); err != nil {
		return PortTerm{}, err
	}
	return p, nil
}

// ReadPid reads a process identity in PID_EXT or NEW_PID_EXT.
func (r *Reader) ReadPid() (PidTerm, error) {
	tag, err := r.read1("pid")
	if err != nil {
		return PidTerm{}, err
	}
	if tag != TagPid && tag != TagNewPid {
		return PidTerm{}, tagError("pid", tag)
	}
	node, err := r.ReadAtom()
	if err != nil {
		return PidTerm{}, opError("pid.node", err)
	}
	p := PidTerm{Node: node}
	if p.ID, err = r.readU32("pid.num"); err != nil {
		return PidTerm{}, err
	}
	if p.Serial, err = r.readU32("pid.serial"); err != nil {
		return PidTerm{}, err
	}
	if p.Creation, err = r.readCreation("pid.creation", tag == TagPid); err != nil {
		return PidTerm{}, err
	}
	return p, nil
}

// ReadRef reads a reference identity in REFERENCE_EXT, NEW_REFERENCE_EXT or
// NEWER_REFERENCE_EXT.
func (r *Reader) ReadRef() (RefTerm, error) {
	tag, err := r.read1("ref")
	if err != nil {
		return RefTerm{}, err
	}
	switch tag {
	case TagReference:
		node, err := r.ReadAtom()
		if err != nil {
			return RefTerm{}, opError("ref.node", err)
		}
		id, err := r.readU32("ref.ids")
		if err != nil {
			return RefTerm{}, err
		}
		creation, err := r.readCreation("ref.creation", true)
		if err != nil {
			return RefTerm{}, err
		}
		return RefTerm{Node: node, Creation: creation, IDs: []uint32{id}}, nil
	case TagNewReference, TagNewerReference:
		n, err := r.readU16("ref.ids")
		if err != nil {
			return RefTerm{}, err
		}
		node, err := r.ReadAtom()
		if err != nil {
			return RefTerm{}, opError("ref.node", err)
		}
		creation, err := r.readCreation("ref.creation", tag == TagNewReference)
		if err != nil {
			return RefTerm{}, err
		}
		ids := make([]uint32, n)
		for i := range ids {
			if ids[i], err = r.readU32("ref.ids"); err != nil {
				return RefTerm{}, err
			}
		}
		return RefTerm{Node: node, Creation: creation, IDs: ids}, nil
	default:
		return RefTerm{}, tagError("ref", tag)
	}
}

func (r *Reader) readCreation(op string, short bool) (uint32, error) {
	if short {
		c, err := r.read1(op)
		return uint32(c), err
	}
	return r.readU32(op)
}
