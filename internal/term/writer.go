package term

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Writer encodes terms onto an underlying stream.
// A Writer is owned by one caller and is not safe for concurrent use.
type Writer struct {
	w       io.Writer
	scratch [9]byte
	n       int64
}

// NewWriter returns a Writer that encodes onto w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Written returns the number of bytes written so far.
func (w *Writer) Written() int64 {
	return w.n
}

func (w *Writer) write(op string, b []byte) error {
	n, err := w.w.Write(b)
	w.n += int64(n)
	if err != nil {
		return opError(op, fmt.Errorf("%w: write: %w", ErrIO, err))
	}
	return nil
}

func (w *Writer) write1(op string, v byte) error {
	w.scratch[0] = v
	return w.write(op, w.scratch[:1])
}

func (w *Writer) writeTagU16(op string, tag byte, v uint16) error {
	w.scratch[0] = tag
	binary.BigEndian.PutUint16(w.scratch[1:3], v)
	return w.write(op, w.scratch[:3])
}

func (w *Writer) writeTagU32(op string, tag byte, v uint32) error {
	w.scratch[0] = tag
	binary.BigEndian.PutUint32(w.scratch[1:5], v)
	return w.write(op, w.scratch[:5])
}

func (w *Writer) writeU32(op string, v uint32) error {
	binary.BigEndian.PutUint32(w.scratch[:4], v)
	return w.write(op, w.scratch[:4])
}

// WriteVersion writes the leading version byte of a term.
func (w *Writer) WriteVersion() error {
	return w.write1("version", Version)
}

// WriteUlong writes an unsigned 32-bit integer using the smallest encoding
// that holds it.
func (w *Writer) WriteUlong(v uint32) error {
	switch {
	case v <= math.MaxUint8:
		w.scratch[0] = TagSmallInteger
		w.scratch[1] = byte(v)
		return w.write("ulong", w.scratch[:2])
	case v <= math.MaxInt32:
		return w.writeTagU32("ulong", TagInteger, v)
	default:
		// small big: arity 4, positive sign, little-endian digits
		w.scratch[0] = TagSmallBig
		w.scratch[1] = 4
		w.scratch[2] = 0
		binary.LittleEndian.PutUint32(w.scratch[3:7], v)
		return w.write("ulong", w.scratch[:7])
	}
}

// WriteString writes s as a string term. The empty string is encoded as
// nil, strings longer than the STRING_EXT bound as a list of bytes.
func (w *Writer) WriteString(s string) error {
	switch {
	case len(s) == 0:
		return w.WriteNil()
	case len(s) <= MaxStringExtLen:
		if err := w.writeTagU16("string", TagString, uint16(len(s))); err != nil {
			return err
		}
		return w.write("string", []byte(s))
	default:
		if uint64(len(s)) > math.MaxUint32 {
			return fmt.Errorf("%w: string of %d bytes", ErrTooLong, len(s))
		}
		if err := w.WriteListHead(len(s)); err != nil {
			return err
		}
		for i := 0; i < len(s); i++ {
			w.scratch[0] = TagSmallInteger
			w.scratch[1] = s[i]
			if err := w.write("string", w.scratch[:2]); err != nil {
				return err
			}
		}
		return w.WriteNil()
	}
}

// WriteAtom writes s as a UTF-8 atom.
func (w *Writer) WriteAtom(s string) error {
	switch {
	case len(s) <= math.MaxUint8:
		w.scratch[0] = TagSmallAtomUTF8
		w.scratch[1] = byte(len(s))
		if err := w.write("atom", w.scratch[:2]); err != nil {
			return err
		}
	case len(s) <= MaxAtomLen:
		if err := w.writeTagU16("atom", TagAtomUTF8, uint16(len(s))); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: atom of %d bytes", ErrTooLong, len(s))
	}
	return w.write("atom", []byte(s))
}

// WriteBoolean writes v as the atom true or false.
func (w *Writer) WriteBoolean(v bool) error {
	if v {
		return w.WriteAtom("true")
	}
	return w.WriteAtom("false")
}

// WriteTupleHead writes the header of a tuple with arity elements.
func (w *Writer) WriteTupleHead(arity int) error {
	switch {
	case arity < 0 || uint64(arity) > math.MaxUint32:
		return fmt.Errorf("%w: tuple arity %d", ErrOutOfRange, arity)
	case arity <= math.MaxUint8:
		w.scratch[0] = TagSmallTuple
		w.scratch[1] = byte(arity)
		return w.write("tuple", w.scratch[:2])
	default:
		return w.writeTagU32("tuple", TagLargeTuple, uint32(arity))
	}
}

// WriteListHead writes the header of a proper list with arity elements.
// A zero arity writes nil; otherwise the caller writes the elements and a
// closing WriteNil.
func (w *Writer) WriteListHead(arity int) error {
	switch {
	case arity < 0 || uint64(arity) > math.MaxUint32:
		return fmt.Errorf("%w: list arity %d", ErrOutOfRange, arity)
	case arity == 0:
		return w.WriteNil()
	default:
		return w.writeTagU32("list", TagList, uint32(arity))
	}
}

// WriteNil writes the empty list.
func (w *Writer) WriteNil() error {
	return w.write1("nil", TagNil)
}

// WriteBinary writes b as a binary term.
func (w *Writer) WriteBinary(b []byte) error {
	if uint64(len(b)) > math.MaxUint32 {
		return fmt.Errorf("%w: binary of %d bytes", ErrTooLong, len(b))
	}
	if err := w.writeTagU32("binary", TagBinary, uint32(len(b))); err != nil {
		return err
	}
	return w.write("binary", b)
}

// WriteRaw copies an already encoded term onto the stream.
func (w *Writer) WriteRaw(b []byte) error {
	return w.write("raw", b)
}

// WritePort writes a port identity as NEW_PORT_EXT.
func (w *Writer) WritePort(node string, id, creation uint32) error {
	if err := w.write1("port", TagNewPort); err != nil {
		return err
	}
	if err := w.WriteAtom(node); err != nil {
		return opError("port.node", err)
	}
	if err := w.writeU32("port.id", id); err != nil {
		return err
	}
	return w.writeU32("port.creation", creation)
}

// WritePid writes a process identity as NEW_PID_EXT.
func (w *Writer) WritePid(node string, id, serial, creation uint32) error {
	if err := w.write1("pid", TagNewPid); err != nil {
		return err
	}
	if err := w.WriteAtom(node); err != nil {
		return opError("pid.node", err)
	}
	if err := w.writeU32("pid.num", id); err != nil {
		return err
	}
	if err := w.writeU32("pid.serial", serial); err != nil {
		return err
	}
	return w.writeU32("pid.creation", creation)
}

// WriteRef writes a reference identity as NEWER_REFERENCE_EXT.
func (w *Writer) WriteRef(node string, creation uint32, ids []uint32) error {
	if len(ids) > MaxReferenceLen {
		return fmt.Errorf("%w: reference of %d words", ErrTooLong, len(ids))
	}
	if err := w.writeTagU16("ref", TagNewerReference, uint16(len(ids))); err != nil {
		return err
	}
	if err := w.WriteAtom(node); err != nil {
		return opError("ref.node", err)
	}
	if err := w.writeU32("ref.creation", creation); err != nil {
		return err
	}
	for _, id := range ids {
		if err := w.writeU32("ref.ids", id); err != nil {
			return err
		}
	}
	return nil
}
