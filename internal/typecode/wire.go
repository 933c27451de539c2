package typecode

import (
	"fmt"

	"github.com/danmuck/otpic/internal/term"
)

// Marshal encodes tc as an Erlang term:
//
//	tk_ulong                                  primitive kinds
//	{tk_string, Len}                          strings
//	{tk_sequence, Content, Len}               sequences and arrays
//	{tk_alias, Id, Name, Content}             aliases
//	{tk_struct, Id, Name, [{Member, TC}]}     structs and exceptions
//	{tk_enum, Id, Name, [Label]}              enums
//	{tk_objref, Id, Name}                     object references
func (tc *TypeCode) Marshal(w *term.Writer) error {
	k := tc.kind
	switch {
	case k.Primitive():
		return w.WriteAtom(k.String())
	case k == TkString || k == TkWString:
		if err := w.WriteTupleHead(2); err != nil {
			return err
		}
		if err := w.WriteAtom(k.String()); err != nil {
			return err
		}
		return w.WriteUlong(uint32(tc.length))
	case k == TkSequence || k == TkArray:
		if tc.content == nil {
			return fmt.Errorf("%w: %s", ErrMissingContent, k)
		}
		if err := w.WriteTupleHead(3); err != nil {
			return err
		}
		if err := w.WriteAtom(k.String()); err != nil {
			return err
		}
		if err := tc.content.Marshal(w); err != nil {
			return err
		}
		return w.WriteUlong(uint32(tc.length))
	case k == TkAlias:
		if tc.content == nil {
			return fmt.Errorf("%w: %s", ErrMissingContent, k)
		}
		if err := tc.writeNamedHead(w, 4); err != nil {
			return err
		}
		return tc.content.Marshal(w)
	case k == TkStruct || k == TkExcept:
		if err := tc.writeNamedHead(w, 4); err != nil {
			return err
		}
		if err := w.WriteListHead(len(tc.members)); err != nil {
			return err
		}
		for _, m := range tc.members {
			if m.Type == nil {
				return fmt.Errorf("%w: %s.%s has no type", ErrMissingMember, tc.name, m.Name)
			}
			if err := w.WriteTupleHead(2); err != nil {
				return err
			}
			if err := w.WriteString(m.Name); err != nil {
				return err
			}
			if err := m.Type.Marshal(w); err != nil {
				return err
			}
		}
		if len(tc.members) == 0 {
			return nil
		}
		return w.WriteNil()
	case k == TkEnum:
		if err := tc.writeNamedHead(w, 4); err != nil {
			return err
		}
		if err := w.WriteListHead(len(tc.members)); err != nil {
			return err
		}
		for _, m := range tc.members {
			if err := w.WriteString(m.Name); err != nil {
				return err
			}
		}
		if len(tc.members) == 0 {
			return nil
		}
		return w.WriteNil()
	case k == TkObjref:
		return tc.writeNamedHead(w, 3)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, k)
	}
}

func (tc *TypeCode) writeNamedHead(w *term.Writer, arity int) error {
	if err := w.WriteTupleHead(arity); err != nil {
		return err
	}
	if err := w.WriteAtom(tc.kind.String()); err != nil {
		return err
	}
	if err := w.WriteString(tc.id); err != nil {
		return err
	}
	return w.WriteString(tc.name)
}

// maxMembers bounds the member table read from the wire.
const maxMembers = 1 << 12

var tupleArity = map[Kind]int{
	TkString:   2,
	TkWString:  2,
	TkSequence: 3,
	TkArray:    3,
	TkAlias:    4,
	TkStruct:   4,
	TkExcept:   4,
	TkEnum:     4,
	TkObjref:   3,
}

// Unmarshal decodes a TypeCode written by Marshal.
func Unmarshal(r *term.Reader) (*TypeCode, error) {
	return read(r, 0)
}

func read(r *term.Reader, depth int) (*TypeCode, error) {
	if depth > maxSchemaDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrMalformed, maxSchemaDepth)
	}
	tag, err := r.PeekTag()
	if err != nil {
		return nil, err
	}
	if tag != term.TagSmallTuple && tag != term.TagLargeTuple {
		k, err := readKind(r)
		if err != nil {
			return nil, err
		}
		if !k.Primitive() {
			return nil, fmt.Errorf("%w: bare atom for %s", ErrMalformed, k)
		}
		return New(k), nil
	}

	arity, err := r.ReadTupleHead()
	if err != nil {
		return nil, err
	}
	k, err := readKind(r)
	if err != nil {
		return nil, err
	}
	tc := New(k)
	if want := tupleArity[k]; want == 0 || arity != want {
		return nil, fmt.Errorf("%w: %s tuple of arity %d", ErrMalformed, k, arity)
	}

	switch {
	case k == TkString || k == TkWString:
		n, err := r.ReadUlong()
		if err != nil {
			return nil, err
		}
		tc.SetLength(int(n))
		return tc, nil
	case k == TkSequence || k == TkArray:
		content, err := read(r, depth+1)
		if err != nil {
			return nil, err
		}
		n, err := r.ReadUlong()
		if err != nil {
			return nil, err
		}
		tc.SetContentType(content)
		tc.SetLength(int(n))
		return tc, nil
	}

	if err := readNamedHead(r, tc); err != nil {
		return nil, err
	}
	switch k {
	case TkAlias:
		content, err := read(r, depth+1)
		if err != nil {
			return nil, err
		}
		tc.SetContentType(content)
	case TkStruct, TkExcept:
		n, err := readMemberCount(r)
		if err != nil {
			return nil, err
		}
		tc.SetMemberCount(n)
		for i := 0; i < n; i++ {
			if err := readMember(r, tc, i, depth); err != nil {
				return nil, err
			}
		}
		if n > 0 {
			if err := r.ReadNil(); err != nil {
				return nil, err
			}
		}
	case TkEnum:
		n, err := readMemberCount(r)
		if err != nil {
			return nil, err
		}
		tc.SetMemberCount(n)
		for i := 0; i < n; i++ {
			label, err := r.ReadString()
			if err != nil {
				return nil, err
			}
			if err := tc.SetMemberName(i, label); err != nil {
				return nil, err
			}
		}
		if n > 0 {
			if err := r.ReadNil(); err != nil {
				return nil, err
			}
		}
	}
	return tc, nil
}

func readMemberCount(r *term.Reader) (int, error) {
	n, err := r.ReadListHead()
	if err != nil {
		return 0, err
	}
	if n < 0 || n > maxMembers {
		return 0, fmt.Errorf("%w: %d members", ErrMalformed, n)
	}
	return n, nil
}

func readKind(r *term.Reader) (Kind, error) {
	name, err := r.ReadAtom()
	if err != nil {
		return 0, err
	}
	k, ok := ParseKind(name)
	if !ok || !k.supported() {
		return 0, fmt.Errorf("%w: kind %q", ErrMalformed, name)
	}
	return k, nil
}

func readNamedHead(r *term.Reader, tc *TypeCode) error {
	id, err := r.ReadString()
	if err != nil {
		return err
	}
	name, err := r.ReadString()
	if err != nil {
		return err
	}
	tc.SetID(id)
	tc.SetName(name)
	return nil
}

func readMember(r *term.Reader, tc *TypeCode, i, depth int) error {
	arity, err := r.ReadTupleHead()
	if err != nil {
		return err
	}
	if arity != 2 {
		return fmt.Errorf("%w: member tuple of arity %d", ErrMalformed, arity)
	}
	name, err := r.ReadString()
	if err != nil {
		return err
	}
	mt, err := read(r, depth+1)
	if err != nil {
		return err
	}
	if err := tc.SetMemberName(i, name); err != nil {
		return err
	}
	return tc.SetMemberType(i, mt)
}
