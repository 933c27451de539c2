package ic

import (
	"github.com/danmuck/otpic/internal/term"
	"github.com/danmuck/otpic/internal/typecode"
)

const (
	RefID   = "IDL:com/ericsson/otp/ic/Ref:1.0"
	RefName = "Ref"

	// RefIDBound is the maximum number of id words in a reference.
	RefIDBound = 5
)

// Ref identifies an Erlang reference. IDs holds one to RefIDBound words.
type Ref struct {
	Node     string   `json:"node"`
	Creation uint32   `json:"creation"`
	IDs      []uint32 `json:"ids"`
}

var refDescriptor = NewDescriptor(typecode.Struct(RefID, RefName,
	typecode.Field{Name: "node", Type: typecode.String(NodeBound)},
	typecode.Field{Name: "creation", Type: typecode.Prim(typecode.TkULong)},
	typecode.Field{Name: "ids", Type: typecode.Sequence(typecode.Prim(typecode.TkULong), RefIDBound)},
))

// RefHelper is the Ref bundle.
type RefHelper struct{}

var _ Helper[Ref] = RefHelper{}

func (RefHelper) ID() string {
	return RefID
}

func (RefHelper) Name() string {
	return RefName
}

func (RefHelper) Type() *typecode.TypeCode {
	return refDescriptor.Type()
}

func checkRef(v Ref) error {
	if len(v.Node) > NodeBound {
		return constraintError(RefName, "node", NodeBound, "length %d", len(v.Node))
	}
	if len(v.IDs) == 0 || len(v.IDs) > RefIDBound {
		return constraintError(RefName, "ids", RefIDBound, "%d words", len(v.IDs))
	}
	return nil
}

// Marshal writes v as NEWER_REFERENCE_EXT.
func (RefHelper) Marshal(w *term.Writer, v Ref) error {
	if err := checkRef(v); err != nil {
		return observe(RefName, "marshal", err)
	}
	err := w.WriteRef(v.Node, v.Creation, v.IDs)
	return observe(RefName, "marshal", wrapField(RefName, "", err))
}

// Unmarshal reads a reference in REFERENCE_EXT, NEW_REFERENCE_EXT or
// NEWER_REFERENCE_EXT.
func (RefHelper) Unmarshal(r *term.Reader) (Ref, error) {
	t, err := r.ReadRef()
	if err != nil {
		return Ref{}, observe(RefName, "unmarshal", wrapField(RefName, "", err))
	}
	v := Ref{Node: t.Node, Creation: t.Creation, IDs: t.IDs}
	if err := checkRef(v); err != nil {
		return Ref{}, observe(RefName, "unmarshal", err)
	}
	return v, observe(RefName, "unmarshal", nil)
}

func (h RefHelper) Insert(a *Any, v Ref) error {
	return Insert[Ref](a, h, v)
}

func (h RefHelper) Extract(a *Any) (Ref, error) {
	return Extract[Ref](a, h)
}

type RefHolder = Holder[Ref, RefHelper]

func NewRefHolder() *RefHolder {
	return NewHolder[Ref, RefHelper]()
}

func NewRefHolderWith(v Ref) *RefHolder {
	return NewHolderWith[Ref, RefHelper](v)
}
