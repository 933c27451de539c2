package ic

import (
	"math"

	"github.com/danmuck/otpic/internal/term"
	"github.com/danmuck/otpic/internal/typecode"
)

const (
	PortID   = "IDL:com/ericsson/otp/ic/Port:1.0"
	PortName = "Port"

	// NodeBound is the maximum node name length in bytes for every
	// identity type.
	NodeBound = 256
)

// Port identifies an Erlang port.
type Port struct {
	Node     string `json:"node"`
	ID       uint32 `json:"id"`
	Creation uint32 `json:"creation"`
}

var portDescriptor = NewDescriptor(typecode.Struct(PortID, PortName,
	typecode.Field{Name: "node", Type: typecode.String(NodeBound)},
	typecode.Field{Name: "id", Type: typecode.Prim(typecode.TkULong)},
	typecode.Field{Name: "creation", Type: typecode.Prim(typecode.TkULong)},
))

// PortHelper is the Port bundle.
type PortHelper struct{}

var _ Helper[Port] = PortHelper{}

func (PortHelper) ID() string {
	return PortID
}

func (PortHelper) Name() string {
	return PortName
}

func (PortHelper) Type() *typecode.TypeCode {
	return portDescriptor.Type()
}

// Marshal writes v as NEW_PORT_EXT.
func (PortHelper) Marshal(w *term.Writer, v Port) error {
	if len(v.Node) > NodeBound {
		return observe(PortName, "marshal", constraintError(PortName, "node", NodeBound, "length %d", len(v.Node)))
	}
	err := w.WritePort(v.Node, v.ID, v.Creation)
	return observe(PortName, "marshal", wrapField(PortName, "", err))
}

// Unmarshal reads a port in PORT_EXT, NEW_PORT_EXT or V4_PORT_EXT.
func (PortHelper) Unmarshal(r *term.Reader) (Port, error) {
	p, err := r.ReadPort()
	if err != nil {
		return Port{}, observe(PortName, "unmarshal", wrapField(PortName, "", err))
	}
	if len(p.Node) > NodeBound {
		return Port{}, observe(PortName, "unmarshal", constraintError(PortName, "node", NodeBound, "length %d", len(p.Node)))
	}
	if p.ID > math.MaxUint32 {
		return Port{}, observe(PortName, "unmarshal", constraintError(PortName, "id", math.MaxUint32, "value %d", p.ID))
	}
	return Port{Node: p.Node, ID: uint32(p.ID), Creation: p.Creation}, observe(PortName, "unmarshal", nil)
}

func (h PortHelper) Insert(a *Any, v Port) error {
	return Insert[Port](a, h, v)
}

func (h PortHelper) Extract(a *Any) (Port, error) {
	return Extract[Port](a, h)
}

type PortHolder = Holder[Port, PortHelper]

func NewPortHolder() *PortHolder {
	return NewHolder[Port, PortHelper]()
}

func NewPortHolderWith(v Port) *PortHolder {
	return NewHolderWith[Port, PortHelper](v)
}
