package ic

import (
	"github.com/danmuck/otpic/internal/term"
	"github.com/danmuck/otpic/internal/typecode"
)

const (
	PidID   = "IDL:com/ericsson/otp/ic/Pid:1.0"
	PidName = "Pid"
)

// Pid identifies an Erlang process.
type Pid struct {
	Node     string `json:"node"`
	Num      uint32 `json:"num"`
	Serial   uint32 `json:"serial"`
	Creation uint32 `json:"creation"`
}

var pidDescriptor = NewDescriptor(typecode.Struct(PidID, PidName,
	typecode.Field{Name: "node", Type: typecode.String(NodeBound)},
	typecode.Field{Name: "num", Type: typecode.Prim(typecode.TkULong)},
	typecode.Field{Name: "serial", Type: typecode.Prim(typecode.TkULong)},
	typecode.Field{Name: "creation", Type: typecode.Prim(typecode.TkULong)},
))

// PidHelper is the Pid bundle.
type PidHelper struct{}

var _ Helper[Pid] = PidHelper{}

func (PidHelper) ID() string {
	return PidID
}

func (PidHelper) Name() string {
	return PidName
}

func (PidHelper) Type() *typecode.TypeCode {
	return pidDescriptor.Type()
}

// Marshal writes v as NEW_PID_EXT.
func (PidHelper) Marshal(w *term.Writer, v Pid) error {
	if len(v.Node) > NodeBound {
		return observe(PidName, "marshal", constraintError(PidName, "node", NodeBound, "length %d", len(v.Node)))
	}
	err := w.WritePid(v.Node, v.Num, v.Serial, v.Creation)
	return observe(PidName, "marshal", wrapField(PidName, "", err))
}

// Unmarshal reads a pid in PID_EXT or NEW_PID_EXT.
func (PidHelper) Unmarshal(r *term.Reader) (Pid, error) {
	p, err := r.ReadPid()
	if err != nil {
		return Pid{}, observe(PidName, "unmarshal", wrapField(PidName, "", err))
	}
	if len(p.Node) > NodeBound {
		return Pid{}, observe(PidName, "unmarshal", constraintError(PidName, "node", NodeBound, "length %d", len(p.Node)))
	}
	return Pid{Node: p.Node, Num: p.ID, Serial: p.Serial, Creation: p.Creation}, observe(PidName, "unmarshal", nil)
}

func (h PidHelper) Insert(a *Any, v Pid) error {
	return Insert[Pid](a, h, v)
}

func (h PidHelper) Extract(a *Any) (Pid, error) {
	return Extract[Pid](a, h)
}

type PidHolder = Holder[Pid, PidHelper]

func NewPidHolder() *PidHolder {
	return NewHolder[Pid, PidHelper]()
}

func NewPidHolderWith(v Pid) *PidHolder {
	return NewHolderWith[Pid, PidHelper](v)
}
