package ic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/danmuck/otpic/internal/term"
	"github.com/danmuck/otpic/internal/typecode"
)

// Entry is a registered type, erased for callers that only know its name
// or id. JSON is the interchange form; term bytes carry the version byte.
type Entry interface {
	ID() string
	Name() string
	Type() *typecode.TypeCode
	EncodeJSON(data []byte) ([]byte, error)
	DecodeJSON(data []byte, limits term.Limits) ([]byte, error)
	InsertJSON(a *Any, data []byte) error
	ExtractJSON(a *Any, limits term.Limits) ([]byte, error)
}

type entry[T any] struct {
	h Helper[T]
}

func (e entry[T]) ID() string {
	return e.h.ID()
}

func (e entry[T]) Name() string {
	return e.h.Name()
}

func (e entry[T]) Type() *typecode.TypeCode {
	return e.h.Type()
}

func (e entry[T]) parse(data []byte) (T, error) {
	var v T
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, &FieldError{Type: e.h.Name(), Kind: ErrMalformed, Err: fmt.Errorf("json: %w", err)}
	}
	return v, nil
}

func (e entry[T]) EncodeJSON(data []byte) ([]byte, error) {
	v, err := e.parse(data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := term.NewWriter(&buf)
	if err := w.WriteVersion(); err != nil {
		return nil, wrapField(e.h.Name(), "", err)
	}
	if err := e.h.Marshal(w, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e entry[T]) DecodeJSON(data []byte, limits term.Limits) ([]byte, error) {
	br := bytes.NewReader(data)
	r := term.NewReaderLimits(br, limits)
	if err := r.ReadVersion(); err != nil {
		return nil, wrapField(e.h.Name(), "", err)
	}
	v, err := e.h.Unmarshal(r)
	if err != nil {
		return nil, err
	}
	if br.Len() != 0 {
		return nil, &FieldError{Type: e.h.Name(), Kind: ErrMalformed, Err: fmt.Errorf("%d trailing bytes", br.Len())}
	}
	return json.Marshal(v)
}

func (e entry[T]) InsertJSON(a *Any, data []byte) error {
	v, err := e.parse(data)
	if err != nil {
		return err
	}
	return Insert[T](a, e.h, v)
}

func (e entry[T]) ExtractJSON(a *Any, limits term.Limits) ([]byte, error) {
	v, err := ExtractLimits[T](a, e.h, limits)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// Registry maps type ids and names to entries within one process.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]Entry
	byName map[string]Entry
}

func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[string]Entry),
		byName: make(map[string]Entry),
	}
}

// Register adds h to reg. Ids and names must be unique.
func Register[T any](reg *Registry, h Helper[T]) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.byID[h.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateType, h.ID())
	}
	if _, ok := reg.byName[h.Name()]; ok {
		return fmt.Errorf("%w: name %s", ErrDuplicateType, h.Name())
	}
	e := entry[T]{h: h}
	reg.byID[h.ID()] = e
	reg.byName[h.Name()] = e
	return nil
}

func (reg *Registry) Lookup(id string) (Entry, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	e, ok := reg.byID[id]
	return e, ok
}

func (reg *Registry) LookupName(name string) (Entry, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	e, ok := reg.byName[name]
	return e, ok
}

// Entries returns every entry sorted by name.
func (reg *Registry) Entries() []Entry {
	reg.mu.RLock()
	out := make([]Entry, 0, len(reg.byName))
	for _, e := range reg.byName {
		out = append(out, e)
	}
	reg.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// DescribeAny decodes the value held in a to JSON using the entry
// registered for its type id, under limits.
func (reg *Registry) DescribeAny(a *Any, limits term.Limits) ([]byte, error) {
	tc := a.Type()
	if tc == nil {
		return nil, fmt.Errorf("%w: any has no type", ErrTypeMismatch)
	}
	e, ok := reg.Lookup(tc.ID())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, tc.ID())
	}
	return e.ExtractJSON(a, limits)
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// DefaultRegistry returns the process registry holding Port, Pid and Ref.
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() {
		reg := NewRegistry()
		mustRegister(Register[Port](reg, PortHelper{}))
		mustRegister(Register[Pid](reg, PidHelper{}))
		mustRegister(Register[Ref](reg, RefHelper{}))
		defaultRegistry = reg
	})
	return defaultRegistry
}

func mustRegister(err error) {
	if err != nil {
		panic(err)
	}
}
