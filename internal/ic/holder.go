package ic

import (
	"fmt"

	"github.com/danmuck/otpic/internal/term"
	"github.com/danmuck/otpic/internal/typecode"
)

// Holder is a mutable cell holding at most one value of T, used where a
// value is passed by reference. H is the stateless bundle for T, so the
// zero Holder is a usable empty holder. A Holder is owned by one caller.
type Holder[T any, H Helper[T]] struct {
	value T
	set   bool
}

// NewHolder returns an empty holder; equivalent to the zero value.
func NewHolder[T any, H Helper[T]]() *Holder[T, H] {
	return &Holder[T, H]{}
}

func NewHolderWith[T any, H Helper[T]](v T) *Holder[T, H] {
	return &Holder[T, H]{value: v, set: true}
}

func (h *Holder[T, H]) helper() H {
	var hp H
	return hp
}

// Value returns the held value and whether one is present.
func (h *Holder[T, H]) Value() (T, bool) {
	return h.value, h.set
}

func (h *Holder[T, H]) Set(v T) {
	h.value = v
	h.set = true
}

func (h *Holder[T, H]) Clear() {
	var zero T
	h.value = zero
	h.set = false
}

func (h *Holder[T, H]) Type() *typecode.TypeCode {
	return h.helper().Type()
}

// Marshal writes the held value. An empty holder is a constraint violation.
func (h *Holder[T, H]) Marshal(w *term.Writer) error {
	if !h.set {
		return fmt.Errorf("%w: %s holder is empty", ErrConstraint, h.helper().Name())
	}
	return h.helper().Marshal(w, h.value)
}

// Unmarshal reads a value and replaces the held one. On failure the holder
// is unchanged.
func (h *Holder[T, H]) Unmarshal(r *term.Reader) error {
	v, err := h.helper().Unmarshal(r)
	if err != nil {
		return err
	}
	h.Set(v)
	return nil
}
