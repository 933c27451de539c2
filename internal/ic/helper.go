package ic

import (
	"github.com/danmuck/otpic/internal/observability"
	"github.com/danmuck/otpic/internal/term"
	"github.com/danmuck/otpic/internal/typecode"
)

// Helper is the per-type bundle: identity, descriptor and codec for values
// of type T. Implementations are stateless and safe for concurrent use.
type Helper[T any] interface {
	ID() string
	Name() string
	Type() *typecode.TypeCode
	Marshal(w *term.Writer, v T) error
	Unmarshal(r *term.Reader) (T, error)
}

// observe counts one codec operation and returns err unchanged.
func observe(typeName, op string, err error) error {
	observability.RecordCodec(typeName, op, resultLabel(err))
	return err
}
