package ic

import (
	"errors"
	"fmt"

	"github.com/danmuck/otpic/internal/term"
	"github.com/danmuck/otpic/internal/typecode"
)

var (
	ErrStreamIO      = errors.New("ic: stream i/o failure")
	ErrMalformed     = errors.New("ic: malformed data")
	ErrConstraint    = errors.New("ic: constraint violation")
	ErrTypeMismatch  = errors.New("ic: type mismatch")
	ErrDuplicateType = errors.New("ic: duplicate type id")
	ErrUnknownType   = errors.New("ic: unknown type")
)

// FieldError attaches the type, field and bound to a codec failure. It
// matches both its Kind sentinel and the underlying cause with errors.Is.
type FieldError struct {
	Type  string
	Field string
	Bound int64
	Kind  error
	Err   error
}

func (e *FieldError) Error() string {
	where := e.Type
	if e.Field != "" {
		where += "." + e.Field
	}
	msg := fmt.Sprintf("%v: %s", e.Kind, where)
	if e.Bound > 0 {
		msg += fmt.Sprintf(" (bound %d)", e.Bound)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FieldError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// TypeMismatchError reports an extract against an Any tagged with another
// type. Got is empty when the Any carries no type.
type TypeMismatchError struct {
	Want string
	Got  string
}

func (e *TypeMismatchError) Error() string {
	if e.Got == "" {
		return fmt.Sprintf("ic: type mismatch: want %s, any has no type", e.Want)
	}
	return fmt.Sprintf("ic: type mismatch: want %s, got %s", e.Want, e.Got)
}

func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// Classify maps err to one of ErrStreamIO, ErrMalformed, ErrConstraint or
// ErrTypeMismatch. It returns nil for nil and for errors outside the
// taxonomy.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrTypeMismatch):
		return ErrTypeMismatch
	case errors.Is(err, ErrConstraint),
		errors.Is(err, term.ErrTooLong),
		errors.Is(err, term.ErrEmptyPacket):
		return ErrConstraint
	case errors.Is(err, ErrStreamIO), errors.Is(err, term.ErrIO):
		return ErrStreamIO
	case errors.Is(err, ErrMalformed),
		errors.Is(err, term.ErrTruncated),
		errors.Is(err, term.ErrUnexpectedTag),
		errors.Is(err, term.ErrBadVersion),
		errors.Is(err, term.ErrOutOfRange),
		errors.Is(err, term.ErrBinaryTooLarge),
		errors.Is(err, term.ErrPacketTooLarge),
		errors.Is(err, term.ErrTooDeep),
		errors.Is(err, typecode.ErrMalformed):
		return ErrMalformed
	default:
		return nil
	}
}

// resultLabel is the metrics label for the outcome of an operation.
func resultLabel(err error) string {
	switch Classify(err) {
	case nil:
		if err != nil {
			return "error"
		}
		return "ok"
	case ErrStreamIO:
		return "stream_io"
	case ErrConstraint:
		return "constraint"
	case ErrTypeMismatch:
		return "type_mismatch"
	default:
		return "malformed"
	}
}

// wrapField wraps a term-level failure for typeName.field. With no field,
// the field is taken from a dotted term.OpError. Errors that are already
// FieldErrors pass through.
func wrapField(typeName, field string, err error) error {
	if err == nil {
		return nil
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		return err
	}
	var oe *term.OpError
	if field == "" && errors.As(err, &oe) {
		field = oe.Field()
	}
	kind := Classify(err)
	if kind == nil {
		kind = ErrMalformed
	}
	return &FieldError{Type: typeName, Field: field, Kind: kind, Err: err}
}

func constraintError(typeName, field string, bound int64, format string, args ...any) error {
	return &FieldError{
		Type:  typeName,
		Field: field,
		Bound: bound,
		Kind:  ErrConstraint,
		Err:   fmt.Errorf(format, args...),
	}
}
