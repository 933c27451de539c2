package ic

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/danmuck/otpic/internal/observability"
	"github.com/danmuck/otpic/internal/term"
	"github.com/danmuck/otpic/internal/typecode"
	"github.com/rs/zerolog/log"
)

// anyAtom is the first element of an Any on the wire: {any, TypeCode, Value}.
const anyAtom = "any"

// Any holds one value of any registered type together with the TypeCode
// that describes it. The value is kept in encoded form and is only
// reachable through Extract with the matching helper.
type Any struct {
	tc      *typecode.TypeCode
	payload []byte
}

// Type returns the tagged TypeCode, or nil for an empty Any.
func (a *Any) Type() *typecode.TypeCode {
	return a.tc
}

// SetType tags a with tc. A payload encoded for a different type id is
// dropped.
func (a *Any) SetType(tc *typecode.TypeCode) {
	if a.tc == nil || tc == nil || a.tc.ID() != tc.ID() {
		a.payload = nil
	}
	a.tc = tc
}

// Payload returns a copy of the encoded value.
func (a *Any) Payload() []byte {
	if a.payload == nil {
		return nil
	}
	return bytes.Clone(a.payload)
}

// Insert encodes v with h and stores it in a, replacing any previous
// content. On failure a is unchanged.
func Insert[T any](a *Any, h Helper[T], v T) error {
	var buf bytes.Buffer
	if err := h.Marshal(term.NewWriter(&buf), v); err != nil {
		return observe(h.Name(), "insert", err)
	}
	a.tc = h.Type()
	a.payload = buf.Bytes()
	observability.RecordAnyPayload(h.Name(), len(a.payload))
	return observe(h.Name(), "insert", nil)
}

// Extract decodes the value held in a with h under term.DefaultLimits. The
// type id of a must equal h.ID(), and the payload must hold exactly one
// value.
func Extract[T any](a *Any, h Helper[T]) (T, error) {
	return ExtractLimits(a, h, term.DefaultLimits())
}

// ExtractLimits is Extract with caller-supplied decode limits.
func ExtractLimits[T any](a *Any, h Helper[T], limits term.Limits) (T, error) {
	v, err := extract(a, h, limits)
	return v, observe(h.Name(), "extract", err)
}

func extract[T any](a *Any, h Helper[T], limits term.Limits) (T, error) {
	var zero T
	if a.tc == nil || a.tc.ID() != h.ID() {
		err := &TypeMismatchError{Want: h.ID()}
		if a.tc != nil {
			err.Got = a.tc.ID()
		}
		log.Warn().Str("want", err.Want).Str("got", err.Got).Msg("any extract type mismatch")
		return zero, err
	}
	if a.payload == nil {
		return zero, &FieldError{Type: h.Name(), Kind: ErrMalformed, Err: errors.New("any carries a type but no value")}
	}
	br := bytes.NewReader(a.payload)
	v, err := h.Unmarshal(term.NewReaderLimits(br, limits))
	if err != nil {
		return zero, err
	}
	if br.Len() != 0 {
		return zero, &FieldError{Type: h.Name(), Kind: ErrMalformed, Err: fmt.Errorf("%d trailing bytes", br.Len())}
	}
	return v, nil
}

// Marshal writes a as {any, TypeCode, Value}.
func (a *Any) Marshal(w *term.Writer) error {
	if a.tc == nil || a.payload == nil {
		return fmt.Errorf("%w: any is empty", ErrConstraint)
	}
	if err := w.WriteTupleHead(3); err != nil {
		return wrapField("Any", "", err)
	}
	if err := w.WriteAtom(anyAtom); err != nil {
		return wrapField("Any", "", err)
	}
	if err := a.tc.Marshal(w); err != nil {
		return wrapField("Any", "type", err)
	}
	return wrapField("Any", "value", w.WriteRaw(a.payload))
}

// UnmarshalAny reads an Any written by Marshal. The value is kept in
// encoded form; its type is checked on Extract.
func UnmarshalAny(r *term.Reader) (*Any, error) {
	arity, err := r.ReadTupleHead()
	if err != nil {
		return nil, wrapField("Any", "", err)
	}
	if arity != 3 {
		return nil, &FieldError{Type: "Any", Kind: ErrMalformed, Err: fmt.Errorf("tuple of arity %d", arity)}
	}
	tag, err := r.ReadAtom()
	if err != nil {
		return nil, wrapField("Any", "", err)
	}
	if tag != anyAtom {
		return nil, &FieldError{Type: "Any", Kind: ErrMalformed, Err: fmt.Errorf("tagged %q", tag)}
	}
	tc, err := typecode.Unmarshal(r)
	if err != nil {
		return nil, wrapField("Any", "type", err)
	}
	if err := tc.Validate(); err != nil {
		return nil, &FieldError{Type: "Any", Field: "type", Kind: ErrMalformed, Err: err}
	}
	raw, err := r.RawTerm()
	if err != nil {
		return nil, wrapField("Any", "value", err)
	}
	return &Any{tc: tc, payload: raw}, nil
}
