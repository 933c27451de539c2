package ic

import (
	"bytes"
	"testing"

	"github.com/danmuck/otpic/internal/term"
	"github.com/danmuck/otpic/internal/typecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnyInsertExtract(t *testing.T) {
	var a Any
	in := Port{Node: "foo@host", ID: 5, Creation: 1}
	require.NoError(t, PortHelper{}.Insert(&a, in))
	assert.Same(t, PortHelper{}.Type(), a.Type())

	out, err := PortHelper{}.Extract(&a)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	// extract does not consume the value
	out, err = Extract[Port](&a, PortHelper{})
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestAnyExtractTypeMismatch(t *testing.T) {
	var a Any
	require.NoError(t, PidHelper{}.Insert(&a, Pid{Node: "n", Num: 1}))

	_, err := PortHelper{}.Extract(&a)
	require.ErrorIs(t, err, ErrTypeMismatch)
	var tm *TypeMismatchError
	require.ErrorAs(t, err, &tm)
	assert.Equal(t, PortID, tm.Want)
	assert.Equal(t, PidID, tm.Got)

	var empty Any
	_, err = PortHelper{}.Extract(&empty)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestAnyInsertFailureLeavesContent(t *testing.T) {
	var a Any
	in := Port{Node: "keep", ID: 1}
	require.NoError(t, PortHelper{}.Insert(&a, in))
	err := RefHelper{}.Insert(&a, Ref{Node: "n"})
	require.ErrorIs(t, err, ErrConstraint)

	out, err := PortHelper{}.Extract(&a)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestAnySetType(t *testing.T) {
	var a Any
	require.NoError(t, PortHelper{}.Insert(&a, Port{Node: "n"}))

	a.SetType(PortHelper{}.Type())
	assert.NotEmpty(t, a.Payload())

	a.SetType(PidHelper{}.Type())
	assert.Nil(t, a.Payload())
	_, err := PidHelper{}.Extract(&a)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestAnyPayloadIsACopy(t *testing.T) {
	var a Any
	require.NoError(t, PortHelper{}.Insert(&a, Port{Node: "n", ID: 2}))
	p := a.Payload()
	p[0] = 0
	_, err := PortHelper{}.Extract(&a)
	assert.NoError(t, err)
}

func TestAnyExtractRejectsTrailingBytes(t *testing.T) {
	var a Any
	require.NoError(t, PortHelper{}.Insert(&a, Port{Node: "n"}))
	a.payload = append(a.payload, term.TagNil)
	_, err := PortHelper{}.Extract(&a)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestAnyWireRoundTrip(t *testing.T) {
	var a Any
	in := Ref{Node: "foo@host", Creation: 2, IDs: []uint32{7, 8, 9}}
	require.NoError(t, RefHelper{}.Insert(&a, in))

	var buf bytes.Buffer
	require.NoError(t, a.Marshal(term.NewWriter(&buf)))
	got, err := UnmarshalAny(term.NewReader(&buf))
	require.NoError(t, err)
	assert.Zero(t, buf.Len())

	assert.True(t, typecode.Equal(a.Type(), got.Type()))
	assert.Equal(t, a.Payload(), got.Payload())
	out, err := RefHelper{}.Extract(got)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestAnyMarshalEmpty(t *testing.T) {
	var a Any
	var buf bytes.Buffer
	assert.ErrorIs(t, a.Marshal(term.NewWriter(&buf)), ErrConstraint)
}

func TestUnmarshalAnyRejectsBadShape(t *testing.T) {
	var buf bytes.Buffer
	w := term.NewWriter(&buf)
	require.NoError(t, w.WriteTupleHead(3))
	require.NoError(t, w.WriteAtom("other"))
	_, err := UnmarshalAny(term.NewReader(&buf))
	assert.ErrorIs(t, err, ErrMalformed)

	buf.Reset()
	require.NoError(t, w.WriteTupleHead(2))
	_, err = UnmarshalAny(term.NewReader(&buf))
	assert.ErrorIs(t, err, ErrMalformed)

	buf.Reset()
	require.NoError(t, w.WriteTupleHead(3))
	require.NoError(t, w.WriteAtom("any"))
	require.NoError(t, w.WriteAtom("tk_bogus"))
	_, err = UnmarshalAny(term.NewReader(&buf))
	assert.ErrorIs(t, err, ErrMalformed)
}
