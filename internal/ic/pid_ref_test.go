package ic

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/otpic/internal/term"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPidRoundTrip(t *testing.T) {
	in := Pid{Node: "a@b", Num: 42, Serial: 3, Creation: 7}
	var buf bytes.Buffer
	require.NoError(t, PidHelper{}.Marshal(term.NewWriter(&buf), in))
	assert.Equal(t, byte(term.TagNewPid), buf.Bytes()[0])

	out, err := PidHelper{}.Unmarshal(term.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, PidID, PidHelper{}.Type().ID())
}

func TestPidAcceptsLegacyEncoding(t *testing.T) {
	b := []byte{term.TagPid, term.TagSmallAtomUTF8, 1, 'n', 0, 0, 0, 4, 0, 0, 0, 2, 3}
	out, err := PidHelper{}.Unmarshal(term.NewReader(bytes.NewReader(b)))
	require.NoError(t, err)
	assert.Equal(t, Pid{Node: "n", Num: 4, Serial: 2, Creation: 3}, out)
}

func TestRefRoundTrip(t *testing.T) {
	in := Ref{Node: "a@b", Creation: 9, IDs: []uint32{1, 2, 3}}
	var buf bytes.Buffer
	require.NoError(t, RefHelper{}.Marshal(term.NewWriter(&buf), in))
	assert.Equal(t, byte(term.TagNewerReference), buf.Bytes()[0])

	out, err := RefHelper{}.Unmarshal(term.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRefIDBounds(t *testing.T) {
	var buf bytes.Buffer
	w := term.NewWriter(&buf)

	err := RefHelper{}.Marshal(w, Ref{Node: "n"})
	require.ErrorIs(t, err, ErrConstraint)

	err = RefHelper{}.Marshal(w, Ref{Node: "n", IDs: make([]uint32, RefIDBound+1)})
	require.ErrorIs(t, err, ErrConstraint)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "ids", fe.Field)
	assert.EqualValues(t, RefIDBound, fe.Bound)
	assert.Zero(t, buf.Len())

	require.NoError(t, w.WriteRef("n", 1, make([]uint32, RefIDBound+1)))
	_, err = RefHelper{}.Unmarshal(term.NewReader(&buf))
	assert.ErrorIs(t, err, ErrConstraint)
}

func TestRefTypeDescribesIDSequence(t *testing.T) {
	tc := RefHelper{}.Type()
	idx := tc.MemberIndex("ids")
	require.Equal(t, 2, idx)
	ids, err := tc.MemberType(idx)
	require.NoError(t, err)
	assert.Equal(t, "sequence<ulong, 5>", ids.String())
}

func TestClassify(t *testing.T) {
	assert.Nil(t, Classify(nil))
	assert.Nil(t, Classify(errors.New("other")))
	assert.Equal(t, ErrMalformed, Classify(term.ErrTruncated))
	assert.Equal(t, ErrConstraint, Classify(term.ErrTooLong))
	assert.Equal(t, ErrStreamIO, Classify(term.ErrIO))
	assert.Equal(t, ErrTypeMismatch, Classify(&TypeMismatchError{Want: PortID}))
}
