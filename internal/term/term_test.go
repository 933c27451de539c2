package term

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

type failReader struct{}

func (failReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestWriteUlongUsesSmallestEncoding(t *testing.T) {
	cases := []struct {
		in   uint32
		want []byte
	}{
		{5, []byte{TagSmallInteger, 5}},
		{255, []byte{TagSmallInteger, 255}},
		{300, []byte{TagInteger, 0, 0, 1, 44}},
		{0x7fffffff, []byte{TagInteger, 0x7f, 0xff, 0xff, 0xff}},
		{0xffffffff, []byte{TagSmallBig, 4, 0, 0xff, 0xff, 0xff, 0xff}},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		if err := NewWriter(&buf).WriteUlong(tc.in); err != nil {
			t.Fatalf("write %d: %v", tc.in, err)
		}
		if !bytes.Equal(buf.Bytes(), tc.want) {
			t.Fatalf("encoding of %d: got=%v want=%v", tc.in, buf.Bytes(), tc.want)
		}
		got, err := NewReader(&buf).ReadUlong()
		if err != nil {
			t.Fatalf("read %d: %v", tc.in, err)
		}
		if got != tc.in {
			t.Fatalf("round trip: got=%d want=%d", got, tc.in)
		}
	}
}

func TestReadUlongRejectsOutOfRange(t *testing.T) {
	cases := map[string][]byte{
		"negative integer": {TagInteger, 0xff, 0xff, 0xff, 0xff},
		"wide big":         {TagSmallBig, 5, 0, 1, 0, 0, 0, 1},
		"negative big":     {TagSmallBig, 1, 1, 5},
	}
	for name, in := range cases {
		_, err := NewReader(bytes.NewReader(in)).ReadUlong()
		if !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("%s: expected ErrOutOfRange, got %v", name, err)
		}
	}
}

func TestReadUlongAcceptsZeroPaddedBig(t *testing.T) {
	in := []byte{TagLargeBig, 0, 0, 0, 6, 0, 7, 0, 0, 0, 0, 0}
	got, err := NewReader(bytes.NewReader(in)).ReadUlong()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != 7 {
		t.Fatalf("unexpected value: %d", got)
	}
}

func TestStringEncodings(t *testing.T) {
	long := strings.Repeat("x", MaxStringExtLen+1)
	for _, s := range []string{"", "hello", long} {
		var buf bytes.Buffer
		if err := NewWriter(&buf).WriteString(s); err != nil {
			t.Fatalf("write string len=%d: %v", len(s), err)
		}
		switch {
		case s == "":
			if !bytes.Equal(buf.Bytes(), []byte{TagNil}) {
				t.Fatalf("empty string must encode as nil: %v", buf.Bytes())
			}
		case len(s) > MaxStringExtLen:
			if buf.Bytes()[0] != TagList {
				t.Fatalf("long string must encode as list, got tag %d", buf.Bytes()[0])
			}
		default:
			if buf.Bytes()[0] != TagString {
				t.Fatalf("short string must encode as STRING_EXT, got tag %d", buf.Bytes()[0])
			}
		}
		got, err := NewReader(&buf).ReadString()
		if err != nil {
			t.Fatalf("read string len=%d: %v", len(s), err)
		}
		if got != s {
			t.Fatalf("string round trip mismatch for len=%d", len(s))
		}
	}
}

func TestReadStringFromCharList(t *testing.T) {
	in := []byte{TagList, 0, 0, 0, 2, TagSmallInteger, 'h', TagSmallInteger, 'i', TagNil}
	got, err := NewReader(bytes.NewReader(in)).ReadString()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != "hi" {
		t.Fatalf("unexpected string: %q", got)
	}
}

func TestAtomEncodings(t *testing.T) {
	long := strings.Repeat("n", 256)
	for _, s := range []string{"", "foo@host", long} {
		var buf bytes.Buffer
		if err := NewWriter(&buf).WriteAtom(s); err != nil {
			t.Fatalf("write atom: %v", err)
		}
		wantTag := TagSmallAtomUTF8
		if len(s) > 255 {
			wantTag = TagAtomUTF8
		}
		if buf.Bytes()[0] != wantTag {
			t.Fatalf("atom len=%d: got tag %d want %d", len(s), buf.Bytes()[0], wantTag)
		}
		got, err := NewReader(&buf).ReadAtom()
		if err != nil {
			t.Fatalf("read atom: %v", err)
		}
		if got != s {
			t.Fatalf("atom round trip mismatch: %q", got)
		}
	}

	latin := []byte{TagAtom, 0, 1, 0xe9}
	got, err := NewReader(bytes.NewReader(latin)).ReadAtom()
	if err != nil {
		t.Fatalf("read latin1 atom: %v", err)
	}
	if got != "é" {
		t.Fatalf("latin1 atom not converted: %q", got)
	}

	var buf bytes.Buffer
	err = NewWriter(&buf).WriteAtom(strings.Repeat("a", MaxAtomLen+1))
	if !errors.Is(err, ErrTooLong) {
		t.Fatalf("expected ErrTooLong, got %v", err)
	}
}

func TestWritePortWireFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(&buf).WritePort("foo@host", 5, 1); err != nil {
		t.Fatalf("write port: %v", err)
	}
	want := append([]byte{TagNewPort, TagSmallAtomUTF8, 8}, "foo@host"...)
	want = append(want, 0, 0, 0, 5, 0, 0, 0, 1)
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("port encoding: got=%v want=%v", buf.Bytes(), want)
	}
	p, err := NewReader(&buf).ReadPort()
	if err != nil {
		t.Fatalf("read port: %v", err)
	}
	if p != (PortTerm{Node: "foo@host", ID: 5, Creation: 1}) {
		t.Fatalf("port mismatch: %+v", p)
	}
}

func TestReadPortLegacyEncodings(t *testing.T) {
	legacy := []byte{TagPort, TagAtom, 0, 3, 'a', '@', 'b', 0, 0, 0, 7, 2}
	p, err := NewReader(bytes.NewReader(legacy)).ReadPort()
	if err != nil {
		t.Fatalf("read PORT_EXT: %v", err)
	}
	if p != (PortTerm{Node: "a@b", ID: 7, Creation: 2}) {
		t.Fatalf("PORT_EXT mismatch: %+v", p)
	}

	v4 := []byte{TagV4Port, TagSmallAtomUTF8, 1, 'n', 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 3}
	p, err = NewReader(bytes.NewReader(v4)).ReadPort()
	if err != nil {
		t.Fatalf("read V4_PORT_EXT: %v", err)
	}
	if p.ID != 1<<40 || p.Creation != 3 {
		t.Fatalf("V4_PORT_EXT mismatch: %+v", p)
	}
}

func TestPidAndRefRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WritePid("bar@host", 40, 2, 3); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	if err := w.WriteRef("bar@host", 3, []uint32{1, 2, 3}); err != nil {
		t.Fatalf("write ref: %v", err)
	}
	r := NewReader(&buf)
	pid, err := r.ReadPid()
	if err != nil {
		t.Fatalf("read pid: %v", err)
	}
	if pid != (PidTerm{Node: "bar@host", ID: 40, Serial: 2, Creation: 3}) {
		t.Fatalf("pid mismatch: %+v", pid)
	}
	ref, err := r.ReadRef()
	if err != nil {
		t.Fatalf("read ref: %v", err)
	}
	if ref.Node != "bar@host" || ref.Creation != 3 || len(ref.IDs) != 3 || ref.IDs[2] != 3 {
		t.Fatalf("ref mismatch: %+v", ref)
	}
}

func TestReadRefLegacyEncoding(t *testing.T) {
	in := []byte{TagNewReference, 0, 2, TagSmallAtom, 1, 'n', 1, 0, 0, 0, 9, 0, 0, 0, 10}
	ref, err := NewReader(bytes.NewReader(in)).ReadRef()
	if err != nil {
		t.Fatalf("read NEW_REFERENCE_EXT: %v", err)
	}
	if ref.Node != "n" || ref.Creation != 1 || len(ref.IDs) != 2 || ref.IDs[0] != 9 || ref.IDs[1] != 10 {
		t.Fatalf("ref mismatch: %+v", ref)
	}
}

func TestReadTruncatedIsDeterministic(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(&buf).WritePort("foo@host", 5, 1); err != nil {
		t.Fatalf("write port: %v", err)
	}
	b := buf.Bytes()[:buf.Len()-2]
	_, err := NewReader(bytes.NewReader(b)).ReadPort()
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestReadUnexpectedTag(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte{TagNil})).ReadPort()
	if !errors.Is(err, ErrUnexpectedTag) {
		t.Fatalf("expected ErrUnexpectedTag, got %v", err)
	}
	var te *TagError
	if !errors.As(err, &te) || te.Tag != TagNil || te.Op != "port" {
		t.Fatalf("unexpected tag error: %v", err)
	}
}

func TestStreamFailuresWrapErrIO(t *testing.T) {
	err := NewWriter(failWriter{}).WriteUlong(1)
	if !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO on write, got %v", err)
	}
	_, err = NewReader(failReader{}).ReadUlong()
	if !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO on read, got %v", err)
	}
}

func TestRawTermCapturesExactlyOneTerm(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	mustWrite(t, w.WriteTupleHead(3))
	mustWrite(t, w.WriteAtom("ok"))
	mustWrite(t, w.WriteListHead(2))
	mustWrite(t, w.WriteUlong(1))
	mustWrite(t, w.WriteUlong(1000))
	mustWrite(t, w.WriteNil())
	mustWrite(t, w.WriteBinary([]byte("x")))
	want := append([]byte(nil), buf.Bytes()...)
	mustWrite(t, w.WriteAtom("trailer"))

	r := NewReader(&buf)
	if _, err := r.PeekTag(); err != nil {
		t.Fatalf("peek: %v", err)
	}
	raw, err := r.RawTerm()
	if err != nil {
		t.Fatalf("raw term: %v", err)
	}
	if !bytes.Equal(raw, want) {
		t.Fatalf("raw term mismatch: got=%v want=%v", raw, want)
	}
	if r.Consumed() != int64(len(want)) {
		t.Fatalf("consumed %d bytes, want %d", r.Consumed(), len(want))
	}
	trailer, err := r.ReadAtom()
	if err != nil || trailer != "trailer" {
		t.Fatalf("trailer: %q %v", trailer, err)
	}
}

func TestSkipRejectsDeepNesting(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for i := 0; i < 10; i++ {
		mustWrite(t, w.WriteTupleHead(1))
	}
	mustWrite(t, w.WriteNil())
	limits := DefaultLimits()
	limits.MaxDepth = 4
	err := NewReaderLimits(&buf, limits).Skip()
	if !errors.Is(err, ErrTooDeep) {
		t.Fatalf("expected ErrTooDeep, got %v", err)
	}
}

func TestReadBinaryHonorsLimit(t *testing.T) {
	var buf bytes.Buffer
	mustWrite(t, NewWriter(&buf).WriteBinary(make([]byte, 64)))
	limits := DefaultLimits()
	limits.MaxBinaryBytes = 16
	_, err := NewReaderLimits(&buf, limits).ReadBinary()
	if !errors.Is(err, ErrBinaryTooLarge) {
		t.Fatalf("expected ErrBinaryTooLarge, got %v", err)
	}
}

func mustWrite(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestOpErrorNamesField(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(&buf).WritePort("foo@host", 5, 1); err != nil {
		t.Fatalf("write: %v", err)
	}
	b := buf.Bytes()

	_, err := NewReader(bytes.NewReader(b[:len(b)-2])).ReadPort()
	var oe *OpError
	if !errors.As(err, &oe) || oe.Op != "port.creation" || oe.Field() != "creation" {
		t.Fatalf("expected port.creation op, got %#v", err)
	}
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}

	_, err = NewReader(bytes.NewReader(b[:4])).ReadPort()
	if !errors.As(err, &oe) || oe.Field() != "node" {
		t.Fatalf("expected node field, got %v", err)
	}

	_, err = NewReader(bytes.NewReader(nil)).ReadPort()
	if !errors.As(err, &oe) || oe.Field() != "" {
		t.Fatalf("tag read should carry no field, got %v", err)
	}

	err = NewWriter(failWriter{}).WritePid("a", 1, 2, 3)
	if !errors.As(err, &oe) || oe.Op != "pid" || !errors.Is(err, ErrIO) {
		t.Fatalf("expected pid write failure, got %v", err)
	}
}
