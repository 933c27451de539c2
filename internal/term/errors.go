package term

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrIO             = errors.New("term: stream i/o failure")
	ErrTruncated      = errors.New("term: truncated data")
	ErrUnexpectedTag  = errors.New("term: unexpected tag")
	ErrBadVersion     = errors.New("term: bad version byte")
	ErrTooLong        = errors.New("term: value too long")
	ErrOutOfRange     = errors.New("term: integer out of range")
	ErrBinaryTooLarge = errors.New("term: binary exceeds limit")
	ErrPacketTooLarge = errors.New("term: packet exceeds limit")
	ErrEmptyPacket    = errors.New("term: empty packet")
	ErrTooDeep        = errors.New("term: nesting exceeds limit")
)

// OpError records the encode or decode step that failed. Identity steps
// are dotted by field, as in "port.creation".
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("term: %s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Field returns the part of Op after the first dot, or "".
func (e *OpError) Field() string {
	if i := strings.IndexByte(e.Op, '.'); i >= 0 {
		return e.Op[i+1:]
	}
	return ""
}

func opError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: err}
}

// TagError reports a tag that is not valid where it was read.
type TagError struct {
	Op  string
	Tag byte
}

func (e *TagError) Error() string {
	return fmt.Sprintf("term: %s: unexpected tag %d", e.Op, e.Tag)
}

func (e *TagError) Is(target error) bool {
	return target == ErrUnexpectedTag
}

func tagError(op string, tag byte) error {
	return &TagError{Op: op, Tag: tag}
}
