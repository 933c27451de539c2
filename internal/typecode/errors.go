package typecode

import (
	"errors"
	"fmt"
)

var (
	ErrIndexOutOfRange = errors.New("typecode: member index out of range")
	ErrDuplicateMember = errors.New("typecode: duplicate member name")
	ErrMissingMember   = errors.New("typecode: member slot not set")
	ErrMissingContent  = errors.New("typecode: content type not set")
	ErrUnsupportedKind = errors.New("typecode: unsupported kind")
	ErrCycle           = errors.New("typecode: type graph is not a tree")
	ErrMalformed       = errors.New("typecode: malformed encoding")
)

// IndexError reports access to a member slot outside [0, Count).
type IndexError struct {
	Index int
	Count int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("typecode: member index %d out of range [0, %d)", e.Index, e.Count)
}

func (e *IndexError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}
