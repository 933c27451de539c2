package typecode

import (
	"fmt"
	"strings"
)

// Member is one named slot of a struct, exception or enum TypeCode.
// Enum members have no Type.
type Member struct {
	Name string
	Type *TypeCode
}

// TypeCode describes the structure of a value: its kind, repository id,
// display name, ordered members, length bound and content type.
//
// A TypeCode is built bottom-up and then shared. Once published by a
// descriptor it must not be modified.
type TypeCode struct {
	kind    Kind
	id      string
	name    string
	members []Member
	length  int
	content *TypeCode
}

// New returns an empty TypeCode of kind k.
func New(k Kind) *TypeCode {
	return &TypeCode{kind: k}
}

func (tc *TypeCode) Kind() Kind {
	return tc.kind
}

func (tc *TypeCode) SetKind(k Kind) {
	tc.kind = k
}

func (tc *TypeCode) ID() string {
	return tc.id
}

func (tc *TypeCode) SetID(id string) {
	tc.id = id
}

func (tc *TypeCode) Name() string {
	return tc.name
}

func (tc *TypeCode) SetName(n string) {
	tc.name = n
}

func (tc *TypeCode) Length() int {
	return tc.length
}

func (tc *TypeCode) SetLength(n int) {
	tc.length = n
}

func (tc *TypeCode) MemberCount() int {
	return len(tc.members)
}

func (tc *TypeCode) ContentType() *TypeCode {
	return tc.content
}

func (tc *TypeCode) SetContentType(content *TypeCode) {
	tc.content = content
}

// SetMemberCount sizes the member table. Existing slots below n are kept.
func (tc *TypeCode) SetMemberCount(n int) {
	if n < 0 {
		n = 0
	}
	members := make([]Member, n)
	copy(members, tc.members)
	tc.members = members
}

func (tc *TypeCode) checkIndex(i int) error {
	if i < 0 || i >= len(tc.members) {
		return &IndexError{Index: i, Count: len(tc.members)}
	}
	return nil
}

func (tc *TypeCode) MemberName(i int) (string, error) {
	if err := tc.checkIndex(i); err != nil {
		return "", err
	}
	return tc.members[i].Name, nil
}

func (tc *TypeCode) SetMemberName(i int, name string) error {
	if err := tc.checkIndex(i); err != nil {
		return err
	}
	tc.members[i].Name = name
	return nil
}

func (tc *TypeCode) MemberType(i int) (*TypeCode, error) {
	if err := tc.checkIndex(i); err != nil {
		return nil, err
	}
	return tc.members[i].Type, nil
}

func (tc *TypeCode) SetMemberType(i int, t *TypeCode) error {
	if err := tc.checkIndex(i); err != nil {
		return err
	}
	tc.members[i].Type = t
	return nil
}

// Members returns a copy of the member table.
func (tc *TypeCode) Members() []Member {
	out := make([]Member, len(tc.members))
	copy(out, tc.members)
	return out
}

// MemberIndex returns the slot of the member called name, or -1.
func (tc *TypeCode) MemberIndex(name string) int {
	for i, m := range tc.members {
		if m.Name == name {
			return i
		}
	}
	return -1
}

// Validate checks the tree invariants: supported kinds, filled and uniquely
// named member slots, content present where required, and no node that is
// its own ancestor.
func (tc *TypeCode) Validate() error {
	return tc.validate(map[*TypeCode]struct{}{})
}

func (tc *TypeCode) validate(seen map[*TypeCode]struct{}) error {
	if _, ok := seen[tc]; ok {
		return fmt.Errorf("%w: %s %q is its own ancestor", ErrCycle, tc.kind, tc.name)
	}
	seen[tc] = struct{}{}
	defer delete(seen, tc)

	if !tc.kind.supported() {
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, tc.kind)
	}
	if tc.kind.HasContent() {
		if tc.content == nil {
			return fmt.Errorf("%w: %s %q", ErrMissingContent, tc.kind, tc.name)
		}
		if err := tc.content.validate(seen); err != nil {
			return err
		}
	}
	if !tc.kind.HasMembers() {
		return nil
	}
	names := make(map[string]struct{}, len(tc.members))
	for i, m := range tc.members {
		if m.Name == "" {
			return fmt.Errorf("%w: %s member %d has no name", ErrMissingMember, tc.name, i)
		}
		if _, dup := names[m.Name]; dup {
			return fmt.Errorf("%w: %s.%s", ErrDuplicateMember, tc.name, m.Name)
		}
		names[m.Name] = struct{}{}
		if tc.kind == TkEnum {
			continue
		}
		if m.Type == nil {
			return fmt.Errorf("%w: %s.%s has no type", ErrMissingMember, tc.name, m.Name)
		}
		if err := m.Type.validate(seen); err != nil {
			return err
		}
	}
	return nil
}

// Equal reports whether a and b describe the same structure.
func Equal(a, b *TypeCode) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.kind != b.kind || a.id != b.id || a.name != b.name || a.length != b.length {
		return false
	}
	if !Equal(a.content, b.content) {
		return false
	}
	if len(a.members) != len(b.members) {
		return false
	}
	for i := range a.members {
		if a.members[i].Name != b.members[i].Name {
			return false
		}
		if !Equal(a.members[i].Type, b.members[i].Type) {
			return false
		}
	}
	return true
}

func (tc *TypeCode) String() string {
	var sb strings.Builder
	tc.format(&sb)
	return sb.String()
}

func (tc *TypeCode) format(sb *strings.Builder) {
	if tc == nil {
		sb.WriteString("<nil>")
		return
	}
	kind := strings.TrimPrefix(tc.kind.String(), "tk_")
	switch {
	case tc.kind == TkString || tc.kind == TkWString:
		sb.WriteString(kind)
		if tc.length > 0 {
			fmt.Fprintf(sb, "<%d>", tc.length)
		}
	case tc.kind == TkSequence || tc.kind == TkArray:
		sb.WriteString(kind)
		sb.WriteString("<")
		tc.content.format(sb)
		if tc.length > 0 {
			fmt.Fprintf(sb, ", %d", tc.length)
		}
		sb.WriteString(">")
	case tc.kind == TkAlias:
		fmt.Fprintf(sb, "alias %s = ", tc.name)
		tc.content.format(sb)
	case tc.kind.HasMembers():
		fmt.Fprintf(sb, "%s %s{", kind, tc.name)
		for i, m := range tc.members {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(m.Name)
			if m.Type != nil {
				sb.WriteString(": ")
				m.Type.format(sb)
			}
		}
		sb.WriteString("}")
	case tc.kind == TkObjref:
		fmt.Fprintf(sb, "objref %s", tc.name)
	default:
		sb.WriteString(kind)
	}
}
