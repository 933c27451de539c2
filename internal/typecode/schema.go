package typecode

import "fmt"

// maxSchemaDepth bounds nesting; a Schema that reaches it through Content
// pointers is treated as cyclic.
const maxSchemaDepth = 64

// Field declares one member of a struct or exception Schema.
type Field struct {
	Name string
	Type Schema
}

// Schema is the declarative form of a TypeCode tree.
type Schema struct {
	Kind    Kind
	ID      string
	Name    string
	Length  int
	Content *Schema
	Fields  []Field
	Labels  []string
}

// Prim declares a primitive kind such as TkULong.
func Prim(k Kind) Schema {
	return Schema{Kind: k}
}

// String declares a string bounded to at most bound bytes; zero is unbounded.
func String(bound int) Schema {
	return Schema{Kind: TkString, Length: bound}
}

// Sequence declares a sequence of content with at most bound elements.
func Sequence(content Schema, bound int) Schema {
	return Schema{Kind: TkSequence, Content: &content, Length: bound}
}

// Array declares a fixed-length array of content.
func Array(content Schema, length int) Schema {
	return Schema{Kind: TkArray, Content: &content, Length: length}
}

// Alias declares a named alias of content.
func Alias(id, name string, content Schema) Schema {
	return Schema{Kind: TkAlias, ID: id, Name: name, Content: &content}
}

// Struct declares a struct with the given members in wire order.
func Struct(id, name string, fields ...Field) Schema {
	return Schema{Kind: TkStruct, ID: id, Name: name, Fields: fields}
}

// Enum declares an enumeration with the given labels in ordinal order.
func Enum(id, name string, labels ...string) Schema {
	return Schema{Kind: TkEnum, ID: id, Name: name, Labels: labels}
}

// Build constructs the TypeCode tree declared by s. Children are built
// before they are attached, and the parent's member slots are sized before
// any slot is filled. The result is validated.
func Build(s Schema) (*TypeCode, error) {
	tc, err := build(s, 0)
	if err != nil {
		return nil, err
	}
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	return tc, nil
}

// MustBuild is Build for package-level tables; an invalid table is a
// programming error.
func MustBuild(s Schema) *TypeCode {
	tc, err := Build(s)
	if err != nil {
		panic(fmt.Sprintf("typecode: invalid schema %q: %v", s.Name, err))
	}
	return tc
}

func build(s Schema, depth int) (*TypeCode, error) {
	if depth > maxSchemaDepth {
		return nil, fmt.Errorf("%w: schema %q nests deeper than %d", ErrCycle, s.Name, maxSchemaDepth)
	}
	if !s.Kind.supported() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, s.Kind)
	}

	var content *TypeCode
	if s.Kind.HasContent() {
		if s.Content == nil {
			return nil, fmt.Errorf("%w: %s %q", ErrMissingContent, s.Kind, s.Name)
		}
		c, err := build(*s.Content, depth+1)
		if err != nil {
			return nil, err
		}
		content = c
	}

	children := make([]*TypeCode, len(s.Fields))
	for i, f := range s.Fields {
		child, err := build(f.Type, depth+1)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", s.Name, f.Name, err)
		}
		children[i] = child
	}

	tc := New(s.Kind)
	if s.Kind.Named() {
		tc.SetID(s.ID)
		tc.SetName(s.Name)
	}
	if s.Kind.Bounded() {
		tc.SetLength(s.Length)
	}
	if content != nil {
		tc.SetContentType(content)
	}

	switch s.Kind {
	case TkEnum:
		tc.SetMemberCount(len(s.Labels))
		for i, label := range s.Labels {
			if err := tc.SetMemberName(i, label); err != nil {
				return nil, err
			}
		}
	case TkStruct, TkExcept:
		tc.SetMemberCount(len(children))
		for i, child := range children {
			if err := tc.SetMemberName(i, s.Fields[i].Name); err != nil {
				return nil, err
			}
			if err := tc.SetMemberType(i, child); err != nil {
				return nil, err
			}
		}
	}
	return tc, nil
}
