package typecode

import "fmt"

// Kind enumerates the structural category of a TypeCode.
type Kind int

const (
	TkNull Kind = iota
	TkVoid
	TkShort
	TkLong
	TkUShort
	TkULong
	TkFloat
	TkDouble
	TkBoolean
	TkChar
	TkOctet
	TkAny
	TkTypeCode
	TkPrincipal
	TkObjref
	TkStruct
	TkUnion
	TkEnum
	TkString
	TkSequence
	TkArray
	TkAlias
	TkExcept
	TkLongLong
	TkULongLong
	TkLongDouble
	TkWChar
	TkWString
	TkFixed
)

var kindNames = [...]string{
	TkNull:       "tk_null",
	TkVoid:       "tk_void",
	TkShort:      "tk_short",
	TkLong:       "tk_long",
	TkUShort:     "tk_ushort",
	TkULong:      "tk_ulong",
	TkFloat:      "tk_float",
	TkDouble:     "tk_double",
	TkBoolean:    "tk_boolean",
	TkChar:       "tk_char",
	TkOctet:      "tk_octet",
	TkAny:        "tk_any",
	TkTypeCode:   "tk_TypeCode",
	TkPrincipal:  "tk_Principal",
	TkObjref:     "tk_objref",
	TkStruct:     "tk_struct",
	TkUnion:      "tk_union",
	TkEnum:       "tk_enum",
	TkString:     "tk_string",
	TkSequence:   "tk_sequence",
	TkArray:      "tk_array",
	TkAlias:      "tk_alias",
	TkExcept:     "tk_except",
	TkLongLong:   "tk_longlong",
	TkULongLong:  "tk_ulonglong",
	TkLongDouble: "tk_longdouble",
	TkWChar:      "tk_wchar",
	TkWString:    "tk_wstring",
	TkFixed:      "tk_fixed",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("tk_unknown(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a kind name such as "tk_ulong" back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// Primitive reports whether k carries no id, members, bound or content.
func (k Kind) Primitive() bool {
	switch k {
	case TkNull, TkVoid, TkShort, TkLong, TkUShort, TkULong, TkFloat, TkDouble,
		TkBoolean, TkChar, TkOctet, TkAny, TkTypeCode, TkPrincipal,
		TkLongLong, TkULongLong, TkLongDouble, TkWChar:
		return true
	}
	return false
}

// HasMembers reports whether k uses the member table.
func (k Kind) HasMembers() bool {
	return k == TkStruct || k == TkExcept || k == TkEnum
}

// HasContent reports whether k wraps a content TypeCode.
func (k Kind) HasContent() bool {
	return k == TkSequence || k == TkArray || k == TkAlias
}

// Bounded reports whether k uses the length bound.
func (k Kind) Bounded() bool {
	return k == TkString || k == TkWString || k == TkSequence || k == TkArray
}

// Named reports whether k carries an id and a name.
func (k Kind) Named() bool {
	return k == TkStruct || k == TkExcept || k == TkEnum || k == TkAlias || k == TkObjref
}

func (k Kind) supported() bool {
	return k.Primitive() || k.HasMembers() || k.HasContent() || k.Bounded() || k == TkObjref
}
