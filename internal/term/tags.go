package term

// Version is the leading byte of an encoded external term.
const Version byte = 131

// Tags from the external term format.
const (
	TagNewFloat       byte = 70
	TagNewPid         byte = 88
	TagNewPort        byte = 89
	TagNewerReference byte = 90
	TagSmallInteger   byte = 97
	TagInteger        byte = 98
	TagFloat          byte = 99
	TagAtom           byte = 100
	TagReference      byte = 101
	TagPort           byte = 102
	TagPid            byte = 103
	TagSmallTuple     byte = 104
	TagLargeTuple     byte = 105
	TagNil            byte = 106
	TagString         byte = 107
	TagList           byte = 108
	TagBinary         byte = 109
	TagSmallBig       byte = 110
	TagLargeBig       byte = 111
	TagNewReference   byte = 114
	TagSmallAtom      byte = 115
	TagMap            byte = 116
	TagAtomUTF8       byte = 118
	TagSmallAtomUTF8  byte = 119
	TagV4Port         byte = 120
)

// Encoding limits imposed by the format itself.
const (
	MaxStringExtLen = 0xffff
	MaxAtomLen      = 0xffff
	MaxReferenceLen = 0xffff
)
