package ic

import (
	"sync"

	"github.com/danmuck/otpic/internal/observability"
	"github.com/danmuck/otpic/internal/typecode"
	"github.com/rs/zerolog/log"
)

// Descriptor builds a TypeCode from its schema on first use and returns the
// same tree to every caller afterwards. A schema that fails to build panics.
type Descriptor struct {
	schema typecode.Schema
	once   sync.Once
	tc     *typecode.TypeCode
}

func NewDescriptor(s typecode.Schema) *Descriptor {
	return &Descriptor{schema: s}
}

func (d *Descriptor) Type() *typecode.TypeCode {
	d.once.Do(func() {
		d.tc = typecode.MustBuild(d.schema)
		log.Debug().
			Str("type", d.tc.Name()).
			Str("id", d.tc.ID()).
			Int("members", d.tc.MemberCount()).
			Msg("typecode descriptor built")
		observability.RecordDescriptorBuild(d.tc.Name())
	})
	return d.tc
}
