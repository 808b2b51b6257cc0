package witc

import (
	"github.com/wippyai/clayout/internal/align"
	"go.bytecodealliance.org/wit"
)

// Info is the canonical ABI size and alignment of a WIT type in a 32-bit
// linear memory.
type Info struct {
	Size  int64
	Align int64
}

// Canonical computes canonical ABI layouts directly from WIT, independently
// of the C type mapping. Results are cached per type definition.
type Canonical struct {
	cache map[*wit.TypeDef]Info
}

func NewCanonical() *Canonical {
	return &Canonical{cache: make(map[*wit.TypeDef]Info)}
}

func (c *Canonical) Calculate(t wit.Type) Info {
	switch typ := t.(type) {
	case wit.U8, wit.S8, wit.Bool:
		return Info{Size: 1, Align: 1}
	case wit.U16, wit.S16:
		return Info{Size: 2, Align: 2}
	case wit.U32, wit.S32, wit.F32, wit.Char:
		return Info{Size: 4, Align: 4}
	case wit.U64, wit.S64, wit.F64:
		return Info{Size: 8, Align: 8}
	case wit.String:
		return Info{Size: 8, Align: 4}
	case *wit.TypeDef:
		return c.typeDef(typ)
	}
	return Info{Size: 0, Align: 1}
}

func (c *Canonical) typeDef(t *wit.TypeDef) Info {
	if cached, ok := c.cache[t]; ok {
		return cached
	}

	var info Info
	switch kind := t.Kind.(type) {
	case *wit.Record:
		types := make([]wit.Type, len(kind.Fields))
		for i, f := range kind.Fields {
			types[i] = f.Type
		}
		info = c.sequence(types)
	case *wit.Tuple:
		info = c.sequence(kind.Types)
	case *wit.List:
		info = Info{Size: 8, Align: 4}
	case *wit.Own, *wit.Borrow:
		info = Info{Size: 4, Align: 4}
	case *wit.Enum:
		n := discriminantSize(len(kind.Cases))
		info = Info{Size: n, Align: n}
	case *wit.Flags:
		info = flagsInfo(len(kind.Flags))
	case *wit.Option:
		info = c.tagged(1, []wit.Type{kind.Type})
	case *wit.Result:
		info = c.tagged(1, []wit.Type{kind.OK, kind.Err})
	case *wit.Variant:
		cases := make([]wit.Type, len(kind.Cases))
		for i, cs := range kind.Cases {
			cases[i] = cs.Type
		}
		info = c.tagged(discriminantSize(len(kind.Cases)), cases)
	case wit.Type:
		info = c.Calculate(kind)
	default:
		info = Info{Size: 0, Align: 1}
	}

	c.cache[t] = info
	return info
}

func (c *Canonical) sequence(types []wit.Type) Info {
	maxAlign := int64(1)
	offset := int64(0)
	for _, t := range types {
		el := c.Calculate(t)
		offset = align.To(offset, el.Align)
		if el.Align > maxAlign {
			maxAlign = el.Align
		}
		offset += el.Size
	}
	return Info{Size: align.To(offset, maxAlign), Align: maxAlign}
}

// tagged lays out a discriminant followed by the largest payload. Nil
// payloads are cases without one.
func (c *Canonical) tagged(disc int64, payloads []wit.Type) Info {
	maxAlign := disc
	maxSize := int64(0)
	for _, p := range payloads {
		if p == nil {
			continue
		}
		pl := c.Calculate(p)
		if pl.Align > maxAlign {
			maxAlign = pl.Align
		}
		if pl.Size > maxSize {
			maxSize = pl.Size
		}
	}
	off := align.To(disc, maxAlign)
	return Info{Size: align.To(off+maxSize, maxAlign), Align: maxAlign}
}

func discriminantSize(n int) int64 {
	switch {
	case n <= 1<<8:
		return 1
	case n <= 1<<16:
		return 2
	}
	return 4
}

func flagsInfo(n int) Info {
	switch {
	case n == 0:
		return Info{Size: 0, Align: 1}
	case n <= 8:
		return Info{Size: 1, Align: 1}
	case n <= 16:
		return Info{Size: 2, Align: 2}
	case n <= 32:
		return Info{Size: 4, Align: 4}
	}
	return Info{Size: int64((n+31)/32) * 4, Align: 4}
}
