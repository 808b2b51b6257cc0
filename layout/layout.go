package layout

import "github.com/wippyai/clayout/ctype"

// Layout is the computed memory layout of a type. Layouts returned by a
// Computer are shared through its Cache and must not be modified.
type Layout struct {
	Type    ctype.Type // resolved type, never *ctype.Incomplete
	Elem    *Layout    // element layout for arrays
	Members []Member   // direct members of structs and unions
	Fields  []Field    // named members with anonymous members flattened
	Size    int64
	Align   int64
	// FieldAlign is the alignment the value takes as a struct member. It
	// differs from Align only for scalars on targets such as i386.
	FieldAlign int64
	Len        int64
	Kind       ctype.Kind
	Packed     bool
	// Degraded marks a best-effort result returned together with an error.
	Degraded bool
}

// Member is one direct member of a struct or union.
type Member struct {
	Layout     *Layout
	Name       string
	Offset     int64 // byte holding the first bit
	UnitOffset int64 // storage unit start, bitfields only
	UnitSize   int64
	BitOffset  int // first allocated bit within Offset
	BitWidth   int
	Alloc      int // first allocated bit within the unit
	Bitfield   bool
	Anonymous  bool
	// Unaligned is set when packing placed a non-bitfield member below its
	// natural alignment.
	Unaligned bool
}

// Bit returns the absolute allocation bit of the member.
func (m *Member) Bit() int64 {
	return m.Offset*8 + int64(m.BitOffset)
}

// Field is a named member reachable from an aggregate's namespace, with
// anonymous struct and union members made transparent. Offsets are relative to
// the aggregate that lists the field.
type Field struct {
	Layout     *Layout
	Name       string
	Index      []int // member indices from the aggregate down to the field
	Offset     int64
	UnitOffset int64
	UnitSize   int64
	BitOffset  int
	BitWidth   int // Size*8 for non-bitfields
	Alloc      int
	Bitfield   bool
	Unaligned  bool
}

// Bit returns the absolute allocation bit of the field.
func (f *Field) Bit() int64 {
	return f.Offset*8 + int64(f.BitOffset)
}

// Scalar returns the scalar type of a scalar layout.
func (l *Layout) Scalar() (*ctype.Scalar, bool) {
	s, ok := l.Type.(*ctype.Scalar)
	return s, ok
}

// IsAggregate reports whether l is a struct or union.
func (l *Layout) IsAggregate() bool {
	return l.Kind.IsAggregate()
}

// Lookup finds a field by name.
func (l *Layout) Lookup(name string) (*Field, bool) {
	for i := range l.Fields {
		if l.Fields[i].Name == name {
			return &l.Fields[i], true
		}
	}
	return nil, false
}

// MemberByIndex follows an index path from a Field.
func (l *Layout) MemberByIndex(index []int) *Member {
	var m *Member
	cur := l
	for _, i := range index {
		m = &cur.Members[i]
		cur = m.Layout
	}
	return m
}

func degraded(t ctype.Type) *Layout {
	kind := ctype.KindStruct
	if t != nil && t.Kind() != ctype.KindIncomplete {
		kind = t.Kind()
	}
	return &Layout{
		Type:       t,
		Kind:       kind,
		Size:       0,
		Align:      1,
		FieldAlign: 1,
		Degraded:   true,
	}
}
