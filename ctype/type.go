package ctype

import (
	"strconv"
	"strings"
)

// Type is a node of the C type graph. Values are owned by the front end and
// must not be mutated once a layout has been requested for them.
type Type interface {
	Kind() Kind
	String() string
}

var (
	_ Type = (*Scalar)(nil)
	_ Type = (*Pointer)(nil)
	_ Type = (*Array)(nil)
	_ Type = (*Struct)(nil)
	_ Type = (*Incomplete)(nil)
)

// Kind discriminates Type implementations.
type Kind uint8

const (
	KindScalar Kind = iota
	KindPointer
	KindArray
	KindStruct
	KindUnion
	KindIncomplete
)

var kindNames = [...]string{
	KindScalar:     "scalar",
	KindPointer:    "pointer",
	KindArray:      "array",
	KindStruct:     "struct",
	KindUnion:      "union",
	KindIncomplete: "incomplete",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsAggregate reports whether k is a struct or union.
func (k Kind) IsAggregate() bool {
	return k == KindStruct || k == KindUnion
}

// Scalar is an arithmetic type. Its width comes from the target's primitive
// table, keyed by Prim.
type Scalar struct {
	Prim     Prim
	Unsigned bool
}

func (s *Scalar) Kind() Kind { return KindScalar }

// Signed reports whether values of s sign-extend. Plain char is treated as
// signed and _Bool as unsigned.
func (s *Scalar) Signed() bool {
	switch {
	case s.Prim.IsFloat():
		return true
	case s.Prim == Bool:
		return false
	}
	return !s.Unsigned
}

func (s *Scalar) String() string {
	if s.Unsigned && s.Prim.IsInteger() && s.Prim != Bool {
		return "unsigned " + s.Prim.String()
	}
	return s.Prim.String()
}

// Pointer is a data or function pointer. Elem is never traversed by layout,
// which makes it the only legal edge for self-referential types.
type Pointer struct {
	Elem Type
}

func (p *Pointer) Kind() Kind { return KindPointer }

func (p *Pointer) String() string {
	if p.Elem == nil {
		return "void *"
	}
	return p.Elem.String() + " *"
}

// Array is a fixed-length array. Len may be zero (flexible or GNU zero-length).
type Array struct {
	Elem Type
	Len  int64
}

func (a *Array) Kind() Kind { return KindArray }

func (a *Array) String() string {
	return a.Elem.String() + "[" + strconv.FormatInt(a.Len, 10) + "]"
}

// Qual is a set of type qualifiers. Qualifiers never change layout.
type Qual uint8

const (
	Const Qual = 1 << iota
	Volatile
)

// Member is a struct or union member.
type Member struct {
	Type     Type
	Name     string // "" for anonymous members and unnamed bitfields
	Width    int    // bit width, meaningful when Bitfield is set
	Align    int64  // _Alignas override, 0 when absent
	Bitfield bool
	Qual     Qual
}

// Anonymous reports whether the member is an anonymous struct or union whose
// members belong to the enclosing namespace.
func (m *Member) Anonymous() bool {
	if m.Name != "" || m.Bitfield {
		return false
	}
	return Underlying(m.Type).Kind().IsAggregate()
}

// Struct is a struct or union definition.
type Struct struct {
	Tag     string
	Members []Member
	Align   int64 // minimum alignment attribute, 0 when absent
	Union   bool
	Packed  bool
}

func (s *Struct) Kind() Kind {
	if s.Union {
		return KindUnion
	}
	return KindStruct
}

func (s *Struct) String() string {
	kw := "struct"
	if s.Union {
		kw = "union"
	}
	if s.Tag != "" {
		return kw + " " + s.Tag
	}
	var b strings.Builder
	b.WriteString(kw)
	b.WriteString(" {")
	for i := range s.Members {
		m := &s.Members[i]
		b.WriteByte(' ')
		b.WriteString(m.Type.String())
		if m.Name != "" {
			b.WriteByte(' ')
			b.WriteString(m.Name)
		}
		if m.Bitfield {
			b.WriteString(" : ")
			b.WriteString(strconv.Itoa(m.Width))
		}
		b.WriteByte(';')
	}
	b.WriteString(" }")
	return b.String()
}

// Incomplete is a placeholder for a forward-declared type. Def is set once
// the definition is seen.
type Incomplete struct {
	Def Type
	Tag string
}

func (t *Incomplete) Kind() Kind { return KindIncomplete }

// Resolve completes the placeholder.
func (t *Incomplete) Resolve(def Type) {
	t.Def = def
}

func (t *Incomplete) String() string {
	if t.Tag == "" {
		return "<incomplete>"
	}
	return t.Tag
}

// Underlying follows resolved placeholders. It returns the last placeholder
// when the chain ends unresolved, and nil only for a nil input.
func Underlying(t Type) Type {
	for i := 0; i < maxResolveDepth; i++ {
		inc, ok := t.(*Incomplete)
		if !ok || inc.Def == nil {
			return t
		}
		t = inc.Def
	}
	return t
}

// placeholder chains longer than this are treated as unresolved
const maxResolveDepth = 64
