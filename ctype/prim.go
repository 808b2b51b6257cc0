package ctype

// Prim names a primitive C type. Size and alignment are target properties.
type Prim uint8

const (
	Bool Prim = iota
	Char
	Short
	Int
	Long
	LongLong
	Float
	Double
	LongDouble
	Ptr // pointer-sized integer slot, used for the pointer row of a target table
)

var primNames = [...]string{
	Bool:       "_Bool",
	Char:       "char",
	Short:      "short",
	Int:        "int",
	Long:       "long",
	LongLong:   "long long",
	Float:      "float",
	Double:     "double",
	LongDouble: "long double",
	Ptr:        "void *",
}

func (p Prim) String() string {
	if int(p) < len(primNames) {
		return primNames[p]
	}
	return "prim?"
}

func (p Prim) IsInteger() bool {
	return p <= LongLong
}

func (p Prim) IsFloat() bool {
	return p >= Float && p <= LongDouble
}

// Constructors for the common scalar types. Each call returns a new node.

func NewBool() *Scalar { return &Scalar{Prim: Bool, Unsigned: true} }
func NewChar() *Scalar { return &Scalar{Prim: Char} }
func NewSChar() *Scalar { return &Scalar{Prim: Char} }
func NewUChar() *Scalar { return &Scalar{Prim: Char, Unsigned: true} }
func NewShort() *Scalar { return &Scalar{Prim: Short} }
func NewUShort() *Scalar { return &Scalar{Prim: Short, Unsigned: true} }
func NewInt() *Scalar { return &Scalar{Prim: Int} }
func NewUInt() *Scalar { return &Scalar{Prim: Int, Unsigned: true} }
func NewLong() *Scalar { return &Scalar{Prim: Long} }
func NewULong() *Scalar { return &Scalar{Prim: Long, Unsigned: true} }
func NewLongLong() *Scalar { return &Scalar{Prim: LongLong} }
func NewULongLong() *Scalar { return &Scalar{Prim: LongLong, Unsigned: true} }
func NewFloat() *Scalar { return &Scalar{Prim: Float} }
func NewDouble() *Scalar { return &Scalar{Prim: Double} }
func NewLongDouble() *Scalar { return &Scalar{Prim: LongDouble} }
func NewPointer(elem Type) *Pointer { return &Pointer{Elem: elem} }

// NewArray returns elem[n].
func NewArray(elem Type, n int64) *Array {
	return &Array{Elem: elem, Len: n}
}

// NewStruct returns a struct definition with the given members.
func NewStruct(tag string, members ...Member) *Struct {
	return &Struct{Tag: tag, Members: members}
}

// NewUnion returns a union definition with the given members.
func NewUnion(tag string, members ...Member) *Struct {
	return &Struct{Tag: tag, Members: members, Union: true}
}

// Field returns a plain member.
func Field(name string, t Type) Member {
	return Member{Name: name, Type: t}
}

// Anon returns an anonymous struct or union member.
func Anon(t Type) Member {
	return Member{Type: t}
}

// Bits returns a bitfield member. An empty name with width 0 is an alignment
// barrier.
func Bits(name string, t Type, width int) Member {
	return Member{Name: name, Type: t, Width: width, Bitfield: true}
}
