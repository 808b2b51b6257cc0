// Package layout computes the size, alignment and member offsets of C types
// for a target.
//
// A Computer walks a ctype graph and produces immutable Layout values:
//
//	c := layout.NewComputer(target.LinuxAMD64(), layout.WithSink(sink))
//	l, err := c.Compute(ctype.NewStruct("s",
//		ctype.Field("c", ctype.NewChar()),
//		ctype.Field("y", ctype.NewInt()),
//		ctype.Field("x", ctype.NewLong()),
//	))
//	// l.Size == 16, l.Align == 8, l.Fields[1].Offset == 4
//
// Structs are laid out in declaration order with a bit cursor shared with the
// bitfield allocator, so a non-bitfield member after a bitfield run starts at
// the next free byte that satisfies its alignment. Unions place every member
// at offset 0. Anonymous struct and union members keep their own storage and
// contribute their fields to the enclosing Fields list at physical offsets.
//
// Completed layouts are published to a Cache keyed by type identity. One
// cache serves one compilation unit; types must not be mutated after their
// layout has been requested.
//
// Errors are reported to the configured diag.Sink and returned along with a
// degraded layout (size 0, align 1, Degraded set) so callers can keep going.
// OffsetOf answers offsetof queries over dotted member paths with array
// indices.
package layout
