// Package ctype describes C types as an immutable graph.
//
// The graph is produced by a front end (a parser, the WIT adapter in package
// witc, or a type description file) and consumed read-only by package layout.
//
// # Node Types
//
//   - Scalar: arithmetic types keyed by Prim (char, int, double, ...)
//   - Pointer: pointer-sized leaf; its element is never laid out
//   - Array: fixed-length array of an element type
//   - Struct: struct or union (Union set), optionally packed or over-aligned
//   - Incomplete: forward declaration placeholder, completed by Resolve
//
// A struct may refer to itself only through a Pointer:
//
//	node := &ctype.Incomplete{Tag: "struct node"}
//	def := ctype.NewStruct("node",
//		ctype.Field("value", ctype.NewInt()),
//		ctype.Field("next", ctype.NewPointer(node)),
//	)
//	node.Resolve(def)
package ctype
