// Package clayout computes C data layout and calling convention details for
// a compiler back end.
//
// A Session binds a target data model to a calling convention and holds the
// layout cache and diagnostics of one compilation unit:
//
//	s, err := clayout.New(target.LinuxAMD64())
//	if err != nil {
//	    return err
//	}
//
//	l, err := s.Layout(node)              // size, alignment, member offsets
//	pos, err := s.OffsetOf(node, "hdr.flags")
//	cl, err := s.Classify(node, abi.Param) // SysV eightbyte classes
//	plan, err := s.PlanCall(ret, params, true)
//	ap, err := s.Varargs(plan)            // va_arg cursor after the named params
//
// # Packages
//
//	clayout/             Session: one compilation unit
//	├── ctype/           C type graph consumed from the front end
//	├── target/          primitive size and alignment tables per target
//	├── layout/          struct, union and array layout with bitfields
//	├── bitfield/        bitfield allocation and bit-level access
//	├── abi/             eightbyte classification and call planning (SysV)
//	│   └── wasm/        WebAssembly basic C ABI lowering
//	├── varargs/         va_list register save area bookkeeping
//	├── memimg/          static initializer images
//	├── witc/            WIT types as C types
//	├── typefile/        JSON type description files
//	├── diag/            diagnostic sinks
//	└── errors/          structured error types
//
// # Errors
//
// Errors carry a phase, a kind, and the member path where they occurred.
// Fatal errors are returned together with a degraded layout so a caller can
// keep going and report more than one problem per unit; every diagnostic is
// also delivered to the session's sink.
//
// # Concurrency
//
// Layout and classification are pure functions of immutable type graphs and
// may be called from multiple goroutines. A varargs cursor belongs to one
// goroutine.
package clayout
