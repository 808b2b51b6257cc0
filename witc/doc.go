// Package witc converts WebAssembly Interface Types into C type graphs.
//
// The C types mirror the canonical ABI memory representation so that their
// layouts on a wasm32 target reproduce the canonical sizes and offsets:
//
//	string, list<T>     struct { T *ptr; size_t len; }
//	option<T>           struct { _Bool is_some; T val; }
//	result<T, E>        struct { _Bool is_err; union { T ok; E err; } val; }
//	variant             struct { tag; union { cases } val; }
//	enum                smallest unsigned type holding the case index
//	flags               unsigned char/short/int, or unsigned int[n]
//	own<R>, borrow<R>   int handle
//
// Cases without a payload contribute no union member, and the val member is
// omitted entirely when no case carries one.
package witc
