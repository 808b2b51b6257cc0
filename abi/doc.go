// Package abi classifies C values for function calls.
//
// The SysV classifier splits a layout into eightbytes, merges the classes of
// the scalars and bitfields overlapping each one (MEMORY over INTEGER over
// SSE over NONE) and then decides how the whole value crosses the call:
//
//   - values larger than Config.MaxRegAggregate, or containing a MEMORY
//     member, go by reference to a caller copy (returns use a hidden pointer);
//   - otherwise every eightbyte takes the next register of its class, or the
//     whole value is demoted to the stack when any class runs short.
//
// Register budgets are explicit Budget values so a caller can classify a
// parameter list in order; PlanCall does exactly that and also computes
// outgoing stack offsets.
//
// The ABI interface lets other conventions plug in; see package abi/wasm.
package abi
