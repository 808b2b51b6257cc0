// Package wasm implements the WebAssembly basic C ABI behind abi.ABI and
// lowers classifications to wazero core value types.
package wasm

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/clayout/abi"
	"github.com/wippyai/clayout/ctype"
	"github.com/wippyai/clayout/diag"
	"github.com/wippyai/clayout/errors"
	"github.com/wippyai/clayout/layout"
)

// ABI is the basic C ABI: scalars and single-element aggregates are passed
// directly, every other aggregate indirectly, with an sret pointer for
// returns. It has no register file, so nothing is ever demoted.
type ABI struct {
	sink    diag.Sink
	ptrType api.ValueType
}

var _ abi.ABI = (*ABI)(nil)

// New returns the ABI for a pointer width of 4 (wasm32) or 8 (wasm64) bytes.
func New(ptrSize int64, sink diag.Sink) *ABI {
	if sink == nil {
		sink = diag.Discard
	}
	pt := api.ValueTypeI32
	if ptrSize == 8 {
		pt = api.ValueTypeI64
	}
	return &ABI{sink: sink, ptrType: pt}
}

func (a *ABI) Name() string {
	if a.ptrType == api.ValueTypeI64 {
		return "wasm64-basic-c"
	}
	return "wasm32-basic-c"
}

func (a *ABI) Config() abi.Config {
	return abi.Config{Name: a.Name(), EightbyteSize: 8, StackSlot: 8}
}

func (a *ABI) Budget(abi.Role) abi.Budget {
	return abi.Budget{Unlimited: true}
}

// PointerType is the core type of data pointers.
func (a *ABI) PointerType() api.ValueType { return a.ptrType }

func (a *ABI) Classify(l *layout.Layout, role abi.Role, _ *abi.Budget) (*abi.Classification, error) {
	if l == nil || l.Degraded || l.Size < 0 {
		size := int64(0)
		name := "<nil>"
		if l != nil {
			size = l.Size
			if l.Type != nil {
				name = l.Type.String()
			}
		}
		err := errors.UnsupportedAggregate(name, size, "layout is degraded")
		a.sink.Report(err)
		return &abi.Classification{
			Layout:        l,
			Role:          role,
			Mode:          abi.ByReferenceToCallerCopy,
			HiddenPointer: role == abi.Return,
			Size:          size,
			Align:         1,
			Degraded:      true,
		}, err
	}

	c := &abi.Classification{Layout: l, Size: l.Size, Align: l.Align, Role: role}
	if l.Kind == ctype.KindScalar || l.Kind == ctype.KindPointer || isEmpty(l) || singleElement(l) != nil {
		c.Mode = abi.ByValueInRegisters
		return c, nil
	}
	c.Mode = abi.ByReferenceToCallerCopy
	c.HiddenPointer = role == abi.Return
	return c, nil
}

// isEmpty reports aggregates without named storage. They are ignored in
// signatures.
func isEmpty(l *layout.Layout) bool {
	if !l.IsAggregate() {
		return false
	}
	for i := range l.Fields {
		f := &l.Fields[i]
		if f.Bitfield || f.Layout.Size > 0 && !isEmpty(f.Layout) {
			return false
		}
	}
	return true
}

// singleElement returns the scalar layout an aggregate reduces to when it has
// exactly one non-empty member (recursively, arrays of one element included)
// and no padding. Unions never reduce.
func singleElement(l *layout.Layout) *layout.Layout {
	switch l.Kind {
	case ctype.KindScalar, ctype.KindPointer:
		return l
	case ctype.KindArray:
		if l.Len != 1 {
			return nil
		}
		return singleElement(l.Elem)
	case ctype.KindStruct:
	default:
		return nil
	}

	var found *layout.Layout
	for i := range l.Members {
		m := &l.Members[i]
		if m.Bitfield {
			return nil
		}
		if isEmpty(m.Layout) || m.Layout.Size == 0 {
			continue
		}
		if found != nil {
			return nil
		}
		found = singleElement(m.Layout)
		if found == nil {
			return nil
		}
	}
	if found == nil || found.Size != l.Size {
		return nil
	}
	return found
}

// CoreTypes lowers one classified value. Indirect values become a pointer;
// indirect returns lower to nothing here and add an sret parameter in
// Signature.
func (a *ABI) CoreTypes(c *abi.Classification) []api.ValueType {
	if c.Mode == abi.ByReferenceToCallerCopy {
		if c.Role == abi.Return {
			return nil
		}
		return []api.ValueType{a.ptrType}
	}
	l := c.Layout
	if isEmpty(l) {
		return nil
	}
	if s := singleElement(l); s != nil {
		return a.scalarTypes(s)
	}
	return nil
}

func (a *ABI) scalarTypes(l *layout.Layout) []api.ValueType {
	if l.Kind == ctype.KindPointer {
		return []api.ValueType{a.ptrType}
	}
	s, _ := l.Scalar()
	switch {
	case s.Prim == ctype.LongDouble, s.Prim.IsInteger() && l.Size == 16:
		return []api.ValueType{api.ValueTypeI64, api.ValueTypeI64}
	case s.Prim.IsFloat() && l.Size == 4:
		return []api.ValueType{api.ValueTypeF32}
	case s.Prim.IsFloat():
		return []api.ValueType{api.ValueTypeF64}
	case l.Size == 8:
		return []api.ValueType{api.ValueTypeI64}
	}
	return []api.ValueType{api.ValueTypeI32}
}

// Signature lowers a call plan to core wasm parameter and result types.
func (a *ABI) Signature(plan *abi.CallPlan) (params, results []api.ValueType) {
	if plan.Return != nil {
		if plan.Return.HiddenPointer {
			params = append(params, a.ptrType)
		} else {
			results = a.CoreTypes(plan.Return)
		}
	}
	for _, p := range plan.Params {
		params = append(params, a.CoreTypes(p)...)
	}
	if plan.Variadic {
		params = append(params, a.ptrType)
	}
	return params, results
}
