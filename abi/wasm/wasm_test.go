package wasm

import (
	"testing"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/clayout/abi"
	"github.com/wippyai/clayout/ctype"
	"github.com/wippyai/clayout/errors"
	"github.com/wippyai/clayout/layout"
	"github.com/wippyai/clayout/target"
)

func lay(t *testing.T, typ ctype.Type) *layout.Layout {
	t.Helper()
	l, err := layout.NewComputer(target.Wasm32()).Compute(typ)
	if err != nil {
		t.Fatalf("Compute(%s): %v", typ, err)
	}
	return l
}

func equalTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestClassifyAndLower(t *testing.T) {
	tests := []struct {
		name string
		typ  ctype.Type
		mode abi.Mode
		want []api.ValueType
	}{
		{"int", ctype.NewInt(), abi.ByValueInRegisters, []api.ValueType{api.ValueTypeI32}},
		{"char", ctype.NewChar(), abi.ByValueInRegisters, []api.ValueType{api.ValueTypeI32}},
		{"long long", ctype.NewLongLong(), abi.ByValueInRegisters, []api.ValueType{api.ValueTypeI64}},
		{"float", ctype.NewFloat(), abi.ByValueInRegisters, []api.ValueType{api.ValueTypeF32}},
		{"double", ctype.NewDouble(), abi.ByValueInRegisters, []api.ValueType{api.ValueTypeF64}},
		{"long double", ctype.NewLongDouble(), abi.ByValueInRegisters, []api.ValueType{api.ValueTypeI64, api.ValueTypeI64}},
		{"pointer", ctype.NewPointer(nil), abi.ByValueInRegisters, []api.ValueType{api.ValueTypeI32}},
		{"single float struct", ctype.NewStruct("", ctype.Field("f", ctype.NewFloat())), abi.ByValueInRegisters, []api.ValueType{api.ValueTypeF32}},
		{"nested single element", ctype.NewStruct("", ctype.Field("in", ctype.NewStruct("", ctype.Field("d", ctype.NewDouble())))), abi.ByValueInRegisters, []api.ValueType{api.ValueTypeF64}},
		{"one element array", ctype.NewStruct("", ctype.Field("a", ctype.NewArray(ctype.NewInt(), 1))), abi.ByValueInRegisters, []api.ValueType{api.ValueTypeI32}},
		{"two ints", ctype.NewStruct("", ctype.Field("a", ctype.NewInt()), ctype.Field("b", ctype.NewInt())), abi.ByReferenceToCallerCopy, []api.ValueType{api.ValueTypeI32}},
		{"padded single element", ctype.NewStruct("", ctype.Member{Name: "c", Type: ctype.NewChar(), Align: 4}, ctype.Field("pad", ctype.NewArray(ctype.NewChar(), 0))), abi.ByReferenceToCallerCopy, []api.ValueType{api.ValueTypeI32}},
		{"union", ctype.NewUnion("", ctype.Field("i", ctype.NewInt())), abi.ByReferenceToCallerCopy, []api.ValueType{api.ValueTypeI32}},
		{"bitfield struct", ctype.NewStruct("", ctype.Bits("b", ctype.NewInt(), 3)), abi.ByReferenceToCallerCopy, []api.ValueType{api.ValueTypeI32}},
		{"empty struct", ctype.NewStruct("e"), abi.ByValueInRegisters, nil},
	}

	w := New(4, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := w.Classify(lay(t, tt.typ), abi.Param, nil)
			if err != nil {
				t.Fatal(err)
			}
			if c.Mode != tt.mode {
				t.Errorf("mode: got %v, want %v", c.Mode, tt.mode)
			}
			if got := w.CoreTypes(c); !equalTypes(got, tt.want) {
				t.Errorf("core types: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSignature(t *testing.T) {
	w := New(4, nil)
	pair := lay(t, ctype.NewStruct("pair", ctype.Field("a", ctype.NewInt()), ctype.Field("b", ctype.NewDouble())))

	plan, err := abi.PlanCall(w, pair, []*layout.Layout{lay(t, ctype.NewInt()), pair, lay(t, ctype.NewDouble())}, false)
	if err != nil {
		t.Fatal(err)
	}
	if !plan.Return.HiddenPointer {
		t.Error("struct return should use sret")
	}
	for i, off := range plan.StackOffsets {
		if off != -1 {
			t.Errorf("param %d: wasm has no argument stack, got offset %d", i, off)
		}
	}

	params, results := w.Signature(plan)
	wantParams := []api.ValueType{api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeF64}
	if !equalTypes(params, wantParams) {
		t.Errorf("params: got %v, want %v", params, wantParams)
	}
	if len(results) != 0 {
		t.Errorf("results: got %v, want none", results)
	}

	plan, err = abi.PlanCall(w, lay(t, ctype.NewLongLong()), []*layout.Layout{lay(t, ctype.NewPointer(nil))}, true)
	if err != nil {
		t.Fatal(err)
	}
	params, results = w.Signature(plan)
	if !equalTypes(params, []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}) {
		t.Errorf("variadic params: got %v", params)
	}
	if !equalTypes(results, []api.ValueType{api.ValueTypeI64}) {
		t.Errorf("results: got %v", results)
	}
}

func TestWasm64Pointers(t *testing.T) {
	w := New(8, nil)
	if w.Name() != "wasm64-basic-c" || w.PointerType() != api.ValueTypeI64 {
		t.Errorf("wasm64: got %s %v", w.Name(), w.PointerType())
	}
}

func TestClassifyDegraded(t *testing.T) {
	l, _ := layout.NewComputer(target.Wasm32()).Compute(&ctype.Incomplete{Tag: "struct x"})
	c, err := New(4, nil).Classify(l, abi.Return, nil)
	if !errors.Is(err, errors.ErrUnsupportedAggregate) {
		t.Fatalf("expected unsupported aggregate, got %v", err)
	}
	if !c.Degraded || !c.HiddenPointer {
		t.Errorf("degraded return: got %+v", c)
	}
}
