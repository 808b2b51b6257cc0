package witc

import (
	"testing"

	"github.com/wippyai/clayout/ctype"
	"github.com/wippyai/clayout/errors"
	"github.com/wippyai/clayout/layout"
	"github.com/wippyai/clayout/target"
	"go.bytecodealliance.org/wit"
)

func strPtr(s string) *string { return &s }

func TestConvertCanonicalLayout(t *testing.T) {
	record := &wit.TypeDef{
		Name: strPtr("point-3d"),
		Kind: &wit.Record{Fields: []wit.Field{
			{Name: "x", Type: wit.U8{}},
			{Name: "y-pos", Type: wit.U64{}},
			{Name: "z", Type: wit.U16{}},
		}},
	}

	tests := []struct {
		name  string
		typ   wit.Type
		size  int64
		align int64
	}{
		{"bool", wit.Bool{}, 1, 1},
		{"char", wit.Char{}, 4, 4},
		{"s64", wit.S64{}, 8, 8},
		{"f32", wit.F32{}, 4, 4},
		{"string", wit.String{}, 8, 4},
		{"list", &wit.TypeDef{Kind: &wit.List{Type: wit.U64{}}}, 8, 4},
		{"record", record, 24, 8},
		{"tuple", &wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.U8{}, wit.U32{}}}}, 8, 4},
		{"option u64", &wit.TypeDef{Kind: &wit.Option{Type: wit.U64{}}}, 16, 8},
		{"option u8", &wit.TypeDef{Kind: &wit.Option{Type: wit.U8{}}}, 2, 1},
		{"result u32 string", &wit.TypeDef{Kind: &wit.Result{OK: wit.U32{}, Err: wit.String{}}}, 12, 4},
		{"result no payload", &wit.TypeDef{Kind: &wit.Result{}}, 1, 1},
		{"enum small", &wit.TypeDef{Kind: &wit.Enum{Cases: []wit.EnumCase{{Name: "a"}, {Name: "b"}}}}, 1, 1},
		{"flags 9", &wit.TypeDef{Kind: &wit.Flags{Flags: make([]wit.Flag, 9)}}, 2, 2},
		{"flags 32", &wit.TypeDef{Kind: &wit.Flags{Flags: make([]wit.Flag, 32)}}, 4, 4},
		{"flags 40", &wit.TypeDef{Kind: &wit.Flags{Flags: make([]wit.Flag, 40)}}, 8, 4},
		{"own", &wit.TypeDef{Kind: &wit.Own{}}, 4, 4},
		{"borrow", &wit.TypeDef{Kind: &wit.Borrow{}}, 4, 4},
		{"variant", &wit.TypeDef{Kind: &wit.Variant{Cases: []wit.Case{
			{Name: "none"},
			{Name: "small", Type: wit.U8{}},
			{Name: "big", Type: wit.F64{}},
		}}}, 16, 8},
		{"variant without payload", &wit.TypeDef{Kind: &wit.Variant{Cases: []wit.Case{{Name: "a"}, {Name: "b"}}}}, 1, 1},
	}

	tg := target.Wasm32()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, err := NewConverter(tg).Convert(tt.typ)
			if err != nil {
				t.Fatalf("Convert: %v", err)
			}
			l, err := layout.NewComputer(tg).Compute(ct)
			if err != nil {
				t.Fatalf("Compute(%s): %v", ct, err)
			}
			if l.Size != tt.size || l.Align != tt.align {
				t.Errorf("%s: got size %d align %d, want size %d align %d", ct, l.Size, l.Align, tt.size, tt.align)
			}
			if ci := NewCanonical().Calculate(tt.typ); ci.Size != l.Size || ci.Align != l.Align {
				t.Errorf("canonical layout %+v disagrees with C layout %d/%d", ci, l.Size, l.Align)
			}
		})
	}
}

func TestConvertRecordOffsets(t *testing.T) {
	td := &wit.TypeDef{
		Name: strPtr("entry"),
		Kind: &wit.Record{Fields: []wit.Field{
			{Name: "key", Type: wit.String{}},
			{Name: "has-value", Type: wit.Bool{}},
			{Name: "value", Type: wit.U32{}},
		}},
	}
	tg := target.Wasm32()
	ct, err := NewConverter(tg).Convert(td)
	if err != nil {
		t.Fatal(err)
	}
	if s, ok := ct.(*ctype.Struct); !ok || s.Tag != "entry" {
		t.Fatalf("got %s, want struct entry", ct)
	}
	l := layout.NewComputer(tg).MustCompute(ct)
	for path, want := range map[string]int64{"key.ptr": 0, "key.len": 4, "has_value": 8, "value": 12} {
		pos, err := layout.OffsetOf(l, path)
		if err != nil {
			t.Errorf("OffsetOf(%s): %v", path, err)
			continue
		}
		if pos.Offset != want {
			t.Errorf("%s: got offset %d, want %d", path, pos.Offset, want)
		}
	}
}

func TestConvertCachesTypeDefs(t *testing.T) {
	inner := &wit.TypeDef{Name: strPtr("pair"), Kind: &wit.Tuple{Types: []wit.Type{wit.U32{}, wit.U32{}}}}
	outer := &wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
		{Name: "a", Type: inner},
		{Name: "b", Type: inner},
	}}}
	c := NewConverter(target.Wasm32())
	ct, err := c.Convert(outer)
	if err != nil {
		t.Fatal(err)
	}
	s := ct.(*ctype.Struct)
	if s.Members[0].Type != s.Members[1].Type {
		t.Error("shared type definition converted twice")
	}
	again, _ := c.Convert(inner)
	if again != s.Members[0].Type {
		t.Error("cache miss on second Convert")
	}
}

func TestConvertPointerWidth(t *testing.T) {
	ct, err := NewConverter(target.LinuxAMD64()).Convert(wit.String{})
	if err != nil {
		t.Fatal(err)
	}
	l := layout.NewComputer(target.LinuxAMD64()).MustCompute(ct)
	if l.Size != 16 || l.Align != 8 {
		t.Errorf("string on LP64: got size %d align %d, want 16/8", l.Size, l.Align)
	}
}

func TestResolve(t *testing.T) {
	r := &wit.Resolve{TypeDefs: []*wit.TypeDef{
		{Name: strPtr("color"), Kind: &wit.Enum{Cases: []wit.EnumCase{{Name: "red"}}}},
		{Kind: &wit.List{Type: wit.U8{}}},
		{Name: strPtr("file"), Kind: &wit.Resource{}},
	}}
	types, err := NewConverter(target.Wasm32()).Resolve(r)
	if err != nil {
		t.Fatal(err)
	}
	if len(types) != 1 {
		t.Fatalf("got %d named types, want 1", len(types))
	}
	if _, ok := types["color"]; !ok {
		t.Error("color missing")
	}
}

func TestConvertErrors(t *testing.T) {
	tests := []struct {
		name string
		typ  wit.Type
		kind errors.Kind
	}{
		{"empty flags", &wit.TypeDef{Kind: &wit.Flags{}}, errors.KindInvalidInput},
		{"empty variant", &wit.TypeDef{Kind: &wit.Variant{}}, errors.KindInvalidInput},
		{"missing option payload", &wit.TypeDef{Kind: &wit.Option{}}, errors.KindInvalidInput},
		{"resource", &wit.TypeDef{Kind: &wit.Resource{}}, errors.KindUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConverter(target.Wasm32()).Convert(tt.typ)
			var e *errors.Error
			if !errors.As(err, &e) {
				t.Fatalf("expected structured error, got %v", err)
			}
			if e.Kind != tt.kind || e.Phase != errors.PhaseConvert {
				t.Errorf("got %s/%s, want %s/%s", e.Phase, e.Kind, errors.PhaseConvert, tt.kind)
			}
		})
	}
}
