package main

import (
	"strings"
	"testing"

	"github.com/wippyai/clayout"
	"github.com/wippyai/clayout/ctype"
	"github.com/wippyai/clayout/target"
)

func TestDescribe(t *testing.T) {
	flags := ctype.NewStruct("flags",
		ctype.Bits("a", ctype.NewUInt(), 3),
		ctype.Field("d", ctype.NewDouble()),
	)

	tests := []struct {
		name     string
		target   *target.Target
		contains []string
	}{
		{"sysv", target.LinuxAMD64(), []string{"size 16  align 8", "+0.0", "a:3", "unit 4@0 >>0", "[INTEGER SSE] registers rdi,xmm0"}},
		{"wasm", target.Wasm32(), []string{"size 16  align 8", "reference", "(i32)"}},
		{"no abi big endian", target.LinuxPPC64(), []string{"size 16  align 8", "unit 4@0 >>29"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := clayout.New(tt.target)
			if err != nil {
				t.Fatal(err)
			}
			out := newPrinter(false).describe(s, "flags", flags)
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("output does not contain %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestDescribeError(t *testing.T) {
	s, err := clayout.New(target.LinuxAMD64())
	if err != nil {
		t.Fatal(err)
	}
	out := newPrinter(false).describe(s, "fwd", &ctype.Incomplete{Tag: "struct fwd"})
	if !strings.Contains(out, "incomplete_type") {
		t.Errorf("error not shown:\n%s", out)
	}
}

func TestSelectNames(t *testing.T) {
	types := map[string]ctype.Type{"b": ctype.NewInt(), "a": ctype.NewChar()}
	names, err := selectNames(types, "")
	if err != nil || len(names) != 2 || names[0] != "a" {
		t.Errorf("got %v, %v", names, err)
	}
	if _, err := selectNames(types, "c"); err == nil {
		t.Error("unknown type accepted")
	}
}
