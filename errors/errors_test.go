package errors

import (
	"errors"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseLayout,
				Kind:   KindIncompleteType,
				Path:   []string{"list", "head", "next"},
				Type:   "struct node",
				Detail: "type is incomplete",
			},
			contains: []string{"[layout]", "incomplete_type", "list.head.next", "struct node", "type is incomplete"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseClassify,
				Kind:  KindUnsupportedAggregate,
			},
			contains: []string{"[classify]", "unsupported_aggregate"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseDecode,
				Kind:   KindInvalidInput,
				Detail: "bad type file",
				Cause:  errors.New("unexpected EOF"),
			},
			contains: []string{"[decode]", "invalid_input", "bad type file", "caused by", "unexpected EOF"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !containsSubstring(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseDecode,
		Kind:  KindInvalidInput,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseLayout,
		Kind:  KindAlignmentOverflow,
		Path:  []string{"buf"},
	}

	if !err.Is(&Error{Phase: PhaseLayout, Kind: KindAlignmentOverflow}) {
		t.Error("Is should match same phase and kind")
	}

	if err.Is(&Error{Phase: PhaseClassify, Kind: KindAlignmentOverflow}) {
		t.Error("Is should not match different phase")
	}

	if err.Is(&Error{Phase: PhaseLayout, Kind: KindOutOfBounds}) {
		t.Error("Is should not match different kind")
	}

	if !errors.Is(err, ErrAlignmentOverflow) {
		t.Error("errors.Is should match phase-less sentinel")
	}
	if errors.Is(err, ErrIncompleteType) {
		t.Error("errors.Is should not match sentinel of another kind")
	}
}

func TestError_Fatal(t *testing.T) {
	if InvalidBitfieldWidth(nil, "int", 40, 32).Fatal() {
		t.Error("invalid bitfield width should be recoverable")
	}
	if !IncompleteType(nil, "struct s").Fatal() {
		t.Error("incomplete type should be fatal")
	}
	if !AlignmentOverflow(nil, "char[]", 1<<31).Fatal() {
		t.Error("alignment overflow should be fatal")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseLayout, KindIncompleteType).
		Path("outer", "inner").
		Type("struct inner").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "definition", "declaration").
		Build()

	if err.Phase != PhaseLayout {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseLayout)
	}
	if err.Kind != KindIncompleteType {
		t.Errorf("Kind = %v, want %v", err.Kind, KindIncompleteType)
	}
	if len(err.Path) != 2 || err.Path[0] != "outer" || err.Path[1] != "inner" {
		t.Errorf("Path = %v, want [outer inner]", err.Path)
	}
	if err.Type != "struct inner" {
		t.Errorf("Type = %v, want 'struct inner'", err.Type)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected definition, got declaration" {
		t.Errorf("Detail = %v, want 'expected definition, got declaration'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("IncompleteType", func(t *testing.T) {
		err := IncompleteType([]string{"next"}, "struct node")
		if err.Kind != KindIncompleteType || err.Phase != PhaseLayout {
			t.Errorf("Kind=%v Phase=%v", err.Kind, err.Phase)
		}
	})

	t.Run("InvalidBitfieldWidth", func(t *testing.T) {
		err := InvalidBitfieldWidth([]string{"flags"}, "unsigned char", 9, 8)
		if err.Kind != KindInvalidBitfieldWidth {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidBitfieldWidth)
		}
		if err.Value != 9 {
			t.Errorf("Value = %v, want 9", err.Value)
		}
		if !containsSubstring(err.Detail, "8 bits") {
			t.Errorf("Detail = %v, should mention the unit bits", err.Detail)
		}
	})

	t.Run("UnsupportedAggregate", func(t *testing.T) {
		err := UnsupportedAggregate("struct big", -1, "negative size")
		if err.Phase != PhaseClassify || err.Kind != KindUnsupportedAggregate {
			t.Errorf("Kind=%v Phase=%v", err.Kind, err.Phase)
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseInit, []string{"arr"}, 10, 5)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if err.Value != int64(10) {
			t.Errorf("Value = %v, want 10", err.Value)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseLayout, nil, "member", "z")
		if err.Kind != KindNotFound {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNotFound)
		}
		if !containsSubstring(err.Error(), `member "z" not found`) {
			t.Errorf("message = %q", err.Error())
		}
	})

	t.Run("TypeMismatch", func(t *testing.T) {
		err := TypeMismatch(PhaseInit, []string{"d"}, "double", "text")
		if err.Kind != KindTypeMismatch {
			t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		cause := errors.New("io")
		err := Wrap(PhaseDecode, KindInvalidInput, cause, "read types")
		if !errors.Is(err, cause) {
			t.Error("wrapped error should match its cause")
		}
	})
}

func containsSubstring(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(substr) == 0 ||
		(len(s) > 0 && containsSubstringHelper(s, substr)))
}

func containsSubstringHelper(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
