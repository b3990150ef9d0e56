package errors

import (
	"errors"
	"strings"
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
				Phase:     PhaseParse,
				Kind:      KindUnsupported,
				Decl:      "shape",
				Construct: "Circle of {radius: int}",
				Pos:       Pos{Line: 3, Col: 14},
				Detail:    "inline record payloads",
			},
			contains: []string{"[parse]", "unsupported", "shape", "3:14", "Circle of {radius: int}", "inline record payloads"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseGenerate,
				Kind:  KindOverflow,
			},
			contains: []string{"[generate]", "overflow"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseLoad,
				Kind:   KindInstantiation,
				Detail: "instantiate collector module",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[load]", "instantiation", "instantiate collector module", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseLoad,
		Kind:  KindInvalidData,
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
		Phase: PhaseParse,
		Kind:  KindSyntax,
		Decl:  "shape",
	}

	if !err.Is(&Error{Phase: PhaseParse, Kind: KindSyntax}) {
		t.Error("Is should match same phase and kind")
	}

	if err.Is(&Error{Phase: PhaseGenerate, Kind: KindSyntax}) {
		t.Error("Is should not match different phase")
	}

	if err.Is(&Error{Phase: PhaseParse, Kind: KindDuplicate}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseParse, Kind: KindSyntax}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseParse, KindUnsupported).
		Decl("shape").
		Construct("[@tag 4]").
		Pos(2, 7).
		Value(4).
		Cause(cause).
		Detail("explicit %s assignments", "tag").
		Build()

	if err.Phase != PhaseParse {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseParse)
	}
	if err.Kind != KindUnsupported {
		t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupported)
	}
	if err.Decl != "shape" {
		t.Errorf("Decl = %v, want shape", err.Decl)
	}
	if err.Construct != "[@tag 4]" {
		t.Errorf("Construct = %v, want [@tag 4]", err.Construct)
	}
	if err.Pos != (Pos{Line: 2, Col: 7}) {
		t.Errorf("Pos = %v, want 2:7", err.Pos)
	}
	if err.Value != 4 {
		t.Errorf("Value = %v, want 4", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "explicit tag assignments" {
		t.Errorf("Detail = %v, want 'explicit tag assignments'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("Syntax", func(t *testing.T) {
		err := Syntax("color", Pos{Line: 1, Col: 9}, "expected '='")
		if err.Kind != KindSyntax {
			t.Errorf("Kind = %v, want %v", err.Kind, KindSyntax)
		}
		if !strings.Contains(err.Error(), "1:9") {
			t.Errorf("Error() = %q, should contain position", err.Error())
		}
	})

	t.Run("UnsupportedConstruct", func(t *testing.T) {
		err := UnsupportedConstruct("shape", "Rect of {w: int}", Pos{Line: 4, Col: 3}, "inline records")
		if err.Kind != KindUnsupported {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupported)
		}
		if err.Construct != "Rect of {w: int}" {
			t.Errorf("Construct = %v, want the offending constructor", err.Construct)
		}
	})

	t.Run("DuplicateConstructor", func(t *testing.T) {
		err := DuplicateConstructor("color", "Red", Pos{Line: 2, Col: 1})
		if err.Kind != KindDuplicate {
			t.Errorf("Kind = %v, want %v", err.Kind, KindDuplicate)
		}
		if !strings.Contains(err.Detail, "Red") {
			t.Errorf("Detail = %v, should name the constructor", err.Detail)
		}
	})

	t.Run("TagOverflow", func(t *testing.T) {
		err := TagOverflow("wide", "block", 300, 246)
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
		if !strings.Contains(err.Detail, "300") {
			t.Errorf("Detail = %v, should contain the count", err.Detail)
		}
	})

	t.Run("MissingExport", func(t *testing.T) {
		err := MissingExport("rt_alloc")
		if err.Kind != KindMissingExport {
			t.Errorf("Kind = %v, want %v", err.Kind, KindMissingExport)
		}
		if !strings.Contains(err.Detail, "rt_alloc") {
			t.Errorf("Detail = %v, should name the export", err.Detail)
		}
	})

	t.Run("Trap", func(t *testing.T) {
		cause := errors.New("unreachable executed")
		err := Trap("rt_alloc", cause)
		if err.Kind != KindTrap {
			t.Errorf("Kind = %v, want %v", err.Kind, KindTrap)
		}
		if !errors.Is(err, &Error{Phase: PhaseCall, Kind: KindTrap}) {
			t.Error("errors.Is should match phase and kind")
		}
		if !errors.Is(err, cause) {
			t.Error("errors.Is should reach the cause")
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseConfig, "mapping", "int")
		if err.Kind != KindNotFound {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNotFound)
		}
	})
}
