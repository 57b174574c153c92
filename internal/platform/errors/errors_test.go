package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestFormatRemoteUsesStatusPrefix(t *testing.T) {
	t.Parallel()

	if got := Format(Remote(401, "Invalid credentials.")); got != "[401] Invalid credentials." {
		t.Fatalf("Format() = %q, want %q", got, "[401] Invalid credentials.")
	}
}

func TestRemoteFallsBackToGenericDetail(t *testing.T) {
	t.Parallel()

	if got := Format(Remote(422, "")); got != "[422] Request failed with status 422" {
		t.Fatalf("Format() = %q", got)
	}
}

func TestFormatLocalIsVerbatim(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "local", err: Local("Bout ID is required."), want: "Bout ID is required."},
		{name: "localf", err: Localf("Escrow prepare item not found for kind=%s.", "show_a"), want: "Escrow prepare item not found for kind=show_a."},
		{name: "decode", err: Decode("Could not decode role from JWT."), want: "Could not decode role from JWT."},
		{name: "wrapped local", err: fmt.Errorf("confirm: %w", Local("Run escrow prepare first.")), want: "Run escrow prepare first."},
		{name: "foreign", err: errors.New("connection refused"), want: "connection refused"},
		{name: "empty foreign", err: errors.New(""), want: "Unexpected error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Format(tc.err); got != tc.want {
				t.Fatalf("Format() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFormatNil(t *testing.T) {
	t.Parallel()

	if got := Format(nil); got != "" {
		t.Fatalf("Format(nil) = %q, want empty", got)
	}
}

func TestKindHelpers(t *testing.T) {
	t.Parallel()

	if !IsLocal(Local("x")) || !IsLocal(Decode("x")) {
		t.Fatal("expected local and decode errors to be local")
	}
	if IsLocal(Remote(500, "x")) || IsLocal(errors.New("x")) {
		t.Fatal("expected remote and foreign errors to be non-local")
	}
	if got := Status(fmt.Errorf("wrap: %w", Remote(409, "conflict"))); got != 409 {
		t.Fatalf("Status() = %d, want 409", got)
	}
	if got := Status(Local("x")); got != 0 {
		t.Fatalf("Status(local) = %d, want 0", got)
	}
	if got := KindOf(errors.New("x")); got != KindUnknown {
		t.Fatalf("KindOf(foreign) = %q, want %q", got, KindUnknown)
	}
}

func TestErrorStringFallsBackToKind(t *testing.T) {
	t.Parallel()

	if got := (Error{Kind: KindLocal}).Error(); got != "local" {
		t.Fatalf("Error() = %q, want local", got)
	}
}
