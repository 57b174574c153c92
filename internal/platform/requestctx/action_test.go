package requestctx

import (
	"context"
	"testing"
)

func TestActionRoundTrip(t *testing.T) {
	ctx := WithAction(context.Background(), "escrow_confirm")
	if got := ActionFromContext(ctx); got != "escrow_confirm" {
		t.Fatalf("ActionFromContext() = %q, want escrow_confirm", got)
	}
}

func TestActionFromContextMissing(t *testing.T) {
	if got := ActionFromContext(context.Background()); got != "" {
		t.Fatalf("ActionFromContext() = %q, want empty", got)
	}
	//nolint:staticcheck // nil context is handled explicitly.
	if got := ActionFromContext(nil); got != "" {
		t.Fatalf("ActionFromContext(nil) = %q, want empty", got)
	}
}

func TestWithActionNilContext(t *testing.T) {
	//nolint:staticcheck // nil context is handled explicitly.
	ctx := WithAction(nil, "login")
	if got := ActionFromContext(ctx); got != "login" {
		t.Fatalf("ActionFromContext() = %q, want login", got)
	}
}
