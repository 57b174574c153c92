package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"testing"
	"time"

	apperrors "github.com/louisbranch/ringledger/internal/platform/errors"
	"github.com/louisbranch/ringledger/internal/platform/requestctx"
)

func fixedClock() func() time.Time {
	current := time.Date(2026, 2, 22, 10, 0, 0, 0, time.UTC)
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func TestRunSuccessAppendsEntryAndClearsBusy(t *testing.T) {
	t.Parallel()

	r := New(Config{Now: fixedClock()})
	var busyDuringOp bool
	err := r.Run(context.Background(), "escrow_prepare", func(context.Context) error {
		busyDuringOp = r.Busy()
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !busyDuringOp {
		t.Fatal("expected busy while op runs")
	}
	if r.Busy() {
		t.Fatal("expected busy cleared after run")
	}
	entries := r.Entries()
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if got := entries[0].String(); got != "2026-02-22T10:00:01.000Z | escrow_prepare: success" {
		t.Fatalf("entry = %q", got)
	}
	if r.LastError() != "" {
		t.Fatalf("LastError() = %q, want empty", r.LastError())
	}
}

func TestRunFailureNormalisesMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "remote", err: apperrors.Remote(401, "Invalid credentials."), want: "[401] Invalid credentials."},
		{name: "remote generic", err: apperrors.Remote(500, ""), want: "[500] Request failed with status 500"},
		{name: "local", err: apperrors.Local("Bout ID is required."), want: "Bout ID is required."},
		{name: "transport", err: errors.New("dial tcp: connection refused"), want: "dial tcp: connection refused"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := New(Config{})
			err := r.Run(context.Background(), "login", func(context.Context) error { return tc.err })
			if !errors.Is(err, tc.err) {
				t.Fatalf("Run() error = %v, want %v", err, tc.err)
			}
			if r.LastError() != tc.want {
				t.Fatalf("LastError() = %q, want %q", r.LastError(), tc.want)
			}
			entries := r.Entries()
			if len(entries) != 1 || entries[0].Outcome != tc.want || entries[0].Label != "login" {
				t.Fatalf("entries = %+v", entries)
			}
			if r.Busy() {
				t.Fatal("expected busy cleared after failure")
			}
		})
	}
}

func TestRunClearsPreviousError(t *testing.T) {
	t.Parallel()

	r := New(Config{})
	_ = r.Run(context.Background(), "a", func(context.Context) error { return apperrors.Local("first") })
	var seen string
	_ = r.Run(context.Background(), "b", func(context.Context) error {
		seen = r.LastError()
		return nil
	})
	if seen != "" {
		t.Fatalf("LastError() during run = %q, want cleared", seen)
	}
	if r.LastError() != "" {
		t.Fatalf("LastError() = %q, want empty after success", r.LastError())
	}
}

func TestLogIsBoundedNewestFirst(t *testing.T) {
	t.Parallel()

	r := New(Config{Now: fixedClock()})
	for i := 0; i < MaxEntries+1; i++ {
		label := fmt.Sprintf("action_%02d", i)
		_ = r.Run(context.Background(), label, func(context.Context) error { return nil })
	}
	entries := r.Entries()
	if len(entries) != MaxEntries {
		t.Fatalf("len(entries) = %d, want %d", len(entries), MaxEntries)
	}
	if entries[0].Label != "action_40" {
		t.Fatalf("newest = %q, want action_40", entries[0].Label)
	}
	if entries[len(entries)-1].Label != "action_01" {
		t.Fatalf("oldest = %q, want action_01 after eviction", entries[len(entries)-1].Label)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].At.After(entries[i-1].At) {
			t.Fatalf("entries not newest-first at %d", i)
		}
	}
}

func TestNoteAppendsWithoutLabel(t *testing.T) {
	t.Parallel()

	r := New(Config{Now: fixedClock()})
	r.Note("token stored for role=promoter")
	entries := r.Entries()
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if got := entries[0].String(); got != "2026-02-22T10:00:01.000Z | token stored for role=promoter" {
		t.Fatalf("entry = %q", got)
	}
}

func TestRunMirrorsToLogger(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer
	r := New(Config{Logger: log.New(&buffer, "", 0)})
	_ = r.Run(context.Background(), "escrow_confirm", func(context.Context) error { return apperrors.Remote(409, "conflict") })
	_ = r.Run(context.Background(), "escrow_prepare", func(context.Context) error { return nil })

	output := buffer.String()
	for _, marker := range []string{
		`action=escrow_confirm outcome=error message="[409] conflict"`,
		"action=escrow_prepare outcome=success",
	} {
		if !strings.Contains(output, marker) {
			t.Fatalf("log output missing %q: %q", marker, output)
		}
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	t.Parallel()

	r := New(Config{})
	r.Note("one")
	entries := r.Entries()
	entries[0].Outcome = "mutated"
	if r.Entries()[0].Outcome != "one" {
		t.Fatal("expected Entries to return a copy")
	}
}

func TestRunExposesLabelToOperation(t *testing.T) {
	t.Parallel()

	r := New(Config{})
	var seen string
	_ = r.Run(context.Background(), "payout_prepare", func(ctx context.Context) error {
		seen = requestctx.ActionFromContext(ctx)
		return nil
	})
	if seen != "payout_prepare" {
		t.Fatalf("action label = %q, want payout_prepare", seen)
	}
}
