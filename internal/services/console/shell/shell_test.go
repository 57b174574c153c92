package shell

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/louisbranch/ringledger/internal/services/console/app"
	"github.com/louisbranch/ringledger/internal/services/console/backend"
	"github.com/louisbranch/ringledger/internal/testkit/backendfakes"
)

func newShell(t *testing.T) (*Shell, *app.Console, *backendfakes.Server, *bytes.Buffer) {
	t.Helper()
	server := backendfakes.New(t)
	console := app.New(app.Config{Backend: backend.NewClient(server.URL, server.Client())})
	var out bytes.Buffer
	return New(console, &out), console, server, &out
}

func TestRunScriptedSession(t *testing.T) {
	t.Parallel()

	sh, console, server, out := newShell(t)
	script := strings.Join([]string{
		"bout bout-42",
		"login",
		"escrow prepare",
		"show escrow-prepare",
		"escrow reconcile -kind show_a -status signed",
		"escrow confirm -kind bonus_a",
		"login -email admin.frontend@example.com -password AdminPass123!",
		"result -winner b",
		"payout prepare",
		"payout confirm -kind bonus_b",
		"status",
		"quit",
		"log",
	}, "\n")
	if err := sh.Run(context.Background(), strings.NewReader(script)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"bout id set to bout-42",
		"| token stored for role=promoter",
		"| login: success",
		"| escrow_prepare: success",
		"1,000 drops",
		"payload-bonus_b",
		"| escrow_signing_reconcile: success",
		"| escrow_confirm: success",
		"| token stored for role=admin",
		"| result_entry: success",
		"| payout_confirm: success",
		"roles:       admin, promoter",
		"escrow:      confirmed",
		"payout:      confirmed",
		"bout status: result_entered (winner B)",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}

	confirm, ok := server.Last("/bouts/bout-42/escrows/confirm")
	if !ok {
		t.Fatal("escrow confirm not sent")
	}
	if confirm.Body["tx_hash"] != "TXESCROWFRONTEND001" || confirm.Body["condition_hex"] != "ABCDEF" {
		t.Fatalf("escrow confirm body = %v", confirm.Body)
	}
	payoutConfirm, _ := server.Last("/payouts/confirm")
	if payoutConfirm.Body["transaction_type"] != "EscrowCancel" || payoutConfirm.Body["fulfillment_hex"] != nil {
		t.Fatalf("payout confirm body = %v", payoutConfirm.Body)
	}
	if got := console.Snapshot().Payout.Confirm.EscrowStatus; got != "cancelled" {
		t.Fatalf("EscrowStatus = %q, want cancelled", got)
	}
	if strings.Count(text, "ringledger> ") != 12 {
		t.Fatalf("prompts = %d, want 12 (commands after quit are not read)", strings.Count(text, "ringledger> "))
	}
}

func TestExecuteReportsLocalFailures(t *testing.T) {
	t.Parallel()

	sh, _, server, out := newShell(t)
	if err := sh.Execute(context.Background(), "escrow prepare"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out.String(), "escrow_prepare: Promoter token is required. Log in as promoter first.") {
		t.Fatalf("output = %q", out.String())
	}
	if len(server.Requests()) != 0 {
		t.Fatalf("requests = %d, want 0", len(server.Requests()))
	}
}

func TestExecuteRejectsBadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want string
	}{
		{line: "escrow reconcile -kind show_c", want: "Unknown escrow kind: show_c"},
		{line: "payout reconcile -status pending", want: "Unknown signing status: pending"},
		{line: "result -winner C", want: "Winner must be A or B."},
		{line: "register -role referee", want: "Unknown role: referee"},
		{line: "escrow", want: "usage: escrow prepare|reconcile|confirm"},
		{line: "payout settle", want: "usage: payout prepare|reconcile|confirm"},
		{line: "dance", want: `unknown command "dance" (try help)`},
		{line: "show nothing", want: `unknown slot "nothing"`},
		{line: "escrow prepare extra", want: "unexpected arguments: extra"},
	}
	for _, tc := range tests {
		sh, _, server, _ := newShell(t)
		err := sh.Execute(context.Background(), tc.line)
		if err == nil || err.Error() != tc.want {
			t.Fatalf("Execute(%q) error = %v, want %q", tc.line, err, tc.want)
		}
		if len(server.Requests()) != 0 {
			t.Fatalf("Execute(%q) sent %d requests", tc.line, len(server.Requests()))
		}
	}
}

func TestShowEmptySlot(t *testing.T) {
	t.Parallel()

	sh, _, _, out := newShell(t)
	if err := sh.Execute(context.Background(), "show payout-confirm"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if strings.TrimSpace(out.String()) != "null" {
		t.Fatalf("output = %q, want null", out.String())
	}
}

type busyConsole struct {
	Console
	prepared int
}

func (b *busyConsole) Busy() bool { return true }

func (b *busyConsole) PrepareEscrows(context.Context) error {
	b.prepared++
	return nil
}

func TestExecuteRefusesWhileBusy(t *testing.T) {
	t.Parallel()

	console := &busyConsole{}
	var out bytes.Buffer
	sh := New(console, &out)
	err := sh.Execute(context.Background(), "escrow prepare")
	if err == nil || err.Error() != "an action is already running" {
		t.Fatalf("Execute() error = %v", err)
	}
	if console.prepared != 0 {
		t.Fatalf("prepared = %d, want 0", console.prepared)
	}
}

func TestHelpListsCommands(t *testing.T) {
	t.Parallel()

	sh, _, _, out := newShell(t)
	if err := sh.Execute(context.Background(), "help"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, want := range []string{"escrow confirm", "payout confirm", "show <register|"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("help missing %q", want)
		}
	}
}
