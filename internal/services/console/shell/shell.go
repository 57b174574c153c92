// Package shell is the line-oriented operator interface of the console.
package shell

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/louisbranch/ringledger/internal/services/console/app"
	"github.com/louisbranch/ringledger/internal/services/console/backend"
	"github.com/louisbranch/ringledger/internal/services/console/credentials"
	"github.com/louisbranch/ringledger/internal/services/console/escrow"
	"github.com/louisbranch/ringledger/internal/services/console/payout"
)

const prompt = "ringledger> "

// Console is the console surface the shell drives.
type Console interface {
	Busy() bool
	SetBoutID(boutID string)
	Register(ctx context.Context, email, password string, role credentials.Role) error
	Login(ctx context.Context, email, password string) error
	PrepareEscrows(ctx context.Context) error
	ReconcileEscrowSigning(ctx context.Context, input escrow.ReconcileInput) error
	ConfirmEscrow(ctx context.Context, input escrow.ConfirmInput) error
	EnterResult(ctx context.Context, winner backend.Winner) error
	PreparePayouts(ctx context.Context) error
	ReconcilePayoutSigning(ctx context.Context, input payout.ReconcileInput) error
	ConfirmPayout(ctx context.Context, input payout.ConfirmInput) error
	Snapshot() app.Snapshot
}

// errQuit ends the read loop.
var errQuit = errors.New("quit")

// Shell reads commands and renders console state as text.
type Shell struct {
	console Console
	out     io.Writer
	printer *message.Printer
}

// New builds a Shell writing to out.
func New(console Console, out io.Writer) *Shell {
	return &Shell{
		console: console,
		out:     out,
		printer: message.NewPrinter(language.English),
	}
}

// Run reads commands from in until EOF, quit, or ctx is done.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(s.out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		err := s.Execute(ctx, scanner.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

// Execute runs one command line. Action outcomes are reported through the
// console log; the returned error covers only input the shell could not
// parse.
func (s *Shell) Execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := fields[0], fields[1:]

	switch name {
	case "help", "?":
		s.help()
		return nil
	case "quit", "exit":
		return errQuit
	case "status":
		s.status()
		return nil
	case "log":
		s.log()
		return nil
	case "show":
		return s.show(args)
	case "bout":
		return s.bout(args)
	}

	if s.console.Busy() {
		return errors.New("an action is already running")
	}
	switch name {
	case "register":
		return s.register(ctx, args)
	case "login":
		return s.login(ctx, args)
	case "result":
		return s.result(ctx, args)
	case "escrow":
		return s.escrow(ctx, args)
	case "payout":
		return s.payout(ctx, args)
	default:
		return fmt.Errorf("unknown command %q (try help)", name)
	}
}

func (s *Shell) help() {
	fmt.Fprint(s.out, `commands:
  bout [id]                            show or set the bout id
  register [-email] [-password] [-role]
  login [-email] [-password]
  escrow prepare
  escrow reconcile [-kind] [-status] [-tx-hash]
  escrow confirm [-kind] [-tx-hash] [-offer-sequence] [-validated] [-engine-result]
  result [-winner A|B]
  payout prepare
  payout reconcile [-kind] [-status] [-tx-hash]
  payout confirm [-kind] [-tx-hash] [-validated] [-engine-result] [-close-time]
  status                               bout, roles and workflow stages
  log                                  action log, newest first
  show <register|escrow-prepare|escrow-reconcile|escrow-confirm|result|payout-prepare|payout-reconcile|payout-confirm>
  quit
`)
}

func (s *Shell) bout(args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(s.out, "bout id: %q\n", s.console.Snapshot().BoutID)
		return nil
	}
	if len(args) > 1 {
		return errors.New("usage: bout [id]")
	}
	s.console.SetBoutID(args[0])
	fmt.Fprintf(s.out, "bout id set to %s\n", args[0])
	return nil
}

// report prints the entries an action added to the log, oldest first.
func (s *Shell) report(before int) {
	entries := s.console.Snapshot().Log
	added := len(entries) - before
	if added <= 0 {
		// The log is full; show the newest entry.
		added = 1
	}
	if added > len(entries) {
		added = len(entries)
	}
	for i := added - 1; i >= 0; i-- {
		fmt.Fprintln(s.out, entries[i].String())
	}
}

func (s *Shell) run(action func() error) {
	before := len(s.console.Snapshot().Log)
	_ = action()
	s.report(before)
}

func (s *Shell) status() {
	snapshot := s.console.Snapshot()
	fmt.Fprintf(s.out, "bout id:     %q\n", snapshot.BoutID)
	fmt.Fprintf(s.out, "roles:       %s\n", snapshot.Roles)
	fmt.Fprintf(s.out, "busy:        %t\n", snapshot.Busy)
	fmt.Fprintf(s.out, "escrow:      %s\n", snapshot.Escrow.Stage)
	fmt.Fprintf(s.out, "payout:      %s\n", snapshot.Payout.Stage)
	if snapshot.Payout.Result != nil {
		fmt.Fprintf(s.out, "bout status: %s (winner %s)\n", snapshot.Payout.Result.BoutStatus, snapshot.Payout.Result.Winner)
	}
	if snapshot.LastError != "" {
		fmt.Fprintf(s.out, "last error:  %s\n", snapshot.LastError)
	}
}

func (s *Shell) log() {
	entries := s.console.Snapshot().Log
	if len(entries) == 0 {
		fmt.Fprintln(s.out, "no actions yet")
		return
	}
	for _, entry := range entries {
		fmt.Fprintln(s.out, entry.String())
	}
}

func (s *Shell) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(s.out)
	return fs
}

// parse reports handled=true when fs printed its own usage.
func parse(fs *flag.FlagSet, args []string) (bool, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return true, nil
		}
		return false, err
	}
	if fs.NArg() > 0 {
		return false, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return false, nil
}
