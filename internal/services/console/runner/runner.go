// Package runner executes console actions and keeps the action log.
//
// A Runner tracks a single busy flag and the most recent failure. Each Run
// appends exactly one log entry whether the action succeeds or fails. The busy
// flag is advisory: concurrent Run calls are neither rejected nor queued, so
// callers must not trigger actions while Busy reports true.
package runner

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "github.com/louisbranch/ringledger/internal/platform/errors"
	"github.com/louisbranch/ringledger/internal/platform/otel"
	"github.com/louisbranch/ringledger/internal/platform/requestctx"
)

// MaxEntries bounds the action log.
const MaxEntries = 40

const timestampLayout = "2006-01-02T15:04:05.000Z"

// Entry is one action log line.
type Entry struct {
	At      time.Time
	Label   string
	Outcome string
}

// String renders "<timestamp> | <label>: <outcome>".
func (e Entry) String() string {
	stamp := e.At.UTC().Format(timestampLayout)
	if e.Label == "" {
		return stamp + " | " + e.Outcome
	}
	return fmt.Sprintf("%s | %s: %s", stamp, e.Label, e.Outcome)
}

// Config configures a Runner.
type Config struct {
	// Logger mirrors every log entry when set.
	Logger *log.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Runner wraps console actions with busy tracking and outcome logging.
type Runner struct {
	logger *log.Logger
	now    func() time.Time

	mu        sync.Mutex
	busy      bool
	lastError string
	entries   []Entry
}

// New builds a Runner.
func New(cfg Config) *Runner {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{logger: cfg.Logger, now: now}
}

// Run executes op under label.
//
// The returned error is op's error, already recorded as the last error and
// logged; callers may ignore it.
func (r *Runner) Run(ctx context.Context, label string, op func(context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	r.mu.Lock()
	r.busy = true
	r.lastError = ""
	r.mu.Unlock()

	ctx = requestctx.WithAction(ctx, label)
	ctx, span := otel.Tracer("ringledger/console/runner").Start(ctx, "console.action")
	span.SetAttributes(attribute.String("console.action.label", label))
	defer span.End()

	err := op(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.busy = false
	if err != nil {
		message := apperrors.Format(err)
		r.lastError = message
		r.appendLocked(label, message)
		span.SetStatus(codes.Error, message)
		span.SetAttributes(attribute.String("console.error.kind", string(apperrors.KindOf(err))))
		r.logf("action=%s outcome=error message=%q", label, message)
		return err
	}
	r.appendLocked(label, "success")
	r.logf("action=%s outcome=success", label)
	return nil
}

// Note appends a free-form entry outside of any action.
func (r *Runner) Note(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendLocked("", message)
	r.logf("note=%q", message)
}

// Busy reports whether an action is in flight.
func (r *Runner) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busy
}

// LastError returns the message of the most recent failure, or "".
func (r *Runner) LastError() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastError
}

// Entries returns a copy of the log, newest first.
func (r *Runner) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Runner) appendLocked(label, outcome string) {
	entry := Entry{At: r.now(), Label: label, Outcome: outcome}
	r.entries = append([]Entry{entry}, r.entries...)
	if len(r.entries) > MaxEntries {
		r.entries = r.entries[:MaxEntries]
	}
}

func (r *Runner) logf(format string, args ...any) {
	if r.logger == nil {
		return
	}
	r.logger.Printf(format, args...)
}
