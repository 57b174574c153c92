// Package app composes the console: one bout context, the session
// credentials, the action runner, and the auth, escrow and payout workflows
// bound to them.
package app

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/louisbranch/ringledger/internal/services/console/auth"
	"github.com/louisbranch/ringledger/internal/services/console/backend"
	"github.com/louisbranch/ringledger/internal/services/console/credentials"
	"github.com/louisbranch/ringledger/internal/services/console/escrow"
	"github.com/louisbranch/ringledger/internal/services/console/flow"
	"github.com/louisbranch/ringledger/internal/services/console/payout"
	"github.com/louisbranch/ringledger/internal/services/console/runner"
)

// Backend is every backend call the console makes.
type Backend interface {
	auth.Client
	escrow.Client
	payout.Client
}

// Config configures a Console.
type Config struct {
	Backend Backend
	// BoutID is the initial bout context.
	BoutID string
	Logger *log.Logger
	Now    func() time.Time
	NewKey flow.KeyFunc
}

// Snapshot is a read-only view of the console for presentation.
type Snapshot struct {
	BoutID    string
	Busy      bool
	LastError string
	Roles     string
	Log       []runner.Entry
	Register  *backend.RegisterResponse
	Escrow    escrow.State
	Payout    payout.State
}

// Console is the single surface the presentation layer drives.
type Console struct {
	runner *runner.Runner
	tokens *credentials.Store
	auth   *auth.Workflow
	escrow *escrow.Workflow
	payout *payout.Workflow

	mu     sync.Mutex
	boutID string
}

// New builds a Console.
func New(cfg Config) *Console {
	c := &Console{
		runner: runner.New(runner.Config{Logger: cfg.Logger, Now: cfg.Now}),
		tokens: credentials.NewStore(),
		boutID: cfg.BoutID,
	}
	c.auth = auth.New(auth.Deps{Client: cfg.Backend, Tokens: c.tokens, Runner: c.runner})
	c.escrow = escrow.New(escrow.Deps{
		Client: cfg.Backend,
		Tokens: c.tokens,
		Runner: c.runner,
		BoutID: c.BoutID,
		NewKey: cfg.NewKey,
	})
	c.payout = payout.New(payout.Deps{
		Client: cfg.Backend,
		Tokens: c.tokens,
		Runner: c.runner,
		BoutID: c.BoutID,
		NewKey: cfg.NewKey,
	})
	return c
}

// SetBoutID replaces the bout context. It is trimmed when an action uses it.
func (c *Console) SetBoutID(boutID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.boutID = boutID
}

// BoutID returns the raw bout context.
func (c *Console) BoutID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.boutID
}

// Busy reports whether an action is in flight.
func (c *Console) Busy() bool {
	return c.runner.Busy()
}

func (c *Console) Register(ctx context.Context, email, password string, role credentials.Role) error {
	return c.auth.Register(ctx, email, password, role)
}

func (c *Console) Login(ctx context.Context, email, password string) error {
	return c.auth.Login(ctx, email, password)
}

func (c *Console) PrepareEscrows(ctx context.Context) error {
	return c.escrow.Prepare(ctx)
}

func (c *Console) ReconcileEscrowSigning(ctx context.Context, input escrow.ReconcileInput) error {
	return c.escrow.Reconcile(ctx, input)
}

func (c *Console) ConfirmEscrow(ctx context.Context, input escrow.ConfirmInput) error {
	return c.escrow.Confirm(ctx, input)
}

func (c *Console) EnterResult(ctx context.Context, winner backend.Winner) error {
	return c.payout.EnterResult(ctx, winner)
}

func (c *Console) PreparePayouts(ctx context.Context) error {
	return c.payout.Prepare(ctx)
}

func (c *Console) ReconcilePayoutSigning(ctx context.Context, input payout.ReconcileInput) error {
	return c.payout.Reconcile(ctx, input)
}

func (c *Console) ConfirmPayout(ctx context.Context, input payout.ConfirmInput) error {
	return c.payout.Confirm(ctx, input)
}

// EscrowItem returns the latest prepared escrow item for kind.
func (c *Console) EscrowItem(kind backend.EscrowKind) (backend.EscrowPrepareItem, error) {
	return c.escrow.Item(kind)
}

// PayoutItem returns the latest prepared payout item for kind.
func (c *Console) PayoutItem(kind backend.EscrowKind) (backend.PayoutPrepareItem, error) {
	return c.payout.Item(kind)
}

// Snapshot returns the current console view.
func (c *Console) Snapshot() Snapshot {
	return Snapshot{
		BoutID:    c.BoutID(),
		Busy:      c.runner.Busy(),
		LastError: c.runner.LastError(),
		Roles:     c.tokens.Summary(),
		Log:       c.runner.Entries(),
		Register:  c.auth.LastRegister(),
		Escrow:    c.escrow.State(),
		Payout:    c.payout.State(),
	}
}
