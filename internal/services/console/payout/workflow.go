// Package payout drives the post-bout lifecycle: admin result entry, then
// prepare, reconcile and confirm of the EscrowFinish or EscrowCancel that
// settles each escrow.
package payout

import (
	"context"
	"sync"

	apperrors "github.com/louisbranch/ringledger/internal/platform/errors"
	"github.com/louisbranch/ringledger/internal/services/console/backend"
	"github.com/louisbranch/ringledger/internal/services/console/credentials"
	"github.com/louisbranch/ringledger/internal/services/console/flow"
)

const (
	LabelResult    = "result_entry"
	LabelPrepare   = "payout_prepare"
	LabelReconcile = "payout_signing_reconcile"
	LabelConfirm   = "payout_confirm"

	idempotencyPrefix = "payout-confirm"
)

// Client exposes the result and payout backend calls.
type Client interface {
	EnterResult(ctx context.Context, boutID, token string, req backend.BoutResultRequest) (backend.BoutResultResponse, error)
	PreparePayouts(ctx context.Context, boutID, token string) (backend.PayoutPrepareResponse, error)
	ReconcilePayoutSigning(ctx context.Context, boutID, token string, req backend.SigningReconcileRequest) (backend.SigningReconcileResponse, error)
	ConfirmPayout(ctx context.Context, boutID, token, idempotencyKey string, req backend.PayoutConfirmRequest) (backend.PayoutConfirmResponse, error)
}

// Deps carries the collaborators of a Workflow.
type Deps struct {
	Client Client
	Tokens flow.TokenSource
	Runner flow.Runner
	BoutID flow.BoutSource
	// NewKey defaults to flow.NewKey.
	NewKey flow.KeyFunc
}

// ReconcileInput is the operator's observation of one payout sign request.
type ReconcileInput struct {
	Kind           backend.EscrowKind
	ObservedStatus backend.SigningStatus
	ObservedTxHash string
}

// ConfirmInput describes a validated settlement as seen on the ledger.
type ConfirmInput struct {
	Kind         backend.EscrowKind
	TxHash       string
	Validated    bool
	EngineResult string
	// CloseTimeRipple is the ledger close time, in ripple epoch seconds.
	CloseTimeRipple string
}

// State is a snapshot of the workflow.
type State struct {
	Stage     flow.Stage
	Result    *backend.BoutResultResponse
	Prepare   *backend.PayoutPrepareResponse
	Reconcile *backend.SigningReconcileResponse
	Confirm   *backend.PayoutConfirmResponse
}

// Workflow holds the latest result and payout responses of the session.
type Workflow struct {
	deps Deps

	mu        sync.Mutex
	stage     flow.Stage
	result    *backend.BoutResultResponse
	prepare   *backend.PayoutPrepareResponse
	reconcile *backend.SigningReconcileResponse
	confirm   *backend.PayoutConfirmResponse
}

// New builds a Workflow in StageNoPrepare.
func New(deps Deps) *Workflow {
	if deps.NewKey == nil {
		deps.NewKey = flow.NewKey
	}
	if deps.BoutID == nil {
		deps.BoutID = func() string { return "" }
	}
	return &Workflow{deps: deps}
}

// EnterResult records the winner. Payout prepare is not gated on it locally;
// the backend rejects payouts for a bout without a result.
func (w *Workflow) EnterResult(ctx context.Context, winner backend.Winner) error {
	return w.deps.Runner.Run(ctx, LabelResult, func(ctx context.Context) error {
		token, err := flow.RequireToken(w.deps.Tokens, credentials.RoleAdmin)
		if err != nil {
			return err
		}
		if winner != backend.WinnerA && winner != backend.WinnerB {
			return apperrors.Local("Winner must be A or B.")
		}
		boutID, err := flow.RequiredBoutID(w.deps.BoutID())
		if err != nil {
			return err
		}
		resp, err := w.deps.Client.EnterResult(ctx, boutID, token, backend.BoutResultRequest{Winner: winner})
		if err != nil {
			return err
		}

		w.mu.Lock()
		defer w.mu.Unlock()
		w.result = &resp
		return nil
	})
}

// Prepare asks the backend for the bout's settlements and replaces any
// earlier payout prepare on success.
func (w *Workflow) Prepare(ctx context.Context) error {
	return w.deps.Runner.Run(ctx, LabelPrepare, func(ctx context.Context) error {
		token, err := flow.RequireToken(w.deps.Tokens, credentials.RolePromoter)
		if err != nil {
			return err
		}
		boutID, err := flow.RequiredBoutID(w.deps.BoutID())
		if err != nil {
			return err
		}
		resp, err := w.deps.Client.PreparePayouts(ctx, boutID, token)
		if err != nil {
			return err
		}

		w.mu.Lock()
		defer w.mu.Unlock()
		w.prepare = &resp
		w.stage = flow.StagePrepared
		return nil
	})
}

// Reconcile reports the observed state of the payout sign request prepared
// for input.Kind.
func (w *Workflow) Reconcile(ctx context.Context, input ReconcileInput) error {
	return w.deps.Runner.Run(ctx, LabelReconcile, func(ctx context.Context) error {
		token, item, boutID, err := w.target(input.Kind)
		if err != nil {
			return err
		}
		resp, err := w.deps.Client.ReconcilePayoutSigning(ctx, boutID, token, backend.SigningReconcileRequest{
			EscrowKind:     input.Kind,
			PayloadID:      item.SignRequest.PayloadID,
			ObservedStatus: input.ObservedStatus,
			ObservedTxHash: input.ObservedTxHash,
		})
		if err != nil {
			return err
		}

		w.mu.Lock()
		defer w.mu.Unlock()
		w.reconcile = &resp
		w.stage = flow.StageReconciled
		return nil
	})
}

// Confirm reports the validated settlement for input.Kind.
func (w *Workflow) Confirm(ctx context.Context, input ConfirmInput) error {
	return w.deps.Runner.Run(ctx, LabelConfirm, func(ctx context.Context) error {
		token, item, boutID, err := w.target(input.Kind)
		if err != nil {
			return err
		}
		req, err := confirmRequest(input, item)
		if err != nil {
			return err
		}
		key, err := w.deps.NewKey(idempotencyPrefix)
		if err != nil {
			return err
		}
		resp, err := w.deps.Client.ConfirmPayout(ctx, boutID, token, key, req)
		if err != nil {
			return err
		}

		w.mu.Lock()
		defer w.mu.Unlock()
		w.confirm = &resp
		w.stage = flow.StageConfirmed
		return nil
	})
}

// Item returns the prepared payout item for kind from the latest prepare.
func (w *Workflow) Item(kind backend.EscrowKind) (backend.PayoutPrepareItem, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.stage.HasPrepare() || w.prepare == nil {
		return backend.PayoutPrepareItem{}, apperrors.Local("Run payout prepare first.")
	}
	for _, item := range w.prepare.Escrows {
		if item.EscrowKind == kind {
			return item, nil
		}
	}
	return backend.PayoutPrepareItem{}, apperrors.Localf("Payout prepare item not found for kind=%s.", kind)
}

// State returns a snapshot of the workflow.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State{
		Stage:     w.stage,
		Result:    w.result,
		Prepare:   w.prepare,
		Reconcile: w.reconcile,
		Confirm:   w.confirm,
	}
}

func (w *Workflow) target(kind backend.EscrowKind) (string, backend.PayoutPrepareItem, string, error) {
	token, err := flow.RequireToken(w.deps.Tokens, credentials.RolePromoter)
	if err != nil {
		return "", backend.PayoutPrepareItem{}, "", err
	}
	item, err := w.Item(kind)
	if err != nil {
		return "", backend.PayoutPrepareItem{}, "", err
	}
	boutID, err := flow.RequiredBoutID(w.deps.BoutID())
	if err != nil {
		return "", backend.PayoutPrepareItem{}, "", err
	}
	return token, item, boutID, nil
}

// expectedType maps a payout action onto the ledger transaction that
// performs it.
var expectedType = map[backend.PayoutAction]backend.TransactionType{
	backend.PayoutActionFinish: backend.TransactionTypeEscrowFinish,
	backend.PayoutActionCancel: backend.TransactionTypeEscrowCancel,
}

func confirmRequest(input ConfirmInput, item backend.PayoutPrepareItem) (backend.PayoutConfirmRequest, error) {
	tx := item.UnsignedTx
	txType, err := flow.RequiredPayoutType(tx, "TransactionType")
	if err != nil {
		return backend.PayoutConfirmRequest{}, err
	}
	if want, ok := expectedType[item.Action]; !ok || want != txType {
		return backend.PayoutConfirmRequest{}, apperrors.Localf("Payout transaction type %s does not match action=%s.", txType, item.Action)
	}
	owner, err := flow.RequiredString(tx, "Account")
	if err != nil {
		return backend.PayoutConfirmRequest{}, err
	}
	offerSequence, err := flow.RequiredInt(tx, "OfferSequence")
	if err != nil {
		return backend.PayoutConfirmRequest{}, err
	}
	closeTime, err := flow.ParseRequiredInteger(input.CloseTimeRipple, "close_time_ripple")
	if err != nil {
		return backend.PayoutConfirmRequest{}, err
	}
	fulfillment, err := flow.OptionalString(tx, "Fulfillment")
	if err != nil {
		return backend.PayoutConfirmRequest{}, err
	}
	return backend.PayoutConfirmRequest{
		EscrowKind:      input.Kind,
		TxHash:          input.TxHash,
		Validated:       input.Validated,
		EngineResult:    input.EngineResult,
		TransactionType: txType,
		OwnerAddress:    owner,
		OfferSequence:   offerSequence,
		CloseTimeRipple: closeTime,
		FulfillmentHex:  fulfillment,
	}, nil
}
