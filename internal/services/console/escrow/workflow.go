// Package escrow drives the escrow creation lifecycle of a bout: prepare the
// four escrows, reconcile the operator's view of each sign request, and
// confirm each validated EscrowCreate.
package escrow

import (
	"context"
	"sync"

	apperrors "github.com/louisbranch/ringledger/internal/platform/errors"
	"github.com/louisbranch/ringledger/internal/services/console/backend"
	"github.com/louisbranch/ringledger/internal/services/console/credentials"
	"github.com/louisbranch/ringledger/internal/services/console/flow"
)

const (
	LabelPrepare   = "escrow_prepare"
	LabelReconcile = "escrow_signing_reconcile"
	LabelConfirm   = "escrow_confirm"

	idempotencyPrefix = "escrow-confirm"
)

// Client exposes the escrow backend calls.
type Client interface {
	PrepareEscrows(ctx context.Context, boutID, token string) (backend.EscrowPrepareResponse, error)
	ReconcileEscrowSigning(ctx context.Context, boutID, token string, req backend.SigningReconcileRequest) (backend.SigningReconcileResponse, error)
	ConfirmEscrow(ctx context.Context, boutID, token, idempotencyKey string, req backend.EscrowConfirmRequest) (backend.EscrowConfirmResponse, error)
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

// ReconcileInput is the operator's observation of one sign request.
type ReconcileInput struct {
	Kind           backend.EscrowKind
	ObservedStatus backend.SigningStatus
	ObservedTxHash string
}

// ConfirmInput describes a validated EscrowCreate as seen on the ledger.
type ConfirmInput struct {
	Kind          backend.EscrowKind
	TxHash        string
	OfferSequence string
	Validated     bool
	EngineResult  string
}

// State is a snapshot of the workflow.
type State struct {
	Stage     flow.Stage
	Prepare   *backend.EscrowPrepareResponse
	Reconcile *backend.SigningReconcileResponse
	Confirm   *backend.EscrowConfirmResponse
}

// Workflow holds the latest escrow results of the session.
type Workflow struct {
	deps Deps

	mu        sync.Mutex
	stage     flow.Stage
	prepare   *backend.EscrowPrepareResponse
	reconcile *backend.SigningReconcileResponse
	confirm   *backend.EscrowConfirmResponse
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

// Prepare asks the backend for the bout's escrows and replaces any earlier
// prepare on success.
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
		resp, err := w.deps.Client.PrepareEscrows(ctx, boutID, token)
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

// Reconcile reports the observed state of the sign request prepared for
// input.Kind.
func (w *Workflow) Reconcile(ctx context.Context, input ReconcileInput) error {
	return w.deps.Runner.Run(ctx, LabelReconcile, func(ctx context.Context) error {
		token, item, boutID, err := w.target(input.Kind)
		if err != nil {
			return err
		}
		resp, err := w.deps.Client.ReconcileEscrowSigning(ctx, boutID, token, backend.SigningReconcileRequest{
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

// Confirm reports the validated EscrowCreate for input.Kind. The ledger fields
// of the request come from the prepared unsigned transaction.
func (w *Workflow) Confirm(ctx context.Context, input ConfirmInput) error {
	return w.deps.Runner.Run(ctx, LabelConfirm, func(ctx context.Context) error {
		token, item, boutID, err := w.target(input.Kind)
		if err != nil {
			return err
		}
		req, err := confirmRequest(input, item.UnsignedTx)
		if err != nil {
			return err
		}
		key, err := w.deps.NewKey(idempotencyPrefix)
		if err != nil {
			return err
		}
		resp, err := w.deps.Client.ConfirmEscrow(ctx, boutID, token, key, req)
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

// Item returns the prepared item for kind from the latest prepare.
func (w *Workflow) Item(kind backend.EscrowKind) (backend.EscrowPrepareItem, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.stage.HasPrepare() || w.prepare == nil {
		return backend.EscrowPrepareItem{}, apperrors.Local("Run escrow prepare first.")
	}
	for _, item := range w.prepare.Escrows {
		if item.EscrowKind == kind {
			return item, nil
		}
	}
	return backend.EscrowPrepareItem{}, apperrors.Localf("Escrow prepare item not found for kind=%s.", kind)
}

// State returns a snapshot of the workflow.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State{Stage: w.stage, Prepare: w.prepare, Reconcile: w.reconcile, Confirm: w.confirm}
}

// target resolves the preconditions shared by reconcile and confirm.
func (w *Workflow) target(kind backend.EscrowKind) (string, backend.EscrowPrepareItem, string, error) {
	token, err := flow.RequireToken(w.deps.Tokens, credentials.RolePromoter)
	if err != nil {
		return "", backend.EscrowPrepareItem{}, "", err
	}
	item, err := w.Item(kind)
	if err != nil {
		return "", backend.EscrowPrepareItem{}, "", err
	}
	boutID, err := flow.RequiredBoutID(w.deps.BoutID())
	if err != nil {
		return "", backend.EscrowPrepareItem{}, "", err
	}
	return token, item, boutID, nil
}

func confirmRequest(input ConfirmInput, tx backend.UnsignedTx) (backend.EscrowConfirmRequest, error) {
	offerSequence, err := flow.ParseRequiredInteger(input.OfferSequence, "offer_sequence")
	if err != nil {
		return backend.EscrowConfirmRequest{}, err
	}
	owner, err := flow.RequiredString(tx, "Account")
	if err != nil {
		return backend.EscrowConfirmRequest{}, err
	}
	destination, err := flow.RequiredString(tx, "Destination")
	if err != nil {
		return backend.EscrowConfirmRequest{}, err
	}
	rawAmount, err := flow.RequiredString(tx, "Amount")
	if err != nil {
		return backend.EscrowConfirmRequest{}, err
	}
	amount, err := flow.ParseRequiredInteger(rawAmount, "Amount")
	if err != nil {
		return backend.EscrowConfirmRequest{}, err
	}
	finishAfter, err := flow.RequiredInt(tx, "FinishAfter")
	if err != nil {
		return backend.EscrowConfirmRequest{}, err
	}
	cancelAfter, err := flow.OptionalInt(tx, "CancelAfter")
	if err != nil {
		return backend.EscrowConfirmRequest{}, err
	}
	condition, err := flow.OptionalString(tx, "Condition")
	if err != nil {
		return backend.EscrowConfirmRequest{}, err
	}
	return backend.EscrowConfirmRequest{
		EscrowKind:         input.Kind,
		TxHash:             input.TxHash,
		OfferSequence:      offerSequence,
		Validated:          input.Validated,
		EngineResult:       input.EngineResult,
		OwnerAddress:       owner,
		DestinationAddress: destination,
		AmountDrops:        amount,
		FinishAfterRipple:  finishAfter,
		CancelAfterRipple:  cancelAfter,
		ConditionHex:       condition,
	}, nil
}
