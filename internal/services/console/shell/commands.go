package shell

import (
	"context"
	"errors"
	"flag"

	"github.com/louisbranch/ringledger/internal/services/console/backend"
	"github.com/louisbranch/ringledger/internal/services/console/credentials"
	"github.com/louisbranch/ringledger/internal/services/console/escrow"
	"github.com/louisbranch/ringledger/internal/services/console/flow"
	"github.com/louisbranch/ringledger/internal/services/console/payout"
)

const (
	defaultEmail          = "promoter.frontend@example.com"
	defaultPassword       = "PromoterPass123!"
	defaultEscrowTxHash   = "TXESCROWFRONTEND001"
	defaultPayoutTxHash   = "TXPAYOUTFRONTEND001"
	defaultOfferSequence  = "1001"
	defaultEngineResult   = "tesSUCCESS"
	defaultCloseTime      = "823000100"
	defaultKind           = string(backend.EscrowKindShowA)
	defaultObservedStatus = string(backend.SigningStatusOpen)
)

func (s *Shell) register(ctx context.Context, args []string) error {
	fs := s.newFlagSet("register")
	email := fs.String("email", defaultEmail, "account email")
	password := fs.String("password", defaultPassword, "account password")
	rawRole := fs.String("role", string(credentials.RolePromoter), "promoter, fighter, management or admin")
	if handled, err := parse(fs, args); handled || err != nil {
		return err
	}
	role, err := credentials.ParseRole(*rawRole)
	if err != nil {
		return err
	}
	s.run(func() error { return s.console.Register(ctx, *email, *password, role) })
	return nil
}

func (s *Shell) login(ctx context.Context, args []string) error {
	fs := s.newFlagSet("login")
	email := fs.String("email", defaultEmail, "account email")
	password := fs.String("password", defaultPassword, "account password")
	if handled, err := parse(fs, args); handled || err != nil {
		return err
	}
	s.run(func() error { return s.console.Login(ctx, *email, *password) })
	return nil
}

func (s *Shell) result(ctx context.Context, args []string) error {
	fs := s.newFlagSet("result")
	rawWinner := fs.String("winner", string(backend.WinnerA), "A or B")
	if handled, err := parse(fs, args); handled || err != nil {
		return err
	}
	winner, err := flow.ParseWinner(*rawWinner)
	if err != nil {
		return err
	}
	s.run(func() error { return s.console.EnterResult(ctx, winner) })
	return nil
}

// signingFlags are the options shared by escrow and payout reconcile.
type signingFlags struct {
	kind   *string
	status *string
	txHash *string
}

func bindSigningFlags(fs *flag.FlagSet) signingFlags {
	return signingFlags{
		kind:   fs.String("kind", defaultKind, "show_a, show_b, bonus_a or bonus_b"),
		status: fs.String("status", defaultObservedStatus, "observed status: open, signed, declined, expired or unknown"),
		txHash: fs.String("tx-hash", "", "observed transaction hash"),
	}
}

func (f signingFlags) parse() (backend.EscrowKind, backend.SigningStatus, error) {
	kind, err := flow.ParseEscrowKind(*f.kind)
	if err != nil {
		return "", "", err
	}
	status, err := flow.ParseSigningStatus(*f.status)
	if err != nil {
		return "", "", err
	}
	return kind, status, nil
}

func (s *Shell) escrow(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: escrow prepare|reconcile|confirm")
	}
	switch args[0] {
	case "prepare":
		if handled, err := parse(s.newFlagSet("escrow prepare"), args[1:]); handled || err != nil {
			return err
		}
		s.run(func() error { return s.console.PrepareEscrows(ctx) })
		return nil
	case "reconcile":
		fs := s.newFlagSet("escrow reconcile")
		signing := bindSigningFlags(fs)
		if handled, err := parse(fs, args[1:]); handled || err != nil {
			return err
		}
		kind, status, err := signing.parse()
		if err != nil {
			return err
		}
		input := escrow.ReconcileInput{Kind: kind, ObservedStatus: status, ObservedTxHash: *signing.txHash}
		s.run(func() error { return s.console.ReconcileEscrowSigning(ctx, input) })
		return nil
	case "confirm":
		fs := s.newFlagSet("escrow confirm")
		rawKind := fs.String("kind", defaultKind, "show_a, show_b, bonus_a or bonus_b")
		txHash := fs.String("tx-hash", defaultEscrowTxHash, "validated EscrowCreate hash")
		offerSequence := fs.String("offer-sequence", defaultOfferSequence, "EscrowCreate sequence")
		validated := fs.Bool("validated", true, "transaction is in a validated ledger")
		engineResult := fs.String("engine-result", defaultEngineResult, "ledger engine result")
		if handled, err := parse(fs, args[1:]); handled || err != nil {
			return err
		}
		kind, err := flow.ParseEscrowKind(*rawKind)
		if err != nil {
			return err
		}
		input := escrow.ConfirmInput{
			Kind:          kind,
			TxHash:        *txHash,
			OfferSequence: *offerSequence,
			Validated:     *validated,
			EngineResult:  *engineResult,
		}
		s.run(func() error { return s.console.ConfirmEscrow(ctx, input) })
		return nil
	default:
		return errors.New("usage: escrow prepare|reconcile|confirm")
	}
}

func (s *Shell) payout(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: payout prepare|reconcile|confirm")
	}
	switch args[0] {
	case "prepare":
		if handled, err := parse(s.newFlagSet("payout prepare"), args[1:]); handled || err != nil {
			return err
		}
		s.run(func() error { return s.console.PreparePayouts(ctx) })
		return nil
	case "reconcile":
		fs := s.newFlagSet("payout reconcile")
		signing := bindSigningFlags(fs)
		if handled, err := parse(fs, args[1:]); handled || err != nil {
			return err
		}
		kind, status, err := signing.parse()
		if err != nil {
			return err
		}
		input := payout.ReconcileInput{Kind: kind, ObservedStatus: status, ObservedTxHash: *signing.txHash}
		s.run(func() error { return s.console.ReconcilePayoutSigning(ctx, input) })
		return nil
	case "confirm":
		fs := s.newFlagSet("payout confirm")
		rawKind := fs.String("kind", defaultKind, "show_a, show_b, bonus_a or bonus_b")
		txHash := fs.String("tx-hash", defaultPayoutTxHash, "validated EscrowFinish or EscrowCancel hash")
		validated := fs.Bool("validated", true, "transaction is in a validated ledger")
		engineResult := fs.String("engine-result", defaultEngineResult, "ledger engine result")
		closeTime := fs.String("close-time", defaultCloseTime, "ledger close time in ripple epoch seconds")
		if handled, err := parse(fs, args[1:]); handled || err != nil {
			return err
		}
		kind, err := flow.ParseEscrowKind(*rawKind)
		if err != nil {
			return err
		}
		input := payout.ConfirmInput{
			Kind:            kind,
			TxHash:          *txHash,
			Validated:       *validated,
			EngineResult:    *engineResult,
			CloseTimeRipple: *closeTime,
		}
		s.run(func() error { return s.console.ConfirmPayout(ctx, input) })
		return nil
	default:
		return errors.New("usage: payout prepare|reconcile|confirm")
	}
}
