// Package flow holds the shared building blocks of the escrow and payout
// workflows: the stage enumeration, bout id validation, and typed readers over
// prepared unsigned transactions.
package flow

import (
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/ringledger/internal/platform/errors"
	"github.com/louisbranch/ringledger/internal/services/console/backend"
)

// Stage is the position of a workflow in its prepare/reconcile/confirm
// lifecycle.
type Stage int

const (
	StageNoPrepare Stage = iota
	StagePrepared
	StageReconciled
	StageConfirmed
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageNoPrepare:
		return "no_prepare"
	case StagePrepared:
		return "prepared"
	case StageReconciled:
		return "reconciled"
	case StageConfirmed:
		return "confirmed"
	default:
		return "stage(" + strconv.Itoa(int(s)) + ")"
	}
}

// HasPrepare reports whether a prepare has succeeded.
func (s Stage) HasPrepare() bool {
	return s >= StagePrepared && s <= StageConfirmed
}

// RequiredBoutID trims value and rejects an empty result.
func RequiredBoutID(value string) (string, error) {
	normalized := strings.TrimSpace(value)
	if normalized == "" {
		return "", apperrors.Local("Bout ID is required.")
	}
	return normalized, nil
}

var integerPattern = regexp.MustCompile(`^-?\d+$`)

// ParseRequiredInteger parses a base-10 integer typed by the operator or
// carried as a string in a prepared transaction.
func ParseRequiredInteger(raw, field string) (int64, error) {
	normalized := strings.TrimSpace(raw)
	if !integerPattern.MatchString(normalized) {
		return 0, apperrors.Localf("Invalid integer value for %s.", field)
	}
	value, err := strconv.ParseInt(normalized, 10, 64)
	if err != nil {
		return 0, apperrors.Localf("Invalid integer value for %s.", field)
	}
	return value, nil
}

// ParseEscrowKind validates an escrow kind typed by the operator.
func ParseEscrowKind(raw string) (backend.EscrowKind, error) {
	kind := backend.EscrowKind(strings.TrimSpace(raw))
	for _, candidate := range backend.EscrowKinds {
		if candidate == kind {
			return kind, nil
		}
	}
	return "", apperrors.Localf("Unknown escrow kind: %s", raw)
}

// ParseSigningStatus validates an observed signing status. An empty value
// means no observation.
func ParseSigningStatus(raw string) (backend.SigningStatus, error) {
	status := backend.SigningStatus(strings.TrimSpace(raw))
	if status == "" {
		return "", nil
	}
	for _, candidate := range backend.SigningStatuses {
		if candidate == status {
			return status, nil
		}
	}
	return "", apperrors.Localf("Unknown signing status: %s", raw)
}

// ParseWinner validates a result selection.
func ParseWinner(raw string) (backend.Winner, error) {
	switch winner := backend.Winner(strings.ToUpper(strings.TrimSpace(raw))); winner {
	case backend.WinnerA, backend.WinnerB:
		return winner, nil
	default:
		return "", apperrors.Local("Winner must be A or B.")
	}
}
