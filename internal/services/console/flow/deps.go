package flow

import (
	"context"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	apperrors "github.com/louisbranch/ringledger/internal/platform/errors"
	"github.com/louisbranch/ringledger/internal/platform/id"
	"github.com/louisbranch/ringledger/internal/services/console/credentials"
)

// Runner executes one labelled console action.
type Runner interface {
	Run(ctx context.Context, label string, op func(context.Context) error) error
}

// TokenSource exposes the session bearer tokens.
type TokenSource interface {
	Token(role credentials.Role) (string, bool)
}

// BoutSource returns the current raw bout id.
type BoutSource func() string

// KeyFunc mints an idempotency key for prefix.
type KeyFunc func(prefix string) (string, error)

// NewKey mints idempotency keys from the wall clock.
func NewKey(prefix string) (string, error) {
	return id.IdempotencyKey(prefix, time.Now())
}

// RequireToken returns the token held for role, or the local error telling
// the operator which role to log in as.
func RequireToken(tokens TokenSource, role credentials.Role) (string, error) {
	if tokens != nil {
		if token, ok := tokens.Token(role); ok {
			return token, nil
		}
	}
	switch role {
	case credentials.RolePromoter:
		return "", apperrors.Local("Promoter token is required. Log in as promoter first.")
	case credentials.RoleAdmin:
		return "", apperrors.Local("Admin token is required. Log in as admin first.")
	default:
		return "", apperrors.Localf("%s token is required. Log in as %s first.", titleRole(role), role)
	}
}

func titleRole(role credentials.Role) string {
	return cases.Title(language.English).String(string(role))
}
