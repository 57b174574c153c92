package credentials

import (
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/ringledger/internal/platform/errors"
)

// errUndecodable is the operator-facing decode failure.
const errUndecodable = "Could not decode role from JWT."

// roleClaims is the subset of the access token payload the console reads.
type roleClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// DecodeRole reads the role claim from an access token payload.
//
// The signature is not verified: the backend is the only authority on the
// token, the console only needs to know which slot to file it under.
func DecodeRole(token string) (Role, error) {
	var claims roleClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return "", apperrors.Decode(errUndecodable)
	}
	role := Role(claims.Role)
	if role.slot() < 0 {
		return "", apperrors.Decode(errUndecodable)
	}
	return role, nil
}
