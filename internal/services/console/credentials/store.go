// Package credentials holds the session bearer tokens of the console, one per
// role.
package credentials

import (
	"sort"
	"strings"
	"sync"

	apperrors "github.com/louisbranch/ringledger/internal/platform/errors"
)

// Role is a backend user role.
type Role string

const (
	RolePromoter   Role = "promoter"
	RoleFighter    Role = "fighter"
	RoleManagement Role = "management"
	RoleAdmin      Role = "admin"
)

// Roles lists every recognised role in slot order.
var Roles = [...]Role{RolePromoter, RoleFighter, RoleManagement, RoleAdmin}

// ParseRole maps a raw role string onto the closed role set.
func ParseRole(raw string) (Role, error) {
	normalized := Role(strings.ToLower(strings.TrimSpace(raw)))
	if normalized.slot() < 0 {
		return "", apperrors.Localf("Unknown role: %s", raw)
	}
	return normalized, nil
}

func (r Role) slot() int {
	for i, candidate := range Roles {
		if candidate == r {
			return i
		}
	}
	return -1
}

// Store keeps at most one token per role for the lifetime of the session.
// Nothing is persisted and tokens never expire client-side.
type Store struct {
	mu     sync.Mutex
	tokens [len(Roles)]string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Set overwrites the token held for role. Unknown roles are ignored.
func (s *Store) Set(role Role, token string) {
	slot := role.slot()
	if slot < 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[slot] = token
}

// Token returns the token held for role.
func (s *Store) Token(role Role) (string, bool) {
	slot := role.slot()
	if slot < 0 {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	token := s.tokens[slot]
	return token, token != ""
}

// Summary returns the sorted, comma-joined roles holding a token, or "none".
func (s *Store) Summary() string {
	s.mu.Lock()
	held := make([]string, 0, len(Roles))
	for i, token := range s.tokens {
		if token != "" {
			held = append(held, string(Roles[i]))
		}
	}
	s.mu.Unlock()

	if len(held) == 0 {
		return "none"
	}
	sort.Strings(held)
	return strings.Join(held, ", ")
}
