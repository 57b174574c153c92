// Package auth registers backend users and files login tokens under the role
// they carry.
package auth

import (
	"context"
	"sync"

	"github.com/louisbranch/ringledger/internal/services/console/backend"
	"github.com/louisbranch/ringledger/internal/services/console/credentials"
	"github.com/louisbranch/ringledger/internal/services/console/flow"
)

const (
	LabelRegister = "register"
	LabelLogin    = "login"
)

// Client exposes the auth backend calls.
type Client interface {
	Register(ctx context.Context, req backend.RegisterRequest) (backend.RegisterResponse, error)
	Login(ctx context.Context, req backend.LoginRequest) (backend.TokenResponse, error)
}

// TokenSink stores a decoded login token.
type TokenSink interface {
	Set(role credentials.Role, token string)
}

// Runner executes actions and accepts free-form log notes.
type Runner interface {
	flow.Runner
	Note(message string)
}

// Deps carries the collaborators of a Workflow.
type Deps struct {
	Client Client
	Tokens TokenSink
	Runner Runner
}

// Workflow runs register and login actions.
type Workflow struct {
	deps Deps

	mu       sync.Mutex
	register *backend.RegisterResponse
}

// New builds a Workflow.
func New(deps Deps) *Workflow {
	return &Workflow{deps: deps}
}

// Register creates a backend user with role.
func (w *Workflow) Register(ctx context.Context, email, password string, role credentials.Role) error {
	return w.deps.Runner.Run(ctx, LabelRegister, func(ctx context.Context) error {
		resp, err := w.deps.Client.Register(ctx, backend.RegisterRequest{
			Email:    email,
			Password: password,
			Role:     string(role),
		})
		if err != nil {
			return err
		}
		w.mu.Lock()
		w.register = &resp
		w.mu.Unlock()
		return nil
	})
}

// Login exchanges credentials for a token and stores it under the role
// claim it carries. A later login for the same role overwrites the token.
func (w *Workflow) Login(ctx context.Context, email, password string) error {
	return w.deps.Runner.Run(ctx, LabelLogin, func(ctx context.Context) error {
		resp, err := w.deps.Client.Login(ctx, backend.LoginRequest{Email: email, Password: password})
		if err != nil {
			return err
		}
		role, err := credentials.DecodeRole(resp.AccessToken)
		if err != nil {
			return err
		}
		w.deps.Tokens.Set(role, resp.AccessToken)
		w.deps.Runner.Note("token stored for role=" + string(role))
		return nil
	})
}

// LastRegister returns the most recent successful register response.
func (w *Workflow) LastRegister() *backend.RegisterResponse {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.register
}
