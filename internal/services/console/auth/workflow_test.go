package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/ringledger/internal/platform/errors"
	"github.com/louisbranch/ringledger/internal/services/console/backend"
	"github.com/louisbranch/ringledger/internal/services/console/credentials"
	"github.com/louisbranch/ringledger/internal/services/console/runner"
)

type fakeClient struct {
	token       string
	loginErr    error
	registerErr error
	registered  []backend.RegisterRequest
}

func (f *fakeClient) Register(_ context.Context, req backend.RegisterRequest) (backend.RegisterResponse, error) {
	if f.registerErr != nil {
		return backend.RegisterResponse{}, f.registerErr
	}
	f.registered = append(f.registered, req)
	return backend.RegisterResponse{UserID: "user-1", Email: req.Email, Role: req.Role}, nil
}

func (f *fakeClient) Login(context.Context, backend.LoginRequest) (backend.TokenResponse, error) {
	if f.loginErr != nil {
		return backend.TokenResponse{}, f.loginErr
	}
	return backend.TokenResponse{AccessToken: f.token, TokenType: "bearer"}, nil
}

func mintToken(t *testing.T, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1", "role": role}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newWorkflow(client *fakeClient) (*Workflow, *credentials.Store, *runner.Runner) {
	store := credentials.NewStore()
	run := runner.New(runner.Config{})
	return New(Deps{Client: client, Tokens: store, Runner: run}), store, run
}

func TestLoginStoresTokenUnderDecodedRole(t *testing.T) {
	t.Parallel()

	token := mintToken(t, "promoter")
	workflow, store, run := newWorkflow(&fakeClient{token: token})
	if err := workflow.Login(context.Background(), "promoter.frontend@example.com", "PromoterPass123!"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	got, ok := store.Token(credentials.RolePromoter)
	if !ok || got != token {
		t.Fatalf("Token(promoter) = %q, %t", got, ok)
	}
	if summary := store.Summary(); summary != "promoter" {
		t.Fatalf("Summary() = %q, want promoter", summary)
	}

	entries := run.Entries()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Label != LabelLogin || entries[0].Outcome != "success" {
		t.Fatalf("entries[0] = %+v", entries[0])
	}
	if !strings.HasSuffix(entries[1].String(), " | token stored for role=promoter") {
		t.Fatalf("entries[1] = %q", entries[1].String())
	}
}

func TestReloginOverwritesRoleSlot(t *testing.T) {
	t.Parallel()

	client := &fakeClient{token: mintToken(t, "admin")}
	workflow, store, _ := newWorkflow(client)
	if err := workflow.Login(context.Background(), "admin@example.com", "x"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	second, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-2", "role": "admin"}).SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	client.token = second
	if err := workflow.Login(context.Background(), "admin@example.com", "x"); err != nil {
		t.Fatalf("second Login() error = %v", err)
	}
	if got, _ := store.Token(credentials.RoleAdmin); got != second {
		t.Fatalf("Token(admin) = %q, want second token", got)
	}
	if summary := store.Summary(); summary != "admin" {
		t.Fatalf("Summary() = %q, want admin", summary)
	}
}

func TestLoginRejectsUndecodableToken(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"not a jwt":    "opaque-token",
		"unknown role": mintToken(t, "referee"),
	}
	for name, token := range tests {
		workflow, store, run := newWorkflow(&fakeClient{token: token})
		err := workflow.Login(context.Background(), "a@example.com", "x")
		if err == nil || err.Error() != "Could not decode role from JWT." {
			t.Fatalf("%s: Login() error = %v", name, err)
		}
		if store.Summary() != "none" {
			t.Fatalf("%s: Summary() = %q, want none", name, store.Summary())
		}
		if run.LastError() != "Could not decode role from JWT." {
			t.Fatalf("%s: LastError() = %q", name, run.LastError())
		}
	}
}

func TestLoginRemoteFailure(t *testing.T) {
	t.Parallel()

	workflow, _, run := newWorkflow(&fakeClient{loginErr: apperrors.Remote(401, "Invalid credentials.")})
	_ = workflow.Login(context.Background(), "a@example.com", "bad")
	if got := run.LastError(); got != "[401] Invalid credentials." {
		t.Fatalf("LastError() = %q", got)
	}
	if entries := run.Entries(); len(entries) != 1 || entries[0].Outcome != "[401] Invalid credentials." {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestRegisterStoresResponse(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	workflow, store, run := newWorkflow(client)
	if err := workflow.Register(context.Background(), "fighter@example.com", "FighterPass123!", credentials.RoleFighter); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if client.registered[0].Role != "fighter" {
		t.Fatalf("registered role = %q", client.registered[0].Role)
	}
	resp := workflow.LastRegister()
	if resp == nil || resp.Email != "fighter@example.com" {
		t.Fatalf("LastRegister() = %+v", resp)
	}
	if store.Summary() != "none" {
		t.Fatalf("register must not store a token, Summary() = %q", store.Summary())
	}
	if entries := run.Entries(); entries[0].Label != LabelRegister || entries[0].Outcome != "success" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestFailedRegisterKeepsPreviousResponse(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	workflow, _, _ := newWorkflow(client)
	if err := workflow.Register(context.Background(), "first@example.com", "x", credentials.RolePromoter); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	client.registerErr = apperrors.Remote(409, "Email already registered.")
	if err := workflow.Register(context.Background(), "first@example.com", "x", credentials.RolePromoter); err == nil {
		t.Fatal("expected register error")
	}
	if resp := workflow.LastRegister(); resp == nil || resp.Email != "first@example.com" {
		t.Fatalf("LastRegister() = %+v", resp)
	}
}
