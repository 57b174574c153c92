// Package backend is the HTTP client for the bout escrow authority.
//
// Every call is a JSON POST. Non-2xx responses become remote errors carrying
// the response status and its string "detail", so the action log can render
// them as "[status] detail".
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	otelapi "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/ringledger/internal/platform/errors"
	"github.com/louisbranch/ringledger/internal/platform/otel"
	"github.com/louisbranch/ringledger/internal/platform/requestctx"
)

// DefaultBaseURL is the backend address used when none is configured.
const DefaultBaseURL = "http://127.0.0.1:8000"

// Client calls the backend over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client rooted at baseURL.
func NewClient(baseURL string, client *http.Client) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{baseURL: baseURL, client: client}
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type requestOptions struct {
	token          string
	idempotencyKey string
	body           any
}

// Register creates a user.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	var out RegisterResponse
	err := c.post(ctx, "/auth/register", "/auth/register", requestOptions{body: req}, &out)
	return out, err
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (TokenResponse, error) {
	var out TokenResponse
	err := c.post(ctx, "/auth/login", "/auth/login", requestOptions{body: req}, &out)
	return out, err
}

// PrepareEscrows asks the backend to plan the escrows of a bout.
func (c *Client) PrepareEscrows(ctx context.Context, boutID, token string) (EscrowPrepareResponse, error) {
	var out EscrowPrepareResponse
	err := c.post(ctx, boutPath(boutID, "/escrows/prepare"), "/bouts/{id}/escrows/prepare", requestOptions{token: token}, &out)
	return out, err
}

// ReconcileEscrowSigning reports the observed state of an escrow sign request.
func (c *Client) ReconcileEscrowSigning(ctx context.Context, boutID, token string, req SigningReconcileRequest) (SigningReconcileResponse, error) {
	var out SigningReconcileResponse
	err := c.post(ctx, boutPath(boutID, "/escrows/signing/reconcile"), "/bouts/{id}/escrows/signing/reconcile", requestOptions{token: token, body: req}, &out)
	return out, err
}

// ConfirmEscrow reports a validated EscrowCreate.
func (c *Client) ConfirmEscrow(ctx context.Context, boutID, token, idempotencyKey string, req EscrowConfirmRequest) (EscrowConfirmResponse, error) {
	var out EscrowConfirmResponse
	err := c.post(ctx, boutPath(boutID, "/escrows/confirm"), "/bouts/{id}/escrows/confirm", requestOptions{token: token, idempotencyKey: idempotencyKey, body: req}, &out)
	return out, err
}

// EnterResult records the bout winner.
func (c *Client) EnterResult(ctx context.Context, boutID, token string, req BoutResultRequest) (BoutResultResponse, error) {
	var out BoutResultResponse
	err := c.post(ctx, boutPath(boutID, "/result"), "/bouts/{id}/result", requestOptions{token: token, body: req}, &out)
	return out, err
}

// PreparePayouts asks the backend to plan the settlements of a bout.
func (c *Client) PreparePayouts(ctx context.Context, boutID, token string) (PayoutPrepareResponse, error) {
	var out PayoutPrepareResponse
	err := c.post(ctx, boutPath(boutID, "/payouts/prepare"), "/bouts/{id}/payouts/prepare", requestOptions{token: token}, &out)
	return out, err
}

// ReconcilePayoutSigning reports the observed state of a payout sign request.
func (c *Client) ReconcilePayoutSigning(ctx context.Context, boutID, token string, req SigningReconcileRequest) (SigningReconcileResponse, error) {
	var out SigningReconcileResponse
	err := c.post(ctx, boutPath(boutID, "/payouts/signing/reconcile"), "/bouts/{id}/payouts/signing/reconcile", requestOptions{token: token, body: req}, &out)
	return out, err
}

// ConfirmPayout reports a validated EscrowFinish or EscrowCancel.
func (c *Client) ConfirmPayout(ctx context.Context, boutID, token, idempotencyKey string, req PayoutConfirmRequest) (PayoutConfirmResponse, error) {
	var out PayoutConfirmResponse
	err := c.post(ctx, boutPath(boutID, "/payouts/confirm"), "/bouts/{id}/payouts/confirm", requestOptions{token: token, idempotencyKey: idempotencyKey, body: req}, &out)
	return out, err
}

func boutPath(boutID, suffix string) string {
	return "/bouts/" + url.PathEscape(boutID) + suffix
}

func (c *Client) post(ctx context.Context, path, route string, opts requestOptions, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := otel.Tracer("ringledger/console/backend").Start(ctx, "POST "+route, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", http.MethodPost),
		attribute.String("url.path", path),
	)
	if action := requestctx.ActionFromContext(ctx); action != "" {
		span.SetAttributes(attribute.String("console.action.label", action))
	}

	var body io.Reader
	if opts.body != nil {
		payload, err := json.Marshal(opts.body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", route, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", route, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if opts.token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.token)
	}
	if opts.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", opts.idempotencyKey)
	}
	otelapi.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.client.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s request: %w", route, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		span.SetStatus(codes.Error, resp.Status)
		return apperrors.Remote(resp.StatusCode, readErrorDetail(resp.Body))
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", route, err)
	}
	return nil
}

// readErrorDetail returns the string "detail" of an error body, or "" when the
// body is not JSON or detail is not a string (e.g. validation error lists).
func readErrorDetail(body io.Reader) string {
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return ""
	}
	detail, _ := payload.Detail.(string)
	return detail
}
