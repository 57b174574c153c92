// Package backendfakes provides an in-process escrow backend for console
// tests.
package backendfakes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/louisbranch/ringledger/internal/services/console/backend"
)

// signingKey signs fake access tokens. Consumers never verify them.
var signingKey = []byte("backendfakes-signing-key")

// Request is one request observed by the fake backend.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   map[string]any
}

type failure struct {
	status int
	detail string
}

// Server is a configurable fake of the escrow backend.
//
// Login returns an admin token when the email contains "admin" and a
// promoter token otherwise. Reconcile echoes the observed status and confirm
// echoes the offer sequence.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	requests []Request
	failures map[string]failure
}

// New starts a fake backend that is closed when t ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{failures: map[string]failure{}}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /bouts/{id}/escrows/prepare", s.handleEscrowPrepare)
	mux.HandleFunc("POST /bouts/{id}/escrows/signing/reconcile", s.handleReconcile("planned"))
	mux.HandleFunc("POST /bouts/{id}/escrows/confirm", s.handleEscrowConfirm)
	mux.HandleFunc("POST /bouts/{id}/result", s.handleResult)
	mux.HandleFunc("POST /bouts/{id}/payouts/prepare", s.handlePayoutPrepare)
	mux.HandleFunc("POST /bouts/{id}/payouts/signing/reconcile", s.handleReconcile("created"))
	mux.HandleFunc("POST /bouts/{id}/payouts/confirm", s.handlePayoutConfirm)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Unhandled route in test: "+r.URL.Path)
	})
	s.Server = httptest.NewServer(s.record(mux))
	t.Cleanup(s.Close)
	return s
}

// Fail makes every request whose path ends with suffix answer status with
// detail. An empty detail sends a body without one.
func (s *Server) Fail(suffix string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[suffix] = failure{status: status, detail: detail}
}

// Requests returns every request observed so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns the number of requests whose path ends with suffix.
func (s *Server) Count(suffix string) int {
	count := 0
	for _, req := range s.Requests() {
		if strings.HasSuffix(req.Path, suffix) {
			count++
		}
	}
	return count
}

// Last returns the most recent request whose path ends with suffix.
func (s *Server) Last(suffix string) (Request, bool) {
	requests := s.Requests()
	for i := len(requests) - 1; i >= 0; i-- {
		if strings.HasSuffix(requests[i].Path, suffix) {
			return requests[i], true
		}
	}
	return Request{}, false
}

// Token mints an access token carrying role.
func Token(role string) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  role + "-user",
		"role": role,
	}).SignedString(signingKey)
	if err != nil {
		panic(err)
	}
	return token
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(raw))
		body := decodeBody(bytes.NewReader(raw))
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   body,
		})
		injected, failed := s.failureFor(r.URL.Path)
		s.mu.Unlock()

		if failed {
			if injected.detail == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(injected.status)
				_, _ = io.WriteString(w, "{}")
				return
			}
			writeDetail(w, injected.status, injected.detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) failureFor(path string) (failure, bool) {
	for suffix, f := range s.failures {
		if strings.HasSuffix(path, suffix) {
			return f, true
		}
	}
	return failure{}, false
}

func decodeBody(r io.Reader) map[string]any {
	var body map[string]any
	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	_ = decoder.Decode(&body)
	return body
}

func (s *Server) body(r *http.Request) map[string]any {
	return decodeBody(r.Body)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	body := s.body(r)
	writeJSON(w, http.StatusCreated, backend.RegisterResponse{
		UserID: "6e688226-5f1c-4ad8-9a0e-27b4b8d1c001",
		Email:  stringField(body, "email"),
		Role:   stringField(body, "role"),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	role := "promoter"
	if strings.Contains(stringField(s.body(r), "email"), "admin") {
		role = "admin"
	}
	writeJSON(w, http.StatusOK, backend.TokenResponse{AccessToken: Token(role), TokenType: "bearer"})
}

func (s *Server) handleEscrowPrepare(w http.ResponseWriter, r *http.Request) {
	boutID := r.PathValue("id")
	writeJSON(w, http.StatusOK, backend.EscrowPrepareResponse{
		BoutID: boutID,
		Escrows: []backend.EscrowPrepareItem{
			escrowItem(backend.EscrowKindShowA, "1", 0, ""),
			escrowItem(backend.EscrowKindShowB, "2", 0, ""),
			escrowItem(backend.EscrowKindBonusA, "3", 823604800, "ABCDEF"),
			escrowItem(backend.EscrowKindBonusB, "4", 823604800, "FEDCBA"),
		},
	})
}

func (s *Server) handleReconcile(escrowStatus string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := s.body(r)
		status := backend.SigningStatus(stringField(body, "observed_status"))
		if status == "" {
			status = backend.SigningStatusOpen
		}
		var txHash *string
		if observed := stringField(body, "observed_tx_hash"); observed != "" {
			txHash = &observed
		}
		kind := backend.EscrowKind(stringField(body, "escrow_kind"))
		writeJSON(w, http.StatusOK, backend.SigningReconcileResponse{
			BoutID:        r.PathValue("id"),
			EscrowID:      "escrow-" + string(kind),
			EscrowKind:    kind,
			EscrowStatus:  escrowStatus,
			PayloadID:     stringField(body, "payload_id"),
			SigningStatus: status,
			TxHash:        txHash,
		})
	}
}

func (s *Server) handleEscrowConfirm(w http.ResponseWriter, r *http.Request) {
	body := s.body(r)
	kind := backend.EscrowKind(stringField(body, "escrow_kind"))
	offerSequence := int64Field(body, "offer_sequence")
	writeJSON(w, http.StatusOK, backend.EscrowConfirmResponse{
		BoutID:        r.PathValue("id"),
		EscrowID:      "escrow-" + string(kind),
		EscrowKind:    kind,
		EscrowStatus:  "created",
		BoutStatus:    "draft",
		TxHash:        stringField(body, "tx_hash"),
		OfferSequence: offerSequence,
	})
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, backend.BoutResultResponse{
		BoutID:     r.PathValue("id"),
		BoutStatus: "result_entered",
		Winner:     backend.Winner(stringField(s.body(r), "winner")),
	})
}

func (s *Server) handlePayoutPrepare(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, backend.PayoutPrepareResponse{
		BoutID:     r.PathValue("id"),
		BoutStatus: "result_entered",
		Escrows: []backend.PayoutPrepareItem{
			payoutItem(backend.EscrowKindShowA, backend.PayoutActionFinish, backend.TransactionTypeEscrowFinish, 7001),
			payoutItem(backend.EscrowKindShowB, backend.PayoutActionFinish, backend.TransactionTypeEscrowFinish, 7002),
			payoutItem(backend.EscrowKindBonusA, backend.PayoutActionFinish, backend.TransactionTypeEscrowFinish, 7003),
			payoutItem(backend.EscrowKindBonusB, backend.PayoutActionCancel, backend.TransactionTypeEscrowCancel, 7004),
		},
	})
}

func (s *Server) handlePayoutConfirm(w http.ResponseWriter, r *http.Request) {
	body := s.body(r)
	kind := backend.EscrowKind(stringField(body, "escrow_kind"))
	status := "finished"
	if stringField(body, "transaction_type") == string(backend.TransactionTypeEscrowCancel) {
		status = "cancelled"
	}
	writeJSON(w, http.StatusOK, backend.PayoutConfirmResponse{
		BoutID:       r.PathValue("id"),
		EscrowID:     "escrow-" + string(kind),
		EscrowKind:   kind,
		EscrowStatus: status,
		BoutStatus:   "closed",
		TxHash:       stringField(body, "tx_hash"),
	})
}

func escrowItem(kind backend.EscrowKind, suffix string, cancelAfter int64, condition string) backend.EscrowPrepareItem {
	tx := backend.UnsignedTx{
		"TransactionType": "EscrowCreate",
		"Account":         "rPromoterFront",
		"Destination":     "rFighter" + suffix,
		"Amount":          "1000",
		"FinishAfter":     823000000,
	}
	if cancelAfter != 0 {
		tx["CancelAfter"] = cancelAfter
	}
	if condition != "" {
		tx["Condition"] = condition
	}
	return backend.EscrowPrepareItem{
		EscrowID:    "escrow-" + string(kind),
		EscrowKind:  kind,
		UnsignedTx:  tx,
		SignRequest: signRequest("payload-" + string(kind)),
	}
}

func payoutItem(kind backend.EscrowKind, action backend.PayoutAction, txType backend.TransactionType, offerSequence int64) backend.PayoutPrepareItem {
	tx := backend.UnsignedTx{
		"TransactionType": string(txType),
		"Account":         "rPromoterFront",
		"Owner":           "rPromoterFront",
		"OfferSequence":   offerSequence,
	}
	if kind == backend.EscrowKindBonusA {
		tx["Fulfillment"] = "FULFILLMENTA"
	}
	return backend.PayoutPrepareItem{
		EscrowID:    "escrow-" + string(kind),
		EscrowKind:  kind,
		Action:      action,
		UnsignedTx:  tx,
		SignRequest: signRequest("payload-payout-" + string(kind)),
	}
}

func signRequest(payloadID string) backend.SignRequest {
	websocket := "wss://xumm.app/sign/" + payloadID
	return backend.SignRequest{
		PayloadID:          payloadID,
		DeepLinkURL:        "xumm://payload/" + payloadID,
		QRPNGURL:           "https://xumm.app/sign/" + payloadID + "/qr.png",
		WebsocketStatusURL: &websocket,
		Mode:               "stub",
	}
}

func stringField(body map[string]any, field string) string {
	value, _ := body[field].(string)
	return value
}

func int64Field(body map[string]any, field string) int64 {
	number, ok := body[field].(json.Number)
	if !ok {
		return 0
	}
	value, _ := number.Int64()
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
