package backend

// EscrowKind identifies one of the four escrows of a bout.
type EscrowKind string

const (
	EscrowKindShowA  EscrowKind = "show_a"
	EscrowKindShowB  EscrowKind = "show_b"
	EscrowKindBonusA EscrowKind = "bonus_a"
	EscrowKindBonusB EscrowKind = "bonus_b"
)

// EscrowKinds lists every escrow kind in display order.
var EscrowKinds = []EscrowKind{EscrowKindShowA, EscrowKindShowB, EscrowKindBonusA, EscrowKindBonusB}

// SigningStatus is the operator-observed or backend-reported state of a sign
// request.
type SigningStatus string

const (
	SigningStatusOpen     SigningStatus = "open"
	SigningStatusSigned   SigningStatus = "signed"
	SigningStatusDeclined SigningStatus = "declined"
	SigningStatusExpired  SigningStatus = "expired"
	SigningStatusUnknown  SigningStatus = "unknown"
)

// SigningStatuses lists every signing status.
var SigningStatuses = []SigningStatus{
	SigningStatusOpen,
	SigningStatusSigned,
	SigningStatusDeclined,
	SigningStatusExpired,
	SigningStatusUnknown,
}

// Winner is a bout result selection.
type Winner string

const (
	WinnerA Winner = "A"
	WinnerB Winner = "B"
)

// PayoutAction is the settlement applied to an escrow after the result.
type PayoutAction string

const (
	PayoutActionFinish PayoutAction = "finish"
	PayoutActionCancel PayoutAction = "cancel"
)

// TransactionType is the ledger transaction type of a payout.
type TransactionType string

const (
	TransactionTypeEscrowFinish TransactionType = "EscrowFinish"
	TransactionTypeEscrowCancel TransactionType = "EscrowCancel"
)

// UnsignedTx is the ledger transaction the backend prepared for signing.
// Numeric values decode as json.Number.
type UnsignedTx map[string]any

// SignRequest describes the out-of-band signing request for a prepared
// transaction. The console treats it as opaque apart from PayloadID.
type SignRequest struct {
	PayloadID          string  `json:"payload_id"`
	DeepLinkURL        string  `json:"deep_link_url"`
	QRPNGURL           string  `json:"qr_png_url"`
	WebsocketStatusURL *string `json:"websocket_status_url"`
	Mode               string  `json:"mode"`
}

// RegisterRequest creates a backend user.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// RegisterResponse echoes the created user.
type RegisterResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// LoginRequest exchanges credentials for an access token.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries the bearer access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// EscrowPrepareItem is one escrow prepared for creation.
type EscrowPrepareItem struct {
	EscrowID    string      `json:"escrow_id"`
	EscrowKind  EscrowKind  `json:"escrow_kind"`
	UnsignedTx  UnsignedTx  `json:"unsigned_tx"`
	SignRequest SignRequest `json:"xaman_sign_request"`
}

// EscrowPrepareResponse lists the escrows prepared for a bout.
type EscrowPrepareResponse struct {
	BoutID  string              `json:"bout_id"`
	Escrows []EscrowPrepareItem `json:"escrows"`
}

// SigningReconcileRequest reports the operator's view of a sign request.
type SigningReconcileRequest struct {
	EscrowKind     EscrowKind    `json:"escrow_kind"`
	PayloadID      string        `json:"payload_id"`
	ObservedStatus SigningStatus `json:"observed_status,omitempty"`
	ObservedTxHash string        `json:"observed_tx_hash,omitempty"`
}

// SigningReconcileResponse is the backend's view of a sign request.
type SigningReconcileResponse struct {
	BoutID        string        `json:"bout_id"`
	EscrowID      string        `json:"escrow_id"`
	EscrowKind    EscrowKind    `json:"escrow_kind"`
	EscrowStatus  string        `json:"escrow_status"`
	PayloadID     string        `json:"payload_id"`
	SigningStatus SigningStatus `json:"signing_status"`
	TxHash        *string       `json:"tx_hash"`
	FailureCode   *string       `json:"failure_code"`
}

// EscrowConfirmRequest reports a validated EscrowCreate transaction.
type EscrowConfirmRequest struct {
	EscrowKind         EscrowKind `json:"escrow_kind"`
	TxHash             string     `json:"tx_hash"`
	OfferSequence      int64      `json:"offer_sequence"`
	Validated          bool       `json:"validated"`
	EngineResult       string     `json:"engine_result"`
	OwnerAddress       string     `json:"owner_address"`
	DestinationAddress string     `json:"destination_address"`
	AmountDrops        int64      `json:"amount_drops"`
	FinishAfterRipple  int64      `json:"finish_after_ripple"`
	CancelAfterRipple  *int64     `json:"cancel_after_ripple"`
	ConditionHex       *string    `json:"condition_hex"`
}

// EscrowConfirmResponse is the escrow state after a confirm.
type EscrowConfirmResponse struct {
	BoutID        string     `json:"bout_id"`
	EscrowID      string     `json:"escrow_id"`
	EscrowKind    EscrowKind `json:"escrow_kind"`
	EscrowStatus  string     `json:"escrow_status"`
	BoutStatus    string     `json:"bout_status"`
	TxHash        string     `json:"tx_hash"`
	OfferSequence int64      `json:"offer_sequence"`
}

// BoutResultRequest records the bout winner.
type BoutResultRequest struct {
	Winner Winner `json:"winner"`
}

// BoutResultResponse is the bout state after result entry.
type BoutResultResponse struct {
	BoutID     string `json:"bout_id"`
	BoutStatus string `json:"bout_status"`
	Winner     Winner `json:"winner"`
}

// PayoutPrepareItem is one escrow prepared for settlement.
type PayoutPrepareItem struct {
	EscrowID    string       `json:"escrow_id"`
	EscrowKind  EscrowKind   `json:"escrow_kind"`
	Action      PayoutAction `json:"action"`
	UnsignedTx  UnsignedTx   `json:"unsigned_tx"`
	SignRequest SignRequest  `json:"xaman_sign_request"`
}

// PayoutPrepareResponse lists the settlements prepared for a bout.
type PayoutPrepareResponse struct {
	BoutID     string              `json:"bout_id"`
	BoutStatus string              `json:"bout_status"`
	Escrows    []PayoutPrepareItem `json:"escrows"`
}

// PayoutConfirmRequest reports a validated EscrowFinish or EscrowCancel.
type PayoutConfirmRequest struct {
	EscrowKind      EscrowKind      `json:"escrow_kind"`
	TxHash          string          `json:"tx_hash"`
	Validated       bool            `json:"validated"`
	EngineResult    string          `json:"engine_result"`
	TransactionType TransactionType `json:"transaction_type"`
	OwnerAddress    string          `json:"owner_address"`
	OfferSequence   int64           `json:"offer_sequence"`
	CloseTimeRipple int64           `json:"close_time_ripple"`
	FulfillmentHex  *string         `json:"fulfillment_hex"`
}

// PayoutConfirmResponse is the escrow state after a payout confirm.
type PayoutConfirmResponse struct {
	BoutID       string     `json:"bout_id"`
	EscrowID     string     `json:"escrow_id"`
	EscrowKind   EscrowKind `json:"escrow_kind"`
	EscrowStatus string     `json:"escrow_status"`
	BoutStatus   string     `json:"bout_status"`
	TxHash       string     `json:"tx_hash"`
}
