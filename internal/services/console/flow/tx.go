package flow

import (
	"encoding/json"
	"math"
	"strings"

	apperrors "github.com/louisbranch/ringledger/internal/platform/errors"
	"github.com/louisbranch/ringledger/internal/services/console/backend"
)

// RequiredString returns a non-blank string field of tx.
func RequiredString(tx backend.UnsignedTx, field string) (string, error) {
	if value, ok := tx[field].(string); ok && strings.TrimSpace(value) != "" {
		return value, nil
	}
	return "", apperrors.Localf("Missing required string field: %s", field)
}

// OptionalString returns the trimmed string field of tx, or nil when the
// field is absent, null or blank.
func OptionalString(tx backend.UnsignedTx, field string) (*string, error) {
	raw, ok := tx[field]
	if !ok || raw == nil {
		return nil, nil
	}
	value, ok := raw.(string)
	if !ok {
		return nil, apperrors.Localf("Expected optional string field: %s", field)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	return &value, nil
}

// RequiredInt returns an integer field of tx. Integer strings are accepted.
func RequiredInt(tx backend.UnsignedTx, field string) (int64, error) {
	value, ok, err := readInt(tx[field], field)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, apperrors.Localf("Missing required numeric field: %s", field)
	}
	return value, nil
}

// OptionalInt returns an integer field of tx, or nil when the field is absent
// or null.
func OptionalInt(tx backend.UnsignedTx, field string) (*int64, error) {
	raw, present := tx[field]
	if !present || raw == nil {
		return nil, nil
	}
	value, ok, err := readInt(raw, field)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.Localf("Expected optional numeric field: %s", field)
	}
	return &value, nil
}

// RequiredPayoutType returns the payout transaction type field of tx.
func RequiredPayoutType(tx backend.UnsignedTx, field string) (backend.TransactionType, error) {
	value, err := RequiredString(tx, field)
	if err != nil {
		return "", err
	}
	switch txType := backend.TransactionType(value); txType {
	case backend.TransactionTypeEscrowFinish, backend.TransactionTypeEscrowCancel:
		return txType, nil
	default:
		return "", apperrors.Localf("Unexpected payout transaction type: %s", value)
	}
}

// readInt reports ok=false when raw is not a number or a string. Strings must
// hold an integer.
func readInt(raw any, field string) (int64, bool, error) {
	switch value := raw.(type) {
	case json.Number:
		if parsed, err := value.Int64(); err == nil {
			return parsed, true, nil
		}
		parsed, err := value.Float64()
		if err != nil {
			return 0, false, nil
		}
		return integral(parsed)
	case float64:
		return integral(value)
	case int:
		return int64(value), true, nil
	case int64:
		return value, true, nil
	case string:
		parsed, err := ParseRequiredInteger(value, field)
		if err != nil {
			return 0, false, err
		}
		return parsed, true, nil
	default:
		return 0, false, nil
	}
}

func integral(value float64) (int64, bool, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) || value != math.Trunc(value) {
		return 0, false, nil
	}
	if value > math.MaxInt64 || value < math.MinInt64 {
		return 0, false, nil
	}
	return int64(value), true, nil
}
