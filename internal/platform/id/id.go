// Package id generates identifiers for outbound console requests.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// randomPartLength is the number of id characters kept in an idempotency key.
const randomPartLength = 8

// NewID returns a 26-character lowercase base32 encoding of a UUIDv4.
func NewID() (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(value[:])), nil
}

// IdempotencyKey returns "<prefix>-<unix millis>-<random>".
//
// Each call mints a new key; a retried confirm is a new attempt and must not
// reuse an earlier key.
func IdempotencyKey(prefix string, now time.Time) (string, error) {
	random, err := NewID()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%s", prefix, now.UnixMilli(), random[:randomPartLength]), nil
}
