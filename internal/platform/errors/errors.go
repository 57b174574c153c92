// Package errors defines the console failure taxonomy.
//
// Every failure surfaced to the operator is one of three kinds: a local
// precondition that stopped an action before any network call, a backend
// response that was not successful, or a credential token that could not be
// decoded. Format renders any error into the single line shown in the action
// log.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind classifies console failures.
type Kind string

const (
	KindUnknown Kind = "unknown"
	KindLocal   Kind = "local"
	KindRemote  Kind = "remote"
	KindDecode  Kind = "decode"
)

// Error is a typed console failure.
type Error struct {
	Kind Kind
	// Status is the backend HTTP status for KindRemote.
	Status  int
	Message string
}

// Error renders the human-readable message.
func (e Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Local builds a precondition failure raised before any backend call.
func Local(message string) error {
	return Error{Kind: KindLocal, Message: message}
}

// Localf builds a formatted precondition failure.
func Localf(format string, args ...any) error {
	return Error{Kind: KindLocal, Message: fmt.Sprintf(format, args...)}
}

// Remote builds a backend failure. An empty detail falls back to the generic
// status text.
func Remote(status int, detail string) error {
	if strings.TrimSpace(detail) == "" {
		detail = fmt.Sprintf("Request failed with status %d", status)
	}
	return Error{Kind: KindRemote, Status: status, Message: detail}
}

// Decode builds a credential decoding failure.
func Decode(message string) error {
	return Error{Kind: KindDecode, Message: message}
}

// KindOf returns the failure kind, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var appErr Error
	if !stderrors.As(err, &appErr) {
		return KindUnknown
	}
	return appErr.Kind
}

// IsLocal reports whether err was raised without contacting the backend.
func IsLocal(err error) bool {
	switch KindOf(err) {
	case KindLocal, KindDecode:
		return true
	default:
		return false
	}
}

// Status returns the backend status carried by a remote failure, or 0.
func Status(err error) int {
	var appErr Error
	if !stderrors.As(err, &appErr) || appErr.Kind != KindRemote {
		return 0
	}
	return appErr.Status
}

// Format renders err as the operator-facing message.
func Format(err error) string {
	if err == nil {
		return ""
	}
	var appErr Error
	if stderrors.As(err, &appErr) {
		if appErr.Kind == KindRemote {
			return fmt.Sprintf("[%d] %s", appErr.Status, appErr.Error())
		}
		return appErr.Error()
	}
	if message := err.Error(); message != "" {
		return message
	}
	return "Unexpected error"
}
