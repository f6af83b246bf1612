package httpapi

import (
	"net/http"

	"github.com/avahowell/spake2p/internal/audit"
	"github.com/avahowell/spake2p/internal/protoerr"
)

// statusFor is the single place that maps a protoerr.Kind to an HTTP
// status code. UnknownSession and KeyMismatch intentionally share a
// status so that neither endpoint leaks which one occurred.
func statusFor(kind protoerr.Kind) int {
	switch kind {
	case protoerr.KindDecode:
		return http.StatusBadRequest
	case protoerr.KindAlreadyRegistered:
		return http.StatusConflict
	case protoerr.KindUnknownSession, protoerr.KindKeyMismatch:
		return http.StatusUnauthorized
	case protoerr.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// bodyFor is the single place that maps a protoerr.Kind to a response
// body string. UnknownSession and KeyMismatch are collapsed onto one
// fixed body here, not just one status: §7 requires the two be
// externally indistinguishable, and kind.String() alone would still let
// an attacker enumerate registered IDc values from the body text.
func bodyFor(kind protoerr.Kind) string {
	if protoerr.IsUnauthorized(kind) {
		return "unauthorized"
	}
	return kind.String()
}

// outcomeFor maps a protoerr.Kind to the audit outcome recorded for it.
func outcomeFor(kind protoerr.Kind) audit.Outcome {
	switch kind {
	case protoerr.KindDecode:
		return audit.OutcomeDecodeError
	case protoerr.KindAlreadyRegistered:
		return audit.OutcomeAlreadyExists
	case protoerr.KindUnknownSession, protoerr.KindKeyMismatch:
		return audit.OutcomeUnauthorized
	default:
		return audit.OutcomeInternal
	}
}
