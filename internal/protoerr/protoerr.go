// Package protoerr defines the error taxonomy the PAKE core reports to its
// callers. The HTTP layer is the single place that maps a Kind to a status
// code, so that mapping cannot drift between endpoints.
package protoerr

import "fmt"

// Kind enumerates the failure categories the core can report.
type Kind int

const (
	// KindDecode covers malformed hex, wrong lengths, and non-canonical or
	// identity group points.
	KindDecode Kind = iota
	// KindAlreadyRegistered means Setup collided with an existing IDc.
	KindAlreadyRegistered
	// KindUnknownSession means Login or Verify arrived for an IDc with no
	// record.
	KindUnknownSession
	// KindKeyMismatch means Verify received a key differing from the one
	// stored by the preceding Login.
	KindKeyMismatch
	// KindInternal covers guard poisoning, RNG failure, or other invariant
	// breaches. It carries no secret material.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "decode_error"
	case KindAlreadyRegistered:
		return "already_registered"
	case KindUnknownSession:
		return "unknown_session"
	case KindKeyMismatch:
		return "key_mismatch"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error wraps a Kind with a redacted message; it never carries phi0, phi1,
// alpha, beta, a session key, or a password.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.msg) }

// New constructs an Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

// IsUnauthorized reports whether kind is one of the two kinds that the
// HTTP layer MUST map to an identical status and body: KindUnknownSession
// and KindKeyMismatch are internally distinct (useful for audit logs) but
// externally indistinguishable, so a caller cannot enumerate registered
// IDc values by observing the difference.
func IsUnauthorized(kind Kind) bool {
	return kind == KindUnknownSession || kind == KindKeyMismatch
}
