// Package audit implements the structured event logging that the rate
// limiter / audit external collaborator of the core specification
// observes through: one Event per /setup, /login or /verify request whose
// JSON body parses, emitted only after the store operation completes (or
// the rate limiter refuses the request), never carrying secret material.
// GET /id and requests rejected before JSON parsing emit no Event.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Outcome classifies how an endpoint invocation ended.
type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomeDecodeError   Outcome = "decode_error"
	OutcomeAlreadyExists Outcome = "already_registered"
	OutcomeUnauthorized  Outcome = "unauthorized"
	OutcomeInternal      Outcome = "internal"
	OutcomeRateLimited   Outcome = "rate_limited"
)

// Event is one audit record. It deliberately has no field capable of
// holding phi0, phi1, alpha, beta, a session key, or a password.
type Event struct {
	ID        string
	Timestamp time.Time
	Endpoint  string
	IDc       string
	Outcome   Outcome
	Latency   time.Duration
}

// Logger is implemented by every audit sink.
type Logger interface {
	Log(Event)
}

// NewEvent stamps a fresh correlation id onto a new Event. Timestamp and
// Latency are filled in by the caller once the endpoint has finished.
func NewEvent(endpoint, idc string) Event {
	return Event{
		ID:       uuid.NewString(),
		Endpoint: endpoint,
		IDc:      idc,
	}
}

// NopLogger discards every event; used when no sink is configured.
type NopLogger struct{}

func (NopLogger) Log(Event) {}
