package audit_test

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"

	"github.com/avahowell/spake2p/internal/audit"
)

func TestNewEventStampsCorrelationID(t *testing.T) {
	e1 := audit.NewEvent("/login", "alice")
	e2 := audit.NewEvent("/login", "alice")
	require.NotEmpty(t, e1.ID)
	require.NotEqual(t, e1.ID, e2.ID)
}

func TestSlogLoggerDoesNotPanic(t *testing.T) {
	logger := audit.NewSlogLogger(slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil)))
	e := audit.NewEvent("/verify", "alice")
	e.Outcome = audit.OutcomeUnauthorized
	e.Timestamp = time.Now()
	require.NotPanics(t, func() { logger.Log(e) })
}

func TestCBORLoggerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := audit.NewCBORLogger(&buf)

	e := audit.NewEvent("/setup", "alice")
	e.Outcome = audit.OutcomeSuccess
	e.Timestamp = time.Now().UTC()
	e.Latency = 5 * time.Millisecond

	logger.Log(e)
	require.NotZero(t, buf.Len())

	var decoded audit.Event
	require.NoError(t, cbor.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, e.ID, decoded.ID)
	require.Equal(t, e.Endpoint, decoded.Endpoint)
	require.Equal(t, e.IDc, decoded.IDc)
	require.Equal(t, e.Outcome, decoded.Outcome)
}
