package wire_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	ristretto "github.com/gtank/ristretto255"

	"github.com/avahowell/spake2p/group"
	"github.com/avahowell/spake2p/wire"
)

func randomPoint(t *testing.T) *ristretto.Element {
	t.Helper()
	s, err := group.RandomScalar()
	require.NoError(t, err)
	return ristretto.NewElement().ScalarBaseMult(s)
}

func TestSetupRequestRoundTrip(t *testing.T) {
	phi0, err := group.RandomScalar()
	require.NoError(t, err)
	c := randomPoint(t)

	req := wire.NewSetupRequest("alice", phi0, c)
	id, gotPhi0, gotC, err := req.Decode()
	require.NoError(t, err)

	require.Equal(t, "alice", id)
	require.EqualValues(t, 1, gotPhi0.Equal(phi0))
	require.EqualValues(t, 1, gotC.Equal(c))
}

func TestSetupRequestRejectsInvalidHex(t *testing.T) {
	req := wire.SetupRequest{ID: "alice", Phi0: "not-hex", C: strings.Repeat("00", 32)}
	_, _, _, err := req.Decode()
	require.Error(t, err)

	var decodeErr *wire.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	require.Equal(t, wire.KindInvalidHex, decodeErr.Kind)
}

func TestSetupRequestRejectsWrongLength(t *testing.T) {
	req := wire.SetupRequest{ID: "alice", Phi0: "aabb", C: strings.Repeat("00", 32)}
	_, _, _, err := req.Decode()
	require.Error(t, err)

	var decodeErr *wire.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	require.Equal(t, wire.KindInvalidLength, decodeErr.Kind)
}

func TestExchangeRequestRejectsIdentityPoint(t *testing.T) {
	identity := ristretto.NewElement()
	req := wire.NewExchangeRequest("alice", identity)
	_, _, err := req.Decode()
	require.Error(t, err)

	var decodeErr *wire.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	require.Equal(t, wire.KindInvalidPoint, decodeErr.Kind)
}

func TestExchangeResponseRoundTrip(t *testing.T) {
	v := randomPoint(t)
	resp := wire.NewExchangeResponse(v)
	decoded, err := resp.Decode()
	require.NoError(t, err)
	require.EqualValues(t, 1, decoded.Equal(v))
}

func TestVerifyRequestRoundTrip(t *testing.T) {
	var key [32]byte
	for i := range key {
		key[i] = byte(i)
	}
	req := wire.NewVerifyRequest("bob", key)
	idc, decodedKey, err := req.Decode()
	require.NoError(t, err)
	require.Equal(t, "bob", idc)
	require.Equal(t, key, decodedKey)
}

func TestVerifyRequestRejectsShortKey(t *testing.T) {
	req := wire.VerifyRequest{IDc: "bob", Key: "aabb"}
	_, _, err := req.Decode()
	require.Error(t, err)
}
