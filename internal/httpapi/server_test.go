package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avahowell/spake2p/internal/httpapi"
	"github.com/avahowell/spake2p/internal/persistence"
	"github.com/avahowell/spake2p/pake"
	"github.com/avahowell/spake2p/store"
	"github.com/avahowell/spake2p/wire"
)

const testServerID = "id"

func newTestServer() *httpapi.Server {
	st := store.New(testServerID, persistence.NewMemoryStore())
	return httpapi.New(st, nil, nil)
}

func doJSON(t *testing.T, srv *httpapi.Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHandleID(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, testServerID, rec.Body.String())
}

func TestFullExchangeFlow(t *testing.T) {
	srv := newTestServer()
	secrets := pake.DeriveSecrets("ilovebob123", "Alice", testServerID)
	c := pake.MakeVerifier(secrets.Phi1)

	setupReq := wire.NewSetupRequest("Alice", secrets.Phi0, c)
	rec := doJSON(t, srv, http.MethodPost, "/setup", setupReq)
	require.Equal(t, http.StatusOK, rec.Code)

	commit, err := pake.ClientCommit(secrets.Phi0)
	require.NoError(t, err)
	loginReq := wire.NewExchangeRequest("Alice", commit.Point)
	rec = doJSON(t, srv, http.MethodPost, "/login", loginReq)
	require.Equal(t, http.StatusOK, rec.Code)

	var loginResp wire.ExchangeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loginResp))
	v, err := loginResp.Decode()
	require.NoError(t, err)

	clientKey := pake.ClientKey("Alice", testServerID, secrets.Phi0, secrets.Phi1, commit.Blind, commit.Point, v)
	verifyReq := wire.NewVerifyRequest("Alice", clientKey)
	rec = doJSON(t, srv, http.MethodPost, "/verify", verifyReq)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestVerifyWithTamperedKeyFails(t *testing.T) {
	srv := newTestServer()
	secrets := pake.DeriveSecrets("ilovebob123", "Alice", testServerID)
	c := pake.MakeVerifier(secrets.Phi1)

	rec := doJSON(t, srv, http.MethodPost, "/setup", wire.NewSetupRequest("Alice", secrets.Phi0, c))
	require.Equal(t, http.StatusOK, rec.Code)

	commit, err := pake.ClientCommit(secrets.Phi0)
	require.NoError(t, err)
	rec = doJSON(t, srv, http.MethodPost, "/login", wire.NewExchangeRequest("Alice", commit.Point))
	require.Equal(t, http.StatusOK, rec.Code)

	var loginResp wire.ExchangeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loginResp))
	v, err := loginResp.Decode()
	require.NoError(t, err)

	clientKey := pake.ClientKey("Alice", testServerID, secrets.Phi0, secrets.Phi1, commit.Blind, commit.Point, v)
	clientKey[0] ^= 0xFF

	rec = doJSON(t, srv, http.MethodPost, "/verify", wire.NewVerifyRequest("Alice", clientKey))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginUnknownClientIsUnauthorized(t *testing.T) {
	srv := newTestServer()
	secrets := pake.DeriveSecrets("pw", "Ghost", testServerID)
	commit, err := pake.ClientCommit(secrets.Phi0)
	require.NoError(t, err)

	rec := doJSON(t, srv, http.MethodPost, "/login", wire.NewExchangeRequest("Ghost", commit.Point))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownSessionAndKeyMismatchShareResponseBody(t *testing.T) {
	srv := newTestServer()
	secrets := pake.DeriveSecrets("ilovebob123", "Alice", testServerID)
	c := pake.MakeVerifier(secrets.Phi1)
	require.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodPost, "/setup", wire.NewSetupRequest("Alice", secrets.Phi0, c)).Code)

	commit, err := pake.ClientCommit(secrets.Phi0)
	require.NoError(t, err)
	rec := doJSON(t, srv, http.MethodPost, "/login", wire.NewExchangeRequest("Alice", commit.Point))
	require.Equal(t, http.StatusOK, rec.Code)

	var loginResp wire.ExchangeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loginResp))
	v, err := loginResp.Decode()
	require.NoError(t, err)

	clientKey := pake.ClientKey("Alice", testServerID, secrets.Phi0, secrets.Phi1, commit.Blind, commit.Point, v)
	clientKey[0] ^= 0xFF
	mismatchRec := doJSON(t, srv, http.MethodPost, "/verify", wire.NewVerifyRequest("Alice", clientKey))
	require.Equal(t, http.StatusUnauthorized, mismatchRec.Code)

	var zeroKey [32]byte
	unknownRec := doJSON(t, srv, http.MethodPost, "/verify", wire.NewVerifyRequest("Ghost", zeroKey))
	require.Equal(t, http.StatusUnauthorized, unknownRec.Code)

	require.Equal(t, mismatchRec.Body.String(), unknownRec.Body.String(), "KeyMismatch and UnknownSession must be indistinguishable to the caller")
}

func TestSetupConflictOnDuplicate(t *testing.T) {
	srv := newTestServer()
	secrets := pake.DeriveSecrets("pw", "Alice", testServerID)
	c := pake.MakeVerifier(secrets.Phi1)

	rec := doJSON(t, srv, http.MethodPost, "/setup", wire.NewSetupRequest("Alice", secrets.Phi0, c))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/setup", wire.NewSetupRequest("Alice", secrets.Phi0, c))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestSetupMalformedJSONIsBadRequest(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/setup", bytes.NewBufferString("not json"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
