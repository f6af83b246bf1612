package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avahowell/spake2p/pake"
	"github.com/avahowell/spake2p/wire"
)

// apiClient talks to a running spake2p-server over plain net/http, mirroring
// the four-call flow (get id, setup, login, verify) of the reference client.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{baseURL: baseURL, http: &http.Client{Timeout: 10 * time.Second}}
}

func (c *apiClient) getServerID() (string, error) {
	resp, err := c.http.Get(c.baseURL + "/id")
	if err != nil {
		return "", fmt.Errorf("requesting server id: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading server id: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server returned %s", resp.Status)
	}
	return string(body), nil
}

func (c *apiClient) postJSON(path string, req any) (*http.Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(req); err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	resp, err := c.http.Post(c.baseURL+path, "application/json", &buf)
	if err != nil {
		return nil, fmt.Errorf("posting %s: %w", path, err)
	}
	return resp, nil
}

// performSetup derives the client's registration secrets from password and
// registers the verifier with the server under idc.
func (c *apiClient) performSetup(idc, serverID, password string) error {
	secrets := pake.DeriveSecrets(password, idc, serverID)
	verifier := pake.MakeVerifier(secrets.Phi1)

	resp, err := c.postJSON("/setup", wire.NewSetupRequest(idc, secrets.Phi0, verifier))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}

// performLogin runs the one-round key exchange and returns the session key
// the client believes it shares with the server.
func (c *apiClient) performLogin(idc, serverID, password string) ([32]byte, error) {
	var key [32]byte

	secrets := pake.DeriveSecrets(password, idc, serverID)
	commit, err := pake.ClientCommit(secrets.Phi0)
	if err != nil {
		return key, fmt.Errorf("computing client commitment: %w", err)
	}

	resp, err := c.postJSON("/login", wire.NewExchangeRequest(idc, commit.Point))
	if err != nil {
		return key, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return key, fmt.Errorf("server returned %s", resp.Status)
	}

	var loginResp wire.ExchangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return key, fmt.Errorf("decoding login response: %w", err)
	}
	v, err := loginResp.Decode()
	if err != nil {
		return key, fmt.Errorf("decoding server commitment: %w", err)
	}

	key = pake.ClientKey(idc, serverID, secrets.Phi0, secrets.Phi1, commit.Blind, commit.Point, v)
	return key, nil
}

// performVerify asks the server to confirm the session key computed by a
// prior performLogin call.
func (c *apiClient) performVerify(idc string, key [32]byte) (bool, error) {
	resp, err := c.postJSON("/verify", wire.NewVerifyRequest(idc, key))
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}
