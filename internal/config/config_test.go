package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avahowell/spake2p/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	require.Equal(t, config.DefaultServerID, cfg.ServerID)
	require.Equal(t, config.DefaultListenAddr, cfg.ListenAddr)
	require.Equal(t, config.BackendMemory, cfg.Persistence.Backend)
	require.Equal(t, config.SinkSlog, cfg.Audit.Sink)
}

func TestLoadFillsMissingFields(t *testing.T) {
	path := writeConfig(t, "serverID: \"myserver\"\n")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "myserver", cfg.ServerID)
	require.Equal(t, config.DefaultListenAddr, cfg.ListenAddr)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
serverID: "id"
listenAddr: ":9000"
persistence:
  backend: sqlite
  sqlitePath: "verifiers.db"
  integrityKeyPath: "verifiers.key"
audit:
  sink: cbor
  cborPath: "audit.cbor"
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.ListenAddr)
	require.Equal(t, config.BackendSQLite, cfg.Persistence.Backend)
	require.Equal(t, "verifiers.db", cfg.Persistence.SQLitePath)
	require.Equal(t, "verifiers.key", cfg.Persistence.IntegrityKeyPath)
	require.Equal(t, config.SinkCBOR, cfg.Audit.Sink)
	require.Equal(t, "audit.cbor", cfg.Audit.CBORPath)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
