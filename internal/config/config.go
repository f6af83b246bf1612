// Package config loads the server's single recognized configuration
// surface: the server identifier IDs plus the transport/persistence/audit
// choices needed to run a real process. Command-line flags override
// whatever a config file sets.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultServerID is used when no configuration names a server id, as
	// permitted by the core specification.
	DefaultServerID = "id"
	// DefaultListenAddr is the default HTTP bind address.
	DefaultListenAddr = ":8443"
)

// PersistenceBackend names which VerifierStore implementation to use.
type PersistenceBackend string

const (
	BackendMemory PersistenceBackend = "memory"
	BackendSQLite PersistenceBackend = "sqlite"
)

// AuditSink names which audit.Logger implementation to use.
type AuditSink string

const (
	SinkSlog AuditSink = "slog"
	SinkCBOR AuditSink = "cbor"
)

// Persistence holds the persistence backend choice and its parameters.
type Persistence struct {
	Backend    PersistenceBackend `yaml:"backend"`
	SQLitePath string             `yaml:"sqlitePath"`
	// IntegrityKeyPath names a file holding the master key the SQLite
	// backend derives its row-integrity MAC key from. If empty, the
	// server generates one alongside the database on first run.
	IntegrityKeyPath string `yaml:"integrityKeyPath"`
}

// Audit holds the audit sink choice and its parameters.
type Audit struct {
	Sink     AuditSink `yaml:"sink"`
	CBORPath string    `yaml:"cborPath"`
}

// Config is the full, resolved server configuration.
type Config struct {
	ServerID    string      `yaml:"serverID"`
	ListenAddr  string      `yaml:"listenAddr"`
	Persistence Persistence `yaml:"persistence"`
	Audit       Audit       `yaml:"audit"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		ServerID:   DefaultServerID,
		ListenAddr: DefaultListenAddr,
		Persistence: Persistence{
			Backend: BackendMemory,
		},
		Audit: Audit{
			Sink: SinkSlog,
		},
	}
}

// Load reads and parses a YAML config file, filling in defaults for any
// field the file leaves zero-valued.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.ServerID == "" {
		cfg.ServerID = DefaultServerID
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.Persistence.Backend == "" {
		cfg.Persistence.Backend = BackendMemory
	}
	if cfg.Audit.Sink == "" {
		cfg.Audit.Sink = SinkSlog
	}

	return cfg, nil
}
