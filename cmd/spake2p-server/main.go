// Command spake2p-server runs the SPAKE2+ PAKE HTTP service: the four
// endpoints of the protocol (/id, /setup, /login, /verify) backed by an
// in-memory or SQLite verifier store, with structured audit logging and
// per-client rate limiting.
//
// Usage:
//
//	spake2p-server [flags]
//
// Flags:
//
//	-config string     Path to a YAML config file
//	-listen string     HTTP listen address (overrides config)
//	-server-id string  Server identifier IDs (overrides config)
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avahowell/spake2p/internal/audit"
	"github.com/avahowell/spake2p/internal/config"
	"github.com/avahowell/spake2p/internal/httpapi"
	"github.com/avahowell/spake2p/internal/persistence"
	"github.com/avahowell/spake2p/internal/ratelimit"
	"github.com/avahowell/spake2p/store"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file")
	listenAddr := flag.String("listen", "", "HTTP listen address (overrides config)")
	serverID := flag.String("server-id", "", "server identifier IDs (overrides config)")
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
		cfg = loaded
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *serverID != "" {
		cfg.ServerID = *serverID
	}

	backend, err := buildPersistence(cfg.Persistence)
	if err != nil {
		log.Fatalf("initializing persistence: %v", err)
	}

	auditLogger, closeAudit, err := buildAudit(cfg.Audit)
	if err != nil {
		log.Fatalf("initializing audit sink: %v", err)
	}
	defer closeAudit()

	st := store.New(cfg.ServerID, backend)
	limiter := ratelimit.New(5, 20)
	handler := httpapi.New(st, limiter, auditLogger)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		log.Printf("spake2p-server listening on %s (server id %q)", cfg.ListenAddr, cfg.ServerID)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Printf("received signal: %v, shutting down", sig)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

func buildPersistence(cfg config.Persistence) (persistence.VerifierStore, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = "verifiers.db"
		}
		keyPath := cfg.IntegrityKeyPath
		if keyPath == "" {
			keyPath = path + ".key"
		}
		masterKey, err := loadOrCreateMasterKey(keyPath)
		if err != nil {
			return nil, err
		}
		return persistence.OpenSQLiteStore(path, masterKey)
	case config.BackendMemory, "":
		return persistence.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown persistence backend %q", cfg.Backend)
	}
}

// loadOrCreateMasterKey reads the 32-byte master key used to derive the
// SQLite row-integrity MAC from path, generating and persisting a fresh
// one on first run so restarts keep verifying rows written earlier.
func loadOrCreateMasterKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil {
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading integrity key: %w", err)
	}

	key = make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating integrity key: %w", err)
	}
	if err := os.WriteFile(path, key, 0o600); err != nil {
		return nil, fmt.Errorf("writing integrity key: %w", err)
	}
	return key, nil
}

func buildAudit(cfg config.Audit) (audit.Logger, func(), error) {
	switch cfg.Sink {
	case config.SinkCBOR:
		path := cfg.CBORPath
		if path == "" {
			path = "audit.cbor"
		}
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, func() {}, fmt.Errorf("opening audit file: %w", err)
		}
		return audit.NewCBORLogger(f), func() { f.Close() }, nil
	case config.SinkSlog, "":
		return audit.NewSlogLogger(slog.Default()), func() {}, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown audit sink %q", cfg.Sink)
	}
}
