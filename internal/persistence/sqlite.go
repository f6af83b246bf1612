package persistence

import (
	"crypto/sha512"
	"crypto/subtle"
	"database/sql"
	"fmt"
	"io"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/hkdf"

	"github.com/avahowell/spake2p/group"
)

var hkdfInfo = []byte("spake2p sqlite row integrity v1")

// deriveRowMACKey stretches an operator-supplied master key into the
// fixed-size key used to authenticate stored rows, the same
// HKDF-then-keyed-hash shape the teacher uses to split one input secret
// into multiple purpose-bound keys.
func deriveRowMACKey(masterKey []byte) ([]byte, error) {
	kdf := hkdf.New(sha512.New, masterKey, nil, hkdfInfo)
	key := make([]byte, 32)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("persistence: deriving row mac key: %w", err)
	}
	return key, nil
}

func rowMAC(macKey []byte, idc string, phi0, c []byte) ([]byte, error) {
	h, err := blake2b.New256(macKey)
	if err != nil {
		return nil, fmt.Errorf("persistence: initializing row mac: %w", err)
	}
	h.Write([]byte(idc))
	h.Write(phi0)
	h.Write(c)
	return h.Sum(nil), nil
}

// SQLiteStore persists verifiers in a SQLite database, satisfying the
// "a real deployment substitutes a database behind the same interface"
// note in the persistence contract. phi0 and C are stored in their
// canonical 32-byte encodings; the session key is stored only once a
// Login has produced one. Every row carries a keyed MAC over its
// identity and verifier material so that a row edited outside this
// package (or a bit flip at rest) is detected on read rather than fed
// silently into the protocol.
type SQLiteStore struct {
	db     *sql.DB
	macKey []byte
}

// OpenSQLiteStore opens (creating if necessary) a SQLite database at path
// and ensures the verifiers table exists. masterKey seeds the per-row
// integrity MAC via HKDF; callers should supply a stable secret (for
// example one loaded from a key file) so that rows written before a
// restart still verify afterward.
func OpenSQLiteStore(path string, masterKey []byte) (*SQLiteStore, error) {
	if len(masterKey) == 0 {
		return nil, fmt.Errorf("persistence: open sqlite: master key must not be empty")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("persistence: open sqlite: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS verifiers (
	idc         TEXT PRIMARY KEY,
	phi0        BLOB NOT NULL,
	c           BLOB NOT NULL,
	mac         BLOB NOT NULL,
	session_key BLOB
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("persistence: create schema: %w", err)
	}

	macKey, err := deriveRowMACKey(masterKey)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, macKey: macKey}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) PutIfAbsent(idc string, v Verifier) (bool, error) {
	phi0Bytes := group.EncodeScalar(v.Phi0)
	cBytes := group.EncodePoint(v.C)
	mac, err := rowMAC(s.macKey, idc, phi0Bytes[:], cBytes[:])
	if err != nil {
		return false, err
	}

	res, err := s.db.Exec(
		`INSERT OR IGNORE INTO verifiers (idc, phi0, c, mac) VALUES (?, ?, ?, ?)`,
		idc, phi0Bytes[:], cBytes[:], mac,
	)
	if err != nil {
		return false, fmt.Errorf("persistence: insert verifier: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("persistence: rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *SQLiteStore) Get(idc string) (Verifier, bool, error) {
	var phi0Bytes, cBytes, storedMAC []byte
	err := s.db.QueryRow(`SELECT phi0, c, mac FROM verifiers WHERE idc = ?`, idc).Scan(&phi0Bytes, &cBytes, &storedMAC)
	if err == sql.ErrNoRows {
		return Verifier{}, false, nil
	}
	if err != nil {
		return Verifier{}, false, fmt.Errorf("persistence: query verifier: %w", err)
	}

	wantMAC, err := rowMAC(s.macKey, idc, phi0Bytes, cBytes)
	if err != nil {
		return Verifier{}, false, err
	}
	if subtle.ConstantTimeCompare(wantMAC, storedMAC) != 1 {
		return Verifier{}, false, fmt.Errorf("persistence: row for %q failed integrity check", idc)
	}

	phi0, err := group.DecodeScalarReducing(phi0Bytes)
	if err != nil {
		return Verifier{}, false, fmt.Errorf("persistence: decode stored phi0: %w", err)
	}
	c, err := group.DecodePoint(cBytes)
	if err != nil {
		return Verifier{}, false, fmt.Errorf("persistence: decode stored c: %w", err)
	}

	return Verifier{Phi0: phi0, C: c}, true, nil
}

func (s *SQLiteStore) UpdateSessionKey(idc string, key [32]byte) error {
	res, err := s.db.Exec(`UPDATE verifiers SET session_key = ? WHERE idc = ?`, key[:], idc)
	if err != nil {
		return fmt.Errorf("persistence: update session key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("persistence: rows affected: %w", err)
	}
	if n == 0 {
		return errSessionKeyUpdateMissingRecord
	}
	return nil
}

var _ VerifierStore = (*SQLiteStore)(nil)
