// Package persistence defines the verifier-storage interface the session
// store runs on top of, plus an in-memory reference implementation. A real
// deployment substitutes a database behind the same three operations; see
// SQLiteStore for one such substitution.
package persistence

import (
	"sync"

	ristretto "github.com/gtank/ristretto255"
)

// Verifier is the server-stored tuple sufficient to run the protocol for
// one client, but insufficient to recover their password without a
// dictionary attack against the group.
type Verifier struct {
	Phi0 *ristretto.Scalar
	C    *ristretto.Element
}

// VerifierStore is the three-operation interface a persistent backend
// must expose. Implementations MUST provide linearizable semantics per
// key: PutIfAbsent either creates the record or reports that one already
// exists, atomically.
type VerifierStore interface {
	// PutIfAbsent inserts v for idc if no record exists yet, returning
	// true if the insert happened and false if idc was already present.
	PutIfAbsent(idc string, v Verifier) (inserted bool, err error)
	// Get returns the stored verifier for idc, or ok == false if absent.
	Get(idc string) (v Verifier, ok bool, err error)
	// UpdateSessionKey stores the most recent session key derived for
	// idc, overwriting any previous value.
	UpdateSessionKey(idc string, key [32]byte) error
}

// MemoryStore is the reference, mutex-guarded in-process implementation.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*record
}

type record struct {
	verifier   Verifier
	sessionKey *[32]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*record)}
}

func (m *MemoryStore) PutIfAbsent(idc string, v Verifier) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[idc]; exists {
		return false, nil
	}
	m.records[idc] = &record{verifier: v}
	return true, nil
}

func (m *MemoryStore) Get(idc string) (Verifier, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, exists := m.records[idc]
	if !exists {
		return Verifier{}, false, nil
	}
	return r.verifier, true, nil
}

func (m *MemoryStore) UpdateSessionKey(idc string, key [32]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, exists := m.records[idc]
	if !exists {
		return errSessionKeyUpdateMissingRecord
	}
	keyCopy := key
	r.sessionKey = &keyCopy
	return nil
}
