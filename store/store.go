// Package store implements the session store and the state machine that
// the four PAKE endpoints (Setup, Login, Verify, GetServerID) enforce on
// top of it. It holds the single piece of shared mutable state in the
// service: the IDc -> session map.
package store

import (
	"sync"

	ristretto "github.com/gtank/ristretto255"

	"github.com/avahowell/spake2p/group"
	"github.com/avahowell/spake2p/internal/persistence"
	"github.com/avahowell/spake2p/internal/protoerr"
	"github.com/avahowell/spake2p/pake"
)

// State is one of the three phases a client session moves through.
type State int

const (
	StateRegistered State = iota
	StateExchanged
	StateVerified
)

func (s State) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateExchanged:
		return "exchanged"
	case StateVerified:
		return "verified"
	default:
		return "unknown"
	}
}

// session is the server's in-memory view of one client. It owns its
// scalar and point values outright; the store never hands out a pointer
// to one that outlives the critical section that produced it.
type session struct {
	phi0       *ristretto.Scalar
	c          *ristretto.Element
	sessionKey *[32]byte
	state      State
}

// Store is the concurrent IDc -> session map. A single mutex guards the
// entire map; every endpoint performs its read-modify-write as one
// critical section and releases the lock before returning.
type Store struct {
	serverID string

	mu       sync.Mutex
	sessions map[string]*session

	backend persistence.VerifierStore
}

// New creates an empty Store that answers GetServerID with id and
// persists verifiers through backend. A nil backend falls back to an
// in-process memory store.
func New(id string, backend persistence.VerifierStore) *Store {
	if backend == nil {
		backend = persistence.NewMemoryStore()
	}
	return &Store{
		serverID: id,
		sessions: make(map[string]*session),
		backend:  backend,
	}
}

// GetServerID returns IDs verbatim. It is side-effect free and does not
// touch the guarded map.
func (s *Store) GetServerID() string {
	return s.serverID
}

// Setup registers a new verifier for idc. It is atomic: of any number of
// concurrent Setup calls for the same idc, exactly one succeeds and the
// rest fail with KindAlreadyRegistered.
func (s *Store) Setup(idc string, phi0 *ristretto.Scalar, c *ristretto.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[idc]; exists {
		return protoerr.New(protoerr.KindAlreadyRegistered, "client id is already registered")
	}

	inserted, err := s.backend.PutIfAbsent(idc, persistence.Verifier{Phi0: phi0, C: c})
	if err != nil {
		return protoerr.New(protoerr.KindInternal, "persistence write failed")
	}
	if !inserted {
		return protoerr.New(protoerr.KindAlreadyRegistered, "client id is already registered")
	}

	s.sessions[idc] = &session{phi0: phi0, c: c, state: StateRegistered}
	return nil
}

// sessionLocked returns the in-memory session for idc, rehydrating it from
// the persistence backend on a map miss. This is what lets a client
// registered before a process restart keep logging in afterward: the
// in-memory map is just a cache over the backend's verifiers, not their
// sole source of truth. Callers must hold s.mu. A nil, nil return means no
// record exists anywhere.
func (s *Store) sessionLocked(idc string) (*session, error) {
	if sess, exists := s.sessions[idc]; exists {
		return sess, nil
	}

	v, ok, err := s.backend.Get(idc)
	if err != nil {
		return nil, protoerr.New(protoerr.KindInternal, "persistence read failed")
	}
	if !ok {
		return nil, nil
	}

	sess := &session{phi0: v.Phi0, c: v.C, state: StateRegistered}
	s.sessions[idc] = sess
	return sess, nil
}

// Login runs the server side of one SPAKE2+ exchange for idc and returns
// the point V to send back to the client. It computes server_commit and
// server_key inside the guarded section so that a concurrent Verify can
// never observe a half-updated session.
func (s *Store) Login(idc string, u *ristretto.Element) (v *ristretto.Element, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionLocked(idc)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, protoerr.New(protoerr.KindUnknownSession, "no session for client id")
	}

	commit, err := pake.ServerCommit(sess.phi0)
	if err != nil {
		return nil, protoerr.New(protoerr.KindInternal, "failed to draw ephemeral scalar")
	}

	key := pake.ServerKey(idc, s.serverID, sess.phi0, sess.c, commit.Blind, u, commit.Point)

	if err := s.backend.UpdateSessionKey(idc, key); err != nil {
		return nil, protoerr.New(protoerr.KindInternal, "persistence write failed")
	}

	sess.sessionKey = &key
	sess.state = StateExchanged

	return commit.Point, nil
}

// Verify checks a client-supplied key against the key stored by the most
// recent Login for idc. A missing session and a mismatched key are
// reported identically (protoerr.KindUnknownSession and
// protoerr.KindKeyMismatch are collapsed to the same HTTP response by the
// transport layer) so that neither can be used to enumerate registered
// IDc values.
func (s *Store) Verify(idc string, key [32]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionLocked(idc)
	if err != nil {
		return err
	}
	if sess == nil || sess.sessionKey == nil {
		// Run the same constant-time comparison a key mismatch runs, so
		// this path does comparable work before responding.
		var placeholder [32]byte
		group.ConstantTimeEqual(placeholder, key)
		return protoerr.New(protoerr.KindUnknownSession, "no exchanged session for client id")
	}

	if !group.ConstantTimeEqual(*sess.sessionKey, key) {
		return protoerr.New(protoerr.KindKeyMismatch, "verification key does not match")
	}

	sess.state = StateVerified
	return nil
}
