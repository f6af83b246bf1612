// Package httpapi implements the four HTTP endpoints of the PAKE service
// (/id, /setup, /login, /verify) on top of net/http.ServeMux, matching the
// route table and per-route structured-logging-then-status-mapping
// pattern of the service's design.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/avahowell/spake2p/internal/audit"
	"github.com/avahowell/spake2p/internal/protoerr"
	"github.com/avahowell/spake2p/internal/ratelimit"
	"github.com/avahowell/spake2p/store"
	"github.com/avahowell/spake2p/wire"
)

// Server wires the session store, rate limiter and audit sink together
// behind the HTTP contract.
type Server struct {
	store   *store.Store
	limiter *ratelimit.Limiter
	audit   audit.Logger
	mux     *http.ServeMux
}

// New creates a Server. A nil limiter disables rate limiting; a nil
// logger discards audit events.
func New(st *store.Store, limiter *ratelimit.Limiter, logger audit.Logger) *Server {
	if logger == nil {
		logger = audit.NopLogger{}
	}
	s := &Server{store: st, limiter: limiter, audit: logger}
	s.mux = http.NewServeMux()
	s.registerRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/id", s.handleID)
	s.mux.HandleFunc("/setup", s.handleSetup)
	s.mux.HandleFunc("/login", s.handleLogin)
	s.mux.HandleFunc("/verify", s.handleVerify)
}

func (s *Server) handleID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.store.GetServerID()))
}

// allowed consults the rate limiter for key, recording a refusal as its
// own audit outcome when it trips. It returns false if the request must
// stop here.
func (s *Server) allowed(endpoint, key string) bool {
	if s.limiter == nil {
		return true
	}
	if s.limiter.Allow(key) {
		return true
	}
	e := audit.NewEvent(endpoint, key)
	e.Timestamp = time.Now()
	e.Outcome = audit.OutcomeRateLimited
	s.audit.Log(e)
	return false
}

func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	var req wire.SetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed json", http.StatusBadRequest)
		return
	}

	if !s.allowed("/setup", req.ID) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
		return
	}

	idc, phi0, c, err := req.Decode()
	if err != nil {
		s.respondError(w, "/setup", req.ID, start, protoerr.New(protoerr.KindDecode, err.Error()))
		return
	}

	if err := s.store.Setup(idc, phi0, c); err != nil {
		s.respondError(w, "/setup", idc, start, err)
		return
	}

	s.respondSuccess("/setup", idc, start)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	var req wire.ExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed json", http.StatusBadRequest)
		return
	}

	if !s.allowed("/login", req.ID) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
		return
	}

	idc, u, err := req.Decode()
	if err != nil {
		s.respondError(w, "/login", req.ID, start, protoerr.New(protoerr.KindDecode, err.Error()))
		return
	}

	v, err := s.store.Login(idc, u)
	if err != nil {
		s.respondError(w, "/login", idc, start, err)
		return
	}

	s.respondSuccess("/login", idc, start)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(wire.NewExchangeResponse(v))
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	var req wire.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed json", http.StatusBadRequest)
		return
	}

	if !s.allowed("/verify", req.IDc) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
		return
	}

	idc, key, err := req.Decode()
	if err != nil {
		s.respondError(w, "/verify", req.IDc, start, protoerr.New(protoerr.KindDecode, err.Error()))
		return
	}

	if err := s.store.Verify(idc, key); err != nil {
		s.respondError(w, "/verify", idc, start, err)
		return
	}

	s.respondSuccess("/verify", idc, start)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) respondSuccess(endpoint, idc string, start time.Time) {
	e := audit.NewEvent(endpoint, idc)
	e.Timestamp = time.Now()
	e.Outcome = audit.OutcomeSuccess
	e.Latency = time.Since(start)
	s.audit.Log(e)
}

func (s *Server) respondError(w http.ResponseWriter, endpoint, idc string, start time.Time, err error) {
	var pe *protoerr.Error
	kind := protoerr.KindInternal
	if errors.As(err, &pe) {
		kind = pe.Kind
	}

	e := audit.NewEvent(endpoint, idc)
	e.Timestamp = time.Now()
	e.Outcome = outcomeFor(kind)
	e.Latency = time.Since(start)
	s.audit.Log(e)

	http.Error(w, bodyFor(kind), statusFor(kind))
}
