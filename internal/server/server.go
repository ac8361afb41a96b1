package server

import (
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/searchtrail/searchtrail/internal/config"
	"github.com/searchtrail/searchtrail/internal/dedup"
	"github.com/searchtrail/searchtrail/internal/logbook"
	"github.com/searchtrail/searchtrail/internal/vault"
)

// Server owns the running ingestion service: the dedup window, the
// current writer/endpoint chain, and the listener binding. Settings are
// applied as a whole; each Apply rebuilds the chain from the new values
// and rebinds the listener only when the port actually changed.
type Server struct {
	logger *slog.Logger
	window *dedup.Window

	// handler is the current middleware chain. The binder serves the
	// Server itself, so swapping this pointer retargets live traffic
	// without touching the socket.
	handler atomic.Pointer[http.Handler]

	mu       sync.Mutex
	settings config.Settings
	binder   *Binder
}

// New creates a stopped Server. The dedup window is created here, once,
// and survives every settings change for the life of the process.
func New(logger *slog.Logger) *Server {
	return &Server{
		logger: logger,
		window: dedup.New(dedup.DefaultCapacity),
	}
}

// Validate checks st against the live filesystem: the vault directory
// must exist and the normalized note path must be committable. Returns
// the opened store so callers can reuse it.
func Validate(st config.Settings) (*vault.Dir, error) {
	if err := st.Validate(); err != nil {
		return nil, err
	}
	store, err := vault.NewDir(st.VaultDir)
	if err != nil {
		return nil, err
	}
	if err := config.ValidateNotePath(store, st.NotePath()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Server) buildChain(st config.Settings, store vault.Store) http.Handler {
	writer := logbook.New(store, st.NotePath(), st.Prepend, st.TimeFormat, s.logger)
	var h http.Handler = NewEndpoint(s.window, writer, s.logger)
	if st.AccessLog {
		h = AccessLog(s.logger, h)
	}
	return h
}

// ServeHTTP delegates to the current chain.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	(*s.handler.Load()).ServeHTTP(w, r)
}

// Start validates st, builds the handler chain, and binds the listener.
func (s *Server) Start(st config.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, err := Validate(st)
	if err != nil {
		return err
	}
	h := s.buildChain(st, store)
	s.handler.Store(&h)

	s.binder = NewBinder(st.Host, s, s.logger)
	if err := s.binder.Start(st.Port); err != nil {
		return err
	}
	s.settings = st
	return nil
}

// Apply moves the running service to st. Writer-affecting changes take
// effect immediately via a chain swap; a port change triggers a rebind
// with rollback. When the rebind fails the new writer settings stay in
// force on the old port, and the bind error is returned for the caller
// to report. A changed host only takes effect on restart.
func (s *Server) Apply(st config.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, err := Validate(st)
	if err != nil {
		return err
	}

	if st.Host != s.settings.Host {
		s.logger.Warn("host change takes effect on restart",
			"current", s.settings.Host, "requested", st.Host)
		st.Host = s.settings.Host
	}

	h := s.buildChain(st, store)
	s.handler.Store(&h)

	oldPort := s.settings.Port
	if st.Port != oldPort {
		if err := s.binder.Rebind(st.Port); err != nil {
			st.Port = oldPort
			s.settings = st
			return err
		}
	}
	s.settings = st
	return nil
}

// Settings returns the settings currently in force.
func (s *Server) Settings() config.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Port returns the port the listener is bound to, 0 when stopped.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.binder == nil {
		return 0
	}
	return s.binder.Port()
}

// Stop releases the listener. Idempotent.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.binder != nil {
		s.binder.Stop()
	}
}
