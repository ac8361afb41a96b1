package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"syscall"
	"time"
)

// BindState tracks where the listener is in its lifecycle.
type BindState int

const (
	// Unbound means no listener exists.
	Unbound BindState = iota
	// Binding means a listen attempt is in flight.
	Binding
	// Bound means the listener is accepting connections.
	Bound
	// Closing means the listener is being released.
	Closing
)

// String returns the lowercase name of the state for log output.
func (s BindState) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case Binding:
		return "binding"
	case Bound:
		return "bound"
	case Closing:
		return "closing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// BindReason categorizes why a bind attempt failed.
type BindReason int

const (
	// ReasonAddrInUse means another process already holds the port.
	ReasonAddrInUse BindReason = iota
	// ReasonBindFailed covers every other listen failure.
	ReasonBindFailed
)

// BindError is a failed attempt to bind a port. Callers branch on Reason,
// never on the error text.
type BindError struct {
	Port   int
	Reason BindReason
	Err    error
}

func (e *BindError) Error() string {
	if e.Reason == ReasonAddrInUse {
		return fmt.Sprintf("port %d is already in use", e.Port)
	}
	return fmt.Sprintf("bind port %d: %v", e.Port, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// IsAddrInUse reports whether err is a bind failure caused by the port
// being held by someone else. Matches through wrapped errors.
func IsAddrInUse(err error) bool {
	var be *BindError
	return errors.As(err, &be) && be.Reason == ReasonAddrInUse
}

func classifyBindErr(port int, err error) *BindError {
	reason := ReasonBindFailed
	if errors.Is(err, syscall.EADDRINUSE) {
		reason = ReasonAddrInUse
	}
	return &BindError{Port: port, Reason: reason, Err: err}
}

// shutdownTimeout bounds how long Stop waits for in-flight requests.
const shutdownTimeout = 10 * time.Second

// Binder owns the single active network listener. It binds, rebinds, and
// releases the port the ingestion handler is served on; the handler itself
// never changes across rebinds, so the endpoint behaves identically on the
// new port.
//
// Start, Rebind, and Stop serialize against each other; the per-port
// lifecycle is still one-at-a-time, so callers see rebind as atomic.
type Binder struct {
	host    string
	handler http.Handler
	logger  *slog.Logger

	mu       sync.Mutex
	state    BindState
	port     int
	listener net.Listener
	srv      *http.Server
}

// NewBinder creates a Binder serving handler on the given host.
// The binder starts Unbound; call Start to bring the listener up.
func NewBinder(host string, handler http.Handler, logger *slog.Logger) *Binder {
	return &Binder{
		host:    host,
		handler: handler,
		logger:  logger,
		state:   Unbound,
	}
}

// State returns the current lifecycle state.
func (b *Binder) State() BindState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Port returns the port the listener is actually bound to, or 0 when
// Unbound. Asking for port 0 binds an ephemeral port, and Port reports
// the one the kernel picked.
func (b *Binder) Port() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.port
}

// Start binds the given port and begins serving. On failure the binder
// returns to Unbound and the error tells the caller whether the port was
// taken or the bind failed for another reason.
func (b *Binder) Start(port int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Unbound {
		return fmt.Errorf("binder: start in state %s", b.state)
	}
	return b.bindLocked(port)
}

func (b *Binder) bindLocked(port int) error {
	b.state = Binding
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", b.host, port))
	if err != nil {
		b.state = Unbound
		return classifyBindErr(port, err)
	}

	srv := &http.Server{
		Handler:      b.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			b.logger.Error("listener failed", "port", port, "error", err)
		}
	}()

	b.listener = ln
	b.srv = srv
	b.port = ln.Addr().(*net.TCPAddr).Port
	b.state = Bound
	b.logger.Info("listener bound", "addr", ln.Addr().String())
	return nil
}

func (b *Binder) releaseLocked() {
	b.state = Closing
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := b.srv.Shutdown(ctx); err != nil {
		b.logger.Warn("listener shutdown", "port", b.port, "error", err)
	}
	b.logger.Info("listener released", "port", b.port)
	b.listener = nil
	b.srv = nil
	b.port = 0
	b.state = Unbound
}

// Rebind moves the listener to newPort. The old listener is released
// before the new bind is attempted, so there is a short window with no
// listener; a single process cannot hold the old and new socket as "the"
// port at once. On failure the original port is reopened, so from the
// caller's view rebind either fully succeeds or leaves the service where
// it was.
func (b *Binder) Rebind(newPort int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Bound {
		return fmt.Errorf("binder: rebind in state %s", b.state)
	}

	oldPort := b.port
	b.releaseLocked()

	err := b.bindLocked(newPort)
	if err == nil {
		return nil
	}

	b.logger.Warn("rebind failed, rolling back", "port", newPort, "error", err)
	if rbErr := b.bindLocked(oldPort); rbErr != nil {
		// Lost the old port too. The service is down until the caller
		// picks a port that works.
		b.logger.Error("rollback failed, listener is down",
			"port", oldPort, "error", rbErr)
		return errors.Join(err, fmt.Errorf("rollback to port %d: %w", oldPort, rbErr))
	}
	return err
}

// Stop releases the listener. Safe to call when already Unbound.
func (b *Binder) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Bound {
		return
	}
	b.releaseLocked()
}
