package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Path is where the host accepts the guest.
const Path = "/play"

var (
	ErrPeerBusy        = errors.New("transport: host already has a guest")
	ErrSessionMismatch = errors.New("transport: session id does not match")
)

// Host accepts a single guest for one session.
type Host struct {
	sessionID string
	handler   Handler
	logger    *log.Logger
	upgrader  websocket.Upgrader

	mu      sync.Mutex
	claimed bool
	peers   chan *Conn
}

// NewHost returns a host for sessionID that routes inbound traffic to handler.
func NewHost(sessionID string, handler Handler, logger *log.Logger) *Host {
	return &Host{
		sessionID: sessionID,
		handler:   handler,
		logger:    logger.WithPrefix("host"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		peers: make(chan *Conn, 1),
	}
}

// ServeHTTP upgrades the guest's request.
func (h *Host) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if got := r.URL.Query().Get("session"); got != h.sessionID {
		h.logger.Warn("Rejected guest", "error", ErrSessionMismatch, "remote", r.RemoteAddr)
		http.Error(w, ErrSessionMismatch.Error(), http.StatusForbidden)
		return
	}

	h.mu.Lock()
	busy := h.claimed
	h.claimed = true
	h.mu.Unlock()
	if busy {
		h.logger.Warn("Rejected guest", "error", ErrPeerBusy, "remote", r.RemoteAddr)
		http.Error(w, ErrPeerBusy.Error(), http.StatusConflict)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err)
		h.mu.Lock()
		h.claimed = false
		h.mu.Unlock()
		return
	}

	c := newConn(ws, h.handler, h.logger)
	h.logger.Info("Guest connected", "conn", c.ID(), "remote", r.RemoteAddr)
	c.start()
	h.peers <- c
}

// Accept waits for the guest.
func (h *Host) Accept(ctx context.Context) (*Conn, error) {
	select {
	case c := <-h.peers:
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Listen binds addr and serves until ctx is cancelled. ready, if non-nil,
// receives the bound address once the listener is up.
func (h *Host) Listen(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(Path, h)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if ready != nil {
		ready(ln.Addr())
	}
	h.logger.Info("Waiting for guest", "addr", ln.Addr().String(), "path", Path)

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
