// Package opsserver exposes the engine's operational surface: liveness,
// Prometheus scraping, and a best-effort debug stream of dispatched
// actions, grounded on the teacher's cmd/server router assembly
// (internal/api/router.go) and its gorilla/websocket connection hub
// (cmd/server/handlers/silence_ws.go).
package opsserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vitaliisemenov/alert-history/internal/dispatcher"
	"github.com/vitaliisemenov/alert-history/internal/matcher"
	"github.com/vitaliisemenov/alert-history/internal/rule"
	"github.com/vitaliisemenov/alert-history/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server is the engine's ops HTTP surface: GET /healthz, GET /metrics,
// GET /debug/stream.
type Server struct {
	httpServer *http.Server
	log        *slog.Logger

	mu      sync.Mutex
	started bool
}

// NewServer builds a Server bound to addr. manager backs /healthz;
// registry backs /metrics; bus backs /debug/stream's best-effort
// action tee (each connection registers its own subscriber channel via
// bus.Subscribe, unregistered on disconnect). log may be nil.
func NewServer(addr string, manager *matcher.Manager, registry *prometheus.Registry, bus *dispatcher.ChannelBus, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	router := mux.NewRouter()
	router.Use(logger.LoggingMiddleware(log))
	router.HandleFunc("/healthz", healthzHandler(manager)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.HandleFunc("/debug/stream", debugStreamHandler(bus, log)).Methods(http.MethodGet)

	return &Server{
		httpServer: &http.Server{Addr: addr, Handler: router},
		log:        log,
	}
}

// Start launches the HTTP server in a background goroutine. Returns
// ErrAlreadyStarted if called more than once.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("opsserver: listen failed", "error", err, "addr", s.httpServer.Addr)
		}
	}()
	return nil
}

// Shutdown gracefully stops the HTTP server. Open /debug/stream
// connections are hijacked websockets, which http.Server.Shutdown
// neither closes nor waits for.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func healthzHandler(manager *matcher.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := manager.Stats()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":   "ok",
			"reloads":  stats.Reloads,
			"failures": stats.Failures,
		})
	}
}

func debugStreamHandler(bus *dispatcher.ChannelBus, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.FromContext(r.Context(), log)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			reqLog.Error("opsserver: websocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
			return
		}
		sub := make(chan rule.Action, 64)
		bus.Subscribe(sub)
		reqLog.Info("opsserver: debug stream client connected", "remote_addr", conn.RemoteAddr().String())

		done := make(chan struct{})
		go discardReads(conn, done)

		ticker := time.NewTicker(pingPeriod)
		defer func() {
			ticker.Stop()
			bus.Unsubscribe(sub)
			conn.Close()
			reqLog.Info("opsserver: debug stream client disconnected", "remote_addr", conn.RemoteAddr().String())
		}()

		for {
			select {
			case <-done:
				return
			case action := <-sub:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(action); err != nil {
					reqLog.Debug("opsserver: debug stream write failed, closing", "error", err)
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}

// discardReads drains and discards client frames (we expect none but
// must read to detect close/pong), closing done on any read error.
func discardReads(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
