// Package observer exposes generation progress over HTTP: a health check,
// a JSON summary of the world and a websocket stream of chunk events.
package observer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/cosiestdevil/rogue-2d/internal/config"
	"github.com/cosiestdevil/rogue-2d/internal/world"
)

const clientBuffer = 256

// Info is the body of GET /v1/world.
type Info struct {
	Seed        int64               `json:"seed"`
	NoiseBasis  string              `json:"noise_basis"`
	ChunkSize   int                 `json:"chunk_size"`
	Scale       float64             `json:"scale"`
	SpawnChunks int                 `json:"spawn_chunks"`
	Chunks      int                 `json:"chunks"`
	Episode     uuid.UUID           `json:"episode"`
	Tick        uint64              `json:"tick"`
	Stats       world.StatsSnapshot `json:"stats"`
	Clients     int                 `json:"clients"`
}

// Server serves the observer API and fans events out to websocket clients.
// It implements world.Sink.
type Server struct {
	cfg   *config.Config
	stats func() world.StatsSnapshot
	log   *slog.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
	dropped  atomic.Int64

	mu      sync.Mutex
	clients map[uint64]chan []byte
	episode uuid.UUID
	tick    uint64
}

// New creates a Server. stats must be safe to call from any goroutine.
func New(cfg *config.Config, stats func() world.StatsSnapshot, log *slog.Logger) *Server {
	return &Server{
		cfg:   cfg,
		stats: stats,
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[uint64]chan []byte),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLog)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/v1", func(r chi.Router) {
		r.Get("/world", s.handleWorld)
		r.Get("/events", s.handleEvents)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("observer listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("observer listen on %s: %w", addr, err)
	}
	return nil
}

// Emit broadcasts ev to every connected client without blocking. Clients
// that fall behind lose events.
func (s *Server) Emit(ev world.Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		s.log.Error("marshal event", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.episode = ev.Episode
	s.tick = ev.Tick
	for _, ch := range s.clients {
		select {
		case ch <- b:
		default:
			s.dropped.Add(1)
		}
	}
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleWorld(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	episode, tick, clients := s.episode, s.tick, len(s.clients)
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, Info{
		Seed:        s.cfg.Seed,
		NoiseBasis:  s.cfg.NoiseBasis,
		ChunkSize:   s.cfg.ChunkSize,
		Scale:       s.cfg.Scale,
		SpawnChunks: s.cfg.SpawnChunks,
		Chunks:      s.cfg.ChunkCount(),
		Episode:     episode,
		Tick:        tick,
		Stats:       s.stats(),
		Clients:     clients,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	id := s.nextID.Add(1)
	out := make(chan []byte, clientBuffer)
	s.mu.Lock()
	s.clients[id] = out
	s.mu.Unlock()
	s.log.Debug("observer client connected", "id", id, "remote", r.RemoteAddr)

	defer func() {
		s.mu.Lock()
		delete(s.clients, id)
		s.mu.Unlock()
		s.log.Debug("observer client disconnected", "id", id)
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	writeErr := make(chan error, 1)
	go func() {
		for {
			select {
			case <-ctx.Done():
				writeErr <- ctx.Err()
				return
			case b := <-out:
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					writeErr <- err
					return
				}
			}
		}
	}()

	// Clients only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	cancel()
	<-writeErr
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("observer request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
