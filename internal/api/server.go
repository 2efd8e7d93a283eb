package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mkoseki/techo/internal/db"
	techoerrors "github.com/mkoseki/techo/internal/errors"
	"github.com/mkoseki/techo/internal/events"
)

// Server is the techo API server.
type Server struct {
	addr   string
	mux    *http.ServeMux
	logger *slog.Logger

	db *db.DB

	// Event publisher for real-time updates
	publisher events.Publisher
	wsHandler *WSHandler
}

// Config holds server configuration.
type Config struct {
	Addr   string
	Logger *slog.Logger
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:   ":8390",
		Logger: slog.Default(),
	}
}

// New creates a new API server on top of an open database handle. The
// server does not own the handle; the caller closes it.
func New(cfg *Config, database *db.DB) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pub := events.NewMemoryPublisher()

	s := &Server{
		addr:      cfg.Addr,
		mux:       http.NewServeMux(),
		logger:    logger,
		db:        database,
		publisher: pub,
	}

	s.wsHandler = NewWSHandler(pub, logger)

	s.registerRoutes()
	return s
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.addr)
	return http.ListenAndServe(s.addr, s.mux)
}

// StartContext starts the API server with context for graceful shutdown.
func (s *Server) StartContext(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.addr,
		Handler: s.mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		s.wsHandler.Close()
		s.publisher.Close()
	}()

	s.logger.Info("starting API server", "addr", s.addr)
	return server.ListenAndServe()
}

// Handler returns the server's root handler (for testing).
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Publisher returns the event publisher for external use.
func (s *Server) Publisher() events.Publisher {
	return s.publisher
}

// publish emits a change event for a resource.
func (s *Server) publish(eventType events.EventType, resource, id string, data any) {
	s.publisher.Publish(events.NewEvent(eventType, resource, id, data))
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

// jsonError writes a JSON error response.
func (s *Server) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// handleError maps structured errors to status codes; anything else is a 500.
func (s *Server) handleError(w http.ResponseWriter, err error) {
	HandleError(w, err)
}

// pathID parses the {id} path segment as an int64.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, techoerrors.ErrInvalidInput("invalid id: " + raw)
	}
	return id, nil
}
