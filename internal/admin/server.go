// HTTP status endpoint for a running swarm.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"orbitstream-sim/internal/swarm"
)

// StatusSource is the slice of the swarm the admin server reads from.
type StatusSource interface {
	RunID() string
	Size() int
	Stats() swarm.Snapshot
	Config() swarm.Config
}

// Server serves live run status over HTTP. It only ever reads from the
// swarm; it cannot perturb dispatch timing.
type Server struct {
	src StatusSource
	log *slog.Logger
}

func NewServer(src StatusSource, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{src: src, log: log}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/config", s.handleConfig).Methods(http.MethodGet)
	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok", "run_id": s.src.RunID()})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.src.Stats())
}

type configResponse struct {
	RunID                 string  `json:"run_id"`
	Satellites            int     `json:"satellites"`
	RatePerSatellite      int     `json:"rate_per_satellite"`
	Endpoint              string  `json:"endpoint"`
	DurationSeconds       float64 `json:"duration_seconds"`
	AnomalyRate           float64 `json:"anomaly_rate"`
	MaxConnections        int     `json:"max_connections"`
	MaxConnectionsPerHost int     `json:"max_connections_per_host"`
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.src.Config()
	writeJSON(w, configResponse{
		RunID:                 s.src.RunID(),
		Satellites:            cfg.Satellites,
		RatePerSatellite:      cfg.RatePerSatellite,
		Endpoint:              cfg.Endpoint,
		DurationSeconds:       cfg.Duration.Seconds(),
		AnomalyRate:           cfg.AnomalyRate,
		MaxConnections:        cfg.MaxConnections,
		MaxConnectionsPerHost: cfg.MaxConnectionsPerHost,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
