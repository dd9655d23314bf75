// Swarm controller driving thousands of satellite send loops against a
// shared pooled HTTP transport.
package swarm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/tilinna/clock"

	"orbitstream-sim/internal/telemetry"
)

// json handles the hot wire-payload path.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config describes one swarm run. Zero-valued optional fields are filled in
// by Validate.
type Config struct {
	// Satellites is the population size.
	Satellites int
	// RatePerSatellite is the target readings per second per satellite.
	RatePerSatellite int
	// Endpoint is the base URL of the ingestion service.
	Endpoint string
	// Duration bounds the run; 0 runs until the context is cancelled.
	Duration time.Duration
	// AnomalyRate in [0,1] is shared by all generators.
	AnomalyRate float64

	// Connection pool bounds for the shared transport.
	MaxConnections        int
	MaxConnectionsPerHost int

	// RequestTimeout bounds each POST; defaults to 5s.
	RequestTimeout time.Duration
	// ReportInterval is the statistics reporter period; defaults to 5s.
	ReportInterval time.Duration
}

// Validate applies defaults and rejects configurations that must fail
// before any satellite starts.
func (c *Config) Validate() error {
	if c.Satellites <= 0 {
		return fmt.Errorf("satellites must be positive, got %d", c.Satellites)
	}
	if c.RatePerSatellite <= 0 {
		return fmt.Errorf("rate per satellite must be positive, got %d", c.RatePerSatellite)
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %s", c.Duration)
	}
	if c.AnomalyRate < 0 || c.AnomalyRate > 1 {
		return fmt.Errorf("anomaly rate must be in [0,1], got %f", c.AnomalyRate)
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = 1000
	}
	if c.MaxConnectionsPerHost <= 0 {
		c.MaxConnectionsPerHost = 500
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 5 * time.Second
	}
	if c.ReportInterval <= 0 {
		c.ReportInterval = 5 * time.Second
	}
	return nil
}

// Swarm owns the configured satellite population, the shared pooled
// transport, and the aggregate statistics counters.
type Swarm struct {
	cfg          Config
	runID        string
	satellites   []*Satellite
	stats        *Stats
	client       *http.Client
	telemetryURL string
	log          *slog.Logger
}

// New builds the full population up front. Each satellite gets an identity
// SAT-0001..SAT-N and an independently seeded generator sharing the
// configured anomaly rate. provider may be nil to skip position decoration.
func New(cfg Config, provider telemetry.PositionProvider, log *slog.Logger) (*Swarm, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("swarm config: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Swarm{
		cfg:          cfg,
		runID:        uuid.New().String(),
		stats:        newStats(time.Now()),
		telemetryURL: strings.TrimSuffix(cfg.Endpoint, "/") + "/telemetry",
		log:          log,
	}

	s.satellites = make([]*Satellite, 0, cfg.Satellites)
	for i := 0; i < cfg.Satellites; i++ {
		id := fmt.Sprintf("SAT-%04d", i+1)
		gen := telemetry.NewGenerator(telemetry.GeneratorConfig{
			AnomalyRate: cfg.AnomalyRate,
			Satellite:   id,
			Provider:    provider,
		})
		s.satellites = append(s.satellites, &Satellite{ID: id, gen: gen})
	}
	return s, nil
}

// RunID identifies this swarm instance in logs and status output.
func (s *Swarm) RunID() string { return s.runID }

// Size returns the satellite population.
func (s *Swarm) Size() int { return len(s.satellites) }

// Stats returns a live snapshot of the shared counters.
func (s *Swarm) Stats() Snapshot {
	return s.stats.Snapshot(time.Now())
}

// Config returns the validated run configuration.
func (s *Swarm) Config() Config { return s.cfg }

// Run launches one send loop per satellite plus the statistics reporter and
// blocks until every loop has exited. A configured duration cancels the run
// cooperatively: each loop observes the stop signal and finishes its current
// request before exiting. The final snapshot is always returned.
func (s *Swarm) Run(ctx context.Context) Snapshot {
	if s.cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = clock.TimeoutContext(ctx, s.cfg.Duration)
		defer cancel()
	}
	clck := clock.FromContext(ctx)

	s.client = &http.Client{
		Timeout: s.cfg.RequestTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        s.cfg.MaxConnections,
			MaxConnsPerHost:     s.cfg.MaxConnectionsPerHost,
			MaxIdleConnsPerHost: s.cfg.MaxConnectionsPerHost,
			IdleConnTimeout:     30 * time.Second,
		},
	}

	s.stats.markStart(clck.Now())
	s.log.Info("starting swarm",
		"run_id", s.runID,
		"satellites", len(s.satellites),
		"target_throughput", len(s.satellites)*s.cfg.RatePerSatellite,
		"endpoint", s.cfg.Endpoint)

	var wg sync.WaitGroup
	for _, sat := range s.satellites {
		wg.Add(1)
		go func(sat *Satellite) {
			defer wg.Done()
			s.runSatellite(ctx, sat)
		}(sat)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.report(ctx)
	}()
	wg.Wait()

	s.client.CloseIdleConnections()

	snap := s.stats.Snapshot(clck.Now())
	s.log.Info("final statistics",
		"run_id", s.runID,
		"duration_sec", fmt.Sprintf("%.1f", snap.ElapsedSec),
		"total_sent", snap.TotalSent,
		"success_count", snap.SuccessCount,
		"error_count", snap.ErrorCount,
		"avg_throughput", fmt.Sprintf("%.0f", snap.Throughput),
		"success_rate_pct", fmt.Sprintf("%.2f", snap.SuccessRate*100))
	return snap
}
