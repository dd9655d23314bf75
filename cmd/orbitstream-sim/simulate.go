package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"orbitstream-sim/internal/admin"
	"orbitstream-sim/internal/config"
	"orbitstream-sim/internal/dashboard"
	"orbitstream-sim/internal/logging"
	"orbitstream-sim/internal/orbit"
	"orbitstream-sim/internal/swarm"
	"orbitstream-sim/internal/telemetry"
	"orbitstream-sim/internal/tle"
)

var (
	simConfigPath   string
	simSchemaPath   string
	simSatellites   int
	simRate         int
	simEndpoint     string
	simDuration     time.Duration
	simAnomalyRate  float64
	simWithPosition bool
	simTUI          bool
	simAdminAddr    string
	simLogLevel     string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the satellite swarm load generator",
	Long:  "simulate launches the configured satellite population and streams telemetry at a fixed per-satellite rate.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		applyFlagOverrides(cmd, cfg)

		// The dashboard owns the terminal, so log lines go to stderr
		// where they survive the alt screen.
		var log *slog.Logger
		if simTUI {
			log = logging.NewWithWriter(os.Stderr, logging.ParseLevel(simLogLevel))
		} else {
			log = logging.New(logging.ParseLevel(simLogLevel))
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var provider telemetry.PositionProvider
		if cfg.Position.Enabled {
			provider = buildPositionProvider(ctx, cfg, log)
		}

		swarmCfg := swarm.Config{
			Satellites:            cfg.Swarm.Satellites,
			RatePerSatellite:      cfg.Swarm.RatePerSatellite,
			Endpoint:              cfg.Swarm.Endpoint,
			Duration:              time.Duration(cfg.Swarm.DurationSeconds) * time.Second,
			AnomalyRate:           cfg.Swarm.AnomalyRate,
			MaxConnections:        cfg.Swarm.MaxConnections,
			MaxConnectionsPerHost: cfg.Swarm.MaxConnectionsPerHost,
			ReportInterval:        time.Duration(cfg.Swarm.ReportIntervalSeconds) * time.Second,
		}

		sw, err := swarm.New(swarmCfg, provider, log)
		if err != nil {
			return err
		}

		if cfg.Admin.Listen != "" {
			srv := admin.NewServer(sw, log)
			go func() {
				log.Info("admin endpoint listening", "addr", cfg.Admin.Listen)
				if err := srv.Start(ctx, cfg.Admin.Listen); err != nil {
					log.Error("admin server failed", "error", err)
				}
			}()
		}

		runCtx, cancelRun := context.WithCancel(ctx)
		defer cancelRun()

		if simTUI {
			go func() {
				// Quitting the dashboard ends the run too.
				if err := dashboard.Run(runCtx, sw); err != nil {
					log.Error("dashboard failed", "error", err)
				}
				cancelRun()
			}()
		}

		snap := sw.Run(runCtx)
		cancelRun()

		if simTUI {
			printSummary(cmd.OutOrStdout(), sw.RunID(), snap)
		}
		return nil
	},
}

func loadConfig(cmd *cobra.Command) (*config.SimulationConfig, error) {
	if _, err := os.Stat(simConfigPath); err != nil {
		if os.IsNotExist(err) && !cmd.Flags().Changed("config") {
			// No config file is fine; flags and defaults carry the run.
			return config.Default(), nil
		}
		return nil, err
	}
	schema := simSchemaPath
	if _, err := os.Stat(schema); err != nil && !cmd.Flags().Changed("schema") {
		schema = ""
	}
	return config.Load(simConfigPath, schema)
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.SimulationConfig) {
	if cmd.Flags().Changed("satellites") {
		cfg.Swarm.Satellites = simSatellites
	}
	if cmd.Flags().Changed("rate") {
		cfg.Swarm.RatePerSatellite = simRate
	}
	if cmd.Flags().Changed("endpoint") {
		cfg.Swarm.Endpoint = simEndpoint
	}
	if cmd.Flags().Changed("duration") {
		cfg.Swarm.DurationSeconds = int(simDuration.Seconds())
	}
	if cmd.Flags().Changed("anomaly-rate") {
		cfg.Swarm.AnomalyRate = simAnomalyRate
	}
	if cmd.Flags().Changed("with-position") {
		cfg.Position.Enabled = simWithPosition
	}
	if cmd.Flags().Changed("admin-addr") {
		cfg.Admin.Listen = simAdminAddr
	}
}

// buildPositionProvider loads the TLE catalog and wraps it in an orbit
// calculator. Position decoration is best-effort: any failure downgrades
// the run to plain telemetry instead of aborting it.
func buildPositionProvider(ctx context.Context, cfg *config.SimulationConfig, log *slog.Logger) telemetry.PositionProvider {
	mgr, err := tle.NewManager(tle.ManagerConfig{
		CacheDir: cfg.Position.TLECacheDir,
		Expiry:   time.Duration(cfg.Position.TLERefreshHours) * time.Hour,
		URL:      cfg.Position.TLEURL,
		Logger:   log,
	})
	if err != nil {
		log.Warn("position provider disabled", "error", err)
		return nil
	}
	catalog := mgr.Load(ctx, false)
	return orbit.NewCalculator(catalog, log)
}

func printSummary(w io.Writer, runID string, snap swarm.Snapshot) {
	fmt.Fprintf(w, "run %s finished\n", runID)
	fmt.Fprintf(w, "  total sent:  %d\n", snap.TotalSent)
	fmt.Fprintf(w, "  success:     %d (%.2f%%)\n", snap.SuccessCount, snap.SuccessRate*100)
	fmt.Fprintf(w, "  errors:      %d\n", snap.ErrorCount)
	fmt.Fprintf(w, "  throughput:  %.0f pts/sec\n", snap.Throughput)
	fmt.Fprintf(w, "  elapsed:     %.1fs\n", snap.ElapsedSec)
}

func init() {
	simulateCmd.Flags().StringVar(&simConfigPath, "config", "config/simulation.yaml", "Path to simulation configuration YAML")
	simulateCmd.Flags().StringVar(&simSchemaPath, "schema", "schemas/simulation.cue", "Path to CUE schema file")
	simulateCmd.Flags().IntVar(&simSatellites, "satellites", 0, "Override satellite count")
	simulateCmd.Flags().IntVar(&simRate, "rate", 0, "Override readings per second per satellite")
	simulateCmd.Flags().StringVar(&simEndpoint, "endpoint", "", "Override ingestion endpoint base URL")
	simulateCmd.Flags().DurationVar(&simDuration, "duration", 0, "Override run duration (0 runs until interrupted)")
	simulateCmd.Flags().Float64Var(&simAnomalyRate, "anomaly-rate", 0, "Override anomaly probability per reading [0,1]")
	simulateCmd.Flags().BoolVar(&simWithPosition, "with-position", false, "Decorate readings with TLE-derived positions")
	simulateCmd.Flags().BoolVar(&simTUI, "tui", false, "Show the live dashboard instead of log output")
	simulateCmd.Flags().StringVar(&simAdminAddr, "admin-addr", "", "Override admin endpoint listen address")
	simulateCmd.Flags().StringVar(&simLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}
