// YAML config loader with CUE schema validation.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SwarmSettings configure the satellite population and its dispatch.
type SwarmSettings struct {
	Satellites            int     `yaml:"satellites"`
	RatePerSatellite      int     `yaml:"rate_per_satellite"`
	Endpoint              string  `yaml:"endpoint"`
	DurationSeconds       int     `yaml:"duration_seconds"`
	MaxConnections        int     `yaml:"max_connections"`
	MaxConnectionsPerHost int     `yaml:"max_connections_per_host"`
	AnomalyRate           float64 `yaml:"anomaly_rate"`
	ReportIntervalSeconds int     `yaml:"report_interval_seconds"`
}

// PositionSettings configure the optional TLE-backed position provider.
type PositionSettings struct {
	Enabled         bool   `yaml:"enabled"`
	TLECacheDir     string `yaml:"tle_cache_dir"`
	TLERefreshHours int    `yaml:"tle_refresh_hours"`
	TLEURL          string `yaml:"tle_url"`
}

// AdminSettings configure the status HTTP endpoint.
type AdminSettings struct {
	Listen string `yaml:"listen"`
}

// SimulationConfig is the root configuration for one simulator run.
type SimulationConfig struct {
	Swarm    SwarmSettings    `yaml:"swarm"`
	Position PositionSettings `yaml:"position"`
	Admin    AdminSettings    `yaml:"admin"`
}

// Default returns the configuration used when no file is given.
func Default() *SimulationConfig {
	return &SimulationConfig{
		Swarm: SwarmSettings{
			Satellites:            100,
			RatePerSatellite:      100,
			Endpoint:              "http://localhost:8080",
			DurationSeconds:       60,
			MaxConnections:        1000,
			MaxConnectionsPerHost: 500,
			AnomalyRate:           0.01,
			ReportIntervalSeconds: 5,
		},
		Position: PositionSettings{
			TLERefreshHours: 24,
		},
		Admin: AdminSettings{
			Listen: ":9090",
		},
	}
}

// Load reads a YAML config, validates it against the CUE schema when a
// schema path is given, and fills unset fields from Default.
func Load(configPath, cueSchemaPath string) (*SimulationConfig, error) {
	if cueSchemaPath != "" {
		if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
