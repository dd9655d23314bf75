package tle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
)

// DefaultURL serves the active-satellite catalog in TLE format.
const DefaultURL = "https://celestrak.org/NORAD/elements/gp.php?GROUP=active&FORMAT=tle"

// DefaultExpiry is how long cached TLE data stays fresh.
const DefaultExpiry = 24 * time.Hour

// ManagerConfig configures a Manager. Zero values select defaults.
type ManagerConfig struct {
	// CacheDir defaults to <user cache dir>/orbitstream/tle.
	CacheDir string
	Expiry   time.Duration
	URL      string
	// MaxRetries bounds download retries; defaults to 3.
	MaxRetries uint64
	Client     *http.Client
	Logger     *slog.Logger
}

// Manager downloads TLE data and caches it on disk.
type Manager struct {
	cacheFile  string
	metaFile   string
	expiry     time.Duration
	url        string
	maxRetries uint64
	client     *http.Client
	log        *slog.Logger

	cache map[string]TLE
}

type cacheMetadata struct {
	CachedAt       string `json:"cached_at"`
	SatelliteCount int    `json:"satellite_count"`
	Source         string `json:"source"`
}

// NewManager prepares the cache directory and returns a Manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	dir := cfg.CacheDir
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolve cache dir: %w", err)
		}
		dir = filepath.Join(base, "orbitstream", "tle")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	m := &Manager{
		cacheFile:  filepath.Join(dir, "satellites.tle"),
		metaFile:   filepath.Join(dir, "metadata.json"),
		expiry:     cfg.Expiry,
		url:        cfg.URL,
		maxRetries: cfg.MaxRetries,
		client:     cfg.Client,
		log:        cfg.Logger,
		cache:      make(map[string]TLE),
	}
	if m.expiry <= 0 {
		m.expiry = DefaultExpiry
	}
	if m.url == "" {
		m.url = DefaultURL
	}
	if m.maxRetries == 0 {
		m.maxRetries = 3
	}
	if m.client == nil {
		m.client = &http.Client{Timeout: 30 * time.Second}
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	return m, nil
}

// Load returns the TLE catalog, preferring a fresh cache, then a download,
// then a stale cache, then the built-in fallback set. It never fails once
// the Manager is constructed; degraded sources are logged instead.
func (m *Manager) Load(ctx context.Context, forceRefresh bool) map[string]TLE {
	if !forceRefresh && m.cacheValid() {
		if m.loadFromCache() && len(m.cache) > 0 {
			m.log.Info("loaded TLE data from cache", "satellites", len(m.cache))
			return m.cache
		}
	}

	m.log.Info("downloading TLE data", "url", m.url)
	if err := m.download(ctx); err != nil {
		m.log.Warn("TLE download failed", "error", err)
		if m.loadFromCache() && len(m.cache) > 0 {
			m.log.Warn("using stale TLE cache", "satellites", len(m.cache))
			return m.cache
		}
		m.log.Warn("using built-in fallback TLE data")
		m.cache = fallbackTLEs()
		return m.cache
	}

	m.saveToCache()
	m.log.Info("downloaded TLE data", "satellites", len(m.cache))
	return m.cache
}

func (m *Manager) download(ctx context.Context) error {
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := m.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		parsed := Parse(string(body))
		if len(parsed) == 0 {
			return fmt.Errorf("no TLE entries in response")
		}
		m.cache = parsed
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), m.maxRetries), ctx)
	return backoff.Retry(op, bo)
}

func (m *Manager) cacheValid() bool {
	data, err := os.ReadFile(m.metaFile)
	if err != nil {
		return false
	}
	var meta cacheMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return false
	}
	cachedAt, err := time.Parse(time.RFC3339, meta.CachedAt)
	if err != nil {
		return false
	}
	return time.Since(cachedAt) < m.expiry
}

func (m *Manager) loadFromCache() bool {
	data, err := os.ReadFile(m.cacheFile)
	if err != nil {
		return false
	}
	m.cache = Parse(string(data))
	return true
}

func (m *Manager) saveToCache() {
	var sb strings.Builder
	for _, t := range m.cache {
		sb.WriteString(t.String())
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(m.cacheFile, []byte(sb.String()), 0o644); err != nil {
		m.log.Warn("failed to write TLE cache", "error", err)
		return
	}

	meta := cacheMetadata{
		CachedAt:       time.Now().UTC().Format(time.RFC3339),
		SatelliteCount: len(m.cache),
		Source:         m.url,
	}
	data, _ := json.MarshalIndent(meta, "", "  ")
	if err := os.WriteFile(m.metaFile, data, 0o644); err != nil {
		m.log.Warn("failed to write TLE cache metadata", "error", err)
	}
}

// fallbackTLEs is a minimal built-in catalog used when both the download
// and the disk cache are unavailable.
func fallbackTLEs() map[string]TLE {
	iss := TLE{
		Name:  "ISS (ZARYA)",
		Line1: "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927",
		Line2: "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537",
	}
	return map[string]TLE{iss.Name: iss}
}
