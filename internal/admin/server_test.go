package admin

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"orbitstream-sim/internal/swarm"
)

type stubSource struct {
	snap swarm.Snapshot
	cfg  swarm.Config
}

func (s *stubSource) RunID() string         { return "run-123" }
func (s *stubSource) Size() int             { return 5 }
func (s *stubSource) Stats() swarm.Snapshot { return s.snap }
func (s *stubSource) Config() swarm.Config  { return s.cfg }

func newTestServer() (*Server, *stubSource) {
	src := &stubSource{
		snap: swarm.Snapshot{TotalSent: 100, SuccessCount: 95, ErrorCount: 5, SuccessRate: 0.95},
		cfg: swarm.Config{
			Satellites:       5,
			RatePerSatellite: 10,
			Endpoint:         "http://ingest.local:8080",
			Duration:         time.Minute,
			AnomalyRate:      0.01,
		},
	}
	return NewServer(src, slog.New(slog.NewTextHandler(io.Discard, nil))), src
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer()
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" || body["run_id"] != "run-123" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv, src := newTestServer()
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/stats")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var snap swarm.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap != src.snap {
		t.Errorf("stats = %+v, want %+v", snap, src.snap)
	}
}

func TestConfigEndpoint(t *testing.T) {
	srv, _ := newTestServer()
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/config")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["satellites"] != float64(5) {
		t.Errorf("satellites = %v, want 5", body["satellites"])
	}
	if body["duration_seconds"] != float64(60) {
		t.Errorf("duration_seconds = %v, want 60", body["duration_seconds"])
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	srv, _ := newTestServer()
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/launch-satellites")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
