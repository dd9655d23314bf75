package swarm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tilinna/clock"

	"orbitstream-sim/internal/telemetry"
)

// Satellite binds one identity to its exclusively-owned generator.
type Satellite struct {
	ID  string
	gen *telemetry.Generator
}

// runSatellite is the per-satellite send loop. It emits one reading per
// interval, counting each attempt exactly once, and exits when ctx is
// cancelled. Delivery failures never abort the loop; the next reading is
// produced on schedule regardless of outcome.
func (s *Swarm) runSatellite(ctx context.Context, sat *Satellite) {
	clck := clock.FromContext(ctx)
	interval := time.Second / time.Duration(s.cfg.RatePerSatellite)

	for {
		start := clck.Now()

		reading := sat.gen.Generate()
		reading.SatelliteID = sat.ID
		reading.Timestamp = clck.Now().UTC().Format(telemetry.RFC3339Micro)

		err := s.send(ctx, reading)
		switch {
		case err == nil:
			s.stats.RecordSuccess()
		case ctx.Err() != nil:
			// Request abandoned by shutdown, not a delivery failure.
			return
		default:
			s.stats.RecordError()
			s.log.Debug("send failed", "satellite", sat.ID, "error", err)
		}

		if ctx.Err() != nil {
			return
		}

		// Fixed interval minus elapsed keeps the long-run average at the
		// target rate even when request latency varies.
		sleep := interval - clck.Now().Sub(start)
		if sleep <= 0 {
			continue
		}
		timer := clck.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// send serializes one reading and posts it through the shared pooled
// client. Anything other than 202 Accepted is an error; nothing is retried
// at this layer.
func (s *Swarm) send(ctx context.Context, reading telemetry.Reading) error {
	body, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.telemetryURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
