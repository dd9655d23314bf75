package swarm

import (
	"context"
	"fmt"

	"github.com/tilinna/clock"
)

// report logs an advisory counter snapshot once per interval. It only reads
// the shared counters and exits as soon as ctx is cancelled.
func (s *Swarm) report(ctx context.Context) {
	t := clock.NewTicker(ctx, s.cfg.ReportInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			snap := s.stats.Snapshot(now)
			s.log.Info("throughput",
				"run_id", s.runID,
				"pts_per_sec", fmt.Sprintf("%.0f", snap.Throughput),
				"total", snap.TotalSent,
				"success_rate_pct", fmt.Sprintf("%.1f", snap.SuccessRate*100),
				"errors", snap.ErrorCount)
		}
	}
}
