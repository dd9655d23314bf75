package swarm

import (
	"sync/atomic"
	"time"
)

// Stats holds the aggregate delivery counters shared by every satellite
// send loop. Counters only ever increase; readers take lock-free snapshots
// that may be slightly torn, which is acceptable for advisory reporting.
type Stats struct {
	totalSent    atomic.Uint64
	successCount atomic.Uint64
	errorCount   atomic.Uint64
	startNanos   atomic.Int64
}

func newStats(start time.Time) *Stats {
	s := &Stats{}
	s.markStart(start)
	return s
}

// markStart re-stamps the measurement window origin. Run calls this once
// at launch; snapshots taken concurrently see either origin, never a torn
// one.
func (s *Stats) markStart(start time.Time) {
	s.startNanos.Store(start.UnixNano())
}

// RecordSuccess counts one accepted reading.
func (s *Stats) RecordSuccess() {
	s.totalSent.Add(1)
	s.successCount.Add(1)
}

// RecordError counts one rejected or failed reading.
func (s *Stats) RecordError() {
	s.totalSent.Add(1)
	s.errorCount.Add(1)
}

// Snapshot is a point-in-time view of the shared counters plus the derived
// throughput and success-rate figures.
type Snapshot struct {
	TotalSent    uint64  `json:"total_sent"`
	SuccessCount uint64  `json:"success_count"`
	ErrorCount   uint64  `json:"error_count"`
	ElapsedSec   float64 `json:"elapsed_seconds"`
	Throughput   float64 `json:"throughput_per_sec"`
	SuccessRate  float64 `json:"success_rate"`
}

// Snapshot reads the counters without blocking producers. The success rate
// is successes/total, defined as 0 when nothing has been sent yet.
func (s *Stats) Snapshot(now time.Time) Snapshot {
	snap := Snapshot{
		TotalSent:    s.totalSent.Load(),
		SuccessCount: s.successCount.Load(),
		ErrorCount:   s.errorCount.Load(),
	}
	elapsed := now.Sub(time.Unix(0, s.startNanos.Load()))
	snap.ElapsedSec = elapsed.Seconds()
	if elapsed > 0 {
		snap.Throughput = float64(snap.TotalSent) / elapsed.Seconds()
	}
	if snap.TotalSent > 0 {
		snap.SuccessRate = float64(snap.SuccessCount) / float64(snap.TotalSent)
	}
	return snap
}
