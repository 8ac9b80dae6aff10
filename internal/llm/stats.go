package llm

import (
	"slices"
	"sync"
	"time"
)

type sample struct {
	at         time.Time
	durationMs int64
	failed     bool
}

// LatencySnapshot aggregates the calls of one capability inside the window.
type LatencySnapshot struct {
	Calls  int     `json:"calls"`
	Failed int     `json:"failed"`
	MinMs  int64   `json:"min_ms"`
	MaxMs  int64   `json:"max_ms"`
	AvgMs  float64 `json:"avg_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
	P99Ms  float64 `json:"p99_ms"`
}

// CallStats tracks recent provider call latencies within a rolling window.
type CallStats struct {
	mu      sync.Mutex
	samples []sample
	window  time.Duration
	now     func() time.Time
}

func NewCallStats(window time.Duration) *CallStats {
	if window <= 0 {
		window = time.Hour
	}
	return &CallStats{
		samples: make([]sample, 0, 128),
		window:  window,
		now:     time.Now,
	}
}

// Observe records one call. A nil receiver is a no-op so clients can run
// without stats.
func (s *CallStats) Observe(d time.Duration, err error) {
	if s == nil {
		return
	}
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	s.samples = append(s.samples, sample{at: now, durationMs: ms, failed: err != nil})
}

func (s *CallStats) Snapshot() LatencySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(s.now())
	if len(s.samples) == 0 {
		return LatencySnapshot{}
	}

	values := make([]int64, 0, len(s.samples))
	var sum int64
	failed := 0
	for _, sm := range s.samples {
		values = append(values, sm.durationMs)
		sum += sm.durationMs
		if sm.failed {
			failed++
		}
	}
	slices.Sort(values)

	return LatencySnapshot{
		Calls:  len(values),
		Failed: failed,
		MinMs:  values[0],
		MaxMs:  values[len(values)-1],
		AvgMs:  float64(sum) / float64(len(values)),
		P50Ms:  percentile(values, 50),
		P95Ms:  percentile(values, 95),
		P99Ms:  percentile(values, 99),
	}
}

func (s *CallStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	kept := s.samples[:0]
	for _, sm := range s.samples {
		if !sm.at.Before(cutoff) {
			kept = append(kept, sm)
		}
	}
	s.samples = kept
}

// percentile interpolates linearly between the two closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}

	rank := float64(len(sorted)-1) * pct / 100
	lower := int(rank)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*(rank-float64(lower))
}

// Stats groups the per-capability trackers exposed by the API.
type Stats struct {
	Transcription *CallStats
	Generation    *CallStats
}

func NewStats(window time.Duration) *Stats {
	return &Stats{
		Transcription: NewCallStats(window),
		Generation:    NewCallStats(window),
	}
}

func (s *Stats) Snapshot() map[string]LatencySnapshot {
	return map[string]LatencySnapshot{
		"transcription": s.Transcription.Snapshot(),
		"generation":    s.Generation.Snapshot(),
	}
}
