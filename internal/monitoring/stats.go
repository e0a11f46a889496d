package monitoring

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/banshee-data/handosc/internal/timeutil"
)

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Frames   uint64
	Messages uint64
	Sends    uint64
}

// Stats counts frames seen, messages produced and network sends, and logs
// the per-interval deltas. It is owned by the tick path and not safe for
// concurrent use.
type Stats struct {
	clock    timeutil.Clock
	interval time.Duration
	logger   zerolog.Logger

	current  Snapshot
	atLog    Snapshot
	lastLogT time.Time
}

// NewStats creates a Stats reporting every interval. A non-positive
// interval disables reporting.
func NewStats(clock timeutil.Clock, interval time.Duration, logger zerolog.Logger) *Stats {
	return &Stats{
		clock:    clock,
		interval: interval,
		logger:   logger,
		lastLogT: clock.Now(),
	}
}

func (s *Stats) AddFrame()         { s.current.Frames++ }
func (s *Stats) AddMessages(n int) { s.current.Messages += uint64(n) }
func (s *Stats) AddSend()          { s.current.Sends++ }

// Snapshot returns the totals so far.
func (s *Stats) Snapshot() Snapshot {
	return s.current
}

// Report logs the deltas since the previous report once the interval has
// elapsed. It returns whether a line was logged.
func (s *Stats) Report() bool {
	if s.interval <= 0 {
		return false
	}
	elapsed := s.clock.Since(s.lastLogT)
	if elapsed < s.interval {
		return false
	}

	s.logger.Info().
		Uint64("frames", s.current.Frames-s.atLog.Frames).
		Uint64("messages", s.current.Messages-s.atLog.Messages).
		Uint64("sends", s.current.Sends-s.atLog.Sends).
		Dur("elapsed", elapsed).
		Msg("throughput")

	s.atLog = s.current
	s.lastLogT = s.clock.Now()
	return true
}
