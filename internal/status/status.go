// Package status keeps a point-in-time view of the tester for the heartbeat
// and shutdown log lines and for --print-state.
package status

import (
	"time"

	"github.com/sweeney/atx-psu-tester/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	CycleMs     int64
	HeartbeatMs int64
	Samples     int
	ADCSource   string
	Display     string
	Diagnostics bool
	Bands       [logic.RailCount]logic.ToleranceBand
}

// Snapshot is a point-in-time view of tester state.
// It is a value type and safe to keep after further cycles.
type Snapshot struct {
	State     logic.State
	Counts    logic.EventCounts
	StartTime time.Time
	Now       time.Time
	Config    Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds the latest engine state. The control loop is its only user,
// so it is not safe for concurrent use.
type Tracker struct {
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update records the state and event counts after a cycle.
func (t *Tracker) Update(state logic.State, counts logic.EventCounts) {
	t.snap.State = state
	t.snap.Counts = counts
}

// Snapshot returns a copy of the tester state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	s := t.snap
	s.Now = time.Now()
	return s
}
