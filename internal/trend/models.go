package trend

import (
	"time"

	"handoff/internal/flags"
	"handoff/internal/health"
)

// Action is what a single tick decided to do.
type Action string

const (
	ActionNone              Action = "none"
	ActionSkipped           Action = "skipped"
	ActionTrendWarning      Action = "trend_warning"
	ActionServiceRollback   Action = "service_rollback"
	ActionEmergencyRollback Action = "emergency_rollback"
	ActionEmergencyFlag     Action = "emergency_flag"
	ActionHold              Action = "hold"
	ActionFault             Action = "fault"
)

// TickResult describes one monitoring cycle.
type TickResult struct {
	At        time.Time       `json:"at"`
	Score     int             `json:"score"`
	Action    Action          `json:"action"`
	Subsystem flags.Subsystem `json:"subsystem,omitempty"`
	Detail    string          `json:"detail,omitempty"`
}

// Config tunes the monitor.
type Config struct {
	// Interval between ticks.
	Interval time.Duration
	// HistorySize bounds the retained health samples.
	HistorySize int
	// Window is the number of samples a trend is judged over.
	Window int
	// SlopeThreshold is the minimum average drop per sample, in score
	// points, that counts as a degrading trend.
	SlopeThreshold float64
	// DangerThreshold is the score below which recovery starts.
	DangerThreshold int
	// CriticalThreshold is the score at which an emergency is flagged when
	// auto-rollback is off.
	CriticalThreshold int
}

// DefaultConfig samples every 5s over a 60-sample history.
func DefaultConfig() Config {
	return Config{
		Interval:          5 * time.Second,
		HistorySize:       60,
		Window:            5,
		SlopeThreshold:    2,
		DangerThreshold:   health.HealthyThreshold,
		CriticalThreshold: health.CriticalThreshold,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.HistorySize <= 0 {
		c.HistorySize = d.HistorySize
	}
	if c.Window < 2 {
		c.Window = d.Window
	}
	if c.Window > c.HistorySize {
		c.Window = c.HistorySize
	}
	if c.SlopeThreshold <= 0 {
		c.SlopeThreshold = d.SlopeThreshold
	}
	if c.DangerThreshold <= 0 {
		c.DangerThreshold = d.DangerThreshold
	}
	if c.CriticalThreshold <= 0 {
		c.CriticalThreshold = d.CriticalThreshold
	}
	return c
}
