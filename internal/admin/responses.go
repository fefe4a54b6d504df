package admin

import (
	"handoff/internal/health"
	"handoff/internal/scheduler"
	"handoff/internal/telemetry"
)

// HoldResponse reports the hold state after a hold or release request.
type HoldResponse struct {
	Changed bool             `json:"changed"`
	Status  scheduler.Status `json:"status"`
}

// HealthResponse is a health snapshot with its reporting band.
type HealthResponse struct {
	health.Snapshot
	Band health.Band `json:"band"`
}

// UsageResponse lists per subsystem counters and the recent access window.
type UsageResponse struct {
	Stats  []telemetry.UsageStats `json:"stats"`
	Recent []telemetry.UsageEvent `json:"recent"`
}
