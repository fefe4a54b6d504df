package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// Categories drive retention and routing in the sinks.
type EventCategory string

const (
	// CategoryRollout covers forward progress of the migration schedule.
	CategoryRollout EventCategory = "rollout"

	// CategorySafety covers rollbacks, emergencies and trend warnings.
	// These feed alerting and are never sampled.
	CategorySafety EventCategory = "safety"

	// CategoryOperations covers operator housekeeping such as holds and resets.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted by the migration core to record an operational decision.
// Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string
	Category  EventCategory
	Timestamp time.Time
	Action    string
	// Subject is the subsystem or phase the action applied to.
	Subject string
	Phase   string
	Reason  string
	// Score is the health score observed when the action was taken, -1 if unknown.
	Score     int
	RequestID string
	ActorID   string
}

type AuditEvent string

const (
	// Schedule events
	EventScheduleStarted  AuditEvent = "schedule_started"
	EventPhaseAdvanced    AuditEvent = "phase_advanced"
	EventScheduleReset    AuditEvent = "schedule_reset"
	EventScheduleRestored AuditEvent = "schedule_restored"
	EventScheduleHeld     AuditEvent = "schedule_held"
	EventScheduleReleased AuditEvent = "schedule_released"

	// Safety events
	EventEmergencyRollback AuditEvent = "emergency_rollback"
	EventServiceRolledBack AuditEvent = "service_rolled_back"
	EventRollbackRestored  AuditEvent = "rollback_restored"
	EventEmergencyFlagged  AuditEvent = "emergency_flagged"
	EventTrendWarning      AuditEvent = "trend_warning"

	// Finalization events
	EventFinalized          AuditEvent = "finalized"
	EventFinalizationFailed AuditEvent = "finalization_failed"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventScheduleStarted:  CategoryRollout,
	EventPhaseAdvanced:    CategoryRollout,
	EventScheduleRestored: CategoryRollout,
	EventFinalized:        CategoryRollout,

	EventEmergencyRollback:  CategorySafety,
	EventServiceRolledBack:  CategorySafety,
	EventRollbackRestored:   CategorySafety,
	EventEmergencyFlagged:   CategorySafety,
	EventTrendWarning:       CategorySafety,
	EventFinalizationFailed: CategorySafety,

	EventScheduleReset:    CategoryOperations,
	EventScheduleHeld:     CategoryOperations,
	EventScheduleReleased: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
