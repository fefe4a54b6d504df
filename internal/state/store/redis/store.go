package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"handoff/internal/scheduler"
	"handoff/internal/state"
	"handoff/pkg/platform/sentinel"
)

var saveDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "handoff_state_save_duration_ms",
	Help:    "Latency of migration state checkpoints to Redis in milliseconds",
	Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
})

const (
	defaultKey = "handoff:migration:state"

	fieldPhase          = "phase"
	fieldStartedAt      = "schedule_started_at"
	fieldRollbackAt     = "last_rollback_at"
	fieldRollbackReason = "last_rollback_reason"
	fieldRollbackCount  = "rollback_count"
	fieldCleanupAt      = "cleanup_completed_at"
	fieldSavedAt        = "saved_at"
)

// Store keeps the snapshot as a Redis hash so operators can read single
// fields with HGET.
type Store struct {
	client *redis.Client
	key    string
}

type Option func(*Store)

// WithKey overrides the hash key.
func WithKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client, key: defaultKey}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Load(ctx context.Context) (state.Snapshot, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return state.Snapshot{}, fmt.Errorf("read migration state: %w", err)
	}
	if len(fields) == 0 {
		return state.Snapshot{}, sentinel.ErrNotFound
	}
	return decode(fields)
}

func (s *Store) Save(ctx context.Context, snap state.Snapshot) error {
	start := time.Now()
	defer func() {
		saveDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key)
	pipe.HSet(ctx, s.key, encode(snap))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write migration state: %w", err)
	}
	return nil
}

func encode(snap state.Snapshot) map[string]any {
	out := map[string]any{
		fieldPhase:         string(snap.Phase),
		fieldRollbackCount: strconv.Itoa(snap.RollbackCount),
	}
	putTime := func(field string, t time.Time) {
		if !t.IsZero() {
			out[field] = t.UTC().Format(time.RFC3339Nano)
		}
	}
	putTime(fieldStartedAt, snap.ScheduleStartedAt)
	putTime(fieldRollbackAt, snap.LastRollbackAt)
	putTime(fieldCleanupAt, snap.CleanupCompletedAt)
	putTime(fieldSavedAt, snap.SavedAt)
	if snap.LastRollbackReason != "" {
		out[fieldRollbackReason] = snap.LastRollbackReason
	}
	return out
}

func decode(fields map[string]string) (state.Snapshot, error) {
	snap := state.Snapshot{
		Phase:              scheduler.PhaseID(fields[fieldPhase]),
		LastRollbackReason: fields[fieldRollbackReason],
	}
	if snap.Phase == "" {
		return state.Snapshot{}, fmt.Errorf("%w: missing %s", sentinel.ErrCorrupt, fieldPhase)
	}
	if v, ok := fields[fieldRollbackCount]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return state.Snapshot{}, fmt.Errorf("%w: %s: %v", sentinel.ErrCorrupt, fieldRollbackCount, err)
		}
		snap.RollbackCount = n
	}
	var errs []error
	parseTime := func(field string, dst *time.Time) {
		v, ok := fields[field]
		if !ok {
			return
		}
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
			return
		}
		*dst = t
	}
	parseTime(fieldStartedAt, &snap.ScheduleStartedAt)
	parseTime(fieldRollbackAt, &snap.LastRollbackAt)
	parseTime(fieldCleanupAt, &snap.CleanupCompletedAt)
	parseTime(fieldSavedAt, &snap.SavedAt)
	if err := errors.Join(errs...); err != nil {
		return state.Snapshot{}, fmt.Errorf("%w: %v", sentinel.ErrCorrupt, err)
	}
	return snap, nil
}
