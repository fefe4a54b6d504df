package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handoff/internal/scheduler"
	"handoff/internal/state"
	"handoff/pkg/platform/sentinel"
)

func TestEncodeDecode(t *testing.T) {
	at := time.Date(2026, 7, 2, 8, 30, 0, 0, time.UTC)
	snap := state.Snapshot{
		Phase:              scheduler.PhaseDay4,
		ScheduleStartedAt:  at,
		LastRollbackAt:     at.Add(time.Minute),
		LastRollbackReason: "spatial crackle",
		RollbackCount:      3,
	}
	fields := encode(snap)
	assert.NotContains(t, fields, fieldCleanupAt)

	strs := make(map[string]string, len(fields))
	for k, v := range fields {
		strs[k] = v.(string)
	}
	got, err := decode(strs)
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestDecodeCorrupt(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
	}{
		{"missing phase", map[string]string{fieldRollbackCount: "1"}},
		{"bad count", map[string]string{fieldPhase: "day1", fieldRollbackCount: "many"}},
		{"bad time", map[string]string{fieldPhase: "day1", fieldStartedAt: "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decode(tt.fields)
			assert.ErrorIs(t, err, sentinel.ErrCorrupt)
		})
	}
}
