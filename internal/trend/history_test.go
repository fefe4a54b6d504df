package trend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"handoff/internal/health"
)

func TestHistory(t *testing.T) {
	h := NewHistory(3)
	assert.Empty(t, h.Samples())
	assert.Empty(t, h.Last(5))

	for _, sc := range []int{10, 20, 30, 40} {
		h.Add(health.Snapshot{Score: sc})
	}
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, []int{30, 40}, h.Last(2))
	assert.Equal(t, []int{20, 30, 40}, h.Last(10))

	samples := h.Samples()
	assert.Equal(t, 20, samples[0].Score)
	assert.Equal(t, 40, samples[2].Score)
}

func TestDegrading(t *testing.T) {
	tests := []struct {
		name   string
		scores []int
		slope  float64
		want   bool
	}{
		{"strict steep decline", []int{100, 90, 80, 70, 60}, 2, true},
		{"exactly at slope", []int{100, 98, 96}, 2, true},
		{"shallow decline", []int{100, 99, 98, 97}, 2, false},
		{"plateau breaks strictness", []int{100, 90, 90, 80}, 2, false},
		{"recovery breaks strictness", []int{100, 80, 85, 70}, 2, false},
		{"single sample", []int{50}, 2, false},
		{"empty", nil, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Degrading(tt.scores, tt.slope))
		})
	}
}
