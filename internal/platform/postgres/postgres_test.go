package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"handoff/internal/platform/config"
)

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), config.PostgresConfig{})
	assert.ErrorContains(t, err, "DSN is required")
}
