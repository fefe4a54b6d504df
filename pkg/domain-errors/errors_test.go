package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapAndHasCode(t *testing.T) {
	base := errors.New("redis down")

	t.Run("wrap nil returns nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "load"))
	})

	t.Run("wrapped error keeps cause", func(t *testing.T) {
		err := Wrap(base, CodeUnavailable, "load state")
		assert.ErrorIs(t, err, base)
		assert.Equal(t, "load state: redis down", err.Error())
		assert.True(t, HasCode(err, CodeUnavailable))
	})

	t.Run("nested codes are all visible to HasCode", func(t *testing.T) {
		inner := New(CodeServiceNotRegistered, "audio not bound")
		outer := Wrap(inner, CodeInternal, "dispatch")
		assert.True(t, HasCode(outer, CodeServiceNotRegistered))
		assert.True(t, HasCode(outer, CodeInternal))
		assert.True(t, Is(outer, CodeInternal))
		assert.False(t, Is(outer, CodeServiceNotRegistered))
	})

	t.Run("fmt wrapping preserves the code", func(t *testing.T) {
		err := fmt.Errorf("context: %w", New(CodeInvalidArgument, "nil instance"))
		assert.True(t, HasCode(err, CodeInvalidArgument))
		assert.Equal(t, CodeInvalidArgument, CodeOf(err))
	})

	t.Run("foreign errors map to internal", func(t *testing.T) {
		assert.False(t, HasCode(base, CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(base))
	})
}
