package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct code", func(t *testing.T) {
		err := New(CodeInvalidInput, "bad category")
		assert.True(t, HasCode(err, CodeInvalidInput))
		assert.False(t, HasCode(err, CodeInternal))
	})

	t.Run("matches code through wrapping", func(t *testing.T) {
		inner := New(CodeNotFound, "audit missing")
		outer := Wrap(inner, CodeInternal, "lookup failed")
		assert.True(t, HasCode(outer, CodeInternal))
		assert.True(t, HasCode(outer, CodeNotFound))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("handler: %w", New(CodeDocumentRejected, "not a financial document"))
		assert.True(t, HasCode(err, CodeDocumentRejected))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	t.Run("nil cause returns nil", func(t *testing.T) {
		require.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})

	t.Run("cause stays reachable via errors.Is", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeInternal, "store unavailable")
		assert.ErrorIs(t, err, cause)
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeTimeout, CodeOf(New(CodeTimeout, "deadline exceeded")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("uncoded")))

	outer := Wrap(New(CodeNotFound, "inner"), CodeInternal, "outer")
	assert.Equal(t, CodeInternal, CodeOf(outer))
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "bad page count", MessageOf(New(CodeInvalidInput, "bad page count")))
	assert.Empty(t, MessageOf(errors.New("uncoded")))
}
