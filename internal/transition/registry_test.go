package transition

import (
	"context"
	"testing"

	"github.com/railzwaylabs/sagalog/internal/domain/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(ctx context.Context, e *event.Event) (Result, error) {
	return Result{}, nil
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("activate", noop))
	require.NoError(t, r.Register("charge", noop))

	h, ok := r.Lookup("activate")
	assert.True(t, ok)
	assert.NotNil(t, h)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"activate", "charge"}, r.Names())
}

func TestRegistry_Errors(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("activate", noop))

	assert.ErrorIs(t, r.Register("activate", noop), ErrDuplicate)
	assert.ErrorIs(t, r.Register("", noop), ErrInvalidName)
	assert.ErrorIs(t, r.Register("x", nil), ErrNilHandler)
}

func TestRegistry_MustRegisterPanics(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("activate", noop)
	assert.Panics(t, func() { r.MustRegister("activate", noop) })
}
