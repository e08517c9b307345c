package gate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemMutex(t *testing.T) {
	m := NewSemMutex(1)

	require.NoError(t, m.Lock(context.Background()))
	assert.False(t, m.TryLock())

	// A blocking Lock on a held mutex honors the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, m.Lock(ctx), context.DeadlineExceeded)

	m.Unlock()
	assert.True(t, m.TryLock())
	m.Unlock()
}

func TestSemMutex_CountingCapacity(t *testing.T) {
	m := NewSemMutex(2)

	assert.True(t, m.TryLock())
	assert.True(t, m.TryLock())
	assert.False(t, m.TryLock())

	m.Unlock()
	assert.True(t, m.TryLock())
	m.Unlock()
	m.Unlock()
}
