package gate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kainat5008/Traffic-System-OS/banker"
)

// newGate builds a gate over total with clients all declaring the same
// maximum, using in-process semaphore locks sized to each class total.
func newGate(t *testing.T, total []int, clients int, max []int) *Gate {
	t.Helper()

	ledger, err := banker.New(total, clients)
	require.NoError(t, err)
	for c := 0; c < clients; c++ {
		require.NoError(t, ledger.DeclareMaximum(c, max))
	}

	locks := make([]Mutex, len(total))
	for r, n := range total {
		locks[r] = NewSemMutex(int64(n))
	}
	g, err := New(ledger, locks)
	require.NoError(t, err)
	return g
}

func TestNew_Validation(t *testing.T) {
	ledger, err := banker.New([]int{1, 1}, 2)
	require.NoError(t, err)

	_, err = New(nil, nil)
	assert.Error(t, err)

	_, err = New(ledger, []Mutex{NewSemMutex(1)})
	assert.Error(t, err)

	_, err = New(ledger, []Mutex{NewSemMutex(1), nil})
	assert.Error(t, err)
}

// Two binary resource classes, two clients with full maxima. The pivotal
// step: with X holding lane, granting active to Y would set up the classic
// cross hold-and-wait (X may still demand active, Y may still demand lane),
// so the safety check refuses it. Only the lane holder itself can take the
// second lock.
func TestAcquireRelease_TwoBinaryClasses(t *testing.T) {
	ctx := context.Background()
	const (
		clientX = 0
		clientY = 1
		lane    = 0
		active  = 1
	)
	g := newGate(t, []int{1, 1}, 2, []int{1, 1})

	outcome, err := g.Acquire(ctx, clientX, lane)
	require.NoError(t, err)
	assert.Equal(t, Granted, outcome)
	assert.Equal(t, []int{0, 1}, g.Ledger().Snapshot().Available)
	assert.True(t, g.Held(clientX, lane))

	outcome, err = g.Acquire(ctx, clientY, lane)
	assert.Equal(t, Denied, outcome)
	assert.ErrorIs(t, err, banker.ErrInsufficientResources)
	assert.Equal(t, []int{0, 1}, g.Ledger().Snapshot().Available)
	assert.False(t, g.Held(clientY, lane))

	// Units are available, but the grant would be unsafe. Denied and rolled
	// back exactly.
	before := g.Ledger().Snapshot()
	outcome, err = g.Acquire(ctx, clientY, active)
	assert.Equal(t, Denied, outcome)
	assert.ErrorIs(t, err, banker.ErrUnsafe)
	assert.True(t, before.Equal(g.Ledger().Snapshot()))

	// X, already holding lane, can complete regardless, so its request for
	// active is safe.
	outcome, err = g.Acquire(ctx, clientX, active)
	require.NoError(t, err)
	assert.Equal(t, Granted, outcome)
	assert.Equal(t, []int{0, 0}, g.Ledger().Snapshot().Available)

	require.NoError(t, g.Release(clientX, lane))
	require.NoError(t, g.Release(clientX, active))
	assert.Equal(t, []int{1, 1}, g.Ledger().Snapshot().Available)

	// With X out of the way Y's retry goes through.
	outcome, err = g.Acquire(ctx, clientY, lane)
	require.NoError(t, err)
	assert.Equal(t, Granted, outcome)

	require.True(t, g.Ledger().Snapshot().Consistent())
}

// Three clients race for a two-unit class: exactly two grants, one denial,
// and available never goes negative.
func TestConcurrentAcquire_TwoUnits(t *testing.T) {
	g := newGate(t, []int{2}, 3, []int{1})

	var mu sync.Mutex
	granted, denied := 0, 0

	var eg errgroup.Group
	for c := 0; c < 3; c++ {
		c := c
		eg.Go(func() error {
			outcome, err := g.Acquire(context.Background(), c, 0)
			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case Granted:
				granted++
			case Denied:
				if !errors.Is(err, banker.ErrInsufficientResources) {
					return err
				}
				denied++
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, eg.Wait())

	assert.Equal(t, 2, granted)
	assert.Equal(t, 1, denied)

	snap := g.Ledger().Snapshot()
	assert.Equal(t, []int{0}, snap.Available)
	assert.True(t, snap.Consistent())

	// A release lets the loser in.
	released := false
	for c := 0; c < 3; c++ {
		if g.Held(c, 0) {
			require.NoError(t, g.Release(c, 0))
			released = true
			break
		}
	}
	require.True(t, released)

	for c := 0; c < 3; c++ {
		if !g.Held(c, 0) {
			outcome, err := g.Acquire(context.Background(), c, 0)
			require.NoError(t, err)
			assert.Equal(t, Granted, outcome)
			break
		}
	}
}

func TestRelease_NotHeld(t *testing.T) {
	g := newGate(t, []int{1}, 2, []int{1})

	err := g.Release(0, 0)
	assert.ErrorIs(t, err, ErrNotHeld)

	// A double release is rejected before it can touch the ledger.
	outcome, err := g.Acquire(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Equal(t, Granted, outcome)
	require.NoError(t, g.Release(0, 0))
	assert.ErrorIs(t, g.Release(0, 0), ErrNotHeld)

	snap := g.Ledger().Snapshot()
	assert.Equal(t, []int{1}, snap.Available)
	assert.True(t, snap.Consistent())
}

func TestAcquire_AlreadyHeldAndBadArgs(t *testing.T) {
	ctx := context.Background()
	g := newGate(t, []int{1}, 1, []int{1})

	outcome, err := g.Acquire(ctx, 0, 0)
	require.NoError(t, err)
	require.Equal(t, Granted, outcome)

	outcome, err = g.Acquire(ctx, 0, 0)
	assert.Equal(t, Failed, outcome)
	assert.ErrorIs(t, err, ErrAlreadyHeld)

	outcome, err = g.Acquire(ctx, 5, 0)
	assert.Equal(t, Failed, outcome)
	assert.ErrorIs(t, err, banker.ErrInvalidClient)

	outcome, err = g.Acquire(ctx, 0, 9)
	assert.Equal(t, Failed, outcome)
	assert.ErrorIs(t, err, ErrInvalidClass)
}

// brokenMutex always fails its blocking acquire, standing in for an OS-level
// lock fault.
type brokenMutex struct{ err error }

func (m *brokenMutex) Lock(context.Context) error { return m.err }
func (m *brokenMutex) TryLock() bool              { return false }
func (m *brokenMutex) Unlock()                    {}

// A physical lock failure after a logical grant must compensate the ledger:
// Failed outcome, nothing held, nothing leaked.
func TestAcquire_PhysicalFailureCompensates(t *testing.T) {
	ledger, err := banker.New([]int{1}, 1)
	require.NoError(t, err)
	require.NoError(t, ledger.DeclareMaximum(0, []int{1}))

	faultErr := errors.New("sem_wait: interrupted")
	g, err := New(ledger, []Mutex{&brokenMutex{err: faultErr}})
	require.NoError(t, err)

	before := ledger.Snapshot()
	outcome, err := g.Acquire(context.Background(), 0, 0)
	assert.Equal(t, Failed, outcome)
	assert.ErrorIs(t, err, faultErr)
	assert.False(t, g.Held(0, 0))
	assert.True(t, before.Equal(ledger.Snapshot()))
}

func TestTryAcquire(t *testing.T) {
	g := newGate(t, []int{1}, 2, []int{1})

	outcome, err := g.TryAcquire(0, 0)
	require.NoError(t, err)
	assert.Equal(t, Granted, outcome)

	outcome, err = g.TryAcquire(1, 0)
	assert.Equal(t, Denied, outcome)
	assert.ErrorIs(t, err, banker.ErrInsufficientResources)

	require.NoError(t, g.Release(0, 0))
	outcome, err = g.TryAcquire(1, 0)
	require.NoError(t, err)
	assert.Equal(t, Granted, outcome)
}

// When the physical lock is busy because of an out-of-band holder, a
// non-blocking attempt compensates the ledger and reports contention.
func TestTryAcquire_PhysicalContention(t *testing.T) {
	ledger, err := banker.New([]int{1}, 1)
	require.NoError(t, err)
	require.NoError(t, ledger.DeclareMaximum(0, []int{1}))

	lock := NewSemMutex(1)
	require.True(t, lock.TryLock()) // an external process holds it

	g, err := New(ledger, []Mutex{lock})
	require.NoError(t, err)

	before := ledger.Snapshot()
	outcome, err := g.TryAcquire(0, 0)
	assert.Equal(t, Denied, outcome)
	assert.ErrorIs(t, err, ErrContended)
	assert.True(t, before.Equal(ledger.Snapshot()))
}

func TestReap(t *testing.T) {
	ctx := context.Background()
	g := newGate(t, []int{1, 1}, 2, []int{1, 1})

	for class := 0; class < 2; class++ {
		outcome, err := g.Acquire(ctx, 0, class)
		require.NoError(t, err)
		require.Equal(t, Granted, outcome)
	}
	assert.Equal(t, []int{0, 0}, g.Ledger().Snapshot().Available)

	// Client 0 "crashed"; the reaper hands everything back.
	require.NoError(t, g.Reap(0))
	assert.Equal(t, []int{1, 1}, g.Ledger().Snapshot().Available)
	assert.False(t, g.Held(0, 0))
	assert.False(t, g.Held(0, 1))

	// Reaping a client that holds nothing is a no-op.
	require.NoError(t, g.Reap(1))
	assert.ErrorIs(t, g.Reap(7), banker.ErrInvalidClient)
}

func TestAcquireWithRetry(t *testing.T) {
	g := newGate(t, []int{1}, 2, []int{1})

	outcome, err := g.Acquire(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Equal(t, Granted, outcome)

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = g.Release(0, 0)
	}()

	limiter := rate.NewLimiter(rate.Every(5*time.Millisecond), 1)
	outcome, err = AcquireWithRetry(context.Background(), g, 1, 0, limiter)
	require.NoError(t, err)
	assert.Equal(t, Granted, outcome)
}

func TestAcquireWithRetry_ContextDone(t *testing.T) {
	g := newGate(t, []int{1}, 2, []int{1})

	outcome, err := g.Acquire(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Equal(t, Granted, outcome)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	outcome, err = AcquireWithRetry(ctx, g, 1, 0, nil)
	assert.Equal(t, Failed, outcome)
	assert.Error(t, err)
}
