package gate

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Mutex is the physical exclusion primitive guarding one resource class. The
// ledger decides whether acquiring is safe; the Mutex provides the actual
// exclusion. Implementations must support blocking acquisition with
// cancellation and a non-blocking attempt.
type Mutex interface {
	// Lock acquires one unit, blocking until it is available or ctx is done.
	Lock(ctx context.Context) error

	// TryLock acquires one unit without blocking and reports success.
	TryLock() bool

	// Unlock returns one unit. Calling Unlock without a matching Lock is a
	// caller bug; the gate's holder bookkeeping prevents it.
	Unlock()
}

// SemMutex is an in-process Mutex backed by a weighted semaphore. With
// capacity 1 it is a plain mutex; larger capacities model counting resource
// classes.
type SemMutex struct {
	sem *semaphore.Weighted
}

// NewSemMutex creates a semaphore-backed Mutex with the given unit capacity.
func NewSemMutex(capacity int64) *SemMutex {
	if capacity <= 0 {
		capacity = 1
	}
	return &SemMutex{sem: semaphore.NewWeighted(capacity)}
}

func (m *SemMutex) Lock(ctx context.Context) error {
	return m.sem.Acquire(ctx, 1)
}

func (m *SemMutex) TryLock() bool {
	return m.sem.TryAcquire(1)
}

func (m *SemMutex) Unlock() {
	m.sem.Release(1)
}
