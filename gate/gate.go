// Package gate couples the banker ledger's logical safety decisions with the
// physical exclusive locks guarding each resource class.
//
// The two layers must never diverge: a physically held lock the ledger does
// not know about produces deadlocks the safety check cannot see, and a
// ledger grant without the physical lock provides no actual exclusion. The
// gate enforces the pairing order (logical grant before physical acquire,
// physical release before logical release) and compensates the ledger when
// a physical acquisition fails partway.
package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/kainat5008/Traffic-System-OS/banker"
)

var (
	// ErrInvalidClass is returned when a resource class index is out of range.
	ErrInvalidClass = errors.New("resource class index out of range")

	// ErrAlreadyHeld is returned when a client acquires a class it already
	// holds. The gate hands out at most one unit per client per class.
	ErrAlreadyHeld = errors.New("client already holds this resource class")

	// ErrNotHeld is returned when a client releases a class it does not
	// hold. Rejecting here is what keeps a double release from corrupting
	// the ledger's available counts.
	ErrNotHeld = errors.New("client does not hold this resource class")

	// ErrContended is the denial reason when a non-blocking attempt found
	// the physical lock busy.
	ErrContended = errors.New("physical lock contended")
)

// Outcome classifies the result of an acquisition attempt.
type Outcome int

const (
	// Granted means the client holds the unit both logically and physically.
	Granted Outcome = iota

	// Denied means the ledger (or a non-blocking lock attempt) refused;
	// nothing is held and nothing changed. Back off and retry later.
	Denied

	// Failed means a fault outside normal contention: invalid arguments, a
	// cancelled context, or an OS-level lock error. Any partial logical
	// grant has been compensated.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Gate is the only interface through which clients touch resource classes.
// It owns one physical Mutex per class and tracks, per class, which clients
// currently hold a unit.
type Gate struct {
	ledger *banker.Ledger
	locks  []Mutex

	mu      sync.Mutex        // guards holders; never held across a Lock wait
	holders []*roaring.Bitmap // per class, the client IDs holding a unit
}

// New creates a gate over the ledger with one physical lock per resource
// class. len(locks) must equal the ledger's class count.
func New(ledger *banker.Ledger, locks []Mutex) (*Gate, error) {
	if ledger == nil {
		return nil, errors.New("gate: nil ledger")
	}
	if len(locks) != ledger.Resources() {
		return nil, fmt.Errorf("gate: %d locks for %d resource classes", len(locks), ledger.Resources())
	}
	for i, l := range locks {
		if l == nil {
			return nil, fmt.Errorf("gate: nil lock for class %d", i)
		}
	}

	holders := make([]*roaring.Bitmap, len(locks))
	for i := range holders {
		holders[i] = roaring.New()
	}
	return &Gate{
		ledger:  ledger,
		locks:   append([]Mutex(nil), locks...),
		holders: holders,
	}, nil
}

// Ledger returns the ledger the gate decides against.
func (g *Gate) Ledger() *banker.Ledger { return g.ledger }

// Acquire obtains one unit of the resource class for the client: ledger
// grant first, then the physical lock. A Denied outcome means the caller
// should back off and retry; the physical lock was never touched. On a
// physical failure the ledger grant is compensated before returning Failed,
// so no unit leaks.
//
// The ledger's critical section is never held while waiting on the physical
// lock; the blocking wait honors ctx.
func (g *Gate) Acquire(ctx context.Context, client, class int) (Outcome, error) {
	if err := g.checkClass(class); err != nil {
		return Failed, err
	}
	if held, err := g.isHeld(client, class); err != nil {
		return Failed, err
	} else if held {
		return Failed, fmt.Errorf("client %d class %d: %w", client, class, ErrAlreadyHeld)
	}

	request := g.unitVector(class)
	if err := g.ledger.Request(client, request); err != nil {
		if banker.Retryable(err) || errors.Is(err, banker.ErrExceedsMaximum) {
			return Denied, err
		}
		return Failed, err
	}

	if err := g.locks[class].Lock(ctx); err != nil {
		// The logical grant must not outlive the failed physical acquire.
		if relErr := g.ledger.Release(client, request); relErr != nil {
			err = errors.Join(err, relErr)
		}
		return Failed, fmt.Errorf("acquire class %d: %w", class, err)
	}

	g.markHeld(client, class)
	return Granted, nil
}

// TryAcquire is the non-blocking variant of Acquire. Physical contention is
// reported as Denied with ErrContended, after compensating the ledger.
func (g *Gate) TryAcquire(client, class int) (Outcome, error) {
	if err := g.checkClass(class); err != nil {
		return Failed, err
	}
	if held, err := g.isHeld(client, class); err != nil {
		return Failed, err
	} else if held {
		return Failed, fmt.Errorf("client %d class %d: %w", client, class, ErrAlreadyHeld)
	}

	request := g.unitVector(class)
	if err := g.ledger.Request(client, request); err != nil {
		if banker.Retryable(err) || errors.Is(err, banker.ErrExceedsMaximum) {
			return Denied, err
		}
		return Failed, err
	}

	if !g.locks[class].TryLock() {
		if err := g.ledger.Release(client, request); err != nil {
			return Failed, err
		}
		return Denied, fmt.Errorf("class %d: %w", class, ErrContended)
	}

	g.markHeld(client, class)
	return Granted, nil
}

// Release returns one unit of the resource class: physical unlock first, so
// waiters proceed immediately, then the ledger release, which only affects
// future safety decisions. Releasing a class the client does not hold is
// rejected with ErrNotHeld and changes nothing.
func (g *Gate) Release(client, class int) error {
	if err := g.checkClass(class); err != nil {
		return err
	}

	g.mu.Lock()
	if client < 0 || !g.holders[class].Contains(uint32(client)) {
		g.mu.Unlock()
		return fmt.Errorf("client %d class %d: %w", client, class, ErrNotHeld)
	}
	g.holders[class].Remove(uint32(client))
	g.mu.Unlock()

	g.locks[class].Unlock()
	return g.ledger.Release(client, g.unitVector(class))
}

// Reap releases every resource class the client still holds. It is the hook
// for an external reaper cleaning up after a crashed client; the gate itself
// performs no crash detection.
func (g *Gate) Reap(client int) error {
	if client < 0 || client >= g.ledger.Clients() {
		return fmt.Errorf("client %d: %w", client, banker.ErrInvalidClient)
	}

	var firstErr error
	for class := range g.locks {
		g.mu.Lock()
		held := g.holders[class].Contains(uint32(client))
		g.mu.Unlock()
		if !held {
			continue
		}
		if err := g.Release(client, class); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Held reports whether the client currently holds a unit of the class.
func (g *Gate) Held(client, class int) bool {
	if class < 0 || class >= len(g.locks) || client < 0 {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.holders[class].Contains(uint32(client))
}

func (g *Gate) unitVector(class int) []int {
	v := make([]int, g.ledger.Resources())
	v[class] = 1
	return v
}

func (g *Gate) checkClass(class int) error {
	if class < 0 || class >= len(g.locks) {
		return fmt.Errorf("class %d of %d: %w", class, len(g.locks), ErrInvalidClass)
	}
	return nil
}

func (g *Gate) isHeld(client, class int) (bool, error) {
	if client < 0 || client >= g.ledger.Clients() {
		return false, fmt.Errorf("client %d: %w", client, banker.ErrInvalidClient)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.holders[class].Contains(uint32(client)), nil
}

func (g *Gate) markHeld(client, class int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.holders[class].Add(uint32(client))
}
