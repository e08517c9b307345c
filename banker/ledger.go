package banker

import (
	"fmt"
	"sync"
)

// Ledger holds the Banker's Algorithm bookkeeping for a fixed number of
// clients and resource classes. The zero value is not usable; construct with
// New.
//
// No method ever hands out references to internal state. Callers observe the
// ledger only through Snapshot.
type Ledger struct {
	mu sync.Mutex

	total      []int   // fixed instance count per class
	available  []int   // total minus everything allocated
	maximum    [][]int // declared upper bound per client per class
	allocation [][]int // units currently held per client per class
	need       [][]int // maximum minus allocation
}

// New creates a ledger for the given per-class instance totals and a fixed
// client count. Totals must be non-negative and the dimensions positive;
// everything starts available.
func New(total []int, clients int) (*Ledger, error) {
	if len(total) == 0 {
		return nil, fmt.Errorf("banker: at least one resource class required")
	}
	if clients <= 0 {
		return nil, fmt.Errorf("banker: at least one client required, got %d", clients)
	}
	for r, n := range total {
		if n < 0 {
			return nil, fmt.Errorf("banker: class %d: %w", r, ErrNegativeUnits)
		}
	}

	l := &Ledger{
		total:     append([]int(nil), total...),
		available: append([]int(nil), total...),
	}
	l.maximum = newMatrix(clients, len(total))
	l.allocation = newMatrix(clients, len(total))
	l.need = newMatrix(clients, len(total))
	return l, nil
}

// Resources returns the number of resource classes.
func (l *Ledger) Resources() int { return len(l.total) }

// Clients returns the number of clients.
func (l *Ledger) Clients() int { return len(l.maximum) }

// DeclareMaximum sets the client's maximum demand vector and recomputes its
// remaining need. It must be called before the client's first Request and is
// expected exactly once per client.
func (l *Ledger) DeclareMaximum(client int, max []int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkClient(client); err != nil {
		return err
	}
	if err := l.checkVector(max); err != nil {
		return err
	}
	for r, m := range max {
		if m > l.total[r] {
			return fmt.Errorf("client %d class %d: max %d of %d: %w",
				client, r, m, l.total[r], ErrDemandExceedsTotal)
		}
	}

	copy(l.maximum[client], max)
	for r := range max {
		l.need[client][r] = l.maximum[client][r] - l.allocation[client][r]
	}
	return nil
}

// Request asks for the given units on behalf of a client. It returns nil on
// grant. On any denial (ErrExceedsMaximum, ErrInsufficientResources,
// ErrUnsafe) the ledger is left exactly as it was; ErrInsufficientResources
// and ErrUnsafe are expected outcomes the caller retries with backoff.
func (l *Ledger) Request(client int, request []int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkClient(client); err != nil {
		return err
	}
	if err := l.checkVector(request); err != nil {
		return err
	}

	for r, units := range request {
		if units > l.need[client][r] {
			return fmt.Errorf("client %d class %d: %w", client, r, ErrExceedsMaximum)
		}
	}
	for r, units := range request {
		if units > l.available[r] {
			return fmt.Errorf("client %d class %d: %w", client, r, ErrInsufficientResources)
		}
	}

	// Tentatively grant, then verify safety.
	l.apply(client, request, +1)
	if !l.isSafeLocked() {
		l.apply(client, request, -1)
		return fmt.Errorf("client %d: %w", client, ErrUnsafe)
	}
	return nil
}

// Release returns the given units from a client to the available pool. A
// release exceeding the client's current allocation is rejected with
// ErrExcessRelease and changes nothing.
func (l *Ledger) Release(client int, release []int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkClient(client); err != nil {
		return err
	}
	if err := l.checkVector(release); err != nil {
		return err
	}
	for r, units := range release {
		if units > l.allocation[client][r] {
			return fmt.Errorf("client %d class %d: %w", client, r, ErrExcessRelease)
		}
	}

	l.apply(client, release, -1)
	return nil
}

// IsSafe reports whether the current state is safe: some completion order
// exists in which every client can obtain its full remaining need. It never
// mutates the ledger and is deterministic for identical states.
func (l *Ledger) IsSafe() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.isSafeLocked()
}

// isSafeLocked runs the safety scan. Scan order: ascending client index, full
// passes, repeated until a pass simulates no completion. The order only
// affects which completion sequence is found, never the verdict; ascending
// passes keep traces reproducible.
func (l *Ledger) isSafeLocked() bool {
	work := append([]int(nil), l.available...)
	finish := make([]bool, len(l.maximum))

	for progress := true; progress; {
		progress = false
		for c := range l.maximum {
			if finish[c] || !vectorLE(l.need[c], work) {
				continue
			}
			// Client c can run to completion and hand back its holdings.
			for r := range work {
				work[r] += l.allocation[c][r]
			}
			finish[c] = true
			progress = true
		}
	}

	for _, done := range finish {
		if !done {
			return false
		}
	}
	return true
}

// apply adds (sign=+1) or removes (sign=-1) units from a client's allocation,
// keeping available and need in step. Caller holds l.mu and has validated.
func (l *Ledger) apply(client int, units []int, sign int) {
	for r, n := range units {
		l.available[r] -= sign * n
		l.allocation[client][r] += sign * n
		l.need[client][r] -= sign * n
	}
}

func (l *Ledger) checkClient(client int) error {
	if client < 0 || client >= len(l.maximum) {
		return fmt.Errorf("client %d of %d: %w", client, len(l.maximum), ErrInvalidClient)
	}
	return nil
}

func (l *Ledger) checkVector(v []int) error {
	if len(v) != len(l.total) {
		return fmt.Errorf("got %d entries, want %d: %w", len(v), len(l.total), ErrDimensionMismatch)
	}
	for r, n := range v {
		if n < 0 {
			return fmt.Errorf("class %d: %w", r, ErrNegativeUnits)
		}
	}
	return nil
}

func newMatrix(rows, cols int) [][]int {
	m := make([][]int, rows)
	for i := range m {
		m[i] = make([]int, cols)
	}
	return m
}

// vectorLE reports a[r] <= b[r] for every r.
func vectorLE(a, b []int) bool {
	for r := range a {
		if a[r] > b[r] {
			return false
		}
	}
	return true
}
