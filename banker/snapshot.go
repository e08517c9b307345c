package banker

import "slices"

// Snapshot is a deep copy of the ledger's state at one instant. It shares no
// memory with the ledger and is safe to retain, compare, and inspect.
type Snapshot struct {
	Total      []int
	Available  []int
	Maximum    [][]int
	Allocation [][]int
	Need       [][]int
}

// Snapshot returns a consistent copy of the full ledger state, taken under
// the same critical section as every state-changing operation.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	return Snapshot{
		Total:      append([]int(nil), l.total...),
		Available:  append([]int(nil), l.available...),
		Maximum:    copyMatrix(l.maximum),
		Allocation: copyMatrix(l.allocation),
		Need:       copyMatrix(l.need),
	}
}

// Consistent verifies the ledger invariants on the snapshot:
// available plus the column sum of allocations equals the total for every
// class, no need is negative, and no allocation exceeds its declared maximum.
func (s Snapshot) Consistent() bool {
	for r := range s.Total {
		allocated := 0
		for c := range s.Allocation {
			allocated += s.Allocation[c][r]
		}
		if s.Available[r]+allocated != s.Total[r] {
			return false
		}
		if s.Available[r] < 0 || s.Available[r] > s.Total[r] {
			return false
		}
	}
	for c := range s.Allocation {
		for r := range s.Total {
			if s.Need[c][r] < 0 || s.Allocation[c][r] > s.Maximum[c][r] {
				return false
			}
			if s.Need[c][r] != s.Maximum[c][r]-s.Allocation[c][r] {
				return false
			}
		}
	}
	return true
}

// Equal reports whether two snapshots carry identical state.
func (s Snapshot) Equal(o Snapshot) bool {
	return slices.Equal(s.Total, o.Total) &&
		slices.Equal(s.Available, o.Available) &&
		matrixEq(s.Maximum, o.Maximum) &&
		matrixEq(s.Allocation, o.Allocation) &&
		matrixEq(s.Need, o.Need)
}

func copyMatrix(m [][]int) [][]int {
	out := make([][]int, len(m))
	for i, row := range m {
		out[i] = append([]int(nil), row...)
	}
	return out
}

func matrixEq(a, b [][]int) bool {
	return slices.EqualFunc(a, b, slices.Equal)
}
