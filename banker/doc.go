// Package banker implements Dijkstra's Banker's Algorithm for deadlock
// avoidance over a small, fixed set of reusable resource classes.
//
// A Ledger tracks, per client, the declared maximum demand, the current
// allocation, and the remaining need, plus the globally available instance
// count per resource class. Every request is applied tentatively and committed
// only if the resulting state is safe: some completion order exists in which
// every client can still obtain its full remaining need. Unsafe requests are
// rolled back exactly, leaving the ledger byte-for-byte unchanged.
//
// The ledger performs avoidance only. It never detects or breaks deadlocks
// that callers create outside its bookkeeping, and it gives no fairness
// guarantee: a denied request is not queued, the caller retries later.
//
// All Ledger methods are safe for concurrent use. Internally a single mutex
// scoped to the ledger serializes every operation; the mutex is never held
// across anything that blocks.
package banker
