// Package trafficos provides a safe concurrent resource-allocation engine
// built on Dijkstra's Banker's Algorithm, guarding a small fixed set of
// shared exclusive locks against unsafe acquisition by competing clients.
//
// # Quick Start
//
//	roster := trafficos.DefaultRoster()
//	sys, _ := trafficos.New(roster)
//	defer sys.Close()
//
//	spawner, _ := roster.ClientID("spawn-vehicles")
//	lane, _ := roster.ResourceClass("lane")
//
//	outcome, err := sys.Acquire(ctx, spawner, lane)
//	if outcome == gate.Granted {
//	    defer sys.Release(spawner, lane)
//	    // ... touch the lane queues ...
//	}
//
// A Denied outcome is a normal "try later" answer, not a fault: back off and
// retry (gate.AcquireWithRetry paces this). A Failed outcome is a real error;
// the engine has already compensated its bookkeeping, nothing leaked.
//
// # Model
//
// Every resource class is one exclusive lock with a fixed unit count. Each
// client declares up front the most units of each class it will ever hold at
// once. Before any grant the engine simulates whether every client could
// still run to completion; grants that could strand the system are refused
// and rolled back. The logical decision and the physical lock move in
// lockstep: grant before lock on acquire, unlock before release on the way
// back, with compensation when the physical step fails.
//
// # Scope
//
// The engine avoids deadlocks, it does not detect or break them, and it
// promises no fairness among denied callers. Clients and resource classes
// are fixed at startup. A client that crashes while holding units leaks them
// until something calls Reap on its behalf.
package trafficos
