package trafficos

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/kainat5008/Traffic-System-OS/banker"
	"github.com/kainat5008/Traffic-System-OS/gate"
	"github.com/kainat5008/Traffic-System-OS/trace"
)

// System is the assembled allocation engine: the roster's clients and
// resource classes, the banker ledger, and the allocation gate, with logging,
// metrics, and optional decision tracing around every operation.
//
// Construct once at startup, before any client activity; Close once after
// all clients have stopped.
type System struct {
	roster  *Roster
	ledger  *banker.Ledger
	gate    *gate.Gate
	logger  *Logger
	metrics MetricsCollector
	trace   *trace.Recorder
	closers []io.Closer
	closed  atomic.Bool
}

// New validates the roster, builds the ledger, declares every client's
// maximum, and wires the physical locks. A roster whose declared demand
// exceeds a class total aborts construction.
func New(roster *Roster, optFns ...Option) (*System, error) {
	if roster == nil {
		return nil, ErrEmptyRoster
	}
	if err := roster.Validate(); err != nil {
		return nil, fmt.Errorf("trafficos: %w", err)
	}

	o := options{
		logger:  NoopLogger(),
		metrics: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		fn(&o)
	}

	ledger, err := banker.New(roster.Totals(), len(roster.Clients))
	if err != nil {
		return nil, fmt.Errorf("trafficos: %w", err)
	}
	for id, c := range roster.Clients {
		if err := ledger.DeclareMaximum(id, c.Maximum); err != nil {
			return nil, fmt.Errorf("trafficos: declare %q: %w", c.Name, err)
		}
	}

	s := &System{
		roster:  roster,
		ledger:  ledger,
		logger:  o.logger,
		metrics: o.metrics,
	}

	locks, err := s.buildLocks(o)
	if err != nil {
		return nil, err
	}
	if s.gate, err = gate.New(ledger, locks); err != nil {
		s.closeClosers()
		return nil, fmt.Errorf("trafficos: %w", err)
	}

	if o.tracePath != "" {
		rec, err := trace.NewRecorder(o.tracePath)
		if err != nil {
			s.closeClosers()
			return nil, fmt.Errorf("trafficos: %w", err)
		}
		s.trace = rec
	}

	s.logger.Info("allocation engine ready",
		"resources", len(roster.Resources),
		"clients", len(roster.Clients),
	)
	return s, nil
}

func (s *System) buildLocks(o options) ([]gate.Mutex, error) {
	if o.locks != nil {
		if len(o.locks) != len(s.roster.Resources) {
			return nil, fmt.Errorf("trafficos: %d locks for %d resource classes",
				len(o.locks), len(s.roster.Resources))
		}
		return o.locks, nil
	}

	locks := make([]gate.Mutex, len(s.roster.Resources))
	for i, res := range s.roster.Resources {
		if o.lockDir == "" {
			locks[i] = gate.NewSemMutex(int64(res.Total))
			continue
		}
		fm, err := gate.NewFileMutex(filepath.Join(o.lockDir, res.Name+".lock"))
		if err != nil {
			s.closeClosers()
			return nil, fmt.Errorf("trafficos: lock for %q: %w", res.Name, err)
		}
		locks[i] = fm
		s.closers = append(s.closers, fm)
	}
	return locks, nil
}

// Roster returns the roster the system was built from. Read-only.
func (s *System) Roster() *Roster { return s.roster }

// Snapshot returns a copy of the ledger state for monitoring and tests.
func (s *System) Snapshot() banker.Snapshot { return s.ledger.Snapshot() }

// Acquire obtains one unit of the resource class for the client, blocking on
// the physical lock until ctx is done. Denied means back off and retry.
func (s *System) Acquire(ctx context.Context, client, class int) (gate.Outcome, error) {
	if s.closed.Load() {
		return gate.Failed, ErrClosed
	}

	start := time.Now()
	outcome, err := s.gate.Acquire(ctx, client, class)
	s.metrics.RecordAcquire(outcome, time.Since(start), err)
	s.logger.LogAcquire(s.roster.ClientName(client), s.roster.ResourceName(class), outcome, err)
	s.record("acquire", client, class, outcome.String(), err)
	return outcome, err
}

// AcquireWithRetry repeats Acquire until the outcome is something other than
// Denied, pacing retries with the limiter so denied clients back off instead
// of spinning. A nil limiter gets the gate package's default pacing. Every
// attempt is metered and traced individually.
func (s *System) AcquireWithRetry(ctx context.Context, client, class int, limiter *rate.Limiter) (gate.Outcome, error) {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(100), 1)
	}
	for {
		outcome, err := s.Acquire(ctx, client, class)
		if outcome != gate.Denied {
			return outcome, err
		}
		if werr := limiter.Wait(ctx); werr != nil {
			return gate.Failed, werr
		}
	}
}

// TryAcquire is the non-blocking variant of Acquire.
func (s *System) TryAcquire(client, class int) (gate.Outcome, error) {
	if s.closed.Load() {
		return gate.Failed, ErrClosed
	}

	start := time.Now()
	outcome, err := s.gate.TryAcquire(client, class)
	s.metrics.RecordAcquire(outcome, time.Since(start), err)
	s.logger.LogAcquire(s.roster.ClientName(client), s.roster.ResourceName(class), outcome, err)
	s.record("try-acquire", client, class, outcome.String(), err)
	return outcome, err
}

// Release returns one unit of the resource class held by the client.
func (s *System) Release(client, class int) error {
	if s.closed.Load() {
		return ErrClosed
	}

	start := time.Now()
	err := s.gate.Release(client, class)
	s.metrics.RecordRelease(time.Since(start), err)
	s.logger.LogRelease(s.roster.ClientName(client), s.roster.ResourceName(class), err)
	outcome := "released"
	if err != nil {
		outcome = "failed"
	}
	s.record("release", client, class, outcome, err)
	return err
}

// Reap releases every unit the client still holds. Call it on behalf of a
// client that crashed; the system performs no crash detection itself.
func (s *System) Reap(client int) error {
	if s.closed.Load() {
		return ErrClosed
	}

	start := time.Now()
	err := s.gate.Reap(client)
	s.metrics.RecordReap(time.Since(start), err)
	s.logger.LogReap(s.roster.ClientName(client), err)
	outcome := "released"
	if err != nil {
		outcome = "failed"
	}
	s.record("reap", client, -1, outcome, err)
	return err
}

// record appends a trace entry when tracing is on. Trace writes sit outside
// the ledger's critical section; a slow disk never blocks other clients'
// decisions.
func (s *System) record(op string, client, class int, outcome string, err error) {
	if s.trace == nil {
		return
	}
	e := trace.Entry{
		Client:    client,
		Class:     class,
		Op:        op,
		Outcome:   outcome,
		Available: s.ledger.Snapshot().Available,
	}
	if err != nil {
		e.Detail = err.Error()
	}
	if recErr := s.trace.Record(e); recErr != nil {
		s.logger.Warn("trace record failed", "error", recErr)
	}
}

func (s *System) closeClosers() {
	for _, c := range s.closers {
		_ = c.Close()
	}
	s.closers = nil
}
