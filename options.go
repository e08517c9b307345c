package trafficos

import "github.com/kainat5008/Traffic-System-OS/gate"

type options struct {
	logger    *Logger
	metrics   MetricsCollector
	locks     []gate.Mutex
	lockDir   string
	tracePath string
}

// Option configures System construction.
type Option func(*options)

// WithLogger sets the logger. Default is a noop logger.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetricsCollector sets the metrics sink. Default discards metrics.
func WithMetricsCollector(m MetricsCollector) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithLocks supplies the physical lock for each resource class, in roster
// order. Use this to plug in custom Mutex implementations; the default is an
// in-process semaphore per class sized to the class total.
func WithLocks(locks []gate.Mutex) Option {
	return func(o *options) {
		o.locks = locks
	}
}

// WithLockDir backs every resource class with a flock-based lock file in
// dir, named after the class. Lock files are shareable across processes, so
// independent processes pointing at the same dir contend on the same
// physical locks.
func WithLockDir(dir string) Option {
	return func(o *options) {
		o.lockDir = dir
	}
}

// WithTrace records every allocation decision to a compressed trace file at
// path, for debugging and replay.
func WithTrace(path string) Option {
	return func(o *options) {
		o.tracePath = path
	}
}
