package banker

import "errors"

var (
	// ErrInvalidClient is returned when a client index is outside the range
	// fixed at construction. This is a programming error on the caller's side.
	ErrInvalidClient = errors.New("client index out of range")

	// ErrDimensionMismatch is returned when a vector's length does not match
	// the number of resource classes.
	ErrDimensionMismatch = errors.New("vector length does not match resource class count")

	// ErrNegativeUnits is returned when a vector contains a negative entry.
	ErrNegativeUnits = errors.New("vector contains negative units")

	// ErrDemandExceedsTotal is returned by DeclareMaximum when a client
	// declares more units of a class than exist. This is a configuration
	// error; initialization should abort.
	ErrDemandExceedsTotal = errors.New("declared maximum exceeds total instances")

	// ErrExceedsMaximum is returned by Request when the request exceeds the
	// client's remaining declared need. The ledger is left unchanged.
	ErrExceedsMaximum = errors.New("request exceeds declared remaining need")

	// ErrInsufficientResources is returned by Request when fewer instances
	// are available than requested. This is an expected "try later" outcome,
	// not a fault; the ledger is left unchanged.
	ErrInsufficientResources = errors.New("not enough available instances")

	// ErrUnsafe is returned by Request when granting would leave the system
	// in a state from which not every client could complete. The tentative
	// allocation has been rolled back; the ledger is left unchanged.
	ErrUnsafe = errors.New("allocation would leave the system unsafe")

	// ErrExcessRelease is returned by Release when a client releases more
	// units than it currently holds. The ledger is left unchanged.
	ErrExcessRelease = errors.New("release exceeds current allocation")
)

// Retryable reports whether err is an expected, recoverable denial that the
// caller should retry with backoff rather than treat as a fault.
func Retryable(err error) bool {
	return errors.Is(err, ErrInsufficientResources) || errors.Is(err, ErrUnsafe)
}
