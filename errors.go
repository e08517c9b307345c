package trafficos

import "errors"

var (
	// ErrClosed is returned by operations on a System after Close.
	ErrClosed = errors.New("system is closed")

	// ErrEmptyRoster is returned when the roster declares no resources or
	// no clients.
	ErrEmptyRoster = errors.New("roster must declare at least one resource and one client")

	// ErrDuplicateName is returned when roster names collide.
	ErrDuplicateName = errors.New("duplicate name in roster")

	// ErrUnknownName is returned by name lookups that match nothing.
	ErrUnknownName = errors.New("name not present in roster")
)
