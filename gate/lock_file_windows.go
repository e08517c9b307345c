//go:build windows

package gate

import (
	"context"
	"errors"
)

// FileMutex requires flock(2); cross-process lock files are unix-only.
// Windows callers use SemMutex or supply their own Mutex implementation.
type FileMutex struct{}

var errFileMutexUnsupported = errors.New("file-backed locks are not supported on windows")

// NewFileMutex always fails on windows.
func NewFileMutex(string) (*FileMutex, error) {
	return nil, errFileMutexUnsupported
}

func (m *FileMutex) Lock(context.Context) error { return errFileMutexUnsupported }
func (m *FileMutex) TryLock() bool              { return false }
func (m *FileMutex) Unlock()                    {}
func (m *FileMutex) Close() error               { return nil }
func (m *FileMutex) Path() string               { return "" }
