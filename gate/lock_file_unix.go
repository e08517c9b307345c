//go:build unix

package gate

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// FileMutex is a Mutex shareable across process boundaries, backed by an
// advisory flock(2) on a named lock file. Any process opening the same path
// contends on the same lock, which is what lets independent processes share
// one allocation gate's resource classes.
//
// flock has no native deadline, so Lock polls with non-blocking attempts;
// lockPollInterval bounds the cancellation latency, not the fairness.
type FileMutex struct {
	file *os.File
}

const lockPollInterval = 10 * time.Millisecond

// NewFileMutex opens (creating if needed) the lock file at path.
func NewFileMutex(path string) (*FileMutex, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	return &FileMutex{file: f}, nil
}

func (m *FileMutex) Lock(ctx context.Context) error {
	for {
		if m.TryLock() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

func (m *FileMutex) TryLock() bool {
	err := unix.Flock(int(m.file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	return err == nil
}

func (m *FileMutex) Unlock() {
	// Releasing a lock we hold on an open fd cannot meaningfully fail.
	_ = unix.Flock(int(m.file.Fd()), unix.LOCK_UN)
}

// Close releases the lock file descriptor. The lock itself, if still held,
// is released by the kernel on close.
func (m *FileMutex) Close() error {
	return m.file.Close()
}

// Path returns the lock file path.
func (m *FileMutex) Path() string {
	return m.file.Name()
}
