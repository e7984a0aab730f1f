// OS-level file locking for cross-process coordination.
//
// A File holds its lock for its whole lifetime: exclusive when opened for
// writing, shared when read-only. Locks are taken without blocking so a
// second writer fails fast with StatusFileIsBusy instead of hanging.
//
// The mutex is held across the lock syscall so that Fd() cannot race with a
// concurrent setFile(nil) during Compact.
package engine

import (
	"os"
	"sync"
)

// LockMode selects shared (read) or exclusive (write) locking.
type LockMode int

const (
	LockShared LockMode = iota
	LockExclusive
)

type fileLock struct {
	mu sync.Mutex
	f  *os.File
}

// TryLock acquires a lock without waiting. Returns nil immediately if the
// handle has been cleared via setFile(nil).
func (l *fileLock) TryLock(mode LockMode) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	return l.lock(mode)
}

// Unlock releases the lock. Returns nil immediately if the handle has been
// cleared via setFile(nil).
func (l *fileLock) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	return l.unlock()
}

// setFile swaps the underlying handle. Passing nil disables further
// locking until a new handle is set.
func (l *fileLock) setFile(f *os.File) {
	l.mu.Lock()
	l.f = f
	l.mu.Unlock()
}
