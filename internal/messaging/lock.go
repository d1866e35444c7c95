package messaging

import "sync/atomic"

// runLock is a non-blocking lock guarding a single poll loop per watcher
type runLock struct {
	state atomic.Int32 // 0 = idle, 1 = running
}

// TryAcquire takes the lock if it is free
func (l *runLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release frees the lock. Only the holder may call it.
func (l *runLock) Release() {
	l.state.Store(0)
}

// Held reports whether the lock is taken
func (l *runLock) Held() bool {
	return l.state.Load() == 1
}
