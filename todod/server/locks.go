package server

import "sync"

// sessionLocks serializes execution steps per session id. The engine
// assumes at most one in-flight step per session; two requests against
// the same session must not interleave, while distinct sessions run
// fully concurrently.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: map[string]*sync.Mutex{}}
}

// tryAcquire returns a release func when the session lock was taken, or
// ok=false when another step for the same session is in flight.
func (l *sessionLocks) tryAcquire(sessionID string) (func(), bool) {
	l.mu.Lock()
	lock, exists := l.locks[sessionID]
	if !exists {
		lock = &sync.Mutex{}
		l.locks[sessionID] = lock
	}
	l.mu.Unlock()

	if !lock.TryLock() {
		return nil, false
	}
	return lock.Unlock, true
}
