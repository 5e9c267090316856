package execution

import "sync"

// SerialGuard hands out one mutex per key so a require_serial hook never has
// two processes alive at the same time
type SerialGuard struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// DefaultGuard is shared by every orchestrator in the process that is not
// given its own guard
var DefaultGuard = NewSerialGuard()

// NewSerialGuard creates an empty guard
func NewSerialGuard() *SerialGuard {
	return &SerialGuard{locks: make(map[string]*sync.Mutex)}
}

// Lock blocks until key is free and returns the function that releases it
func (g *SerialGuard) Lock(key string) func() {
	g.mu.Lock()
	lock, ok := g.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[key] = lock
	}
	g.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
