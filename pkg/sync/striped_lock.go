package sync

import (
	"sync"
)

const replicasPerLock = 200

// StripedLock consistently maps an unbounded key space onto a fixed set of
// locks, bounding memory while letting unrelated keys proceed concurrently.
type StripedLock struct {
	locks []sync.RWMutex
	ring  *ring
}

// NewStripedLock returns a StripedLock with a static number of stripes.
func NewStripedLock(stripes uint) *StripedLock {
	return &StripedLock{
		locks: make([]sync.RWMutex, stripes),
		ring:  newRing(stripes, replicasPerLock),
	}
}

// Get returns the lock guarding key.
func (l *StripedLock) Get(key []byte) *sync.RWMutex {
	return &l.locks[l.ring.shard(key)]
}
