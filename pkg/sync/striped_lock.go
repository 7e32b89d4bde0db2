package sync

import (
	"sort"
	base "sync"
)

const (
	hashEntriesPerLock = 200
)

// StripedLock is a partitioned locking mechanism that consistently maps a key
// space to a set of locks. This provides concurrent data access while also
// limiting the total memory footprint.
type StripedLock struct {
	locks    []base.RWMutex
	hashRing *ring
}

// NewStripedLock returns a new StripedLock with a static number of stripes.
func NewStripedLock(stripes uint) *StripedLock {
	return &StripedLock{
		locks:    make([]base.RWMutex, stripes),
		hashRing: newRing(stripes, hashEntriesPerLock),
	}
}

// Get gets the lock for a key
func (l *StripedLock) Get(key []byte) *base.RWMutex {
	return &l.locks[l.Stripe(key)]
}

// Stripe returns the index of the lock guarding a key.
func (l *StripedLock) Stripe(key []byte) int {
	return l.hashRing.stripe(key)
}

// Acquire locks the stripes of every provided key, write locking any stripe
// guarding a writable key and read locking the rest. Stripes are acquired
// once each in ascending order, so concurrent callers can't deadlock. The
// returned function releases every acquired stripe.
func (l *StripedLock) Acquire(writable, readonly [][]byte) (unlock func()) {
	exclusive := make(map[int]bool)
	for _, key := range readonly {
		stripe := l.Stripe(key)
		if _, ok := exclusive[stripe]; !ok {
			exclusive[stripe] = false
		}
	}
	for _, key := range writable {
		exclusive[l.Stripe(key)] = true
	}

	stripes := make([]int, 0, len(exclusive))
	for stripe := range exclusive {
		stripes = append(stripes, stripe)
	}
	sort.Ints(stripes)

	for _, stripe := range stripes {
		if exclusive[stripe] {
			l.locks[stripe].Lock()
		} else {
			l.locks[stripe].RLock()
		}
	}

	return func() {
		for i := len(stripes) - 1; i >= 0; i-- {
			if exclusive[stripes[i]] {
				l.locks[stripes[i]].Unlock()
			} else {
				l.locks[stripes[i]].RUnlock()
			}
		}
	}
}
