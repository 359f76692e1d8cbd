// Package lock provides channel-level locking so that every mutating game
// operation runs as a single atomic read-modify-write against that
// channel's session. Unrelated channels never contend.
package lock

import "sync"

// channelMutex wraps a mutex so instances can be pooled.
type channelMutex struct {
	mu sync.Mutex
}

// ChannelLock provides per-channel mutual exclusion keyed by channel id.
type ChannelLock struct {
	locks sync.Map // map[string]*channelMutex
	pool  sync.Pool
}

// NewChannelLock creates a new ChannelLock instance.
func NewChannelLock() *ChannelLock {
	return &ChannelLock{
		pool: sync.Pool{
			New: func() any {
				return &channelMutex{}
			},
		},
	}
}

// getLock retrieves or creates a mutex for the given channel id.
func (cl *ChannelLock) getLock(channelID string) *channelMutex {
	if v, ok := cl.locks.Load(channelID); ok {
		return v.(*channelMutex)
	}

	newLock := cl.pool.Get().(*channelMutex)

	actual, loaded := cl.locks.LoadOrStore(channelID, newLock)
	if loaded {
		// Another goroutine created the lock first, return ours to pool
		cl.pool.Put(newLock)
	}
	return actual.(*channelMutex)
}

// Lock acquires the lock for a channel.
func (cl *ChannelLock) Lock(channelID string) {
	cl.getLock(channelID).mu.Lock()
}

// Unlock releases the lock for a channel.
func (cl *ChannelLock) Unlock(channelID string) {
	if v, ok := cl.locks.Load(channelID); ok {
		v.(*channelMutex).mu.Unlock()
	}
}

// TryLock attempts to acquire the lock without blocking.
// Returns true if the lock was acquired, false otherwise.
func (cl *ChannelLock) TryLock(channelID string) bool {
	return cl.getLock(channelID).mu.TryLock()
}

// WithLock executes a function while holding the channel's lock.
func (cl *ChannelLock) WithLock(channelID string, fn func() error) error {
	cl.Lock(channelID)
	defer cl.Unlock(channelID)
	return fn()
}
