package realtime

import "sync"

// KeyedMutex provides one mutex per int64 key. The dispatcher serializes
// persist-then-fanout per conversation with it, so delivery order always
// matches persisted order while unrelated conversations proceed in parallel.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex constructs an empty keyed mutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[int64]*keyedLock)}
}

// Lock acquires the mutex for key and returns the matching unlock function.
// Entries are reference-counted and freed when the last holder unlocks.
func (k *KeyedMutex) Lock(key int64) (unlock func()) {
	k.mu.Lock()
	l := k.locks[key]
	if l == nil {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
