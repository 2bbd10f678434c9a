package utils

import "sync"

// KeyedLocks hands out one mutex per key. Entries are dropped once no
// goroutine holds or waits for them.
type KeyedLocks[K comparable] struct {
	mu    sync.Mutex
	locks map[K]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

func NewKeyedLocks[K comparable]() *KeyedLocks[K] {
	return &KeyedLocks[K]{locks: make(map[K]*keyedLock)}
}

// Lock blocks until key is free and returns the matching unlock.
func (l *KeyedLocks[K]) Lock(key K) func() {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &keyedLock{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.Lock()
	return func() {
		entry.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

// Len reports how many keys are currently held or awaited.
func (l *KeyedLocks[K]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
