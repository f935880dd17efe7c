package submissionservice

import "sync"

// keyedMutex serializes work per key and forgets keys nobody holds or waits
// for. Each key counts the writes committed under it so a holder can tell
// whether another writer got there first while it was queued.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu     sync.Mutex
	refs   int
	writes uint64
}

// keyedLease is one holder's claim on a key.
type keyedLease struct {
	owner *keyedMutex
	key   string
	entry *keyedEntry
	seen  uint64
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedEntry)}
}

// Lock blocks until key is free. The write count is sampled before blocking.
func (k *keyedMutex) Lock(key string) *keyedLease {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	seen := e.writes
	k.mu.Unlock()

	e.mu.Lock()
	return &keyedLease{owner: k, key: key, entry: e, seen: seen}
}

// Overtaken reports whether a write was committed under the key after this
// lease queued.
func (l *keyedLease) Overtaken() bool {
	l.owner.mu.Lock()
	defer l.owner.mu.Unlock()
	return l.entry.writes != l.seen
}

// Committed records a successful write under the key.
func (l *keyedLease) Committed() {
	l.owner.mu.Lock()
	l.entry.writes++
	l.owner.mu.Unlock()
}

func (l *keyedLease) Unlock() {
	l.entry.mu.Unlock()
	k := l.owner
	k.mu.Lock()
	l.entry.refs--
	if l.entry.refs == 0 {
		delete(k.locks, l.key)
	}
	k.mu.Unlock()
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

// queued returns how many callers hold or wait for key.
func (k *keyedMutex) queued(key string) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	if e, ok := k.locks[key]; ok {
		return e.refs
	}
	return 0
}
