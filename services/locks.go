package services

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"
)

// KeyedLocker - взаимное исключение по ключу, общий для всех сервисов процесса. Ключи, взятые одним вызовом,
// захватываются в отсортированном порядке.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	sem  *semaphore.Weighted
	refs int
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[string]*keyedEntry)}
}

func (l *KeyedLocker) acquireEntry(key string) *keyedEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.locks[key]
	if !ok {
		e = &keyedEntry{sem: semaphore.NewWeighted(1)}
		l.locks[key] = e
	}
	e.refs++
	return e
}

func (l *KeyedLocker) releaseEntry(key string, e *keyedEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// Lock захватывает все ключи или ни одного. Возвращаемая функция
// освобождает их в обратном порядке.
func (l *KeyedLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = dedupSorted(keys)
	held := make([]*keyedEntry, 0, len(keys))

	unlock := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].sem.Release(1)
			l.releaseEntry(keys[i], held[i])
		}
	}

	for _, key := range keys {
		e := l.acquireEntry(key)
		if err := e.sem.Acquire(ctx, 1); err != nil {
			l.releaseEntry(key, e)
			unlock()
			return nil, err
		}
		held = append(held, e)
	}
	return unlock, nil
}

func dedupSorted(keys []string) []string {
	out := make([]string, len(keys))
	copy(out, keys)
	sort.Strings(out)
	n := 0
	for i, k := range out {
		if i > 0 && k == out[n-1] {
			continue
		}
		out[n] = k
		n++
	}
	return out[:n]
}
