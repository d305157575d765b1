package service

import (
	"context"
	"sync"
)

// taskEntry tracks the background runners of one session.
type taskEntry struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// taskRegistry owns the per-session background goroutines. Cancel
// confirms: it returns only after the runners have exited.
type taskRegistry struct {
	mu      sync.Mutex
	entries map[string]*taskEntry
}

func newTaskRegistry() *taskRegistry {
	return &taskRegistry{entries: make(map[string]*taskEntry)}
}

// Start launches runners for sessionID, cancelling any previous set.
func (t *taskRegistry) Start(parent context.Context, sessionID string, runners ...func(ctx context.Context)) {
	ctx, cancel := context.WithCancel(parent)
	entry := &taskEntry{cancel: cancel, done: make(chan struct{})}

	t.mu.Lock()
	if prev, ok := t.entries[sessionID]; ok {
		prev.cancel()
	}
	t.entries[sessionID] = entry
	t.mu.Unlock()

	var wg sync.WaitGroup
	for _, run := range runners {
		wg.Add(1)
		go func(run func(ctx context.Context)) {
			defer wg.Done()
			run(ctx)
		}(run)
	}
	go func() {
		wg.Wait()
		close(entry.done)
	}()
}

// Cancel stops the runners of sessionID and waits for them to exit.
// Calling it for an unknown session is a no-op.
func (t *taskRegistry) Cancel(sessionID string) {
	t.mu.Lock()
	entry, ok := t.entries[sessionID]
	if ok {
		delete(t.entries, sessionID)
	}
	t.mu.Unlock()
	if !ok {
		return
	}
	entry.cancel()
	<-entry.done
}

// CancelAll stops every runner and waits for all of them.
func (t *taskRegistry) CancelAll() {
	t.mu.Lock()
	entries := make([]*taskEntry, 0, len(t.entries))
	for id, entry := range t.entries {
		entries = append(entries, entry)
		delete(t.entries, id)
	}
	t.mu.Unlock()

	for _, entry := range entries {
		entry.cancel()
	}
	for _, entry := range entries {
		<-entry.done
	}
}

// lockTable hands out one mutex per key so lifecycle writes and
// telemetry writes to the same session never interleave.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*sync.Mutex)}
}

func (l *lockTable) get(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[key] = lock
	}
	return lock
}

// release drops the lock entry once a session is terminal. A late
// writer gets a fresh mutex, re-reads the session and aborts on the
// terminal status.
func (l *lockTable) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, key)
}
