package feed

import (
	"context"
	"sync"
)

// Memory is an in-process feed for single-node runs and tests.
type Memory struct {
	mu       sync.Mutex
	watchers map[Kind]map[*memWatcher]struct{}
}

func NewMemory() *Memory {
	return &Memory{watchers: make(map[Kind]map[*memWatcher]struct{})}
}

func (m *Memory) Publish(_ context.Context, kind Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for w := range m.watchers[kind] {
		notify(w.changes)
	}
	return nil
}

func (m *Memory) Watch(_ context.Context, kind Kind) (Watcher, error) {
	w := &memWatcher{feed: m, kind: kind, changes: make(chan struct{}, 1)}
	m.mu.Lock()
	if m.watchers[kind] == nil {
		m.watchers[kind] = make(map[*memWatcher]struct{})
	}
	m.watchers[kind][w] = struct{}{}
	m.mu.Unlock()
	return w, nil
}

// Fail closes every watcher of kind with err, simulating a broken transport.
func (m *Memory) Fail(kind Kind, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for w := range m.watchers[kind] {
		w.err = err
		delete(m.watchers[kind], w)
		close(w.changes)
	}
}

// Watchers returns the number of live watchers on kind.
func (m *Memory) Watchers(kind Kind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.watchers[kind])
}

type memWatcher struct {
	feed    *Memory
	kind    Kind
	changes chan struct{}
	err     error
}

func (w *memWatcher) Changes() <-chan struct{} { return w.changes }

func (w *memWatcher) Err() error {
	w.feed.mu.Lock()
	defer w.feed.mu.Unlock()
	return w.err
}

func (w *memWatcher) Close() error {
	w.feed.mu.Lock()
	defer w.feed.mu.Unlock()
	if _, ok := w.feed.watchers[w.kind][w]; ok {
		delete(w.feed.watchers[w.kind], w)
		close(w.changes)
	}
	return nil
}
