package store

import (
	"log"

	"github.com/lucasvital/todocomplete/internal/feed"
	"github.com/lucasvital/todocomplete/internal/remote"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// State describes one collection. Version counts delivered snapshots
// since the last Bind.
type State struct {
	Status  Status `json:"status"`
	Version uint64 `json:"version"`
	Err     error  `json:"-"`
}

type collection[T any] struct {
	kind  feed.Kind
	id    func(T) string
	items []T
	state State
}

func newCollection[T any](kind feed.Kind, id func(T) string) collection[T] {
	return collection[T]{kind: kind, id: id, state: State{Status: StatusIdle}}
}

func (c *collection[T]) reset(status Status) {
	c.items = nil
	c.state = State{Status: status}
}

func (c *collection[T]) find(id string) (T, bool) {
	for _, it := range c.items {
		if c.id(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// follow drains sub into c until the subscription ends.
func follow[T any](s *Store, b *binding, c *collection[T], sub *remote.Subscription[T]) {
	b.closers[c.kind] = sub.Close
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for ev := range sub.Events() {
			apply(s, b.gen, c, ev)
		}
	}()
}

// apply replaces the snapshot of c wholesale. Events from a previous
// binding are dropped.
func apply[T any](s *Store, gen uint64, c *collection[T], ev remote.Event[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	if ev.Err != nil {
		c.state.Status = StatusFailed
		c.state.Err = ev.Err
		s.err = ev.Err
		log.Printf("store: %s subscription: %v", c.kind, ev.Err)
	} else {
		c.items = ev.Snapshot
		c.state.Status = StatusReady
		c.state.Version++
		c.state.Err = nil
		s.settle(c.kind)
	}
	s.broadcast()
}
