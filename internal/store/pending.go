package store

import (
	"slices"
	"time"

	"github.com/lucasvital/todocomplete/internal/feed"
)

type Op string

const (
	OpCreate   Op = "create"
	OpUpdate   Op = "update"
	OpDelete   Op = "delete"
	OpShare    Op = "share"
	OpMarkRead Op = "markRead"
)

// Mutation is a write the store has issued but no snapshot reflects yet.
// Target is empty for a create until the remote acknowledges it.
type Mutation struct {
	ID     uint64    `json:"id"`
	Kind   feed.Kind `json:"kind"`
	Op     Op        `json:"op"`
	Target string    `json:"target,omitempty"`
	Issued time.Time `json:"issued"`
	Acked  bool      `json:"acked"`
}

type mutation struct {
	Mutation
	gen uint64
	// reflected reports whether the current snapshot of Kind includes the
	// write. Called with mu held.
	reflected func(target string) bool
}

// issue registers a mutation before the remote write starts.
func (s *Store) issue(kind feed.Kind, op Op, target string, reflected func(string) bool) *mutation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	m := &mutation{
		Mutation:  Mutation{ID: s.seq, Kind: kind, Op: op, Target: target, Issued: s.now()},
		gen:       s.gen,
		reflected: reflected,
	}
	s.pending = append(s.pending, m)
	s.broadcast()
	return m
}

// ack marks m acknowledged by the remote. The snapshot that reflects it
// may already have been delivered, so it is checked right away.
func (s *Store) ack(m *mutation, target string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.gen != s.gen {
		return
	}
	if m.Target == "" {
		m.Target = target
	}
	m.Acked = true
	s.settle(m.Kind)
	s.broadcast()
}

// drop removes a mutation the remote rejected and records err.
func (s *Store) drop(m *mutation, err error) error {
	s.mu.Lock()
	s.pending = slices.DeleteFunc(s.pending, func(p *mutation) bool { return p == m })
	s.mu.Unlock()
	return s.record(err)
}

// settle retires acknowledged mutations of kind that the current snapshot
// reflects. Callers hold mu.
func (s *Store) settle(kind feed.Kind) {
	s.pending = slices.DeleteFunc(s.pending, func(m *mutation) bool {
		return m.Kind == kind && m.Acked && m.reflected(m.Target)
	})
}

// Pending returns the mutations still waiting for a snapshot, oldest first.
func (s *Store) Pending() []Mutation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Mutation, 0, len(s.pending))
	for _, m := range s.pending {
		out = append(out, m.Mutation)
	}
	return out
}
