package store

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lucasvital/todocomplete/internal/domain"
)

// Registry keeps one bound Store per signed-in user, shared by every
// request of that user. Stores nobody asked for within the idle timeout
// are released by Sweep.
type Registry struct {
	remote Remote
	opts   []Option
	now    func() time.Time

	mu     sync.Mutex
	stores map[string]*registered
}

type registered struct {
	store    *Store
	lastUsed time.Time
}

func NewRegistry(r Remote, opts ...Option) *Registry {
	return &Registry{remote: r, opts: opts, now: time.Now, stores: make(map[string]*registered)}
}

// Get returns the store bound to who, creating and binding it on first use.
func (r *Registry) Get(who domain.Identity) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.stores[who.ID]
	if !ok {
		e = &registered{store: New(r.remote, r.opts...)}
		r.stores[who.ID] = e
	}
	e.lastUsed = r.now()
	if cur, bound := e.store.Identity(); !bound || cur != who {
		e.store.Bind(context.Background(), who)
	}
	return e.store
}

// Release unbinds and forgets the store of userID.
func (r *Registry) Release(userID string) {
	r.mu.Lock()
	e, ok := r.stores[userID]
	delete(r.stores, userID)
	r.mu.Unlock()
	if ok {
		e.store.Close()
	}
}

// Sweep releases every store not used for idle or longer and returns how
// many it released. Sessions that expire without a sign-out end here.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	r.mu.Lock()
	var stale []*Store
	for id, e := range r.stores {
		if !e.lastUsed.After(cutoff) {
			stale = append(stale, e.store)
			delete(r.stores, id)
		}
	}
	r.mu.Unlock()
	for _, s := range stale {
		s.Close()
	}
	if len(stale) > 0 {
		log.Printf("store: released %d idle store(s)", len(stale))
	}
	return len(stale)
}

// Close releases every store.
func (r *Registry) Close() {
	r.mu.Lock()
	stores := r.stores
	r.stores = make(map[string]*registered)
	r.mu.Unlock()
	for _, e := range stores {
		e.store.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}
