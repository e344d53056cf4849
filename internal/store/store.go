// Package store keeps the latest snapshot of every collection for the
// signed-in user and writes mutations through to the remote client.
//
// Mutations are never applied locally: a created or updated record becomes
// visible only when the next snapshot from the remote includes it. Until
// then the mutation is reported by Pending.
package store

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lucasvital/todocomplete/internal/domain"
	"github.com/lucasvital/todocomplete/internal/feed"
	"github.com/lucasvital/todocomplete/internal/remote"
)

// Remote is the slice of *remote.Client the store depends on.
type Remote interface {
	SubscribeTodos(ctx context.Context, who domain.Identity) *remote.Subscription[domain.Todo]
	SubscribeLists(ctx context.Context, who domain.Identity) *remote.Subscription[domain.List]
	SubscribeCategories(ctx context.Context, who domain.Identity) *remote.Subscription[domain.Category]
	SubscribeNotifications(ctx context.Context, who domain.Identity) *remote.Subscription[domain.Notification]

	CreateTodo(ctx context.Context, who domain.Identity, t domain.Todo) (domain.Todo, error)
	UpdateTodo(ctx context.Context, who domain.Identity, id string, patch domain.TodoPatch) (domain.Todo, error)
	DeleteTodo(ctx context.Context, who domain.Identity, id string) error

	CreateList(ctx context.Context, who domain.Identity, l domain.List) (domain.List, error)
	UpdateList(ctx context.Context, who domain.Identity, id string, patch domain.ListPatch) (domain.List, error)
	DeleteList(ctx context.Context, who domain.Identity, id string) error
	AddCollaborator(ctx context.Context, who domain.Identity, id, email string) (domain.List, error)

	CreateCategory(ctx context.Context, who domain.Identity, c domain.Category) (domain.Category, error)
	UpdateCategory(ctx context.Context, who domain.Identity, id string, patch domain.CategoryPatch) (domain.Category, error)
	DeleteCategory(ctx context.Context, who domain.Identity, id string) error

	Notify(ctx context.Context, n domain.Notification) (domain.Notification, error)
	MarkRead(ctx context.Context, who domain.Identity, id string) error
}

var kinds = []feed.Kind{feed.KindTodos, feed.KindLists, feed.KindCategories, feed.KindNotifications}

type Store struct {
	remote Remote
	now    func() time.Time

	// bindMu serializes Bind, Unbind and Refresh. It is never held
	// together with mu while waiting on a subscription.
	bindMu sync.Mutex
	b      *binding

	mu            sync.RWMutex
	who           *domain.Identity
	gen           uint64
	todos         collection[domain.Todo]
	lists         collection[domain.List]
	categories    collection[domain.Category]
	notifications collection[domain.Notification]
	pending       []*mutation
	seq           uint64
	err           error
	changed       chan struct{}
}

type Option func(*Store)

// WithClock sets the clock used to stamp updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(r Remote, opts ...Option) *Store {
	s := &Store{
		remote:        r,
		now:           time.Now,
		todos:         newCollection(feed.KindTodos, func(t domain.Todo) string { return t.ID }),
		lists:         newCollection(feed.KindLists, func(l domain.List) string { return l.ID }),
		categories:    newCollection(feed.KindCategories, func(c domain.Category) string { return c.ID }),
		notifications: newCollection(feed.KindNotifications, func(n domain.Notification) string { return n.ID }),
		changed:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// binding is the set of live subscriptions for one identity.
type binding struct {
	who     domain.Identity
	gen     uint64
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	closers map[feed.Kind]func()
}

// Bind scopes every collection to who, releasing the subscriptions of the
// previous identity first. Subscriptions end when ctx does.
func (s *Store) Bind(ctx context.Context, who domain.Identity) {
	s.bindMu.Lock()
	defer s.bindMu.Unlock()
	s.release()

	s.mu.Lock()
	s.gen++
	s.who = &who
	s.reset(StatusLoading)
	gen := s.gen
	s.broadcast()
	s.mu.Unlock()

	bctx, cancel := context.WithCancel(ctx)
	b := &binding{who: who, gen: gen, ctx: bctx, cancel: cancel, closers: make(map[feed.Kind]func())}
	for _, k := range kinds {
		s.subscribe(b, k)
	}
	s.b = b
}

// Unbind releases every subscription and clears all state.
func (s *Store) Unbind() {
	s.bindMu.Lock()
	defer s.bindMu.Unlock()
	s.release()

	s.mu.Lock()
	s.gen++
	s.who = nil
	s.reset(StatusIdle)
	s.broadcast()
	s.mu.Unlock()
}

// Close is Unbind; it lets a Store be deferred like other resources.
func (s *Store) Close() { s.Unbind() }

// FollowIdentity binds to every identity received on ch and unbinds on
// nil. It returns when ch is closed or ctx ends, leaving the store unbound.
func (s *Store) FollowIdentity(ctx context.Context, ch <-chan *domain.Identity) error {
	defer s.Unbind()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case who, ok := <-ch:
			if !ok {
				return nil
			}
			if who == nil {
				s.Unbind()
				continue
			}
			if cur, bound := s.Identity(); bound && cur == *who {
				continue
			}
			s.Bind(ctx, *who)
		}
	}
}

// Refresh re-subscribes every collection whose subscription failed. It
// returns ErrAuth when no identity is bound.
func (s *Store) Refresh() error {
	s.bindMu.Lock()
	defer s.bindMu.Unlock()
	if s.b == nil {
		return s.record(fmt.Errorf("%w: no signed-in user", domain.ErrAuth))
	}
	for _, k := range kinds {
		s.mu.RLock()
		failed := s.state(k).Status == StatusFailed
		s.mu.RUnlock()
		if !failed {
			continue
		}
		if closeSub := s.b.closers[k]; closeSub != nil {
			closeSub()
		}
		s.mu.Lock()
		s.setStatus(k, StatusLoading)
		s.broadcast()
		s.mu.Unlock()
		s.subscribe(s.b, k)
	}
	return nil
}

// release tears down the current binding. Callers hold bindMu.
func (s *Store) release() {
	b := s.b
	if b == nil {
		return
	}
	s.b = nil
	b.cancel()
	for _, closeSub := range b.closers {
		closeSub()
	}
	b.wg.Wait()
}

func (s *Store) subscribe(b *binding, kind feed.Kind) {
	switch kind {
	case feed.KindTodos:
		follow(s, b, &s.todos, s.remote.SubscribeTodos(b.ctx, b.who))
	case feed.KindLists:
		follow(s, b, &s.lists, s.remote.SubscribeLists(b.ctx, b.who))
	case feed.KindCategories:
		follow(s, b, &s.categories, s.remote.SubscribeCategories(b.ctx, b.who))
	case feed.KindNotifications:
		follow(s, b, &s.notifications, s.remote.SubscribeNotifications(b.ctx, b.who))
	}
}

// reset clears every collection and pending mutation. Callers hold mu.
func (s *Store) reset(status Status) {
	s.todos.reset(status)
	s.lists.reset(status)
	s.categories.reset(status)
	s.notifications.reset(status)
	s.pending = nil
	s.err = nil
}

func (s *Store) state(kind feed.Kind) State {
	switch kind {
	case feed.KindTodos:
		return s.todos.state
	case feed.KindLists:
		return s.lists.state
	case feed.KindCategories:
		return s.categories.state
	default:
		return s.notifications.state
	}
}

func (s *Store) setStatus(kind feed.Kind, st Status) {
	switch kind {
	case feed.KindTodos:
		s.todos.state.Status = st
	case feed.KindLists:
		s.lists.state.Status = st
	case feed.KindCategories:
		s.categories.state.Status = st
	case feed.KindNotifications:
		s.notifications.state.Status = st
	}
}

// broadcast wakes everyone waiting on Updates. Callers hold mu.
func (s *Store) broadcast() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// record stores err as the store's last error and returns it.
func (s *Store) record(err error) error {
	s.mu.Lock()
	s.err = err
	s.broadcast()
	s.mu.Unlock()
	log.Printf("store: %v", err)
	return err
}

func (s *Store) identity() (domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.who == nil {
		return domain.Identity{}, fmt.Errorf("%w: no signed-in user", domain.ErrAuth)
	}
	return *s.who, nil
}

// stamp is the updatedAt value for a write. Postgres keeps microseconds.
func (s *Store) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Identity returns the bound identity.
func (s *Store) Identity() (domain.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.who == nil {
		return domain.Identity{}, false
	}
	return *s.who, true
}

// Updates returns a channel that is closed at the next state change.
func (s *Store) Updates() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.changed
}

// Err returns the most recent failure, or nil.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// State reports the status of one collection.
func (s *Store) State(kind feed.Kind) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state(kind)
}

// WaitReady blocks until every collection has its first snapshot. It
// returns the error of the first collection that fails.
func (s *Store) WaitReady(ctx context.Context) error {
	for {
		s.mu.RLock()
		if s.who == nil {
			s.mu.RUnlock()
			return fmt.Errorf("%w: no signed-in user", domain.ErrAuth)
		}
		ready := true
		for _, k := range kinds {
			st := s.state(k)
			if st.Status == StatusFailed {
				s.mu.RUnlock()
				return st.Err
			}
			if st.Status != StatusReady {
				ready = false
			}
		}
		ch := s.changed
		s.mu.RUnlock()
		if ready {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

func (s *Store) Todos() []domain.Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.todos.items
}

func (s *Store) Lists() []domain.List {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lists.items
}

func (s *Store) Categories() []domain.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categories.items
}

func (s *Store) Notifications() []domain.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notifications.items
}
