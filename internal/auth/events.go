package auth

import (
	"sync"

	"github.com/lucasvital/todocomplete/internal/domain"
)

// Events reports identity changes of a session to long-lived consumers
// such as event streams. A watcher first receives the session's identity
// and then nil once the session signs out, after which its channel is
// closed.
type Events struct {
	mu       sync.Mutex
	next     int
	watchers map[string]map[int]chan *domain.Identity
}

func NewEvents() *Events {
	return &Events{watchers: make(map[string]map[int]chan *domain.Identity)}
}

// Watch follows session sessionID, currently signed in as who. The
// returned stop func releases the watcher.
func (e *Events) Watch(sessionID string, who domain.Identity) (<-chan *domain.Identity, func()) {
	ch := make(chan *domain.Identity, 2)
	ch <- &who

	e.mu.Lock()
	e.next++
	id := e.next
	if e.watchers[sessionID] == nil {
		e.watchers[sessionID] = make(map[int]chan *domain.Identity)
	}
	e.watchers[sessionID][id] = ch
	e.mu.Unlock()

	stop := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if w, ok := e.watchers[sessionID][id]; ok {
			delete(e.watchers[sessionID], id)
			if len(e.watchers[sessionID]) == 0 {
				delete(e.watchers, sessionID)
			}
			close(w)
		}
	}
	return ch, stop
}

// SignedOut ends every watcher of sessionID.
func (e *Events) SignedOut(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ch := range e.watchers[sessionID] {
		ch <- nil
		close(ch)
	}
	delete(e.watchers, sessionID)
}

// Watchers counts live watchers of sessionID.
func (e *Events) Watchers(sessionID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.watchers[sessionID])
}
