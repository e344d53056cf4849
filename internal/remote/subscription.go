package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lucasvital/todocomplete/internal/domain"
	"github.com/lucasvital/todocomplete/internal/feed"
)

// Event is one delivery of a subscription: the complete current record
// set for the subscription's filter, or the error that ended it.
type Event[T any] struct {
	Snapshot []T
	Err      error
}

// Subscription streams full snapshots of one collection. Events is closed
// after Close, after a transport error, or when the parent context ends.
type Subscription[T any] struct {
	kind   feed.Kind
	events chan Event[T]
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

type loadFunc[T any] func(ctx context.Context) ([]T, error)

// subscribe starts the delivery goroutine. initial serves the first
// snapshot (it may come from cache); fresh serves every reload after a
// change signal.
func subscribe[T any](parent context.Context, f feed.Feed, kind feed.Kind, initial, fresh loadFunc[T]) *Subscription[T] {
	ctx, cancel := context.WithCancel(parent)
	s := &Subscription[T]{
		kind:   kind,
		events: make(chan Event[T]),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.run(ctx, f, initial, fresh)
	return s
}

// Events returns the delivery channel.
func (s *Subscription[T]) Events() <-chan Event[T] { return s.events }

// Kind returns the collection this subscription watches.
func (s *Subscription[T]) Kind() feed.Kind { return s.kind }

// Close stops delivery and releases the feed watcher. No event is
// delivered once Close has returned. Safe to call more than once.
func (s *Subscription[T]) Close() {
	s.once.Do(s.cancel)
	<-s.done
}

// Done is closed when the delivery goroutine has exited.
func (s *Subscription[T]) Done() <-chan struct{} { return s.done }

func (s *Subscription[T]) run(ctx context.Context, f feed.Feed, initial, fresh loadFunc[T]) {
	defer close(s.done)
	defer close(s.events)

	// Watch before the first load so a change between the two is not lost.
	w, err := f.Watch(ctx, s.kind)
	if err != nil {
		s.emit(ctx, Event[T]{Err: transport(err)})
		return
	}
	defer w.Close()

	if !s.deliver(ctx, initial) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-w.Changes():
			if !ok {
				err := w.Err()
				if err == nil {
					err = errors.New("change feed closed")
				}
				s.emit(ctx, Event[T]{Err: transport(fmt.Errorf("watch %s: %w", s.kind, err))})
				return
			}
			if !s.deliver(ctx, fresh) {
				return
			}
		}
	}
}

// deliver loads and emits one snapshot. It reports whether delivery should
// continue.
func (s *Subscription[T]) deliver(ctx context.Context, load loadFunc[T]) bool {
	snap, err := load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		s.emit(ctx, Event[T]{Err: transport(err)})
		return false
	}
	return s.emit(ctx, Event[T]{Snapshot: snap})
}

func (s *Subscription[T]) emit(ctx context.Context, ev Event[T]) bool {
	// Cancellation wins over a ready receiver.
	if ctx.Err() != nil {
		return false
	}
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// transport classifies a backend failure. Not-found, validation and
// cancellation pass through untouched.
func transport(err error) error {
	switch {
	case err == nil,
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrTransport),
		errors.Is(err, context.Canceled):
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrTransport, err)
}
