// Package feed carries "collection changed" signals between writers and
// snapshot subscribers. Signals carry no payload; subscribers reload.
package feed

import "context"

// Kind names a document collection.
type Kind string

const (
	KindTodos         Kind = "todos"
	KindLists         Kind = "lists"
	KindCategories    Kind = "categories"
	KindNotifications Kind = "notifications"
)

// Feed publishes and watches change signals per collection.
type Feed interface {
	Publish(ctx context.Context, kind Kind) error
	Watch(ctx context.Context, kind Kind) (Watcher, error)
}

// Watcher delivers coalesced change signals. Changes is closed when the
// watcher is closed or fails; Err then reports the failure, if any.
type Watcher interface {
	Changes() <-chan struct{}
	Err() error
	Close() error
}

// notify performs a non-blocking send so bursts collapse into one signal.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
