package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "feed:"

// RedisFeed fans change signals out over Redis pub/sub, so every API
// process sees writes made by any other.
type RedisFeed struct {
	rdb *redis.Client
}

func NewRedisFeed(rdb *redis.Client) *RedisFeed {
	return &RedisFeed{rdb: rdb}
}

func (f *RedisFeed) Publish(ctx context.Context, kind Kind) error {
	return f.rdb.Publish(ctx, channelPrefix+string(kind), "changed").Err()
}

// Watch subscribes and waits for the subscription to be confirmed before
// returning, so no publish issued after Watch returns can be missed.
func (f *RedisFeed) Watch(ctx context.Context, kind Kind) (Watcher, error) {
	ps := f.rdb.Subscribe(ctx, channelPrefix+string(kind))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", kind, err)
	}
	wctx, cancel := context.WithCancel(context.Background())
	w := &redisWatcher{
		ps:      ps,
		changes: make(chan struct{}, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go w.loop(wctx)
	return w, nil
}

type redisWatcher struct {
	ps      *redis.PubSub
	changes chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}

	mu  sync.Mutex
	err error
}

func (w *redisWatcher) loop(ctx context.Context) {
	defer close(w.done)
	defer close(w.changes)
	for {
		if _, err := w.ps.ReceiveMessage(ctx); err != nil {
			if ctx.Err() == nil && !errors.Is(err, redis.ErrClosed) {
				w.mu.Lock()
				w.err = err
				w.mu.Unlock()
			}
			return
		}
		notify(w.changes)
	}
}

func (w *redisWatcher) Changes() <-chan struct{} { return w.changes }

func (w *redisWatcher) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *redisWatcher) Close() error {
	w.cancel()
	err := w.ps.Close()
	<-w.done
	return err
}
