// Package remote is the client context for the document store: it owns
// the repositories, the change feed and the snapshot cache, serves
// full-snapshot subscriptions and performs every write.
package remote

import (
	"context"
	"log"
	"time"

	"github.com/lucasvital/todocomplete/internal/domain"
	"github.com/lucasvital/todocomplete/internal/feed"
	"github.com/lucasvital/todocomplete/internal/repo"

	"golang.org/x/sync/singleflight"
)

// sharedLoadTimeout bounds a first load shared by several subscribers.
const sharedLoadTimeout = 30 * time.Second

// SnapshotCache stores first snapshots per (kind, scope). Set must drop a
// snapshot whose version is older than the current one; InvalidateKind
// bumps the version. *cache.SnapshotCache is the Redis implementation.
type SnapshotCache interface {
	Version(ctx context.Context, kind feed.Kind) (int64, error)
	Get(ctx context.Context, kind feed.Kind, scope string, dst any) (bool, error)
	Set(ctx context.Context, kind feed.Kind, scope string, version int64, v any) error
	InvalidateKind(ctx context.Context, kind feed.Kind) error
}

// Deps are the collaborators a Client is built from. Cache may be nil.
type Deps struct {
	Todos         repo.TodoRepo
	Lists         repo.ListRepo
	Categories    repo.CategoryRepo
	Notifications repo.NotificationRepo
	Feed          feed.Feed
	Cache         SnapshotCache
}

type Client struct {
	todos         repo.TodoRepo
	lists         repo.ListRepo
	categories    repo.CategoryRepo
	notifications repo.NotificationRepo
	feed          feed.Feed
	cache         SnapshotCache
	sf            singleflight.Group
}

func NewClient(d Deps) *Client {
	return &Client{
		todos:         d.Todos,
		lists:         d.Lists,
		categories:    d.Categories,
		notifications: d.Notifications,
		feed:          d.Feed,
		cache:         d.Cache,
	}
}

// SubscribeTodos streams the todos owned by who.ID.
func (c *Client) SubscribeTodos(ctx context.Context, who domain.Identity) *Subscription[domain.Todo] {
	var fetch loadFunc[domain.Todo] = func(ctx context.Context) ([]domain.Todo, error) { return c.todos.ListByOwner(ctx, who.ID) }
	return subscribe(ctx, c.feed, feed.KindTodos,
		cachedLoad(c, feed.KindTodos, who.ID, fetch), freshLoad(c, feed.KindTodos, who.ID, fetch))
}

// SubscribeLists streams the lists owned by or shared with who.Email.
func (c *Client) SubscribeLists(ctx context.Context, who domain.Identity) *Subscription[domain.List] {
	var fetch loadFunc[domain.List] = func(ctx context.Context) ([]domain.List, error) { return c.lists.ListVisibleTo(ctx, who.Email) }
	return subscribe(ctx, c.feed, feed.KindLists,
		cachedLoad(c, feed.KindLists, who.Email, fetch), freshLoad(c, feed.KindLists, who.Email, fetch))
}

// SubscribeCategories streams the categories owned by who.ID.
func (c *Client) SubscribeCategories(ctx context.Context, who domain.Identity) *Subscription[domain.Category] {
	var fetch loadFunc[domain.Category] = func(ctx context.Context) ([]domain.Category, error) { return c.categories.ListByOwner(ctx, who.ID) }
	return subscribe(ctx, c.feed, feed.KindCategories,
		cachedLoad(c, feed.KindCategories, who.ID, fetch), freshLoad(c, feed.KindCategories, who.ID, fetch))
}

// SubscribeNotifications streams who.Email's inbox, newest first.
func (c *Client) SubscribeNotifications(ctx context.Context, who domain.Identity) *Subscription[domain.Notification] {
	var fetch loadFunc[domain.Notification] = func(ctx context.Context) ([]domain.Notification, error) {
		return c.notifications.ListForRecipient(ctx, who.Email)
	}
	return subscribe(ctx, c.feed, feed.KindNotifications,
		cachedLoad(c, feed.KindNotifications, who.Email, fetch), freshLoad(c, feed.KindNotifications, who.Email, fetch))
}

// cachedLoad serves the first snapshot of a subscription. Concurrent first
// loads for the same scope share one backend query. The shared query runs
// detached from the caller that started it; every caller waits on its own
// ctx, so closing one subscription never fails another.
func cachedLoad[T any](c *Client, kind feed.Kind, scope string, fetch loadFunc[T]) loadFunc[T] {
	return func(ctx context.Context) ([]T, error) {
		ch := c.sf.DoChan(string(kind)+":"+scope, func() (interface{}, error) {
			lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
			defer cancel()
			if c.cache != nil {
				var cached []T
				if ok, err := c.cache.Get(lctx, kind, scope, &cached); err == nil && ok {
					return cached, nil
				}
			}
			return loadAndCache(lctx, c, kind, scope, fetch)
		})
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				return nil, transport(res.Err)
			}
			return res.Val.([]T), nil
		}
	}
}

// freshLoad bypasses the cache read: a change signal means the cached
// snapshot may predate the write.
func freshLoad[T any](c *Client, kind feed.Kind, scope string, fetch loadFunc[T]) loadFunc[T] {
	return func(ctx context.Context) ([]T, error) {
		list, err := loadAndCache(ctx, c, kind, scope, fetch)
		if err != nil {
			return nil, transport(err)
		}
		return list, nil
	}
}

// loadAndCache fetches a snapshot and caches it under the version read
// before the fetch, so a write that lands in between keeps it out.
func loadAndCache[T any](ctx context.Context, c *Client, kind feed.Kind, scope string, fetch loadFunc[T]) ([]T, error) {
	var version int64
	cacheable := false
	if c.cache != nil {
		v, err := c.cache.Version(ctx, kind)
		if err != nil {
			log.Printf("remote: %s cache version: %v", kind, err)
		} else {
			version, cacheable = v, true
		}
	}
	list, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if cacheable {
		if err := c.cache.Set(ctx, kind, scope, version, list); err != nil {
			log.Printf("remote: cache %s snapshot: %v", kind, err)
		}
	}
	return list, nil
}

// changed invalidates cached snapshots of kind and signals subscribers.
// The write has already succeeded, so failures here are only logged.
func (c *Client) changed(ctx context.Context, kind feed.Kind) {
	if c.cache != nil {
		if err := c.cache.InvalidateKind(ctx, kind); err != nil {
			log.Printf("remote: invalidate %s cache: %v", kind, err)
		}
	}
	if err := c.feed.Publish(ctx, kind); err != nil {
		log.Printf("remote: publish %s change: %v", kind, err)
	}
}

func (c *Client) CreateTodo(ctx context.Context, who domain.Identity, t domain.Todo) (domain.Todo, error) {
	t.UserID = who.ID
	out, err := c.todos.Create(ctx, t)
	if err != nil {
		return domain.Todo{}, transport(err)
	}
	c.changed(ctx, feed.KindTodos)
	return out, nil
}

func (c *Client) UpdateTodo(ctx context.Context, who domain.Identity, id string, patch domain.TodoPatch) (domain.Todo, error) {
	out, err := c.todos.Update(ctx, who.ID, id, patch)
	if err != nil {
		return domain.Todo{}, transport(err)
	}
	c.changed(ctx, feed.KindTodos)
	return out, nil
}

func (c *Client) DeleteTodo(ctx context.Context, who domain.Identity, id string) error {
	if err := c.todos.Delete(ctx, who.ID, id); err != nil {
		return transport(err)
	}
	c.changed(ctx, feed.KindTodos)
	return nil
}

func (c *Client) CreateList(ctx context.Context, who domain.Identity, l domain.List) (domain.List, error) {
	l.Owner = who.Email
	out, err := c.lists.Create(ctx, l)
	if err != nil {
		return domain.List{}, transport(err)
	}
	c.changed(ctx, feed.KindLists)
	return out, nil
}

func (c *Client) UpdateList(ctx context.Context, who domain.Identity, id string, patch domain.ListPatch) (domain.List, error) {
	out, err := c.lists.Update(ctx, who.Email, id, patch)
	if err != nil {
		return domain.List{}, transport(err)
	}
	c.changed(ctx, feed.KindLists)
	return out, nil
}

func (c *Client) DeleteList(ctx context.Context, who domain.Identity, id string) error {
	if err := c.lists.Delete(ctx, who.Email, id); err != nil {
		return transport(err)
	}
	c.changed(ctx, feed.KindLists)
	return nil
}

// AddCollaborator shares list id, owned by who, with email. It does not
// notify anyone. A list who does not own is not found.
func (c *Client) AddCollaborator(ctx context.Context, who domain.Identity, id, email string) (domain.List, error) {
	out, err := c.lists.AddCollaborator(ctx, who.Email, id, email)
	if err != nil {
		return domain.List{}, transport(err)
	}
	c.changed(ctx, feed.KindLists)
	return out, nil
}

func (c *Client) CreateCategory(ctx context.Context, who domain.Identity, cat domain.Category) (domain.Category, error) {
	cat.UserID = who.ID
	out, err := c.categories.Create(ctx, cat)
	if err != nil {
		return domain.Category{}, transport(err)
	}
	c.changed(ctx, feed.KindCategories)
	return out, nil
}

func (c *Client) UpdateCategory(ctx context.Context, who domain.Identity, id string, patch domain.CategoryPatch) (domain.Category, error) {
	out, err := c.categories.Update(ctx, who.ID, id, patch)
	if err != nil {
		return domain.Category{}, transport(err)
	}
	c.changed(ctx, feed.KindCategories)
	return out, nil
}

func (c *Client) DeleteCategory(ctx context.Context, who domain.Identity, id string) error {
	if err := c.categories.Delete(ctx, who.ID, id); err != nil {
		return transport(err)
	}
	c.changed(ctx, feed.KindCategories)
	return nil
}

// Notify stores a notification for n.ToEmail.
func (c *Client) Notify(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	out, err := c.notifications.Create(ctx, n)
	if err != nil {
		return domain.Notification{}, transport(err)
	}
	c.changed(ctx, feed.KindNotifications)
	return out, nil
}

func (c *Client) MarkRead(ctx context.Context, who domain.Identity, id string) error {
	if err := c.notifications.MarkRead(ctx, who.Email, id); err != nil {
		return transport(err)
	}
	c.changed(ctx, feed.KindNotifications)
	return nil
}

// DueReminders returns incomplete todos whose reminder is at or before now
// and has not fired yet.
func (c *Client) DueReminders(ctx context.Context, now time.Time) ([]domain.Todo, error) {
	list, err := c.todos.DueReminders(ctx, now)
	return list, transport(err)
}

// MarkReminded records that the reminder of todo id has fired.
func (c *Client) MarkReminded(ctx context.Context, id string) error {
	return transport(c.todos.MarkReminded(ctx, id))
}
