package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lucasvital/todocomplete/internal/domain"
	"github.com/lucasvital/todocomplete/internal/feed"
	"github.com/lucasvital/todocomplete/internal/testutil"
)

type fixture struct {
	feed          *feed.Memory
	todos         *testutil.Todos
	lists         *testutil.Lists
	notifications *testutil.Notifications
	cache         *testutil.Cache
	client        *Client
}

func newFixture() *fixture {
	f := &fixture{
		feed:          feed.NewMemory(),
		todos:         testutil.NewTodos(),
		lists:         testutil.NewLists(),
		notifications: testutil.NewNotifications(),
	}
	f.client = NewClient(Deps{
		Todos:         f.todos,
		Lists:         f.lists,
		Categories:    testutil.NewCategories(),
		Notifications: f.notifications,
		Feed:          f.feed,
	})
	return f
}

// newCachedFixture is newFixture with a snapshot cache in front of the repos.
func newCachedFixture() *fixture {
	f := newFixture()
	f.cache = testutil.NewCache()
	f.client = NewClient(Deps{
		Todos:         f.todos,
		Lists:         f.lists,
		Categories:    testutil.NewCategories(),
		Notifications: f.notifications,
		Feed:          f.feed,
		Cache:         f.cache,
	})
	return f
}

// waitUntil polls cond for up to 2s.
func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

var alice = domain.Identity{ID: "u-alice", Email: "alice@example.com"}
var bob = domain.Identity{ID: "u-bob", Email: "bob@example.com"}

func next[T any](t *testing.T, s *Subscription[T]) Event[T] {
	t.Helper()
	select {
	case ev, ok := <-s.Events():
		if !ok {
			t.Fatal("events channel closed unexpectedly")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event[T]{}
}

func TestSubscribeDeliversInitialSnapshot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	if _, err := f.client.CreateTodo(ctx, alice, domain.Todo{Text: "existing", Priority: domain.PriorityLow}); err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}
	if _, err := f.client.CreateTodo(ctx, bob, domain.Todo{Text: "not mine", Priority: domain.PriorityLow}); err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}

	sub := f.client.SubscribeTodos(ctx, alice)
	defer sub.Close()

	ev := next(t, sub)
	if ev.Err != nil {
		t.Fatalf("unexpected error: %v", ev.Err)
	}
	if len(ev.Snapshot) != 1 || ev.Snapshot[0].Text != "existing" {
		t.Fatalf("Expected only alice's todo, got %+v", ev.Snapshot)
	}
}

func TestCreateRoundTripsThroughSnapshot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sub := f.client.SubscribeTodos(ctx, alice)
	defer sub.Close()
	if ev := next(t, sub); len(ev.Snapshot) != 0 {
		t.Fatalf("Expected empty snapshot, got %d", len(ev.Snapshot))
	}

	due := time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC)
	in := domain.Todo{
		Text:     "write report",
		Priority: domain.PriorityHigh,
		Tags:     []domain.Tag{{ID: "t1", Name: "work", Color: "#f00"}},
		SubTasks: []domain.SubTask{{ID: "s1", Text: "outline"}},
		DueDate:  &due,
	}
	created, err := f.client.CreateTodo(ctx, alice, in)
	if err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}

	ev := next(t, sub)
	if len(ev.Snapshot) != 1 {
		t.Fatalf("Expected 1 todo, got %d", len(ev.Snapshot))
	}
	got := ev.Snapshot[0]
	if got.ID != created.ID || got.Text != in.Text || got.Priority != in.Priority || got.UserID != alice.ID {
		t.Errorf("snapshot record %+v does not match input %+v", got, in)
	}
	if len(got.Tags) != 1 || got.Tags[0].Name != "work" || len(got.SubTasks) != 1 {
		t.Errorf("tags/sub-tasks not preserved: %+v", got)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Errorf("Expected due %v, got %v", due, got.DueDate)
	}
	if got.CreatedAt == nil {
		t.Error("Expected server-assigned createdAt")
	}
}

func TestCloseStopsDelivery(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sub := f.client.SubscribeTodos(ctx, alice)
	next(t, sub)

	sub.Close()
	if _, err := f.client.CreateTodo(ctx, alice, domain.Todo{Text: "after close"}); err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}

	select {
	case ev, ok := <-sub.Events():
		if ok {
			t.Fatalf("Expected no events after Close, got %+v", ev)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("events channel should be closed after Close")
	}
	if n := f.feed.Watchers(feed.KindTodos); n != 0 {
		t.Errorf("Expected watcher released, %d still live", n)
	}
	sub.Close()
}

func TestLoadErrorIsDeliveredOnceThenStops(t *testing.T) {
	f := newFixture()
	f.todos.SetErr(errors.New("connection refused"))
	sub := f.client.SubscribeTodos(context.Background(), alice)
	defer sub.Close()

	ev := next(t, sub)
	if !errors.Is(ev.Err, domain.ErrTransport) {
		t.Fatalf("Expected transport error, got %v", ev.Err)
	}
	if _, ok := <-sub.Events(); ok {
		t.Fatal("Expected channel closed after the error event")
	}
}

func TestFeedFailureEndsSubscription(t *testing.T) {
	f := newFixture()
	sub := f.client.SubscribeLists(context.Background(), alice)
	defer sub.Close()
	next(t, sub)

	f.feed.Fail(feed.KindLists, errors.New("redis: connection reset"))
	ev := next(t, sub)
	if !errors.Is(ev.Err, domain.ErrTransport) {
		t.Fatalf("Expected transport error, got %v", ev.Err)
	}
}

func TestListsMatchOwnerOrCollaborator(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	own, _ := f.client.CreateList(ctx, alice, domain.List{Name: "mine"})
	shared, _ := f.client.CreateList(ctx, bob, domain.List{Name: "bob's"})
	if _, err := f.client.CreateList(ctx, bob, domain.List{Name: "private"}); err != nil {
		t.Fatalf("CreateList: %v", err)
	}
	if _, err := f.client.AddCollaborator(ctx, bob, shared.ID, alice.Email); err != nil {
		t.Fatalf("AddCollaborator: %v", err)
	}

	sub := f.client.SubscribeLists(ctx, alice)
	defer sub.Close()
	ev := next(t, sub)

	ids := map[string]bool{}
	for _, l := range ev.Snapshot {
		ids[l.ID] = true
	}
	if len(ev.Snapshot) != 2 || !ids[own.ID] || !ids[shared.ID] {
		t.Errorf("Expected own and shared lists, got %+v", ev.Snapshot)
	}
}

func TestSubscriptionsAreIndependent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	todos := f.client.SubscribeTodos(ctx, alice)
	lists := f.client.SubscribeLists(ctx, alice)
	defer lists.Close()
	next(t, todos)
	next(t, lists)

	todos.Close()
	if _, err := f.client.CreateList(ctx, alice, domain.List{Name: "groceries"}); err != nil {
		t.Fatalf("CreateList: %v", err)
	}
	ev := next(t, lists)
	if len(ev.Snapshot) != 1 {
		t.Errorf("Expected lists subscription to keep delivering, got %+v", ev)
	}
}

func TestClosingOneSubscriberDoesNotFailASharedLoad(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	if _, err := f.client.CreateTodo(ctx, alice, domain.Todo{Text: "existing"}); err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}
	release := f.todos.Hold()
	defer release()

	first := f.client.SubscribeTodos(ctx, alice)
	waitUntil(t, "first load to start", func() bool { return f.todos.Waiting() == 1 })
	second := f.client.SubscribeTodos(ctx, alice)
	defer second.Close()
	// Let the second subscription join the load already in flight.
	time.Sleep(20 * time.Millisecond)

	first.Close()
	release()

	ev := next(t, second)
	if ev.Err != nil {
		t.Fatalf("Expected the live subscription to get its snapshot, got error %v", ev.Err)
	}
	if len(ev.Snapshot) != 1 || ev.Snapshot[0].Text != "existing" {
		t.Errorf("Expected alice's todo, got %+v", ev.Snapshot)
	}
	if _, ok := <-first.Events(); ok {
		t.Error("Expected no events on the closed subscription")
	}
}

func TestSnapshotFetchedBeforeAWriteIsNotCached(t *testing.T) {
	f := newCachedFixture()
	ctx := context.Background()
	fetch := loadFunc[domain.Todo](func(ctx context.Context) ([]domain.Todo, error) {
		return f.todos.ListByOwner(ctx, alice.ID)
	})

	release := f.todos.Hold()
	defer release()
	type result struct {
		snap []domain.Todo
		err  error
	}
	done := make(chan result, 1)
	go func() {
		snap, err := freshLoad(f.client, feed.KindTodos, alice.ID, fetch)(ctx)
		done <- result{snap, err}
	}()
	waitUntil(t, "load to start", func() bool { return f.todos.Waiting() == 1 })

	if _, err := f.client.CreateTodo(ctx, alice, domain.Todo{Text: "written during the load"}); err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}
	release()
	res := <-done
	if res.err != nil || len(res.snap) != 0 {
		t.Fatalf("Expected the pre-write snapshot, got %+v %v", res.snap, res.err)
	}

	var cached []domain.Todo
	if ok, _ := f.cache.Get(ctx, feed.KindTodos, alice.ID, &cached); ok {
		t.Fatalf("Expected the stale snapshot kept out of the cache, got %+v", cached)
	}
	sub := f.client.SubscribeTodos(ctx, alice)
	defer sub.Close()
	if ev := next(t, sub); len(ev.Snapshot) != 1 {
		t.Errorf("Expected a new subscriber to see the write, got %+v", ev)
	}
}

func TestFirstSnapshotIsServedFromCache(t *testing.T) {
	f := newCachedFixture()
	ctx := context.Background()
	if _, err := f.client.CreateTodo(ctx, alice, domain.Todo{Text: "cached"}); err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}
	first := f.client.SubscribeTodos(ctx, alice)
	next(t, first)
	first.Close()

	f.todos.SetErr(errors.New("connection refused"))
	sub := f.client.SubscribeTodos(ctx, alice)
	defer sub.Close()
	ev := next(t, sub)
	if ev.Err != nil || len(ev.Snapshot) != 1 {
		t.Fatalf("Expected the cached snapshot, got %+v", ev)
	}
}

func TestAddCollaboratorRequiresOwner(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	l, err := f.client.CreateList(ctx, alice, domain.List{Name: "private"})
	if err != nil {
		t.Fatalf("CreateList: %v", err)
	}
	if _, err := f.client.AddCollaborator(ctx, bob, l.ID, bob.Email); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for a non-owner, got %v", err)
	}
	got, _ := f.lists.GetByID(ctx, l.ID)
	if len(got.SharedWith) != 0 {
		t.Errorf("Expected the list unshared, got %v", got.SharedWith)
	}
}

func TestUpdateMissingTodoIsNotFound(t *testing.T) {
	f := newFixture()
	text := "x"
	_, err := f.client.UpdateTodo(context.Background(), alice, "missing", domain.TodoPatch{Text: &text})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestTransportClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"not found passes", domain.ErrNotFound, domain.ErrNotFound},
		{"validation passes", domain.ErrValidation, domain.ErrValidation},
		{"canceled passes", context.Canceled, context.Canceled},
		{"other wrapped", errors.New("dial tcp"), domain.ErrTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := transport(tt.err)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("Expected nil, got %v", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}
