package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/lucasvital/todocomplete/internal/auth"
	"github.com/lucasvital/todocomplete/internal/domain"
	"github.com/lucasvital/todocomplete/internal/feed"
	"github.com/lucasvital/todocomplete/internal/remote"
	"github.com/lucasvital/todocomplete/internal/service"
	"github.com/lucasvital/todocomplete/internal/store"
	"github.com/lucasvital/todocomplete/internal/testutil"

	"github.com/gin-gonic/gin"
)

// obj keeps request bodies short.
type obj = map[string]any

var errBackend = errors.New("connection refused")

var (
	alice = domain.Identity{ID: "u-alice", Email: "alice@example.com"}
	bob   = domain.Identity{ID: "u-bob", Email: "bob@example.com"}
)

type memSessions struct {
	mu   sync.Mutex
	next int
	m    map[string]domain.Identity
}

func (s *memSessions) Create(_ context.Context, who domain.Identity) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	id := fmt.Sprintf("s%d", s.next)
	s.m[id] = who
	return id, nil
}

func (s *memSessions) Get(_ context.Context, id string) (domain.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	who, ok := s.m[id]
	return who, ok
}

func (s *memSessions) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
	return nil
}

type testEnv struct {
	router        *gin.Engine
	todos         *testutil.Todos
	lists         *testutil.Lists
	notifications *testutil.Notifications
	users         *testutil.Users
	sessions      *memSessions
	events        *auth.Events
	registry      *store.Registry
	client        *remote.Client
	streams       *StreamHandler
	signedOut     []string
}

func newTestEnv(t *testing.T, opts AuthOptions) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	env := &testEnv{
		todos:         testutil.NewTodos(),
		lists:         testutil.NewLists(),
		notifications: testutil.NewNotifications(),
		users:         testutil.NewUsers(),
		sessions:      &memSessions{m: make(map[string]domain.Identity)},
		events:        auth.NewEvents(),
	}
	env.client = remote.NewClient(remote.Deps{
		Todos:         env.todos,
		Lists:         env.lists,
		Categories:    testutil.NewCategories(),
		Notifications: env.notifications,
		Feed:          feed.NewMemory(),
	})
	env.registry = store.NewRegistry(env.client)
	t.Cleanup(env.registry.Close)

	opts.OnSignOut = func(userID string) {
		env.signedOut = append(env.signedOut, userID)
		env.registry.Release(userID)
	}
	authH := NewAuthHandler(env.sessions, service.NewUserService(env.users), env.events, opts)
	todoH := NewTodoHandler(env.registry)
	listH := NewListHandler(env.registry)
	catH := NewCategoryHandler(env.registry)
	notifH := NewNotificationHandler(env.registry)
	statsH := NewStatsHandler(env.registry)
	streamH := NewStreamHandler(env.client, env.events, 50*time.Millisecond)
	env.streams = streamH

	r := gin.New()
	r.POST("/auth/register", authH.Register)
	r.POST("/auth/login", authH.Login)
	r.POST("/auth/logout", authH.Logout)
	r.GET("/auth/google", authH.GoogleLogin)
	r.GET("/auth/google/callback", authH.GoogleCallback)

	p := r.Group("", auth.RequireSession(env.sessions))
	p.GET("/auth/me", authH.Me)
	p.POST("/todos", todoH.Create)
	p.GET("/todos", todoH.List)
	p.GET("/todos/:id", todoH.GetByID)
	p.PATCH("/todos/:id", todoH.Update)
	p.DELETE("/todos/:id", todoH.Delete)
	p.POST("/todos/:id/toggle", todoH.Toggle)
	p.GET("/templates", todoH.Templates)
	p.POST("/templates/:key", todoH.FromTemplate)
	p.GET("/lists", listH.List)
	p.POST("/lists", listH.Create)
	p.GET("/lists/:id", listH.GetByID)
	p.PATCH("/lists/:id", listH.Update)
	p.DELETE("/lists/:id", listH.Delete)
	p.POST("/lists/:id/share", listH.Share)
	p.GET("/categories", catH.List)
	p.POST("/categories", catH.Create)
	p.GET("/notifications", notifH.List)
	p.POST("/notifications/:id/read", notifH.MarkRead)
	p.GET("/stats", statsH.Stats)
	p.GET("/sync", statsH.Pending)
	p.POST("/sync/refresh", statsH.Refresh)
	p.GET("/events", streamH.Stream)
	env.router = r
	return env
}

// signIn creates a session for who and returns its cookie.
func (e *testEnv) signIn(t *testing.T, who domain.Identity) *http.Cookie {
	t.Helper()
	id, err := e.sessions.Create(context.Background(), who)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Cookie{Name: auth.SessionCookieName, Value: id}
}

func (e *testEnv) do(method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// eventually retries a GET until check accepts the decoded body.
func eventually[T any](t *testing.T, e *testEnv, path string, cookie *http.Cookie, check func(T) bool) T {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		w := e.do(http.MethodGet, path, nil, cookie)
		var got T
		if w.Code == http.StatusOK {
			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode %s: %v", path, err)
			}
			if check(got) {
				return got
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out on GET %s, last status %d body %s", path, w.Code, w.Body.String())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v (body %s)", err, w.Body.String())
	}
	return v
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	return nil
}
