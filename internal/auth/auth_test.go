package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lucasvital/todocomplete/internal/domain"

	"github.com/gin-gonic/gin"
)

type fakeSessions map[string]domain.Identity

func (f fakeSessions) Create(_ context.Context, who domain.Identity) (string, error) {
	f["s1"] = who
	return "s1", nil
}

func (f fakeSessions) Get(_ context.Context, id string) (domain.Identity, bool) {
	who, ok := f[id]
	return who, ok
}

func (f fakeSessions) Delete(_ context.Context, id string) error {
	delete(f, id)
	return nil
}

func TestRequireSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	alice := domain.Identity{ID: "u1", Email: "alice@example.com"}
	sessions := fakeSessions{"good": alice}

	r := gin.New()
	r.GET("/me", RequireSession(sessions), func(c *gin.Context) {
		who, _ := IdentityFromContext(c)
		c.JSON(http.StatusOK, who)
	})

	tests := []struct {
		name   string
		cookie string
		want   int
	}{
		{"no cookie", "", http.StatusUnauthorized},
		{"unknown session", "bad", http.StatusUnauthorized},
		{"valid session", "good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestEventsSignOut(t *testing.T) {
	e := NewEvents()
	alice := domain.Identity{ID: "u1", Email: "alice@example.com"}
	ch, stop := e.Watch("s1", alice)
	defer stop()

	if who := <-ch; who == nil || *who != alice {
		t.Fatalf("Expected the watched identity first, got %v", who)
	}
	e.SignedOut("s1")
	if who, ok := <-ch; !ok || who != nil {
		t.Fatalf("Expected nil after sign-out, got %v %v", who, ok)
	}
	if _, ok := <-ch; ok {
		t.Fatal("Expected channel closed")
	}
	if n := e.Watchers("s1"); n != 0 {
		t.Errorf("Expected no watchers, got %d", n)
	}
}

func TestEventsStop(t *testing.T) {
	e := NewEvents()
	who := domain.Identity{ID: "u1"}
	_, stop := e.Watch("s1", who)
	other, stopOther := e.Watch("s2", who)
	defer stopOther()
	stop()
	stop()
	if e.Watchers("s1") != 0 || e.Watchers("s2") != 1 {
		t.Errorf("unexpected watchers s1=%d s2=%d", e.Watchers("s1"), e.Watchers("s2"))
	}
	e.SignedOut("s1")
	select {
	case <-other:
	default:
		t.Error("Expected the other session's watcher to still hold its identity")
	}
}
