package handlers

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/lucasvital/todocomplete/internal/auth"
	"github.com/lucasvital/todocomplete/internal/domain"
	"github.com/lucasvital/todocomplete/internal/dto"
	"github.com/lucasvital/todocomplete/internal/feed"
	"github.com/lucasvital/todocomplete/internal/store"
	"github.com/lucasvital/todocomplete/internal/view"

	"github.com/gin-gonic/gin"
)

const defaultHeartbeat = 25 * time.Second

// StreamHandler pushes collection snapshots to the browser over
// server-sent events. Each stream owns a store that follows the identity
// of its session and ends when the session signs out.
type StreamHandler struct {
	remote    store.Remote
	events    *auth.Events
	heartbeat time.Duration
	now       func() time.Time

	closeOnce sync.Once
	done      chan struct{}
}

func NewStreamHandler(remote store.Remote, events *auth.Events, heartbeat time.Duration) *StreamHandler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &StreamHandler{remote: remote, events: events, heartbeat: heartbeat, now: time.Now, done: make(chan struct{})}
}

// Close ends every open stream. Streams opened afterwards end at once.
func (h *StreamHandler) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// cursor remembers what a stream has already sent.
type cursor struct {
	versions map[feed.Kind]uint64
	failed   map[feed.Kind]bool
}

// Stream godoc
// @Summary      Live snapshots
// @Description  Server-sent events named todos, lists, categories, notifications
// @Description  and stats carry full snapshots. error reports a failed collection,
// @Description  signout ends the stream and ping is a heartbeat.
// @Tags         sync
// @Produce      text/event-stream
// @Security     CookieAuth
// @Param        tz   query  string  false  "IANA time zone for stats, default UTC"
// @Success      200
// @Failure      400  {object}  map[string]string
// @Router       /events [get]
func (h *StreamHandler) Stream(c *gin.Context) {
	who, ok := auth.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}
	loc, err := time.LoadLocation(c.DefaultQuery("tz", "UTC"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tz"})
		return
	}

	ids, stop := h.events.Watch(auth.SessionIDFromContext(c), who)
	defer stop()

	ctx, cancel := context.WithCancel(c.Request.Context())
	s := store.New(h.remote)
	followed := make(chan struct{})
	go func() {
		defer close(followed)
		_ = s.FollowIdentity(ctx, ids)
	}()
	defer func() {
		cancel()
		<-followed
	}()

	// The server write timeout would cut the stream.
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
		log.Printf("events: clear write deadline: %v", err)
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	tick := time.NewTicker(h.heartbeat)
	defer tick.Stop()
	cur := cursor{versions: make(map[feed.Kind]uint64), failed: make(map[feed.Kind]bool)}
	for {
		updates := s.Updates()
		if _, bound := s.Identity(); bound {
			h.emit(c, s, loc, &cur)
		}
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-followed:
			c.SSEvent("signout", gin.H{"ok": true})
			c.Writer.Flush()
			return
		case <-updates:
		case <-tick.C:
			c.SSEvent("ping", h.now().UTC())
			c.Writer.Flush()
		}
	}
}

// emit sends every collection whose snapshot changed since the last call,
// plus derived stats when todos or categories changed.
func (h *StreamHandler) emit(c *gin.Context, s *store.Store, loc *time.Location, cur *cursor) {
	changed := make(map[feed.Kind]bool)
	for _, k := range []feed.Kind{feed.KindTodos, feed.KindLists, feed.KindCategories, feed.KindNotifications} {
		st := s.State(k)
		switch st.Status {
		case store.StatusFailed:
			if !cur.failed[k] {
				cur.failed[k] = true
				c.SSEvent("error", gin.H{"kind": k, "error": st.Err.Error()})
			}
		case store.StatusReady:
			cur.failed[k] = false
			if st.Version != cur.versions[k] {
				cur.versions[k] = st.Version
				changed[k] = true
			}
		}
	}
	if len(changed) == 0 {
		c.Writer.Flush()
		return
	}

	now := h.now()
	if changed[feed.KindTodos] {
		todos := view.Sort(s.Todos(), view.SortCreatedAt)
		if todos == nil {
			todos = []domain.Todo{}
		}
		c.SSEvent(string(feed.KindTodos), todos)
	}
	if changed[feed.KindLists] || (changed[feed.KindTodos] && cur.versions[feed.KindLists] > 0) {
		c.SSEvent(string(feed.KindLists), listResponses(s.Lists(), s.Todos(), now))
	}
	if changed[feed.KindCategories] {
		cats := s.Categories()
		if cats == nil {
			cats = []domain.Category{}
		}
		c.SSEvent(string(feed.KindCategories), cats)
	}
	if changed[feed.KindNotifications] {
		ns := s.Notifications()
		if ns == nil {
			ns = []domain.Notification{}
		}
		c.SSEvent(string(feed.KindNotifications), dto.ListNotificationsResponse{Items: ns, Unread: view.UnreadCount(ns)})
	}
	if changed[feed.KindTodos] || changed[feed.KindCategories] {
		c.SSEvent("stats", view.ComputeStats(s.Todos(), s.Categories(), now.In(loc)))
	}
	c.Writer.Flush()
}
