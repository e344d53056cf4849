package handlers

import (
	"net/http"
	"time"

	"github.com/lucasvital/todocomplete/internal/dto"
	"github.com/lucasvital/todocomplete/internal/feed"
	"github.com/lucasvital/todocomplete/internal/store"
	"github.com/lucasvital/todocomplete/internal/view"

	"github.com/gin-gonic/gin"
)

// StatsHandler serves derived statistics and the sync state of the store.
type StatsHandler struct {
	stores Stores
	now    func() time.Time
}

func NewStatsHandler(stores Stores) *StatsHandler {
	return &StatsHandler{stores: stores, now: time.Now}
}

// Stats godoc
// @Summary      Todo statistics
// @Description  Weekday buckets cover the current week in the given time zone.
// @Tags         stats
// @Produce      json
// @Security     CookieAuth
// @Param        tz   query     string  false  "IANA time zone, default UTC"
// @Success      200  {object}  view.Stats
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /stats [get]
func (h *StatsHandler) Stats(c *gin.Context) {
	loc, err := time.LoadLocation(c.DefaultQuery("tz", "UTC"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tz"})
		return
	}
	s, ok := readyStore(c, h.stores)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, view.ComputeStats(s.Todos(), s.Categories(), h.now().In(loc)))
}

// Pending godoc
// @Summary      Writes not yet reflected by a snapshot
// @Tags         sync
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  dto.PendingResponse
// @Router       /sync [get]
func (h *StatsHandler) Pending(c *gin.Context) {
	s, ok := currentStore(c, h.stores)
	if !ok {
		return
	}
	out := dto.PendingResponse{
		Items:  s.Pending(),
		States: make(map[string]store.State, 4),
	}
	for _, k := range []feed.Kind{feed.KindTodos, feed.KindLists, feed.KindCategories, feed.KindNotifications} {
		out.States[string(k)] = s.State(k)
	}
	if err := s.Err(); err != nil {
		out.Error = err.Error()
	}
	c.JSON(http.StatusOK, out)
}

// Refresh godoc
// @Summary      Resubscribe collections whose subscription failed
// @Tags         sync
// @Security     CookieAuth
// @Success      202
// @Router       /sync/refresh [post]
func (h *StatsHandler) Refresh(c *gin.Context) {
	s, ok := currentStore(c, h.stores)
	if !ok {
		return
	}
	if err := s.Refresh(); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}
