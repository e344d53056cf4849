package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/lucasvital/todocomplete/internal/auth"
	"github.com/lucasvital/todocomplete/internal/domain"
	"github.com/lucasvital/todocomplete/internal/store"

	"github.com/gin-gonic/gin"
)

// readyTimeout bounds how long a read waits for the first snapshots.
const readyTimeout = 5 * time.Second

// Stores hands out the store bound to a signed-in user.
type Stores interface {
	Get(who domain.Identity) *store.Store
}

// writeError maps the domain error taxonomy to HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrAuth):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrTransport), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// currentStore returns the caller's store. Writes go through it without
// waiting for snapshots.
func currentStore(c *gin.Context, stores Stores) (*store.Store, bool) {
	who, ok := auth.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return nil, false
	}
	return stores.Get(who), true
}

// readyStore is currentStore for reads: it waits until every collection
// holds a snapshot. A failed collection is resubscribed so the next read
// can succeed.
func readyStore(c *gin.Context, stores Stores) (*store.Store, bool) {
	s, ok := currentStore(c, stores)
	if !ok {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()
	if err := s.WaitReady(ctx); err != nil {
		if errors.Is(err, domain.ErrTransport) {
			_ = s.Refresh()
		}
		writeError(c, err)
		return nil, false
	}
	return s, true
}
