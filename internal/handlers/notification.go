package handlers

import (
	"net/http"

	"github.com/lucasvital/todocomplete/internal/domain"
	"github.com/lucasvital/todocomplete/internal/dto"
	"github.com/lucasvital/todocomplete/internal/view"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	stores Stores
}

func NewNotificationHandler(stores Stores) *NotificationHandler {
	return &NotificationHandler{stores: stores}
}

// List godoc
// @Summary      List notifications addressed to the caller
// @Tags         notifications
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  dto.ListNotificationsResponse
// @Failure      503  {object}  map[string]string
// @Router       /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	s, ok := readyStore(c, h.stores)
	if !ok {
		return
	}
	items := s.Notifications()
	if items == nil {
		items = []domain.Notification{}
	}
	c.JSON(http.StatusOK, dto.ListNotificationsResponse{Items: items, Unread: view.UnreadCount(items)})
}

// MarkRead godoc
// @Summary      Mark a notification read
// @Tags         notifications
// @Security     CookieAuth
// @Param        id   path  string  true  "Notification ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	s, ok := currentStore(c, h.stores)
	if !ok {
		return
	}
	if err := s.MarkNotificationRead(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
