package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/lucasvital/todocomplete/internal/domain"
	"github.com/lucasvital/todocomplete/internal/dto"
	"github.com/lucasvital/todocomplete/internal/view"

	"github.com/gin-gonic/gin"
)

type ListHandler struct {
	stores Stores
	now    func() time.Time
}

func NewListHandler(stores Stores) *ListHandler {
	return &ListHandler{stores: stores, now: time.Now}
}

// List godoc
// @Summary      List the lists owned by or shared with the caller
// @Tags         lists
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  dto.ListListsResponse
// @Failure      503  {object}  map[string]string
// @Router       /lists [get]
func (h *ListHandler) List(c *gin.Context) {
	s, ok := readyStore(c, h.stores)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.ListListsResponse{Items: listResponses(s.Lists(), s.Todos(), h.now())})
}

// GetByID godoc
// @Summary      Get a list with its statistics
// @Tags         lists
// @Produce      json
// @Security     CookieAuth
// @Param        id   path      string  true  "List ID"
// @Success      200  {object}  dto.ListResponse
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /lists/{id} [get]
func (h *ListHandler) GetByID(c *gin.Context) {
	s, ok := readyStore(c, h.stores)
	if !ok {
		return
	}
	id := c.Param("id")
	for _, l := range s.Lists() {
		if l.ID == id {
			c.JSON(http.StatusOK, dto.ListResponse{List: l, Stats: view.ComputeListStats(view.InList(s.Todos(), id), h.now())})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

// Create godoc
// @Summary      Create a list
// @Tags         lists
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        body  body      dto.CreateListRequest  true  "List body"
// @Success      201   {object}  dto.CreatedResponse
// @Failure      400   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /lists [post]
func (h *ListHandler) Create(c *gin.Context) {
	var req dto.CreateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, ok := currentStore(c, h.stores)
	if !ok {
		return
	}
	id, err := s.CreateList(c.Request.Context(), req.NewList())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.CreatedResponse{ID: id})
}

// Update godoc
// @Summary      Update a list
// @Tags         lists
// @Accept       json
// @Security     CookieAuth
// @Param        id    path  string                 true  "List ID"
// @Param        body  body  dto.UpdateListRequest  true  "Partial update"
// @Success      204
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /lists/{id} [patch]
func (h *ListHandler) Update(c *gin.Context) {
	var req dto.UpdateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, ok := currentStore(c, h.stores)
	if !ok {
		return
	}
	if err := s.UpdateList(c.Request.Context(), c.Param("id"), req.Patch()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete godoc
// @Summary      Delete a list
// @Description  Todos that reference the list keep the reference.
// @Tags         lists
// @Security     CookieAuth
// @Param        id   path  string  true  "List ID"
// @Success      204
// @Failure      503  {object}  map[string]string
// @Router       /lists/{id} [delete]
func (h *ListHandler) Delete(c *gin.Context) {
	s, ok := currentStore(c, h.stores)
	if !ok {
		return
	}
	if err := s.DeleteList(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Share godoc
// @Summary      Share a list with another user
// @Description  Adds the e-mail as collaborator and notifies it. A 503 after the
// @Description  collaborator was added means only the notification failed.
// @Tags         lists
// @Accept       json
// @Security     CookieAuth
// @Param        id    path  string                true  "List ID"
// @Param        body  body  dto.ShareListRequest  true  "Collaborator"
// @Success      204
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /lists/{id}/share [post]
func (h *ListHandler) Share(c *gin.Context) {
	var req dto.ShareListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, ok := currentStore(c, h.stores)
	if !ok {
		return
	}
	// Sharing waits for the lists snapshot to check ownership.
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()
	if err := s.ShareList(ctx, c.Param("id"), req.Email); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func listResponses(lists []domain.List, todos []domain.Todo, now time.Time) []dto.ListResponse {
	out := make([]dto.ListResponse, len(lists))
	for i, l := range lists {
		out[i] = dto.ListResponse{List: l, Stats: view.ComputeListStats(view.InList(todos, l.ID), now)}
	}
	return out
}
