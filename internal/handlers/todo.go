package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/lucasvital/todocomplete/internal/domain"
	"github.com/lucasvital/todocomplete/internal/dto"
	"github.com/lucasvital/todocomplete/internal/feed"
	"github.com/lucasvital/todocomplete/internal/store"
	"github.com/lucasvital/todocomplete/internal/view"

	"github.com/gin-gonic/gin"
)

type TodoHandler struct {
	stores Stores
}

func NewTodoHandler(stores Stores) *TodoHandler {
	return &TodoHandler{stores: stores}
}

// Create godoc
// @Summary      Create a todo
// @Description  The todo shows up in GET /todos once the next snapshot includes it.
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        body  body      dto.CreateTodoRequest  true  "Todo body"
// @Success      201   {object}  dto.CreatedResponse
// @Failure      400   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /todos [post]
func (h *TodoHandler) Create(c *gin.Context) {
	var req dto.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, ok := currentStore(c, h.stores)
	if !ok {
		return
	}
	id, err := s.CreateTodo(c.Request.Context(), req.NewTodo())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.CreatedResponse{ID: id})
}

// List godoc
// @Summary      List todos
// @Tags         todos
// @Produce      json
// @Security     CookieAuth
// @Param        q         query     string  false  "Search text and tag names"
// @Param        status    query     string  false  "ALL, ACTIVE or COMPLETED"
// @Param        sort      query     string  false  "createdAt, priority, dueDate or text"
// @Param        category  query     string  false  "Category ID"
// @Param        list      query     string  false  "List ID"
// @Param        dueFrom   query     string  false  "Earliest due date"
// @Param        dueTo     query     string  false  "Latest due date"
// @Success      200  {object}  dto.ListTodosResponse
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /todos [get]
func (h *TodoHandler) List(c *gin.Context) {
	f, ok := parseFilter(c)
	if !ok {
		return
	}
	s, ok := readyStore(c, h.stores)
	if !ok {
		return
	}
	items := view.Todos(s.Todos(), f)
	if items == nil {
		items = []domain.Todo{}
	}
	c.JSON(http.StatusOK, dto.ListTodosResponse{Items: items, State: s.State(feed.KindTodos)})
}

// GetByID godoc
// @Summary      Get a todo by ID
// @Tags         todos
// @Produce      json
// @Security     CookieAuth
// @Param        id   path      string  true  "Todo ID"
// @Success      200  {object}  domain.Todo
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /todos/{id} [get]
func (h *TodoHandler) GetByID(c *gin.Context) {
	s, ok := readyStore(c, h.stores)
	if !ok {
		return
	}
	id := c.Param("id")
	for _, t := range s.Todos() {
		if t.ID == id {
			c.JSON(http.StatusOK, t)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

// Update godoc
// @Summary      Update a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        id    path      string  true  "Todo ID"
// @Param        body  body      dto.UpdateTodoRequest  true  "Partial update"
// @Success      204
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /todos/{id} [patch]
func (h *TodoHandler) Update(c *gin.Context) {
	var req dto.UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, ok := currentStore(c, h.stores)
	if !ok {
		return
	}
	if err := s.UpdateTodo(c.Request.Context(), c.Param("id"), req.Patch()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Toggle godoc
// @Summary      Mark a todo completed or active
// @Tags         todos
// @Accept       json
// @Security     CookieAuth
// @Param        id    path  string                 true  "Todo ID"
// @Param        body  body  dto.ToggleTodoRequest  true  "Completion"
// @Success      204
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /todos/{id}/toggle [post]
func (h *TodoHandler) Toggle(c *gin.Context) {
	var req dto.ToggleTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, ok := currentStore(c, h.stores)
	if !ok {
		return
	}
	if err := s.ToggleTodo(c.Request.Context(), c.Param("id"), *req.Completed); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete godoc
// @Summary      Delete a todo
// @Tags         todos
// @Security     CookieAuth
// @Param        id   path  string  true  "Todo ID"
// @Success      204
// @Failure      503  {object}  map[string]string
// @Router       /todos/{id} [delete]
func (h *TodoHandler) Delete(c *gin.Context) {
	s, ok := currentStore(c, h.stores)
	if !ok {
		return
	}
	if err := s.DeleteTodo(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Templates godoc
// @Summary      List todo templates
// @Tags         templates
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  dto.TemplatesResponse
// @Router       /templates [get]
func (h *TodoHandler) Templates(c *gin.Context) {
	tpls := store.Templates()
	out := dto.TemplatesResponse{Items: make([]dto.TemplateResponse, len(tpls))}
	for i, t := range tpls {
		out.Items[i] = dto.TemplateToResponse(t)
	}
	c.JSON(http.StatusOK, out)
}

// FromTemplate godoc
// @Summary      Create a todo from a template
// @Tags         templates
// @Produce      json
// @Security     CookieAuth
// @Param        key  path      string  true  "Template key"
// @Success      201  {object}  dto.CreatedResponse
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /templates/{key} [post]
func (h *TodoHandler) FromTemplate(c *gin.Context) {
	s, ok := currentStore(c, h.stores)
	if !ok {
		return
	}
	id, err := s.CreateFromTemplate(c.Request.Context(), c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.CreatedResponse{ID: id})
}

func parseFilter(c *gin.Context) (view.Filter, bool) {
	f := view.Filter{
		Query:      c.Query("q"),
		Status:     view.Status(strings.ToUpper(c.DefaultQuery("status", string(view.StatusAll)))),
		SortBy:     view.SortKey(c.DefaultQuery("sort", string(view.SortCreatedAt))),
		CategoryID: c.Query("category"),
		ListID:     c.Query("list"),
	}
	switch f.Status {
	case view.StatusAll, view.StatusActive, view.StatusCompleted:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return f, false
	}
	switch f.SortBy {
	case view.SortCreatedAt, view.SortPriority, view.SortDueDate, view.SortText:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sort"})
		return f, false
	}
	for _, q := range []struct {
		name string
		dst  **time.Time
	}{{"dueFrom", &f.DueFrom}, {"dueTo", &f.DueTo}} {
		raw := c.Query(q.name)
		if raw == "" {
			continue
		}
		t, err := dto.ParseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": q.name + ": " + err.Error()})
			return f, false
		}
		*q.dst = &t
	}
	return f, true
}
