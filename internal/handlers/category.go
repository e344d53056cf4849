package handlers

import (
	"net/http"

	"github.com/lucasvital/todocomplete/internal/domain"
	"github.com/lucasvital/todocomplete/internal/dto"

	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	stores Stores
}

func NewCategoryHandler(stores Stores) *CategoryHandler {
	return &CategoryHandler{stores: stores}
}

// List godoc
// @Summary      List categories
// @Tags         categories
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  dto.ListCategoriesResponse
// @Failure      503  {object}  map[string]string
// @Router       /categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	s, ok := readyStore(c, h.stores)
	if !ok {
		return
	}
	items := s.Categories()
	if items == nil {
		items = []domain.Category{}
	}
	c.JSON(http.StatusOK, dto.ListCategoriesResponse{Items: items})
}

// Create godoc
// @Summary      Create a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        body  body      dto.CreateCategoryRequest  true  "Category body"
// @Success      201   {object}  dto.CreatedResponse
// @Failure      400   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, ok := currentStore(c, h.stores)
	if !ok {
		return
	}
	id, err := s.CreateCategory(c.Request.Context(), domain.NewCategory{Name: req.Name, Color: req.Color})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.CreatedResponse{ID: id})
}

// Update godoc
// @Summary      Update a category
// @Tags         categories
// @Accept       json
// @Security     CookieAuth
// @Param        id    path  string                     true  "Category ID"
// @Param        body  body  dto.UpdateCategoryRequest  true  "Partial update"
// @Success      204
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /categories/{id} [patch]
func (h *CategoryHandler) Update(c *gin.Context) {
	var req dto.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, ok := currentStore(c, h.stores)
	if !ok {
		return
	}
	patch := domain.CategoryPatch{Name: req.Name, Color: req.Color}
	if err := s.UpdateCategory(c.Request.Context(), c.Param("id"), patch); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete godoc
// @Summary      Delete a category
// @Tags         categories
// @Security     CookieAuth
// @Param        id   path  string  true  "Category ID"
// @Success      204
// @Failure      503  {object}  map[string]string
// @Router       /categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	s, ok := currentStore(c, h.stores)
	if !ok {
		return
	}
	if err := s.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
