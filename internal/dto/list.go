package dto

import (
	"github.com/lucasvital/todocomplete/internal/domain"
	"github.com/lucasvital/todocomplete/internal/view"
)

type CreateListRequest struct {
	Name  string  `json:"name" binding:"required,max=120"`
	Color string  `json:"color" binding:"max=32"`
	Icon  *string `json:"icon" binding:"omitempty,max=16"`
}

func (r CreateListRequest) NewList() domain.NewList {
	return domain.NewList{Name: r.Name, Color: r.Color, Icon: r.Icon}
}

type UpdateListRequest struct {
	Name  *string          `json:"name" binding:"omitempty,max=120"`
	Color *string          `json:"color" binding:"omitempty,max=32"`
	Icon  Optional[string] `json:"icon"`
}

func (r UpdateListRequest) Patch() domain.ListPatch {
	return domain.ListPatch{Name: r.Name, Color: r.Color, Icon: r.Icon.Clearable()}
}

type ShareListRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ListResponse is a list with the statistics of its todos.
type ListResponse struct {
	domain.List
	Stats view.ListStats `json:"stats"`
}

type ListListsResponse struct {
	Items []ListResponse `json:"items"`
}

type CreateCategoryRequest struct {
	Name  string `json:"name" binding:"required,max=60"`
	Color string `json:"color" binding:"max=32"`
}

type UpdateCategoryRequest struct {
	Name  *string `json:"name" binding:"omitempty,max=60"`
	Color *string `json:"color" binding:"omitempty,max=32"`
}

type ListCategoriesResponse struct {
	Items []domain.Category `json:"items"`
}

type ListNotificationsResponse struct {
	Items  []domain.Notification `json:"items"`
	Unread int                   `json:"unread"`
}
