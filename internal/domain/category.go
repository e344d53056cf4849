package domain

import (
	"fmt"
	"strings"
)

// Category is scoped to its owner and never shared.
type Category struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	UserID string `json:"userId"`
}

type NewCategory struct {
	Name  string
	Color string
}

func (n NewCategory) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("%w: category name is required", ErrValidation)
	}
	return nil
}

type CategoryPatch struct {
	Name  *string
	Color *string
}

func (p CategoryPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("%w: category name is required", ErrValidation)
	}
	return nil
}

func (p CategoryPatch) Apply(c Category) Category {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	return c
}
