package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// List groups todos. Owner and SharedWith hold e-mail addresses.
type List struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Color      string     `json:"color"`
	Icon       *string    `json:"icon,omitempty"`
	Owner      string     `json:"owner"`
	SharedWith []string   `json:"sharedWith"`
	CreatedAt  *time.Time `json:"createdAt"`
	UpdatedAt  *time.Time `json:"updatedAt"`
}

// VisibleTo reports whether email owns the list or is a collaborator.
func (l List) VisibleTo(email string) bool {
	return l.Owner == email || slices.Contains(l.SharedWith, email)
}

type NewList struct {
	Name  string
	Color string
	Icon  *string
}

func (n NewList) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("%w: list name is required", ErrValidation)
	}
	return nil
}

// ListPatch enumerates the updatable list fields. Sharing goes through
// its own operation so it cannot be overwritten by a patch.
type ListPatch struct {
	Name      *string
	Color     *string
	Icon      Clearable[string]
	UpdatedAt time.Time
}

func (p ListPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("%w: list name is required", ErrValidation)
	}
	return nil
}

func (p ListPatch) Apply(l List) List {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Color != nil {
		l.Color = *p.Color
	}
	l.Icon = p.Icon.Apply(l.Icon)
	if !p.UpdatedAt.IsZero() {
		u := p.UpdatedAt
		l.UpdatedAt = &u
	}
	return l
}
