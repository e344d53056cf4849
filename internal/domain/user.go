package domain

import "time"

// User is the domain entity for a user account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Identity is the authenticated principal the store is scoped to.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (u User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email}
}
