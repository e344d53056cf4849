// Package tasks is a standalone CRUD service for named tasks stored in
// MongoDB. It shares nothing with the todo API.
package tasks

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrNotFound = errors.New("task not found")

// CollectionName is the Mongo collection tasks live in.
const CollectionName = "tasks"

type Task struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name   string             `bson:"name" json:"name"`
	Status bool               `bson:"status" json:"status"`
}

// Patch holds the fields of an update. Nil fields are left as is.
type Patch struct {
	Name   *string
	Status *bool
}

func (p Patch) empty() bool {
	return p.Name == nil && p.Status == nil
}
