// Package directory defines the records served by the directory API.
package directory

import (
	"errors"
	"fmt"
)

// ErrEntityNotFound is returned when a lookup by ID finds no entity.
var ErrEntityNotFound = errors.New("entity not found")

// Entity is a single person record as returned by the directory API.
// Entities are never modified after they have been fetched.
type Entity struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstname"`
	LastName    string `json:"lastname"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	AvatarURL   string `json:"avatar"`
	JoinDate    string `json:"join_date"`
	Description string `json:"description"`
}

// FullName returns "first last".
func (e Entity) FullName() string {
	return e.FirstName + " " + e.LastName
}

// EntityList is an ordered sequence of entities in server response order.
type EntityList []Entity

// FindByID returns the entity with the given ID.
func (l EntityList) FindByID(id string) (Entity, bool) {
	for _, e := range l {
		if e.ID == id {
			return e, true
		}
	}
	return Entity{}, false
}

// NotFound builds an error for a missing entity that matches ErrEntityNotFound.
func NotFound(id string) error {
	return fmt.Errorf("user with ID %s not found: %w", id, ErrEntityNotFound)
}
