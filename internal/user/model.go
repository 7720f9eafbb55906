// Package user provides models and repository for user identity data.
// Profile attributes originate from the upstream music service and are
// read-only here; this service only joins them into API output.
package user

import (
	"errors"
	"time"
)

// ErrUserNotFound is returned when a user id does not resolve.
var ErrUserNotFound = errors.New("user not found")

// User represents a user's display identity.
type User struct {
	ID              string    `json:"id"`
	DisplayName     string    `json:"display_name"`
	ProfileImageURL string    `json:"profile_image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Repository defines the interface for user identity lookups.
type Repository interface {
	// Create inserts a new user. If the user has no ID, one is generated.
	Create(user *User) error

	// GetByID retrieves a user by id. Returns ErrUserNotFound if absent.
	GetByID(id string) (*User, error)

	// ListByIDs retrieves the users for the given ids. Unknown ids are
	// skipped rather than failing the whole lookup; callers that need
	// strict resolution should use GetByID.
	ListByIDs(ids []string) ([]*User, error)
}
