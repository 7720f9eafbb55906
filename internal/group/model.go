// Package group provides models and repository for managing groups and
// their memberships. The membership list is the authoritative member set
// for analytics output completeness.
package group

import (
	"errors"
	"time"
)

// Common errors for group operations.
var (
	ErrGroupNotFound      = errors.New("group not found")
	ErrInviteCodeNotFound = errors.New("invite code not found")
	ErrAlreadyMember      = errors.New("user is already a member")
	ErrNotMember          = errors.New("user is not a member")
)

// Group represents a music-sharing group.
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"created_by"`
	MemberIDs   []string  `json:"member_ids"`
	InviteCode  string    `json:"invite_code"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsMember reports whether the given user id is in the group's member set.
func (g *Group) IsMember(userID string) bool {
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Repository defines the interface for group data operations.
type Repository interface {
	// Create inserts a new group. The creator becomes the first member and
	// an invite code is generated if none is set.
	Create(group *Group) error

	// GetByID retrieves a group by id. Returns ErrGroupNotFound if absent.
	GetByID(id string) (*Group, error)

	// GetByInviteCode retrieves a group by its invite code.
	// Returns ErrInviteCodeNotFound if no group carries the code.
	GetByInviteCode(code string) (*Group, error)

	// ListByMember retrieves all groups the user belongs to, ordered by
	// created_at descending.
	ListByMember(userID string) ([]*Group, error)

	// AddMember adds a user to the group's member set.
	// Returns ErrAlreadyMember if the user is already a member.
	AddMember(groupID, userID string) error

	// RemoveMember removes a user from the group's member set.
	// Returns ErrNotMember if the user is not a member.
	RemoveMember(groupID, userID string) error
}
