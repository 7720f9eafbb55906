// Package share provides models and repository for tracks shared into
// group feeds, including their embedded like and listen sub-lists.
package share

import (
	"errors"
	"time"
)

// Common errors for share operations.
var (
	ErrShareNotFound = errors.New("share not found")
)

// Like records one member liking one share. A user appears at most once
// in a share's likes list; likes are set membership, not an event counter.
type Like struct {
	UserID  string    `json:"user_id"`
	LikedAt time.Time `json:"liked_at"`
}

// Listen records one member's self-reported play of a shared track.
// TimeToListenMS is the delay between the share being posted and the
// listen, in milliseconds. A user appears at most once per share.
type Listen struct {
	UserID         string    `json:"user_id"`
	ListenedAt     time.Time `json:"listened_at"`
	TimeToListenMS int64     `json:"time_to_listen_ms"`
}

// Share represents one track posted into one group's feed.
//
// LikeCount and ListenCount are denormalized caches of the list lengths,
// maintained on every write. Readers that need per-user precision must
// treat the Likes and Listeners lists as ground truth.
type Share struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"group_id"`
	SharedBy    string    `json:"shared_by"`
	TrackName   string    `json:"track_name"`
	ArtistName  string    `json:"artist_name"`
	TrackURL    string    `json:"track_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	LikeCount   int       `json:"like_count"`
	Likes       []Like    `json:"likes"`
	ListenCount int       `json:"listen_count"`
	Listeners   []Listen  `json:"listeners"`
}

// LikedBy reports whether the given user already liked this share.
func (s *Share) LikedBy(userID string) bool {
	for _, l := range s.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

// ListenedBy reports whether the given user already listened to this share.
func (s *Share) ListenedBy(userID string) bool {
	for _, l := range s.Listeners {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

// Repository defines the interface for share data operations.
type Repository interface {
	// Create inserts a new share with a generated UUID.
	Create(share *Share) error

	// GetByID retrieves a share by id. Returns ErrShareNotFound if absent.
	GetByID(id string) (*Share, error)

	// ListByGroup retrieves all shares for a group ordered by created_at
	// ascending. When createdAfter is non-nil only shares with
	// created_at >= createdAfter are returned.
	ListByGroup(groupID string, createdAfter *time.Time) ([]*Share, error)

	// EarliestByGroup returns the creation time of the group's oldest
	// share. The second return value is false when the group has no shares.
	EarliestByGroup(groupID string) (time.Time, bool, error)

	// AddLike records a like by userID on the share. Adding a like that
	// already exists is a no-op; the returned bool is true only when the
	// like was newly added.
	AddLike(shareID, userID string, likedAt time.Time) (bool, error)

	// RemoveLike removes userID's like from the share if present.
	// The returned bool is true when a like was actually removed.
	RemoveLike(shareID, userID string) (bool, error)

	// AddListen records a listen by userID on the share. A repeat listen
	// by the same user is a no-op; the returned bool is true only when
	// the listen was newly recorded.
	AddListen(shareID, userID string, listenedAt time.Time) (bool, error)
}
