package share

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu      sync.RWMutex
	shares  map[string]*Share
	byGroup map[string][]string // group id -> share ids in insertion order
}

// NewInMemoryRepository creates a new in-memory share repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		shares:  make(map[string]*Share),
		byGroup: make(map[string][]string),
	}
}

// Create inserts a new share with a generated UUID.
func (r *InMemoryRepository) Create(share *Share) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if share.ID == "" {
		share.ID = uuid.New().String()
	}
	if share.CreatedAt.IsZero() {
		share.CreatedAt = time.Now()
	}
	// Counters always mirror the list lengths on write.
	share.LikeCount = len(share.Likes)
	share.ListenCount = len(share.Listeners)

	stored := copyShare(share)
	r.shares[share.ID] = stored
	r.byGroup[share.GroupID] = append(r.byGroup[share.GroupID], share.ID)
	return nil
}

// GetByID retrieves a share by id.
func (r *InMemoryRepository) GetByID(id string) (*Share, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.shares[id]
	if !ok {
		return nil, ErrShareNotFound
	}
	return copyShare(s), nil
}

// ListByGroup retrieves shares for a group ordered by created_at ascending,
// optionally filtered to created_at >= createdAfter.
func (r *InMemoryRepository) ListByGroup(groupID string, createdAfter *time.Time) ([]*Share, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byGroup[groupID]
	result := make([]*Share, 0, len(ids))
	for _, id := range ids {
		s := r.shares[id]
		if createdAfter != nil && s.CreatedAt.Before(*createdAfter) {
			continue
		}
		result = append(result, copyShare(s))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// EarliestByGroup returns the creation time of the group's oldest share.
func (r *InMemoryRepository) EarliestByGroup(groupID string) (time.Time, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var earliest time.Time
	found := false
	for _, id := range r.byGroup[groupID] {
		s := r.shares[id]
		if !found || s.CreatedAt.Before(earliest) {
			earliest = s.CreatedAt
			found = true
		}
	}
	return earliest, found, nil
}

// AddLike records a like, ignoring duplicates from the same user.
func (r *InMemoryRepository) AddLike(shareID, userID string, likedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.shares[shareID]
	if !ok {
		return false, ErrShareNotFound
	}
	if s.LikedBy(userID) {
		return false, nil
	}

	s.Likes = append(s.Likes, Like{UserID: userID, LikedAt: likedAt})
	s.LikeCount = len(s.Likes)
	return true, nil
}

// RemoveLike removes a user's like from the share if present.
func (r *InMemoryRepository) RemoveLike(shareID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.shares[shareID]
	if !ok {
		return false, ErrShareNotFound
	}

	for i, l := range s.Likes {
		if l.UserID == userID {
			s.Likes = append(s.Likes[:i], s.Likes[i+1:]...)
			s.LikeCount = len(s.Likes)
			return true, nil
		}
	}
	return false, nil
}

// AddListen records a listen, ignoring repeats from the same user.
// TimeToListenMS is derived from the share's creation time.
func (r *InMemoryRepository) AddListen(shareID, userID string, listenedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.shares[shareID]
	if !ok {
		return false, ErrShareNotFound
	}
	if s.ListenedBy(userID) {
		return false, nil
	}

	s.Listeners = append(s.Listeners, Listen{
		UserID:         userID,
		ListenedAt:     listenedAt,
		TimeToListenMS: listenedAt.Sub(s.CreatedAt).Milliseconds(),
	})
	s.ListenCount = len(s.Listeners)
	return true, nil
}

// copyShare returns a deep copy so callers cannot mutate repository state.
func copyShare(s *Share) *Share {
	copied := *s
	copied.Likes = append([]Like(nil), s.Likes...)
	copied.Listeners = append([]Listen(nil), s.Listeners...)
	return &copied
}
