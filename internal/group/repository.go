package group

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// inviteCodeLength is the number of characters in a generated invite code.
const inviteCodeLength = 8

// newInviteCode generates a short, case-insensitive invite code.
// Uses the first segment of a UUID, which is sufficient for invites
// that are scoped to humans passing links around, not for secrets.
func newInviteCode() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return strings.ToUpper(raw[:inviteCodeLength])
}

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu           sync.RWMutex
	groups       map[string]*Group
	byInviteCode map[string]string // invite code -> group id
}

// NewInMemoryRepository creates a new in-memory group repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		groups:       make(map[string]*Group),
		byInviteCode: make(map[string]string),
	}
}

// Create inserts a new group with a generated id and invite code.
// The creator is added to the member set if not already present.
func (r *InMemoryRepository) Create(group *Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.InviteCode == "" {
		group.InviteCode = newInviteCode()
	}
	now := time.Now()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now

	if group.CreatedBy != "" && !group.IsMember(group.CreatedBy) {
		group.MemberIDs = append(group.MemberIDs, group.CreatedBy)
	}

	stored := copyGroup(group)
	r.groups[group.ID] = stored
	r.byInviteCode[stored.InviteCode] = stored.ID
	return nil
}

// GetByID retrieves a group by id.
func (r *InMemoryRepository) GetByID(id string) (*Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.groups[id]
	if !ok {
		return nil, ErrGroupNotFound
	}
	return copyGroup(g), nil
}

// GetByInviteCode retrieves a group by invite code (case-insensitive).
func (r *InMemoryRepository) GetByInviteCode(code string) (*Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byInviteCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, ErrInviteCodeNotFound
	}
	return copyGroup(r.groups[id]), nil
}

// ListByMember retrieves all groups the user belongs to, newest first.
func (r *InMemoryRepository) ListByMember(userID string) ([]*Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Group, 0)
	for _, g := range r.groups {
		if g.IsMember(userID) {
			result = append(result, copyGroup(g))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// AddMember adds a user to the group's member set.
func (r *InMemoryRepository) AddMember(groupID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[groupID]
	if !ok {
		return ErrGroupNotFound
	}
	if g.IsMember(userID) {
		return ErrAlreadyMember
	}

	g.MemberIDs = append(g.MemberIDs, userID)
	g.UpdatedAt = time.Now()
	return nil
}

// RemoveMember removes a user from the group's member set.
func (r *InMemoryRepository) RemoveMember(groupID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[groupID]
	if !ok {
		return ErrGroupNotFound
	}

	for i, id := range g.MemberIDs {
		if id == userID {
			g.MemberIDs = append(g.MemberIDs[:i], g.MemberIDs[i+1:]...)
			g.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrNotMember
}

// copyGroup returns a deep copy so callers cannot mutate repository state.
func copyGroup(g *Group) *Group {
	copied := *g
	copied.MemberIDs = append([]string(nil), g.MemberIDs...)
	return &copied
}
