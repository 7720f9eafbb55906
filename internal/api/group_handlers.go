package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gebrielmolla19/groupify/internal/group"
	"github.com/gebrielmolla19/groupify/internal/middleware"
	"github.com/gebrielmolla19/groupify/internal/share"
	"github.com/gebrielmolla19/groupify/internal/validate"
	"github.com/google/uuid"
)

// Group name validation constraints
const (
	MinGroupNameLength = 3
	MaxGroupNameLength = 64
)

// CreateGroupRequest represents the request body for creating a group.
type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedBy   string `json:"created_by"`
}

// JoinGroupRequest represents the request body for joining a group by invite code.
type JoinGroupRequest struct {
	InviteCode string `json:"invite_code"`
	UserID     string `json:"user_id"`
}

// AddMemberRequest represents the request body for adding a member directly.
type AddMemberRequest struct {
	UserID string `json:"user_id"`
}

// GroupHandlers holds dependencies for group HTTP handlers.
type GroupHandlers struct {
	groups group.Repository
	shares share.Repository
}

// NewGroupHandlers creates a new GroupHandlers instance.
func NewGroupHandlers(groups group.Repository, shares share.Repository) *GroupHandlers {
	return &GroupHandlers{groups: groups, shares: shares}
}

// CreateGroup handles POST /groups - creates a new group.
// The creator automatically becomes the first member and an invite code
// is generated.
func (h *GroupHandlers) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	name, err := validate.GroupName(req.Name)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "group name must be between 3 and 64 characters")
		return
	}

	description, err := validate.Description(req.Description)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "description must not exceed 1000 characters")
		return
	}

	if strings.TrimSpace(req.CreatedBy) == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "created_by is required")
		return
	}

	now := time.Now().UTC()
	newGroup := &group.Group{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		CreatedBy:   req.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.groups.Create(newGroup); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to create group")
		return
	}

	stored, err := h.groups.GetByID(newGroup.ID)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to retrieve created group")
		return
	}

	WriteJSON(w, r.Context(), http.StatusCreated, stored)
}

// GetGroup handles GET /groups/{id} - retrieves a single group.
func (h *GroupHandlers) GetGroup(w http.ResponseWriter, r *http.Request, groupID string) {
	g, err := h.groups.GetByID(groupID)
	if err != nil {
		if errors.Is(err, group.ErrGroupNotFound) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeGroupNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeGroupNotFound, "Group not found")
			return
		}
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to retrieve group")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, g)
}

// ListGroups handles GET /groups?member_id={id} - lists groups for a member.
func (h *GroupHandlers) ListGroups(w http.ResponseWriter, r *http.Request) {
	memberID := strings.TrimSpace(r.URL.Query().Get("member_id"))
	if memberID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "member_id query parameter is required")
		return
	}

	groups, err := h.groups.ListByMember(memberID)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to list groups")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, groups)
}

// JoinGroup handles POST /groups/join - joins a group via invite code.
// Invite codes are matched case-insensitively.
func (h *GroupHandlers) JoinGroup(w http.ResponseWriter, r *http.Request) {
	var req JoinGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	if strings.TrimSpace(req.InviteCode) == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "invite_code is required")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "user_id is required")
		return
	}

	g, err := h.groups.GetByInviteCode(req.InviteCode)
	if err != nil {
		if errors.Is(err, group.ErrInviteCodeNotFound) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeInvalidInviteCode)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeInvalidInviteCode, "No group matches this invite code")
			return
		}
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to look up invite code")
		return
	}

	if err := h.groups.AddMember(g.ID, req.UserID); err != nil {
		if errors.Is(err, group.ErrAlreadyMember) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeAlreadyMember)
			WriteError(w, ctx, http.StatusConflict, ErrCodeAlreadyMember, "User is already a member of this group")
			return
		}
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to join group")
		return
	}

	joined, err := h.groups.GetByID(g.ID)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to retrieve joined group")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, joined)
}

// AddMember handles POST /groups/{id}/members - adds a member directly.
func (h *GroupHandlers) AddMember(w http.ResponseWriter, r *http.Request, groupID string) {
	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	if strings.TrimSpace(req.UserID) == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "user_id is required")
		return
	}

	if err := h.groups.AddMember(groupID, req.UserID); err != nil {
		switch {
		case errors.Is(err, group.ErrGroupNotFound):
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeGroupNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeGroupNotFound, "Group not found")
		case errors.Is(err, group.ErrAlreadyMember):
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeAlreadyMember)
			WriteError(w, ctx, http.StatusConflict, ErrCodeAlreadyMember, "User is already a member of this group")
		default:
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
			WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to add member")
		}
		return
	}

	g, err := h.groups.GetByID(groupID)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to retrieve group")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, g)
}

// RemoveMember handles DELETE /groups/{id}/members/{user_id}.
func (h *GroupHandlers) RemoveMember(w http.ResponseWriter, r *http.Request, groupID, userID string) {
	if err := h.groups.RemoveMember(groupID, userID); err != nil {
		switch {
		case errors.Is(err, group.ErrGroupNotFound):
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeGroupNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeGroupNotFound, "Group not found")
		case errors.Is(err, group.ErrNotMember):
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotMember)
			WriteError(w, ctx, http.StatusForbidden, ErrCodeNotMember, "User is not a member of this group")
		default:
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
			WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to remove member")
		}
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, map[string]string{"status": "removed"})
}

// ListGroupShares handles GET /groups/{id}/shares - lists a group's share feed.
// An optional since query parameter (RFC 3339) returns only shares created
// after that instant.
func (h *GroupHandlers) ListGroupShares(w http.ResponseWriter, r *http.Request, groupID string) {
	var createdAfter *time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "since must be an RFC 3339 timestamp")
			return
		}
		createdAfter = &parsed
	}

	if _, err := h.groups.GetByID(groupID); err != nil {
		if errors.Is(err, group.ErrGroupNotFound) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeGroupNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeGroupNotFound, "Group not found")
			return
		}
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to retrieve group")
		return
	}

	shares, err := h.shares.ListByGroup(groupID, createdAfter)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to list shares")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, shares)
}
