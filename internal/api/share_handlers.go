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
)

// CreateShareRequest represents the request body for sharing a track.
type CreateShareRequest struct {
	GroupID    string `json:"group_id"`
	SharedBy   string `json:"shared_by"`
	TrackName  string `json:"track_name"`
	ArtistName string `json:"artist_name"`
	TrackURL   string `json:"track_url,omitempty"`
}

// ReactionRequest represents the request body for likes and listens.
type ReactionRequest struct {
	UserID string `json:"user_id"`
}

// ShareHandlers holds dependencies for share HTTP handlers.
type ShareHandlers struct {
	shares share.Repository
	groups group.Repository
}

// NewShareHandlers creates a new ShareHandlers instance.
func NewShareHandlers(shares share.Repository, groups group.Repository) *ShareHandlers {
	return &ShareHandlers{shares: shares, groups: groups}
}

// CreateShare handles POST /shares - posts a track into a group's feed.
// Only current group members can share.
func (h *ShareHandlers) CreateShare(w http.ResponseWriter, r *http.Request) {
	var req CreateShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	if strings.TrimSpace(req.GroupID) == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "group_id is required")
		return
	}
	if strings.TrimSpace(req.SharedBy) == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "shared_by is required")
		return
	}
	trackName, err := validate.TrackField(req.TrackName)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "track_name is required and must not exceed 200 characters")
		return
	}
	artistName, err := validate.TrackField(req.ArtistName)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "artist_name is required and must not exceed 200 characters")
		return
	}

	trackURL := ""
	if strings.TrimSpace(req.TrackURL) != "" {
		trackURL, err = validate.TrackURL(req.TrackURL)
		if err != nil {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "track_url must be an absolute http or https URL")
			return
		}
	}

	g, err := h.groups.GetByID(req.GroupID)
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
	if !g.IsMember(req.SharedBy) {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotMember)
		WriteError(w, ctx, http.StatusForbidden, ErrCodeNotMember, "Only group members can share tracks")
		return
	}

	newShare := &share.Share{
		GroupID:    req.GroupID,
		SharedBy:   req.SharedBy,
		TrackName:  trackName,
		ArtistName: artistName,
		TrackURL:   trackURL,
		CreatedAt:  time.Now().UTC(),
	}

	if err := h.shares.Create(newShare); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to create share")
		return
	}

	WriteJSON(w, r.Context(), http.StatusCreated, newShare)
}

// GetShare handles GET /shares/{id}.
func (h *ShareHandlers) GetShare(w http.ResponseWriter, r *http.Request, shareID string) {
	s, err := h.shares.GetByID(shareID)
	if err != nil {
		if errors.Is(err, share.ErrShareNotFound) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeShareNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeShareNotFound, "Share not found")
			return
		}
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to retrieve share")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, s)
}

// memberForReaction validates the reaction body and checks that the user is a
// member of the share's group. It writes the error response itself and
// returns ok=false on failure.
func (h *ShareHandlers) memberForReaction(w http.ResponseWriter, r *http.Request, shareID string) (userID string, ok bool) {
	var req ReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return "", false
	}
	if strings.TrimSpace(req.UserID) == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "user_id is required")
		return "", false
	}

	s, err := h.shares.GetByID(shareID)
	if err != nil {
		if errors.Is(err, share.ErrShareNotFound) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeShareNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeShareNotFound, "Share not found")
			return "", false
		}
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to retrieve share")
		return "", false
	}

	g, err := h.groups.GetByID(s.GroupID)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to retrieve group")
		return "", false
	}
	if !g.IsMember(req.UserID) {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotMember)
		WriteError(w, ctx, http.StatusForbidden, ErrCodeNotMember, "Only group members can react to shares")
		return "", false
	}

	return req.UserID, true
}

// LikeShare handles POST /shares/{id}/like. Liking twice is a no-op.
func (h *ShareHandlers) LikeShare(w http.ResponseWriter, r *http.Request, shareID string) {
	userID, ok := h.memberForReaction(w, r, shareID)
	if !ok {
		return
	}

	if _, err := h.shares.AddLike(shareID, userID, time.Now().UTC()); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to record like")
		return
	}

	s, err := h.shares.GetByID(shareID)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to retrieve share")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, s)
}

// UnlikeShare handles DELETE /shares/{id}/like. Removing an absent like is a no-op.
func (h *ShareHandlers) UnlikeShare(w http.ResponseWriter, r *http.Request, shareID string) {
	userID, ok := h.memberForReaction(w, r, shareID)
	if !ok {
		return
	}

	if _, err := h.shares.RemoveLike(shareID, userID); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to remove like")
		return
	}

	s, err := h.shares.GetByID(shareID)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to retrieve share")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, s)
}

// ListenShare handles POST /shares/{id}/listen. A repeat listen by the same
// user is a no-op; the first listen records the time-to-listen delay.
func (h *ShareHandlers) ListenShare(w http.ResponseWriter, r *http.Request, shareID string) {
	userID, ok := h.memberForReaction(w, r, shareID)
	if !ok {
		return
	}

	if _, err := h.shares.AddListen(shareID, userID, time.Now().UTC()); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to record listen")
		return
	}

	s, err := h.shares.GetByID(shareID)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to retrieve share")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, s)
}
