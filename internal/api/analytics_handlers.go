package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gebrielmolla19/groupify/internal/analytics"
	"github.com/gebrielmolla19/groupify/internal/middleware"
)

// AnalyticsProvider is the analytics surface the handlers depend on. Both
// analytics.Service and analytics.CachedService satisfy it.
type AnalyticsProvider interface {
	GroupActivity(ctx context.Context, groupID string, rng analytics.TimeRange, mode analytics.Mode) ([]analytics.ActivityBucket, error)
	MemberVibes(ctx context.Context, groupID string, rng analytics.TimeRange) ([]analytics.VibeProfile, error)
	Superlatives(ctx context.Context, groupID string) (map[string]analytics.Superlative, error)
	GroupOverview(ctx context.Context, groupID string, rng analytics.TimeRange, mode analytics.Mode) (*analytics.Overview, error)
}

// AnalyticsHandlers holds dependencies for analytics HTTP handlers.
type AnalyticsHandlers struct {
	provider AnalyticsProvider
}

// NewAnalyticsHandlers creates a new AnalyticsHandlers instance.
func NewAnalyticsHandlers(provider AnalyticsProvider) *AnalyticsHandlers {
	return &AnalyticsHandlers{provider: provider}
}

// parseAnalyticsQuery extracts the range and mode query parameters.
// Unknown range values fall back to the 7d default; an unknown mode is a
// validation error. The error response is written here on failure.
func parseAnalyticsQuery(w http.ResponseWriter, r *http.Request) (analytics.TimeRange, analytics.Mode, bool) {
	rng := analytics.ParseTimeRange(r.URL.Query().Get("range"))

	mode, err := analytics.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInvalidMode)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeInvalidMode, "mode must be 'shares' or 'engagement'")
		return "", "", false
	}

	return rng, mode, true
}

// writeAnalyticsError maps analytics service errors onto API error responses.
func writeAnalyticsError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, analytics.ErrGroupNotFound) {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeGroupNotFound)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeGroupNotFound, "Group not found")
		return
	}
	ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
	WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to compute analytics")
}

// GroupActivity handles GET /groups/{id}/analytics/activity.
func (h *AnalyticsHandlers) GroupActivity(w http.ResponseWriter, r *http.Request, groupID string) {
	rng, mode, ok := parseAnalyticsQuery(w, r)
	if !ok {
		return
	}

	buckets, err := h.provider.GroupActivity(r.Context(), groupID, rng, mode)
	if err != nil {
		writeAnalyticsError(w, r, err)
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, buckets)
}

// MemberVibes handles GET /groups/{id}/analytics/vibes.
// An omitted range covers the group's full history, so long-standing
// members keep their scores on the default view.
func (h *AnalyticsHandlers) MemberVibes(w http.ResponseWriter, r *http.Request, groupID string) {
	rng := analytics.RangeAll
	if v := r.URL.Query().Get("range"); v != "" {
		rng = analytics.ParseTimeRange(v)
	}

	profiles, err := h.provider.MemberVibes(r.Context(), groupID, rng)
	if err != nil {
		writeAnalyticsError(w, r, err)
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, profiles)
}

// Superlatives handles GET /groups/{id}/analytics/superlatives.
// Superlatives always cover the group's full history.
func (h *AnalyticsHandlers) Superlatives(w http.ResponseWriter, r *http.Request, groupID string) {
	superlatives, err := h.provider.Superlatives(r.Context(), groupID)
	if err != nil {
		writeAnalyticsError(w, r, err)
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, superlatives)
}

// GroupOverview handles GET /groups/{id}/analytics/overview.
func (h *AnalyticsHandlers) GroupOverview(w http.ResponseWriter, r *http.Request, groupID string) {
	rng, mode, ok := parseAnalyticsQuery(w, r)
	if !ok {
		return
	}

	overview, err := h.provider.GroupOverview(r.Context(), groupID, rng, mode)
	if err != nil {
		writeAnalyticsError(w, r, err)
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, overview)
}
