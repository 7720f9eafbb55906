package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// SuccessResponse is the standard envelope for successful responses:
// {"success": true, "data": ...}
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// WriteJSON writes a successful JSON response in the standard envelope.
func WriteJSON(w http.ResponseWriter, ctx context.Context, status int, data any) {
	body, err := json.Marshal(SuccessResponse{Success: true, Data: data})
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal response", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.ErrorContext(ctx, "failed to write response", "error", err)
	}
}
