package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gebrielmolla19/groupify/internal/middleware"
	"github.com/gebrielmolla19/groupify/internal/user"
	"github.com/gebrielmolla19/groupify/internal/validate"
	"github.com/google/uuid"
)

// CreateUserRequest represents the request body for registering a user profile.
type CreateUserRequest struct {
	ID              string `json:"id,omitempty"`
	DisplayName     string `json:"display_name"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

// UserHandlers holds dependencies for user HTTP handlers.
type UserHandlers struct {
	users user.Repository
}

// NewUserHandlers creates a new UserHandlers instance.
func NewUserHandlers(users user.Repository) *UserHandlers {
	return &UserHandlers{users: users}
}

// CreateUser handles POST /users - registers a user's display profile.
// An explicit id may be supplied when the identity originates upstream;
// otherwise one is generated.
func (h *UserHandlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	displayName, err := validate.DisplayName(req.DisplayName)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "display_name is required and must not exceed 100 characters")
		return
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.New().String()
	}

	newUser := &user.User{
		ID:              id,
		DisplayName:     displayName,
		ProfileImageURL: req.ProfileImageURL,
		CreatedAt:       time.Now().UTC(),
	}

	if err := h.users.Create(newUser); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to create user")
		return
	}

	WriteJSON(w, r.Context(), http.StatusCreated, newUser)
}

// GetUser handles GET /users/{id}.
func (h *UserHandlers) GetUser(w http.ResponseWriter, r *http.Request, userID string) {
	u, err := h.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeUserNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeUserNotFound, "User not found")
			return
		}
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to retrieve user")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, u)
}
