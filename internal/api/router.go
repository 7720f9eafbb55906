package api

import (
	"net/http"
	"strings"

	"github.com/gebrielmolla19/groupify/internal/middleware"
)

// Router dispatches API requests using stdlib path parsing.
//
// Routes:
//
//	POST   /users
//	GET    /users/{id}
//	POST   /groups
//	GET    /groups?member_id={id}
//	POST   /groups/join
//	GET    /groups/{id}
//	GET    /groups/{id}/shares
//	POST   /groups/{id}/members
//	DELETE /groups/{id}/members/{user_id}
//	GET    /groups/{id}/analytics/{activity|vibes|superlatives|overview}
//	POST   /shares
//	GET    /shares/{id}
//	POST   /shares/{id}/like
//	DELETE /shares/{id}/like
//	POST   /shares/{id}/listen
type Router struct {
	Users     *UserHandlers
	Groups    *GroupHandlers
	Shares    *ShareHandlers
	Analytics *AnalyticsHandlers
	Health    *HealthHandlers
}

// Register mounts all API routes on the given mux.
func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/users", rt.handleUsers)
	mux.HandleFunc("/users/", rt.handleUserByID)
	mux.HandleFunc("/groups", rt.handleGroups)
	mux.HandleFunc("/groups/", rt.handleGroupSubtree)
	mux.HandleFunc("/shares", rt.handleShares)
	mux.HandleFunc("/shares/", rt.handleShareSubtree)
	mux.HandleFunc("/health", rt.Health.Health)
	mux.HandleFunc("/ready", rt.Health.Ready)
}

// writeMethodNotAllowed writes the standard 405 response.
func writeMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
	WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
}

// writeRouteNotFound writes the standard 404 response for unknown paths.
func writeRouteNotFound(w http.ResponseWriter, r *http.Request) {
	ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
	WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
}

// splitPath returns the non-empty path segments.
func splitPath(path string) []string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 1 && parts[0] == "" {
		return nil
	}
	return parts
}

func (rt *Router) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, r)
		return
	}
	rt.Users.CreateUser(w, r)
}

func (rt *Router) handleUserByID(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path)
	if len(parts) != 2 || parts[1] == "" {
		writeRouteNotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, r)
		return
	}
	rt.Users.GetUser(w, r, parts[1])
}

func (rt *Router) handleGroups(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.Groups.CreateGroup(w, r)
	case http.MethodGet:
		rt.Groups.ListGroups(w, r)
	default:
		writeMethodNotAllowed(w, r)
	}
}

func (rt *Router) handleGroupSubtree(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path)
	if len(parts) < 2 || parts[1] == "" {
		writeRouteNotFound(w, r)
		return
	}

	// POST /groups/join
	if parts[1] == "join" {
		if len(parts) != 2 {
			writeRouteNotFound(w, r)
			return
		}
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, r)
			return
		}
		rt.Groups.JoinGroup(w, r)
		return
	}

	groupID := parts[1]

	switch len(parts) {
	case 2:
		// /groups/{id}
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, r)
			return
		}
		rt.Groups.GetGroup(w, r, groupID)

	case 3:
		switch parts[2] {
		case "shares":
			if r.Method != http.MethodGet {
				writeMethodNotAllowed(w, r)
				return
			}
			rt.Groups.ListGroupShares(w, r, groupID)
		case "members":
			if r.Method != http.MethodPost {
				writeMethodNotAllowed(w, r)
				return
			}
			rt.Groups.AddMember(w, r, groupID)
		default:
			writeRouteNotFound(w, r)
		}

	case 4:
		switch parts[2] {
		case "members":
			// /groups/{id}/members/{user_id}
			if r.Method != http.MethodDelete {
				writeMethodNotAllowed(w, r)
				return
			}
			rt.Groups.RemoveMember(w, r, groupID, parts[3])
		case "analytics":
			if r.Method != http.MethodGet {
				writeMethodNotAllowed(w, r)
				return
			}
			switch parts[3] {
			case "activity":
				rt.Analytics.GroupActivity(w, r, groupID)
			case "vibes":
				rt.Analytics.MemberVibes(w, r, groupID)
			case "superlatives":
				rt.Analytics.Superlatives(w, r, groupID)
			case "overview":
				rt.Analytics.GroupOverview(w, r, groupID)
			default:
				writeRouteNotFound(w, r)
			}
		default:
			writeRouteNotFound(w, r)
		}

	default:
		writeRouteNotFound(w, r)
	}
}

func (rt *Router) handleShares(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, r)
		return
	}
	rt.Shares.CreateShare(w, r)
}

func (rt *Router) handleShareSubtree(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path)
	if len(parts) < 2 || parts[1] == "" {
		writeRouteNotFound(w, r)
		return
	}
	shareID := parts[1]

	switch len(parts) {
	case 2:
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, r)
			return
		}
		rt.Shares.GetShare(w, r, shareID)

	case 3:
		switch parts[2] {
		case "like":
			switch r.Method {
			case http.MethodPost:
				rt.Shares.LikeShare(w, r, shareID)
			case http.MethodDelete:
				rt.Shares.UnlikeShare(w, r, shareID)
			default:
				writeMethodNotAllowed(w, r)
			}
		case "listen":
			if r.Method != http.MethodPost {
				writeMethodNotAllowed(w, r)
				return
			}
			rt.Shares.ListenShare(w, r, shareID)
		default:
			writeRouteNotFound(w, r)
		}

	default:
		writeRouteNotFound(w, r)
	}
}
