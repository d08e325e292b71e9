package handlers

import (
	"net/http"

	"github.com/socialgraph/backend/internal/logging"
	"github.com/socialgraph/backend/internal/models"
)

// UserHandler serves the public user directory.
type UserHandler struct {
	Friends FriendService
}

// Search handles GET /search?search=<q>.
func (h UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	if h.Friends == nil {
		logging.FromContext(ctx).Error("friend service unavailable")
		respondMessage(ctx, w, http.StatusInternalServerError, "search unavailable")
		return
	}

	page, err := parsePage(r)
	if err != nil {
		respondMessage(ctx, w, http.StatusNotFound, "Invalid page.")
		return
	}

	users, total, err := h.Friends.SearchUsers(ctx, r.URL.Query().Get("search"), page.window())
	if err != nil {
		respondFriendError(ctx, w, err)
		return
	}

	respondUserPage(w, r, page, total, users)
}

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func newUserResponse(user models.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}

func respondUserPage(w http.ResponseWriter, r *http.Request, page pageParams, total int, users []models.User) {
	ctx := r.Context()

	results := make([]userResponse, 0, len(users))
	for _, user := range users {
		results = append(results, newUserResponse(user))
	}

	resp, ok := buildPage(r, page, total, results)
	if !ok {
		respondMessage(ctx, w, http.StatusNotFound, "Invalid page.")
		return
	}
	respondJSON(ctx, w, http.StatusOK, resp)
}
