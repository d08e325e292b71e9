package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/socialgraph/backend/internal/auth"
	"github.com/socialgraph/backend/internal/logging"
	"github.com/socialgraph/backend/internal/models"
)

// FriendHandler provides the friend-request endpoints. Every route requires
// an authenticated user on the request context.
type FriendHandler struct {
	Friends FriendService
}

// Send handles POST /send-request.
func (h FriendHandler) Send(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	userID, ok := h.ready(w, r)
	if !ok {
		return
	}

	var req sendFriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid send-request payload", "error", err)
		respondMessage(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.ToUser = strings.TrimSpace(req.ToUser)
	if err := validate.Struct(req); err != nil {
		respondMessage(ctx, w, http.StatusBadRequest, validationMessage(err))
		return
	}

	request, err := h.Friends.Send(ctx, userID, req.ToUser)
	if err != nil {
		respondFriendError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, newFriendRequestResponse(request))
}

// Accept handles PATCH /accept-request/{id}.
func (h FriendHandler) Accept(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch && r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	userID, ok := h.ready(w, r)
	if !ok {
		return
	}

	request, err := h.Friends.Accept(ctx, r.PathValue("id"), userID)
	if err != nil {
		respondFriendError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, newFriendRequestResponse(request))
}

// Reject handles DELETE /reject-request/{id}.
func (h FriendHandler) Reject(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	userID, ok := h.ready(w, r)
	if !ok {
		return
	}

	if err := h.Friends.Reject(ctx, r.PathValue("id"), userID); err != nil {
		respondFriendError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /friends.
func (h FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	userID, ok := h.ready(w, r)
	if !ok {
		return
	}

	page, err := parsePage(r)
	if err != nil {
		respondMessage(ctx, w, http.StatusNotFound, "Invalid page.")
		return
	}

	users, total, err := h.Friends.ListFriends(ctx, userID, page.window())
	if err != nil {
		respondFriendError(ctx, w, err)
		return
	}

	respondUserPage(w, r, page, total, users)
}

// Pending handles GET /pending-requests.
func (h FriendHandler) Pending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	userID, ok := h.ready(w, r)
	if !ok {
		return
	}

	page, err := parsePage(r)
	if err != nil {
		respondMessage(ctx, w, http.StatusNotFound, "Invalid page.")
		return
	}

	requests, total, err := h.Friends.ListPending(ctx, userID, page.window())
	if err != nil {
		respondFriendError(ctx, w, err)
		return
	}

	results := make([]friendRequestResponse, 0, len(requests))
	for _, request := range requests {
		results = append(results, newFriendRequestResponse(request))
	}

	resp, ok := buildPage(r, page, total, results)
	if !ok {
		respondMessage(ctx, w, http.StatusNotFound, "Invalid page.")
		return
	}
	respondJSON(ctx, w, http.StatusOK, resp)
}

// ready resolves the caller and checks the handler is wired.
func (h FriendHandler) ready(w http.ResponseWriter, r *http.Request) (string, bool) {
	ctx := r.Context()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		respondMessage(ctx, w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return "", false
	}

	if h.Friends == nil {
		logging.FromContext(ctx).Error("friend service unavailable")
		respondMessage(ctx, w, http.StatusInternalServerError, "friend service unavailable")
		return "", false
	}

	return userID, true
}

type sendFriendRequest struct {
	ToUser string `json:"to_user" validate:"required"`
}

type friendRequestResponse struct {
	ID        string    `json:"id"`
	FromUser  string    `json:"from_user"`
	ToUser    string    `json:"to_user"`
	Accepted  bool      `json:"accepted"`
	CreatedAt time.Time `json:"created_at"`
}

func newFriendRequestResponse(request models.FriendRequest) friendRequestResponse {
	return friendRequestResponse{
		ID:        request.ID,
		FromUser:  request.FromUser,
		ToUser:    request.ToUser,
		Accepted:  request.Accepted,
		CreatedAt: request.CreatedAt,
	}
}
