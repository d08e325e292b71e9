package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/socialgraph/backend/internal/friends"
	"github.com/socialgraph/backend/internal/logging"
)

type messageResponse struct {
	Message string `json:"message"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if payload == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

func respondMessage(ctx context.Context, w http.ResponseWriter, status int, message string) {
	respondJSON(ctx, w, status, messageResponse{Message: message})
}

// respondFriendError maps workflow errors onto HTTP statuses.
func respondFriendError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, friends.ErrRateLimited):
		respondMessage(ctx, w, http.StatusBadRequest, rateLimitMessage(err))
	case errors.Is(err, friends.ErrValidation):
		respondMessage(ctx, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, friends.ErrForbidden):
		respondMessage(ctx, w, http.StatusForbidden, "You do not have permission to perform this action.")
	case errors.Is(err, friends.ErrNotFound):
		respondMessage(ctx, w, http.StatusNotFound, "Not found.")
	default:
		logging.FromContext(ctx).Error("friend workflow failed", "error", err)
		respondMessage(ctx, w, http.StatusInternalServerError, "internal server error")
	}
}

func rateLimitMessage(err error) string {
	var quota *friends.RateLimitError
	if !errors.As(err, &quota) {
		return "Rate limit exceeded."
	}
	return fmt.Sprintf("Rate limit exceeded. You can only send %d requests per %s.", quota.Limit, friends.WindowPhrase(quota.Window))
}
