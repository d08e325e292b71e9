package handlers

import (
	"context"

	"github.com/socialgraph/backend/internal/models"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// SessionManager issues and refreshes authentication tokens for users.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
}

// FriendService runs the friend-request workflow and graph queries.
type FriendService interface {
	Send(ctx context.Context, from, to string) (models.FriendRequest, error)
	Accept(ctx context.Context, requestID, actor string) (models.FriendRequest, error)
	Reject(ctx context.Context, requestID, actor string) error
	ListFriends(ctx context.Context, userID string, page models.Page) ([]models.User, int, error)
	ListPending(ctx context.Context, userID string, page models.Page) ([]models.FriendRequest, int, error)
	SearchUsers(ctx context.Context, query string, page models.Page) ([]models.User, int, error)
}
