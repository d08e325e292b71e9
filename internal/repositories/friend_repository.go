package repositories

import (
	"context"

	"github.com/socialgraph/backend/internal/models"
)

// FriendRepository defines data access for friend requests.
type FriendRepository interface {
	CreateRequest(ctx context.Context, request models.FriendRequest) error
	FindRequest(ctx context.Context, requestID string) (models.FriendRequest, error)
	// MarkAccepted sets accepted=true. Accepting an accepted request succeeds.
	MarkAccepted(ctx context.Context, requestID string) error
	DeleteRequest(ctx context.Context, requestID string) error
	// FindAcceptedByFrom returns the recipients of accepted requests sent by userID.
	FindAcceptedByFrom(ctx context.Context, userID string, page models.Page) ([]models.User, int, error)
	// FindPendingByTo returns requests addressed to userID that are not accepted.
	FindPendingByTo(ctx context.Context, userID string, page models.Page) ([]models.FriendRequest, int, error)
}
