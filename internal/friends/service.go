// Package friends implements the friend-request workflow and the queries
// derived from it.
//
// A request starts pending. Its recipient either accepts it, which is
// terminal, or rejects it, which deletes the record. Friendship is
// directional: an accepted request from A to B makes B one of A's friends,
// not the reverse.
package friends

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/socialgraph/backend/internal/logging"
	"github.com/socialgraph/backend/internal/models"
	"github.com/socialgraph/backend/internal/repositories"
)

// RequestStore is the persistence the workflow needs.
type RequestStore interface {
	CreateRequest(ctx context.Context, request models.FriendRequest) error
	FindRequest(ctx context.Context, requestID string) (models.FriendRequest, error)
	MarkAccepted(ctx context.Context, requestID string) error
	DeleteRequest(ctx context.Context, requestID string) error
	FindAcceptedByFrom(ctx context.Context, userID string, page models.Page) ([]models.User, int, error)
	FindPendingByTo(ctx context.Context, userID string, page models.Page) ([]models.FriendRequest, int, error)
}

// UserFinder answers user lookups for validation and search.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	SearchByEmail(ctx context.Context, email string, page models.Page) ([]models.User, int, error)
	SearchByName(ctx context.Context, term string, page models.Page) ([]models.User, int, error)
}

// SendLimiter meters outbound requests per sender. Acquire must check and
// count atomically.
type SendLimiter interface {
	Acquire(ctx context.Context, userID string) (bool, error)
	Release(ctx context.Context, userID string) error
}

// Service runs the friend-request state machine and graph queries.
type Service struct {
	Requests RequestStore
	Users    UserFinder
	Limiter  SendLimiter
	NowFunc  func() time.Time
}

// Send creates a pending request from one user to another. Self-requests and
// duplicate pending requests are accepted as-is.
func (s *Service) Send(ctx context.Context, from, to string) (models.FriendRequest, error) {
	ctx, span := logging.StartSpan(ctx, "friends.send")
	defer span.End()
	logger := logging.FromContext(ctx)

	to = strings.TrimSpace(to)
	if from == "" || to == "" {
		return models.FriendRequest{}, fmt.Errorf("%w: to_user is required", ErrValidation)
	}

	if _, err := s.Users.FindByID(ctx, to); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.FriendRequest{}, fmt.Errorf("%w: invalid pk %q - object does not exist", ErrValidation, to)
		}
		return models.FriendRequest{}, fmt.Errorf("look up recipient: %w", err)
	}

	allowed, err := s.Limiter.Acquire(ctx, from)
	if err != nil {
		return models.FriendRequest{}, fmt.Errorf("check rate limit: %w", err)
	}
	if !allowed {
		logger.Warn("friend request rate limited", slog.String("from", from))
		return models.FriendRequest{}, s.rateLimitError()
	}

	request := models.FriendRequest{
		ID:        uuid.NewString(),
		FromUser:  from,
		ToUser:    to,
		CreatedAt: s.now(),
	}

	if err := s.Requests.CreateRequest(ctx, request); err != nil {
		if relErr := s.Limiter.Release(ctx, from); relErr != nil {
			logger.Error("failed to release rate limit slot", slog.String("from", from), slog.Any("error", relErr))
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return models.FriendRequest{}, fmt.Errorf("%w: referenced user does not exist", ErrValidation)
		}
		return models.FriendRequest{}, fmt.Errorf("create friend request: %w", err)
	}

	logger.Info("friend request sent", slog.String("request_id", request.ID), slog.String("from", from), slog.String("to", to))
	return request, nil
}

// Accept marks a request accepted on behalf of its recipient. Accepting twice
// succeeds.
func (s *Service) Accept(ctx context.Context, requestID, actor string) (models.FriendRequest, error) {
	ctx, span := logging.StartSpan(ctx, "friends.accept", slog.String("request_id", requestID))
	defer span.End()

	request, err := s.loadOwned(ctx, requestID, actor)
	if err != nil {
		return models.FriendRequest{}, err
	}

	if err := s.Requests.MarkAccepted(ctx, request.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.FriendRequest{}, ErrNotFound
		}
		return models.FriendRequest{}, fmt.Errorf("accept friend request: %w", err)
	}
	request.Accepted = true

	logging.FromContext(ctx).Info("friend request accepted")
	return request, nil
}

// Reject deletes a request on behalf of its recipient.
func (s *Service) Reject(ctx context.Context, requestID, actor string) error {
	ctx, span := logging.StartSpan(ctx, "friends.reject", slog.String("request_id", requestID))
	defer span.End()

	request, err := s.loadOwned(ctx, requestID, actor)
	if err != nil {
		return err
	}

	if err := s.Requests.DeleteRequest(ctx, request.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("reject friend request: %w", err)
	}

	logging.FromContext(ctx).Info("friend request rejected")
	return nil
}

// ListFriends returns the recipients of accepted requests sent by userID.
func (s *Service) ListFriends(ctx context.Context, userID string, page models.Page) ([]models.User, int, error) {
	users, total, err := s.Requests.FindAcceptedByFrom(ctx, userID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list friends: %w", err)
	}
	return users, total, nil
}

// ListPending returns requests addressed to userID that await a response.
// Outgoing requests are not included.
func (s *Service) ListPending(ctx context.Context, userID string, page models.Page) ([]models.FriendRequest, int, error) {
	requests, total, err := s.Requests.FindPendingByTo(ctx, userID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list pending requests: %w", err)
	}
	return requests, total, nil
}

// SearchUsers matches an email exactly when query contains "@", otherwise
// first or last names by case-insensitive substring. An empty query matches
// nobody.
func (s *Service) SearchUsers(ctx context.Context, query string, page models.Page) ([]models.User, int, error) {
	if query == "" {
		return nil, 0, nil
	}

	var (
		users []models.User
		total int
		err   error
	)
	if strings.Contains(query, "@") {
		users, total, err = s.Users.SearchByEmail(ctx, query, page)
	} else {
		users, total, err = s.Users.SearchByName(ctx, query, page)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("search users: %w", err)
	}
	return users, total, nil
}

func (s *Service) loadOwned(ctx context.Context, requestID, actor string) (models.FriendRequest, error) {
	request, err := s.Requests.FindRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.FriendRequest{}, ErrNotFound
		}
		return models.FriendRequest{}, fmt.Errorf("load friend request: %w", err)
	}

	if request.ToUser != actor {
		logging.FromContext(ctx).Warn("friend request action by non-recipient",
			slog.String("request_id", request.ID),
			slog.String("actor", actor),
		)
		return models.FriendRequest{}, ErrForbidden
	}

	return request, nil
}

// rateLimitError reports the limiter's quota when it exposes one.
func (s *Service) rateLimitError() error {
	quota, ok := s.Limiter.(interface {
		Limit() int
		Window() time.Duration
	})
	if !ok {
		return ErrRateLimited
	}
	return &RateLimitError{Limit: quota.Limit(), Window: quota.Window()}
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}
