package repositories

import (
	"context"

	"github.com/socialgraph/backend/internal/models"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	// SearchByEmail returns users whose email equals the argument exactly.
	SearchByEmail(ctx context.Context, email string, page models.Page) ([]models.User, int, error)
	// SearchByName returns users whose first or last name contains the term,
	// ignoring case, ordered by id.
	SearchByName(ctx context.Context, term string, page models.Page) ([]models.User, int, error)
}
