package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/socialgraph/backend/internal/db"
	"github.com/socialgraph/backend/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, email, first_name, last_name, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, user.ID, user.Email, user.FirstName, user.LastName, user.Password, user.CreatedAt, user.UpdatedAt)
	return mapPgError("insert user", err)
}

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, "id", id)
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, "email", email)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, column, value string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, email, first_name, last_name, password_hash, created_at, updated_at
        FROM users
        WHERE `+column+` = $1
    `, value)

	user, err := scanUser(row)
	if err != nil {
		return models.User{}, mapPgError("select user by "+column, err)
	}

	return user, nil
}

// SearchByEmail returns the users whose email matches exactly.
func (r *PostgresUserRepository) SearchByEmail(ctx context.Context, email string, page models.Page) ([]models.User, int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE email = $1`, email).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users by email: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT id, email, first_name, last_name, password_hash, created_at, updated_at
        FROM users
        WHERE email = $1
        ORDER BY id
        LIMIT $2 OFFSET $3
    `, email, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query users by email: %w", err)
	}

	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// SearchByName returns users whose first or last name contains term, ignoring case.
func (r *PostgresUserRepository) SearchByName(ctx context.Context, term string, page models.Page) ([]models.User, int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	pattern := "%" + escapeLike(term) + "%"

	var total int
	if err := conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM users
        WHERE first_name ILIKE $1 OR last_name ILIKE $1
    `, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users by name: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT id, email, first_name, last_name, password_hash, created_at, updated_at
        FROM users
        WHERE first_name ILIKE $1 OR last_name ILIKE $1
        ORDER BY id
        LIMIT $2 OFFSET $3
    `, pattern, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query users by name: %w", err)
	}

	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// PostgresFriendRepository provides PostgreSQL-backed persistence for friend requests.
type PostgresFriendRepository struct {
	pool db.Pool
}

// NewPostgresFriendRepository constructs a friend repository backed by PostgreSQL.
func NewPostgresFriendRepository(pool db.Pool) *PostgresFriendRepository {
	return &PostgresFriendRepository{pool: pool}
}

// CreateRequest persists a new friend request.
func (r *PostgresFriendRepository) CreateRequest(ctx context.Context, request models.FriendRequest) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO friend_requests (id, from_user_id, to_user_id, accepted, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, request.ID, request.FromUser, request.ToUser, request.Accepted, request.CreatedAt)
	return mapPgError("insert friend request", err)
}

// FindRequest loads a single friend request.
func (r *PostgresFriendRepository) FindRequest(ctx context.Context, requestID string) (models.FriendRequest, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.FriendRequest{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, from_user_id, to_user_id, accepted, created_at
        FROM friend_requests
        WHERE id = $1
    `, requestID)

	var req models.FriendRequest
	if err := row.Scan(&req.ID, &req.FromUser, &req.ToUser, &req.Accepted, &req.CreatedAt); err != nil {
		return models.FriendRequest{}, mapPgError("select friend request", err)
	}
	req.CreatedAt = req.CreatedAt.UTC()

	return req, nil
}

// MarkAccepted flags the request as accepted.
func (r *PostgresFriendRepository) MarkAccepted(ctx context.Context, requestID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE friend_requests
        SET accepted = TRUE
        WHERE id = $1
    `, requestID)
	if err != nil {
		return fmt.Errorf("update friend request: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteRequest removes the request permanently.
func (r *PostgresFriendRepository) DeleteRequest(ctx context.Context, requestID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM friend_requests WHERE id = $1`, requestID)
	if err != nil {
		return fmt.Errorf("delete friend request: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// FindAcceptedByFrom returns the distinct recipients of accepted requests sent by userID.
func (r *PostgresFriendRepository) FindAcceptedByFrom(ctx context.Context, userID string, page models.Page) ([]models.User, int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int
	if err := conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM users
        WHERE id IN (
            SELECT to_user_id FROM friend_requests
            WHERE from_user_id = $1 AND accepted
        )
    `, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count friends: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT id, email, first_name, last_name, password_hash, created_at, updated_at
        FROM users
        WHERE id IN (
            SELECT to_user_id FROM friend_requests
            WHERE from_user_id = $1 AND accepted
        )
        ORDER BY id
        LIMIT $2 OFFSET $3
    `, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query friends: %w", err)
	}

	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// FindPendingByTo returns incoming requests for userID that have not been accepted.
func (r *PostgresFriendRepository) FindPendingByTo(ctx context.Context, userID string, page models.Page) ([]models.FriendRequest, int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int
	if err := conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM friend_requests
        WHERE to_user_id = $1 AND NOT accepted
    `, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count pending requests: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT id, from_user_id, to_user_id, accepted, created_at
        FROM friend_requests
        WHERE to_user_id = $1 AND NOT accepted
        ORDER BY created_at, id
        LIMIT $2 OFFSET $3
    `, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query pending requests: %w", err)
	}
	defer rows.Close()

	var requests []models.FriendRequest
	for rows.Next() {
		var req models.FriendRequest
		if err := rows.Scan(&req.ID, &req.FromUser, &req.ToUser, &req.Accepted, &req.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan friend request: %w", err)
		}
		req.CreatedAt = req.CreatedAt.UTC()
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate pending requests: %w", err)
	}

	return requests, total, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.Password, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return models.User{}, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return user, nil
}

func collectUsers(rows pgx.Rows) ([]models.User, error) {
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ FriendRepository = (*PostgresFriendRepository)(nil)
var _ db.Pool = (*pgxpool.Pool)(nil)
