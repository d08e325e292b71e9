package models

import "time"

// User represents an account within the social graph.
type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FriendRequest is an invitation from one user to another. A request is
// pending until its recipient accepts it; rejection deletes the record.
type FriendRequest struct {
	ID        string
	FromUser  string
	ToUser    string
	Accepted  bool
	CreatedAt time.Time
}

// Pending reports whether the recipient has not yet acted on the request.
func (r FriendRequest) Pending() bool {
	return !r.Accepted
}

// Page selects a window of an ordered result set.
type Page struct {
	Limit  int
	Offset int
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}
