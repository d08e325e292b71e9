package handlers

import (
	"net/http"

	"github.com/socialgraph/backend/internal/middleware"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{Checks: deps.HealthChecks}
	auth := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Limiter: deps.AuthLimiter}
	friends := FriendHandler{Friends: deps.Friends}
	users := UserHandler{Friends: deps.Friends}

	protected := middleware.RequireAuth(deps.Tokens)

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/register", auth.Register)
	mux.HandleFunc("/login", auth.Login)
	mux.HandleFunc("/token/refresh", auth.Refresh)
	mux.HandleFunc("/search", users.Search)
	mux.Handle("/send-request", protected(http.HandlerFunc(friends.Send)))
	mux.Handle("/accept-request/{id}", protected(http.HandlerFunc(friends.Accept)))
	mux.Handle("/reject-request/{id}", protected(http.HandlerFunc(friends.Reject)))
	mux.Handle("/friends", protected(http.HandlerFunc(friends.List)))
	mux.Handle("/pending-requests", protected(http.HandlerFunc(friends.Pending)))
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users        UserStore
	Sessions     SessionManager
	Tokens       middleware.TokenVerifier
	Friends      FriendService
	AuthLimiter  RateLimiter
	HealthChecks map[string]HealthCheck
}
