package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/socialgraph/backend/internal/auth"
	"github.com/socialgraph/backend/internal/logging"
	"github.com/socialgraph/backend/internal/models"
	"github.com/socialgraph/backend/internal/repositories"
)

// AuthHandler implements registration and token endpoints.
type AuthHandler struct {
	Users    UserStore
	Sessions SessionManager
	Limiter  RateLimiter
	NowFunc  func() time.Time
}

// Register handles POST /register requests.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "register") {
		respondMessage(ctx, w, http.StatusTooManyRequests, "too many requests")
		return
	}

	if h.Users == nil {
		logger.Error("user store unavailable")
		respondMessage(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid register payload", "error", err)
		respondMessage(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if err := validate.Struct(req); err != nil {
		respondMessage(ctx, w, http.StatusBadRequest, validationMessage(err))
		return
	}

	if _, err := h.Users.FindByEmail(ctx, req.Email); err == nil {
		respondMessage(ctx, w, http.StatusBadRequest, "email: user with this email already exists")
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("register user lookup failed", "error", err, "email", req.Email)
		respondMessage(ctx, w, http.StatusInternalServerError, "unable to verify existing accounts")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("register failed to hash password", "error", err)
		respondMessage(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	now := h.now()
	user := models.User{
		ID:        uuid.NewString(),
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  hashed,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondMessage(ctx, w, http.StatusBadRequest, "email: user with this email already exists")
			return
		}
		logger.Error("register failed to create user", "error", err, "email", req.Email)
		respondMessage(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}

	logger.Info("user registered", "userId", user.ID)
	respondJSON(ctx, w, http.StatusCreated, newUserResponse(user))
}

// Login handles POST /login requests.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "login") {
		respondMessage(ctx, w, http.StatusTooManyRequests, "too many requests")
		return
	}

	if h.Users == nil || h.Sessions == nil {
		logger.Error("authentication dependencies unavailable", "hasUsers", h.Users != nil, "hasSessions", h.Sessions != nil)
		respondMessage(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondMessage(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := validate.Struct(req); err != nil {
		respondMessage(ctx, w, http.StatusBadRequest, validationMessage(err))
		return
	}

	user, err := h.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			logger.Error("login user lookup failed", "email", req.Email, "error", err)
			respondMessage(ctx, w, http.StatusInternalServerError, "unable to verify credentials")
			return
		}
		respondMessage(ctx, w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	if err := auth.CheckPassword(user.Password, req.Password); err != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondMessage(ctx, w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		logger.Error("failed to issue session", "error", err, "userId", user.ID)
		respondMessage(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	resp := newTokenResponse(tokens)
	resp.Message = "Login successful"
	respondJSON(ctx, w, http.StatusOK, resp)
}

// Refresh exchanges a refresh token for a new token pair.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session manager unavailable")
		respondMessage(ctx, w, http.StatusInternalServerError, "session service unavailable")
		return
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid refresh payload", "error", err)
		respondMessage(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Refresh = strings.TrimSpace(req.Refresh)
	if err := validate.Struct(req); err != nil {
		respondMessage(ctx, w, http.StatusBadRequest, validationMessage(err))
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, req.Refresh)
	if err != nil {
		if errors.Is(err, auth.ErrRefreshTokenExpired) || errors.Is(err, auth.ErrSessionNotFound) {
			respondMessage(ctx, w, http.StatusUnauthorized, "Token is invalid or expired")
			return
		}
		logger.Error("refresh failed", "error", err)
		respondMessage(ctx, w, http.StatusInternalServerError, "unable to refresh session")
		return
	}

	respondJSON(ctx, w, http.StatusOK, newTokenResponse(tokens))
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Password  string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type tokenResponse struct {
	Access           string    `json:"access"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	Refresh          string    `json:"refresh"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	Message          string    `json:"message,omitempty"`
}

func newTokenResponse(tokens models.SessionTokens) tokenResponse {
	return tokenResponse{
		Access:           tokens.AccessToken,
		AccessExpiresAt:  tokens.AccessExpiresAt,
		Refresh:          tokens.RefreshToken,
		RefreshExpiresAt: tokens.RefreshExpiresAt,
	}
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
