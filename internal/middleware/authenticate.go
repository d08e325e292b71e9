package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/socialgraph/backend/internal/auth"
	"github.com/socialgraph/backend/internal/logging"
)

// TokenVerifier resolves a bearer access token to a user identifier.
type TokenVerifier interface {
	Verify(ctx context.Context, accessToken string) (string, error)
}

// RequireAuth rejects requests without a valid bearer token and records the
// caller on the request context.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx)

			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				unauthorized(w, "Authentication credentials were not provided.")
				return
			}

			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				unauthorized(w, "Authorization header must contain two space-delimited values: Bearer <token>.")
				return
			}

			if verifier == nil {
				logger.Error("token verifier unavailable")
				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			userID, err := verifier.Verify(ctx, strings.TrimSpace(token))
			if err != nil {
				logger.Warn("bearer token rejected", "error", err)
				unauthorized(w, "Given token not valid for any token type")
				return
			}

			ctx = auth.WithUserID(ctx, userID)
			ctx = logging.WithLogger(ctx, logger.With(slog.String("user_id", userID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
