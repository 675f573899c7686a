package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/storably/storage-service/internal/services"
	"github.com/storably/storage-service/internal/utils"
)

type contextKey string

const (
	ContextKeyUserID    = contextKey("userID")
	ContextKeyUserEmail = contextKey("userEmail")
	ContextKeyToken     = contextKey("accessToken")
)

// AuthMiddleware protects an endpoint: the request must carry a valid,
// non-revoked bearer token belonging to a registered user, or it is
// rejected with 401.
func AuthMiddleware(jwtService services.JWTService, authService *services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := extractBearerToken(r)
			if err != nil {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, err.Error(), nil,
				)
				return
			}

			ctx, ok := authenticate(w, r, tokenStr, jwtService, authService)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthMiddleware is identical to AuthMiddleware except that it
// lets the request through unauthenticated when no token is present.
// Handlers behind it serve the public view in that case.
func OptionalAuthMiddleware(jwtService services.JWTService, authService *services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, _ := extractBearerToken(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx, ok := authenticate(w, r, tokenStr, jwtService, authService)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authenticate validates the token, resolves its user, and returns a
// context carrying the caller's identity. On failure it writes the 401
// itself and returns ok=false.
func authenticate(
	w http.ResponseWriter,
	r *http.Request,
	tokenStr string,
	jwtService services.JWTService,
	authService *services.AuthService,
) (context.Context, bool) {
	email, err := jwtService.ValidateToken(r.Context(), tokenStr)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			utils.RespondErrorWithCode(
				w, http.StatusUnauthorized, utils.ErrCodeTokenExpired, "Token expired", nil, err,
			)
		case errors.Is(err, utils.ErrTokenRevoked):
			utils.RespondErrorWithCode(
				w, http.StatusUnauthorized, utils.ErrCodeTokenRevoked, "Token revoked", nil, err,
			)
		default:
			utils.RespondErrorWithCode(
				w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid token", nil, err,
			)
		}
		return nil, false
	}

	// A token can outlive its account: deleting a user leaves already
	// issued tokens valid until expiry, so the lookup may come back empty.
	user, err := authService.ResolveUser(r.Context(), email)
	if err != nil || user == nil {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Unknown token subject", nil, err,
		)
		return nil, false
	}

	ctx := context.WithValue(r.Context(), ContextKeyUserID, user.ID)
	ctx = context.WithValue(ctx, ContextKeyUserEmail, user.Email)
	ctx = context.WithValue(ctx, ContextKeyToken, tokenStr)
	return ctx, true
}

func extractBearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", errors.New("missing Authorization header")
	}
	return strings.TrimPrefix(h, "Bearer "), nil
}

// UserIDFromContext reads the authenticated caller's id set by the
// middleware.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ContextKeyUserID).(uuid.UUID)
	return id, ok
}

func TokenFromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(ContextKeyToken).(string)
	return tok, ok
}
