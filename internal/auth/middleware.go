package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/models"
	pkghttp "github.com/Sexual-Harresment-Committee/ComplaintWebSite/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key for storing token claims in context
	UserContextKey contextKey = "user"
	// RoleContextKey holds the store-verified role set by RequireAnyRole
	RoleContextKey contextKey = "role"
)

// UserRepository is the slice of the user store the gate needs: the current
// role, re-read on every privileged request.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// TokenRevoker covers both per-token and whole-principal revocation checks.
type TokenRevoker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	AreUserTokensRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
	RevokeAllUserTokens(ctx context.Context, userID, reason string, ttl time.Duration) error
}

// AuthMiddleware validates JWT tokens, checks revocation, and injects claims
// into the request context.
func AuthMiddleware(tm *TokenManager, revoker TokenRevoker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				pkghttp.WriteUnauthorized(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				pkghttp.WriteUnauthorized(w, "invalid authorization header format")
				return
			}

			claims, err := tm.ValidateToken(parts[1])
			if err != nil {
				pkghttp.WriteUnauthorized(w, "invalid or expired token")
				return
			}

			// Refresh tokens are only good for /auth/refresh
			if claims.Type == "refresh" {
				pkghttp.WriteUnauthorized(w, "refresh tokens cannot be used for API access")
				return
			}

			if revoker != nil && claims.ID != "" {
				revoked, err := revoker.IsTokenRevoked(r.Context(), claims.ID)
				if err != nil {
					pkghttp.WriteServiceUnavailable(w, "unable to verify token status")
					return
				}
				if !revoked && claims.IssuedAt != nil {
					revoked, err = revoker.AreUserTokensRevoked(r.Context(), claims.UserID, claims.IssuedAt.Time)
					if err != nil {
						pkghttp.WriteServiceUnavailable(w, "unable to verify token status")
						return
					}
				}
				if revoked {
					pkghttp.WriteUnauthorized(w, "token has been revoked")
					return
				}
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAnyRole enforces role-based access control. The role is always
// fetched from the store, never taken from token claims; a stale client-side
// role can therefore never widen access. A principal whose stored role is not
// in the recognized set is denied AND forcibly signed out (all tokens
// revoked), matching the dashboard behavior for unknown roles.
func RequireAnyRole(userRepo UserRepository, revoker TokenRevoker, logger *slog.Logger, roles ...string) func(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r)
			if claims == nil {
				pkghttp.WriteUnauthorized(w, "unauthorized")
				return
			}

			user, err := userRepo.GetByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					pkghttp.WriteUnauthorized(w, "user not found")
					return
				}
				pkghttp.WriteInternalError(w, "internal server error")
				return
			}

			if !user.Active() {
				pkghttp.WriteForbidden(w, "account disabled")
				return
			}

			if !models.IsValidRole(user.Role) {
				// Unrecognized role: force sign-out so the session cannot
				// keep probing other endpoints.
				if revoker != nil {
					if err := revoker.RevokeAllUserTokens(r.Context(), user.ID, "unrecognized role", 7*24*time.Hour); err != nil {
						logger.Error("failed to revoke tokens for unrecognized role",
							slog.String("user_id", user.ID), slog.Any("error", err))
					}
				}
				logger.Warn("forced sign-out for unrecognized role",
					slog.String("user_id", user.ID), slog.String("role", user.Role))
				pkghttp.WriteForbidden(w, "access denied")
				return
			}

			if !allowed[user.Role] {
				pkghttp.WriteForbidden(w, "forbidden: insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), RoleContextKey, user.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext extracts token claims from request context
func GetUserFromContext(r *http.Request) *models.TokenClaims {
	claims, ok := r.Context().Value(UserContextKey).(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}

// GetRoleFromContext returns the store-verified role placed by
// RequireAnyRole, or "" when no role check ran.
func GetRoleFromContext(r *http.Request) string {
	role, ok := r.Context().Value(RoleContextKey).(string)
	if !ok {
		return ""
	}
	return role
}
