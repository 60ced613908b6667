package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/auth"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/models"
	pkgauth "github.com/Sexual-Harresment-Committee/ComplaintWebSite/pkg/auth"
)

// TokenRevocationRepository defines the interface for token revocation operations
type TokenRevocationRepository interface {
	RevokeToken(ctx context.Context, jti, userID, tokenType string, expiresAt time.Time, reason string) error
	RevokeAllUserTokens(ctx context.Context, userID, reason string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	AreUserTokensRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

// AuthService handles staff authentication
type AuthService struct {
	repo       UserRepository
	revokeRepo TokenRevocationRepository
	tm         *auth.TokenManager
	totp       *auth.TOTPManager
	audit      *AuditService
	logger     *slog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(repo UserRepository, tm *auth.TokenManager, totp *auth.TOTPManager, revokeRepo TokenRevocationRepository, audit *AuditService, logger *slog.Logger) *AuthService {
	return &AuthService{
		repo:       repo,
		revokeRepo: revokeRepo,
		tm:         tm,
		totp:       totp,
		audit:      audit,
		logger:     logger,
	}
}

// UserResponse represents a staff account in HTTP responses
type UserResponse struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
	Status     string `json:"status"`
	MFAEnabled bool   `json:"mfa_enabled"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// AuthResponse represents the response from auth operations
type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	User         *UserResponse `json:"user"`
}

// Login authenticates a staff member and returns a token pair. When MFA is
// enabled on the account a valid TOTP code must accompany the password; a
// correct password alone surfaces ErrMFARequired so the client can prompt.
func (s *AuthService) Login(ctx context.Context, email, password, mfaCode, ipAddress string) (*AuthResponse, error) {
	if email = strings.ToLower(strings.TrimSpace(email)); email == "" {
		return nil, models.ErrUnauthorized
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: invalid credentials")
			s.audit.LogAuthEvent(ctx, models.AuditEventTypeLogin, nil, false, "invalid_credentials", ipAddress)
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !user.Active() {
		s.logger.Info("login blocked: account disabled", slog.String("user_id", user.ID))
		s.audit.LogAuthEvent(ctx, models.AuditEventTypeLogin, &user.ID, false, "account_disabled", ipAddress)
		return nil, models.ErrAccountDisabled
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.logger.Info("login failed: invalid credentials")
		s.audit.LogAuthEvent(ctx, models.AuditEventTypeLogin, &user.ID, false, "invalid_credentials", ipAddress)
		return nil, models.ErrUnauthorized
	}

	if user.MFAEnabled {
		if mfaCode == "" {
			return nil, models.ErrMFARequired
		}
		if err := s.verifyMFACode(user, mfaCode); err != nil {
			s.audit.LogAuthEvent(ctx, models.AuditEventTypeLogin, &user.ID, false, "invalid_mfa_code", ipAddress)
			return nil, err
		}
	}

	accessToken, err := s.tm.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	refreshToken, err := s.tm.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.audit.LogAuthEvent(ctx, models.AuditEventTypeLogin, &user.ID, true, "", ipAddress)

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         userModelToResponse(user),
	}, nil
}

func (s *AuthService) verifyMFACode(user *models.User, code string) error {
	if s.totp == nil {
		s.logger.Error("mfa enabled but no TOTP manager configured", slog.String("user_id", user.ID))
		return models.ErrInternalServer
	}

	secret, err := s.totp.DecryptSecret(user.TOTPSecretEnc, user.TOTPSecretNonce)
	if err != nil {
		s.logger.Error("failed to decrypt TOTP secret", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	valid, err := s.totp.ValidateTOTP(secret, code)
	if err != nil {
		s.logger.Error("failed to validate TOTP code", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}
	if !valid {
		s.logger.Info("login failed: invalid mfa code", slog.String("user_id", user.ID))
		return models.ErrInvalidMFACode
	}

	return nil
}

// RefreshToken generates a new token pair from a refresh token
func (s *AuthService) RefreshToken(ctx context.Context, refreshTokenString string) (*AuthResponse, error) {
	if refreshTokenString = strings.TrimSpace(refreshTokenString); refreshTokenString == "" {
		return nil, models.ErrUnauthorized
	}

	claims, err := s.tm.ValidateToken(refreshTokenString)
	if err != nil {
		s.logger.Info("refresh token validation failed", slog.Any("error", err))
		return nil, models.ErrUnauthorized
	}

	if claims.Type != "refresh" {
		s.logger.Warn("refresh attempt with non-refresh token", slog.String("user_id", claims.UserID))
		return nil, models.ErrUnauthorized
	}

	revoked, err := s.revokeRepo.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Error("failed to check token revocation", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if !revoked && claims.IssuedAt != nil {
		revoked, err = s.revokeRepo.AreUserTokensRevoked(ctx, claims.UserID, claims.IssuedAt.Time)
		if err != nil {
			s.logger.Error("failed to check user token revocation", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
	}
	if revoked {
		return nil, models.ErrUnauthorized
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("user not found for token refresh", slog.String("user_id", claims.UserID))
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user for token refresh", slog.String("user_id", claims.UserID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !user.Active() {
		s.logger.Info("token refresh blocked: account disabled", slog.String("user_id", user.ID))
		return nil, models.ErrUnauthorized
	}

	accessToken, err := s.tm.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	newRefreshToken, err := s.tm.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("token refreshed", slog.String("user_id", user.ID))

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		User:         userModelToResponse(user),
	}, nil
}

// Logout revokes the current access token
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.tm.ValidateToken(accessToken)
	if err != nil {
		return models.ErrUnauthorized
	}

	expiresAt := claims.ExpiresAt.Time
	if err := s.revokeRepo.RevokeToken(ctx, claims.ID, claims.UserID, claims.Type, expiresAt, "logout"); err != nil {
		s.logger.Error("failed to revoke token", slog.String("jti", claims.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user logged out", slog.String("user_id", claims.UserID))
	s.audit.LogAuthEvent(ctx, models.AuditEventTypeLogout, &claims.UserID, true, "", "")
	return nil
}

// LogoutAll revokes every outstanding token for the user ("logout all
// devices"). The marker lives as long as the longest-lived token it covers.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.revokeRepo.RevokeAllUserTokens(ctx, userID, "logout_all", s.tm.RefreshTokenExpiry()); err != nil {
		s.logger.Error("failed to revoke all user tokens", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user logged out from all devices", slog.String("user_id", userID))
	s.audit.LogAuthEvent(ctx, models.AuditEventTypeLogout, &userID, true, "", "")
	return nil
}

// userModelToResponse converts a user model to its response DTO
func userModelToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		Role:       user.Role,
		Department: user.Department,
		Status:     user.Status,
		MFAEnabled: user.MFAEnabled,
		CreatedAt:  user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:  user.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
