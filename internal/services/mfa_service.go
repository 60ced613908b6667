package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/auth"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/models"
	pkgauth "github.com/Sexual-Harresment-Committee/ComplaintWebSite/pkg/auth"
)

// MFAService handles optional TOTP enrollment for staff accounts. A secret
// is provisioned first and only promoted to "enabled" after the account
// proves possession with one valid code.
type MFAService struct {
	repo   UserRepository
	totp   *auth.TOTPManager
	audit  *AuditService
	logger *slog.Logger
}

// NewMFAService creates a new MFAService
func NewMFAService(repo UserRepository, totp *auth.TOTPManager, audit *AuditService, logger *slog.Logger) *MFAService {
	return &MFAService{
		repo:   repo,
		totp:   totp,
		audit:  audit,
		logger: logger,
	}
}

// SetupResponse carries the provisioning QR for the authenticator app.
type SetupResponse struct {
	QRCodeDataURL string `json:"qr_code_data_url"`
}

// Setup provisions a fresh encrypted secret for the account. Re-running
// setup before enabling replaces the pending secret; setup on an already
// enabled account is a conflict.
func (s *MFAService) Setup(ctx context.Context, userID string) (*SetupResponse, error) {
	if s.totp == nil {
		s.logger.Warn("mfa setup requested but no encryption key is configured")
		return nil, models.ErrBadRequest
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.MFAEnabled {
		return nil, models.ErrConflict
	}

	encrypted, nonce, qrDataURL, err := s.totp.GenerateSecretWithQR(user.Email)
	if err != nil {
		s.logger.Error("failed to generate TOTP secret", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user.TOTPSecretEnc = encrypted
	user.TOTPSecretNonce = nonce
	user.MFAEnabled = false

	if _, err := s.repo.Update(ctx, userID, user); err != nil {
		s.logger.Error("failed to store TOTP secret", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("mfa setup started", slog.String("user_id", userID))

	return &SetupResponse{QRCodeDataURL: qrDataURL}, nil
}

// Enable turns MFA on after the user proves possession of the secret.
func (s *MFAService) Enable(ctx context.Context, userID, code string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if user.MFAEnabled {
		return models.ErrConflict
	}
	if s.totp == nil || len(user.TOTPSecretEnc) == 0 {
		return models.ErrBadRequest
	}

	secret, err := s.totp.DecryptSecret(user.TOTPSecretEnc, user.TOTPSecretNonce)
	if err != nil {
		s.logger.Error("failed to decrypt TOTP secret", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	valid, err := s.totp.ValidateTOTP(secret, code)
	if err != nil {
		s.logger.Error("failed to validate TOTP code", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}
	if !valid {
		s.audit.LogUserEvent(ctx, models.AuditEventTypeMFA, userID, userID, "enable", false, "invalid_mfa_code")
		return models.ErrInvalidMFACode
	}

	user.MFAEnabled = true
	if _, err := s.repo.Update(ctx, userID, user); err != nil {
		s.logger.Error("failed to enable mfa", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("mfa enabled", slog.String("user_id", userID))
	s.audit.LogUserEvent(ctx, models.AuditEventTypeMFA, userID, userID, "enable", true, "")

	return nil
}

// Disable turns MFA off. The account password is required so a hijacked
// session cannot silently weaken the account.
func (s *MFAService) Disable(ctx context.Context, userID, password string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if !user.MFAEnabled {
		return models.ErrBadRequest
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.audit.LogUserEvent(ctx, models.AuditEventTypeMFA, userID, userID, "disable", false, "invalid_credentials")
		return models.ErrUnauthorized
	}

	user.MFAEnabled = false
	user.TOTPSecretEnc = nil
	user.TOTPSecretNonce = nil

	if _, err := s.repo.Update(ctx, userID, user); err != nil {
		s.logger.Error("failed to disable mfa", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("mfa disabled", slog.String("user_id", userID))
	s.audit.LogUserEvent(ctx, models.AuditEventTypeMFA, userID, userID, "disable", true, "")

	return nil
}

func (s *MFAService) getUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return user, nil
}
