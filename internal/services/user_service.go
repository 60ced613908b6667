package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/models"
	pkgauth "github.com/Sexual-Harresment-Committee/ComplaintWebSite/pkg/auth"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	ListByRole(ctx context.Context, role string) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, id string, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

// UserService handles staff provisioning and management. Credentials and
// profile live in one row of one store, so provisioning cannot half-succeed;
// the create upsert keyed by email lets a retried provisioning repair an
// earlier partial attempt instead of conflicting with it.
type UserService struct {
	repo       UserRepository
	revokeRepo TokenRevocationRepository
	audit      *AuditService
	logger     *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(repo UserRepository, revokeRepo TokenRevocationRepository, audit *AuditService, logger *slog.Logger) *UserService {
	return &UserService{
		repo:       repo,
		revokeRepo: revokeRepo,
		audit:      audit,
		logger:     logger,
	}
}

// ProvisionStaffInput carries a new staff account request.
type ProvisionStaffInput struct {
	Email      string
	Password   string
	Name       string
	Role       string
	Department string
}

// ProvisionStaff creates a staff account with one of the recognized roles.
func (s *UserService) ProvisionStaff(ctx context.Context, input ProvisionStaffInput, actorID string) (*models.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Name = strings.TrimSpace(input.Name)
	if input.Email == "" || input.Name == "" {
		return nil, models.ErrBadRequest
	}

	if !models.IsValidRole(input.Role) {
		s.logger.Info("provisioning rejected: invalid role", slog.String("role", input.Role))
		return nil, models.ErrBadRequest
	}

	if err := pkgauth.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	hashedPassword, err := pkgauth.HashPassword(input.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	created, err := s.repo.Create(ctx, &models.User{
		Email:        input.Email,
		PasswordHash: hashedPassword,
		Name:         input.Name,
		Role:         input.Role,
		Department:   input.Department,
		Status:       "active",
	})
	if err != nil {
		s.logger.Error("failed to create user", slog.Any("error", err))
		s.audit.LogUserEvent(ctx, models.AuditEventTypeUserProvision, actorID, input.Email, models.AuditActionCreate, false, "store_failure")
		return nil, models.ErrInternalServer
	}

	s.logger.Info("staff account provisioned",
		slog.String("user_id", created.ID),
		slog.String("role", created.Role))
	s.audit.LogUserEvent(ctx, models.AuditEventTypeUserProvision, actorID, created.ID, models.AuditActionCreate, true, "")

	return created, nil
}

// GetUser retrieves a staff account by ID
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return user, nil
}

// ListUsers retrieves staff accounts with pagination
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	limit, offset = clampPage(limit, offset)

	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return users, nil
}

// ListActionTakers returns the staff eligible for complaint assignment.
func (s *UserService) ListActionTakers(ctx context.Context) ([]*models.User, error) {
	users, err := s.repo.ListByRole(ctx, models.RoleActionTaker)
	if err != nil {
		s.logger.Error("failed to list action takers", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return users, nil
}

// UpdateStaffInput carries the mutable profile fields; empty means unchanged.
type UpdateStaffInput struct {
	Name       string
	Role       string
	Department string
	Status     string
}

// UpdateStaff applies partial updates to a staff account.
func (s *UserService) UpdateStaff(ctx context.Context, id string, input UpdateStaffInput, actorID string) (*models.User, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if input.Name != "" {
		existing.Name = strings.TrimSpace(input.Name)
	}
	if input.Role != "" {
		if !models.IsValidRole(input.Role) {
			return nil, models.ErrBadRequest
		}
		existing.Role = input.Role
	}
	if input.Department != "" {
		existing.Department = input.Department
	}
	if input.Status != "" {
		if input.Status != "active" && input.Status != "disabled" {
			return nil, models.ErrBadRequest
		}
		existing.Status = input.Status
	}

	updated, err := s.repo.Update(ctx, id, existing)
	if err != nil {
		s.logger.Error("failed to update user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("staff account updated", slog.String("user_id", id))
	s.audit.LogUserEvent(ctx, models.AuditEventTypeUserProvision, actorID, id, models.AuditActionUpdate, true, "")

	return updated, nil
}

// DeleteStaff removes a staff account and revokes every outstanding token.
// Complaints assigned to the account fall back to unassigned via the FK.
func (s *UserService) DeleteStaff(ctx context.Context, id, actorID string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete user", slog.String("user_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.revokeRepo.RevokeAllUserTokens(ctx, id, "account_deleted", 7*24*time.Hour); err != nil {
		s.logger.Error("failed to revoke tokens for deleted user", slog.String("user_id", id), slog.Any("error", err))
	}

	s.logger.Info("staff account deleted", slog.String("user_id", id))
	s.audit.LogUserEvent(ctx, models.AuditEventTypeUserProvision, actorID, id, models.AuditActionDelete, true, "")

	return nil
}
