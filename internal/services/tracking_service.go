package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/models"
	pkgauth "github.com/Sexual-Harresment-Committee/ComplaintWebSite/pkg/auth"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/pkg/ident"
)

// TrackingService is the anonymous read path. There is no session: the
// credential is the complaint ID plus (when a hash is on record) the
// passcode, and both are re-checked on every access, including each
// websocket attach.
type TrackingService struct {
	repo   ComplaintRepository
	logger *slog.Logger
}

// NewTrackingService creates a new TrackingService
func NewTrackingService(repo ComplaintRepository, logger *slog.Logger) *TrackingService {
	return &TrackingService{
		repo:   repo,
		logger: logger,
	}
}

// TrackedComplaint is the submitter-visible view. Assignee, passcode hash
// and internal notes are structurally absent, not merely omitted from JSON.
type TrackedComplaint struct {
	ID            string                `json:"id"`
	Status        string                `json:"status"`
	Severity      string                `json:"severity"`
	Category      string                `json:"category"`
	Description   string                `json:"description"`
	CreatedAt     string                `json:"created_at"`
	UpdatedAt     string                `json:"updated_at"`
	PublicUpdates []models.PublicUpdate `json:"public_updates"`
}

// Authorize checks the ID + passcode credential and returns the complaint on
// success. A missing passcode on a protected complaint and a wrong passcode
// are distinct errors so the UI can prompt versus reject.
func (s *TrackingService) Authorize(ctx context.Context, id, passcode string) (*models.Complaint, error) {
	if !ident.IsValidComplaintID(id) {
		return nil, models.ErrNotFound
	}

	complaint, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get complaint for tracking", slog.String("complaint_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if complaint.PasscodeProtected() {
		if passcode == "" {
			return nil, models.ErrPasscodeRequired
		}
		if !pkgauth.VerifyPasscode(complaint.PasscodeHash, passcode) {
			s.logger.Info("tracking passcode rejected", slog.String("complaint_id", id))
			return nil, models.ErrInvalidPasscode
		}
	}

	return complaint, nil
}

// Track authorizes and returns the public view with its update stream.
func (s *TrackingService) Track(ctx context.Context, id, passcode string) (*TrackedComplaint, error) {
	complaint, err := s.Authorize(ctx, id, passcode)
	if err != nil {
		return nil, err
	}

	updates, err := s.repo.ListPublicUpdates(ctx, complaint.ID)
	if err != nil {
		s.logger.Error("failed to list public updates", slog.String("complaint_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	complaint.PublicUpdates = updates

	return PublicView(complaint), nil
}

// PublicView projects a complaint onto the tracking surface.
func PublicView(c *models.Complaint) *TrackedComplaint {
	updates := c.PublicUpdates
	if updates == nil {
		updates = []models.PublicUpdate{}
	}
	return &TrackedComplaint{
		ID:            c.ID,
		Status:        string(c.Status),
		Severity:      c.Severity,
		Category:      c.Category,
		Description:   c.Description,
		CreatedAt:     c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:     c.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		PublicUpdates: updates,
	}
}
