package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/models"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/repositories"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/stream"
	pkgauth "github.com/Sexual-Harresment-Committee/ComplaintWebSite/pkg/auth"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/pkg/ident"
)

// ComplaintRepository defines the interface for complaint data access
type ComplaintRepository interface {
	Create(ctx context.Context, c *models.Complaint) (*models.Complaint, error)
	GetByID(ctx context.Context, id string) (*models.Complaint, error)
	List(ctx context.Context, filter repositories.ComplaintFilter) ([]*models.Complaint, error)
	MarkViewed(ctx context.Context, id string) (bool, error)
	Assign(ctx context.Context, id, staffID string) (*models.Complaint, error)
	SetStatus(ctx context.Context, id string, status models.ComplaintStatus) (*models.Complaint, error)
	AppendPublicUpdate(ctx context.Context, complaintID, message string) (*models.PublicUpdate, error)
	ListPublicUpdates(ctx context.Context, complaintID string) ([]models.PublicUpdate, error)
	Stats(ctx context.Context) (*models.DashboardStats, error)
}

// InternalNoteRepository defines the interface for staff-only note access
type InternalNoteRepository interface {
	Append(ctx context.Context, complaintID, authorID, note string) (*models.InternalNote, error)
	ListByComplaint(ctx context.Context, complaintID string) ([]models.InternalNote, error)
}

// EmailSender sends staff notifications. May be absent when email is not
// configured.
type EmailSender interface {
	SendAssignmentNotification(ctx context.Context, toEmail, toName string, complaint *models.Complaint) error
}

// ComplaintService drives the complaint lifecycle. Every successful mutation
// is a single-row write followed by an audit entry and a stream publish; the
// write is the source of truth and audit/stream failures never roll it back.
type ComplaintService struct {
	repo   ComplaintRepository
	notes  InternalNoteRepository
	users  UserRepository
	audit  *AuditService
	hub    *stream.Hub
	email  EmailSender
	logger *slog.Logger
}

// NewComplaintService creates a new ComplaintService. email may be nil when
// assignment notifications are disabled.
func NewComplaintService(
	repo ComplaintRepository,
	notes InternalNoteRepository,
	users UserRepository,
	audit *AuditService,
	hub *stream.Hub,
	email EmailSender,
	logger *slog.Logger,
) *ComplaintService {
	return &ComplaintService{
		repo:   repo,
		notes:  notes,
		users:  users,
		audit:  audit,
		hub:    hub,
		email:  email,
		logger: logger,
	}
}

// SubmitComplaintInput carries a new anonymous submission.
type SubmitComplaintInput struct {
	Severity      string
	Category      string
	Description   string
	AttachmentURL string
	Passcode      string // optional; empty means the ID alone grants tracking access
}

// SubmitReceipt is everything the submitter gets back. The passcode is never
// echoed; the submitter must remember what they typed.
type SubmitReceipt struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	PasscodeProtected bool   `json:"passcode_protected"`
}

// Submit creates a complaint in the Submitted state with a generated ID. A
// generated-ID collision is retried once with a fresh ID before giving up.
func (s *ComplaintService) Submit(ctx context.Context, input SubmitComplaintInput) (*SubmitReceipt, error) {
	input.Description = strings.TrimSpace(input.Description)
	if input.Description == "" {
		return nil, models.ErrBadRequest
	}

	passcodeHash := ""
	if input.Passcode != "" {
		passcodeHash = pkgauth.HashPasscode(input.Passcode)
	}

	var created *models.Complaint
	for attempt := 0; attempt < 2; attempt++ {
		id, err := ident.GenerateComplaintID()
		if err != nil {
			s.logger.Error("failed to generate complaint id", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		created, err = s.repo.Create(ctx, &models.Complaint{
			ID:            id,
			Status:        models.StatusSubmitted,
			Severity:      input.Severity,
			Category:      input.Category,
			Description:   input.Description,
			AttachmentURL: input.AttachmentURL,
			PasscodeHash:  passcodeHash,
		})
		if err == nil {
			break
		}
		if errors.Is(err, models.ErrConflict) && attempt == 0 {
			s.logger.Warn("complaint id collision, regenerating", slog.String("complaint_id", id))
			continue
		}
		s.logger.Error("failed to create complaint", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("complaint submitted",
		slog.String("complaint_id", created.ID),
		slog.String("severity", created.Severity),
		slog.Bool("passcode_protected", created.PasscodeProtected()))

	s.audit.LogComplaintEvent(ctx, models.AuditEventTypeSubmission, nil, created.ID, models.AuditActionCreate, models.AuditMetadata{
		"severity": created.Severity,
		"category": created.Category,
	})
	s.hub.Publish(stream.Snapshot{Complaint: created, Event: "created"})

	return &SubmitReceipt{
		ID:                created.ID,
		Status:            string(created.Status),
		PasscodeProtected: created.PasscodeProtected(),
	}, nil
}

// authorizeMutation loads the complaint and applies the per-complaint
// visibility rule to a staff write. Mutations share the read rule: an action
// taker may only touch their own assignments.
func (s *ComplaintService) authorizeMutation(ctx context.Context, id, actorID, role string) (*models.Complaint, error) {
	complaint, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get complaint", slog.String("complaint_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if !CanAccessComplaint(complaint, actorID, role) {
		return nil, models.ErrForbidden
	}
	return complaint, nil
}

// MarkViewed transitions Submitted -> Viewed. Calling it on a complaint past
// Submitted is a silent no-op, so dashboards can fire it on every open.
func (s *ComplaintService) MarkViewed(ctx context.Context, id, actorID, role string) error {
	if _, err := s.authorizeMutation(ctx, id, actorID, role); err != nil {
		return err
	}

	changed, err := s.repo.MarkViewed(ctx, id)
	if err != nil {
		s.logger.Error("failed to mark complaint viewed", slog.String("complaint_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}
	if !changed {
		return nil
	}

	s.audit.LogComplaintEvent(ctx, models.AuditEventTypeStatusChange, &actorID, id, models.AuditActionStatusChanged, models.AuditMetadata{
		"status": string(models.StatusViewed),
	})

	complaint, err := s.repo.GetByID(ctx, id)
	if err != nil {
		// The transition already happened; only the stream misses out.
		s.logger.Error("failed to reload complaint after mark-viewed", slog.String("complaint_id", id), slog.Any("error", err))
		return nil
	}
	s.hub.Publish(stream.Snapshot{Complaint: complaint, Event: "status_changed"})

	return nil
}

// Assign routes a complaint to an action taker and forces the status to
// Under Review regardless of where the complaint currently is. The assignee
// must exist and hold the action_taker role.
func (s *ComplaintService) Assign(ctx context.Context, id, staffID, actorID string) (*models.Complaint, error) {
	staff, err := s.users.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrBadRequest
		}
		s.logger.Error("failed to look up assignee", slog.String("user_id", staffID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if staff.Role != models.RoleActionTaker || !staff.Active() {
		return nil, models.ErrBadRequest
	}

	complaint, err := s.repo.Assign(ctx, id, staffID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to assign complaint", slog.String("complaint_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("complaint assigned",
		slog.String("complaint_id", id),
		slog.String("assignee_id", staffID))

	s.audit.LogComplaintEvent(ctx, models.AuditEventTypeAssignment, &actorID, id, models.AuditActionUpdate, models.AuditMetadata{
		"assignee_id": staffID,
		"status":      string(complaint.Status),
	})
	s.hub.Publish(stream.Snapshot{Complaint: complaint, Event: "assigned"})

	if s.email != nil {
		if err := s.email.SendAssignmentNotification(ctx, staff.Email, staff.Name, complaint); err != nil {
			s.logger.Error("failed to send assignment notification",
				slog.String("complaint_id", id), slog.Any("error", err))
		}
	}

	return complaint, nil
}

// SetStatus overwrites the status with any of the recognized states. There
// is no forward-only gating; staff may move a complaint backwards, including
// out of Resolved and Dismissed.
func (s *ComplaintService) SetStatus(ctx context.Context, id string, status models.ComplaintStatus, actorID, role string) (*models.Complaint, error) {
	if !models.IsValidStatus(status) {
		return nil, models.ErrBadRequest
	}
	if _, err := s.authorizeMutation(ctx, id, actorID, role); err != nil {
		return nil, err
	}

	complaint, err := s.repo.SetStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to set complaint status", slog.String("complaint_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.LogComplaintEvent(ctx, models.AuditEventTypeStatusChange, &actorID, id, models.AuditActionStatusChanged, models.AuditMetadata{
		"status": string(status),
	})
	s.hub.Publish(stream.Snapshot{Complaint: complaint, Event: "status_changed"})

	return complaint, nil
}

// AppendPublicUpdate posts a submitter-visible message to the complaint's
// update stream.
func (s *ComplaintService) AppendPublicUpdate(ctx context.Context, id, message, actorID, role string) (*models.PublicUpdate, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, models.ErrBadRequest
	}

	complaint, err := s.authorizeMutation(ctx, id, actorID, role)
	if err != nil {
		return nil, err
	}

	update, err := s.repo.AppendPublicUpdate(ctx, id, message)
	if err != nil {
		s.logger.Error("failed to append public update", slog.String("complaint_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.LogComplaintEvent(ctx, models.AuditEventTypePublicUpdate, &actorID, id, models.AuditActionCreate, nil)
	s.hub.Publish(stream.Snapshot{Complaint: complaint, Event: "public_update"})

	return update, nil
}

// AppendInternalNote records staff-only commentary. Notes never reach the
// hub: nothing in the tracking surface may observe them.
func (s *ComplaintService) AppendInternalNote(ctx context.Context, id, note, actorID, role string) (*models.InternalNote, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, models.ErrBadRequest
	}

	if _, err := s.authorizeMutation(ctx, id, actorID, role); err != nil {
		return nil, err
	}

	created, err := s.notes.Append(ctx, id, actorID, note)
	if err != nil {
		s.logger.Error("failed to append internal note", slog.String("complaint_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.LogComplaintEvent(ctx, models.AuditEventTypeInternalNote, &actorID, id, models.AuditActionCreate, nil)

	return created, nil
}

// Get returns one complaint with its public update stream. An action taker
// only sees complaints assigned to them.
func (s *ComplaintService) Get(ctx context.Context, id, actorID, role string) (*models.Complaint, error) {
	complaint, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get complaint", slog.String("complaint_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !CanAccessComplaint(complaint, actorID, role) {
		return nil, models.ErrForbidden
	}

	updates, err := s.repo.ListPublicUpdates(ctx, id)
	if err != nil {
		s.logger.Error("failed to list public updates", slog.String("complaint_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	complaint.PublicUpdates = updates

	return complaint, nil
}

// List returns complaints visible to the caller. Action takers are pinned to
// their own assignments no matter what filter they send.
func (s *ComplaintService) List(ctx context.Context, actorID, role string, filter repositories.ComplaintFilter) ([]*models.Complaint, error) {
	if role == models.RoleActionTaker {
		filter.AssignedTo = &actorID
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	complaints, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list complaints", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return complaints, nil
}

// ListNotes returns the internal notes of a complaint, oldest first.
func (s *ComplaintService) ListNotes(ctx context.Context, id, actorID, role string) ([]models.InternalNote, error) {
	if !models.CanReadInternalNotes(role) {
		return nil, models.ErrForbidden
	}

	complaint, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get complaint", slog.String("complaint_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if !CanAccessComplaint(complaint, actorID, role) {
		return nil, models.ErrForbidden
	}

	notes, err := s.notes.ListByComplaint(ctx, id)
	if err != nil {
		s.logger.Error("failed to list internal notes", slog.String("complaint_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return notes, nil
}

// Stats computes the committee dashboard aggregates.
func (s *ComplaintService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		s.logger.Error("failed to compute dashboard stats", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return stats, nil
}

// CanAccessComplaint applies the per-complaint visibility rule: admin and
// committee see everything, an action taker sees only their assignments.
func CanAccessComplaint(c *models.Complaint, actorID, role string) bool {
	switch role {
	case models.RoleAdmin, models.RoleCommittee:
		return true
	case models.RoleActionTaker:
		return c.AssignedTo != nil && *c.AssignedTo == actorID
	}
	return false
}
