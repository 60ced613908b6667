package services

import (
	"context"
	"log/slog"

	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/models"
	pkglogger "github.com/Sexual-Harresment-Committee/ComplaintWebSite/pkg/logger"
)

// AuditLogRepository defines the interface for audit log data access
type AuditLogRepository interface {
	Create(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error)
	GetByComplaintID(ctx context.Context, complaintID string, limit, offset int) ([]*models.AuditLog, error)
	GetByEventType(ctx context.Context, eventType string, limit, offset int) ([]*models.AuditLog, error)
	List(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}

// AuditService records security-relevant events with a dual write: a
// structured slog line for operators plus a database row for the audit read
// endpoints. Persistence failures are logged and swallowed so auditing never
// fails the operation it describes.
type AuditService struct {
	repo        AuditLogRepository
	auditLogger *pkglogger.AuditLogger
	logger      *slog.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(repo AuditLogRepository, auditLogger *pkglogger.AuditLogger, logger *slog.Logger) *AuditService {
	return &AuditService{
		repo:        repo,
		auditLogger: auditLogger,
		logger:      logger,
	}
}

// LogComplaintEvent records a lifecycle event against a complaint. actorID is
// nil for anonymous submissions.
func (s *AuditService) LogComplaintEvent(ctx context.Context, eventType string, actorID *string, complaintID, action string, metadata models.AuditMetadata) {
	resourceType := models.AuditResourceTypeComplaint

	event := pkglogger.AuditEvent{
		EventType:  eventType,
		ResourceID: complaintID,
		Success:    true,
	}
	if actorID != nil {
		event.ActorID = *actorID
	}
	s.auditLogger.LogEvent(event)

	s.persist(ctx, &models.AuditLog{
		EventType:    eventType,
		ActorID:      actorID,
		ResourceType: &resourceType,
		ResourceID:   &complaintID,
		Action:       action,
		Success:      true,
		Metadata:     metadata,
	})
}

// LogAuthEvent records a login/logout attempt.
func (s *AuditService) LogAuthEvent(ctx context.Context, eventType string, actorID *string, success bool, failureReason, ipAddress string) {
	event := pkglogger.AuditEvent{
		EventType:     eventType,
		Success:       success,
		FailureReason: failureReason,
		IPAddress:     ipAddress,
	}
	if actorID != nil {
		event.ActorID = *actorID
	}
	s.auditLogger.LogEvent(event)

	log := &models.AuditLog{
		EventType: eventType,
		ActorID:   actorID,
		Action:    models.AuditActionAccess,
		Success:   success,
	}
	if failureReason != "" {
		log.FailureReason = &failureReason
	}
	if ipAddress != "" {
		log.IPAddress = &ipAddress
	}
	s.persist(ctx, log)
}

// LogUserEvent records a staff account operation (provisioning, deletion,
// role changes, MFA state).
func (s *AuditService) LogUserEvent(ctx context.Context, eventType, actorID, targetUserID, action string, success bool, failureReason string) {
	resourceType := models.AuditResourceTypeUser

	s.auditLogger.LogEvent(pkglogger.AuditEvent{
		EventType:     eventType,
		ActorID:       actorID,
		ResourceID:    targetUserID,
		Success:       success,
		FailureReason: failureReason,
	})

	log := &models.AuditLog{
		EventType:    eventType,
		ActorID:      &actorID,
		ResourceType: &resourceType,
		ResourceID:   &targetUserID,
		Action:       action,
		Success:      success,
	}
	if failureReason != "" {
		log.FailureReason = &failureReason
	}
	s.persist(ctx, log)
}

func (s *AuditService) persist(ctx context.Context, log *models.AuditLog) {
	if _, err := s.repo.Create(ctx, log); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist audit log",
			slog.String("event_type", log.EventType),
			slog.Any("error", err))
	}
}

// GetComplaintTrail returns the audit trail for one complaint, newest first.
func (s *AuditService) GetComplaintTrail(ctx context.Context, complaintID string, limit, offset int) ([]*models.AuditLog, error) {
	limit, offset = clampPage(limit, offset)

	logs, err := s.repo.GetByComplaintID(ctx, complaintID, limit, offset)
	if err != nil {
		s.logger.Error("failed to get complaint audit trail",
			slog.String("complaint_id", complaintID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return logs, nil
}

// List returns recent audit entries across all resources.
func (s *AuditService) List(ctx context.Context, eventType string, limit, offset int) ([]*models.AuditLog, error) {
	limit, offset = clampPage(limit, offset)

	var (
		logs []*models.AuditLog
		err  error
	)
	if eventType != "" {
		logs, err = s.repo.GetByEventType(ctx, eventType, limit, offset)
	} else {
		logs, err = s.repo.List(ctx, limit, offset)
	}
	if err != nil {
		s.logger.Error("failed to list audit logs", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return logs, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
