package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/models"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/repositories"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/stream"
	pkglogger "github.com/Sexual-Harresment-Committee/ComplaintWebSite/pkg/logger"
)

// MockComplaintRepository implements ComplaintRepository for testing
type MockComplaintRepository struct {
	CreateFunc             func(ctx context.Context, c *models.Complaint) (*models.Complaint, error)
	GetByIDFunc            func(ctx context.Context, id string) (*models.Complaint, error)
	ListFunc               func(ctx context.Context, filter repositories.ComplaintFilter) ([]*models.Complaint, error)
	MarkViewedFunc         func(ctx context.Context, id string) (bool, error)
	AssignFunc             func(ctx context.Context, id, staffID string) (*models.Complaint, error)
	SetStatusFunc          func(ctx context.Context, id string, status models.ComplaintStatus) (*models.Complaint, error)
	AppendPublicUpdateFunc func(ctx context.Context, complaintID, message string) (*models.PublicUpdate, error)
	ListPublicUpdatesFunc  func(ctx context.Context, complaintID string) ([]models.PublicUpdate, error)
	StatsFunc              func(ctx context.Context) (*models.DashboardStats, error)
}

func (m *MockComplaintRepository) Create(ctx context.Context, c *models.Complaint) (*models.Complaint, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	return c, nil
}

func (m *MockComplaintRepository) GetByID(ctx context.Context, id string) (*models.Complaint, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockComplaintRepository) List(ctx context.Context, filter repositories.ComplaintFilter) ([]*models.Complaint, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []*models.Complaint{}, nil
}

func (m *MockComplaintRepository) MarkViewed(ctx context.Context, id string) (bool, error) {
	if m.MarkViewedFunc != nil {
		return m.MarkViewedFunc(ctx, id)
	}
	return false, nil
}

func (m *MockComplaintRepository) Assign(ctx context.Context, id, staffID string) (*models.Complaint, error) {
	if m.AssignFunc != nil {
		return m.AssignFunc(ctx, id, staffID)
	}
	return nil, models.ErrNotFound
}

func (m *MockComplaintRepository) SetStatus(ctx context.Context, id string, status models.ComplaintStatus) (*models.Complaint, error) {
	if m.SetStatusFunc != nil {
		return m.SetStatusFunc(ctx, id, status)
	}
	return nil, models.ErrNotFound
}

func (m *MockComplaintRepository) AppendPublicUpdate(ctx context.Context, complaintID, message string) (*models.PublicUpdate, error) {
	if m.AppendPublicUpdateFunc != nil {
		return m.AppendPublicUpdateFunc(ctx, complaintID, message)
	}
	return &models.PublicUpdate{ComplaintID: complaintID, Message: message}, nil
}

func (m *MockComplaintRepository) ListPublicUpdates(ctx context.Context, complaintID string) ([]models.PublicUpdate, error) {
	if m.ListPublicUpdatesFunc != nil {
		return m.ListPublicUpdatesFunc(ctx, complaintID)
	}
	return []models.PublicUpdate{}, nil
}

func (m *MockComplaintRepository) Stats(ctx context.Context) (*models.DashboardStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &models.DashboardStats{}, nil
}

// MockInternalNoteRepository implements InternalNoteRepository for testing
type MockInternalNoteRepository struct {
	AppendFunc          func(ctx context.Context, complaintID, authorID, note string) (*models.InternalNote, error)
	ListByComplaintFunc func(ctx context.Context, complaintID string) ([]models.InternalNote, error)
}

func (m *MockInternalNoteRepository) Append(ctx context.Context, complaintID, authorID, note string) (*models.InternalNote, error) {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, complaintID, authorID, note)
	}
	return &models.InternalNote{ComplaintID: complaintID, AuthorID: authorID, Note: note}, nil
}

func (m *MockInternalNoteRepository) ListByComplaint(ctx context.Context, complaintID string) ([]models.InternalNote, error) {
	if m.ListByComplaintFunc != nil {
		return m.ListByComplaintFunc(ctx, complaintID)
	}
	return []models.InternalNote{}, nil
}

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc    func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc func(ctx context.Context, email string) (*models.User, error)
	ListFunc       func(ctx context.Context, limit, offset int) ([]*models.User, error)
	ListByRoleFunc func(ctx context.Context, role string) ([]*models.User, error)
	CreateFunc     func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateFunc     func(ctx context.Context, id string, user *models.User) (*models.User, error)
	DeleteFunc     func(ctx context.Context, id string) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) ListByRole(ctx context.Context, role string) ([]*models.User, error) {
	if m.ListByRoleFunc != nil {
		return m.ListByRoleFunc(ctx, role)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return user, nil
}

func (m *MockUserRepository) Update(ctx context.Context, id string, user *models.User) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, user)
	}
	return user, nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockAuditLogRepository implements AuditLogRepository for testing
type MockAuditLogRepository struct {
	CreateFunc           func(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error)
	GetByComplaintIDFunc func(ctx context.Context, complaintID string, limit, offset int) ([]*models.AuditLog, error)
	GetByEventTypeFunc   func(ctx context.Context, eventType string, limit, offset int) ([]*models.AuditLog, error)
	ListFunc             func(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)

	// Entries collects every persisted log when CreateFunc is nil.
	Entries []*models.AuditLog
}

func (m *MockAuditLogRepository) Create(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	m.Entries = append(m.Entries, log)
	return log, nil
}

func (m *MockAuditLogRepository) GetByComplaintID(ctx context.Context, complaintID string, limit, offset int) ([]*models.AuditLog, error) {
	if m.GetByComplaintIDFunc != nil {
		return m.GetByComplaintIDFunc(ctx, complaintID, limit, offset)
	}
	return []*models.AuditLog{}, nil
}

func (m *MockAuditLogRepository) GetByEventType(ctx context.Context, eventType string, limit, offset int) ([]*models.AuditLog, error) {
	if m.GetByEventTypeFunc != nil {
		return m.GetByEventTypeFunc(ctx, eventType, limit, offset)
	}
	return []*models.AuditLog{}, nil
}

func (m *MockAuditLogRepository) List(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.AuditLog{}, nil
}

// MockTokenRevocationRepository implements TokenRevocationRepository for testing
type MockTokenRevocationRepository struct {
	RevokeTokenFunc          func(ctx context.Context, jti, userID, tokenType string, expiresAt time.Time, reason string) error
	RevokeAllUserTokensFunc  func(ctx context.Context, userID, reason string, ttl time.Duration) error
	IsTokenRevokedFunc       func(ctx context.Context, jti string) (bool, error)
	AreUserTokensRevokedFunc func(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

func (m *MockTokenRevocationRepository) RevokeToken(ctx context.Context, jti, userID, tokenType string, expiresAt time.Time, reason string) error {
	if m.RevokeTokenFunc != nil {
		return m.RevokeTokenFunc(ctx, jti, userID, tokenType, expiresAt, reason)
	}
	return nil
}

func (m *MockTokenRevocationRepository) RevokeAllUserTokens(ctx context.Context, userID, reason string, ttl time.Duration) error {
	if m.RevokeAllUserTokensFunc != nil {
		return m.RevokeAllUserTokensFunc(ctx, userID, reason, ttl)
	}
	return nil
}

func (m *MockTokenRevocationRepository) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if m.IsTokenRevokedFunc != nil {
		return m.IsTokenRevokedFunc(ctx, jti)
	}
	return false, nil
}

func (m *MockTokenRevocationRepository) AreUserTokensRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	if m.AreUserTokensRevokedFunc != nil {
		return m.AreUserTokensRevokedFunc(ctx, userID, issuedAt)
	}
	return false, nil
}

// MockEmailSender implements EmailSender for testing
type MockEmailSender struct {
	SendAssignmentNotificationFunc func(ctx context.Context, toEmail, toName string, complaint *models.Complaint) error
}

func (m *MockEmailSender) SendAssignmentNotification(ctx context.Context, toEmail, toName string, complaint *models.Complaint) error {
	if m.SendAssignmentNotificationFunc != nil {
		return m.SendAssignmentNotificationFunc(ctx, toEmail, toName, complaint)
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testAuditService(repo AuditLogRepository) *AuditService {
	logger := testLogger()
	return NewAuditService(repo, pkglogger.NewAuditLogger(logger), logger)
}

func testHub() *stream.Hub {
	return stream.NewHub(testLogger())
}
