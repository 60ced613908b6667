package handlers_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/handlers"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/models"
)

func auditEntryFixture(eventType, action string) *models.AuditLog {
	actor := "staff1"
	resourceType := models.AuditResourceTypeComplaint
	resourceID := "CMP-A2B3C4D5"
	return &models.AuditLog{
		ID:           uuid.New(),
		EventType:    eventType,
		ActorID:      &actor,
		ResourceType: &resourceType,
		ResourceID:   &resourceID,
		Action:       action,
		Success:      true,
		Metadata:     models.AuditMetadata{"status": "Resolved"},
		CreatedAt:    time.Now(),
	}
}

func TestAuditList_FiltersByEventType(t *testing.T) {
	var capturedType string
	mockService := &handlers.MockAuditService{
		ListFunc: func(ctx context.Context, eventType string, limit, offset int) ([]*models.AuditLog, error) {
			capturedType = eventType
			return []*models.AuditLog{auditEntryFixture(models.AuditEventTypeStatusChange, models.AuditActionStatusChanged)}, nil
		},
	}

	handler := handlers.NewAuditHandler(mockService)
	req := handlers.NewTestRequest(t, "GET", "/audit?event_type=status_change", nil)
	req = handlers.WithStaffContext(req, "admin1", "admin")

	w := httptest.NewRecorder()
	handler.List(w, req)

	var resp handlers.ListAuditResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "status_change", capturedType)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "Status Changed", resp.Entries[0].Action)
	assert.Equal(t, "Resolved", resp.Entries[0].Metadata["status"])
}

func TestAuditList_RejectsOversizedLimit(t *testing.T) {
	mockService := &handlers.MockAuditService{}
	handler := handlers.NewAuditHandler(mockService)
	req := handlers.NewTestRequest(t, "GET", "/audit?limit=5000", nil)
	req = handlers.WithStaffContext(req, "admin1", "admin")

	w := httptest.NewRecorder()
	handler.List(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestComplaintTrail_ScopedToComplaint(t *testing.T) {
	var capturedID string
	mockService := &handlers.MockAuditService{
		GetComplaintTrailFunc: func(ctx context.Context, complaintID string, limit, offset int) ([]*models.AuditLog, error) {
			capturedID = complaintID
			return []*models.AuditLog{
				auditEntryFixture(models.AuditEventTypeSubmission, models.AuditActionCreate),
				auditEntryFixture(models.AuditEventTypeAssignment, models.AuditActionUpdate),
			}, nil
		},
	}

	handler := handlers.NewAuditHandler(mockService)
	req := handlers.NewTestRequest(t, "GET", "/complaints/CMP-A2B3C4D5/audit", nil)
	req = handlers.WithStaffContext(req, "admin1", "admin")
	req = handlers.WithChiRouteContext(req, map[string]string{"id": "CMP-A2B3C4D5"})

	w := httptest.NewRecorder()
	handler.ComplaintTrail(w, req)

	var resp handlers.ListAuditResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "CMP-A2B3C4D5", capturedID)
	assert.Len(t, resp.Entries, 2)
}
