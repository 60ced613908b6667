package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/models"
	pkghttp "github.com/Sexual-Harresment-Committee/ComplaintWebSite/pkg/http"
)

// AuditService defines the read side of the audit trail
type AuditService interface {
	GetComplaintTrail(ctx context.Context, complaintID string, limit, offset int) ([]*models.AuditLog, error)
	List(ctx context.Context, eventType string, limit, offset int) ([]*models.AuditLog, error)
}

// AuditHandler exposes the audit trail to admin and committee users.
type AuditHandler struct {
	service AuditService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(service AuditService) *AuditHandler {
	return &AuditHandler{
		service: service,
	}
}

// AuditEntryResponse is the serialized form of a single audit entry.
type AuditEntryResponse struct {
	ID            string                 `json:"id"`
	EventType     string                 `json:"event_type"`
	ActorID       *string                `json:"actor_id,omitempty"`
	ResourceType  *string                `json:"resource_type,omitempty"`
	ResourceID    *string                `json:"resource_id,omitempty"`
	Action        string                 `json:"action"`
	Success       bool                   `json:"success"`
	FailureReason *string                `json:"failure_reason,omitempty"`
	IPAddress     *string                `json:"ip_address,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// ListAuditResponse represents a page of audit entries
type ListAuditResponse struct {
	Entries []AuditEntryResponse `json:"entries"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
}

// List handles GET /api/v1/audit, optionally filtered by event_type.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50, 1, 100)
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}
	offset, err := queryInt(r, "offset", 0, 0, 100000)
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	entries, err := h.service.List(r.Context(), r.URL.Query().Get("event_type"), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, auditPageResponse(entries, limit, offset))
}

// ComplaintTrail handles GET /api/v1/complaints/{id}/audit.
func (h *AuditHandler) ComplaintTrail(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50, 1, 100)
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}
	offset, err := queryInt(r, "offset", 0, 0, 100000)
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	entries, err := h.service.GetComplaintTrail(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, auditPageResponse(entries, limit, offset))
}

func auditPageResponse(entries []*models.AuditLog, limit, offset int) ListAuditResponse {
	resp := ListAuditResponse{
		Entries: make([]AuditEntryResponse, 0, len(entries)),
		Limit:   limit,
		Offset:  offset,
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, AuditEntryResponse{
			ID:            e.ID.String(),
			EventType:     e.EventType,
			ActorID:       e.ActorID,
			ResourceType:  e.ResourceType,
			ResourceID:    e.ResourceID,
			Action:        e.Action,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			IPAddress:     e.IPAddress,
			Metadata:      e.Metadata,
			CreatedAt:     e.CreatedAt,
		})
	}
	return resp
}
