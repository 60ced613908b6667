package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/auth"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/models"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/repositories"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/services"
	pkghttp "github.com/Sexual-Harresment-Committee/ComplaintWebSite/pkg/http"
)

// ComplaintService defines the interface for complaint lifecycle logic
type ComplaintService interface {
	Submit(ctx context.Context, input services.SubmitComplaintInput) (*services.SubmitReceipt, error)
	MarkViewed(ctx context.Context, id, actorID, role string) error
	Assign(ctx context.Context, id, staffID, actorID string) (*models.Complaint, error)
	SetStatus(ctx context.Context, id string, status models.ComplaintStatus, actorID, role string) (*models.Complaint, error)
	AppendPublicUpdate(ctx context.Context, id, message, actorID, role string) (*models.PublicUpdate, error)
	AppendInternalNote(ctx context.Context, id, note, actorID, role string) (*models.InternalNote, error)
	Get(ctx context.Context, id, actorID, role string) (*models.Complaint, error)
	List(ctx context.Context, actorID, role string, filter repositories.ComplaintFilter) ([]*models.Complaint, error)
	ListNotes(ctx context.Context, id, actorID, role string) ([]models.InternalNote, error)
	Stats(ctx context.Context) (*models.DashboardStats, error)
}

// ComplaintHandler handles complaint-related HTTP requests
type ComplaintHandler struct {
	service ComplaintService
}

// NewComplaintHandler creates a new ComplaintHandler
func NewComplaintHandler(service ComplaintService) *ComplaintHandler {
	return &ComplaintHandler{
		service: service,
	}
}

// Request/Response DTOs

// SubmitComplaintRequest is the anonymous submission body.
type SubmitComplaintRequest struct {
	Severity      string `json:"severity" validate:"required,oneof=Low Medium High Critical"`
	Category      string `json:"category" validate:"required,min=1,max=100"`
	Description   string `json:"description" validate:"required,min=1,max=10000"`
	AttachmentURL string `json:"attachment_url" validate:"omitempty,url,max=2048"`
	Passcode      string `json:"passcode" validate:"omitempty,min=4,max=64"`
}

// AssignRequest names the action taker a complaint is routed to.
type AssignRequest struct {
	StaffID string `json:"staff_id" validate:"required,uuid"`
}

// SetStatusRequest carries the new lifecycle state.
type SetStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// MessageRequest is shared by public updates and internal notes.
type MessageRequest struct {
	Message string `json:"message" validate:"required,min=1,max=10000"`
}

// ComplaintResponse is the staff view of a complaint. The passcode hash is
// never part of any response.
type ComplaintResponse struct {
	ID                string                `json:"id"`
	Status            string                `json:"status"`
	Severity          string                `json:"severity"`
	Category          string                `json:"category"`
	Description       string                `json:"description"`
	AttachmentURL     string                `json:"attachment_url,omitempty"`
	AssignedTo        *string               `json:"assigned_to"`
	PasscodeProtected bool                  `json:"passcode_protected"`
	CreatedAt         string                `json:"created_at"`
	UpdatedAt         string                `json:"updated_at"`
	PublicUpdates     []models.PublicUpdate `json:"public_updates,omitempty"`
}

// ListComplaintsResponse wraps a page of complaints.
type ListComplaintsResponse struct {
	Complaints []*ComplaintResponse `json:"complaints"`
	Total      int                  `json:"total"`
}

func complaintModelToResponse(c *models.Complaint) *ComplaintResponse {
	return &ComplaintResponse{
		ID:                c.ID,
		Status:            string(c.Status),
		Severity:          c.Severity,
		Category:          c.Category,
		Description:       c.Description,
		AttachmentURL:     c.AttachmentURL,
		AssignedTo:        c.AssignedTo,
		PasscodeProtected: c.PasscodeProtected(),
		CreatedAt:         c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:         c.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		PublicUpdates:     c.PublicUpdates,
	}
}

// Submit accepts an anonymous complaint. This is the only unauthenticated
// write in the system.
func (h *ComplaintHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	receipt, err := h.service.Submit(r.Context(), services.SubmitComplaintInput{
		Severity:      req.Severity,
		Category:      req.Category,
		Description:   req.Description,
		AttachmentURL: req.AttachmentURL,
		Passcode:      req.Passcode,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, receipt)
}

// List returns the complaints visible to the caller.
func (h *ComplaintHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	role := auth.GetRoleFromContext(r)

	limit, err := queryInt(r, "limit", 50, 1, 200)
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}
	offset, err := queryInt(r, "offset", 0, 0, 100000)
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	filter := repositories.ComplaintFilter{Limit: limit, Offset: offset}
	if s := r.URL.Query().Get("status"); s != "" {
		status := models.ComplaintStatus(s)
		if !models.IsValidStatus(status) {
			pkghttp.WriteBadRequest(w, "invalid status filter")
			return
		}
		filter.Status = &status
	}

	complaints, err := h.service.List(r.Context(), claims.UserID, role, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := &ListComplaintsResponse{
		Complaints: make([]*ComplaintResponse, len(complaints)),
		Total:      len(complaints),
	}
	for i, c := range complaints {
		resp.Complaints[i] = complaintModelToResponse(c)
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Get returns a single complaint with its public update stream.
func (h *ComplaintHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	role := auth.GetRoleFromContext(r)

	complaint, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), claims.UserID, role)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, complaintModelToResponse(complaint))
}

// MarkViewed flags a freshly submitted complaint as seen. Safe to call on
// every dashboard open; past Submitted it does nothing.
func (h *ComplaintHandler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	role := auth.GetRoleFromContext(r)

	if err := h.service.MarkViewed(r.Context(), chi.URLParam(r, "id"), claims.UserID, role); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Assign routes a complaint to an action taker.
func (h *ComplaintHandler) Assign(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	complaint, err := h.service.Assign(r.Context(), chi.URLParam(r, "id"), req.StaffID, claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, complaintModelToResponse(complaint))
}

// SetStatus overwrites the lifecycle state.
func (h *ComplaintHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	role := auth.GetRoleFromContext(r)

	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	complaint, err := h.service.SetStatus(r.Context(), chi.URLParam(r, "id"), models.ComplaintStatus(req.Status), claims.UserID, role)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, complaintModelToResponse(complaint))
}

// AddPublicUpdate posts a submitter-visible progress message.
func (h *ComplaintHandler) AddPublicUpdate(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	role := auth.GetRoleFromContext(r)

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	update, err := h.service.AppendPublicUpdate(r.Context(), chi.URLParam(r, "id"), req.Message, claims.UserID, role)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, update)
}

// AddInternalNote records staff-only commentary.
func (h *ComplaintHandler) AddInternalNote(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	role := auth.GetRoleFromContext(r)

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	note, err := h.service.AppendInternalNote(r.Context(), chi.URLParam(r, "id"), req.Message, claims.UserID, role)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, note)
}

// ListNotes returns the internal notes of a complaint.
func (h *ComplaintHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	role := auth.GetRoleFromContext(r)

	notes, err := h.service.ListNotes(r.Context(), chi.URLParam(r, "id"), claims.UserID, role)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"notes": notes})
}

// Stats returns the committee dashboard aggregates.
func (h *ComplaintHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]int64{
		"total":    stats.Total,
		"open":     stats.Open,
		"critical": stats.Critical,
		"resolved": stats.Resolved,
	})
}
