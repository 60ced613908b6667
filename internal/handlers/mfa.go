package handlers

import (
	"context"
	"net/http"

	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/auth"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/services"
	pkghttp "github.com/Sexual-Harresment-Committee/ComplaintWebSite/pkg/http"
)

// MFAService defines the interface for staff TOTP enrollment
type MFAService interface {
	Setup(ctx context.Context, userID string) (*services.SetupResponse, error)
	Enable(ctx context.Context, userID, code string) error
	Disable(ctx context.Context, userID, password string) error
}

// MFAHandler handles TOTP enrollment HTTP requests. All endpoints act on the
// authenticated caller's own account.
type MFAHandler struct {
	service MFAService
}

// NewMFAHandler creates a new MFAHandler
func NewMFAHandler(service MFAService) *MFAHandler {
	return &MFAHandler{
		service: service,
	}
}

// EnableMFARequest carries the first TOTP code proving possession.
type EnableMFARequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// DisableMFARequest requires the account password.
type DisableMFARequest struct {
	Password string `json:"password" validate:"required"`
}

// Setup provisions a fresh secret and returns the QR data URL.
func (h *MFAHandler) Setup(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)

	resp, err := h.service.Setup(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Enable turns MFA on after code verification.
func (h *MFAHandler) Enable(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)

	var req EnableMFARequest
	if err := decodeJSON(r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.Enable(r.Context(), claims.UserID, req.Code); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Disable turns MFA off.
func (h *MFAHandler) Disable(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)

	var req DisableMFARequest
	if err := decodeJSON(r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.Disable(r.Context(), claims.UserID, req.Password); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
