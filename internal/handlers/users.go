package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/auth"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/models"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/services"
	pkghttp "github.com/Sexual-Harresment-Committee/ComplaintWebSite/pkg/http"
)

// UserService defines the interface for staff management logic
type UserService interface {
	ProvisionStaff(ctx context.Context, input services.ProvisionStaffInput, actorID string) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	ListActionTakers(ctx context.Context) ([]*models.User, error)
	UpdateStaff(ctx context.Context, id string, input services.UpdateStaffInput, actorID string) (*models.User, error)
	DeleteStaff(ctx context.Context, id, actorID string) error
}

// UserHandler handles staff management HTTP requests
type UserHandler struct {
	service UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// CreateStaffRequest is the provisioning body.
type CreateStaffRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	Name       string `json:"name" validate:"required,min=1,max=200"`
	Role       string `json:"role" validate:"required,oneof=admin developer committee action_taker"`
	Department string `json:"department" validate:"omitempty,max=200"`
}

// UpdateStaffRequest carries partial profile updates.
type UpdateStaffRequest struct {
	Name       string `json:"name" validate:"omitempty,min=1,max=200"`
	Role       string `json:"role" validate:"omitempty,oneof=admin developer committee action_taker"`
	Department string `json:"department" validate:"omitempty,max=200"`
	Status     string `json:"status" validate:"omitempty,oneof=active disabled"`
}

// StaffResponse represents a staff account in HTTP responses
type StaffResponse struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
	Status     string `json:"status"`
	MFAEnabled bool   `json:"mfa_enabled"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// ListStaffResponse wraps a page of staff accounts.
type ListStaffResponse struct {
	Users []*StaffResponse `json:"users"`
	Total int              `json:"total"`
}

func staffModelToResponse(user *models.User) *StaffResponse {
	return &StaffResponse{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		Role:       user.Role,
		Department: user.Department,
		Status:     user.Status,
		MFAEnabled: user.MFAEnabled,
		CreatedAt:  user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:  user.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// Create provisions a staff account.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)

	var req CreateStaffRequest
	if err := decodeJSON(r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.service.ProvisionStaff(r.Context(), services.ProvisionStaffInput{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		Role:       req.Role,
		Department: req.Department,
	}, claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, staffModelToResponse(user))
}

// List returns staff accounts with pagination.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
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

	users, err := h.service.ListUsers(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := &ListStaffResponse{
		Users: make([]*StaffResponse, len(users)),
		Total: len(users),
	}
	for i, u := range users {
		resp.Users[i] = staffModelToResponse(u)
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// ListActionTakers returns staff eligible for assignment, for the dashboard
// assignment picker.
func (h *UserHandler) ListActionTakers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListActionTakers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := &ListStaffResponse{
		Users: make([]*StaffResponse, len(users)),
		Total: len(users),
	}
	for i, u := range users {
		resp.Users[i] = staffModelToResponse(u)
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Get retrieves a staff account by ID.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, staffModelToResponse(user))
}

// Update applies partial updates to a staff account.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)

	var req UpdateStaffRequest
	if err := decodeJSON(r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.service.UpdateStaff(r.Context(), chi.URLParam(r, "id"), services.UpdateStaffInput{
		Name:       req.Name,
		Role:       req.Role,
		Department: req.Department,
		Status:     req.Status,
	}, claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, staffModelToResponse(user))
}

// Delete removes a staff account.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)

	if err := h.service.DeleteStaff(r.Context(), chi.URLParam(r, "id"), claims.UserID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
