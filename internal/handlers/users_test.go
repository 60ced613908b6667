package handlers_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/handlers"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/models"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/services"
)

func staffFixture(id, role string) *models.User {
	return &models.User{
		ID:        id,
		Email:     id + "@example.edu",
		Name:      "Staff Member",
		Role:      role,
		Status:    "active",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestCreateStaff_Success(t *testing.T) {
	var captured services.ProvisionStaffInput
	mockService := &handlers.MockUserService{
		ProvisionStaffFunc: func(ctx context.Context, input services.ProvisionStaffInput, actorID string) (*models.User, error) {
			captured = input
			assert.Equal(t, "admin1", actorID)
			u := staffFixture("staff9", input.Role)
			u.Email = input.Email
			u.Name = input.Name
			return u, nil
		},
	}

	handler := handlers.NewUserHandler(mockService)
	req := handlers.NewTestRequest(t, "POST", "/users", handlers.CreateStaffRequest{
		Email:    "new.taker@example.edu",
		Password: "aVeryLongPassword1!",
		Name:     "New Taker",
		Role:     "action_taker",
	})
	req = handlers.WithStaffContext(req, "admin1", "admin")

	w := httptest.NewRecorder()
	handler.Create(w, req)

	var resp handlers.StaffResponse
	handlers.AssertJSONResponse(t, w, 201, &resp)
	assert.Equal(t, "new.taker@example.edu", resp.Email)
	assert.Equal(t, "action_taker", resp.Role)
	assert.Equal(t, "aVeryLongPassword1!", captured.Password)
	// The password hash never leaves the service layer.
	assert.NotContains(t, w.Body.String(), "password")
}

func TestCreateStaff_UnknownRole(t *testing.T) {
	mockService := &handlers.MockUserService{}
	handler := handlers.NewUserHandler(mockService)
	req := handlers.NewTestRequest(t, "POST", "/users", handlers.CreateStaffRequest{
		Email:    "new@example.edu",
		Password: "aVeryLongPassword1!",
		Name:     "New",
		Role:     "superuser",
	})
	req = handlers.WithStaffContext(req, "admin1", "admin")

	w := httptest.NewRecorder()
	handler.Create(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestCreateStaff_DuplicateEmail(t *testing.T) {
	mockService := &handlers.MockUserService{
		ProvisionStaffFunc: func(ctx context.Context, input services.ProvisionStaffInput, actorID string) (*models.User, error) {
			return nil, models.ErrConflict
		},
	}

	handler := handlers.NewUserHandler(mockService)
	req := handlers.NewTestRequest(t, "POST", "/users", handlers.CreateStaffRequest{
		Email:    "existing@example.edu",
		Password: "aVeryLongPassword1!",
		Name:     "Existing",
		Role:     "committee",
	})
	req = handlers.WithStaffContext(req, "admin1", "admin")

	w := httptest.NewRecorder()
	handler.Create(w, req)

	handlers.AssertErrorResponse(t, w, 409, "conflict")
}

func TestListStaff_Success(t *testing.T) {
	mockService := &handlers.MockUserService{
		ListUsersFunc: func(ctx context.Context, limit, offset int) ([]*models.User, error) {
			assert.Equal(t, 50, limit)
			return []*models.User{staffFixture("staff1", "committee"), staffFixture("staff2", "action_taker")}, nil
		},
	}

	handler := handlers.NewUserHandler(mockService)
	req := handlers.NewTestRequest(t, "GET", "/users", nil)
	req = handlers.WithStaffContext(req, "admin1", "admin")

	w := httptest.NewRecorder()
	handler.List(w, req)

	var resp handlers.ListStaffResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, 2, resp.Total)
}

func TestListActionTakers_OnlyEligibleAssignees(t *testing.T) {
	mockService := &handlers.MockUserService{
		ListActionTakersFunc: func(ctx context.Context) ([]*models.User, error) {
			return []*models.User{staffFixture("taker1", "action_taker")}, nil
		},
	}

	handler := handlers.NewUserHandler(mockService)
	req := handlers.NewTestRequest(t, "GET", "/users/action-takers", nil)
	req = handlers.WithStaffContext(req, "admin1", "admin")

	w := httptest.NewRecorder()
	handler.ListActionTakers(w, req)

	var resp handlers.ListStaffResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "action_taker", resp.Users[0].Role)
}

func TestUpdateStaff_PartialUpdate(t *testing.T) {
	var captured services.UpdateStaffInput
	mockService := &handlers.MockUserService{
		UpdateStaffFunc: func(ctx context.Context, id string, input services.UpdateStaffInput, actorID string) (*models.User, error) {
			captured = input
			u := staffFixture(id, "committee")
			u.Status = "disabled"
			return u, nil
		},
	}

	handler := handlers.NewUserHandler(mockService)
	req := handlers.NewTestRequest(t, "PUT", "/users/staff1", handlers.UpdateStaffRequest{Status: "disabled"})
	req = handlers.WithStaffContext(req, "admin1", "admin")
	req = handlers.WithChiIDFromURL(req)

	w := httptest.NewRecorder()
	handler.Update(w, req)

	var resp handlers.StaffResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "disabled", resp.Status)
	assert.Equal(t, "disabled", captured.Status)
	assert.Empty(t, captured.Name)
}

func TestUpdateStaff_InvalidStatus(t *testing.T) {
	mockService := &handlers.MockUserService{}
	handler := handlers.NewUserHandler(mockService)
	req := handlers.NewTestRequest(t, "PUT", "/users/staff1", handlers.UpdateStaffRequest{Status: "suspended"})
	req = handlers.WithStaffContext(req, "admin1", "admin")
	req = handlers.WithChiIDFromURL(req)

	w := httptest.NewRecorder()
	handler.Update(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestDeleteStaff_NoContent(t *testing.T) {
	var deleted string
	mockService := &handlers.MockUserService{
		DeleteStaffFunc: func(ctx context.Context, id, actorID string) error {
			deleted = id
			return nil
		},
	}

	handler := handlers.NewUserHandler(mockService)
	req := handlers.NewTestRequest(t, "DELETE", "/users/staff1", nil)
	req = handlers.WithStaffContext(req, "admin1", "admin")
	req = handlers.WithChiIDFromURL(req)

	w := httptest.NewRecorder()
	handler.Delete(w, req)

	assert.Equal(t, 204, w.Code)
	assert.Equal(t, "staff1", deleted)
}

func TestDeleteStaff_NotFound(t *testing.T) {
	mockService := &handlers.MockUserService{
		DeleteStaffFunc: func(ctx context.Context, id, actorID string) error {
			return models.ErrNotFound
		},
	}

	handler := handlers.NewUserHandler(mockService)
	req := handlers.NewTestRequest(t, "DELETE", "/users/ghost", nil)
	req = handlers.WithStaffContext(req, "admin1", "admin")
	req = handlers.WithChiIDFromURL(req)

	w := httptest.NewRecorder()
	handler.Delete(w, req)

	handlers.AssertErrorResponse(t, w, 404, "not_found")
}
