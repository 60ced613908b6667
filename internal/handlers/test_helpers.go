package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/auth"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/models"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/repositories"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/services"
	pkghttp "github.com/Sexual-Harresment-Committee/ComplaintWebSite/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithStaffContext adds token claims and a store-verified role to the request
// context, the way AuthMiddleware and RequireAnyRole do in production.
func WithStaffContext(req *http.Request, userID, role string) *http.Request {
	claims := &models.TokenClaims{
		UserID: userID,
		Email:  userID + "@example.edu",
		Type:   "access",
	}
	ctx := context.WithValue(req.Context(), auth.UserContextKey, claims)
	ctx = context.WithValue(ctx, auth.RoleContextKey, role)
	return req.WithContext(ctx)
}

// WithChiRouteContext injects chi URL parameters into the request context
func WithChiRouteContext(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// WithChiIDFromURL pulls the last URL path segment into the chi "id" param,
// for testing endpoints like /complaints/{id} without a full router.
func WithChiIDFromURL(r *http.Request) *http.Request {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if len(parts) >= 2 {
		return WithChiRouteContext(r, map[string]string{"id": parts[len(parts)-1]})
	}
	return r
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockComplaintService implements ComplaintService for testing
type MockComplaintService struct {
	SubmitFunc             func(ctx context.Context, input services.SubmitComplaintInput) (*services.SubmitReceipt, error)
	MarkViewedFunc         func(ctx context.Context, id, actorID, role string) error
	AssignFunc             func(ctx context.Context, id, staffID, actorID string) (*models.Complaint, error)
	SetStatusFunc          func(ctx context.Context, id string, status models.ComplaintStatus, actorID, role string) (*models.Complaint, error)
	AppendPublicUpdateFunc func(ctx context.Context, id, message, actorID, role string) (*models.PublicUpdate, error)
	AppendInternalNoteFunc func(ctx context.Context, id, note, actorID, role string) (*models.InternalNote, error)
	GetFunc                func(ctx context.Context, id, actorID, role string) (*models.Complaint, error)
	ListFunc               func(ctx context.Context, actorID, role string, filter repositories.ComplaintFilter) ([]*models.Complaint, error)
	ListNotesFunc          func(ctx context.Context, id, actorID, role string) ([]models.InternalNote, error)
	StatsFunc              func(ctx context.Context) (*models.DashboardStats, error)
}

func (m *MockComplaintService) Submit(ctx context.Context, input services.SubmitComplaintInput) (*services.SubmitReceipt, error) {
	if m.SubmitFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.SubmitFunc(ctx, input)
}

func (m *MockComplaintService) MarkViewed(ctx context.Context, id, actorID, role string) error {
	if m.MarkViewedFunc == nil {
		return nil
	}
	return m.MarkViewedFunc(ctx, id, actorID, role)
}

func (m *MockComplaintService) Assign(ctx context.Context, id, staffID, actorID string) (*models.Complaint, error) {
	if m.AssignFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.AssignFunc(ctx, id, staffID, actorID)
}

func (m *MockComplaintService) SetStatus(ctx context.Context, id string, status models.ComplaintStatus, actorID, role string) (*models.Complaint, error) {
	if m.SetStatusFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.SetStatusFunc(ctx, id, status, actorID, role)
}

func (m *MockComplaintService) AppendPublicUpdate(ctx context.Context, id, message, actorID, role string) (*models.PublicUpdate, error) {
	if m.AppendPublicUpdateFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.AppendPublicUpdateFunc(ctx, id, message, actorID, role)
}

func (m *MockComplaintService) AppendInternalNote(ctx context.Context, id, note, actorID, role string) (*models.InternalNote, error) {
	if m.AppendInternalNoteFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.AppendInternalNoteFunc(ctx, id, note, actorID, role)
}

func (m *MockComplaintService) Get(ctx context.Context, id, actorID, role string) (*models.Complaint, error) {
	if m.GetFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetFunc(ctx, id, actorID, role)
}

func (m *MockComplaintService) List(ctx context.Context, actorID, role string, filter repositories.ComplaintFilter) ([]*models.Complaint, error) {
	if m.ListFunc == nil {
		return nil, nil
	}
	return m.ListFunc(ctx, actorID, role, filter)
}

func (m *MockComplaintService) ListNotes(ctx context.Context, id, actorID, role string) ([]models.InternalNote, error) {
	if m.ListNotesFunc == nil {
		return nil, nil
	}
	return m.ListNotesFunc(ctx, id, actorID, role)
}

func (m *MockComplaintService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	if m.StatsFunc == nil {
		return &models.DashboardStats{}, nil
	}
	return m.StatsFunc(ctx)
}

// MockTrackingService implements TrackingService for testing
type MockTrackingService struct {
	TrackFunc     func(ctx context.Context, id, passcode string) (*services.TrackedComplaint, error)
	AuthorizeFunc func(ctx context.Context, id, passcode string) (*models.Complaint, error)
}

func (m *MockTrackingService) Track(ctx context.Context, id, passcode string) (*services.TrackedComplaint, error) {
	if m.TrackFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.TrackFunc(ctx, id, passcode)
}

func (m *MockTrackingService) Authorize(ctx context.Context, id, passcode string) (*models.Complaint, error) {
	if m.AuthorizeFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.AuthorizeFunc(ctx, id, passcode)
}

// MockAuthService implements AuthService for testing
type MockAuthService struct {
	LoginFunc        func(ctx context.Context, email, password, mfaCode, ipAddress string) (*services.AuthResponse, error)
	RefreshTokenFunc func(ctx context.Context, refreshToken string) (*services.AuthResponse, error)
	LogoutFunc       func(ctx context.Context, accessToken string) error
	LogoutAllFunc    func(ctx context.Context, userID string) error
}

func (m *MockAuthService) Login(ctx context.Context, email, password, mfaCode, ipAddress string) (*services.AuthResponse, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.LoginFunc(ctx, email, password, mfaCode, ipAddress)
}

func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken string) (*services.AuthResponse, error) {
	if m.RefreshTokenFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.RefreshTokenFunc(ctx, refreshToken)
}

func (m *MockAuthService) Logout(ctx context.Context, accessToken string) error {
	if m.LogoutFunc == nil {
		return nil
	}
	return m.LogoutFunc(ctx, accessToken)
}

func (m *MockAuthService) LogoutAll(ctx context.Context, userID string) error {
	if m.LogoutAllFunc == nil {
		return nil
	}
	return m.LogoutAllFunc(ctx, userID)
}

// MockUserService implements UserService for testing
type MockUserService struct {
	ProvisionStaffFunc   func(ctx context.Context, input services.ProvisionStaffInput, actorID string) (*models.User, error)
	GetUserFunc          func(ctx context.Context, id string) (*models.User, error)
	ListUsersFunc        func(ctx context.Context, limit, offset int) ([]*models.User, error)
	ListActionTakersFunc func(ctx context.Context) ([]*models.User, error)
	UpdateStaffFunc      func(ctx context.Context, id string, input services.UpdateStaffInput, actorID string) (*models.User, error)
	DeleteStaffFunc      func(ctx context.Context, id, actorID string) error
}

func (m *MockUserService) ProvisionStaff(ctx context.Context, input services.ProvisionStaffInput, actorID string) (*models.User, error) {
	if m.ProvisionStaffFunc == nil {
		return nil, models.ErrConflict
	}
	return m.ProvisionStaffFunc(ctx, input, actorID)
}

func (m *MockUserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	if m.GetUserFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetUserFunc(ctx, id)
}

func (m *MockUserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListUsersFunc == nil {
		return nil, nil
	}
	return m.ListUsersFunc(ctx, limit, offset)
}

func (m *MockUserService) ListActionTakers(ctx context.Context) ([]*models.User, error) {
	if m.ListActionTakersFunc == nil {
		return nil, nil
	}
	return m.ListActionTakersFunc(ctx)
}

func (m *MockUserService) UpdateStaff(ctx context.Context, id string, input services.UpdateStaffInput, actorID string) (*models.User, error) {
	if m.UpdateStaffFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateStaffFunc(ctx, id, input, actorID)
}

func (m *MockUserService) DeleteStaff(ctx context.Context, id, actorID string) error {
	if m.DeleteStaffFunc == nil {
		return models.ErrNotFound
	}
	return m.DeleteStaffFunc(ctx, id, actorID)
}

// MockMFAService implements MFAService for testing
type MockMFAService struct {
	SetupFunc   func(ctx context.Context, userID string) (*services.SetupResponse, error)
	EnableFunc  func(ctx context.Context, userID, code string) error
	DisableFunc func(ctx context.Context, userID, password string) error
}

func (m *MockMFAService) Setup(ctx context.Context, userID string) (*services.SetupResponse, error) {
	if m.SetupFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.SetupFunc(ctx, userID)
}

func (m *MockMFAService) Enable(ctx context.Context, userID, code string) error {
	if m.EnableFunc == nil {
		return models.ErrInvalidMFACode
	}
	return m.EnableFunc(ctx, userID, code)
}

func (m *MockMFAService) Disable(ctx context.Context, userID, password string) error {
	if m.DisableFunc == nil {
		return models.ErrUnauthorized
	}
	return m.DisableFunc(ctx, userID, password)
}

// MockExportService implements ExportService for testing
type MockExportService struct {
	ExportFunc func(ctx context.Context, format services.ExportFormat, actorID string) (*services.ExportResult, error)
}

func (m *MockExportService) Export(ctx context.Context, format services.ExportFormat, actorID string) (*services.ExportResult, error) {
	if m.ExportFunc == nil {
		return nil, models.ErrBadRequest
	}
	return m.ExportFunc(ctx, format, actorID)
}

// MockAuditService implements AuditService for testing
type MockAuditService struct {
	GetComplaintTrailFunc func(ctx context.Context, complaintID string, limit, offset int) ([]*models.AuditLog, error)
	ListFunc              func(ctx context.Context, eventType string, limit, offset int) ([]*models.AuditLog, error)
}

func (m *MockAuditService) GetComplaintTrail(ctx context.Context, complaintID string, limit, offset int) ([]*models.AuditLog, error) {
	if m.GetComplaintTrailFunc == nil {
		return nil, nil
	}
	return m.GetComplaintTrailFunc(ctx, complaintID, limit, offset)
}

func (m *MockAuditService) List(ctx context.Context, eventType string, limit, offset int) ([]*models.AuditLog, error) {
	if m.ListFunc == nil {
		return nil, nil
	}
	return m.ListFunc(ctx, eventType, limit, offset)
}
