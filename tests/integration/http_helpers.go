package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/auth"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/handlers"
	middlewareCustom "github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/middleware"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/models"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/repositories"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/routes"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/services"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/stream"
	pkglogger "github.com/Sexual-Harresment-Committee/ComplaintWebSite/pkg/logger"
)

// SentEmail represents a captured assignment notification
type SentEmail struct {
	To        string
	Name      string
	Complaint string
}

// MockEmailService captures sent notifications for test assertions
type MockEmailService struct {
	mu         sync.Mutex
	SentEmails []SentEmail
}

func (m *MockEmailService) SendAssignmentNotification(ctx context.Context, toEmail, toName string, complaint *models.Complaint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentEmails = append(m.SentEmails, SentEmail{To: toEmail, Name: toName, Complaint: complaint.ID})
	return nil
}

// LastEmail returns the most recently captured notification, or nil
func (m *MockEmailService) LastEmail() *SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.SentEmails) == 0 {
		return nil
	}
	email := m.SentEmails[len(m.SentEmails)-1]
	return &email
}

// Reset clears captured notifications
func (m *MockEmailService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentEmails = nil
}

// TestServer wires the full HTTP stack against a testcontainer database
type TestServer struct {
	Server  *httptest.Server
	DB      *TestDB
	Email   *MockEmailService
	Hub     *stream.Hub
	UserSvc *services.UserService
}

// SetupTestServer builds the same stack main assembles, with a mock email
// sender in place of SES.
func SetupTestServer(ctx context.Context, testDB *TestDB) (*TestServer, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	userRepo := repositories.NewUserRepository(testDB.DB)
	revokeRepo := repositories.NewTokenRevocationRepository(testDB.DB)
	complaintRepo := repositories.NewComplaintRepository(testDB.DB)
	noteRepo := repositories.NewInternalNoteRepository(testDB.DB)
	auditRepo := repositories.NewAuditLogRepository(testDB.DB)

	tokenManager := auth.NewTokenManager(
		"integration-test-secret-at-least-32-chars",
		15*time.Minute,
		24*time.Hour,
	)

	// Exactly 32 bytes, AES-256.
	totpManager, err := auth.NewTOTPManager([]byte("test-mfa-encryption-key-32-bytes"), "ComplaintDesk-Test")
	if err != nil {
		return nil, fmt.Errorf("failed to create totp manager: %w", err)
	}

	hub := stream.NewHub(logger)
	emailSender := &MockEmailService{}

	auditService := services.NewAuditService(auditRepo, pkglogger.NewAuditLogger(logger), logger)
	authService := services.NewAuthService(userRepo, tokenManager, totpManager, revokeRepo, auditService, logger)
	complaintService := services.NewComplaintService(complaintRepo, noteRepo, userRepo, auditService, hub, emailSender, logger)
	trackingService := services.NewTrackingService(complaintRepo, logger)
	userService := services.NewUserService(userRepo, revokeRepo, auditService, logger)
	mfaService := services.NewMFAService(userRepo, totpManager, auditService, logger)
	exportService := services.NewExportService(complaintRepo, userRepo, auditService, logger)

	h := routes.Handlers{
		Complaints:      handlers.NewComplaintHandler(complaintService),
		Tracking:        handlers.NewTrackingHandler(trackingService, hub, logger),
		DashboardStream: handlers.NewDashboardStreamHandler(hub, logger),
		Auth:            handlers.NewAuthHandler(authService, nil),
		Users:           handlers.NewUserHandler(userService),
		MFA:             handlers.NewMFAHandler(mfaService),
		Export:          handlers.NewExportHandler(exportService),
		Audit:           handlers.NewAuditHandler(auditService),
	}

	router := chi.NewRouter()
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: "test"}))
	router.Use(chiMiddleware.Recoverer)

	routes.RegisterRoutes(router, h, tokenManager, userRepo, revokeRepo, testDB.DB, logger)

	server := httptest.NewServer(router)

	return &TestServer{
		Server:  server,
		DB:      testDB,
		Email:   emailSender,
		Hub:     hub,
		UserSvc: userService,
	}, nil
}

// Teardown shuts the server and stream hub down
func (ts *TestServer) Teardown() {
	if ts.Server != nil {
		ts.Server.Close()
	}
	if ts.Hub != nil {
		ts.Hub.Close()
	}
}

// Request performs an HTTP request against the test server
func (ts *TestServer) Request(method, path string, body interface{}) (*http.Response, error) {
	return ts.RequestWithAuth(method, path, body, "")
}

// RequestWithAuth performs an HTTP request with an optional bearer token
func (ts *TestServer) RequestWithAuth(method, path string, body interface{}, token string) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return http.DefaultClient.Do(req)
}

// ParseJSONResponse decodes a response body into target and closes it
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ExtractTokensFromResponse pulls the token pair out of a login or refresh
// response body.
func ExtractTokensFromResponse(resp *http.Response) (accessToken, refreshToken string, err error) {
	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := ParseJSONResponse(resp, &body); err != nil {
		return "", "", err
	}
	if body.AccessToken == "" {
		return "", "", fmt.Errorf("response contained no access token")
	}
	return body.AccessToken, body.RefreshToken, nil
}

// Login authenticates a seeded staff account and returns its token pair
func (ts *TestServer) Login(email, password string) (accessToken, refreshToken string, err error) {
	resp, err := ts.Request(http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", "", err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return "", "", fmt.Errorf("login returned status %d", resp.StatusCode)
	}
	return ExtractTokensFromResponse(resp)
}
