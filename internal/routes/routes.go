package routes

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/auth"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/database"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/handlers"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/middleware"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/models"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/repositories"
	pkghttp "github.com/Sexual-Harresment-Committee/ComplaintWebSite/pkg/http"
)

// Handlers bundles everything RegisterRoutes mounts.
type Handlers struct {
	Complaints      *handlers.ComplaintHandler
	Tracking        *handlers.TrackingHandler
	DashboardStream *handlers.DashboardStreamHandler
	Auth            *handlers.AuthHandler
	Users           *handlers.UserHandler
	MFA             *handlers.MFAHandler
	Export          *handlers.ExportHandler
	Audit           *handlers.AuditHandler
}

// RegisterRoutes registers all application routes.
//
// The public surface is deliberately tiny: anonymous submission, tracking,
// and login. Everything else sits behind JWT auth plus a store-verified role
// check.
func RegisterRoutes(
	router chi.Router,
	h Handlers,
	tokenManager *auth.TokenManager,
	userRepo *repositories.UserRepository,
	revokeRepo *repositories.TokenRevocationRepository,
	db *database.DB,
	logger *slog.Logger,
) {
	authLimit := middleware.RateLimitByIP(middleware.DefaultAuthRateLimit())
	submitLimit := middleware.RateLimitByIP(middleware.DefaultSubmissionRateLimit())
	trackLimit := middleware.RateLimitByIP(middleware.DefaultTrackingRateLimit())

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.HealthCheck(r.Context()); err != nil {
			pkghttp.WriteServiceUnavailable(w, "database unreachable")
			return
		}
		pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Anonymous surface. No auth, no cookies; the complaint ID (plus optional
	// passcode) is the only credential.
	router.With(submitLimit).Post("/complaints", h.Complaints.Submit)
	router.With(trackLimit).Post("/track", h.Tracking.Track)
	router.With(trackLimit).Get("/ws/track/{id}", h.Tracking.Stream)

	router.With(authLimit).Post("/auth/login", h.Auth.Login)
	router.With(authLimit).Post("/auth/refresh", h.Auth.Refresh)

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(tokenManager, revokeRepo))

		r.Post("/auth/logout", h.Auth.Logout)
		r.Post("/auth/logout-all", h.Auth.LogoutAll)

		// MFA enrollment always acts on the caller's own account.
		r.Post("/mfa/setup", h.MFA.Setup)
		r.Post("/mfa/enable", h.MFA.Enable)
		r.Post("/mfa/disable", h.MFA.Disable)

		// Complaint handling. Action takers pass the gate but the service
		// narrows them to their own assignments.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAnyRole(userRepo, revokeRepo, logger, models.ComplaintRoles...))
			r.Get("/complaints", h.Complaints.List)
			r.Get("/complaints/stats", h.Complaints.Stats)
			r.Get("/complaints/{id}", h.Complaints.Get)
			r.Post("/complaints/{id}/viewed", h.Complaints.MarkViewed)
			r.Put("/complaints/{id}/status", h.Complaints.SetStatus)
			r.Post("/complaints/{id}/updates", h.Complaints.AddPublicUpdate)
			r.Post("/complaints/{id}/notes", h.Complaints.AddInternalNote)
			r.Get("/complaints/{id}/notes", h.Complaints.ListNotes)
			r.Get("/ws/complaints", h.DashboardStream.Stream)
		})

		// Assignment, exports and the audit trail are committee business.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAnyRole(userRepo, revokeRepo, logger, "admin", "committee"))
			r.Post("/complaints/{id}/assign", h.Complaints.Assign)
			r.Get("/complaints/export", h.Export.Export)
			r.Get("/users/action-takers", h.Users.ListActionTakers)
			r.Get("/audit", h.Audit.List)
			r.Get("/complaints/{id}/audit", h.Audit.ComplaintTrail)
		})

		// Staff account management.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAnyRole(userRepo, revokeRepo, logger, "admin", "developer"))
			r.Get("/users", h.Users.List)
			r.Post("/users", h.Users.Create)
			r.Get("/users/{id}", h.Users.Get)
			r.Put("/users/{id}", h.Users.Update)
			r.Delete("/users/{id}", h.Users.Delete)
		})
	})
}
