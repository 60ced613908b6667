package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"log/slog"

	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/auth"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/models"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/services"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/stream"
	pkghttp "github.com/Sexual-Harresment-Committee/ComplaintWebSite/pkg/http"
)

// TrackingService defines the anonymous tracking read path
type TrackingService interface {
	Track(ctx context.Context, id, passcode string) (*services.TrackedComplaint, error)
	Authorize(ctx context.Context, id, passcode string) (*models.Complaint, error)
}

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

// TrackingHandler serves the anonymous tracking surface: the one-shot lookup
// and the live websocket that pushes fresh snapshots as staff act.
type TrackingHandler struct {
	service  TrackingService
	hub      *stream.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewTrackingHandler creates a new TrackingHandler
func NewTrackingHandler(service TrackingService, hub *stream.Hub, logger *slog.Logger) *TrackingHandler {
	return &TrackingHandler{
		service: service,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The tracking surface is public; the credential is the
			// ID + passcode, not the Origin header.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// TrackRequest is the lookup body. The passcode travels in the body, never
// in the URL, so it stays out of access logs.
type TrackRequest struct {
	ID       string `json:"id" validate:"required,min=12,max=12"`
	Passcode string `json:"passcode" validate:"omitempty,max=64"`
}

// Track performs one authorized read of the public view.
func (h *TrackingHandler) Track(w http.ResponseWriter, r *http.Request) {
	var req TrackRequest
	if err := decodeJSON(r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	view, err := h.service.Track(r.Context(), req.ID, req.Passcode)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, view)
}

// StreamMessage is one websocket frame: the event name plus the fresh
// public view of the complaint.
type StreamMessage struct {
	Event     string                     `json:"event"`
	Complaint *services.TrackedComplaint `json:"complaint"`
}

// Stream attaches a live subscription to one complaint. The ID + passcode
// gate runs at attach and again before every pushed snapshot, so a passcode
// that stops matching (or a complaint that disappears) ends the stream.
func (h *TrackingHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	passcode := r.URL.Query().Get("passcode")

	complaint, err := h.service.Authorize(r.Context(), id, passcode)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Info("websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	snapshots, cancel := h.hub.Subscribe(complaint.ID)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Initial frame so the client renders current state immediately.
	view, err := h.service.Track(r.Context(), id, passcode)
	if err != nil {
		return
	}
	if err := h.writeMessage(conn, StreamMessage{Event: "current", Complaint: view}); err != nil {
		return
	}

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			// Re-validate the credential against the stored hash before
			// every push.
			view, err := h.service.Track(r.Context(), id, passcode)
			if err != nil {
				return
			}
			if err := h.writeMessage(conn, StreamMessage{Event: snap.Event, Complaint: view}); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (h *TrackingHandler) writeMessage(conn *websocket.Conn, msg StreamMessage) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(msg)
}

// DashboardStreamMessage is one staff websocket frame.
type DashboardStreamMessage struct {
	Event     string             `json:"event"`
	Complaint *ComplaintResponse `json:"complaint"`
}

// DashboardStreamHandler pushes every complaint snapshot to staff
// dashboards. Runs behind the auth middleware and role check; action takers
// only receive snapshots for their own assignments.
type DashboardStreamHandler struct {
	hub      *stream.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewDashboardStreamHandler creates a new DashboardStreamHandler
func NewDashboardStreamHandler(hub *stream.Hub, logger *slog.Logger) *DashboardStreamHandler {
	return &DashboardStreamHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Stream attaches the dashboard firehose.
func (h *DashboardStreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	role := auth.GetRoleFromContext(r)
	if claims == nil || role == "" {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Info("websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	snapshots, cancel := h.hub.Subscribe(stream.TopicAll)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			if !services.CanAccessComplaint(snap.Complaint, claims.UserID, role) {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(DashboardStreamMessage{
				Event:     snap.Event,
				Complaint: complaintModelToResponse(snap.Complaint),
			}); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
