package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/auth"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/services"
)

// ExportService defines the interface for register exports
type ExportService interface {
	Export(ctx context.Context, format services.ExportFormat, actorID string) (*services.ExportResult, error)
}

// ExportHandler streams the complaint register in the requested format.
type ExportHandler struct {
	service ExportService
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(service ExportService) *ExportHandler {
	return &ExportHandler{
		service: service,
	}
}

// Export renders and downloads the register. Format comes from the `format`
// query parameter; csv is the default.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)

	format := services.ExportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = services.FormatCSV
	}

	result, err := h.service.Export(r.Context(), format, claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.WriteHeader(http.StatusOK)
	// A short write here means the client went away mid-download.
	w.Write(result.Data)
}
