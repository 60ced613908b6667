package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"

	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/models"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/repositories"
)

// ExportFormat selects the export encoding.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
	FormatPDF  ExportFormat = "pdf"
)

// exportColumns is the fixed column contract shared by all three formats.
var exportColumns = []string{"ID", "Category", "Severity", "Status", "AssignedTo", "Date", "Description"}

// ExportResult is a rendered export ready to stream to the client.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders the full complaint register as CSV, XLSX or PDF.
// Assignee IDs are resolved to staff names; unassigned rows read "Unassigned".
type ExportService struct {
	complaints ComplaintRepository
	users      UserRepository
	audit      *AuditService
	logger     *slog.Logger
}

// NewExportService creates a new ExportService
func NewExportService(complaints ComplaintRepository, users UserRepository, audit *AuditService, logger *slog.Logger) *ExportService {
	return &ExportService{
		complaints: complaints,
		users:      users,
		audit:      audit,
		logger:     logger,
	}
}

// Export renders every complaint in the requested format.
func (s *ExportService) Export(ctx context.Context, format ExportFormat, actorID string) (*ExportResult, error) {
	complaints, err := s.complaints.List(ctx, repositories.ComplaintFilter{})
	if err != nil {
		s.logger.Error("failed to list complaints for export", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	rows, err := s.buildRows(ctx, complaints)
	if err != nil {
		return nil, err
	}

	var (
		data        []byte
		contentType string
	)
	switch format {
	case FormatCSV:
		data, err = renderCSV(rows)
		contentType = "text/csv"
	case FormatXLSX:
		data, err = renderXLSX(rows)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		data, err = renderPDF(rows)
		contentType = "application/pdf"
	default:
		return nil, models.ErrBadRequest
	}
	if err != nil {
		s.logger.Error("failed to render export",
			slog.String("format", string(format)), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("complaints exported",
		slog.String("format", string(format)),
		slog.Int("rows", len(rows)-1))
	s.audit.LogUserEvent(ctx, models.AuditEventTypeExport, actorID, "", string(format), true, "")

	return &ExportResult{
		Filename:    fmt.Sprintf("complaints_export_%d.%s", time.Now().Unix(), format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// buildRows produces the header plus one row per complaint. Assignee lookups
// are memoized; a name that cannot be resolved degrades to "Unassigned"
// rather than failing the export.
func (s *ExportService) buildRows(ctx context.Context, complaints []*models.Complaint) ([][]string, error) {
	rows := make([][]string, 0, len(complaints)+1)
	rows = append(rows, exportColumns)

	names := make(map[string]string)
	for _, c := range complaints {
		assignee := "Unassigned"
		if c.AssignedTo != nil {
			name, ok := names[*c.AssignedTo]
			if !ok {
				user, err := s.users.GetByID(ctx, *c.AssignedTo)
				if err != nil {
					s.logger.Warn("failed to resolve assignee name",
						slog.String("user_id", *c.AssignedTo), slog.Any("error", err))
					name = "Unassigned"
				} else {
					name = user.Name
				}
				names[*c.AssignedTo] = name
			}
			assignee = name
		}

		rows = append(rows, []string{
			c.ID,
			c.Category,
			c.Severity,
			string(c.Status),
			assignee,
			c.CreatedAt.Format("2006-01-02"),
			c.Description,
		})
	}

	return rows, nil
}

func renderCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func renderXLSX(rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Complaints"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("failed to build cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func renderPDF(rows [][]string) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	// Column widths in mm, tuned for A4 landscape (277mm printable).
	widths := []float64{28, 35, 22, 28, 35, 22, 107}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(240, 240, 240)
	for i, h := range rows[0] {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, row := range rows[1:] {
		for i, v := range row {
			pdf.CellFormat(widths[i], 7, truncate(v, 70), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// truncate shortens s to max runes. Slicing on runes keeps a multi-byte
// character from being split mid-sequence in a PDF cell.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
