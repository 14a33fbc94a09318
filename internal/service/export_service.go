package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-access-api/internal/models"
	appErrors "github.com/noah-isme/lms-access-api/pkg/errors"
	"github.com/noah-isme/lms-access-api/pkg/export"
)

// ExportFormat enumerates roster export encodings.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type rosterSource interface {
	Roster(ctx context.Context, sessionID string) (*models.Session, []models.EnrollmentDetail, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// RosterExport is a rendered roster ready to be served.
type RosterExport struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders session rosters to CSV or PDF.
type ExportService struct {
	roster rosterSource
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(roster rosterSource, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{roster: roster, csv: csv, pdf: pdf, logger: logger}
}

var (
	rosterHeaders = []string{"Student", "Email", "Status", "Requested"}
	rosterWidths  = []float64{3, 3, 1.5, 1.5}
)

// RenderRoster builds the roster of a session in the requested format.
func (s *ExportService) RenderRoster(ctx context.Context, sessionID string, format ExportFormat) (*RosterExport, error) {
	session, enrollments, err := s.roster.Roster(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Headers: rosterHeaders, Widths: rosterWidths}
	for _, e := range enrollments {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student":   e.StudentName,
			"Email":     e.StudentEmail,
			"Status":    string(e.Status),
			"Requested": e.CreatedAt.UTC().Format("2006-01-02"),
		})
	}

	result := &RosterExport{Filename: fmt.Sprintf("roster_%s.%s", sanitizeFilename(session.Title), format)}
	switch format {
	case ExportFormatCSV:
		result.ContentType = "text/csv"
		result.Payload, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		result.ContentType = "application/pdf"
		result.Payload, err = s.pdf.Render(dataset, "Roster "+session.Title)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %s", format))
	}
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render roster")
	}
	s.logger.Debug("roster rendered", zap.String("session_id", sessionID), zap.String("format", string(format)), zap.Int("rows", len(dataset.Rows)))
	return result, nil
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_", "\"", "")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
