package service

import (
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/meal-subscription-api/internal/models"
	"github.com/noah-isme/meal-subscription-api/pkg/export"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult is a rendered file ready to be streamed.
type ExportResult struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders the payment ledger as CSV or PDF. Receipts are never included.
type ExportService struct {
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

var paymentLedgerHeaders = []string{"ID", "User", "Month", "Amount", "Status", "Remarks", "Submitted At", "Updated At"}

// RenderPayments builds the ledger dataset and renders it.
func (s *ExportService) RenderPayments(payments []models.Payment, format export.Format) (*ExportResult, error) {
	data := export.Dataset{Headers: paymentLedgerHeaders, Rows: make([]map[string]string, 0, len(payments))}
	var total float64
	for _, p := range payments {
		updated := ""
		if p.UpdatedAt != nil {
			updated = p.UpdatedAt.UTC().Format(time.RFC3339)
		}
		data.Rows = append(data.Rows, map[string]string{
			"ID":           p.ID,
			"User":         p.UserName,
			"Month":        p.Month,
			"Amount":       strconv.FormatFloat(p.Amount, 'f', 2, 64),
			"Status":       string(p.Status),
			"Remarks":      p.Remarks,
			"Submitted At": p.SubmittedAt.UTC().Format(time.RFC3339),
			"Updated At":   updated,
		})
		if p.Status == models.StatusApproved {
			total += p.Amount
		}
	}

	stamp := s.now().UTC().Format("20060102-150405")
	var (
		content []byte
		err     error
	)
	switch format {
	case export.FormatPDF:
		title := fmt.Sprintf("Payment ledger (approved total %.2f)", total)
		content, err = s.pdf.Render(data, title)
	default:
		format = export.FormatCSV
		content, err = s.csv.Render(data)
	}
	if err != nil {
		s.logger.Error("failed to render payment ledger", zap.String("format", string(format)), zap.Error(err))
		return nil, err
	}
	return &ExportResult{
		Filename:    fmt.Sprintf("payments-%s.%s", stamp, format),
		ContentType: format.ContentType(),
		Content:     content,
	}, nil
}
