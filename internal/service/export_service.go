package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/fms-portal-api/internal/models"
	appErrors "github.com/noah-isme/fms-portal-api/pkg/errors"
	"github.com/noah-isme/fms-portal-api/pkg/export"
	"github.com/noah-isme/fms-portal-api/pkg/table"
)

// Export formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

type paymentLister interface {
	List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error)
}

type studentLister interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
}

// ExportFile is a rendered export ready to stream to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders payment and student listings as downloadable files.
type ExportService struct {
	payments paymentLister
	students studentLister
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService constructs an ExportService instance.
func NewExportService(payments paymentLister, students studentLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		payments: payments,
		students: students,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

var paymentColumns = []table.Column[models.Payment]{
	{Key: "reference", Header: "Reference", Cell: func(p models.Payment) string { return p.PaymentReference }},
	{Key: "payer", Header: "Payer", Cell: func(p models.Payment) string { return p.Payer }},
	{Key: "bill", Header: "Bill", Cell: func(p models.Payment) string { return p.BillName }},
	{Key: "amount", Header: "Amount", Cell: func(p models.Payment) string { return formatAmount(p.Amount) }},
	{Key: "status", Header: "Status", Cell: func(p models.Payment) string { return p.Status }},
	{Key: "date", Header: "Date", Cell: func(p models.Payment) string { return p.CreatedAt.Format("2006-01-02 15:04") }},
}

var studentColumns = []table.Column[models.User]{
	{Key: "email", Header: "Email", Cell: func(u models.User) string { return u.Email }},
	{Key: "name", Header: "Name", Cell: studentName},
	{Key: "programme", Header: "Programme", Cell: studentProgramme},
	{Key: "active", Header: "Active", Cell: func(u models.User) string {
		if u.Active {
			return "yes"
		}
		return "no"
	}},
	{Key: "joined", Header: "Joined", Cell: func(u models.User) string { return u.CreatedAt.Format("2006-01-02") }},
}

// Payments exports the payments matching the filter. Pagination is
// widened to the repository ceiling so the file covers the full page.
func (s *ExportService) Payments(ctx context.Context, filter models.PaymentFilter, format string) (*ExportFile, error) {
	if filter.PageSize <= 0 {
		filter.PageSize = 100
	}
	payments, _, err := s.payments.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}

	dataset := table.Dataset(payments, paymentColumns)
	return s.render(dataset, "payments", "Payments", format)
}

// Students exports the student roster matching the filter.
func (s *ExportService) Students(ctx context.Context, filter models.UserFilter, format string) (*ExportFile, error) {
	role := models.RoleStudent
	filter.Role = &role
	if filter.PageSize <= 0 {
		filter.PageSize = 100
	}
	students, _, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	dataset := table.Dataset(students, studentColumns)
	return s.render(dataset, "students", "Students", format)
}

func (s *ExportService) render(dataset export.Dataset, name, title, format string) (*ExportFile, error) {
	stamp := time.Now().UTC().Format("20060102-150405")

	switch strings.ToLower(format) {
	case FormatCSV, "":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("%s-%s.csv", name, stamp),
			ContentType: "text/csv",
			Payload:     payload,
		}, nil
	case FormatPDF:
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("%s-%s.pdf", name, stamp),
			ContentType: "application/pdf",
			Payload:     payload,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func studentName(u models.User) string {
	details, err := u.StudentDetails()
	if err != nil || details == nil {
		return ""
	}
	return strings.TrimSpace(details.FirstName + " " + details.LastName)
}

func studentProgramme(u models.User) string {
	details, err := u.StudentDetails()
	if err != nil || details == nil {
		return ""
	}
	return details.Programme
}
