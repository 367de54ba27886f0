package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/grading-admin-api/internal/models"
	"github.com/noah-isme/grading-admin-api/pkg/export"
	"github.com/noah-isme/grading-admin-api/pkg/storage"
)

type performanceReporter interface {
	Report(ctx context.Context, req PerformanceRequest) (*models.StudentPerformanceReport, bool, error)
}

type teacherReporter interface {
	Report(ctx context.Context, query TeacherReportQuery) (*models.TeacherReport, bool, error)
}

type pendingReporter interface {
	Pending(ctx context.Context, filter models.PendingGradingFilter) (*models.PendingGradingOverview, bool, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type documentRenderer interface {
	RenderDocument(doc export.Document) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService renders report documents and persists generated files.
type ExportService struct {
	performance performanceReporter
	teachers    teacherReporter
	pending     pendingReporter
	storage     fileStorage
	csv         documentRenderer
	pdf         documentRenderer
	signer      *storage.SignedURLSigner
	logger      *zap.Logger
	cfg         ExportConfig
	now         func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers use the defaults.
func NewExportService(performance performanceReporter, teachers teacherReporter, pending pendingReporter, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv, pdf documentRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		performance: performance,
		teachers:    teachers,
		pending:     pending,
		storage:     files,
		csv:         csv,
		pdf:         pdf,
		signer:      signer,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Render encodes a document in the requested format and returns its content type.
func (s *ExportService) Render(doc export.Document, format models.ReportFormat) ([]byte, string, error) {
	switch format {
	case models.ReportFormatCSV:
		data, err := s.csv.RenderDocument(doc)
		return data, format.ContentType(), err
	case models.ReportFormatPDF:
		data, err := s.pdf.RenderDocument(doc)
		return data, format.ContentType(), err
	default:
		return nil, "", fmt.Errorf("unsupported format %s", format)
	}
}

// Generate builds the document of a job, stores the rendered file and signs a download URL.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	doc, subject, err := s.buildDocument(ctx, job)
	if err != nil {
		return nil, err
	}
	payload, _, err := s.Render(doc, job.Params.Format)
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(ExportFilename(job.Type, subject, job.Params.Format, s.now()), payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	s.logger.Debug("report export stored", zap.String("job_id", job.ID), zap.String("path", relPath))
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (storage.DownloadToken, error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildDocument(ctx context.Context, job *models.ReportJob) (export.Document, string, error) {
	params := job.Params
	switch job.Type {
	case models.ReportTypeStudentPerformance:
		report, _, err := s.performance.Report(ctx, PerformanceRequest{
			Student:   params.StudentID,
			TopicID:   params.TopicID,
			StartDate: params.StartDate,
			EndDate:   params.EndDate,
		})
		if err != nil {
			return export.Document{}, "", err
		}
		return PerformanceDocument(*report), report.StudentID, nil
	case models.ReportTypeTeacherGrading:
		report, _, err := s.teachers.Report(ctx, TeacherReportQuery{
			Search:    params.Search,
			StartDate: params.StartDate,
			EndDate:   params.EndDate,
		})
		if err != nil {
			return export.Document{}, "", err
		}
		return TeacherReportDocument(*report), params.Search, nil
	case models.ReportTypePendingGrading:
		overview, _, err := s.pending.Pending(ctx, params.PendingFilter())
		if err != nil {
			return export.Document{}, "", err
		}
		return PendingGradingDocument(*overview), params.CourseID, nil
	default:
		return export.Document{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

// ExportFilename names an export file after its report type, subject and time.
func ExportFilename(reportType models.ReportType, subject string, format models.ReportFormat, now time.Time) string {
	timestamp := now.UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(reportType)), sanitizeFilename(subject), timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "all"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
