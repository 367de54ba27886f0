package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/grading-admin-api/internal/models"
	"github.com/noah-isme/grading-admin-api/pkg/storage"
)

type performanceStub struct {
	last PerformanceRequest
	err  error
}

func (p *performanceStub) Report(_ context.Context, req PerformanceRequest) (*models.StudentPerformanceReport, bool, error) {
	p.last = req
	if p.err != nil {
		return nil, false, p.err
	}
	marks := 15.0
	return &models.StudentPerformanceReport{
		StudentID:   "s1",
		StudentName: "Ali",
		Category:    "Gold",
		Topics:      []models.TopicEntry{{ID: "t1", Title: "Algebra"}},
		StartDate:   time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		WeeklyTests: []models.AssignmentPerformanceRow{{
			Title: "WT1", TopicName: "Algebra", Submitted: true, Graded: true, Marks: &marks,
			Score: models.Score{Gained: 15, Total: 20, Percentage: 75},
		}},
		GeneratedAt: gradingNow,
	}, false, nil
}

type teacherStub struct{ last TeacherReportQuery }

func (s *teacherStub) Report(_ context.Context, query TeacherReportQuery) (*models.TeacherReport, bool, error) {
	s.last = query
	return &models.TeacherReport{
		Teachers:    []models.TeacherReportEntry{{TeacherName: "Ms. Khan", TotalGraded: 2}},
		TotalGraded: 2,
		GeneratedAt: gradingNow,
	}, false, nil
}

type pendingStub struct{ last models.PendingGradingFilter }

func (s *pendingStub) Pending(_ context.Context, filter models.PendingGradingFilter) (*models.PendingGradingOverview, bool, error) {
	s.last = filter
	return &models.PendingGradingOverview{GeneratedAt: gradingNow}, false, nil
}

type exportFixture struct {
	svc         *ExportService
	store       *storage.LocalStorage
	performance *performanceStub
	teachers    *teacherStub
	pending     *pendingStub
}

func newExportFixture(t *testing.T) exportFixture {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	f := exportFixture{store: store, performance: &performanceStub{}, teachers: &teacherStub{}, pending: &pendingStub{}}
	f.svc = NewExportService(f.performance, f.teachers, f.pending, store,
		storage.NewSignedURLSigner("secret", time.Hour), ExportConfig{APIPrefix: "/api/v1/", ResultTTL: time.Hour}, nil, nil, nil)
	f.svc.now = func() time.Time { return gradingNow }
	return f
}

func TestExportGeneratePerformanceCSV(t *testing.T) {
	f := newExportFixture(t)
	job := &models.ReportJob{
		ID:     "job-1",
		Type:   models.ReportTypeStudentPerformance,
		Params: models.ReportJobParams{Format: models.ReportFormatCSV, StudentID: "s1", StartDate: "2024-03-04"},
	}

	result, err := f.svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "student_performance_s1_20240310_120000.csv", result.RelativePath)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/export/"))
	assert.Equal(t, "s1", f.performance.last.Student)
	assert.Equal(t, "2024-03-04", f.performance.last.StartDate)

	parsed, err := f.svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", parsed.JobID)

	file, err := f.svc.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close()
	content, err := io.ReadAll(file)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "Student Performance Report")
	assert.Contains(t, text, "Student,Ali")
	classes := strings.Index(text, "\nClasses\n")
	weekly := strings.Index(text, "\nWeekly Tests\n")
	assignments := strings.Index(text, "\nAssignments\n")
	require.True(t, classes > 0 && weekly > 0 && assignments > 0)
	assert.Less(t, classes, weekly)
	assert.Less(t, weekly, assignments)
	assert.Contains(t, text, "15 / 20")
}

func TestExportGeneratePendingPDF(t *testing.T) {
	f := newExportFixture(t)
	job := &models.ReportJob{
		ID:   "job-2",
		Type: models.ReportTypePendingGrading,
		Params: models.ReportJobParams{
			Format:   models.ReportFormatPDF,
			CourseID: "c1",
			Extras:   map[string]string{"deadline": "overdue", "urgent": "true"},
		},
	}

	result, err := f.svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, models.ReportFormatPDF, result.Format)
	assert.Equal(t, models.PendingGradingFilter{CourseID: "c1", Deadline: models.DeadlineFilterOverdue, UrgentOnly: true}, f.pending.last)

	file, err := f.store.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close()
	head := make([]byte, 4)
	_, err = io.ReadFull(file, head)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(head))
}

func TestExportGenerateTeacherReport(t *testing.T) {
	f := newExportFixture(t)
	job := &models.ReportJob{
		ID:     "job-3",
		Type:   models.ReportTypeTeacherGrading,
		Params: models.ReportJobParams{Format: models.ReportFormatCSV, Search: "Ms. Khan", EndDate: "2024-03-09"},
	}

	result, err := f.svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "teacher_grading_Ms._Khan_20240310_120000.csv", result.RelativePath)
	assert.Equal(t, TeacherReportQuery{Search: "Ms. Khan", EndDate: "2024-03-09"}, f.teachers.last)
}

func TestExportGeneratePropagatesReportErrors(t *testing.T) {
	f := newExportFixture(t)
	f.performance.err = errors.New("store down")

	_, err := f.svc.Generate(context.Background(), &models.ReportJob{
		ID:     "job-4",
		Type:   models.ReportTypeStudentPerformance,
		Params: models.ReportJobParams{Format: models.ReportFormatCSV, StudentID: "s1"},
	})
	require.Error(t, err)

	_, err = f.svc.Generate(context.Background(), &models.ReportJob{ID: "job-5", Type: "attendance"})
	require.Error(t, err)
}

func TestExportRenderContentTypes(t *testing.T) {
	f := newExportFixture(t)
	report, _, err := f.performance.Report(context.Background(), PerformanceRequest{})
	require.NoError(t, err)
	doc := PerformanceDocument(*report)

	_, contentType, err := f.svc.Render(doc, models.ReportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)

	_, contentType, err = f.svc.Render(doc, models.ReportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)

	_, _, err = f.svc.Render(doc, "xlsx")
	assert.Error(t, err)
}

func TestPerformanceDocumentSections(t *testing.T) {
	report, _, err := (&performanceStub{}).Report(context.Background(), PerformanceRequest{})
	require.NoError(t, err)

	doc := PerformanceDocument(*report)
	require.Len(t, doc.Sections, 3)
	assert.Equal(t, "Classes", doc.Sections[0].Title)
	assert.Equal(t, "Weekly Tests", doc.Sections[1].Title)
	assert.Equal(t, "Assignments", doc.Sections[2].Title)
	assert.Equal(t, "Graded", doc.Sections[1].Data.Rows[0]["Status"])
	assert.Equal(t, "75.00%", doc.Sections[1].Data.Rows[0]["Percentage"])
	assert.Equal(t, "2024-03-04 to 2024-03-10", doc.Summary[4].Value)
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "pending_grading_all_20240310_120000.pdf",
		ExportFilename(models.ReportTypePendingGrading, "", models.ReportFormatPDF, gradingNow))
	assert.Equal(t, "student_performance_a-b_20240310_120000.csv",
		ExportFilename(models.ReportTypeStudentPerformance, "a/b", models.ReportFormatCSV, gradingNow))
}
