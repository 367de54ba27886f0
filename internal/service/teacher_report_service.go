package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/grading-admin-api/internal/aggregate"
	"github.com/noah-isme/grading-admin-api/internal/models"
	appErrors "github.com/noah-isme/grading-admin-api/pkg/errors"
)

// TeacherReportQuery carries the raw leaderboard filters.
type TeacherReportQuery struct {
	Search    string
	StartDate string
	EndDate   string
}

func (q TeacherReportQuery) filter() (models.TeacherReportFilter, error) {
	filter := models.TeacherReportFilter{Search: strings.TrimSpace(q.Search)}
	start, err := parseDateParam("startDate", q.StartDate)
	if err != nil {
		return filter, err
	}
	end, err := parseDateParam("endDate", q.EndDate)
	if err != nil {
		return filter, err
	}
	if start != nil && end != nil && start.After(*end) {
		return filter, appErrors.Clone(appErrors.ErrValidation, "startDate must not be after endDate")
	}
	filter.StartDate = start
	filter.EndDate = end
	return filter, nil
}

// TeacherReportService builds the grading leaderboard.
type TeacherReportService struct {
	topics      topicReader
	assignments weeklyTestReader
	subs        submissionLister
	loader      *SubmissionLoader
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time
}

// NewTeacherReportService constructs the leaderboard service.
func NewTeacherReportService(topics topicReader, assignments weeklyTestReader, subs submissionLister, loader *SubmissionLoader, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *TeacherReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loader == nil {
		loader = NewSubmissionLoader(subs, defaultGradingBatchSize, metrics, logger)
	}
	return &TeacherReportService{
		topics:      topics,
		assignments: assignments,
		subs:        subs,
		loader:      loader,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// Report returns the filtered leaderboard. The unfiltered report is cached.
func (s *TeacherReportService) Report(ctx context.Context, query TeacherReportQuery) (*models.TeacherReport, bool, error) {
	filter, err := query.filter()
	if err != nil {
		return nil, false, err
	}
	var report models.TeacherReport
	hit, err := s.cache.Remember(ctx, cacheKey(gradingCachePrefix, "teachers"), &report, func() error {
		source, err := loadWeeklyTests(ctx, s.topics, s.assignments, s.loader, s.logger)
		if err != nil {
			return err
		}
		builder := aggregate.NewTeacherReportBuilder(source.Topics, s.now())
		builder.Add(source.Items...)
		report = builder.Build()
		report.FailedFetches = source.Failed
		if n := builder.Unattributed(); n > 0 {
			s.metrics.RecordUnattributed(n)
			s.logger.Warn("graded submissions without attribution", zap.Int("count", n))
		}
		return nil
	})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to build teacher report")
	}
	filtered := aggregate.FilterTeacherReport(report, filter)
	return &filtered, hit, nil
}

// GradedStudents lists the students a teacher graded in one assignment.
func (s *TeacherReportService) GradedStudents(ctx context.Context, teacher, topicID, title string) ([]models.GradedStudentEntry, error) {
	teacher = strings.TrimSpace(teacher)
	if teacher == "" || strings.TrimSpace(topicID) == "" || strings.TrimSpace(title) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher, topicId and title are required")
	}
	subs, err := s.subs.ListByAssignment(ctx, topicID, title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load submissions")
	}
	return aggregate.GradedByTeacher(teacher, subs), nil
}

// parseDateParam parses an optional date query value.
func parseDateParam(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, ok := aggregate.ParseTime(raw)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, field+" must be a date (YYYY-MM-DD)")
	}
	return &t, nil
}
