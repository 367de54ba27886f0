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

const defaultPerformanceRange = 7 * 24 * time.Hour

type studentRosterIndex interface {
	studentTopicIndex
	Category(ctx context.Context, topicIDs []string, studentID, studentName string) (string, error)
}

type classRangeReader interface {
	ListByTopicInRange(ctx context.Context, topicID string, start, end time.Time) ([]models.ClassRecord, error)
}

type topicAssignmentReader interface {
	ListByTopics(ctx context.Context, topicIDs []string) ([]models.Assignment, error)
}

type submissionFinder interface {
	Find(ctx context.Context, topicID, title string, keys ...string) (*models.Submission, error)
}

// PerformanceRequest carries the raw performance report parameters.
type PerformanceRequest struct {
	Student   string
	TopicID   string
	StartDate string
	EndDate   string
}

// PerformanceConfig tunes the report loader.
type PerformanceConfig struct {
	BatchSize    int
	DefaultRange time.Duration
}

// PerformanceService assembles a student's performance report.
type PerformanceService struct {
	students    studentFinder
	roster      studentRosterIndex
	topics      topicReader
	classes     classRangeReader
	assignments topicAssignmentReader
	subs        submissionFinder
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	config      PerformanceConfig
	now         func() time.Time
}

// NewPerformanceService constructs the performance service.
func NewPerformanceService(students studentFinder, roster studentRosterIndex, topics topicReader, classes classRangeReader, assignments topicAssignmentReader, subs submissionFinder, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg PerformanceConfig) *PerformanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultPerformanceBatchSize
	}
	if cfg.DefaultRange <= 0 {
		cfg.DefaultRange = defaultPerformanceRange
	}
	return &PerformanceService{
		students:    students,
		roster:      roster,
		topics:      topics,
		classes:     classes,
		assignments: assignments,
		subs:        subs,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
		config:      cfg,
		now:         time.Now,
	}
}

// Report builds the performance report of one student over a date window.
// Without dates the window is the configured range ending today.
func (s *PerformanceService) Report(ctx context.Context, req PerformanceRequest) (*models.StudentPerformanceReport, bool, error) {
	student, err := findStudent(ctx, s.students, req.Student)
	if err != nil {
		return nil, false, err
	}
	query, err := s.query(ctx, student, req)
	if err != nil {
		return nil, false, err
	}

	key := cacheKey(performanceCachePrefix, student.ID, strings.Join(query.TopicIDs, ","),
		query.Start.Format("2006-01-02"), query.End.Format("2006-01-02"))
	var report models.StudentPerformanceReport
	hit, err := s.cache.Remember(ctx, key, &report, func() error {
		built, err := s.build(ctx, query)
		if err != nil {
			return err
		}
		report = built
		return nil
	})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to build performance report")
	}
	return &report, hit, nil
}

func (s *PerformanceService) query(ctx context.Context, student *models.Student, req PerformanceRequest) (models.PerformanceQuery, error) {
	now := s.now()
	query := models.PerformanceQuery{StudentID: student.ID, StudentName: student.Name}

	end, err := parseDateParam("endDate", req.EndDate)
	if err != nil {
		return query, err
	}
	if end == nil {
		today := now.UTC()
		end = &today
	}
	start, err := parseDateParam("startDate", req.StartDate)
	if err != nil {
		return query, err
	}
	if start == nil {
		from := end.Add(-s.config.DefaultRange)
		start = &from
	}
	query.Start = aggregate.StartOfDay(*start)
	query.End = aggregate.StartOfDay(*end)
	if query.Start.After(query.End) {
		return query, appErrors.Clone(appErrors.ErrValidation, "startDate must not be after endDate")
	}

	if topicID := strings.TrimSpace(req.TopicID); topicID != "" {
		query.TopicIDs = []string{topicID}
		return query, nil
	}
	ids, err := s.roster.StudentTopics(ctx, student.ID, student.Name)
	if err != nil {
		return query, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load student topics")
	}
	query.TopicIDs = ids
	return query, nil
}

func (s *PerformanceService) build(ctx context.Context, query models.PerformanceQuery) (models.StudentPerformanceReport, error) {
	failed := 0
	topics, err := s.topics.ListTopics(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return models.StudentPerformanceReport{}, ctx.Err()
		}
		s.fetchFailed("topics", err)
		failed++
		topics = map[string]models.Topic{}
	}

	category, err := s.roster.Category(ctx, query.TopicIDs, query.StudentID, query.StudentName)
	if err != nil {
		s.fetchFailed("category", err)
		failed++
	}

	windowEnd := aggregate.EndOfDay(query.End)
	classBatches, classFailures, err := boundedFetch(ctx, s.config.BatchSize, query.TopicIDs,
		func(ctx context.Context, topicID string) ([]models.ClassRecord, error) {
			start := time.Now()
			defer func() { s.metrics.ObserveStoreQuery("classes_range", time.Since(start)) }()
			return s.classes.ListByTopicInRange(ctx, topicID, query.Start, windowEnd)
		},
		func(topicID string, err error) {
			s.fetchFailed("classes", err, zap.String("topic_id", topicID))
		})
	if err != nil {
		return models.StudentPerformanceReport{}, err
	}
	failed += classFailures
	classes := make([]models.ClassRecord, 0)
	for _, batch := range classBatches {
		classes = append(classes, batch...)
	}

	assignments, err := s.assignments.ListByTopics(ctx, query.TopicIDs)
	if err != nil {
		if ctx.Err() != nil {
			return models.StudentPerformanceReport{}, ctx.Err()
		}
		s.fetchFailed("assignments", err)
		failed++
		assignments = nil
	}
	windowed := make([]models.Assignment, 0, len(assignments))
	for _, assignment := range assignments {
		if aggregate.InWindow(assignment, query.Start, query.End) {
			windowed = append(windowed, assignment)
		}
	}

	items, subFailures, err := boundedFetch(ctx, s.config.BatchSize, windowed,
		func(ctx context.Context, a models.Assignment) (aggregate.StudentAssignment, error) {
			sub, err := s.subs.Find(ctx, a.TopicID, a.Title, query.StudentID, query.StudentName)
			if err != nil {
				return aggregate.StudentAssignment{}, err
			}
			return aggregate.StudentAssignment{Assignment: a, Submission: sub}, nil
		},
		func(a models.Assignment, err error) {
			s.fetchFailed("submissions", err, zap.String("topic_id", a.TopicID), zap.String("assignment", a.Title))
		})
	if err != nil {
		return models.StudentPerformanceReport{}, err
	}
	failed += subFailures
	found := make([]aggregate.StudentAssignment, 0, len(items))
	for _, item := range items {
		// failed slots and students without a record stay nil
		if item.Submission != nil {
			found = append(found, item)
		}
	}

	report := aggregate.BuildPerformance(aggregate.PerformanceInput{
		StudentID:   query.StudentID,
		StudentName: query.StudentName,
		Category:    category,
		Topics:      topics,
		TopicIDs:    query.TopicIDs,
		Start:       query.Start,
		End:         query.End,
		Classes:     classes,
		Assignments: found,
		Now:         s.now(),
	})
	report.FailedLoads = failed
	return report, nil
}

func (s *PerformanceService) fetchFailed(source string, err error, fields ...zap.Field) {
	s.metrics.RecordFetchFailure(source)
	fields = append(fields, zap.String("source", source), zap.Error(err))
	s.logger.Warn("performance fetch failed, treating as empty", fields...)
}
