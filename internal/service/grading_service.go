package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/grading-admin-api/internal/aggregate"
	"github.com/noah-isme/grading-admin-api/internal/models"
	appErrors "github.com/noah-isme/grading-admin-api/pkg/errors"
)

type gradingAssignmentReader interface {
	weeklyTestReader
	ListByTopic(ctx context.Context, topicID string) ([]models.Assignment, error)
	GetByTitle(ctx context.Context, topicID, title string) (*models.Assignment, error)
}

type rosterReader interface {
	ListByTopic(ctx context.Context, topicID string) ([]models.TopicStudent, error)
}

type submissionStore interface {
	submissionLister
	Find(ctx context.Context, topicID, title string, keys ...string) (*models.Submission, error)
	UpdateGrade(ctx context.Context, key models.SubmissionKey, update models.GradeUpdate) error
	SetSupervision(ctx context.Context, key models.SubmissionKey, update models.SupervisionUpdate) error
	ClearSupervision(ctx context.Context, key models.SubmissionKey) error
}

// ungradedSnapshot is the cached result of a full weekly test scan.
type ungradedSnapshot struct {
	Entries       []models.UngradedAssignmentEntry `json:"entries"`
	Unmarked      models.UnmarkedPapersReport      `json:"unmarked"`
	Topics        map[string]models.Topic          `json:"topics"`
	FailedFetches int                              `json:"failedFetches"`
	GeneratedAt   time.Time                        `json:"generatedAt"`
}

// GradingService serves the grading views and the grading mutations.
type GradingService struct {
	topics      topicReader
	assignments gradingAssignmentReader
	roster      rosterReader
	subs        submissionStore
	loader      *SubmissionLoader
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewGradingService constructs the grading service.
func NewGradingService(topics topicReader, assignments gradingAssignmentReader, roster rosterReader, subs submissionStore, loader *SubmissionLoader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *GradingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if loader == nil {
		loader = NewSubmissionLoader(subs, defaultGradingBatchSize, nil, logger)
	}
	return &GradingService{
		topics:      topics,
		assignments: assignments,
		roster:      roster,
		subs:        subs,
		loader:      loader,
		cache:       cache,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *GradingService) snapshot(ctx context.Context) (ungradedSnapshot, bool, error) {
	var snap ungradedSnapshot
	hit, err := s.cache.Remember(ctx, cacheKey(gradingCachePrefix, "ungraded"), &snap, func() error {
		source, err := loadWeeklyTests(ctx, s.topics, s.assignments, s.loader, s.logger)
		if err != nil {
			return err
		}
		now := s.now()
		agg := aggregate.NewUngradedAggregator(source.Topics, now)
		agg.Add(source.Items...)
		snap = ungradedSnapshot{
			Entries:       agg.Entries(),
			Unmarked:      agg.UnmarkedPapers(),
			Topics:        source.Topics,
			FailedFetches: source.Failed,
			GeneratedAt:   now,
		}
		return nil
	})
	if err != nil {
		return snap, false, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load weekly tests")
	}
	return snap, hit, nil
}

// Pending returns the ungraded weekly tests grouped by course.
func (s *GradingService) Pending(ctx context.Context, filter models.PendingGradingFilter) (*models.PendingGradingOverview, bool, error) {
	switch filter.Deadline {
	case "", models.DeadlineFilterAll, models.DeadlineFilterOverdue, models.DeadlineFilterProgress:
	default:
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "deadline must be one of all, overdue, progress")
	}
	snap, hit, err := s.snapshot(ctx)
	if err != nil {
		return nil, false, err
	}
	entries := aggregate.FilterPending(snap.Entries, filter)
	overview := &models.PendingGradingOverview{
		Groups:           aggregate.GroupByCourse(entries, snap.Topics),
		TotalAssignments: len(entries),
		FailedFetches:    snap.FailedFetches,
		GeneratedAt:      snap.GeneratedAt,
	}
	for _, entry := range entries {
		overview.TotalSubmitted += entry.SubmittedStudents
		overview.TotalGraded += entry.GradedStudents
	}
	overview.PercentComplete = aggregate.PercentComplete(overview.TotalGraded, overview.TotalSubmitted)
	return overview, hit, nil
}

// Unmarked returns every submitted but ungraded paper.
func (s *GradingService) Unmarked(ctx context.Context) (*models.UnmarkedPapersReport, bool, error) {
	snap, hit, err := s.snapshot(ctx)
	if err != nil {
		return nil, false, err
	}
	report := snap.Unmarked
	if report.Papers == nil {
		report.Papers = []models.UnmarkedPaper{}
	}
	return &report, hit, nil
}

// Marked counts the graded papers of tests still awaiting grading.
func (s *GradingService) Marked(ctx context.Context) (*models.MarkedPapersSummary, bool, error) {
	snap, hit, err := s.snapshot(ctx)
	if err != nil {
		return nil, false, err
	}
	summary := aggregate.MarkedPapers(snap.Entries)
	return &summary, hit, nil
}

// Assignments lists the weekly tests of a topic.
func (s *GradingService) Assignments(ctx context.Context, topicID string, filter models.AssignmentFilter) ([]models.Assignment, error) {
	topicID = strings.TrimSpace(topicID)
	if topicID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "topicId is required")
	}
	switch filter.Status {
	case "":
		filter.Status = models.AssignmentFilterAll
	case models.AssignmentFilterAll, models.AssignmentFilterOverdue, models.AssignmentFilterInProgress:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be one of all, overdue, in-progress")
	}
	assignments, err := s.assignments.ListByTopic(ctx, topicID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list assignments")
	}
	return aggregate.FilterAssignments(assignments, filter, s.now()), nil
}

// Submissions returns the grouped submission view of one assignment.
func (s *GradingService) Submissions(ctx context.Context, topicID, title string, status models.SubmissionStatusFilter, search string) (*models.SubmissionOverview, error) {
	switch status {
	case "":
		status = models.SubmissionFilterAll
	case models.SubmissionFilterAll, models.SubmissionFilterGraded, models.SubmissionFilterSubmitted, models.SubmissionFilterPending:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be one of all, graded, submitted, pending")
	}
	assignment, err := s.assignment(ctx, topicID, title)
	if err != nil {
		return nil, err
	}
	roster, err := s.roster.ListByTopic(ctx, assignment.TopicID)
	if err != nil {
		s.logger.Warn("roster fetch failed, categories fall back to submissions",
			zap.String("topic_id", assignment.TopicID), zap.Error(err))
		roster = nil
	}
	subs, err := s.subs.ListByAssignment(ctx, assignment.TopicID, assignment.Title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load submissions")
	}
	overview := aggregate.GroupSubmissions(assignment.TopicID, assignment.Title, roster, subs, status, search)
	return &overview, nil
}

// Grade records marks and feedback on a submitted paper, attributed to the caller.
func (s *GradingService) Grade(ctx context.Context, key models.SubmissionKey, req models.GradeRequest, grader *models.JWTClaims) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	assignment, err := s.assignment(ctx, key.TopicID, key.AssignmentTitle)
	if err != nil {
		return nil, err
	}
	sub, err := s.submission(ctx, key)
	if err != nil {
		return nil, err
	}
	if !sub.IsSubmitted() {
		return nil, appErrors.Clone(appErrors.ErrNotSubmitted, "student has not submitted this assignment")
	}
	if total := assignment.NominalMarks(); total > 0 && req.Marks > total {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("marks cannot exceed %s", assignment.TotalMarks))
	}

	update := models.GradeUpdate{
		Graded:          true,
		Marks:           req.Marks,
		Feedback:        strings.TrimSpace(req.Feedback),
		GradedByTeacher: grader.DisplayName(),
		GradedAt:        s.now().UTC().Format(time.RFC3339),
	}
	if err := s.subs.UpdateGrade(ctx, key, update); err != nil {
		return nil, s.mutationError(err, "failed to grade submission")
	}
	s.invalidate(ctx)

	marks := models.Number(update.Marks)
	sub.Graded = true
	sub.Marks = &marks
	sub.Feedback = update.Feedback
	sub.GradedByTeacher = update.GradedByTeacher
	sub.GradedAt = update.GradedAt
	s.logger.Info("submission graded",
		zap.String("topic_id", key.TopicID),
		zap.String("assignment", key.AssignmentTitle),
		zap.String("student", key.Student),
		zap.String("grader", update.GradedByTeacher))
	return sub, nil
}

// Supervision sets the proctoring verdict, or clears it when the approval is null.
func (s *GradingService) Supervision(ctx context.Context, key models.SubmissionKey, req models.SupervisionRequest) (*models.Submission, error) {
	if req.Approval != nil && !req.Approval.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "approval must be one of approved, failed, ai_suspected or null")
	}
	if _, err := s.assignment(ctx, key.TopicID, key.AssignmentTitle); err != nil {
		return nil, err
	}
	sub, err := s.submission(ctx, key)
	if err != nil {
		return nil, err
	}

	if req.Approval == nil {
		if err := s.subs.ClearSupervision(ctx, key); err != nil {
			return nil, s.mutationError(err, "failed to clear supervision approval")
		}
		sub.SupervisionApproval = nil
		sub.SupervisionApprovalDate = nil
	} else {
		update := models.SupervisionUpdate{
			SupervisionApproval:     *req.Approval,
			SupervisionApprovalDate: s.now().UnixMilli(),
		}
		if err := s.subs.SetSupervision(ctx, key, update); err != nil {
			return nil, s.mutationError(err, "failed to set supervision approval")
		}
		approval := update.SupervisionApproval
		sub.SupervisionApproval = &approval
		sub.SupervisionApprovalDate = &update.SupervisionApprovalDate
	}
	s.invalidate(ctx)
	return sub, nil
}

func (s *GradingService) assignment(ctx context.Context, topicID, title string) (*models.Assignment, error) {
	if strings.TrimSpace(topicID) == "" || strings.TrimSpace(title) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "topicId and assignment title are required")
	}
	assignment, err := s.assignments.GetByTitle(ctx, topicID, title)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load assignment")
	}
	return assignment, nil
}

func (s *GradingService) submission(ctx context.Context, key models.SubmissionKey) (*models.Submission, error) {
	if strings.TrimSpace(key.Student) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student is required")
	}
	sub, err := s.subs.Find(ctx, key.TopicID, key.AssignmentTitle, key.Student)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load submission")
	}
	if sub == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
	}
	return sub, nil
}

func (s *GradingService) mutationError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "submission not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *GradingService) invalidate(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, gradingCachePrefix+"*")
	_ = s.cache.Invalidate(ctx, performanceCachePrefix+"*")
}
