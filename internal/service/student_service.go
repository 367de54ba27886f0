package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/grading-admin-api/internal/aggregate"
	"github.com/noah-isme/grading-admin-api/internal/models"
	appErrors "github.com/noah-isme/grading-admin-api/pkg/errors"
)

type studentFinder interface {
	Find(ctx context.Context, key string) (*models.Student, error)
}

type studentRepository interface {
	studentFinder
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
}

type studentTopicIndex interface {
	StudentTopics(ctx context.Context, studentID, studentName string) ([]string, error)
}

// StudentService handles student lookups and the student to topic index.
type StudentService struct {
	repo   studentRepository
	index  studentTopicIndex
	topics topicReader
	logger *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, index studentTopicIndex, topics topicReader, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, index: index, topics: topics, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	if students == nil {
		students = []models.Student{}
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return students, pagination, nil
}

// Get resolves a student by id or exact name.
func (s *StudentService) Get(ctx context.Context, key string) (*models.Student, error) {
	return findStudent(ctx, s.repo, key)
}

func findStudent(ctx context.Context, finder studentFinder, key string) (*models.Student, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student is required")
	}
	student, err := finder.Find(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Topics returns the topics a student is rostered in.
func (s *StudentService) Topics(ctx context.Context, key string) ([]models.TopicEntry, error) {
	student, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	ids, err := s.index.StudentTopics(ctx, student.ID, student.Name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load student topics")
	}
	topics, err := s.topics.ListTopics(ctx)
	if err != nil {
		s.logger.Warn("topic names unavailable", zap.Error(err))
		topics = map[string]models.Topic{}
	}
	selected := make(map[string]models.Topic, len(ids))
	for _, id := range ids {
		topic, ok := topics[id]
		if !ok {
			topic = models.Topic{ID: id}
		}
		selected[id] = topic
	}
	return aggregate.ResolveTopics(selected, nil), nil
}
