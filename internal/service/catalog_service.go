package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/grading-admin-api/internal/aggregate"
	"github.com/noah-isme/grading-admin-api/internal/models"
	appErrors "github.com/noah-isme/grading-admin-api/pkg/errors"
)

type topicReader interface {
	ListTopics(ctx context.Context) (map[string]models.Topic, error)
}

type courseReader interface {
	ListCourses(ctx context.Context) ([]models.Course, error)
}

type catalogRepository interface {
	topicReader
	courseReader
}

// CatalogService exposes the course and topic reference data.
type CatalogService struct {
	repo   catalogRepository
	logger *zap.Logger
}

// NewCatalogService constructs the catalog service.
func NewCatalogService(repo catalogRepository, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, logger: logger}
}

// Courses returns the course list headed by the "all" sentinel.
func (s *CatalogService) Courses(ctx context.Context) ([]models.Course, error) {
	courses, err := s.repo.ListCourses(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list courses")
	}
	out := make([]models.Course, 0, len(courses)+1)
	out = append(out, models.Course{ID: models.AllCoursesID, Title: "All"})
	for _, course := range courses {
		if course.ID == models.AllCoursesID {
			continue
		}
		out = append(out, course)
	}
	return out, nil
}

// Topics lists the topics of a course; an empty id or "all" lists every topic.
func (s *CatalogService) Topics(ctx context.Context, courseID string) ([]models.TopicEntry, error) {
	topics, err := s.repo.ListTopics(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list topics")
	}
	var selected *models.Course
	if courseID = strings.TrimSpace(courseID); courseID != "" {
		selected = &models.Course{ID: courseID}
	}
	return aggregate.ResolveTopics(topics, selected), nil
}
