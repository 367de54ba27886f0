package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/grading-admin-api/internal/models"
)

// TopicRepository reads topics and the course reference data.
type TopicRepository struct {
	db *sqlx.DB
}

// NewTopicRepository constructs a TopicRepository.
func NewTopicRepository(db *sqlx.DB) *TopicRepository {
	return &TopicRepository{db: db}
}

type topicRow struct {
	ID         string         `db:"id"`
	Name       sql.NullString `db:"name"`
	CourseID   sql.NullString `db:"course_id"`
	CourseName sql.NullString `db:"course_name"`
}

func (r topicRow) toModel() models.Topic {
	topic := models.Topic{ID: r.ID}
	if r.Name.Valid {
		name := r.Name.String
		topic.Name = &name
	}
	if r.CourseID.Valid && r.CourseID.String != "" {
		topic.Course = &models.CourseRef{ID: r.CourseID.String, Name: r.CourseName.String}
	}
	return topic
}

// ListTopics returns every topic keyed by id.
func (r *TopicRepository) ListTopics(ctx context.Context) (map[string]models.Topic, error) {
	const query = `SELECT id, name, course_id, course_name FROM topics`
	var rows []topicRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	topics := make(map[string]models.Topic, len(rows))
	for _, row := range rows {
		topics[row.ID] = row.toModel()
	}
	return topics, nil
}

// GetTopic fetches a single topic.
func (r *TopicRepository) GetTopic(ctx context.Context, id string) (*models.Topic, error) {
	const query = `SELECT id, name, course_id, course_name FROM topics WHERE id = $1`
	var row topicRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, fmt.Errorf("get topic: %w", err)
	}
	topic := row.toModel()
	return &topic, nil
}

// ListCourses returns the course catalogue ordered by title.
func (r *TopicRepository) ListCourses(ctx context.Context) ([]models.Course, error) {
	const query = `SELECT id, title FROM courses ORDER BY title ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}
