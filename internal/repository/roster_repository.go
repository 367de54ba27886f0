package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/grading-admin-api/internal/models"
)

// RosterRepository reads the per-topic student lists and their categories.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository constructs a RosterRepository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// ListByTopic returns the roster of a topic ordered by student name.
func (r *RosterRepository) ListByTopic(ctx context.Context, topicID string) ([]models.TopicStudent, error) {
	const query = `SELECT topic_id, student_id, student_name, COALESCE(category, '') AS category
FROM topic_students WHERE topic_id = $1 ORDER BY student_name ASC`
	var rows []models.TopicStudent
	if err := r.db.SelectContext(ctx, &rows, query, topicID); err != nil {
		return nil, fmt.Errorf("list topic roster: %w", err)
	}
	return rows, nil
}

// StudentTopics is the reverse index from a student id or name to topic ids.
func (r *RosterRepository) StudentTopics(ctx context.Context, studentID, studentName string) ([]string, error) {
	const query = `SELECT DISTINCT topic_id FROM topic_students
WHERE student_id = $1 OR student_name = $2 ORDER BY topic_id ASC`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, studentID, studentName); err != nil {
		return nil, fmt.Errorf("list student topics: %w", err)
	}
	return ids, nil
}

// Category returns the first non-empty category of the student across topics.
// An empty string means no category was assigned.
func (r *RosterRepository) Category(ctx context.Context, topicIDs []string, studentID, studentName string) (string, error) {
	if len(topicIDs) == 0 {
		return "", nil
	}
	const query = `SELECT category FROM topic_students
WHERE topic_id = ANY($1) AND (student_id = $2 OR student_name = $3) AND COALESCE(category, '') <> ''
ORDER BY topic_id ASC LIMIT 1`
	var category string
	err := r.db.GetContext(ctx, &category, query, pq.Array(topicIDs), studentID, studentName)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get student category: %w", err)
	}
	return category, nil
}
