package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/spf13/cast"

	"github.com/noah-isme/grading-admin-api/internal/models"
)

// AssignmentRepository reads assignment documents stored as JSONB.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

type assignmentRow struct {
	ID      string `db:"id"`
	TopicID string `db:"topic_id"`
	Payload []byte `db:"payload"`
}

// assignmentDocument mirrors the field names written by the tutoring app.
type assignmentDocument struct {
	Title           string        `json:"title"`
	Deadline        string        `json:"deadline"`
	GradingDeadline string        `json:"gradingDeadline"`
	TotalMarks      interface{}   `json:"totalMarks"`
	Weightage       models.Number `json:"weightage"`
	Category        string        `json:"selectedAssignmentCategory"`
	TeacherName     string        `json:"teacherName"`
	CreationDate    interface{}   `json:"creationDate"`
	AssignmentType  string        `json:"assignmentType"`
}

func (r assignmentRow) toModel() (models.Assignment, error) {
	var doc assignmentDocument
	if len(r.Payload) > 0 {
		if err := json.Unmarshal(r.Payload, &doc); err != nil {
			return models.Assignment{}, fmt.Errorf("decode assignment %s: %w", r.ID, err)
		}
	}
	assignment := models.Assignment{
		ID:              r.ID,
		TopicID:         r.TopicID,
		Title:           doc.Title,
		Deadline:        doc.Deadline,
		GradingDeadline: doc.GradingDeadline,
		TotalMarks:      cast.ToString(doc.TotalMarks),
		Weightage:       doc.Weightage,
		Category:        doc.Category,
		TeacherName:     doc.TeacherName,
		Type:            models.DeliveryType(doc.AssignmentType).Normalize(),
	}
	if assignment.Title == "" {
		assignment.Title = r.ID
	}
	if created := cast.ToInt64(doc.CreationDate); created > 0 {
		assignment.CreationDate = &created
	}
	return assignment, nil
}

const assignmentColumns = `SELECT id, topic_id, payload FROM assignments`

// ListByTopic returns every assignment of a topic.
func (r *AssignmentRepository) ListByTopic(ctx context.Context, topicID string) ([]models.Assignment, error) {
	query := assignmentColumns + ` WHERE topic_id = $1 ORDER BY id ASC`
	return r.list(ctx, query, topicID)
}

// ListByTopics returns the assignments of several topics in one query.
func (r *AssignmentRepository) ListByTopics(ctx context.Context, topicIDs []string) ([]models.Assignment, error) {
	if len(topicIDs) == 0 {
		return []models.Assignment{}, nil
	}
	query := assignmentColumns + ` WHERE topic_id = ANY($1) ORDER BY topic_id ASC, id ASC`
	return r.list(ctx, query, pq.Array(topicIDs))
}

// ListWeeklyTests returns every WeeklyTest assignment across topics.
func (r *AssignmentRepository) ListWeeklyTests(ctx context.Context) ([]models.Assignment, error) {
	query := assignmentColumns + ` WHERE payload->>'selectedAssignmentCategory' = $1 ORDER BY topic_id ASC, id ASC`
	return r.list(ctx, query, models.WeeklyTestCategory)
}

// GetByTitle finds an assignment of a topic by its title.
func (r *AssignmentRepository) GetByTitle(ctx context.Context, topicID, title string) (*models.Assignment, error) {
	query := assignmentColumns + ` WHERE topic_id = $1 AND payload->>'title' = $2 LIMIT 1`
	var row assignmentRow
	if err := r.db.GetContext(ctx, &row, query, topicID, title); err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	assignment, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *AssignmentRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Assignment, error) {
	var rows []assignmentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	assignments := make([]models.Assignment, 0, len(rows))
	for _, row := range rows {
		assignment, err := row.toModel()
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, assignment)
	}
	return assignments, nil
}
