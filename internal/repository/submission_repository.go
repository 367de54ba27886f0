package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/grading-admin-api/internal/models"
)

// SubmissionRepository reads and patches student submission documents.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs a SubmissionRepository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

type submissionRow struct {
	StudentKey string            `db:"student_key"`
	Payload    models.Submission `db:"payload"`
}

// ListByAssignment returns the submission map of one assignment keyed by student.
func (r *SubmissionRepository) ListByAssignment(ctx context.Context, topicID, title string) (models.SubmissionMap, error) {
	const query = `SELECT student_key, payload FROM assignment_submissions
WHERE topic_id = $1 AND assignment_title = $2`
	var rows []submissionRow
	if err := r.db.SelectContext(ctx, &rows, query, topicID, title); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	subs := make(models.SubmissionMap, len(rows))
	for _, row := range rows {
		subs[row.StudentKey] = row.Payload
	}
	return subs, nil
}

// Find returns the first submission stored under one of the keys, tried in
// order. A nil submission with a nil error means none exists.
func (r *SubmissionRepository) Find(ctx context.Context, topicID, title string, keys ...string) (*models.Submission, error) {
	const query = `SELECT student_key, payload FROM assignment_submissions
WHERE topic_id = $1 AND assignment_title = $2 AND student_key = $3`
	for _, key := range keys {
		if key == "" {
			continue
		}
		var row submissionRow
		err := r.db.GetContext(ctx, &row, query, topicID, title, key)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("find submission: %w", err)
		}
		return &row.Payload, nil
	}
	return nil, nil
}

// UpdateGrade merges the grading fields into the stored document.
func (r *SubmissionRepository) UpdateGrade(ctx context.Context, key models.SubmissionKey, update models.GradeUpdate) error {
	return r.merge(ctx, key, update)
}

// SetSupervision records a supervision verdict and its timestamp.
func (r *SubmissionRepository) SetSupervision(ctx context.Context, key models.SubmissionKey, update models.SupervisionUpdate) error {
	return r.merge(ctx, key, update)
}

// ClearSupervision removes the verdict and its timestamp.
func (r *SubmissionRepository) ClearSupervision(ctx context.Context, key models.SubmissionKey) error {
	const query = `UPDATE assignment_submissions
SET payload = payload - 'supervisionApproval' - 'supervisionApprovalDate', updated_at = NOW()
WHERE topic_id = $1 AND assignment_title = $2 AND student_key = $3`
	return r.exec(ctx, "clear supervision", query, key.TopicID, key.AssignmentTitle, key.Student)
}

func (r *SubmissionRepository) merge(ctx context.Context, key models.SubmissionKey, patch interface{}) error {
	data, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshal submission patch: %w", err)
	}
	const query = `UPDATE assignment_submissions
SET payload = payload || $1::jsonb, updated_at = NOW()
WHERE topic_id = $2 AND assignment_title = $3 AND student_key = $4`
	return r.exec(ctx, "update submission", query, string(data), key.TopicID, key.AssignmentTitle, key.Student)
}

func (r *SubmissionRepository) exec(ctx context.Context, op, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, sql.ErrNoRows)
	}
	return nil
}
