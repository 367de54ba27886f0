package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/grading-admin-api/internal/models"
)

// StudentRepository manages reads of student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students s"
	args := []interface{}{}
	if filter.Search != "" {
		base += " WHERE (LOWER(s.name) LIKE $1 OR LOWER(s.id) LIKE $1)"
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT s.id, s.name, COALESCE(s.email, '') AS email %s ORDER BY s.name ASC LIMIT %d OFFSET %d", base, size, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// Find looks a student up by id, falling back to an exact name match.
func (r *StudentRepository) Find(ctx context.Context, key string) (*models.Student, error) {
	const query = `SELECT id, name, COALESCE(email, '') AS email FROM students
WHERE id = $1 OR name = $1 ORDER BY (id = $1) DESC LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, key); err != nil {
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}
