package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReportType enumerates supported asynchronous report categories.
type ReportType string

const (
	ReportTypeStudentPerformance ReportType = "student_performance"
	ReportTypeTeacherGrading     ReportType = "teacher_grading"
	ReportTypePendingGrading     ReportType = "pending_grading"
)

// ReportFormat enumerates supported export formats.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ContentType is the MIME type served for a rendered file.
func (f ReportFormat) ContentType() string {
	switch f {
	case ReportFormatCSV:
		return "text/csv"
	case ReportFormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// ReportStatus captures background job lifecycle states.
type ReportStatus string

const (
	ReportStatusQueued     ReportStatus = "QUEUED"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusFinished   ReportStatus = "FINISHED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// Terminal reports whether a job has stopped moving.
func (s ReportStatus) Terminal() bool {
	return s == ReportStatusFinished || s == ReportStatusFailed
}

// ReportJob persisted background job metadata.
type ReportJob struct {
	ID           string          `db:"id" json:"id"`
	Type         ReportType      `db:"type" json:"type"`
	Params       ReportJobParams `db:"params" json:"params"`
	Status       ReportStatus    `db:"status" json:"status"`
	Progress     int             `db:"progress" json:"progress"`
	ResultURL    *string         `db:"result_url" json:"result_url,omitempty"`
	CreatedBy    string          `db:"created_by" json:"created_by"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time      `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
}

const (
	extraDeadline = "deadline"
	extraUrgent   = "urgent"
)

// ReportJobParams stores request-scoped options persisted as JSONB.
// Filters without a dedicated column live in Extras.
type ReportJobParams struct {
	Format    ReportFormat      `json:"format"`
	StudentID string            `json:"studentId,omitempty"`
	TopicID   string            `json:"topicId,omitempty"`
	CourseID  string            `json:"courseId,omitempty"`
	Search    string            `json:"search,omitempty"`
	StartDate string            `json:"startDate,omitempty"`
	EndDate   string            `json:"endDate,omitempty"`
	Extras    map[string]string `json:"extras,omitempty"`
}

// SetPendingFilter records the pending-grading filter in Extras.
func (p *ReportJobParams) SetPendingFilter(deadline string, urgentOnly bool) {
	if deadline == "" && !urgentOnly {
		return
	}
	if p.Extras == nil {
		p.Extras = map[string]string{}
	}
	p.Extras[extraDeadline] = deadline
	if urgentOnly {
		p.Extras[extraUrgent] = "true"
	}
}

// PendingFilter rebuilds the pending-grading filter stored by SetPendingFilter.
func (p ReportJobParams) PendingFilter() PendingGradingFilter {
	return PendingGradingFilter{
		CourseID:   p.CourseID,
		Deadline:   GradingDeadlineFilter(p.Extras[extraDeadline]),
		UrgentOnly: p.Extras[extraUrgent] == "true",
	}
}

// Value marshals params to JSON for persistence.
func (p ReportJobParams) Value() (driver.Value, error) {
	if p.Extras == nil {
		p.Extras = map[string]string{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal report job params: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the params struct.
func (p *ReportJobParams) Scan(value interface{}) error {
	if value == nil {
		*p = ReportJobParams{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ReportJobParams", value)
	}
	if len(data) == 0 {
		*p = ReportJobParams{}
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal report job params: %w", err)
	}
	return nil
}
