package dto

import (
	"time"

	"github.com/noah-isme/grading-admin-api/internal/models"
)

// ReportRequest captures POST /reports/generate payload.
type ReportRequest struct {
	Type       models.ReportType   `json:"type" validate:"required,oneof=student_performance teacher_grading pending_grading"`
	Format     models.ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
	StudentID  string              `json:"studentId" validate:"required_if=Type student_performance"`
	TopicID    string              `json:"topicId"`
	CourseID   string              `json:"courseId"`
	Search     string              `json:"search"`
	StartDate  string              `json:"startDate"`
	EndDate    string              `json:"endDate"`
	Deadline   string              `json:"deadline" validate:"omitempty,oneof=all overdue progress"`
	UrgentOnly bool                `json:"urgentOnly"`
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID         string              `json:"id"`
	Type       models.ReportType   `json:"type"`
	Status     models.ReportStatus `json:"status"`
	Progress   int                 `json:"progress"`
	ResultURL  *string             `json:"resultUrl,omitempty"`
	Error      *string             `json:"error,omitempty"`
	CreatedAt  time.Time           `json:"createdAt"`
	FinishedAt *time.Time          `json:"finishedAt,omitempty"`
}
