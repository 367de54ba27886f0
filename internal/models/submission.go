package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// SupervisionApproval is the moderation verdict on a proctoring video.
type SupervisionApproval string

const (
	SupervisionApproved    SupervisionApproval = "approved"
	SupervisionFailed      SupervisionApproval = "failed"
	SupervisionAISuspected SupervisionApproval = "ai_suspected"
)

// Valid reports whether the verdict is one of the known values.
func (s SupervisionApproval) Valid() bool {
	switch s {
	case SupervisionApproved, SupervisionFailed, SupervisionAISuspected:
		return true
	}
	return false
}

// FileRef is an uploaded file attached to a submission or its feedback.
type FileRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Performance is the precomputed score summary of an interactive submission.
type Performance struct {
	Gained    Number `json:"gained"`
	Attempted Number `json:"attempted"`
}

// LessonResult is one lesson entry of an interactive submission.
type LessonResult struct {
	Gained         Number `json:"gained"`
	Attempted      Number `json:"attempted"`
	AttemptedMarks Number `json:"attemptedMarks"`
}

// Submission is a student's attempt record for one assignment.
type Submission struct {
	Submission              bool                 `json:"submission"`
	SubmissionTime          string               `json:"submissionTime,omitempty"`
	SubmittedAt             string               `json:"submittedAt,omitempty"`
	LateSubmission          bool                 `json:"lateSubmission,omitempty"`
	Graded                  bool                 `json:"graded"`
	Marks                   *Number              `json:"marks,omitempty"`
	Feedback                string               `json:"feedback,omitempty"`
	Message                 string               `json:"message,omitempty"`
	Attachments             []FileRef            `json:"attachments,omitempty"`
	FeedbackURLs            []FileRef            `json:"feedbackURLs,omitempty"`
	FeedbackVoiceURL        string               `json:"feedbackvoiceurl,omitempty"`
	SupervisionApproval     *SupervisionApproval `json:"supervisionApproval,omitempty"`
	SupervisionApprovalDate *int64               `json:"supervisionApprovalDate,omitempty"`
	SupervisionVideoURL     string               `json:"supervisionVideoUrl,omitempty"`
	GradedByTeacher         string               `json:"gradedByTeacher,omitempty"`
	GradedBy                string               `json:"gradedBy,omitempty"`
	GradedAt                string               `json:"gradedAt,omitempty"`
	Status                  string               `json:"status,omitempty"`
	Category                string               `json:"category,omitempty"`
	Performance             *Performance         `json:"performance,omitempty"`
	Result                  []LessonResult       `json:"result,omitempty"`
	TotalGained             *Number              `json:"totalGained,omitempty"`
	TotalAttempted          *Number              `json:"totalAttempted,omitempty"`
}

// IsSubmitted accepts the legacy status field as well as the flag.
func (s Submission) IsSubmitted() bool {
	if s.Submission {
		return true
	}
	status := strings.ToLower(s.Status)
	return status == "submitted" || status == "completed"
}

// IsGraded accepts the legacy status field as well as the flag.
func (s Submission) IsGraded() bool {
	return s.Graded || strings.ToLower(s.Status) == "graded"
}

// Grader returns the attributed teacher, preferring gradedByTeacher.
func (s Submission) Grader() string {
	if s.GradedByTeacher != "" {
		return s.GradedByTeacher
	}
	return s.GradedBy
}

// SubmittedTime returns whichever submission timestamp is populated.
func (s Submission) SubmittedTime() string {
	if s.SubmissionTime != "" {
		return s.SubmissionTime
	}
	return s.SubmittedAt
}

// Value marshals the submission document for JSONB persistence.
func (s Submission) Value() (driver.Value, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal submission: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB submission document.
func (s *Submission) Scan(value interface{}) error {
	if value == nil {
		*s = Submission{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for Submission", value)
	}
	if len(data) == 0 {
		*s = Submission{}
		return nil
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("unmarshal submission: %w", err)
	}
	return nil
}

// SubmissionMap holds the submissions of one assignment keyed by student name.
type SubmissionMap map[string]Submission

// AssignmentSubmissions joins an assignment with its submission map.
type AssignmentSubmissions struct {
	Assignment  Assignment
	Submissions SubmissionMap
}

// SubmissionKey addresses one student's submission.
type SubmissionKey struct {
	TopicID         string
	AssignmentTitle string
	Student         string
}

// GradeRequest sets the grading fields of a submission.
type GradeRequest struct {
	Marks    float64 `json:"marks" validate:"gte=0"`
	Feedback string  `json:"feedback" validate:"max=5000"`
}

// SupervisionRequest sets or clears a supervision verdict. A null approval clears it.
type SupervisionRequest struct {
	Approval *SupervisionApproval `json:"approval"`
}

// GradeUpdate is the patch written to the store by a grading action.
type GradeUpdate struct {
	Graded          bool    `json:"graded"`
	Marks           float64 `json:"marks"`
	Feedback        string  `json:"feedback"`
	GradedByTeacher string  `json:"gradedByTeacher,omitempty"`
	GradedAt        string  `json:"gradedAt"`
}

// SupervisionUpdate is the patch written by a supervision action.
type SupervisionUpdate struct {
	SupervisionApproval     SupervisionApproval `json:"supervisionApproval"`
	SupervisionApprovalDate int64               `json:"supervisionApprovalDate"`
}
