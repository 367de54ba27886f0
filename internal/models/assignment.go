package models

import (
	"strings"
	"time"
)

// WeeklyTestCategory is the assignment category targeted by grading workflows.
const WeeklyTestCategory = "WeeklyTest"

// DeliveryType determines how a submission is scored.
type DeliveryType string

const (
	DeliveryAttachment       DeliveryType = "ATTACHMENT"
	DeliveryInteractive      DeliveryType = "INTERACTIVE"
	DeliveryInteractiveNotes DeliveryType = "INTERACTIVE_NOTES"
	DeliveryQuiz             DeliveryType = "QUIZ"
)

// Normalize maps unknown or empty delivery types to ATTACHMENT.
func (d DeliveryType) Normalize() DeliveryType {
	switch DeliveryType(strings.ToUpper(string(d))) {
	case DeliveryInteractive:
		return DeliveryInteractive
	case DeliveryInteractiveNotes:
		return DeliveryInteractiveNotes
	case DeliveryQuiz:
		return DeliveryQuiz
	default:
		return DeliveryAttachment
	}
}

// IsInteractive reports whether scoring comes from lesson results.
func (d DeliveryType) IsInteractive() bool {
	return d.Normalize() != DeliveryAttachment
}

// Assignment is an assignment document owned by exactly one topic.
type Assignment struct {
	ID              string       `json:"id"`
	TopicID         string       `json:"topicId"`
	Title           string       `json:"title"`
	Deadline        string       `json:"deadline"`
	GradingDeadline string       `json:"gradingDeadline,omitempty"`
	TotalMarks      string       `json:"totalMarks"`
	Weightage       Number       `json:"weightage"`
	Category        string       `json:"category"`
	TeacherName     string       `json:"teacherName"`
	CreationDate    *int64       `json:"creationDate,omitempty"`
	Type            DeliveryType `json:"type"`
}

// IsGradingTarget reports whether the assignment participates in grading views.
func (a Assignment) IsGradingTarget() bool {
	return a.Category == WeeklyTestCategory
}

// IsWeeklyTest reports whether the assignment belongs in the weekly test
// section of a performance report.
func (a Assignment) IsWeeklyTest() bool {
	if a.Category == WeeklyTestCategory || a.Category == "WeeklyTest preparation" {
		return true
	}
	return strings.Contains(strings.ToLower(a.Category), "weeklytest")
}

// NominalMarks parses TotalMarks leniently.
func (a Assignment) NominalMarks() float64 {
	return ParseNumber(a.TotalMarks)
}

// CreatedAt returns the creation timestamp when present.
func (a Assignment) CreatedAt() (time.Time, bool) {
	if a.CreationDate == nil || *a.CreationDate == 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(*a.CreationDate), true
}

// AssignmentFilterStatus selects assignments by deadline state.
type AssignmentFilterStatus string

const (
	AssignmentFilterAll        AssignmentFilterStatus = "all"
	AssignmentFilterOverdue    AssignmentFilterStatus = "overdue"
	AssignmentFilterInProgress AssignmentFilterStatus = "in-progress"
)

// AssignmentFilter narrows the assignments of a topic.
type AssignmentFilter struct {
	Status AssignmentFilterStatus
	Search string
}
