package models

import "time"

// UngradedAssignmentEntry is a weekly test with submitted but ungraded papers.
type UngradedAssignmentEntry struct {
	TopicID           string     `json:"topicId"`
	TopicName         string     `json:"topicName"`
	CourseID          string     `json:"courseId"`
	Assignment        Assignment `json:"assignment"`
	TotalStudents     int        `json:"totalStudents"`
	SubmittedStudents int        `json:"submittedStudents"`
	GradedStudents    int        `json:"gradedStudents"`
	PercentComplete   float64    `json:"percentComplete"`
	Overdue           bool       `json:"overdue"`
}

// CourseGradingGroup groups ungraded entries by owning course.
type CourseGradingGroup struct {
	CourseID   string                    `json:"courseId"`
	CourseName string                    `json:"courseName"`
	Entries    []UngradedAssignmentEntry `json:"entries"`
	Submitted  int                       `json:"submitted"`
	Graded     int                       `json:"graded"`
	Percent    float64                   `json:"percentComplete"`
}

// UnmarkedPaper is one submitted-but-ungraded student row.
type UnmarkedPaper struct {
	TopicID         string `json:"topicId"`
	TopicName       string `json:"topicName"`
	AssignmentID    string `json:"assignmentId"`
	AssignmentTitle string `json:"assignmentTitle"`
	StudentName     string `json:"studentName"`
	SubmissionTime  string `json:"submissionTime,omitempty"`
	GradingDeadline string `json:"gradingDeadline,omitempty"`
	DeadlinePassed  bool   `json:"deadlinePassed"`
}

// UnmarkedPapersReport is the flattened unmarked-papers view.
type UnmarkedPapersReport struct {
	Papers            []UnmarkedPaper `json:"papers"`
	Total             int             `json:"total"`
	DeadlinePassed    int             `json:"deadlinePassed"`
	DeadlineNotPassed int             `json:"deadlineNotPassed"`
}

// MarkedPapersSummary counts graded papers split by grading deadline.
type MarkedPapersSummary struct {
	Total   int `json:"total"`
	Overdue int `json:"overdue"`
	OnTime  int `json:"onTime"`
}

// GradingDeadlineFilter selects entries by grading deadline state.
type GradingDeadlineFilter string

const (
	DeadlineFilterAll      GradingDeadlineFilter = "all"
	DeadlineFilterOverdue  GradingDeadlineFilter = "overdue"
	DeadlineFilterProgress GradingDeadlineFilter = "progress"
)

// PendingGradingFilter narrows the ungraded list.
type PendingGradingFilter struct {
	CourseID   string
	Deadline   GradingDeadlineFilter
	UrgentOnly bool
}

// PendingGradingOverview is the payload of the pending grading endpoint.
type PendingGradingOverview struct {
	Groups           []CourseGradingGroup `json:"groups"`
	TotalAssignments int                  `json:"totalAssignments"`
	TotalSubmitted   int                  `json:"totalSubmitted"`
	TotalGraded      int                  `json:"totalGraded"`
	PercentComplete  float64              `json:"percentComplete"`
	FailedFetches    int                  `json:"failedFetches"`
	GeneratedAt      time.Time            `json:"generatedAt"`
}

// TeacherAssignmentEntry is one (assignment, topic) row graded by a teacher.
type TeacherAssignmentEntry struct {
	AssignmentTitle string    `json:"assignmentTitle"`
	TopicName       string    `json:"topicName"`
	GradedCount     int       `json:"gradedCount"`
	LastGraded      time.Time `json:"lastGraded"`
	TopicID         string    `json:"topicId"`
	AssignmentID    string    `json:"assignmentId"`
}

// TeacherReportEntry summarises one teacher's grading activity.
type TeacherReportEntry struct {
	TeacherName string                   `json:"teacherName"`
	TotalGraded int                      `json:"totalGraded"`
	Assignments []TeacherAssignmentEntry `json:"assignments"`
}

// TeacherReport is the grading leaderboard.
type TeacherReport struct {
	Teachers           []TeacherReportEntry `json:"teachers"`
	TotalGraded        int                  `json:"totalGraded"`
	UnattributedGraded int                  `json:"unattributedGraded"`
	FailedFetches      int                  `json:"failedFetches"`
	GeneratedAt        time.Time            `json:"generatedAt"`
}

// TeacherReportFilter is applied after the report is built.
type TeacherReportFilter struct {
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
}

// GradedStudentEntry is a student graded by a teacher in one assignment.
type GradedStudentEntry struct {
	StudentName string  `json:"studentName"`
	Marks       float64 `json:"marks"`
	Feedback    string  `json:"feedback,omitempty"`
	GradedAt    string  `json:"gradedAt,omitempty"`
}

// SubmissionStatusFilter selects students in the submission view.
type SubmissionStatusFilter string

const (
	SubmissionFilterAll       SubmissionStatusFilter = "all"
	SubmissionFilterGraded    SubmissionStatusFilter = "graded"
	SubmissionFilterSubmitted SubmissionStatusFilter = "submitted"
	SubmissionFilterPending   SubmissionStatusFilter = "pending"
)

// StudentSubmissionRow is a roster row joined with its submission.
type StudentSubmissionRow struct {
	StudentName string     `json:"studentName"`
	Category    string     `json:"category"`
	Submission  Submission `json:"submission"`
}

// CategoryGroup lists students of one category.
type CategoryGroup struct {
	Category string                 `json:"category"`
	Students []StudentSubmissionRow `json:"students"`
}

// SubmissionOverview is the grouped submission view of one assignment.
type SubmissionOverview struct {
	TopicID         string          `json:"topicId"`
	AssignmentTitle string          `json:"assignmentTitle"`
	Groups          []CategoryGroup `json:"groups"`
	Total           int             `json:"total"`
	Submitted       int             `json:"submitted"`
	Graded          int             `json:"graded"`
}
