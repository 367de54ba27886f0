package models

import "time"

// StudentPerformanceStats are the scalar statistics of a performance report.
type StudentPerformanceStats struct {
	TotalClasses         int     `json:"totalClasses"`
	AttendedClasses      int     `json:"attendedClasses"`
	AttendancePercentage float64 `json:"attendancePercentage"`
	TotalAssignments     int     `json:"totalAssignments"`
	SubmittedAssignments int     `json:"submittedAssignments"`
	GradedAssignments    int     `json:"gradedAssignments"`
	TotalWeeklyTests     int     `json:"totalWeeklyTests"`
	SubmittedWeeklyTests int     `json:"submittedWeeklyTests"`
	GradedWeeklyTests    int     `json:"gradedWeeklyTests"`
	AverageMarks         float64 `json:"averageMarks"`
}

// Score is the variant-aware result of scoring one submission.
type Score struct {
	Gained         float64 `json:"gained"`
	Attempted      float64 `json:"attempted"`
	AttemptedMarks float64 `json:"attemptedMarks"`
	Total          float64 `json:"total"`
	Percentage     float64 `json:"percentage"`
}

// ClassPerformanceRow is a flattened class entry of a performance report.
type ClassPerformanceRow struct {
	ID           string    `json:"id"`
	ClassID      string    `json:"classId,omitempty"`
	TopicID      string    `json:"topic"`
	TopicName    string    `json:"topicName"`
	TeacherName  string    `json:"teacherName"`
	CreationDate time.Time `json:"creationDate"`
	AQCount      float64   `json:"aqcount"`
	CQCount      float64   `json:"cqcount"`
	TotalMarks   float64   `json:"totalMarks"`
	StudentAQ    float64   `json:"studentAq"`
	StudentCQ    float64   `json:"studentCq"`
	StudentTotal float64   `json:"studentTotal"`
	Percentage   string    `json:"percentage"`
	Present      bool      `json:"present"`
	JoinTime     string    `json:"joinTime,omitempty"`
	LeaveTime    string    `json:"leaveTime,omitempty"`
	Duration     float64   `json:"duration,omitempty"`
}

// AssignmentPerformanceRow is a flattened assignment or weekly test entry.
type AssignmentPerformanceRow struct {
	AssignmentID        string               `json:"assignmentId"`
	TopicID             string               `json:"topicId"`
	TopicName           string               `json:"topicName"`
	Title               string               `json:"title"`
	Category            string               `json:"category"`
	Type                DeliveryType         `json:"type"`
	Deadline            string               `json:"deadline"`
	CreationDate        *int64               `json:"creationDate,omitempty"`
	TotalMarks          string               `json:"totalMarks"`
	Submitted           bool                 `json:"submitted"`
	Graded              bool                 `json:"graded"`
	SubmissionTime      string               `json:"submissionTime,omitempty"`
	LateSubmission      bool                 `json:"lateSubmission"`
	Score               Score                `json:"score"`
	Marks               *float64             `json:"marks,omitempty"`
	Feedback            string               `json:"feedback,omitempty"`
	GradedBy            string               `json:"gradedBy,omitempty"`
	GradedAt            string               `json:"gradedAt,omitempty"`
	Attachments         []FileRef            `json:"attachments,omitempty"`
	FeedbackURLs        []FileRef            `json:"feedbackURLs,omitempty"`
	FeedbackVoiceURL    string               `json:"feedbackvoiceurl,omitempty"`
	SupervisionApproval *SupervisionApproval `json:"supervisionApproval,omitempty"`
	Result              []LessonResult       `json:"result,omitempty"`
}

// PerformanceQuery selects the student, topics and window of a report.
type PerformanceQuery struct {
	StudentID   string
	StudentName string
	TopicIDs    []string
	Start       time.Time
	End         time.Time
}

// StudentPerformanceReport is the complete exportable performance report.
type StudentPerformanceReport struct {
	StudentID   string                     `json:"studentId"`
	StudentName string                     `json:"studentName"`
	Category    string                     `json:"category"`
	Topics      []TopicEntry               `json:"topics"`
	StartDate   time.Time                  `json:"startDate"`
	EndDate     time.Time                  `json:"endDate"`
	Stats       StudentPerformanceStats    `json:"stats"`
	Classes     []ClassPerformanceRow      `json:"classes"`
	WeeklyTests []AssignmentPerformanceRow `json:"weeklyTests"`
	Assignments []AssignmentPerformanceRow `json:"assignments"`
	GeneratedAt time.Time                  `json:"generatedAt"`
	FailedLoads int                        `json:"failedLoads"`
}
