package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/grading-admin-api/internal/models"
)

// Scorer computes the gained marks and denominator of one submission.
type Scorer interface {
	Score(sub models.Submission, nominal float64) models.Score
}

// ScorerFor selects the scoring variant of a delivery type.
func ScorerFor(t models.DeliveryType) Scorer {
	if t.IsInteractive() {
		return InteractiveScorer{}
	}
	return AttachmentScorer{}
}

// InteractiveScorer scores INTERACTIVE, INTERACTIVE_NOTES and QUIZ submissions.
// The summary wins over lesson results, which win over the flat totals.
type InteractiveScorer struct{}

// Score implements Scorer.
func (InteractiveScorer) Score(sub models.Submission, nominal float64) models.Score {
	var score models.Score
	switch {
	case sub.Performance != nil:
		score.Gained = sub.Performance.Gained.Float()
		score.Attempted = sub.Performance.Attempted.Float()
		score.AttemptedMarks = sub.Performance.Attempted.Float()
	case sub.Result != nil:
		for _, lesson := range sub.Result {
			score.Gained += lesson.Gained.Float()
			score.Attempted += lesson.Attempted.Float()
			score.AttemptedMarks += lesson.AttemptedMarks.Float()
		}
	default:
		score.Gained = numberOrZero(sub.TotalGained)
		score.Attempted = numberOrZero(sub.TotalAttempted)
		score.AttemptedMarks = numberOrZero(sub.TotalAttempted)
	}
	score.Total = nominal
	if score.AttemptedMarks > 0 {
		score.Total = score.AttemptedMarks
	}
	score.Percentage = Percentage(score.Gained, score.Total)
	return score
}

// AttachmentScorer scores teacher-marked submissions against the nominal marks.
type AttachmentScorer struct{}

// Score implements Scorer.
func (AttachmentScorer) Score(sub models.Submission, nominal float64) models.Score {
	gained := 0.0
	switch {
	case sub.TotalGained != nil:
		gained = sub.TotalGained.Float()
	case sub.Marks != nil:
		gained = sub.Marks.Float()
	}
	return models.Score{
		Gained:     gained,
		Total:      nominal,
		Percentage: Percentage(gained, nominal),
	}
}

// Percentage is gained/total*100 and 0 for a zero total.
func Percentage(gained, total float64) float64 {
	if total == 0 {
		return 0
	}
	return gained / total * 100
}

// ClassPercentage returns the stored attendee percentage or recomputes it
// from the AQ/CQ sub-scores, formatted with two decimals.
func ClassPercentage(attendee models.ClassAttendee, class models.ClassRecord) string {
	if attendee.Percentage != "" {
		return attendee.Percentage
	}
	possible := class.AQCount + class.CQCount
	if possible == 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", (attendee.AQ+attendee.CQ)/possible*100)
}

// StudentAssignment pairs an assignment with the student's submission.
// Assignments without a submission are left out of the report.
type StudentAssignment struct {
	Assignment models.Assignment
	Submission *models.Submission
}

// PerformanceInput is everything needed to build one student's report.
type PerformanceInput struct {
	StudentID   string
	StudentName string
	Category    string
	Topics      map[string]models.Topic
	TopicIDs    []string
	Start       time.Time
	End         time.Time
	Classes     []models.ClassRecord
	Assignments []StudentAssignment
	Now         time.Time
}

// InWindow reports whether the assignment's creation date, or its deadline
// when no creation date exists, falls inside [start, endOfDay(end)].
func InWindow(assignment models.Assignment, start, end time.Time) bool {
	at, ok := assignment.CreatedAt()
	if !ok {
		at, ok = ParseTime(assignment.Deadline)
	}
	if !ok {
		return false
	}
	return !at.Before(start) && !at.After(EndOfDay(end))
}

// BuildPerformance joins classes, assignments and weekly tests into a report.
func BuildPerformance(in PerformanceInput) models.StudentPerformanceReport {
	report := models.StudentPerformanceReport{
		StudentID:   in.StudentID,
		StudentName: in.StudentName,
		Category:    in.Category,
		Topics:      make([]models.TopicEntry, 0, len(in.TopicIDs)),
		StartDate:   in.Start,
		EndDate:     in.End,
		Classes:     []models.ClassPerformanceRow{},
		WeeklyTests: []models.AssignmentPerformanceRow{},
		Assignments: []models.AssignmentPerformanceRow{},
		GeneratedAt: in.Now,
	}
	if report.Category == "" {
		report.Category = models.NotAssignedCategory
	}
	for _, id := range in.TopicIDs {
		report.Topics = append(report.Topics, models.TopicEntry{ID: id, Title: topicName(in.Topics, id)})
	}

	for _, class := range in.Classes {
		attendee, ok := class.FindAttendee(in.StudentID, in.StudentName)
		if !ok {
			continue
		}
		report.Classes = append(report.Classes, classRow(class, attendee, in.Topics))
	}
	sort.SliceStable(report.Classes, func(i, j int) bool {
		return report.Classes[i].CreationDate.Before(report.Classes[j].CreationDate)
	})

	for _, item := range in.Assignments {
		if item.Submission == nil || !InWindow(item.Assignment, in.Start, in.End) {
			continue
		}
		row := assignmentRow(item, in.Topics)
		if item.Assignment.IsWeeklyTest() {
			report.WeeklyTests = append(report.WeeklyTests, row)
		} else {
			report.Assignments = append(report.Assignments, row)
		}
	}
	sortAssignmentRows(report.WeeklyTests)
	sortAssignmentRows(report.Assignments)

	report.Stats = Stats(report.Classes, report.Assignments, report.WeeklyTests)
	return report
}

// Stats derives the scalar statistics from the flattened rows. The average is
// the mean of per-item percentages over graded items with a non-zero total.
func Stats(classes []models.ClassPerformanceRow, assignments, weeklyTests []models.AssignmentPerformanceRow) models.StudentPerformanceStats {
	stats := models.StudentPerformanceStats{
		TotalClasses:     len(classes),
		TotalAssignments: len(assignments),
		TotalWeeklyTests: len(weeklyTests),
	}
	for _, class := range classes {
		if class.Present {
			stats.AttendedClasses++
		}
	}
	if stats.TotalClasses > 0 {
		stats.AttendancePercentage = float64(stats.AttendedClasses) / float64(stats.TotalClasses) * 100
	}

	sum, count := 0.0, 0
	tally := func(rows []models.AssignmentPerformanceRow, submitted, graded *int) {
		for _, row := range rows {
			if row.Submitted {
				*submitted++
			}
			if !row.Graded {
				continue
			}
			*graded++
			if row.Score.Total > 0 {
				sum += row.Score.Percentage
				count++
			}
		}
	}
	tally(assignments, &stats.SubmittedAssignments, &stats.GradedAssignments)
	tally(weeklyTests, &stats.SubmittedWeeklyTests, &stats.GradedWeeklyTests)
	if count > 0 {
		stats.AverageMarks = round2(sum / float64(count))
	}
	return stats
}

func classRow(class models.ClassRecord, attendee models.ClassAttendee, topics map[string]models.Topic) models.ClassPerformanceRow {
	return models.ClassPerformanceRow{
		ID:           class.ID,
		ClassID:      class.ClassID,
		TopicID:      class.Topic,
		TopicName:    topicName(topics, class.Topic),
		TeacherName:  class.DisplayTeacher(),
		CreationDate: class.CreationDate,
		AQCount:      class.AQCount,
		CQCount:      class.CQCount,
		TotalMarks:   class.MaxMarks(),
		StudentAQ:    attendee.AQ,
		StudentCQ:    attendee.CQ,
		StudentTotal: attendee.AQ + attendee.CQ,
		Percentage:   ClassPercentage(attendee, class),
		Present:      attendee.Attended(),
		JoinTime:     attendee.JoinTime,
		LeaveTime:    attendee.LeaveTime,
		Duration:     attendee.Duration,
	}
}

func assignmentRow(item StudentAssignment, topics map[string]models.Topic) models.AssignmentPerformanceRow {
	assignment := item.Assignment
	deliveryType := assignment.Type.Normalize()
	row := models.AssignmentPerformanceRow{
		AssignmentID: assignment.ID,
		TopicID:      assignment.TopicID,
		TopicName:    topicName(topics, assignment.TopicID),
		Title:        assignment.Title,
		Category:     assignment.Category,
		Type:         deliveryType,
		Deadline:     assignment.Deadline,
		CreationDate: assignment.CreationDate,
		TotalMarks:   assignment.TotalMarks,
	}
	sub := *item.Submission
	row.Submitted = sub.IsSubmitted()
	row.Graded = sub.IsGraded()
	row.SubmissionTime = sub.SubmittedTime()
	row.LateSubmission = sub.LateSubmission
	row.Score = ScorerFor(deliveryType).Score(sub, assignment.NominalMarks())
	if sub.Marks != nil {
		marks := sub.Marks.Float()
		row.Marks = &marks
	}
	row.Feedback = sub.Feedback
	row.GradedBy = sub.Grader()
	row.GradedAt = sub.GradedAt
	row.Attachments = sub.Attachments
	row.FeedbackURLs = sub.FeedbackURLs
	row.FeedbackVoiceURL = sub.FeedbackVoiceURL
	row.SupervisionApproval = sub.SupervisionApproval
	row.Result = sub.Result
	return row
}

func sortAssignmentRows(rows []models.AssignmentPerformanceRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TopicID != rows[j].TopicID {
			return rows[i].TopicID < rows[j].TopicID
		}
		return rows[i].Title < rows[j].Title
	})
}

func numberOrZero(n *models.Number) float64 {
	if n == nil {
		return 0
	}
	return n.Float()
}
