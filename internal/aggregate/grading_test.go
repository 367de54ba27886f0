package aggregate

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/grading-admin-api/internal/models"
)

var testNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func numPtr(v float64) *models.Number {
	n := models.Number(v)
	return &n
}

func sampleTopics() map[string]models.Topic {
	return map[string]models.Topic{
		"t1": {ID: "t1", Name: strPtr("Topic1"), Course: &models.CourseRef{ID: "10", Name: "Mathematics"}},
		"t2": {ID: "t2", Course: &models.CourseRef{ID: "20", Name: "Biology"}},
		"t3": {ID: "t3", Name: strPtr("Orphan")},
	}
}

func weeklyTest(topicID, title, gradingDeadline string) models.Assignment {
	return models.Assignment{
		ID:              topicID + "-" + title,
		TopicID:         topicID,
		Title:           title,
		Category:        models.WeeklyTestCategory,
		GradingDeadline: gradingDeadline,
		TotalMarks:      "20",
	}
}

func submissions(total, submitted, graded int) models.SubmissionMap {
	subs := make(models.SubmissionMap, total)
	for i := 0; i < total; i++ {
		sub := models.Submission{}
		if i < submitted {
			sub.Submission = true
			sub.SubmissionTime = "2024-01-05T09:00:00Z"
		}
		if i < graded {
			sub.Graded = true
		}
		subs[fmt.Sprintf("student-%02d", i)] = sub
	}
	return subs
}

func TestUngradedEmitsPartiallyGradedAssignment(t *testing.T) {
	items := []models.AssignmentSubmissions{
		{Assignment: weeklyTest("t1", "Algebra Quiz", "2024-01-20T10:00"), Submissions: submissions(10, 6, 4)},
	}

	entries := Ungraded(sampleTopics(), items, testNow)

	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, 10, entry.TotalStudents)
	assert.Equal(t, 6, entry.SubmittedStudents)
	assert.Equal(t, 4, entry.GradedStudents)
	assert.InDelta(t, 66.67, entry.PercentComplete, 0.001)
	assert.Equal(t, "10", entry.CourseID)
	assert.Equal(t, "Topic1", entry.TopicName)
	assert.False(t, entry.Overdue)
}

func TestUngradedExcludesAssignmentsWithoutSubmissions(t *testing.T) {
	items := []models.AssignmentSubmissions{
		{Assignment: weeklyTest("t1", "Geometry Quiz", ""), Submissions: submissions(5, 0, 0)},
		{Assignment: weeklyTest("t1", "Fully Graded", ""), Submissions: submissions(5, 3, 3)},
		{Assignment: weeklyTest("t1", "No Roster", ""), Submissions: nil},
	}

	entries := Ungraded(sampleTopics(), items, testNow)

	assert.Empty(t, entries)
}

func TestUngradedIgnoresNonWeeklyTests(t *testing.T) {
	homework := weeklyTest("t1", "Homework", "")
	homework.Category = "Homework"

	entries := Ungraded(sampleTopics(), []models.AssignmentSubmissions{{Assignment: homework, Submissions: submissions(3, 2, 0)}}, testNow)

	assert.Empty(t, entries)
}

func TestUngradedIgnoresGradedWithoutSubmission(t *testing.T) {
	subs := models.SubmissionMap{
		"a": {Submission: true},
		"b": {Graded: true},
	}
	entries := Ungraded(sampleTopics(), []models.AssignmentSubmissions{{Assignment: weeklyTest("t1", "Quiz", ""), Submissions: subs}}, testNow)

	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].SubmittedStudents)
	assert.Equal(t, 0, entries[0].GradedStudents)
}

func TestUngradedPropertiesHoldForGeneratedInputs(t *testing.T) {
	var items []models.AssignmentSubmissions
	for total := 0; total <= 4; total++ {
		for submitted := 0; submitted <= total; submitted++ {
			for graded := 0; graded <= submitted; graded++ {
				title := fmt.Sprintf("quiz-%d-%d-%d", total, submitted, graded)
				items = append(items, models.AssignmentSubmissions{
					Assignment:  weeklyTest("t2", title, ""),
					Submissions: submissions(total, submitted, graded),
				})
			}
		}
	}

	first := Ungraded(sampleTopics(), items, testNow)
	second := Ungraded(sampleTopics(), items, testNow)

	assert.Equal(t, first, second)
	for _, entry := range first {
		assert.Greater(t, entry.SubmittedStudents, 0)
		assert.Less(t, entry.GradedStudents, entry.SubmittedStudents)
	}
}

func TestUngradedAggregatorMergesBatches(t *testing.T) {
	all := []models.AssignmentSubmissions{
		{Assignment: weeklyTest("t1", "A", ""), Submissions: submissions(4, 2, 1)},
		{Assignment: weeklyTest("t2", "B", ""), Submissions: submissions(4, 3, 0)},
		{Assignment: weeklyTest("t3", "C", ""), Submissions: submissions(4, 4, 2)},
	}

	agg := NewUngradedAggregator(sampleTopics(), testNow)
	agg.Add(all[:1]...)
	agg.Add(all[1:]...)
	agg.Add(all[0])

	assert.Equal(t, Ungraded(sampleTopics(), all, testNow), agg.Entries())
}

func TestUnmarkedPapersSplitsByGradingDeadline(t *testing.T) {
	items := []models.AssignmentSubmissions{
		{Assignment: weeklyTest("t1", "Overdue Quiz", "2024-01-08T10:00"), Submissions: submissions(3, 3, 1)},
		{Assignment: weeklyTest("t2", "Open Quiz", "2024-01-15"), Submissions: submissions(2, 1, 0)},
		{Assignment: weeklyTest("t2", "Undated Quiz", ""), Submissions: submissions(1, 1, 0)},
	}
	agg := NewUngradedAggregator(sampleTopics(), testNow)
	agg.Add(items...)

	report := agg.UnmarkedPapers()

	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 2, report.DeadlinePassed)
	assert.Equal(t, 2, report.DeadlineNotPassed)
	require.Len(t, report.Papers, 4)
	assert.Equal(t, "2024-01-08", report.Papers[0].GradingDeadline)
	assert.True(t, report.Papers[0].DeadlinePassed)
}

func TestMarkedPapersSplitsGradedCounts(t *testing.T) {
	entries := []models.UngradedAssignmentEntry{
		{GradedStudents: 3, Overdue: true},
		{GradedStudents: 2},
	}

	summary := MarkedPapers(entries)

	assert.Equal(t, models.MarkedPapersSummary{Total: 5, Overdue: 3, OnTime: 2}, summary)
}

func TestGroupByCourseUsesUnknownSentinel(t *testing.T) {
	items := []models.AssignmentSubmissions{
		{Assignment: weeklyTest("t1", "Z Quiz", ""), Submissions: submissions(2, 2, 1)},
		{Assignment: weeklyTest("t1", "A Quiz", ""), Submissions: submissions(2, 2, 0)},
		{Assignment: weeklyTest("t3", "Solo", ""), Submissions: submissions(2, 1, 0)},
		{Assignment: weeklyTest("missing", "Ghost", ""), Submissions: submissions(1, 1, 0)},
	}
	topics := sampleTopics()

	groups := GroupByCourse(Ungraded(topics, items, testNow), topics)

	require.Len(t, groups, 2)
	assert.Equal(t, "10", groups[0].CourseID)
	assert.Equal(t, "Mathematics", groups[0].CourseName)
	assert.Equal(t, "A Quiz", groups[0].Entries[0].Assignment.Title)
	assert.InDelta(t, 25.0, groups[0].Percent, 0.001)
	assert.Equal(t, models.UnknownCourseID, groups[1].CourseID)
	assert.Len(t, groups[1].Entries, 2)
}

func TestPercentCompleteGuardsZeroSubmitted(t *testing.T) {
	assert.Equal(t, 0.0, PercentComplete(0, 0))
	assert.Equal(t, 100.0, PercentComplete(3, 3))
}

func TestFilterPending(t *testing.T) {
	entries := []models.UngradedAssignmentEntry{
		{CourseID: "10", Overdue: true, Assignment: models.Assignment{Title: "late"}},
		{CourseID: "10", Assignment: models.Assignment{Title: "open"}},
		{CourseID: "20", Overdue: true, Assignment: models.Assignment{Title: "other"}},
	}

	cases := []struct {
		name   string
		filter models.PendingGradingFilter
		want   []string
	}{
		{name: "all", filter: models.PendingGradingFilter{CourseID: models.AllCoursesID}, want: []string{"late", "open", "other"}},
		{name: "course", filter: models.PendingGradingFilter{CourseID: "10"}, want: []string{"late", "open"}},
		{name: "urgent", filter: models.PendingGradingFilter{UrgentOnly: true}, want: []string{"late", "other"}},
		{name: "progress", filter: models.PendingGradingFilter{Deadline: models.DeadlineFilterProgress}, want: []string{"open"}},
		{name: "overdue in course", filter: models.PendingGradingFilter{CourseID: "20", Deadline: models.DeadlineFilterOverdue}, want: []string{"other"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FilterPending(entries, tc.filter)
			titles := make([]string, 0, len(got))
			for _, entry := range got {
				titles = append(titles, entry.Assignment.Title)
			}
			assert.Equal(t, tc.want, titles)
		})
	}
}

func TestFilterAssignments(t *testing.T) {
	assignments := []models.Assignment{
		{Title: "Past", Category: models.WeeklyTestCategory, Deadline: "2024-01-09T10:00", TeacherName: "Ms. Khan"},
		{Title: "Soon", Category: models.WeeklyTestCategory, Deadline: "2024-01-12T10:00", TeacherName: "Mr. Lee"},
		{Title: "Later", Category: models.WeeklyTestCategory, Deadline: "2024-02-20T10:00", TeacherName: "Mr. Lee"},
		{Title: "Homework", Category: "Homework", Deadline: "2024-01-12T10:00"},
	}

	overdue := FilterAssignments(assignments, models.AssignmentFilter{Status: models.AssignmentFilterOverdue}, testNow)
	require.Len(t, overdue, 1)
	assert.Equal(t, "Past", overdue[0].Title)

	inProgress := FilterAssignments(assignments, models.AssignmentFilter{Status: models.AssignmentFilterInProgress}, testNow)
	require.Len(t, inProgress, 1)
	assert.Equal(t, "Soon", inProgress[0].Title)

	searched := FilterAssignments(assignments, models.AssignmentFilter{Search: "lee"}, testNow)
	assert.Len(t, searched, 2)
}

func TestGroupSubmissionsByCategory(t *testing.T) {
	roster := []models.TopicStudent{
		{StudentName: "Ali", Category: "Gold"},
		{StudentName: "Bea", Category: "Silver"},
	}
	subs := models.SubmissionMap{
		"Ali":  {Submission: true, Graded: true, Marks: numPtr(15)},
		"Bea":  {Submission: true},
		"Cara": {},
	}

	all := GroupSubmissions("t1", "Quiz", roster, subs, models.SubmissionFilterAll, "")
	assert.Equal(t, 3, all.Total)
	assert.Equal(t, 2, all.Submitted)
	assert.Equal(t, 1, all.Graded)
	require.Len(t, all.Groups, 3)
	assert.Equal(t, "Gold", all.Groups[0].Category)
	assert.Equal(t, models.NotAssignedCategory, all.Groups[1].Category)
	assert.Equal(t, "Cara", all.Groups[1].Students[0].StudentName)

	submitted := GroupSubmissions("t1", "Quiz", roster, subs, models.SubmissionFilterSubmitted, "")
	require.Len(t, submitted.Groups, 1)
	assert.Equal(t, "Bea", submitted.Groups[0].Students[0].StudentName)

	pending := GroupSubmissions("t1", "Quiz", roster, subs, models.SubmissionFilterPending, "")
	require.Len(t, pending.Groups, 1)
	assert.Equal(t, "Cara", pending.Groups[0].Students[0].StudentName)

	searched := GroupSubmissions("t1", "Quiz", roster, subs, models.SubmissionFilterAll, "AL")
	require.Len(t, searched.Groups, 1)
	assert.Equal(t, "Ali", searched.Groups[0].Students[0].StudentName)
}
