package aggregate

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/grading-admin-api/internal/models"
)

func boolPtr(v bool) *bool { return &v }

func millis(t time.Time) *int64 {
	ms := t.UnixMilli()
	return &ms
}

func TestInteractiveScoreSumsLessonResults(t *testing.T) {
	var sub models.Submission
	raw := `{"submission":true,"graded":true,"result":[{"gained":"3","attempted":"5","attemptedMarks":5},{"gained":"2","attempted":"3","attemptedMarks":3}]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &sub))

	score := ScorerFor(models.DeliveryInteractive).Score(sub, 20)

	assert.Equal(t, 5.0, score.Gained)
	assert.Equal(t, 8.0, score.Attempted)
	assert.Equal(t, 8.0, score.AttemptedMarks)
	assert.Equal(t, 8.0, score.Total)
	assert.InDelta(t, 62.5, score.Percentage, 0.0001)
}

func TestInteractiveScorePrecedence(t *testing.T) {
	sub := models.Submission{
		Performance:    &models.Performance{Gained: 4, Attempted: 5},
		Result:         []models.LessonResult{{Gained: 1, AttemptedMarks: 1}},
		TotalGained:    numPtr(9),
		TotalAttempted: numPtr(10),
	}
	score := InteractiveScorer{}.Score(sub, 20)
	assert.InDelta(t, 80.0, score.Percentage, 0.0001)

	sub.Performance = nil
	sub.Result = nil
	score = InteractiveScorer{}.Score(sub, 20)
	assert.Equal(t, 9.0, score.Gained)
	assert.Equal(t, 10.0, score.Total)

	sub.TotalAttempted = nil
	score = InteractiveScorer{}.Score(sub, 20)
	assert.Equal(t, 20.0, score.Total)
	assert.InDelta(t, 45.0, score.Percentage, 0.0001)
}

func TestAttachmentScoreUsesNominalMarks(t *testing.T) {
	score := ScorerFor(models.DeliveryAttachment).Score(models.Submission{Marks: numPtr(15)}, 20)
	assert.InDelta(t, 75.0, score.Percentage, 0.0001)

	score = ScorerFor("").Score(models.Submission{Marks: numPtr(15), TotalGained: numPtr(12)}, 20)
	assert.Equal(t, 12.0, score.Gained)

	score = AttachmentScorer{}.Score(models.Submission{Marks: numPtr(15)}, models.Assignment{TotalMarks: "n/a"}.NominalMarks())
	assert.Equal(t, 0.0, score.Percentage)
}

func TestPercentageNeverDividesByZero(t *testing.T) {
	assert.Equal(t, 0.0, Percentage(0, 0))
	assert.Equal(t, 0.0, Percentage(5, 0))
}

func TestClassPercentage(t *testing.T) {
	class := models.ClassRecord{AQCount: 10, CQCount: 10}

	assert.Equal(t, "85.00", ClassPercentage(models.ClassAttendee{AQ: 8, CQ: 9}, class))
	assert.Equal(t, "0.00", ClassPercentage(models.ClassAttendee{AQ: 8}, models.ClassRecord{}))
	assert.Equal(t, "91.5", ClassPercentage(models.ClassAttendee{Percentage: "91.5"}, class))
}

func TestStatsExcludesZeroTotalsFromAverage(t *testing.T) {
	assignments := []models.AssignmentPerformanceRow{
		{Submitted: true, Graded: true, Score: models.Score{Percentage: 80, Total: 10}},
		{Submitted: true, Graded: true, Score: models.Score{Percentage: 0, Total: 0}},
		{Submitted: true, Score: models.Score{Percentage: 10, Total: 10}},
	}
	weeklyTests := []models.AssignmentPerformanceRow{
		{Submitted: true, Graded: true, Score: models.Score{Percentage: 65.56, Total: 20}},
		{},
	}
	classes := []models.ClassPerformanceRow{{Present: true}, {Present: false}, {Present: true}, {Present: true}}

	stats := Stats(classes, assignments, weeklyTests)

	assert.Equal(t, 4, stats.TotalClasses)
	assert.Equal(t, 3, stats.AttendedClasses)
	assert.InDelta(t, 75.0, stats.AttendancePercentage, 0.0001)
	assert.Equal(t, 3, stats.TotalAssignments)
	assert.Equal(t, 3, stats.SubmittedAssignments)
	assert.Equal(t, 2, stats.GradedAssignments)
	assert.Equal(t, 2, stats.TotalWeeklyTests)
	assert.Equal(t, 1, stats.SubmittedWeeklyTests)
	assert.Equal(t, 1, stats.GradedWeeklyTests)
	assert.Equal(t, 72.78, stats.AverageMarks)
}

func TestStatsWithoutClasses(t *testing.T) {
	stats := Stats(nil, nil, nil)
	assert.Equal(t, 0.0, stats.AttendancePercentage)
	assert.Equal(t, 0.0, stats.AverageMarks)
}

func TestBuildPerformanceJoinsSources(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	classes := []models.ClassRecord{
		{
			ID: "c2", Topic: "t1", CreationDate: time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC), TeacherID: "teacher-7",
			AQCount: 10, CQCount: 10,
			Students: map[string][]models.ClassAttendee{"Gold": {{Name: "Ali", AQ: 8, CQ: 9}}},
		},
		{
			ID: "c1", Topic: "t1", CreationDate: time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), TeacherName: "Ms. Khan",
			AQCount: 5, CQCount: 5,
			Students: map[string][]models.ClassAttendee{"Silver": {{Name: "Someone", StudentID: "s-1", Present: boolPtr(false)}}},
		},
		{
			ID: "c3", Topic: "t1", CreationDate: time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC),
			Students: map[string][]models.ClassAttendee{"Gold": {{Name: "Bea"}}},
		},
	}
	lateNight := time.Date(2024, 1, 7, 23, 30, 0, 0, time.UTC)
	assignments := []StudentAssignment{
		{
			Assignment: models.Assignment{ID: "a1", TopicID: "t1", Title: "Quiz 1", Category: "WeeklyTest preparation", TotalMarks: "20", CreationDate: millis(lateNight)},
			Submission: &models.Submission{Submission: true, Graded: true, Marks: numPtr(15), GradedBy: "Mr. Lee"},
		},
		{
			Assignment: models.Assignment{ID: "a2", TopicID: "t1", Title: "Essay", Category: "Homework", TotalMarks: "10", Deadline: "2024-01-05T10:00"},
			Submission: &models.Submission{Status: "completed"},
		},
		{
			Assignment: models.Assignment{ID: "a3", TopicID: "t1", Title: "Out of range", Category: "Homework", Deadline: "2024-01-09T10:00"},
		},
		{
			Assignment: models.Assignment{ID: "a4", TopicID: "t1", Title: "Never assigned", Category: "weeklytest-special"},
		},
	}

	report := BuildPerformance(PerformanceInput{
		StudentID:   "s-1",
		StudentName: "Ali",
		Topics:      sampleTopics(),
		TopicIDs:    []string{"t1"},
		Start:       start,
		End:         end,
		Classes:     classes,
		Assignments: assignments,
		Now:         testNow,
	})

	assert.Equal(t, models.NotAssignedCategory, report.Category)
	require.Len(t, report.Classes, 2)
	assert.Equal(t, "c1", report.Classes[0].ID)
	assert.False(t, report.Classes[0].Present)
	assert.Equal(t, "Ms. Khan", report.Classes[0].TeacherName)
	assert.Equal(t, "85.00", report.Classes[1].Percentage)
	assert.Equal(t, "teacher-7", report.Classes[1].TeacherName)
	assert.Equal(t, 20.0, report.Classes[1].TotalMarks)

	require.Len(t, report.WeeklyTests, 1)
	assert.Equal(t, "Quiz 1", report.WeeklyTests[0].Title)
	assert.Equal(t, "Mr. Lee", report.WeeklyTests[0].GradedBy)
	assert.InDelta(t, 75.0, report.WeeklyTests[0].Score.Percentage, 0.0001)
	require.Len(t, report.Assignments, 1)
	assert.True(t, report.Assignments[0].Submitted)
	assert.False(t, report.Assignments[0].Graded)

	assert.Equal(t, 2, report.Stats.TotalClasses)
	assert.Equal(t, 1, report.Stats.AttendedClasses)
	assert.InDelta(t, 50.0, report.Stats.AttendancePercentage, 0.0001)
	assert.Equal(t, 75.0, report.Stats.AverageMarks)
	assert.Equal(t, []models.TopicEntry{{ID: "t1", Title: "Topic1"}}, report.Topics)
}

func TestWeeklyTestClassification(t *testing.T) {
	assert.True(t, models.Assignment{Category: "WeeklyTest"}.IsWeeklyTest())
	assert.True(t, models.Assignment{Category: "WeeklyTest preparation"}.IsWeeklyTest())
	assert.True(t, models.Assignment{Category: "Final WEEKLYTEST"}.IsWeeklyTest())
	assert.False(t, models.Assignment{Category: "Weekly Test"}.IsWeeklyTest())
}

func TestBuildPerformanceSkipsAssignmentsWithoutSubmission(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	created := millis(time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC))

	report := BuildPerformance(PerformanceInput{
		StudentID:   "s-1",
		StudentName: "Ali",
		TopicIDs:    []string{"t1"},
		Start:       start,
		End:         end,
		Assignments: []StudentAssignment{
			{
				Assignment: models.Assignment{ID: "a1", TopicID: "t1", Title: "WT1", Category: models.WeeklyTestCategory, CreationDate: created},
				Submission: &models.Submission{Submission: true},
			},
			{Assignment: models.Assignment{ID: "a2", TopicID: "t1", Title: "WT2", Category: models.WeeklyTestCategory, CreationDate: created}},
			{Assignment: models.Assignment{ID: "a3", TopicID: "t1", Title: "Essay", Category: "Homework", CreationDate: created}},
		},
		Now: testNow,
	})

	require.Len(t, report.WeeklyTests, 1)
	assert.Equal(t, "WT1", report.WeeklyTests[0].Title)
	assert.Empty(t, report.Assignments)
	assert.Equal(t, 1, report.Stats.TotalWeeklyTests)
	assert.Equal(t, 1, report.Stats.SubmittedWeeklyTests)
	assert.Zero(t, report.Stats.TotalAssignments)
}
