package aggregate

import (
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/grading-admin-api/internal/models"
)

type teacherRowKey struct {
	title     string
	topicName string
}

type teacherAccumulator struct {
	totalGraded int
	rows        map[teacherRowKey]*models.TeacherAssignmentEntry
}

// TeacherReportBuilder inverts graded submissions into a per-teacher
// leaderboard. Every weekly test counts, including fully graded ones.
type TeacherReportBuilder struct {
	topics       map[string]models.Topic
	now          time.Time
	teachers     map[string]*teacherAccumulator
	seen         map[assignmentKey]struct{}
	unattributed int
}

// NewTeacherReportBuilder creates a builder; now stands in for missing gradedAt values.
func NewTeacherReportBuilder(topics map[string]models.Topic, now time.Time) *TeacherReportBuilder {
	return &TeacherReportBuilder{
		topics:   topics,
		now:      now,
		teachers: make(map[string]*teacherAccumulator),
		seen:     make(map[assignmentKey]struct{}),
	}
}

// Add folds a batch of assignments into the report. An assignment already
// added is ignored so batches may overlap.
func (b *TeacherReportBuilder) Add(items ...models.AssignmentSubmissions) {
	for _, item := range items {
		assignment := item.Assignment
		if !assignment.IsGradingTarget() {
			continue
		}
		key := assignmentKey{topicID: assignment.TopicID, title: assignment.Title}
		if _, dup := b.seen[key]; dup {
			continue
		}
		b.seen[key] = struct{}{}

		name := topicName(b.topics, assignment.TopicID)
		for _, student := range sortedStudents(item.Submissions) {
			sub := item.Submissions[student]
			if !sub.Submission || !sub.Graded {
				continue
			}
			if sub.GradedByTeacher == "" {
				b.unattributed++
				continue
			}
			b.record(sub.GradedByTeacher, assignment, name, b.gradedAt(sub))
		}
	}
}

func (b *TeacherReportBuilder) record(teacher string, assignment models.Assignment, topicName string, gradedAt time.Time) {
	acc, ok := b.teachers[teacher]
	if !ok {
		acc = &teacherAccumulator{rows: make(map[teacherRowKey]*models.TeacherAssignmentEntry)}
		b.teachers[teacher] = acc
	}
	acc.totalGraded++

	rowKey := teacherRowKey{title: assignment.Title, topicName: topicName}
	row, ok := acc.rows[rowKey]
	if !ok {
		acc.rows[rowKey] = &models.TeacherAssignmentEntry{
			AssignmentTitle: assignment.Title,
			TopicName:       topicName,
			GradedCount:     1,
			LastGraded:      gradedAt,
			TopicID:         assignment.TopicID,
			AssignmentID:    assignment.ID,
		}
		return
	}
	row.GradedCount++
	if gradedAt.After(row.LastGraded) {
		row.LastGraded = gradedAt
	}
}

func (b *TeacherReportBuilder) gradedAt(sub models.Submission) time.Time {
	if t, ok := ParseTime(sub.GradedAt); ok {
		return t
	}
	return b.now
}

// Unattributed counts graded submissions that carried no gradedByTeacher.
func (b *TeacherReportBuilder) Unattributed() int {
	return b.unattributed
}

// Build returns the report sorted by total graded descending, then name.
// Assignment rows are ordered by most recent grading first.
func (b *TeacherReportBuilder) Build() models.TeacherReport {
	report := models.TeacherReport{
		Teachers:           make([]models.TeacherReportEntry, 0, len(b.teachers)),
		UnattributedGraded: b.unattributed,
		GeneratedAt:        b.now,
	}
	for teacher, acc := range b.teachers {
		entry := models.TeacherReportEntry{
			TeacherName: teacher,
			TotalGraded: acc.totalGraded,
			Assignments: make([]models.TeacherAssignmentEntry, 0, len(acc.rows)),
		}
		for _, row := range acc.rows {
			entry.Assignments = append(entry.Assignments, *row)
		}
		sortTeacherRows(entry.Assignments)
		report.Teachers = append(report.Teachers, entry)
		report.TotalGraded += acc.totalGraded
	}
	sortTeachers(report.Teachers)
	return report
}

// BuildTeacherReport runs the builder over a complete input.
func BuildTeacherReport(topics map[string]models.Topic, items []models.AssignmentSubmissions, now time.Time) models.TeacherReport {
	builder := NewTeacherReportBuilder(topics, now)
	builder.Add(items...)
	return builder.Build()
}

// FilterTeacherReport narrows the report by teacher name and grading date.
// Whole assignment rows pass or fail on lastGraded; the end date covers its
// entire day. Totals are recomputed from the surviving rows and teachers
// left without rows are dropped.
func FilterTeacherReport(report models.TeacherReport, filter models.TeacherReportFilter) models.TeacherReport {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var start, end time.Time
	if filter.StartDate != nil {
		start = StartOfDay(*filter.StartDate)
	}
	if filter.EndDate != nil {
		end = StartOfDay(*filter.EndDate).AddDate(0, 0, 1)
	}

	out := models.TeacherReport{
		Teachers:           make([]models.TeacherReportEntry, 0, len(report.Teachers)),
		UnattributedGraded: report.UnattributedGraded,
		FailedFetches:      report.FailedFetches,
		GeneratedAt:        report.GeneratedAt,
	}
	for _, teacher := range report.Teachers {
		if search != "" && !strings.Contains(strings.ToLower(teacher.TeacherName), search) {
			continue
		}
		rows := make([]models.TeacherAssignmentEntry, 0, len(teacher.Assignments))
		total := 0
		for _, row := range teacher.Assignments {
			if filter.StartDate != nil && row.LastGraded.Before(start) {
				continue
			}
			if filter.EndDate != nil && !row.LastGraded.Before(end) {
				continue
			}
			rows = append(rows, row)
			total += row.GradedCount
		}
		if len(rows) == 0 {
			continue
		}
		out.Teachers = append(out.Teachers, models.TeacherReportEntry{
			TeacherName: teacher.TeacherName,
			TotalGraded: total,
			Assignments: rows,
		})
		out.TotalGraded += total
	}
	sortTeachers(out.Teachers)
	return out
}

// GradedByTeacher lists the students a teacher graded in one assignment.
func GradedByTeacher(teacher string, subs models.SubmissionMap) []models.GradedStudentEntry {
	out := make([]models.GradedStudentEntry, 0)
	for _, name := range sortedStudents(subs) {
		sub := subs[name]
		if !sub.Submission || !sub.Graded || sub.GradedByTeacher != teacher {
			continue
		}
		entry := models.GradedStudentEntry{
			StudentName: name,
			Feedback:    sub.Feedback,
			GradedAt:    sub.GradedAt,
		}
		if sub.Marks != nil {
			entry.Marks = sub.Marks.Float()
		}
		out = append(out, entry)
	}
	return out
}

func sortTeachers(teachers []models.TeacherReportEntry) {
	sort.SliceStable(teachers, func(i, j int) bool {
		if teachers[i].TotalGraded != teachers[j].TotalGraded {
			return teachers[i].TotalGraded > teachers[j].TotalGraded
		}
		return teachers[i].TeacherName < teachers[j].TeacherName
	})
}

func sortTeacherRows(rows []models.TeacherAssignmentEntry) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].LastGraded.Equal(rows[j].LastGraded) {
			return rows[i].LastGraded.After(rows[j].LastGraded)
		}
		if rows[i].AssignmentTitle != rows[j].AssignmentTitle {
			return rows[i].AssignmentTitle < rows[j].AssignmentTitle
		}
		return rows[i].TopicName < rows[j].TopicName
	})
}
