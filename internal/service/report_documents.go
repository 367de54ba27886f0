package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/grading-admin-api/internal/models"
	"github.com/noah-isme/grading-admin-api/pkg/export"
)

const reportDateLayout = "2006-01-02"

var (
	classHeaders      = []string{"Date", "Topic", "Teacher", "Present", "AQ", "CQ", "Marks", "Percentage"}
	weeklyTestHeaders = []string{"Title", "Topic", "Deadline", "Status", "Marks", "Percentage", "Feedback", "Graded By", "Files"}
	assignmentHeaders = []string{"Title", "Topic", "Type", "Deadline", "Status", "Marks", "Percentage", "Feedback", "Graded By", "Files"}
)

// PerformanceDocument lays out a performance report as summary then classes,
// weekly tests and assignments.
func PerformanceDocument(report models.StudentPerformanceReport) export.Document {
	topics := make([]string, 0, len(report.Topics))
	for _, topic := range report.Topics {
		topics = append(topics, topic.Title)
	}
	stats := report.Stats
	doc := export.Document{
		Title: "Student Performance Report",
		Summary: []export.Field{
			{Label: "Student", Value: report.StudentName},
			{Label: "Student ID", Value: report.StudentID},
			{Label: "Category", Value: report.Category},
			{Label: "Topics", Value: orDash(strings.Join(topics, ", "))},
			{Label: "Period", Value: fmt.Sprintf("%s to %s", report.StartDate.Format(reportDateLayout), report.EndDate.Format(reportDateLayout))},
			{Label: "Classes Attended", Value: fmt.Sprintf("%d / %d (%.2f%%)", stats.AttendedClasses, stats.TotalClasses, stats.AttendancePercentage)},
			{Label: "Assignments Submitted", Value: fmt.Sprintf("%d / %d", stats.SubmittedAssignments, stats.TotalAssignments)},
			{Label: "Assignments Graded", Value: strconv.Itoa(stats.GradedAssignments)},
			{Label: "Weekly Tests Submitted", Value: fmt.Sprintf("%d / %d", stats.SubmittedWeeklyTests, stats.TotalWeeklyTests)},
			{Label: "Weekly Tests Graded", Value: strconv.Itoa(stats.GradedWeeklyTests)},
			{Label: "Average Marks", Value: fmt.Sprintf("%.2f%%", stats.AverageMarks)},
			{Label: "Generated At", Value: report.GeneratedAt.UTC().Format(time.RFC3339)},
		},
	}

	classes := export.Dataset{Headers: classHeaders, Rows: make([]map[string]string, 0, len(report.Classes))}
	for _, class := range report.Classes {
		classes.Rows = append(classes.Rows, map[string]string{
			"Date":       class.CreationDate.UTC().Format(reportDateLayout),
			"Topic":      class.TopicName,
			"Teacher":    orDash(class.TeacherName),
			"Present":    yesNo(class.Present),
			"AQ":         formatNumber(class.StudentAQ),
			"CQ":         formatNumber(class.StudentCQ),
			"Marks":      fmt.Sprintf("%s / %s", formatNumber(class.StudentTotal), formatNumber(class.TotalMarks)),
			"Percentage": class.Percentage + "%",
		})
	}

	doc.Sections = []export.Section{
		{Title: "Classes", Data: classes},
		{Title: "Weekly Tests", Data: assignmentDataset(weeklyTestHeaders, report.WeeklyTests)},
		{Title: "Assignments", Data: assignmentDataset(assignmentHeaders, report.Assignments)},
	}
	return doc
}

func assignmentDataset(headers []string, rows []models.AssignmentPerformanceRow) export.Dataset {
	data := export.Dataset{Headers: headers, Rows: make([]map[string]string, 0, len(rows))}
	for _, row := range rows {
		files := make([]string, 0, len(row.Attachments))
		for _, file := range row.Attachments {
			files = append(files, file.Name)
		}
		marks, percentage := "-", "-"
		if row.Graded {
			marks = fmt.Sprintf("%s / %s", formatNumber(row.Score.Gained), formatNumber(row.Score.Total))
			percentage = fmt.Sprintf("%.2f%%", row.Score.Percentage)
		}
		data.Rows = append(data.Rows, map[string]string{
			"Title":      row.Title,
			"Topic":      row.TopicName,
			"Type":       string(row.Type),
			"Deadline":   orDash(row.Deadline),
			"Status":     submissionStatus(row),
			"Marks":      marks,
			"Percentage": percentage,
			"Feedback":   row.Feedback,
			"Graded By":  row.GradedBy,
			"Files":      strings.Join(files, ", "),
		})
	}
	return data
}

// TeacherReportDocument lays out the grading leaderboard.
func TeacherReportDocument(report models.TeacherReport) export.Document {
	teachers := export.Dataset{Headers: []string{"Teacher", "Total Graded", "Assignments"}}
	rows := export.Dataset{Headers: []string{"Teacher", "Assignment", "Topic", "Graded", "Last Graded"}}
	for _, teacher := range report.Teachers {
		teachers.Rows = append(teachers.Rows, map[string]string{
			"Teacher":      teacher.TeacherName,
			"Total Graded": strconv.Itoa(teacher.TotalGraded),
			"Assignments":  strconv.Itoa(len(teacher.Assignments)),
		})
		for _, row := range teacher.Assignments {
			rows.Rows = append(rows.Rows, map[string]string{
				"Teacher":     teacher.TeacherName,
				"Assignment":  row.AssignmentTitle,
				"Topic":       row.TopicName,
				"Graded":      strconv.Itoa(row.GradedCount),
				"Last Graded": row.LastGraded.UTC().Format(time.RFC3339),
			})
		}
	}
	return export.Document{
		Title: "Teacher Grading Report",
		Summary: []export.Field{
			{Label: "Teachers", Value: strconv.Itoa(len(report.Teachers))},
			{Label: "Total Graded", Value: strconv.Itoa(report.TotalGraded)},
			{Label: "Unattributed Graded", Value: strconv.Itoa(report.UnattributedGraded)},
			{Label: "Generated At", Value: report.GeneratedAt.UTC().Format(time.RFC3339)},
		},
		Sections: []export.Section{
			{Title: "Teachers", Data: teachers},
			{Title: "Graded Assignments", Data: rows},
		},
	}
}

// PendingGradingDocument lays out the ungraded weekly tests by course.
func PendingGradingDocument(overview models.PendingGradingOverview) export.Document {
	data := export.Dataset{Headers: []string{"Course", "Topic", "Assignment", "Submitted", "Graded", "Complete", "Grading Deadline", "Overdue"}}
	for _, group := range overview.Groups {
		for _, entry := range group.Entries {
			data.Rows = append(data.Rows, map[string]string{
				"Course":           group.CourseName,
				"Topic":            entry.TopicName,
				"Assignment":       entry.Assignment.Title,
				"Submitted":        strconv.Itoa(entry.SubmittedStudents),
				"Graded":           strconv.Itoa(entry.GradedStudents),
				"Complete":         fmt.Sprintf("%.2f%%", entry.PercentComplete),
				"Grading Deadline": orDash(entry.Assignment.GradingDeadline),
				"Overdue":          yesNo(entry.Overdue),
			})
		}
	}
	return export.Document{
		Title: "Pending Grading",
		Summary: []export.Field{
			{Label: "Assignments", Value: strconv.Itoa(overview.TotalAssignments)},
			{Label: "Submitted", Value: strconv.Itoa(overview.TotalSubmitted)},
			{Label: "Graded", Value: strconv.Itoa(overview.TotalGraded)},
			{Label: "Complete", Value: fmt.Sprintf("%.2f%%", overview.PercentComplete)},
			{Label: "Generated At", Value: overview.GeneratedAt.UTC().Format(time.RFC3339)},
		},
		Sections: []export.Section{{Title: "Weekly Tests", Data: data}},
	}
}

func submissionStatus(row models.AssignmentPerformanceRow) string {
	switch {
	case row.Graded:
		return "Graded"
	case row.Submitted && row.LateSubmission:
		return "Submitted (late)"
	case row.Submitted:
		return "Submitted"
	default:
		return "Not submitted"
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}
