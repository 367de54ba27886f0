package aggregate

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/grading-admin-api/internal/models"
)

type assignmentKey struct {
	topicID string
	title   string
}

// UngradedAggregator accumulates weekly tests that still need grading. Items
// may be added batch by batch; re-adding an assignment replaces its counts.
type UngradedAggregator struct {
	topics  map[string]models.Topic
	now     time.Time
	entries map[assignmentKey]models.UngradedAssignmentEntry
	papers  map[assignmentKey][]models.UnmarkedPaper
}

// NewUngradedAggregator creates an aggregator evaluating deadlines against now.
func NewUngradedAggregator(topics map[string]models.Topic, now time.Time) *UngradedAggregator {
	return &UngradedAggregator{
		topics:  topics,
		now:     now,
		entries: make(map[assignmentKey]models.UngradedAssignmentEntry),
		papers:  make(map[assignmentKey][]models.UnmarkedPaper),
	}
}

// Add folds assignments with their submissions into the aggregate.
func (a *UngradedAggregator) Add(items ...models.AssignmentSubmissions) {
	for _, item := range items {
		assignment := item.Assignment
		if !assignment.IsGradingTarget() {
			continue
		}
		key := assignmentKey{topicID: assignment.TopicID, title: assignment.Title}
		delete(a.entries, key)
		delete(a.papers, key)

		total, submitted, graded := CountSubmissions(item.Submissions)
		if submitted == 0 || graded >= submitted {
			continue
		}

		overdue := passed(assignment.GradingDeadline, a.now)
		topic := a.topics[assignment.TopicID]
		a.entries[key] = models.UngradedAssignmentEntry{
			TopicID:           assignment.TopicID,
			TopicName:         topicName(a.topics, assignment.TopicID),
			CourseID:          topic.CourseID(),
			Assignment:        assignment,
			TotalStudents:     total,
			SubmittedStudents: submitted,
			GradedStudents:    graded,
			PercentComplete:   PercentComplete(graded, submitted),
			Overdue:           overdue,
		}

		papers := make([]models.UnmarkedPaper, 0, submitted-graded)
		for _, name := range sortedStudents(item.Submissions) {
			sub := item.Submissions[name]
			if !sub.Submission || sub.Graded {
				continue
			}
			papers = append(papers, models.UnmarkedPaper{
				TopicID:         assignment.TopicID,
				TopicName:       topicName(a.topics, assignment.TopicID),
				AssignmentID:    assignment.ID,
				AssignmentTitle: assignment.Title,
				StudentName:     name,
				SubmissionTime:  sub.SubmittedTime(),
				GradingDeadline: formatDeadline(assignment.GradingDeadline),
				DeadlinePassed:  overdue,
			})
		}
		a.papers[key] = papers
	}
}

// Entries returns the ungraded entries ordered by topic id then title.
func (a *UngradedAggregator) Entries() []models.UngradedAssignmentEntry {
	keys := make([]assignmentKey, 0, len(a.entries))
	for key := range a.entries {
		keys = append(keys, key)
	}
	sortKeys(keys)
	out := make([]models.UngradedAssignmentEntry, 0, len(keys))
	for _, key := range keys {
		out = append(out, a.entries[key])
	}
	return out
}

// UnmarkedPapers flattens every submitted-but-ungraded student row.
func (a *UngradedAggregator) UnmarkedPapers() models.UnmarkedPapersReport {
	keys := make([]assignmentKey, 0, len(a.papers))
	for key := range a.papers {
		keys = append(keys, key)
	}
	sortKeys(keys)
	report := models.UnmarkedPapersReport{Papers: []models.UnmarkedPaper{}}
	for _, key := range keys {
		for _, paper := range a.papers[key] {
			report.Papers = append(report.Papers, paper)
			report.Total++
			if paper.DeadlinePassed {
				report.DeadlinePassed++
			} else {
				report.DeadlineNotPassed++
			}
		}
	}
	return report
}

// Ungraded runs the aggregator over a complete input.
func Ungraded(topics map[string]models.Topic, items []models.AssignmentSubmissions, now time.Time) []models.UngradedAssignmentEntry {
	agg := NewUngradedAggregator(topics, now)
	agg.Add(items...)
	return agg.Entries()
}

// CountSubmissions returns total, submitted and graded counts. A graded row
// without a submission is not counted as graded.
func CountSubmissions(subs models.SubmissionMap) (total, submitted, graded int) {
	total = len(subs)
	for _, sub := range subs {
		if !sub.Submission {
			continue
		}
		submitted++
		if sub.Graded {
			graded++
		}
	}
	return total, submitted, graded
}

// PercentComplete is graded/submitted*100, or 0 when nothing was submitted.
func PercentComplete(graded, submitted int) float64 {
	if submitted <= 0 {
		return 0
	}
	return round2(float64(graded) / float64(submitted) * 100)
}

// MarkedPapers counts graded papers of the entries, split by grading deadline.
func MarkedPapers(entries []models.UngradedAssignmentEntry) models.MarkedPapersSummary {
	var summary models.MarkedPapersSummary
	for _, entry := range entries {
		summary.Total += entry.GradedStudents
		if entry.Overdue {
			summary.Overdue += entry.GradedStudents
		} else {
			summary.OnTime += entry.GradedStudents
		}
	}
	return summary
}

// FilterPending applies the course, urgency and deadline filters.
func FilterPending(entries []models.UngradedAssignmentEntry, filter models.PendingGradingFilter) []models.UngradedAssignmentEntry {
	out := make([]models.UngradedAssignmentEntry, 0, len(entries))
	for _, entry := range entries {
		if filter.CourseID != "" && filter.CourseID != models.AllCoursesID && entry.CourseID != filter.CourseID {
			continue
		}
		if filter.UrgentOnly && !entry.Overdue {
			continue
		}
		switch filter.Deadline {
		case models.DeadlineFilterOverdue:
			if !entry.Overdue {
				continue
			}
		case models.DeadlineFilterProgress:
			if entry.Overdue {
				continue
			}
		}
		out = append(out, entry)
	}
	return out
}

// GroupByCourse groups entries by course, ordered by course name then id.
// Entries inside a group are ordered by assignment title.
func GroupByCourse(entries []models.UngradedAssignmentEntry, topics map[string]models.Topic) []models.CourseGradingGroup {
	index := make(map[string]int)
	groups := make([]models.CourseGradingGroup, 0)
	for _, entry := range entries {
		i, ok := index[entry.CourseID]
		if !ok {
			i = len(groups)
			index[entry.CourseID] = i
			groups = append(groups, models.CourseGradingGroup{
				CourseID:   entry.CourseID,
				CourseName: courseName(topics, entry),
			})
		}
		groups[i].Entries = append(groups[i].Entries, entry)
		groups[i].Submitted += entry.SubmittedStudents
		groups[i].Graded += entry.GradedStudents
	}
	for i := range groups {
		groups[i].Percent = PercentComplete(groups[i].Graded, groups[i].Submitted)
		sort.SliceStable(groups[i].Entries, func(a, b int) bool {
			return groups[i].Entries[a].Assignment.Title < groups[i].Entries[b].Assignment.Title
		})
	}
	sort.SliceStable(groups, func(a, b int) bool {
		if groups[a].CourseName != groups[b].CourseName {
			return groups[a].CourseName < groups[b].CourseName
		}
		return groups[a].CourseID < groups[b].CourseID
	})
	return groups
}

// FilterAssignments keeps weekly tests matching the deadline status and search.
// In-progress means the deadline is still ahead and at most seven days away.
func FilterAssignments(assignments []models.Assignment, filter models.AssignmentFilter, now time.Time) []models.Assignment {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]models.Assignment, 0, len(assignments))
	for _, assignment := range assignments {
		if !assignment.IsGradingTarget() {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(assignment.Title), search) &&
			!strings.Contains(strings.ToLower(assignment.TeacherName), search) {
			continue
		}
		switch filter.Status {
		case models.AssignmentFilterOverdue:
			if !passed(assignment.Deadline, now) {
				continue
			}
		case models.AssignmentFilterInProgress:
			deadline, ok := ParseTime(assignment.Deadline)
			if !ok {
				continue
			}
			days := math.Ceil(deadline.Sub(now).Hours() / 24)
			if days <= 0 || days > 7 {
				continue
			}
		}
		out = append(out, assignment)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// GroupSubmissions joins the roster with submissions and groups by category.
// Pending means not submitted; submitted means submitted and not yet graded.
func GroupSubmissions(topicID, title string, roster []models.TopicStudent, subs models.SubmissionMap, status models.SubmissionStatusFilter, search string) models.SubmissionOverview {
	search = strings.ToLower(strings.TrimSpace(search))
	categories := make(map[string]string, len(roster))
	for _, row := range roster {
		categories[row.StudentName] = row.Category
	}

	overview := models.SubmissionOverview{TopicID: topicID, AssignmentTitle: title, Groups: []models.CategoryGroup{}}
	overview.Total, overview.Submitted, overview.Graded = CountSubmissions(subs)

	index := make(map[string]int)
	for _, name := range sortedStudents(subs) {
		sub := subs[name]
		if search != "" && !strings.Contains(strings.ToLower(name), search) {
			continue
		}
		if !matchesSubmissionStatus(sub, status) {
			continue
		}
		category := categories[name]
		if category == "" {
			category = sub.Category
		}
		if category == "" {
			category = models.NotAssignedCategory
		}
		i, ok := index[category]
		if !ok {
			i = len(overview.Groups)
			index[category] = i
			overview.Groups = append(overview.Groups, models.CategoryGroup{Category: category})
		}
		overview.Groups[i].Students = append(overview.Groups[i].Students, models.StudentSubmissionRow{
			StudentName: name,
			Category:    category,
			Submission:  sub,
		})
	}
	sort.SliceStable(overview.Groups, func(a, b int) bool {
		return overview.Groups[a].Category < overview.Groups[b].Category
	})
	return overview
}

func matchesSubmissionStatus(sub models.Submission, status models.SubmissionStatusFilter) bool {
	switch status {
	case models.SubmissionFilterGraded:
		return sub.Submission && sub.Graded
	case models.SubmissionFilterSubmitted:
		return sub.Submission && !sub.Graded
	case models.SubmissionFilterPending:
		return !sub.Submission
	default:
		return true
	}
}

func courseName(topics map[string]models.Topic, entry models.UngradedAssignmentEntry) string {
	if topic, ok := topics[entry.TopicID]; ok && topic.Course != nil && topic.Course.Name != "" {
		return topic.Course.Name
	}
	if entry.CourseID == models.UnknownCourseID {
		return "Unknown course"
	}
	return entry.CourseID
}

func formatDeadline(raw string) string {
	t, ok := ParseTime(raw)
	if !ok {
		return raw
	}
	return t.Format("2006-01-02")
}

func sortedStudents(subs models.SubmissionMap) []string {
	names := make([]string, 0, len(subs))
	for name := range subs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortKeys(keys []assignmentKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].topicID != keys[j].topicID {
			return keys[i].topicID < keys[j].topicID
		}
		return keys[i].title < keys[j].title
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
