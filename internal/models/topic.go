package models

// AllCoursesID is the sentinel course id that disables course filtering.
const AllCoursesID = "all"

// UnknownCourseID groups topics whose course cannot be resolved.
const UnknownCourseID = "unknown"

// CourseRef is the course reference embedded in a topic document.
type CourseRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Topic is a course subdivision owning assignments and a roster.
type Topic struct {
	ID     string     `db:"id" json:"id"`
	Name   *string    `db:"name" json:"name,omitempty"`
	Course *CourseRef `db:"-" json:"course,omitempty"`
}

// DisplayName returns the topic name, falling back to its id.
func (t Topic) DisplayName() string {
	if t.Name != nil && *t.Name != "" {
		return *t.Name
	}
	return t.ID
}

// CourseID returns the owning course id or UnknownCourseID.
func (t Topic) CourseID() string {
	if t.Course == nil || t.Course.ID == "" {
		return UnknownCourseID
	}
	return t.Course.ID
}

// TopicEntry is a resolved topic ready for display.
type TopicEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Course is read-only reference data used to filter topics.
type Course struct {
	ID    string `db:"id" json:"id"`
	Title string `db:"title" json:"title"`
}

// IsAll reports whether the course is the "all courses" sentinel.
func (c *Course) IsAll() bool {
	return c == nil || c.ID == "" || c.ID == AllCoursesID
}

// TopicStudent is a roster row of a topic.
type TopicStudent struct {
	TopicID     string `db:"topic_id" json:"topicId"`
	StudentID   string `db:"student_id" json:"studentId"`
	StudentName string `db:"student_name" json:"studentName"`
	Category    string `db:"category" json:"category"`
}
