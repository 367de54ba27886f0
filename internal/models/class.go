package models

import (
	"sort"
	"time"
)

// ClassAttendee is one student's attendance entry in a class record.
type ClassAttendee struct {
	Name       string  `bson:"name" json:"name"`
	StudentID  string  `bson:"studentId,omitempty" json:"studentId,omitempty"`
	Category   string  `bson:"category,omitempty" json:"category,omitempty"`
	AQ         float64 `bson:"aq" json:"aq"`
	CQ         float64 `bson:"cq" json:"cq"`
	TotalMarks float64 `bson:"totalMarks,omitempty" json:"totalMarks,omitempty"`
	Percentage string  `bson:"percentage,omitempty" json:"percentage,omitempty"`
	Present    *bool   `bson:"present,omitempty" json:"present,omitempty"`
	JoinTime   string  `bson:"joinTime,omitempty" json:"joinTime,omitempty"`
	LeaveTime  string  `bson:"leaveTime,omitempty" json:"leaveTime,omitempty"`
	Duration   float64 `bson:"duration,omitempty" json:"duration,omitempty"`
}

// Attended reports attendance; only an explicit present=false counts as absent.
func (a ClassAttendee) Attended() bool {
	return a.Present == nil || *a.Present
}

// ClassRecord is a live class session with per-category attendance lists.
type ClassRecord struct {
	ID           string                     `bson:"_id" json:"id"`
	ClassID      string                     `bson:"classId,omitempty" json:"classId,omitempty"`
	Topic        string                     `bson:"topic" json:"topic"`
	CreationDate time.Time                  `bson:"creationDate" json:"creationDate"`
	TeacherName  string                     `bson:"teacherName,omitempty" json:"teacherName,omitempty"`
	Teacher      string                     `bson:"teacher,omitempty" json:"teacher,omitempty"`
	TeacherID    string                     `bson:"teacherId,omitempty" json:"teacherId,omitempty"`
	AQCount      float64                    `bson:"aqcount" json:"aqcount"`
	CQCount      float64                    `bson:"cqcount" json:"cqcount"`
	TotalMarks   float64                    `bson:"totalMarks,omitempty" json:"totalMarks,omitempty"`
	Students     map[string][]ClassAttendee `bson:"students" json:"students"`
}

// DisplayTeacher returns the first populated teacher field.
func (c ClassRecord) DisplayTeacher() string {
	switch {
	case c.TeacherName != "":
		return c.TeacherName
	case c.Teacher != "":
		return c.Teacher
	default:
		return c.TeacherID
	}
}

// MaxMarks returns the stored total or aqcount+cqcount.
func (c ClassRecord) MaxMarks() float64 {
	if c.TotalMarks > 0 {
		return c.TotalMarks
	}
	return c.AQCount + c.CQCount
}

// FindAttendee locates a student by name or id across all category lists.
func (c ClassRecord) FindAttendee(studentID, studentName string) (ClassAttendee, bool) {
	categories := make([]string, 0, len(c.Students))
	for category := range c.Students {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		for _, attendee := range c.Students[category] {
			if studentName != "" && attendee.Name == studentName {
				return attendee, true
			}
			if studentID != "" && attendee.StudentID == studentID {
				return attendee, true
			}
		}
	}
	return ClassAttendee{}, false
}
