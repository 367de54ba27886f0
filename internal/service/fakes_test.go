package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/grading-admin-api/internal/models"
	appErrors "github.com/noah-isme/grading-admin-api/pkg/errors"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(_ context.Context, pattern string) (int, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
			removed++
		}
	}
	return removed, nil
}

func (m *memoryCache) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.data))
	for key := range m.data {
		out = append(out, key)
	}
	return out
}

type fakeCatalog struct {
	topics    map[string]models.Topic
	courses   []models.Course
	topicErr  error
	courseErr error
}

func (f *fakeCatalog) ListTopics(context.Context) (map[string]models.Topic, error) {
	if f.topicErr != nil {
		return nil, f.topicErr
	}
	return f.topics, nil
}

func (f *fakeCatalog) ListCourses(context.Context) ([]models.Course, error) {
	if f.courseErr != nil {
		return nil, f.courseErr
	}
	return f.courses, nil
}

type fakeAssignments struct {
	items []models.Assignment
	err   error
}

func (f *fakeAssignments) ListWeeklyTests(context.Context) ([]models.Assignment, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Assignment, 0)
	for _, a := range f.items {
		if a.Category == models.WeeklyTestCategory {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssignments) ListByTopic(_ context.Context, topicID string) ([]models.Assignment, error) {
	return f.ListByTopics(context.Background(), []string{topicID})
}

func (f *fakeAssignments) ListByTopics(_ context.Context, topicIDs []string) ([]models.Assignment, error) {
	if f.err != nil {
		return nil, f.err
	}
	wanted := map[string]bool{}
	for _, id := range topicIDs {
		wanted[id] = true
	}
	out := make([]models.Assignment, 0)
	for _, a := range f.items {
		if wanted[a.TopicID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssignments) GetByTitle(_ context.Context, topicID, title string) (*models.Assignment, error) {
	for _, a := range f.items {
		if a.TopicID == topicID && a.Title == title {
			found := a
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeSubmissions struct {
	mu          sync.Mutex
	data        map[string]models.SubmissionMap
	failTitles  map[string]bool
	grades      []models.GradeUpdate
	supervision []models.SupervisionUpdate
	cleared     []models.SubmissionKey
	findKeys    [][]string
}

func newFakeSubmissions(data map[string]models.SubmissionMap) *fakeSubmissions {
	return &fakeSubmissions{data: data, failTitles: map[string]bool{}}
}

func subsKey(topicID, title string) string {
	return topicID + "/" + title
}

func (f *fakeSubmissions) ListByAssignment(_ context.Context, topicID, title string) (models.SubmissionMap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTitles[title] {
		return nil, errors.New("document store timeout")
	}
	out := models.SubmissionMap{}
	for name, sub := range f.data[subsKey(topicID, title)] {
		out[name] = sub
	}
	return out, nil
}

func (f *fakeSubmissions) Find(_ context.Context, topicID, title string, keys ...string) (*models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findKeys = append(f.findKeys, keys)
	if f.failTitles[title] {
		return nil, errors.New("document store timeout")
	}
	for _, key := range keys {
		if sub, ok := f.data[subsKey(topicID, title)][key]; ok {
			found := sub
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeSubmissions) UpdateGrade(_ context.Context, key models.SubmissionKey, update models.GradeUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grades = append(f.grades, update)
	return nil
}

func (f *fakeSubmissions) SetSupervision(_ context.Context, key models.SubmissionKey, update models.SupervisionUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.supervision = append(f.supervision, update)
	return nil
}

func (f *fakeSubmissions) ClearSupervision(_ context.Context, key models.SubmissionKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, key)
	return nil
}

type fakeRoster struct {
	byTopic       map[string][]models.TopicStudent
	studentTopics map[string][]string
	category      string
	err           error
	categoryErr   error
}

func (f *fakeRoster) ListByTopic(_ context.Context, topicID string) ([]models.TopicStudent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byTopic[topicID], nil
}

func (f *fakeRoster) StudentTopics(_ context.Context, studentID, _ string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.studentTopics[studentID], nil
}

func (f *fakeRoster) Category(context.Context, []string, string, string) (string, error) {
	if f.categoryErr != nil {
		return "", f.categoryErr
	}
	return f.category, nil
}

type fakeStudents struct {
	students []models.Student
	total    int
	filter   models.StudentFilter
}

func (f *fakeStudents) List(_ context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	f.filter = filter
	return f.students, f.total, nil
}

func (f *fakeStudents) Find(_ context.Context, key string) (*models.Student, error) {
	for _, s := range f.students {
		if s.ID == key || s.Name == key {
			found := s
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeClasses struct {
	byTopic map[string][]models.ClassRecord
	fail    map[string]bool
}

func (f *fakeClasses) ListByTopicInRange(_ context.Context, topicID string, start, end time.Time) ([]models.ClassRecord, error) {
	if f.fail[topicID] {
		return nil, errors.New("mongo: server selection timeout")
	}
	out := make([]models.ClassRecord, 0)
	for _, class := range f.byTopic[topicID] {
		if class.CreationDate.Before(start) || class.CreationDate.After(end) {
			continue
		}
		out = append(out, class)
	}
	return out, nil
}

func strPtr(s string) *string {
	return &s
}

func errorCode(err error) string {
	if err == nil {
		return ""
	}
	return appErrors.FromError(err).Code
}
