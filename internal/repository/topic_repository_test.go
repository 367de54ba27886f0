package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicRepositoryListTopics(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTopicRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "course_id", "course_name"}).
		AddRow("t1", "Algebra", "10", "Mathematics").
		AddRow("t2", nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, course_id, course_name FROM topics")).WillReturnRows(rows)

	topics, err := repo.ListTopics(context.Background())
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, "Algebra", topics["t1"].DisplayName())
	assert.Equal(t, "10", topics["t1"].CourseID())
	assert.Equal(t, "Mathematics", topics["t1"].Course.Name)
	assert.Nil(t, topics["t2"].Name)
	assert.Equal(t, "unknown", topics["t2"].CourseID())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTopicRepositoryListCourses(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTopicRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title FROM courses ORDER BY title ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow("20", "Biology").AddRow("10", "Mathematics"))

	courses, err := repo.ListCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "Biology", courses[0].Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTopicRepositoryGetTopic(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTopicRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM topics WHERE id = $1")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "course_id", "course_name"}).AddRow("t1", "Algebra", "10", "Mathematics"))

	topic, err := repo.GetTopic(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "Algebra", topic.DisplayName())
	require.NoError(t, mock.ExpectationsWereMet())
}
