package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestClassRangeFilter(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 7, 23, 59, 59, 0, time.UTC)

	filter := classRangeFilter("t1", start, end)

	assert.Equal(t, "t1", filter["topic"])
	assert.Equal(t, bson.M{"$gte": start, "$lte": end}, filter["creationDate"])
}

func TestClassRepositoryListByTopicInRange(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes class records", func(mt *mtest.T) {
		created := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
		first := mtest.CreateCursorResponse(1, "tutoring.classes", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "c1"},
			{Key: "topic", Value: "t1"},
			{Key: "creationDate", Value: created},
			{Key: "teacherName", Value: "Ms. Khan"},
			{Key: "aqcount", Value: 10},
			{Key: "cqcount", Value: 5.5},
			{Key: "students", Value: bson.D{
				{Key: "Gold", Value: bson.A{
					bson.D{{Key: "name", Value: "Ali"}, {Key: "aq", Value: 8}, {Key: "cq", Value: 4.5}, {Key: "present", Value: false}},
				}},
			}},
		})
		last := mtest.CreateCursorResponse(0, "tutoring.classes", mtest.NextBatch)
		mt.AddMockResponses(first, last)

		repo := NewClassRepository(mt.Coll)
		classes, err := repo.ListByTopicInRange(context.Background(), "t1", created.Add(-time.Hour), created.Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, classes, 1)

		class := classes[0]
		assert.Equal(t, "c1", class.ID)
		assert.True(t, created.Equal(class.CreationDate))
		assert.Equal(t, 10.0, class.AQCount)
		assert.Equal(t, 15.5, class.MaxMarks())
		attendee, ok := class.FindAttendee("", "Ali")
		require.True(t, ok)
		assert.Equal(t, 8.0, attendee.AQ)
		assert.False(t, attendee.Attended())
	})

	mt.Run("propagates command errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad query"}))

		repo := NewClassRepository(mt.Coll)
		_, err := repo.ListByTopicInRange(context.Background(), "t1", time.Now(), time.Now())
		require.Error(t, err)
	})
}
