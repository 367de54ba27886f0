package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/grading-admin-api/internal/models"
)

// ClassRepository queries live class records from the document store.
type ClassRepository struct {
	coll *mongo.Collection
}

// NewClassRepository constructs a class repository over the classes collection.
func NewClassRepository(coll *mongo.Collection) *ClassRepository {
	return &ClassRepository{coll: coll}
}

// classRangeFilter selects the classes of a topic created inside [start, end].
func classRangeFilter(topicID string, start, end time.Time) bson.M {
	return bson.M{
		"topic": topicID,
		"creationDate": bson.M{
			"$gte": start.UTC(),
			"$lte": end.UTC(),
		},
	}
}

// ListByTopicInRange returns a topic's classes in the window ordered by creation date.
func (r *ClassRepository) ListByTopicInRange(ctx context.Context, topicID string, start, end time.Time) ([]models.ClassRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "creationDate", Value: 1}})
	cursor, err := r.coll.Find(ctx, classRangeFilter(topicID, start, end), opts)
	if err != nil {
		return nil, fmt.Errorf("find classes: %w", err)
	}
	defer cursor.Close(ctx) //nolint:errcheck

	classes := make([]models.ClassRecord, 0)
	if err := cursor.All(ctx, &classes); err != nil {
		return nil, fmt.Errorf("decode classes: %w", err)
	}
	return classes, nil
}
