package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/grading-admin-api/internal/models"
)

const (
	defaultGradingBatchSize     = 5
	defaultPerformanceBatchSize = 10
)

// boundedFetch runs fetch for every item with at most limit calls in flight.
// A failing item is reported to failed and leaves the zero value in its slot;
// only cancellation of ctx aborts the whole batch. Results keep input order.
func boundedFetch[T, R any](ctx context.Context, limit int, items []T, fetch func(context.Context, T) (R, error), failed func(T, error)) ([]R, int, error) {
	if limit <= 0 {
		limit = 1
	}
	results := make([]R, len(items))
	var (
		mu       sync.Mutex
		failures int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			value, err := fetch(gctx, item)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				mu.Lock()
				failures++
				mu.Unlock()
				if failed != nil {
					failed(item, err)
				}
				return nil
			}
			results[i] = value
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, failures, err
	}
	return results, failures, nil
}

type submissionLister interface {
	ListByAssignment(ctx context.Context, topicID, title string) (models.SubmissionMap, error)
}

// SubmissionLoader fetches the submission maps of many assignments in batches.
type SubmissionLoader struct {
	subs      submissionLister
	batchSize int
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewSubmissionLoader constructs a loader; batchSize <= 0 uses the grading default.
func NewSubmissionLoader(subs submissionLister, batchSize int, metrics *MetricsService, logger *zap.Logger) *SubmissionLoader {
	if batchSize <= 0 {
		batchSize = defaultGradingBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionLoader{subs: subs, batchSize: batchSize, metrics: metrics, logger: logger}
}

// Load pairs every assignment with its submissions. Assignments whose read
// failed are returned with an empty map and counted in the second result.
func (l *SubmissionLoader) Load(ctx context.Context, assignments []models.Assignment) ([]models.AssignmentSubmissions, int, error) {
	start := time.Now()
	items, failed, err := boundedFetch(ctx, l.batchSize, assignments,
		func(ctx context.Context, a models.Assignment) (models.AssignmentSubmissions, error) {
			subs, err := l.subs.ListByAssignment(ctx, a.TopicID, a.Title)
			if err != nil {
				return models.AssignmentSubmissions{}, err
			}
			return models.AssignmentSubmissions{Assignment: a, Submissions: subs}, nil
		},
		func(a models.Assignment, err error) {
			l.metrics.RecordFetchFailure("submissions")
			l.logger.Warn("submission fetch failed, treating as empty",
				zap.String("topic_id", a.TopicID),
				zap.String("assignment", a.Title),
				zap.Error(err))
		})
	l.metrics.ObserveStoreQuery("submissions_batch", time.Since(start))
	if err != nil {
		return nil, failed, err
	}
	for i := range items {
		if items[i].Submissions == nil {
			items[i] = models.AssignmentSubmissions{Assignment: assignments[i], Submissions: models.SubmissionMap{}}
		}
	}
	return items, failed, nil
}

type weeklyTestReader interface {
	ListWeeklyTests(ctx context.Context) ([]models.Assignment, error)
}

// weeklyTestSnapshot is every weekly test joined with its submissions.
type weeklyTestSnapshot struct {
	Topics map[string]models.Topic
	Items  []models.AssignmentSubmissions
	Failed int
}

// loadWeeklyTests reads topics, weekly tests and their submission maps. Only
// the assignment list is required; a failed topic read leaves names unresolved.
func loadWeeklyTests(ctx context.Context, topics topicReader, assignments weeklyTestReader, loader *SubmissionLoader, logger *zap.Logger) (weeklyTestSnapshot, error) {
	snapshot := weeklyTestSnapshot{Topics: map[string]models.Topic{}}
	topicMap, err := topics.ListTopics(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return snapshot, ctx.Err()
		}
		loader.metrics.RecordFetchFailure("topics")
		logger.Warn("topic fetch failed, names fall back to ids", zap.Error(err))
		snapshot.Failed++
	} else if topicMap != nil {
		snapshot.Topics = topicMap
	}

	tests, err := assignments.ListWeeklyTests(ctx)
	if err != nil {
		return snapshot, err
	}
	items, failed, err := loader.Load(ctx, tests)
	if err != nil {
		return snapshot, err
	}
	snapshot.Items = items
	snapshot.Failed += failed
	return snapshot, nil
}
