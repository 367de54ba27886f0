// Package aggregate holds the pure grading and performance computations.
// Nothing here performs I/O; callers pass already-fetched documents and the
// current time.
package aggregate

import (
	"sort"

	"github.com/noah-isme/grading-admin-api/internal/models"
)

// ResolveTopics lists the topics visible for the selected course, ordered by id.
// A nil course or the "all" sentinel returns every topic.
func ResolveTopics(topics map[string]models.Topic, selected *models.Course) []models.TopicEntry {
	entries := make([]models.TopicEntry, 0, len(topics))
	for id, topic := range topics {
		if topic.ID == "" {
			topic.ID = id
		}
		if !selected.IsAll() && (topic.Course == nil || topic.Course.ID != selected.ID) {
			continue
		}
		entries = append(entries, models.TopicEntry{ID: topic.ID, Title: topic.DisplayName()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

func topicName(topics map[string]models.Topic, id string) string {
	if topic, ok := topics[id]; ok {
		if topic.ID == "" {
			topic.ID = id
		}
		return topic.DisplayName()
	}
	return id
}
