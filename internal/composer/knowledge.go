package composer

import (
	"context"

	"github.com/google/uuid"
)

// KnowledgeEntry is the composer-facing shape of a server-side knowledge
// base offered for selection.
type KnowledgeEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SelectKnowledgeReference inserts a resolved knowledge-reference item for
// the entry unless one with the same server identity is already selected.
// The dedup is silent: selecting the same entry twice is not an error and
// produces no feedback. Returns whether an item was inserted.
func (s *SelectionStore) SelectKnowledgeReference(entry KnowledgeEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.Kind == KindKnowledgeReference && it.ServerID == entry.ID {
			return false
		}
	}
	s.items = append(s.items, AttachmentItem{
		ItemID:      uuid.NewString(),
		Kind:        KindKnowledgeReference,
		ServerID:    entry.ID,
		DisplayName: entry.Name,
	})
	s.metrics.ItemsSelected(context.Background(), 1)
	s.publishLocked()
	return true
}
