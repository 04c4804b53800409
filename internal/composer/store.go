package composer

import (
	"context"
	"sync"
)

// snapshotBuffer is the per-subscriber channel depth. A slow consumer loses
// intermediate snapshots, never the latest one.
const snapshotBuffer = 16

// SelectionStore is the single shared mutable resource of the composer: an
// ordered collection of AttachmentItems. Order is user-action order; upload
// completion order only affects when an item's status flips, never its
// position. Every mutation republishes a full copy of the collection to all
// subscribers, so observers never see torn state.
type SelectionStore struct {
	mu      sync.Mutex
	items   []AttachmentItem
	subs    map[int]chan []AttachmentItem
	next    int
	metrics Instrumentation
}

// StoreOption configures a SelectionStore at construction time.
type StoreOption func(*SelectionStore)

// WithInstrumentation keeps the selected-items gauge in step with every
// insertion and removal.
func WithInstrumentation(metrics Instrumentation) StoreOption {
	return func(s *SelectionStore) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

func NewSelectionStore(opts ...StoreOption) *SelectionStore {
	s := &SelectionStore{
		subs:    make(map[int]chan []AttachmentItem),
		metrics: NopInstrumentation{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insert appends the item. Dedup policy for knowledge references lives in the
// callers; the store only guarantees order and identity lookup.
func (s *SelectionStore) Insert(item AttachmentItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, item)
	s.metrics.ItemsSelected(context.Background(), 1)
	s.publishLocked()
}

// RemoveByItemID filters the item out, preserving the order of survivors.
// Removing an absent item is a no-op.
func (s *SelectionStore) RemoveByItemID(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	removed := false
	for _, it := range s.items {
		if it.ItemID == itemID {
			removed = true
			continue
		}
		kept = append(kept, it)
	}
	s.items = kept
	if removed {
		s.metrics.ItemsSelected(context.Background(), -1)
		s.publishLocked()
	}
}

// UpdateInPlace applies mutator to the item matching itemID, keeping its
// position. If the item was removed while its upload was in flight the
// update is silently discarded; callers must treat that as success.
func (s *SelectionStore) UpdateInPlace(itemID string, mutator func(*AttachmentItem)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ItemID == itemID {
			mutator(&s.items[i])
			s.publishLocked()
			return
		}
	}
}

// Contains reports whether any item already carries the given server-assigned
// identity. The collection is small and UI-bound, so a linear scan is fine.
func (s *SelectionStore) Contains(serverID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.ServerID == serverID {
			return true
		}
	}
	return false
}

// Items returns a copy of the current ordered collection.
func (s *SelectionStore) Items() []AttachmentItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Len reports the current item count.
func (s *SelectionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Subscribe registers an observer. The returned channel receives a full
// snapshot after every mutation; the cancel func closes it and drops the
// registration. Snapshots are delivered in mutation order per subscriber.
func (s *SelectionStore) Subscribe() (<-chan []AttachmentItem, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	ch := make(chan []AttachmentItem, snapshotBuffer)
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
}

func (s *SelectionStore) snapshotLocked() []AttachmentItem {
	out := make([]AttachmentItem, len(s.items))
	copy(out, s.items)
	return out
}

// publishLocked pushes the current snapshot to every subscriber without
// blocking a mutation on a slow consumer: when a buffer is full the oldest
// pending snapshot is dropped in favor of the newer one.
func (s *SelectionStore) publishLocked() {
	if len(s.subs) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
