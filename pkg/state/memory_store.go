package state

import (
	"context"
	"slices"
	"sync"

	"github.com/goliatone/go-appboot/layering"
)

// DefaultHistory is the number of revisions MemoryStore keeps per Ref.
const DefaultHistory = 8

// MemoryStore keeps snapshots in process, indexed by Ref.Identifier, along
// with a bounded list of earlier revisions. Snapshots are copied on the way
// in and out.
type MemoryStore struct {
	mu      sync.RWMutex
	limit   int
	history map[string][]revision
}

type revision struct {
	snapshot layering.Map
	meta     Meta
}

func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithHistory(DefaultHistory)
}

// NewMemoryStoreWithHistory retains up to limit revisions per Ref. A limit
// below one keeps only the latest.
func NewMemoryStoreWithHistory(limit int) *MemoryStore {
	return &MemoryStore{limit: max(limit, 1), history: map[string][]revision{}}
}

// Load returns the latest revision for ref.
func (s *MemoryStore) Load(_ context.Context, ref Ref) (layering.Map, Meta, bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return nil, Meta{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	revisions := s.history[key]
	if len(revisions) == 0 {
		return nil, Meta{}, false, nil
	}
	latest := revisions[len(revisions)-1]
	return latest.snapshot.Clone(), latest.meta.clone(), true, nil
}

// Save appends a revision, dropping the oldest once the limit is reached.
func (s *MemoryStore) Save(_ context.Context, ref Ref, snapshot layering.Map, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	revisions := append(s.history[key], revision{snapshot: snapshot.Clone(), meta: meta.clone()})
	if over := len(revisions) - s.limit; over > 0 {
		revisions = slices.Delete(revisions, 0, over)
	}
	s.history[key] = revisions
	return meta.clone(), nil
}

// History returns the metadata of the retained revisions for ref, oldest
// first.
func (s *MemoryStore) History(ref Ref) ([]Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Meta, 0, len(s.history[key]))
	for _, rev := range s.history[key] {
		out = append(out, rev.meta.clone())
	}
	return out, nil
}

// Refs lists the identifiers holding at least one revision, sorted.
func (s *MemoryStore) Refs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.history))
	for key := range s.history {
		out = append(out, key)
	}
	slices.Sort(out)
	return out
}
