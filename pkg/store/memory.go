package store

import (
	"context"
	"sync"

	"github.com/matzehuels/timeline/pkg/core/layout"
	"github.com/matzehuels/timeline/pkg/timeline"
)

// MemoryStore keeps timelines in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	timelines map[string]*memTimeline
}

type memTimeline struct {
	doc      *timeline.Document
	geometry map[string]layout.Placement
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{timelines: make(map[string]*memTimeline)}
}

func (s *MemoryStore) Put(_ context.Context, doc *timeline.Document) error {
	if err := checkPut(doc); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timelines[doc.ID] = &memTimeline{doc: doc.Clone(), geometry: make(map[string]layout.Placement)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*timeline.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.timelines[id]
	if !ok {
		return nil, notFound(id)
	}
	return t.doc.Clone(), nil
}

func (s *MemoryStore) Events(ctx context.Context, timelineID string) ([]timeline.Event, error) {
	doc, err := s.Get(ctx, timelineID)
	if err != nil {
		return nil, err
	}
	return doc.Events, nil
}

func (s *MemoryStore) SaveGeometry(_ context.Context, timelineID string, placements []layout.Placement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timelines[timelineID]
	if !ok {
		return notFound(timelineID)
	}
	known := make(map[string]bool, len(t.doc.Events))
	for _, e := range t.doc.Events {
		known[e.ID] = true
	}
	for _, p := range placements {
		if known[p.ID] {
			t.geometry[p.ID] = p
		}
	}
	return nil
}

func (s *MemoryStore) Geometry(_ context.Context, timelineID string) ([]layout.Placement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.timelines[timelineID]
	if !ok {
		return nil, notFound(timelineID)
	}
	var out []layout.Placement
	for _, e := range t.doc.Events {
		if p, ok := t.geometry[e.ID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.timelines[id]; !ok {
		return notFound(id)
	}
	delete(s.timelines, id)
	return nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
