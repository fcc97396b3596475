// Package store keeps timeline documents and the geometry computed for
// their events.
//
// A store owns event identity: id, category and the raw start and end.
// Layout passes only ever write geometry back through
// [Store.SaveGeometry]; they never touch identity.
//
// [MemoryStore] is the default. [MongoStore] persists to MongoDB with one
// collection for timelines and one for events.
package store

import (
	"context"

	"github.com/matzehuels/timeline/pkg/core/layout"
	"github.com/matzehuels/timeline/pkg/errors"
	"github.com/matzehuels/timeline/pkg/timeline"
)

// Store persists timelines. Implementations are safe for concurrent use.
type Store interface {
	// Put creates or replaces a timeline. The document must have an id.
	// Replacing a timeline discards its stored geometry.
	Put(ctx context.Context, doc *timeline.Document) error

	// Get returns a stored timeline with its events.
	Get(ctx context.Context, id string) (*timeline.Document, error)

	// Events returns the events of a timeline in stored order.
	Events(ctx context.Context, timelineID string) ([]timeline.Event, error)

	// SaveGeometry records the placements of a layout pass. Placements of
	// unknown events are ignored.
	SaveGeometry(ctx context.Context, timelineID string, placements []layout.Placement) error

	// Geometry returns the last recorded placements in event order.
	Geometry(ctx context.Context, timelineID string) ([]layout.Placement, error)

	// Delete removes a timeline and its events.
	Delete(ctx context.Context, id string) error

	Close(ctx context.Context) error
}

// Layouter lays out documents. pipeline.Runner implements it.
type Layouter interface {
	Layout(ctx context.Context, doc *timeline.Document) (layout.Result, error)
}

// Relayout lays out a stored timeline and saves the geometry back.
func Relayout(ctx context.Context, s Store, l Layouter, id string) (layout.Result, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return layout.Result{}, err
	}
	res, err := l.Layout(ctx, doc)
	if err != nil {
		return layout.Result{}, err
	}
	if err := s.SaveGeometry(ctx, id, res.Placements); err != nil {
		return layout.Result{}, err
	}
	return res, nil
}

func checkPut(doc *timeline.Document) error {
	if doc == nil {
		return errors.New(errors.ErrCodeInvalidInput, "nil document")
	}
	if err := errors.ValidateTimelineID(doc.ID); err != nil {
		return err
	}
	seen := make(map[string]bool, len(doc.Events))
	for _, e := range doc.Events {
		if e.ID == "" {
			return errors.New(errors.ErrCodeInvalidInput, "timeline %q has an event without id", doc.ID)
		}
		if seen[e.ID] {
			return errors.New(errors.ErrCodeInvalidInput, "timeline %q has duplicate event %q", doc.ID, e.ID)
		}
		seen[e.ID] = true
	}
	return nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "timeline %q not found", id)
}
