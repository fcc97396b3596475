package store

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/matzehuels/timeline/pkg/core/layout"
	"github.com/matzehuels/timeline/pkg/errors"
	"github.com/matzehuels/timeline/pkg/pipeline"
	"github.com/matzehuels/timeline/pkg/timeline"
)

func testDoc(t *testing.T) *timeline.Document {
	t.Helper()
	doc, err := timeline.Parse([]byte(`
id: release
title: Release week
config:
  scale: hour
  start: 2024-03-05 08:00
  end: 2024-03-05 14:00
categories:
  - id: ops
    label: Operations
events:
  - id: deploy
    title: Deploy
    category: ops
    start: 2024-03-05 10:00
    end: 2024-03-05 11:30
  - id: verify
    category: ops
    start: 2024-03-05 11:00
    end: 2024-03-05 12:00
`), timeline.FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func placement(id string, x float64) layout.Placement {
	start := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	return layout.Placement{
		ID:       id,
		Category: "ops",
		Row:      1,
		Kind:     layout.TypeBar,
		Start:    start,
		End:      start.Add(90 * time.Minute),
		Geometry: layout.Geometry{X: x, Y: 2, Width: 112.5, Height: 36},
		Divisor:  1,
	}
}

// testStore runs the behavior every Store implementation shares.
func testStore(t *testing.T, s Store) {
	ctx := context.Background()

	if _, err := s.Get(ctx, "release"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Get(missing) error = %v, want NOT_FOUND", err)
	}

	doc := testDoc(t)
	if err := s.Put(ctx, doc); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	got, err := s.Get(ctx, "release")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Title != doc.Title || got.Config.Scale != "hour" || got.Config.Start != doc.Config.Start {
		t.Errorf("Get() = %q %+v", got.Title, got.Config)
	}
	if diff := cmp.Diff(doc.Events, got.Events); diff != "" {
		t.Errorf("stored events mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(doc.Categories, got.Categories); diff != "" {
		t.Errorf("stored categories mismatch (-want +got):\n%s", diff)
	}

	t.Run("Rejects", func(t *testing.T) {
		dup := testDoc(t)
		dup.Events[1].ID = "deploy"
		if err := s.Put(ctx, dup); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("Put(duplicate event) error = %v, want INVALID_INPUT", err)
		}
		bad := testDoc(t)
		bad.ID = "../etc"
		if err := s.Put(ctx, bad); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("Put(bad id) error = %v, want INVALID_INPUT", err)
		}
		if err := s.SaveGeometry(ctx, "nope", nil); !errors.Is(err, errors.ErrCodeNotFound) {
			t.Errorf("SaveGeometry(missing) error = %v, want NOT_FOUND", err)
		}
	})

	t.Run("Geometry", func(t *testing.T) {
		placements := []layout.Placement{placement("verify", 150), placement("ghost", 10), placement("deploy", 75)}
		if err := s.SaveGeometry(ctx, "release", placements); err != nil {
			t.Fatalf("SaveGeometry() error: %v", err)
		}
		geo, err := s.Geometry(ctx, "release")
		if err != nil {
			t.Fatalf("Geometry() error: %v", err)
		}
		want := []layout.Placement{placement("deploy", 75), placement("verify", 150)}
		if diff := cmp.Diff(want, geo); diff != "" {
			t.Errorf("Geometry() mismatch (-want +got):\n%s", diff)
		}

		events, err := s.Events(ctx, "release")
		if err != nil {
			t.Fatalf("Events() error: %v", err)
		}
		if diff := cmp.Diff(doc.Events, events); diff != "" {
			t.Errorf("geometry write changed event identity (-want +got):\n%s", diff)
		}
	})

	t.Run("Replace", func(t *testing.T) {
		next := testDoc(t)
		next.Events = next.Events[:1]
		if err := s.Put(ctx, next); err != nil {
			t.Fatalf("Put() error: %v", err)
		}
		events, _ := s.Events(ctx, "release")
		if len(events) != 1 || events[0].ID != "deploy" {
			t.Errorf("Events() after replace = %+v", events)
		}
		if geo, _ := s.Geometry(ctx, "release"); len(geo) != 0 {
			t.Errorf("Geometry() after replace = %+v, want none", geo)
		}
	})

	if err := s.Delete(ctx, "release"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := s.Events(ctx, "release"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Events(deleted) error = %v, want NOT_FOUND", err)
	}
	if err := s.Delete(ctx, "release"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Delete(deleted) error = %v, want NOT_FOUND", err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close(context.Background())
	testStore(t, s)
}

func TestMemoryStore_IsolatesCallers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	doc := testDoc(t)
	if err := s.Put(ctx, doc); err != nil {
		t.Fatal(err)
	}
	doc.Events[0].Title = "changed"
	got, _ := s.Get(ctx, "release")
	got.Events[1].Title = "also changed"
	again, _ := s.Get(ctx, "release")
	if again.Events[0].Title != "Deploy" || again.Events[1].Title != "" {
		t.Errorf("stored events leaked caller changes: %+v", again.Events)
	}
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("TIMELINE_MONGO_URI")
	if uri == "" {
		t.Skip("TIMELINE_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := "timeline_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	s, err := NewMongoStore(ctx, uri, db)
	if err != nil {
		t.Fatalf("NewMongoStore() error: %v", err)
	}
	defer func() {
		_ = s.client.Database(db).Drop(ctx)
		_ = s.Close(ctx)
	}()
	testStore(t, s)
}

func TestRelayout(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.Put(ctx, testDoc(t)); err != nil {
		t.Fatal(err)
	}
	r := pipeline.NewRunner(nil, nil, log.New(io.Discard))

	res, err := Relayout(ctx, s, r, "release")
	if err != nil {
		t.Fatalf("Relayout() error: %v", err)
	}
	if len(res.Grid) != 7 || len(res.Placements) != 2 {
		t.Errorf("Relayout() = %d grids, %d placements", len(res.Grid), len(res.Placements))
	}
	geo, err := s.Geometry(ctx, "release")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(res.Placements, geo); diff != "" {
		t.Errorf("saved geometry mismatch (-want +got):\n%s", diff)
	}

	if _, err := Relayout(ctx, s, r, "missing"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Relayout(missing) error = %v, want NOT_FOUND", err)
	}
}
