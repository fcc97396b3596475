package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/timeline/pkg/core/layout"
	"github.com/matzehuels/timeline/pkg/errors"
	"github.com/matzehuels/timeline/pkg/timeline"
)

// Collection names.
const (
	TimelinesCollection = "timelines"
	EventsCollection    = "events"
)

// MongoStore persists timelines in MongoDB.
type MongoStore struct {
	client    *mongo.Client
	timelines *mongo.Collection
	events    *mongo.Collection
	now       func() time.Time
}

type timelineRecord struct {
	ID         string              `bson:"_id"`
	Title      string              `bson:"title,omitempty"`
	Config     timeline.Config     `bson:"config"`
	Categories []timeline.Category `bson:"categories,omitempty"`
	UpdatedAt  time.Time           `bson:"updated_at"`
}

type eventRecord struct {
	TimelineID string          `bson:"timeline_id"`
	Seq        int             `bson:"seq"`
	ID         string          `bson:"id"`
	Title      string          `bson:"title,omitempty"`
	Category   string          `bson:"category,omitempty"`
	Start      any             `bson:"start"`
	End        any             `bson:"end,omitempty"`
	Row        int             `bson:"row,omitempty"`
	Type       string          `bson:"type,omitempty"`
	Geometry   *geometryRecord `bson:"geometry,omitempty"`
}

type geometryRecord struct {
	Kind    string    `bson:"kind"`
	Row     int       `bson:"row"`
	Start   time.Time `bson:"start"`
	End     time.Time `bson:"end"`
	X       float64   `bson:"x"`
	Y       float64   `bson:"y"`
	Width   float64   `bson:"width"`
	Height  float64   `bson:"height"`
	Track   int       `bson:"track"`
	Slot    int       `bson:"slot"`
	Divisor int       `bson:"divisor"`
	Marker  float64   `bson:"marker,omitempty"`
	Clipped bool      `bson:"clipped,omitempty"`
	Dropped bool      `bson:"dropped,omitempty"`
	LaidOut time.Time `bson:"laid_out_at"`
}

// NewMongoStore connects to uri and uses database db. It creates the
// event index if it is missing.
func NewMongoStore(ctx context.Context, uri, db string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	s := NewMongoStoreFromClient(client, db)
	_, err = s.events.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "timeline_id", Value: 1}, {Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create event index: %w", err)
	}
	return s, nil
}

// NewMongoStoreFromClient wraps a connected client. The store takes
// ownership of it.
func NewMongoStoreFromClient(client *mongo.Client, db string) *MongoStore {
	d := client.Database(db)
	return &MongoStore{
		client:    client,
		timelines: d.Collection(TimelinesCollection),
		events:    d.Collection(EventsCollection),
		now:       time.Now,
	}
}

func (s *MongoStore) Put(ctx context.Context, doc *timeline.Document) error {
	if err := checkPut(doc); err != nil {
		return err
	}
	rec := timelineRecord{
		ID:         doc.ID,
		Title:      doc.Title,
		Config:     doc.Config,
		Categories: doc.Categories,
		UpdatedAt:  s.now().UTC(),
	}
	_, err := s.timelines.ReplaceOne(ctx, bson.M{"_id": doc.ID}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("put timeline %s: %w", doc.ID, err)
	}

	ids := make([]string, len(doc.Events))
	models := make([]mongo.WriteModel, len(doc.Events))
	for i, e := range doc.Events {
		ids[i] = e.ID
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"timeline_id": doc.ID, "id": e.ID}).
			SetReplacement(eventRecord{
				TimelineID: doc.ID,
				Seq:        i,
				ID:         e.ID,
				Title:      e.Title,
				Category:   e.Category,
				Start:      e.Start,
				End:        e.End,
				Row:        e.Row,
				Type:       e.Type,
			}).
			SetUpsert(true)
	}
	if len(models) > 0 {
		if _, err := s.events.BulkWrite(ctx, models); err != nil {
			return fmt.Errorf("put events of %s: %w", doc.ID, err)
		}
	}
	_, err = s.events.DeleteMany(ctx, bson.M{"timeline_id": doc.ID, "id": bson.M{"$nin": ids}})
	if err != nil {
		return fmt.Errorf("prune events of %s: %w", doc.ID, err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*timeline.Document, error) {
	var rec timelineRecord
	err := s.timelines.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get timeline %s: %w", id, err)
	}
	events, err := s.events0(ctx, id)
	if err != nil {
		return nil, err
	}
	doc := &timeline.Document{
		ID:         rec.ID,
		Title:      rec.Title,
		Config:     rec.Config,
		Categories: rec.Categories,
		Events:     make([]timeline.Event, len(events)),
	}
	for i, e := range events {
		doc.Events[i] = e.event()
	}
	return doc, nil
}

func (s *MongoStore) Events(ctx context.Context, timelineID string) ([]timeline.Event, error) {
	if err := s.exists(ctx, timelineID); err != nil {
		return nil, err
	}
	recs, err := s.events0(ctx, timelineID)
	if err != nil {
		return nil, err
	}
	out := make([]timeline.Event, len(recs))
	for i, r := range recs {
		out[i] = r.event()
	}
	return out, nil
}

// SaveGeometry sets the geometry field of each event. Identity fields are
// never written.
func (s *MongoStore) SaveGeometry(ctx context.Context, timelineID string, placements []layout.Placement) error {
	if err := s.exists(ctx, timelineID); err != nil {
		return err
	}
	if len(placements) == 0 {
		return nil
	}
	at := s.now().UTC()
	models := make([]mongo.WriteModel, len(placements))
	for i, p := range placements {
		g := geometryRecord{
			Kind:    string(p.Kind),
			Row:     p.Row,
			Start:   p.Start,
			End:     p.End,
			X:       p.Geometry.X,
			Y:       p.Geometry.Y,
			Width:   p.Geometry.Width,
			Height:  p.Geometry.Height,
			Track:   p.Track,
			Slot:    p.Slot,
			Divisor: p.Divisor,
			Marker:  p.Marker,
			Clipped: p.Clipped,
			Dropped: p.Dropped,
			LaidOut: at,
		}
		models[i] = mongo.NewUpdateOneModel().
			SetFilter(bson.M{"timeline_id": timelineID, "id": p.ID}).
			SetUpdate(bson.M{"$set": bson.M{"geometry": g}})
	}
	_, err := s.events.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("save geometry of %s: %w", timelineID, err)
	}
	return nil
}

func (s *MongoStore) Geometry(ctx context.Context, timelineID string) ([]layout.Placement, error) {
	if err := s.exists(ctx, timelineID); err != nil {
		return nil, err
	}
	recs, err := s.events0(ctx, timelineID)
	if err != nil {
		return nil, err
	}
	var out []layout.Placement
	for _, r := range recs {
		if g := r.Geometry; g != nil {
			out = append(out, layout.Placement{
				ID:       r.ID,
				Category: r.Category,
				Row:      g.Row,
				Kind:     layout.EventType(g.Kind),
				Start:    g.Start,
				End:      g.End,
				Geometry: layout.Geometry{X: g.X, Y: g.Y, Width: g.Width, Height: g.Height},
				Track:    g.Track,
				Slot:     g.Slot,
				Divisor:  g.Divisor,
				Marker:   g.Marker,
				Clipped:  g.Clipped,
				Dropped:  g.Dropped,
			})
		}
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.timelines.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete timeline %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	if _, err := s.events.DeleteMany(ctx, bson.M{"timeline_id": id}); err != nil {
		return fmt.Errorf("delete events of %s: %w", id, err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) exists(ctx context.Context, id string) error {
	n, err := s.timelines.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("find timeline %s: %w", id, err)
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

func (s *MongoStore) events0(ctx context.Context, id string) ([]eventRecord, error) {
	cur, err := s.events.Find(ctx, bson.M{"timeline_id": id}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find events of %s: %w", id, err)
	}
	var recs []eventRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode events of %s", id)
	}
	return recs, nil
}

func (r eventRecord) event() timeline.Event {
	return timeline.Event{
		ID:       r.ID,
		Title:    r.Title,
		Category: r.Category,
		Start:    raw(r.Start),
		End:      raw(r.End),
		Row:      r.Row,
		Type:     r.Type,
	}
}

// raw converts BSON-specific values back to types the calendar parser
// reads.
func raw(v any) any {
	switch x := v.(type) {
	case primitive.DateTime:
		return x.Time().UTC()
	case primitive.Decimal128:
		return x.String()
	}
	return v
}

var _ Store = (*MongoStore)(nil)
