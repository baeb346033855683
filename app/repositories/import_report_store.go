package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/wellness360/app/models"
)

// ImportReportStore archives import summaries.
type ImportReportStore interface {
	Save(ctx context.Context, r models.ImportReport) error
	Recent(ctx context.Context, limit int) ([]models.ImportReport, error)
}

const importReportCollection = "import_reports"

// MongoImportReportStore keeps reports in a MongoDB collection.
type MongoImportReportStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoImportReportStore connects to uri and pings the server.
func NewMongoImportReportStore(ctx context.Context, uri, database string) (*MongoImportReportStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}
	coll := client.Database(database).Collection(importReportCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "created_at", Value: -1}}})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: index: %w", err)
	}
	return &MongoImportReportStore{client: client, coll: coll}, nil
}

func (s *MongoImportReportStore) Save(ctx context.Context, r models.ImportReport) error {
	if _, err := s.coll.InsertOne(ctx, r); err != nil {
		return fmt.Errorf("mongo: insert report: %w", err)
	}
	return nil
}

func (s *MongoImportReportStore) Recent(ctx context.Context, limit int) ([]models.ImportReport, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit))
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: find reports: %w", err)
	}
	out := []models.ImportReport{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("mongo: decode reports: %w", err)
	}
	return out, nil
}

// Close disconnects the client.
func (s *MongoImportReportStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// MemoryImportReportStore keeps the most recent reports in process.
type MemoryImportReportStore struct {
	mu      sync.Mutex
	reports []models.ImportReport
	max     int
}

func NewMemoryImportReportStore(max int) *MemoryImportReportStore {
	if max <= 0 {
		max = 100
	}
	return &MemoryImportReportStore{max: max}
}

func (s *MemoryImportReportStore) Save(_ context.Context, r models.ImportReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	if len(s.reports) > s.max {
		s.reports = s.reports[len(s.reports)-s.max:]
	}
	return nil
}

func (s *MemoryImportReportStore) Recent(_ context.Context, limit int) ([]models.ImportReport, error) {
	s.mu.Lock()
	out := append([]models.ImportReport(nil), s.reports...)
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
