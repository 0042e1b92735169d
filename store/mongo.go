package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"newsletter-backend/models"
)

const (
	presetsCollection = "topic_presets"
	runsCollection    = "runs"
	draftsCollection  = "draft_sections"
)

// MongoStore persists to MongoDB.
type MongoStore struct {
	client  *mongo.Client
	presets *mongo.Collection
	runs    *mongo.Collection
	drafts  *mongo.Collection
	now     func() time.Time
}

// ConnectMongo connects, pings and ensures indexes. Any failure is
// reported as models.ErrPersistenceUnavailable.
func ConnectMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: mongo connect: %v", models.ErrPersistenceUnavailable, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: mongo ping: %v", models.ErrPersistenceUnavailable, err)
	}

	s := newMongoStore(client, database)
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: mongo indexes: %v", models.ErrPersistenceUnavailable, err)
	}
	return s, nil
}

func newMongoStore(client *mongo.Client, database string) *MongoStore {
	db := client.Database(database)
	return &MongoStore{
		client:  client,
		presets: db.Collection(presetsCollection),
		runs:    db.Collection(runsCollection),
		drafts:  db.Collection(draftsCollection),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	if _, err := s.presets.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique}); err != nil {
		return err
	}
	if _, err := s.runs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}); err != nil {
		return err
	}
	_, err := s.drafts.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "created_at", Value: -1}}})
	return err
}

func (s *MongoStore) Backend() string { return "mongo" }

func (s *MongoStore) ListTopicPresets(ctx context.Context) ([]models.TopicPreset, error) {
	cur, err := s.presets.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.TopicPreset{}
	for cur.Next(ctx) {
		var p models.TopicPreset
		if err := cur.Decode(&p); err != nil {
			continue
		}
		out = append(out, p)
	}
	return out, cur.Err()
}

func (s *MongoStore) UpsertTopicPreset(ctx context.Context, preset models.TopicPreset) (models.TopicPreset, error) {
	preset = preparePreset(preset, s.now())
	update := bson.M{
		"$set": bson.M{
			"name":       preset.Name,
			"topics":     preset.Topics,
			"rss_feeds":  preset.RSSFeeds,
			"updated_at": preset.UpdatedAt,
		},
		"$setOnInsert": bson.M{"created_at": preset.CreatedAt},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var saved models.TopicPreset
	if err := s.presets.FindOneAndUpdate(ctx, bson.M{"id": preset.ID}, update, opts).Decode(&saved); err != nil {
		return models.TopicPreset{}, err
	}
	return saved, nil
}

func (s *MongoStore) RecordRun(ctx context.Context, run models.Run) (models.Run, error) {
	run = prepareRun(run, s.now())
	set := bson.M{
		"status":     run.Status,
		"message":    run.Message,
		"updated_at": run.UpdatedAt,
	}
	if run.Topics != nil {
		set["topics"] = run.Topics
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"created_at": run.CreatedAt},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var saved models.Run
	if err := s.runs.FindOneAndUpdate(ctx, bson.M{"id": run.ID}, update, opts).Decode(&saved); err != nil {
		return models.Run{}, err
	}
	return saved, nil
}

func (s *MongoStore) UpdateRunStatus(ctx context.Context, runID string, status models.RunStatus, message string) error {
	_, err := s.runs.UpdateOne(ctx, bson.M{"id": runID}, bson.M{"$set": bson.M{
		"status":     status,
		"message":    message,
		"updated_at": s.now(),
	}})
	return err
}

func (s *MongoStore) LatestRuns(ctx context.Context, limit int) ([]models.Run, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.runs.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Run{}
	for cur.Next(ctx) {
		var r models.Run
		if err := cur.Decode(&r); err != nil {
			continue
		}
		out = append(out, r)
	}
	return out, cur.Err()
}

func (s *MongoStore) SaveDraft(ctx context.Context, draft models.Draft) error {
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = s.now()
	}
	_, err := s.drafts.InsertOne(ctx, draft)
	return err
}

func (s *MongoStore) LatestDraft(ctx context.Context) (*models.Draft, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var d models.Draft
	err := s.drafts.FindOne(ctx, bson.M{}, opts).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
