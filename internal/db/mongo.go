package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/toll-scenario/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	RunsCollection      = "runs"
	TrackJobsCollection = "track_jobs"
	OperatorsCollection = "operators"
)

var errNilCollection = errors.New("mongo collection is nil")

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is empty")
	}
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// MongoCollection archives simulation runs and asynchronous track jobs.
type MongoCollection struct {
	Runs      *mongo.Collection
	TrackJobs *mongo.Collection
}

// NewMongoCollection binds the archive to database.
func NewMongoCollection(database *mongo.Database) *MongoCollection {
	return &MongoCollection{
		Runs:      database.Collection(RunsCollection),
		TrackJobs: database.Collection(TrackJobsCollection),
	}
}

// EnsureIndexes creates the session lookup indexes.
func (c *MongoCollection) EnsureIndexes(ctx context.Context) error {
	if c.Runs == nil || c.TrackJobs == nil {
		return errNilCollection
	}
	idx := mongo.IndexModel{Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "created_at", Value: -1}}}
	if _, err := c.Runs.Indexes().CreateOne(ctx, idx); err != nil {
		return fmt.Errorf("create runs index: %w", err)
	}
	if _, err := c.TrackJobs.Indexes().CreateOne(ctx, idx); err != nil {
		return fmt.Errorf("create track jobs index: %w", err)
	}
	return nil
}

// InsertRun stores an applied simulation.
func (c *MongoCollection) InsertRun(ctx context.Context, run models.RunRecord) error {
	if c.Runs == nil {
		return errNilCollection
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	_, err := c.Runs.InsertOne(ctx, run)
	return err
}

// FindRuns returns the newest runs of a session. A limit of 0 returns all.
func (c *MongoCollection) FindRuns(ctx context.Context, sessionID string, limit int64) ([]models.RunRecord, error) {
	if c.Runs == nil {
		return nil, errNilCollection
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := c.Runs.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	runs := []models.RunRecord{}
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// InsertTrackJob stores the request id of an asynchronous upload.
func (c *MongoCollection) InsertTrackJob(ctx context.Context, job models.TrackJob) error {
	if c.TrackJobs == nil {
		return errNilCollection
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	_, err := c.TrackJobs.InsertOne(ctx, job)
	return err
}

// FindTrackJobs returns a session's track jobs, oldest first.
func (c *MongoCollection) FindTrackJobs(ctx context.Context, sessionID string) ([]models.TrackJob, error) {
	if c.TrackJobs == nil {
		return nil, errNilCollection
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := c.TrackJobs.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	jobs := []models.TrackJob{}
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}
