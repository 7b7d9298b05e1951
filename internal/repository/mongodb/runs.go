package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/fuelsync/internal/domain/models"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 100
)

// ErrRunNotFound is returned when an update targets an unknown run.
var ErrRunNotFound = errors.New("run not found")

// InsertRun stores a freshly started run.
func (r *MongoDBRepository) InsertRun(ctx context.Context, run models.RunRecord) error {
	if _, err := r.runs.InsertOne(ctx, run); err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}
	return nil
}

// UpdateRun replaces the stored run with its latest state.
func (r *MongoDBRepository) UpdateRun(ctx context.Context, run models.RunRecord) error {
	res, err := r.runs.ReplaceOne(ctx, bson.M{"_id": run.ID}, run)
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", run.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update run %s: %w", run.ID, ErrRunNotFound)
	}
	return nil
}

// ListRuns returns runs newest first.
func (r *MongoDBRepository) ListRuns(ctx context.Context, filter models.RunFilter) ([]models.RunRecord, error) {
	query, opts := runQuery(filter)

	cur, err := r.runs.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	runs := make([]models.RunRecord, 0)
	if err := cur.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("decode runs: %w", err)
	}
	return runs, nil
}

// LastRun returns the most recent run, or nil when none was recorded yet.
func (r *MongoDBRepository) LastRun(ctx context.Context) (*models.RunRecord, error) {
	var run models.RunRecord
	err := r.runs.FindOne(ctx, bson.D{}, options.FindOne().SetSort(bson.D{{Key: "start_time", Value: -1}})).Decode(&run)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find last run: %w", err)
	}
	return &run, nil
}

func runQuery(filter models.RunFilter) (bson.D, *options.FindOptions) {
	query := bson.D{}
	if filter.Status != "" {
		query = append(query, bson.E{Key: "status", Value: filter.Status})
	}

	window := bson.D{}
	if filter.From != nil {
		window = append(window, bson.E{Key: "$gte", Value: filter.From.UTC()})
	}
	if filter.To != nil {
		window = append(window, bson.E{Key: "$lte", Value: filter.To.UTC()})
	}
	if len(window) > 0 {
		query = append(query, bson.E{Key: "start_time", Value: window})
	}

	return query, options.Find().
		SetSort(bson.D{{Key: "start_time", Value: -1}}).
		SetLimit(int64(ClampLimit(filter.Limit)))
}

// ClampLimit bounds a requested page size to 1..100, defaulting to 20.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultRunLimit
	case limit > maxRunLimit:
		return maxRunLimit
	default:
		return limit
	}
}
