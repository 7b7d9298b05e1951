package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/fuelsync/internal/config"
	"github.com/mamadbah2/fuelsync/internal/domain/models"
)

// RecordStore is the read-only view of the fuel and flight collections.
type RecordStore interface {
	ListFuelRecords(ctx context.Context) ([]models.FuelRecord, error)
	ListFlightRecords(ctx context.Context) ([]models.FlightRecord, error)
}

// RunStore persists the pipeline run history.
type RunStore interface {
	InsertRun(ctx context.Context, run models.RunRecord) error
	UpdateRun(ctx context.Context, run models.RunRecord) error
	ListRuns(ctx context.Context, filter models.RunFilter) ([]models.RunRecord, error)
	LastRun(ctx context.Context) (*models.RunRecord, error)
}

// MongoDBRepository implements RecordStore and RunStore on MongoDB.
type MongoDBRepository struct {
	client  *mongo.Client
	fuel    *mongo.Collection
	flights *mongo.Collection
	runs    *mongo.Collection
	logger  *zap.Logger
}

// NewMongoDBRepository connects to MongoDB and verifies the connection.
func NewMongoDBRepository(ctx context.Context, cfg config.MongoDBConfig, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(cfg.URI)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(cfg.DBName)
	return &MongoDBRepository{
		client:  client,
		fuel:    db.Collection(cfg.FuelCollection),
		flights: db.Collection(cfg.FlightCollection),
		runs:    db.Collection(cfg.RunCollection),
		logger:  logger,
	}, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
