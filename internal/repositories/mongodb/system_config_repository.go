package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const systemConfigCollection = "system_config"

var _ repositories.SystemConfigRepository = (*SystemConfigRepository)(nil)

// SystemConfigRepository implements the repositories.SystemConfigRepository interface
type SystemConfigRepository struct {
	collection *mongo.Collection
}

// NewSystemConfigRepository creates a new SystemConfigRepository
func NewSystemConfigRepository(db *mongo.Database) *SystemConfigRepository {
	return &SystemConfigRepository{
		collection: db.Collection(systemConfigCollection),
	}
}

// FindByKey finds the settings document stored under key
func (r *SystemConfigRepository) FindByKey(ctx context.Context, key string) (*models.SystemConfig, error) {
	var config models.SystemConfig
	err := r.collection.FindOne(ctx, bson.M{"key": key}).Decode(&config)
	if err != nil {
		return nil, translate(err)
	}
	return &config, nil
}

// Upsert updates the settings document by key, or creates it if it doesn't exist.
func (r *SystemConfigRepository) Upsert(ctx context.Context, config *models.SystemConfig) error {
	now := time.Now()
	config.UpdatedAt = now
	filter := bson.M{"key": config.Key}
	update := bson.M{
		"$set": bson.M{
			"minDepositAmount":    config.MinDepositAmount,
			"blockValue":          config.BlockValue,
			"numbersPerBlock":     config.NumbersPerBlock,
			"aiValidationEnabled": config.AIValidationEnabled,
			"updatedBy":           config.UpdatedBy,
			"updatedAt":           now,
		},
		"$setOnInsert": bson.M{
			"key":       config.Key,
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(config); err != nil {
		return fmt.Errorf("failed to upsert system config %s: %w", config.Key, err)
	}
	return nil
}
