package mongodb

import (
	"context"
	"fmt"

	"github.com/ArowuTest/raffle-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/exp/slog"
)

// EnsureIndexes creates the indexes the repositories rely on. It is safe to run on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		raffleNumbersCollection: {
			{
				Keys:    bson.D{{Key: "raffleId", Value: 1}, {Key: "number", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("raffle_number_unique"),
			},
			{Keys: bson.D{{Key: "userId", Value: 1}}},
			{Keys: bson.D{{Key: "voucherId", Value: 1}}},
		},
		couponsCollection: {
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		vouchersCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "submittedAt", Value: -1}}},
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
		rafflesCollection: {
			{
				Keys: bson.D{{Key: "status", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": models.RaffleStatusOpen}).
					SetName("single_open_raffle"),
			},
		},
		systemConfigCollection: {
			{Keys: bson.D{{Key: "key", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		winnersCollection: {
			{Keys: bson.D{{Key: "raffleId", Value: 1}}},
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
	}

	for coll, specs := range indexes {
		names, err := db.Collection(coll).Indexes().CreateMany(ctx, specs)
		if err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
		slog.Debug("Indexes ensured", "collection", coll, "indexes", names)
	}
	return nil
}
