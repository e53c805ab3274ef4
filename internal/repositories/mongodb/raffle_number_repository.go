package mongodb

import (
	"context"
	"regexp"
	"time"

	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const raffleNumbersCollection = "raffle_numbers"

var _ repositories.RaffleNumberRepository = (*RaffleNumberRepository)(nil)

// RaffleNumberRepository implements the repositories.RaffleNumberRepository interface
type RaffleNumberRepository struct {
	collection *mongo.Collection
}

// NewRaffleNumberRepository creates a new RaffleNumberRepository
func NewRaffleNumberRepository(db *mongo.Database) *RaffleNumberRepository {
	return &RaffleNumberRepository{
		collection: db.Collection(raffleNumbersCollection),
	}
}

// InsertMany inserts allocated numbers. A unique index violation is reported as ErrDuplicate.
func (r *RaffleNumberRepository) InsertMany(ctx context.Context, numbers []*models.RaffleNumber) error {
	if len(numbers) == 0 {
		return nil
	}
	now := time.Now()
	docs := make([]interface{}, len(numbers))
	for i, n := range numbers {
		if n.ID.IsZero() {
			n.ID = primitive.NewObjectID()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		docs[i] = n
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return translate(err)
}

// FindByRaffleID returns every number allocated in a raffle
func (r *RaffleNumberRepository) FindByRaffleID(ctx context.Context, raffleID primitive.ObjectID) ([]models.RaffleNumber, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"raffleId": raffleID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var numbers []models.RaffleNumber
	if err := cursor.All(ctx, &numbers); err != nil {
		return nil, err
	}
	return numbers, nil
}

// NumberSet returns the numbers already taken in a raffle
func (r *RaffleNumberRepository) NumberSet(ctx context.Context, raffleID primitive.ObjectID) (map[string]struct{}, error) {
	opts := options.Find().SetProjection(bson.M{"number": 1, "_id": 0})
	cursor, err := r.collection.Find(ctx, bson.M{"raffleId": raffleID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	set := make(map[string]struct{})
	for cursor.Next(ctx) {
		var row struct {
			Number string `bson:"number"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		set[row.Number] = struct{}{}
	}
	return set, cursor.Err()
}

// FindByUserID returns all numbers held by a user across raffles
func (r *RaffleNumberRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.RaffleNumber, error) {
	opts := options.Find().SetSort(bson.D{{Key: "raffleId", Value: -1}, {Key: "number", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var numbers []*models.RaffleNumber
	if err := cursor.All(ctx, &numbers); err != nil {
		return nil, err
	}
	if numbers == nil {
		numbers = []*models.RaffleNumber{}
	}
	return numbers, nil
}

// SearchByNumber finds numbers containing fragment
func (r *RaffleNumberRepository) SearchByNumber(ctx context.Context, fragment string, limit int) ([]*models.RaffleNumber, error) {
	if limit < 1 {
		limit = 50
	}
	filter := bson.M{"number": primitive.Regex{Pattern: regexp.QuoteMeta(fragment)}}
	opts := options.Find().SetLimit(int64(limit)).SetSort(bson.M{"createdAt": -1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var numbers []*models.RaffleNumber
	if err := cursor.All(ctx, &numbers); err != nil {
		return nil, err
	}
	if numbers == nil {
		numbers = []*models.RaffleNumber{}
	}
	return numbers, nil
}

// CountByUsers counts numbers held per user
func (r *RaffleNumberRepository) CountByUsers(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]int, error) {
	out := make(map[primitive.ObjectID]int, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": bson.M{"$in": userIDs}}}},
		{{Key: "$group", Value: bson.M{"_id": "$userId", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		UserID primitive.ObjectID `bson:"_id"`
		Count  int                `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.UserID] = row.Count
	}
	return out, nil
}

// Stats counts numbers and distinct participants in a raffle
func (r *RaffleNumberRepository) Stats(ctx context.Context, raffleID primitive.ObjectID) (models.RaffleStats, error) {
	var stats models.RaffleStats
	total, err := r.collection.CountDocuments(ctx, bson.M{"raffleId": raffleID})
	if err != nil {
		return stats, err
	}
	users, err := r.collection.Distinct(ctx, "userId", bson.M{"raffleId": raffleID})
	if err != nil {
		return stats, err
	}
	stats.TotalNumbers = total
	stats.Participants = int64(len(users))
	return stats, nil
}

// DeleteByVoucherID removes numbers issued for a voucher
func (r *RaffleNumberRepository) DeleteByVoucherID(ctx context.Context, voucherID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"voucherId": voucherID})
	return err
}
