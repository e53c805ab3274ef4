package mongodb

import (
	"context"
	"time"

	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const winnersCollection = "winners"

var _ repositories.WinnerRepository = (*WinnerRepository)(nil)

// WinnerRepository implements the repositories.WinnerRepository interface
type WinnerRepository struct {
	collection *mongo.Collection
}

// NewWinnerRepository creates a new WinnerRepository
func NewWinnerRepository(db *mongo.Database) *WinnerRepository {
	return &WinnerRepository{
		collection: db.Collection(winnersCollection),
	}
}

// CreateMany creates multiple winners
func (r *WinnerRepository) CreateMany(ctx context.Context, winners []*models.Winner) error {
	if len(winners) == 0 {
		return nil
	}
	now := time.Now()
	docs := make([]interface{}, len(winners))
	for i, w := range winners {
		if w.ID.IsZero() {
			w.ID = primitive.NewObjectID()
		}
		w.CreatedAt = now
		docs[i] = w
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// FindByRaffleID finds the winners of a raffle ordered by tier
func (r *WinnerRepository) FindByRaffleID(ctx context.Context, raffleID primitive.ObjectID) ([]*models.Winner, error) {
	opts := options.Find().SetSort(bson.D{{Key: "tierOrder", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{"raffleId": raffleID}, opts)
}

// FindByUserID finds winners by user, most recent first
func (r *WinnerRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.Winner, error) {
	opts := options.Find().SetSort(bson.M{"winDate": -1})
	return r.find(ctx, bson.M{"userId": userID}, opts)
}

func (r *WinnerRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Winner, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var winners []*models.Winner
	if err := cursor.All(ctx, &winners); err != nil {
		return nil, err
	}
	if winners == nil {
		winners = []*models.Winner{}
	}
	return winners, nil
}
