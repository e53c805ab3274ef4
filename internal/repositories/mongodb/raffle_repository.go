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

const rafflesCollection = "raffles"

var _ repositories.RaffleRepository = (*RaffleRepository)(nil)

// RaffleRepository implements the repositories.RaffleRepository interface
type RaffleRepository struct {
	collection *mongo.Collection
}

// NewRaffleRepository creates a new RaffleRepository
func NewRaffleRepository(db *mongo.Database) *RaffleRepository {
	return &RaffleRepository{
		collection: db.Collection(rafflesCollection),
	}
}

// Create creates a new raffle
func (r *RaffleRepository) Create(ctx context.Context, raffle *models.Raffle) error {
	raffle.CreatedAt = time.Now()
	raffle.UpdatedAt = raffle.CreatedAt
	res, err := r.collection.InsertOne(ctx, raffle)
	if err != nil {
		return translate(err)
	}
	raffle.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID finds a raffle by ID
func (r *RaffleRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Raffle, error) {
	var raffle models.Raffle
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&raffle)
	if err != nil {
		return nil, translate(err)
	}
	return &raffle, nil
}

// FindOpen finds the most recently started open raffle
func (r *RaffleRepository) FindOpen(ctx context.Context) (*models.Raffle, error) {
	var raffle models.Raffle
	opts := options.FindOne().SetSort(bson.M{"startedAt": -1})
	err := r.collection.FindOne(ctx, bson.M{"status": models.RaffleStatusOpen}, opts).Decode(&raffle)
	if err != nil {
		return nil, translate(err)
	}
	return &raffle, nil
}

// FindAll finds raffles with pagination, newest first
func (r *RaffleRepository) FindAll(ctx context.Context, page, limit int) ([]*models.Raffle, error) {
	skip, lim := pageOptions(page, limit)
	opts := options.Find().
		SetSkip(skip).
		SetLimit(lim).
		SetSort(bson.M{"startedAt": -1})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var raffles []*models.Raffle
	if err := cursor.All(ctx, &raffles); err != nil {
		return nil, err
	}
	if raffles == nil {
		raffles = []*models.Raffle{}
	}
	return raffles, nil
}

// SetVideo updates the video links without touching status or draw results
func (r *RaffleRepository) SetVideo(ctx context.Context, id primitive.ObjectID, videoURL, embedURL string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"videoUrl":  videoURL,
			"embedUrl":  embedURL,
			"updatedAt": time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// CloseOpen closes all open raffles
func (r *RaffleRepository) CloseOpen(ctx context.Context, endedAt time.Time) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"status": models.RaffleStatusOpen},
		bson.M{"$set": bson.M{
			"status":    models.RaffleStatusClosed,
			"endedAt":   endedAt,
			"updatedAt": endedAt,
		}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Close records the draw result and closes the raffle if it is still open
func (r *RaffleRepository) Close(ctx context.Context, raffle *models.Raffle) error {
	now := time.Now()
	raffle.Status = models.RaffleStatusClosed
	raffle.UpdatedAt = now
	if raffle.EndedAt == nil {
		raffle.EndedAt = &now
	}

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": raffle.ID, "status": models.RaffleStatusOpen},
		bson.M{"$set": bson.M{
			"status":         raffle.Status,
			"endedAt":        raffle.EndedAt,
			"drawStrategy":   raffle.DrawStrategy,
			"winningNumbers": raffle.WinningNumbers,
			"tierResults":    raffle.TierResults,
			"winnerUserId":   raffle.WinnerUserID,
			"updatedAt":      now,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// CountByStatus counts raffles in the given status
func (r *RaffleRepository) CountByStatus(ctx context.Context, status models.RaffleStatus) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"status": status})
}
