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

const couponsCollection = "coupons"

var _ repositories.CouponRepository = (*CouponRepository)(nil)

// CouponRepository implements the repositories.CouponRepository interface
type CouponRepository struct {
	collection *mongo.Collection
}

// NewCouponRepository creates a new CouponRepository
func NewCouponRepository(db *mongo.Database) *CouponRepository {
	return &CouponRepository{
		collection: db.Collection(couponsCollection),
	}
}

// Create creates a new coupon
func (r *CouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	coupon.CreatedAt = time.Now()
	coupon.UpdatedAt = coupon.CreatedAt
	res, err := r.collection.InsertOne(ctx, coupon)
	if err != nil {
		return translate(err)
	}
	coupon.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID finds a coupon by ID
func (r *CouponRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&coupon)
	if err != nil {
		return nil, translate(err)
	}
	return &coupon, nil
}

// FindByCode finds a coupon by its normalized code
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&coupon)
	if err != nil {
		return nil, translate(err)
	}
	return &coupon, nil
}

// FindAll finds all coupons with pagination
func (r *CouponRepository) FindAll(ctx context.Context, page, limit int) ([]*models.Coupon, error) {
	skip, lim := pageOptions(page, limit)
	opts := options.Find().
		SetSkip(skip).
		SetLimit(lim).
		SetSort(bson.M{"createdAt": -1})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var coupons []*models.Coupon
	if err := cursor.All(ctx, &coupons); err != nil {
		return nil, err
	}
	if coupons == nil {
		coupons = []*models.Coupon{}
	}
	return coupons, nil
}

// Update updates a coupon. The usage counter is left to Redeem and Release.
func (r *CouponRepository) Update(ctx context.Context, coupon *models.Coupon) error {
	coupon.UpdatedAt = time.Now()
	set := bson.M{
		"code":      coupon.Code,
		"kind":      coupon.Kind,
		"value":     coupon.Value,
		"active":    coupon.Active,
		"updatedAt": coupon.UpdatedAt,
	}
	unset := bson.M{}
	if coupon.ExpiresAt != nil {
		set["expiresAt"] = coupon.ExpiresAt
	} else {
		unset["expiresAt"] = ""
	}
	if coupon.MaxUses != nil {
		set["maxUses"] = coupon.MaxUses
	} else {
		unset["maxUses"] = ""
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": coupon.ID}, update)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// Delete deletes a coupon
func (r *CouponRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// Redeem increments currentUses only while the coupon is active, unexpired and under its limit
func (r *CouponRepository) Redeem(ctx context.Context, code string, now time.Time) (bool, error) {
	filter := bson.M{
		"code":   code,
		"active": true,
		"$and": bson.A{
			bson.M{"$or": bson.A{
				bson.M{"expiresAt": nil},
				bson.M{"expiresAt": bson.M{"$gt": now}},
			}},
			bson.M{"$or": bson.A{
				bson.M{"maxUses": nil},
				bson.M{"$expr": bson.M{"$lt": bson.A{"$currentUses", "$maxUses"}}},
			}},
		},
	}
	update := bson.M{
		"$inc": bson.M{"currentUses": 1},
		"$set": bson.M{"updatedAt": now},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// Release decrements currentUses, never below zero
func (r *CouponRepository) Release(ctx context.Context, code string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"code": code, "currentUses": bson.M{"$gt": 0}},
		bson.M{
			"$inc": bson.M{"currentUses": -1},
			"$set": bson.M{"updatedAt": time.Now()},
		},
	)
	return err
}
