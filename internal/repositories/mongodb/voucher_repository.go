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

const vouchersCollection = "vouchers"

var _ repositories.VoucherRepository = (*VoucherRepository)(nil)

// VoucherRepository implements the repositories.VoucherRepository interface
type VoucherRepository struct {
	collection *mongo.Collection
}

// NewVoucherRepository creates a new VoucherRepository
func NewVoucherRepository(db *mongo.Database) *VoucherRepository {
	return &VoucherRepository{
		collection: db.Collection(vouchersCollection),
	}
}

// Create creates a new voucher
func (r *VoucherRepository) Create(ctx context.Context, voucher *models.Voucher) error {
	now := time.Now()
	if voucher.SubmittedAt.IsZero() {
		voucher.SubmittedAt = now
	}
	voucher.UpdatedAt = now
	res, err := r.collection.InsertOne(ctx, voucher)
	if err != nil {
		return translate(err)
	}
	voucher.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID finds a voucher by ID
func (r *VoucherRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Voucher, error) {
	var voucher models.Voucher
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&voucher)
	if err != nil {
		return nil, translate(err)
	}
	return &voucher, nil
}

// FindByUserID finds vouchers of a user with pagination
func (r *VoucherRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]*models.Voucher, error) {
	return r.find(ctx, bson.M{"userId": userID}, page, limit)
}

// FindByStatus finds vouchers by status with pagination. An empty status matches all.
func (r *VoucherRepository) FindByStatus(ctx context.Context, status models.VoucherStatus, page, limit int) ([]*models.Voucher, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return r.find(ctx, filter, page, limit)
}

func (r *VoucherRepository) find(ctx context.Context, filter bson.M, page, limit int) ([]*models.Voucher, error) {
	skip, lim := pageOptions(page, limit)
	opts := options.Find().
		SetSkip(skip).
		SetLimit(lim).
		SetSort(bson.M{"submittedAt": -1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var vouchers []*models.Voucher
	if err := cursor.All(ctx, &vouchers); err != nil {
		return nil, err
	}
	if vouchers == nil {
		vouchers = []*models.Voucher{}
	}
	return vouchers, nil
}

// Update updates a voucher
func (r *VoucherRepository) Update(ctx context.Context, voucher *models.Voucher) error {
	voucher.UpdatedAt = time.Now()
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": voucher.ID}, voucher)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// Transition changes the status only if the voucher is still in from
func (r *VoucherRepository) Transition(ctx context.Context, id primitive.ObjectID, from, to models.VoucherStatus, reviewedBy string, at time.Time) (bool, error) {
	set := bson.M{"status": to, "updatedAt": at}
	update := bson.M{"$set": set}
	if to == models.VoucherStatusPending {
		update["$unset"] = bson.M{"reviewedAt": "", "reviewedBy": ""}
	} else {
		set["reviewedAt"] = at
		set["reviewedBy"] = reviewedBy
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "status": from}, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// CountByStatus counts vouchers by status
func (r *VoucherRepository) CountByStatus(ctx context.Context, status models.VoucherStatus) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"status": status})
}

// SumAmounts totals approved revenue and all declared deposits
func (r *VoucherRepository) SumAmounts(ctx context.Context) (float64, float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":      nil,
			"declared": bson.M{"$sum": "$declaredAmount"},
			"approved": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.VoucherStatusApproved}},
				"$declaredAmount",
				0,
			}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Declared float64 `bson:"declared"`
		Approved float64 `bson:"approved"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, 0, err
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}
	return rows[0].Approved, rows[0].Declared, nil
}

// TopDepositors returns the users with the largest declared deposits
func (r *VoucherRepository) TopDepositors(ctx context.Context, limit int) ([]models.DepositorTotal, error) {
	if limit < 1 {
		limit = 10
	}
	return r.aggregateTotals(ctx, bson.M{}, limit)
}

// TotalsByUser returns deposit totals keyed by user
func (r *VoucherRepository) TotalsByUser(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]models.DepositorTotal, error) {
	out := make(map[primitive.ObjectID]models.DepositorTotal, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	rows, err := r.aggregateTotals(ctx, bson.M{"userId": bson.M{"$in": userIDs}}, 0)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.UserID] = row
	}
	return out, nil
}

func (r *VoucherRepository) aggregateTotals(ctx context.Context, match bson.M, limit int) ([]models.DepositorTotal, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":            "$userId",
			"totalDeposited": bson.M{"$sum": "$declaredAmount"},
			"totalApproved": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.VoucherStatusApproved}},
				"$declaredAmount",
				0,
			}}},
			"pendingCount": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.VoucherStatusPending}},
				1,
				0,
			}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "totalDeposited", Value: -1}}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []models.DepositorTotal
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.DepositorTotal{}
	}
	return rows, nil
}
