package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/raffle-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when no document matches.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = errors.New("duplicate key")
)

// SystemConfigRepository defines the interface for raffle settings storage
type SystemConfigRepository interface {
	FindByKey(ctx context.Context, key string) (*models.SystemConfig, error)
	Upsert(ctx context.Context, config *models.SystemConfig) error
}

// RaffleRepository defines the interface for raffle data operations
type RaffleRepository interface {
	Create(ctx context.Context, raffle *models.Raffle) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Raffle, error)
	FindOpen(ctx context.Context) (*models.Raffle, error)
	FindAll(ctx context.Context, page, limit int) ([]*models.Raffle, error)
	// SetVideo changes only the video links of a raffle.
	SetVideo(ctx context.Context, id primitive.ObjectID, videoURL, embedURL string) error
	// CloseOpen closes every open raffle without a draw and returns how many were closed.
	CloseOpen(ctx context.Context, endedAt time.Time) (int64, error)
	// Close stores the draw result on an open raffle and marks it closed.
	// It returns ErrNotFound when the raffle is no longer open.
	Close(ctx context.Context, raffle *models.Raffle) error
	CountByStatus(ctx context.Context, status models.RaffleStatus) (int64, error)
}

// CouponRepository defines the interface for coupon data operations
type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error)
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	FindAll(ctx context.Context, page, limit int) ([]*models.Coupon, error)
	Update(ctx context.Context, coupon *models.Coupon) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// Redeem atomically records one use if the coupon is still usable at now.
	// It reports false when another caller got the last use or the coupon lapsed.
	Redeem(ctx context.Context, code string, now time.Time) (bool, error)
	// Release gives back a use recorded by Redeem.
	Release(ctx context.Context, code string) error
}

// VoucherRepository defines the interface for voucher data operations
type VoucherRepository interface {
	Create(ctx context.Context, voucher *models.Voucher) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Voucher, error)
	FindByUserID(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]*models.Voucher, error)
	FindByStatus(ctx context.Context, status models.VoucherStatus, page, limit int) ([]*models.Voucher, error)
	Update(ctx context.Context, voucher *models.Voucher) error
	// Transition moves a voucher from one status to another and reports
	// whether this caller made the change.
	Transition(ctx context.Context, id primitive.ObjectID, from, to models.VoucherStatus, reviewedBy string, at time.Time) (bool, error)
	CountByStatus(ctx context.Context, status models.VoucherStatus) (int64, error)
	// SumAmounts returns the approved revenue and the total declared across all vouchers.
	SumAmounts(ctx context.Context) (approved float64, declared float64, err error)
	TopDepositors(ctx context.Context, limit int) ([]models.DepositorTotal, error)
	TotalsByUser(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]models.DepositorTotal, error)
}

// RaffleNumberRepository defines the interface for allocated number storage
type RaffleNumberRepository interface {
	InsertMany(ctx context.Context, numbers []*models.RaffleNumber) error
	FindByRaffleID(ctx context.Context, raffleID primitive.ObjectID) ([]models.RaffleNumber, error)
	NumberSet(ctx context.Context, raffleID primitive.ObjectID) (map[string]struct{}, error)
	FindByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.RaffleNumber, error)
	SearchByNumber(ctx context.Context, fragment string, limit int) ([]*models.RaffleNumber, error)
	CountByUsers(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]int, error)
	Stats(ctx context.Context, raffleID primitive.ObjectID) (models.RaffleStats, error)
	DeleteByVoucherID(ctx context.Context, voucherID primitive.ObjectID) error
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// Search matches name, email or cpf case-insensitively.
	Search(ctx context.Context, query string, limit int) ([]*models.User, error)
	// CountPlayers counts every user except admins.
	CountPlayers(ctx context.Context) (int64, error)
}

// WinnerRepository defines the interface for winner data operations
type WinnerRepository interface {
	CreateMany(ctx context.Context, winners []*models.Winner) error
	FindByRaffleID(ctx context.Context, raffleID primitive.ObjectID) ([]*models.Winner, error)
	FindByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.Winner, error)
}
