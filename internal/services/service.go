package services

import (
	"context"
	"time"

	"github.com/ArowuTest/raffle-backend/internal/engine"
	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/pkg/voucherai"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SystemConfigService defines the interface for raffle settings operations
type SystemConfigService interface {
	// GetSettings returns the current settings, creating the defaults on first use
	GetSettings(ctx context.Context) (*models.SystemConfig, error)

	// UpdateSettings validates and stores new settings
	UpdateSettings(ctx context.Context, input SettingsInput, updatedBy string) (*models.SystemConfig, error)

	// NumbersForAmount previews how many numbers a deposit earns in the open raffle
	NumbersForAmount(ctx context.Context, amount float64) (*NumbersPreview, error)
}

// RaffleService defines the interface for raffle lifecycle operations
type RaffleService interface {
	// CreateRaffle closes any open raffle and opens a new one
	CreateRaffle(ctx context.Context, input RaffleInput) (*models.Raffle, error)

	// GetRaffle retrieves a raffle by its ID
	GetRaffle(ctx context.Context, id primitive.ObjectID) (*models.Raffle, error)

	// GetOpenRaffle retrieves the raffle currently accepting numbers
	GetOpenRaffle(ctx context.Context) (*models.Raffle, error)

	// ListRaffles lists raffles with their number statistics
	ListRaffles(ctx context.Context, page, limit int) ([]*models.RaffleWithStats, error)

	// UpdateVideo sets the draw video link of a raffle
	UpdateVideo(ctx context.Context, id primitive.ObjectID, videoURL string) (*models.Raffle, error)

	// CloseRaffle draws the winners and closes the raffle
	CloseRaffle(ctx context.Context, id primitive.ObjectID, input CloseRaffleInput) (*models.Raffle, error)

	// GetWinners retrieves the winners of a raffle
	GetWinners(ctx context.Context, id primitive.ObjectID) ([]*models.Winner, error)
}

// CouponService defines the interface for coupon management
type CouponService interface {
	CreateCoupon(ctx context.Context, input CouponInput) (*models.Coupon, error)
	UpdateCoupon(ctx context.Context, id primitive.ObjectID, input CouponInput) (*models.Coupon, error)
	ToggleCoupon(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error)
	DeleteCoupon(ctx context.Context, id primitive.ObjectID) error
	ListCoupons(ctx context.Context, page, limit int) ([]*models.CouponView, error)

	// PreviewCoupon reports a coupon's effect on amount without recording a use
	PreviewCoupon(ctx context.Context, code string, amount float64) (*CouponPreview, error)
}

// VoucherService defines the interface for the deposit voucher workflow
type VoucherService interface {
	SubmitVoucher(ctx context.Context, userID primitive.ObjectID, input VoucherInput) (*models.VoucherOutcome, error)
	ApproveVoucher(ctx context.Context, id primitive.ObjectID, reviewer string) (*models.VoucherOutcome, error)
	RejectVoucher(ctx context.Context, id primitive.ObjectID, reviewer string) (*models.Voucher, error)
	ListVouchers(ctx context.Context, status models.VoucherStatus, page, limit int) ([]*models.Voucher, error)
	ListUserVouchers(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]*models.Voucher, error)
}

// UserService defines the interface for participant views and admin reporting
type UserService interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	MyNumbers(ctx context.Context, userID primitive.ObjectID) ([]models.UserRaffleNumbers, error)
	History(ctx context.Context, userID primitive.ObjectID) (*models.UserHistory, error)
	SearchPlayers(ctx context.Context, query string) ([]models.PlayerSummary, error)
	PlayerDetail(ctx context.Context, id primitive.ObjectID) (*models.PlayerDetail, error)
	Dashboard(ctx context.Context) (*models.DashboardStats, error)
}

// VoucherValidator reads the amount on a voucher image
type VoucherValidator interface {
	Validate(ctx context.Context, declaredAmount float64, image []byte) (*voucherai.Result, error)
}

// SettingsInput is an admin settings update
type SettingsInput struct {
	MinDepositAmount    float64 `json:"minDepositAmount"`
	BlockValue          float64 `json:"blockValue"`
	NumbersPerBlock     int     `json:"numbersPerBlock"`
	AIValidationEnabled bool    `json:"aiValidationEnabled"`
}

// NumbersPreview is the result of the deposit calculator
type NumbersPreview struct {
	Amount           float64                `json:"amount"`
	Numbers          int                    `json:"numbers"`
	MinDepositAmount float64                `json:"minDepositAmount"`
	Config           engine.EffectiveConfig `json:"config"`
}

// RaffleInput holds the fields of a new raffle
type RaffleInput struct {
	Name       string               `json:"name" binding:"required"`
	VideoURL   string               `json:"videoUrl"`
	PrizeTiers []models.PrizeTier   `json:"prizeTiers"`
	Config     *models.RaffleConfig `json:"config"`
}

// CloseRaffleInput selects how winners are drawn
type CloseRaffleInput struct {
	Strategy string `json:"strategy"`
	// ManualNumbers is a comma separated list used by the manual strategy
	ManualNumbers string `json:"manualNumbers"`
}

// CouponInput holds editable coupon fields
type CouponInput struct {
	Code      string            `json:"code"`
	Kind      models.CouponKind `json:"kind"`
	Value     int               `json:"value"`
	Active    *bool             `json:"active"`
	ExpiresAt *time.Time        `json:"expiresAt"`
	MaxUses   *int              `json:"maxUses"`
}

// CouponPreview is the effect a coupon would have on a deposit
type CouponPreview struct {
	Code            string              `json:"code"`
	Valid           bool                `json:"valid"`
	Status          engine.CouponStatus `json:"status"`
	Message         string              `json:"message,omitempty"`
	EffectiveAmount float64             `json:"effectiveAmount"`
	Discount        float64             `json:"discount"`
	BonusNumbers    int                 `json:"bonusNumbers"`
	TotalNumbers    int                 `json:"totalNumbers"`
}

// VoucherInput is a user's deposit submission
type VoucherInput struct {
	Amount     float64
	CouponCode string
	Image      []byte
	ImageRef   string
}
