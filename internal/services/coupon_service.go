package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArowuTest/raffle-backend/internal/engine"
	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/internal/repositories"
	"github.com/ArowuTest/raffle-backend/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure CouponServiceImpl implements CouponService
var _ CouponService = (*CouponServiceImpl)(nil)

// CouponServiceImpl handles coupon administration and previews
type CouponServiceImpl struct {
	couponRepo repositories.CouponRepository
	settings   SystemConfigService
}

// NewCouponService creates a new CouponServiceImpl
func NewCouponService(couponRepo repositories.CouponRepository, settings SystemConfigService) *CouponServiceImpl {
	return &CouponServiceImpl{
		couponRepo: couponRepo,
		settings:   settings,
	}
}

// CouponStatusLabel is the admin-facing status of a coupon
func CouponStatusLabel(coupon *models.Coupon, now time.Time) string {
	switch engine.CheckCoupon(coupon, now) {
	case engine.CouponInactive:
		return "Inactive"
	case engine.CouponExpired:
		return "Expired"
	case engine.CouponExhausted:
		return "Exhausted"
	case engine.CouponValid:
		return "Active"
	default:
		return "Unknown"
	}
}

func validateCouponInput(input *CouponInput) error {
	input.Code = utils.NormalizeCouponCode(input.Code)
	if input.Code == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidInput)
	}
	switch input.Kind {
	case models.CouponKindBonusNumbers:
		if input.Value < 1 {
			return fmt.Errorf("%w: bonus must be at least one number", ErrInvalidInput)
		}
	case models.CouponKindPercentDiscount:
		if input.Value < 1 || input.Value > 100 {
			return fmt.Errorf("%w: discount must be between 1 and 100 percent", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown coupon kind %q", ErrInvalidInput, input.Kind)
	}
	if input.MaxUses != nil && *input.MaxUses < 1 {
		return fmt.Errorf("%w: maxUses must be at least 1", ErrInvalidInput)
	}
	return nil
}

// CreateCoupon creates a coupon with a unique normalized code
func (s *CouponServiceImpl) CreateCoupon(ctx context.Context, input CouponInput) (*models.Coupon, error) {
	if err := validateCouponInput(&input); err != nil {
		return nil, err
	}

	if _, err := s.couponRepo.FindByCode(ctx, input.Code); err == nil {
		return nil, ErrCouponCodeTaken
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check coupon code: %w", err)
	}

	coupon := &models.Coupon{
		Code:      input.Code,
		Kind:      input.Kind,
		Value:     input.Value,
		Active:    input.Active == nil || *input.Active,
		ExpiresAt: input.ExpiresAt,
		MaxUses:   input.MaxUses,
	}
	if err := s.couponRepo.Create(ctx, coupon); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrCouponCodeTaken
		}
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}
	slog.Info("Coupon created", "code", coupon.Code, "kind", coupon.Kind, "value", coupon.Value)
	return coupon, nil
}

func (s *CouponServiceImpl) find(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error) {
	coupon, err := s.couponRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("coupon %s: %w", id.Hex(), ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load coupon: %w", err)
	}
	return coupon, nil
}

// UpdateCoupon replaces the editable fields of a coupon
func (s *CouponServiceImpl) UpdateCoupon(ctx context.Context, id primitive.ObjectID, input CouponInput) (*models.Coupon, error) {
	if err := validateCouponInput(&input); err != nil {
		return nil, err
	}
	coupon, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Code != coupon.Code {
		if other, err := s.couponRepo.FindByCode(ctx, input.Code); err == nil && other.ID != coupon.ID {
			return nil, ErrCouponCodeTaken
		} else if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to check coupon code: %w", err)
		}
	}

	coupon.Code = input.Code
	coupon.Kind = input.Kind
	coupon.Value = input.Value
	coupon.ExpiresAt = input.ExpiresAt
	coupon.MaxUses = input.MaxUses
	if input.Active != nil {
		coupon.Active = *input.Active
	}
	if err := s.couponRepo.Update(ctx, coupon); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrCouponCodeTaken
		}
		return nil, fmt.Errorf("failed to update coupon: %w", err)
	}
	return coupon, nil
}

// ToggleCoupon flips the active flag of a coupon
func (s *CouponServiceImpl) ToggleCoupon(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error) {
	coupon, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	coupon.Active = !coupon.Active
	if err := s.couponRepo.Update(ctx, coupon); err != nil {
		return nil, fmt.Errorf("failed to toggle coupon: %w", err)
	}
	slog.Info("Coupon toggled", "code", coupon.Code, "active", coupon.Active)
	return coupon, nil
}

// DeleteCoupon removes a coupon
func (s *CouponServiceImpl) DeleteCoupon(ctx context.Context, id primitive.ObjectID) error {
	if err := s.couponRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("coupon %s: %w", id.Hex(), ErrNotFound)
		}
		return fmt.Errorf("failed to delete coupon: %w", err)
	}
	return nil
}

// ListCoupons lists coupons with their derived status
func (s *CouponServiceImpl) ListCoupons(ctx context.Context, page, limit int) ([]*models.CouponView, error) {
	coupons, err := s.couponRepo.FindAll(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	now := time.Now()
	views := make([]*models.CouponView, 0, len(coupons))
	for _, c := range coupons {
		views = append(views, &models.CouponView{Coupon: c, Status: CouponStatusLabel(c, now)})
	}
	return views, nil
}

// PreviewCoupon reports a coupon's effect on amount without recording a use
func (s *CouponServiceImpl) PreviewCoupon(ctx context.Context, code string, amount float64) (*CouponPreview, error) {
	code = utils.NormalizeCouponCode(code)
	if code == "" {
		return nil, fmt.Errorf("%w: code is required", ErrInvalidInput)
	}
	if amount < 0 || !engine.IsFiniteAmount(amount) {
		return nil, fmt.Errorf("%w: amount must be a non-negative number", ErrInvalidInput)
	}

	coupon, err := s.couponRepo.FindByCode(ctx, code)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to load coupon: %w", err)
	}
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	result := engine.ApplyCoupon(coupon, amount, time.Now())
	cfg := engine.Resolve(settings, nil)
	return &CouponPreview{
		Code:            code,
		Valid:           result.Applied(),
		Status:          result.Status,
		Message:         result.Status.Message(),
		EffectiveAmount: result.EffectiveAmount,
		Discount:        result.Discount,
		BonusNumbers:    result.BonusCount,
		TotalNumbers:    engine.NumbersFor(result.EffectiveAmount, cfg) + result.BonusCount,
	}, nil
}
