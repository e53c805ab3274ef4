package engine

import (
	"time"

	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/shopspring/decimal"
)

// CouponStatus is the outcome of a coupon validity check
type CouponStatus string

const (
	CouponValid     CouponStatus = "VALID"
	CouponNotFound  CouponStatus = "NOT_FOUND"
	CouponInactive  CouponStatus = "INACTIVE"
	CouponExpired   CouponStatus = "EXPIRED"
	CouponExhausted CouponStatus = "EXHAUSTED"
)

// Message returns the advisory text shown to the submitting user.
func (s CouponStatus) Message() string {
	switch s {
	case CouponNotFound:
		return "coupon not found"
	case CouponInactive:
		return "coupon is inactive"
	case CouponExpired:
		return "coupon has expired"
	case CouponExhausted:
		return "coupon has reached its usage limit"
	default:
		return ""
	}
}

// CouponResult is the effect of a coupon on a deposit.
type CouponResult struct {
	EffectiveAmount float64      `json:"effectiveAmount"`
	BonusCount      int          `json:"bonusCount"`
	Discount        float64      `json:"discount"`
	Status          CouponStatus `json:"status"`
}

// Applied reports whether the coupon passed validation.
func (r CouponResult) Applied() bool {
	return r.Status == CouponValid
}

// CheckCoupon validates a coupon, stopping at the first failing rule:
// existence and active flag, then expiry, then usage limit.
func CheckCoupon(coupon *models.Coupon, now time.Time) CouponStatus {
	if coupon == nil {
		return CouponNotFound
	}
	if !coupon.Active {
		return CouponInactive
	}
	if coupon.ExpiresAt != nil && !coupon.ExpiresAt.After(now) {
		return CouponExpired
	}
	if coupon.MaxUses != nil && coupon.CurrentUses >= *coupon.MaxUses {
		return CouponExhausted
	}
	return CouponValid
}

// ApplyCoupon computes the coupon's effect on rawAmount. An unusable coupon
// leaves the amount untouched and grants no bonus. It has no side effects;
// redemption is recorded separately when the voucher is approved.
func ApplyCoupon(coupon *models.Coupon, rawAmount float64, now time.Time) CouponResult {
	result := CouponResult{
		EffectiveAmount: rawAmount,
		Status:          CheckCoupon(coupon, now),
	}
	if result.Status != CouponValid {
		return result
	}

	switch coupon.Kind {
	case models.CouponKindPercentDiscount:
		percent := coupon.Value
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
		if !IsFiniteAmount(rawAmount) {
			break
		}
		raw := decimal.NewFromFloat(rawAmount)
		effective := raw.Mul(decimal.NewFromInt(int64(100 - percent))).Div(decimal.NewFromInt(100))
		result.EffectiveAmount = effective.InexactFloat64()
		result.Discount = raw.Sub(effective).InexactFloat64()
	case models.CouponKindBonusNumbers:
		if coupon.Value > 0 {
			result.BonusCount = coupon.Value
		}
	}
	return result
}
