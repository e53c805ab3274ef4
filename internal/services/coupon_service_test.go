package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/ArowuTest/raffle-backend/internal/engine"
	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func intPtr(v int) *int { return &v }

func TestCreateCoupon(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()

	coupon, err := env.coupons.CreateCoupon(ctx, CouponInput{Code: " welcome ", Kind: models.CouponKindBonusNumbers, Value: 5})
	require.NoError(t, err)
	assert.Equal(t, "WELCOME", coupon.Code)
	assert.True(t, coupon.Active)

	_, err = env.coupons.CreateCoupon(ctx, CouponInput{Code: "Welcome", Kind: models.CouponKindBonusNumbers, Value: 2})
	assert.ErrorIs(t, err, ErrCouponCodeTaken)

	tests := []struct {
		name  string
		input CouponInput
	}{
		{"blank code", CouponInput{Code: " ", Kind: models.CouponKindBonusNumbers, Value: 1}},
		{"unknown kind", CouponInput{Code: "X", Kind: "FREE", Value: 1}},
		{"zero bonus", CouponInput{Code: "X", Kind: models.CouponKindBonusNumbers, Value: 0}},
		{"discount over 100", CouponInput{Code: "X", Kind: models.CouponKindPercentDiscount, Value: 101}},
		{"zero max uses", CouponInput{Code: "X", Kind: models.CouponKindPercentDiscount, Value: 10, MaxUses: intPtr(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.coupons.CreateCoupon(ctx, tt.input)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestUpdateToggleDeleteCoupon(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()

	a, err := env.coupons.CreateCoupon(ctx, CouponInput{Code: "A", Kind: models.CouponKindBonusNumbers, Value: 1})
	require.NoError(t, err)
	_, err = env.coupons.CreateCoupon(ctx, CouponInput{Code: "B", Kind: models.CouponKindBonusNumbers, Value: 1})
	require.NoError(t, err)

	_, err = env.coupons.UpdateCoupon(ctx, a.ID, CouponInput{Code: "b", Kind: models.CouponKindBonusNumbers, Value: 1})
	assert.ErrorIs(t, err, ErrCouponCodeTaken)

	updated, err := env.coupons.UpdateCoupon(ctx, a.ID, CouponInput{Code: "a2", Kind: models.CouponKindPercentDiscount, Value: 20, MaxUses: intPtr(3)})
	require.NoError(t, err)
	assert.Equal(t, "A2", updated.Code)
	assert.Equal(t, 3, *updated.MaxUses)
	assert.True(t, updated.Active)

	toggled, err := env.coupons.ToggleCoupon(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Active)

	require.NoError(t, env.coupons.DeleteCoupon(ctx, a.ID))
	assert.ErrorIs(t, env.coupons.DeleteCoupon(ctx, a.ID), ErrNotFound)
	_, err = env.coupons.ToggleCoupon(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListCouponsStatus(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)
	inactive := false

	_, err := env.coupons.CreateCoupon(ctx, CouponInput{Code: "ACTIVE", Kind: models.CouponKindBonusNumbers, Value: 1})
	require.NoError(t, err)
	_, err = env.coupons.CreateCoupon(ctx, CouponInput{Code: "EXPIRED", Kind: models.CouponKindBonusNumbers, Value: 1, ExpiresAt: &past})
	require.NoError(t, err)
	_, err = env.coupons.CreateCoupon(ctx, CouponInput{Code: "OFF", Kind: models.CouponKindBonusNumbers, Value: 1, Active: &inactive})
	require.NoError(t, err)
	_, err = env.coupons.CreateCoupon(ctx, CouponInput{Code: "USED", Kind: models.CouponKindBonusNumbers, Value: 1, MaxUses: intPtr(1)})
	require.NoError(t, err)
	ok, err := env.couponRepo.Redeem(ctx, "USED", time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	views, err := env.coupons.ListCoupons(ctx, 1, 20)
	require.NoError(t, err)
	got := map[string]string{}
	for _, v := range views {
		got[v.Code] = v.Status
	}
	assert.Equal(t, map[string]string{
		"ACTIVE":  "Active",
		"EXPIRED": "Expired",
		"OFF":     "Inactive",
		"USED":    "Exhausted",
	}, got)
}

func TestPreviewCoupon(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()

	_, err := env.coupons.CreateCoupon(ctx, CouponInput{Code: "HALF", Kind: models.CouponKindPercentDiscount, Value: 50})
	require.NoError(t, err)
	_, err = env.coupons.CreateCoupon(ctx, CouponInput{Code: "PLUS5", Kind: models.CouponKindBonusNumbers, Value: 5})
	require.NoError(t, err)

	half, err := env.coupons.PreviewCoupon(ctx, "half", 400)
	require.NoError(t, err)
	assert.True(t, half.Valid)
	assert.Equal(t, 200.0, half.EffectiveAmount)
	assert.Equal(t, 200.0, half.Discount)
	assert.Equal(t, 20, half.TotalNumbers)

	plus, err := env.coupons.PreviewCoupon(ctx, "PLUS5", 100)
	require.NoError(t, err)
	assert.Equal(t, 5, plus.BonusNumbers)
	assert.Equal(t, 15, plus.TotalNumbers)

	missing, err := env.coupons.PreviewCoupon(ctx, "NOPE", 100)
	require.NoError(t, err)
	assert.False(t, missing.Valid)
	assert.Equal(t, engine.CouponNotFound, missing.Status)
	assert.Equal(t, 10, missing.TotalNumbers)

	_, err = env.coupons.PreviewCoupon(ctx, "", 100)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = env.coupons.PreviewCoupon(ctx, "HALF", math.NaN())
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = env.coupons.PreviewCoupon(ctx, "HALF", math.Inf(1))
	assert.ErrorIs(t, err, ErrInvalidInput)
}
