package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CouponKind is the effect a coupon has on a deposit
type CouponKind string

const (
	CouponKindBonusNumbers    CouponKind = "BONUS_NUMBERS"
	CouponKindPercentDiscount CouponKind = "PERCENT_DISCOUNT"
)

// Coupon represents a promotional code applied to a voucher
type Coupon struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Code        string             `bson:"code" json:"code"` // stored upper-case
	Kind        CouponKind         `bson:"kind" json:"kind"`
	Value       int                `bson:"value" json:"value"` // bonus count or percent
	Active      bool               `bson:"active" json:"active"`
	ExpiresAt   *time.Time         `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	MaxUses     *int               `bson:"maxUses,omitempty" json:"maxUses,omitempty"`
	CurrentUses int                `bson:"currentUses" json:"currentUses"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CouponView is a coupon with its derived usability status.
type CouponView struct {
	*Coupon
	Status string `json:"status"`
}
