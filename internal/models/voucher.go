package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VoucherStatus represents the review state of a voucher
type VoucherStatus string

const (
	VoucherStatusPending  VoucherStatus = "PENDING"
	VoucherStatusApproved VoucherStatus = "APPROVED"
	VoucherStatusRejected VoucherStatus = "REJECTED"
)

// Voucher is a user-submitted proof of deposit
type Voucher struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	UserID           primitive.ObjectID  `bson:"userId" json:"userId"`
	DeclaredAmount   float64             `bson:"declaredAmount" json:"declaredAmount"`
	ReadAmount       *float64            `bson:"readAmount,omitempty" json:"readAmount,omitempty"`
	ImageRef         string              `bson:"imageRef,omitempty" json:"imageRef,omitempty"`
	Status           VoucherStatus       `bson:"status" json:"status"`
	CouponCode       string              `bson:"couponCode,omitempty" json:"couponCode,omitempty"`
	DiscountApplied  float64             `bson:"discountApplied,omitempty" json:"discountApplied,omitempty"`
	BonusNumbers     int                 `bson:"bonusNumbers,omitempty" json:"bonusNumbers,omitempty"`
	RaffleID         *primitive.ObjectID `bson:"raffleId,omitempty" json:"raffleId,omitempty"`
	NumbersAllocated int                 `bson:"numbersAllocated" json:"numbersAllocated"`
	ReviewedBy       string              `bson:"reviewedBy,omitempty" json:"reviewedBy,omitempty"`
	SubmittedAt      time.Time           `bson:"submittedAt" json:"submittedAt"`
	ReviewedAt       *time.Time          `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
	UpdatedAt        time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// VoucherOutcome is returned to the caller after a voucher submission or approval.
type VoucherOutcome struct {
	Voucher       *Voucher `json:"voucher"`
	Numbers       []string `json:"numbers,omitempty"`
	CouponWarning string   `json:"couponWarning,omitempty"`
	Message       string   `json:"message,omitempty"`
}
