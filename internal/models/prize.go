package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// PrizeTier is an ordered prize slot of a raffle. Order 1 is the top prize.
type PrizeTier struct {
	Name            string `bson:"name" json:"name" binding:"required"`
	NumbersRequired int    `bson:"numbersRequired" json:"numbersRequired" binding:"required,min=1"`
	Order           int    `bson:"order" json:"order" binding:"required,min=1"`
}

// WinningSlot is one winning number and the participant holding it, if any.
type WinningSlot struct {
	Number string              `bson:"number" json:"number"`
	UserID *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
}

// TierResult groups the winning slots drawn for a prize tier.
type TierResult struct {
	TierName string        `bson:"tierName" json:"tierName"`
	Order    int           `bson:"order" json:"order"`
	Slots    []WinningSlot `bson:"slots" json:"slots"`
}
