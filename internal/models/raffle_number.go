package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RaffleNumber is one number allocated to a user within a raffle.
type RaffleNumber struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	RaffleID  primitive.ObjectID `bson:"raffleId" json:"raffleId"`
	VoucherID primitive.ObjectID `bson:"voucherId,omitempty" json:"voucherId,omitempty"`
	Number    string             `bson:"number" json:"number"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// UserRaffleNumbers groups a user's numbers for a single raffle.
type UserRaffleNumbers struct {
	RaffleID   primitive.ObjectID `json:"raffleId"`
	RaffleName string             `json:"raffleName"`
	Status     RaffleStatus       `json:"status"`
	Numbers    []string           `json:"numbers"`
	Winning    []string           `json:"winning,omitempty"`
}
