package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Winner records a winning number of a closed raffle
type Winner struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	RaffleID  primitive.ObjectID  `bson:"raffleId" json:"raffleId"`
	UserID    *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"` // nil when nobody holds the number
	UserName  string              `bson:"userName,omitempty" json:"userName,omitempty"`
	Number    string              `bson:"number" json:"number"`
	TierName  string              `bson:"tierName" json:"tierName"`
	TierOrder int                 `bson:"tierOrder" json:"tierOrder"`
	WinDate   time.Time           `bson:"winDate" json:"winDate"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
}
