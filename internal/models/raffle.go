package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RaffleStatus represents the lifecycle state of a raffle
type RaffleStatus string

const (
	RaffleStatusOpen   RaffleStatus = "OPEN"
	RaffleStatusClosed RaffleStatus = "CLOSED"
)

// RaffleConfig is the per-raffle number space. Zero values mean "use the defaults".
type RaffleConfig struct {
	TotalNumbers   int `bson:"totalNumbers" json:"totalNumbers"`
	NumberMin      int `bson:"numberMin" json:"numberMin"`
	NumberMax      int `bson:"numberMax" json:"numberMax"`
	NumbersPerUser int `bson:"numbersPerUser,omitempty" json:"numbersPerUser,omitempty"` // advisory only, see DESIGN.md
}

// Raffle represents a raffle event
type Raffle struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	Name           string              `bson:"name" json:"name"`
	Status         RaffleStatus        `bson:"status" json:"status"`
	StartedAt      time.Time           `bson:"startedAt" json:"startedAt"`
	EndedAt        *time.Time          `bson:"endedAt,omitempty" json:"endedAt,omitempty"`
	VideoURL       string              `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	EmbedURL       string              `bson:"embedUrl,omitempty" json:"embedUrl,omitempty"`
	PrizeTiers     []PrizeTier         `bson:"prizeTiers" json:"prizeTiers"`
	Config         *RaffleConfig       `bson:"config,omitempty" json:"config,omitempty"`
	DrawStrategy   string              `bson:"drawStrategy,omitempty" json:"drawStrategy,omitempty"`
	WinningNumbers []string            `bson:"winningNumbers,omitempty" json:"winningNumbers,omitempty"`
	TierResults    []TierResult        `bson:"tierResults,omitempty" json:"tierResults,omitempty"`
	WinnerUserID   *primitive.ObjectID `bson:"winnerUserId,omitempty" json:"winnerUserId,omitempty"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// IsOpen reports whether the raffle still accepts numbers.
func (r *Raffle) IsOpen() bool {
	return r.Status == RaffleStatusOpen
}

// RaffleStats summarises the numbers allocated in a raffle.
type RaffleStats struct {
	TotalNumbers int64 `json:"totalNumbers"`
	Participants int64 `json:"participants"`
}

// RaffleWithStats is the admin list view of a raffle.
type RaffleWithStats struct {
	*Raffle
	Stats RaffleStats `json:"stats"`
}
