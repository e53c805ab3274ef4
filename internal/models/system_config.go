package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SystemConfigKey is the key of the singleton raffle settings document.
const SystemConfigKey = "raffle_settings"

// SystemConfig holds the process-wide raffle settings edited by admins.
type SystemConfig struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Key                 string             `bson:"key" json:"-"`
	MinDepositAmount    float64            `bson:"minDepositAmount" json:"minDepositAmount"`
	BlockValue          float64            `bson:"blockValue" json:"blockValue"`             // deposit unit that earns one block of numbers
	NumbersPerBlock     int                `bson:"numbersPerBlock" json:"numbersPerBlock"`   // numbers earned per block
	AIValidationEnabled bool               `bson:"aiValidationEnabled" json:"aiValidationEnabled"`
	UpdatedBy           string             `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	CreatedAt           time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DefaultSystemConfig returns the settings used on first run.
func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		Key:                 SystemConfigKey,
		MinDepositAmount:    100,
		BlockValue:          100,
		NumbersPerBlock:     10,
		AIValidationEnabled: true,
	}
}
