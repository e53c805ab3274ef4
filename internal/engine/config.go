package engine

import "github.com/ArowuTest/raffle-backend/internal/models"

// Library defaults used when neither the system nor the raffle configure a value.
const (
	DefaultBlockValue      = 100.0
	DefaultNumbersPerBlock = 10
	DefaultNumberMin       = 1
	DefaultNumberMax       = 99999
)

// EffectiveConfig is the resolved conversion rate and number space for an allocation.
type EffectiveConfig struct {
	BlockValue      float64 `json:"blockValue"`
	NumbersPerBlock int     `json:"numbersPerBlock"`
	NumberMin       int     `json:"numberMin"`
	NumberMax       int     `json:"numberMax"`
}

// SpaceSize returns how many distinct numbers fit in the range.
func (c EffectiveConfig) SpaceSize() int {
	return c.NumberMax - c.NumberMin + 1
}

// Resolve merges system settings and raffle settings into an EffectiveConfig.
// It never fails: absent or unusable values fall back to the system value and
// then to the library defaults.
func Resolve(system *models.SystemConfig, raffle *models.RaffleConfig) EffectiveConfig {
	cfg := EffectiveConfig{
		BlockValue:      DefaultBlockValue,
		NumbersPerBlock: DefaultNumbersPerBlock,
		NumberMin:       DefaultNumberMin,
		NumberMax:       DefaultNumberMax,
	}

	if system != nil {
		if system.BlockValue > 0 {
			cfg.BlockValue = system.BlockValue
		}
		if system.NumbersPerBlock >= 1 {
			cfg.NumbersPerBlock = system.NumbersPerBlock
		}
	}

	// min may legitimately be 0, so the pair is taken together when it forms a valid range
	if raffle != nil && raffle.NumberMin >= 0 && raffle.NumberMax > raffle.NumberMin {
		cfg.NumberMin = raffle.NumberMin
		cfg.NumberMax = raffle.NumberMax
	}

	return cfg
}
