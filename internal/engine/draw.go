package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ArowuTest/raffle-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Strategy selects how winning numbers are chosen
type Strategy string

const (
	StrategyManual    Strategy = "MANUAL"
	StrategyAutomatic Strategy = "AUTOMATIC"
	StrategyExternal  Strategy = "EXTERNAL"
)

// ParseStrategy accepts the strategy name case-insensitively.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToUpper(strings.TrimSpace(s))) {
	case StrategyManual:
		return StrategyManual, nil
	case StrategyAutomatic:
		return StrategyAutomatic, nil
	case StrategyExternal:
		return StrategyExternal, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// ExternalSource supplies winning numbers from outside the raffle, e.g. a
// public lottery result. Its numbers are not checked against the raffle.
type ExternalSource interface {
	WinningNumbers(ctx context.Context, count int, cfg EffectiveConfig) ([]string, error)
}

// DrawRequest holds the inputs of a draw.
type DrawRequest struct {
	Numbers  []models.RaffleNumber
	Tiers    []models.PrizeTier
	Strategy Strategy
	Manual   []string
	Config   EffectiveConfig
}

// DrawResult is the outcome of a draw.
type DrawResult struct {
	WinningNumbers []string
	Tiers          []models.TierResult
	// WinnerUserID is the owner of the first winning number that has one.
	WinnerUserID *primitive.ObjectID
	// Unmatched counts winning numbers nobody holds.
	Unmatched int
}

// DrawEngine selects winning numbers and maps them to prize tiers.
type DrawEngine struct {
	mu       sync.Mutex
	rng      *rand.Rand
	external ExternalSource
}

// NewDrawEngine creates a DrawEngine. A nil src seeds from the clock; external may be nil.
func NewDrawEngine(src rand.Source, external ExternalSource) *DrawEngine {
	if src == nil {
		src = rand.NewPCG(uint64(time.Now().UnixNano()), 0x2545f4914f6cdd1d)
	}
	return &DrawEngine{rng: rand.New(src), external: external}
}

// DefaultTiers is used when a raffle has no prize tiers configured.
func DefaultTiers() []models.PrizeTier {
	return []models.PrizeTier{{Name: "Prize", NumbersRequired: 1, Order: 1}}
}

// RequiredTotal sums the numbers required across tiers.
func RequiredTotal(tiers []models.PrizeTier) int {
	total := 0
	for _, t := range tiers {
		if t.NumbersRequired > 0 {
			total += t.NumbersRequired
		}
	}
	return total
}

// Draw runs the requested strategy and assigns winners to tiers.
func (e *DrawEngine) Draw(ctx context.Context, req DrawRequest) (*DrawResult, error) {
	if len(req.Numbers) == 0 {
		return nil, ErrDrawEmptyRaffle
	}

	tiers := sortedTiers(req.Tiers)
	required := RequiredTotal(tiers)
	winningCount := required
	if winningCount > len(req.Numbers) {
		winningCount = len(req.Numbers)
	}

	var winning []string
	switch req.Strategy {
	case StrategyManual:
		winning = cleanManual(req.Manual)
		if len(winning) == 0 {
			return nil, ErrDrawInsufficientInput
		}
	case StrategyAutomatic:
		winning = e.sample(req.Numbers, winningCount)
	case StrategyExternal:
		if e.external == nil {
			return nil, ErrNoExternalSource
		}
		fetched, err := e.external.WinningNumbers(ctx, winningCount, req.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch external winning numbers: %w", err)
		}
		if len(fetched) > winningCount {
			fetched = fetched[:winningCount]
		}
		winning = fetched
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, req.Strategy)
	}

	return assign(winning, tiers, req.Numbers), nil
}

// sample returns count numbers from an unbiased shuffle of the pool.
func (e *DrawEngine) sample(pool []models.RaffleNumber, count int) []string {
	shuffled := make([]string, len(pool))
	for i, n := range pool {
		shuffled[i] = n.Number
	}

	e.mu.Lock()
	e.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	e.mu.Unlock()

	return shuffled[:count]
}

func assign(winning []string, tiers []models.PrizeTier, pool []models.RaffleNumber) *DrawResult {
	owners := make(map[string]primitive.ObjectID, len(pool))
	for _, n := range pool {
		if _, seen := owners[n.Number]; !seen {
			owners[n.Number] = n.UserID
		}
	}

	result := &DrawResult{
		WinningNumbers: winning,
		Tiers:          make([]models.TierResult, 0, len(tiers)),
	}

	for _, number := range winning {
		owner, ok := owners[number]
		if !ok {
			result.Unmatched++
			continue
		}
		if result.WinnerUserID == nil {
			id := owner
			result.WinnerUserID = &id
		}
	}

	next := 0
	for _, tier := range tiers {
		tr := models.TierResult{TierName: tier.Name, Order: tier.Order, Slots: []models.WinningSlot{}}
		for i := 0; i < tier.NumbersRequired && next < len(winning); i++ {
			slot := models.WinningSlot{Number: winning[next]}
			if owner, ok := owners[winning[next]]; ok {
				id := owner
				slot.UserID = &id
			}
			tr.Slots = append(tr.Slots, slot)
			next++
		}
		result.Tiers = append(result.Tiers, tr)
	}
	return result
}

func sortedTiers(tiers []models.PrizeTier) []models.PrizeTier {
	if len(tiers) == 0 {
		return DefaultTiers()
	}
	out := make([]models.PrizeTier, len(tiers))
	copy(out, tiers)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func cleanManual(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, n := range raw {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
