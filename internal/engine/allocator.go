package engine

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// fixedWidthMax is the largest NumberMax whose numbers are zero-padded.
	fixedWidthMax = 99999
	fixedWidth    = 5

	attemptsPerNumber = 50
	attemptSlack      = 1000

	// maxCount caps block and number counts so huge deposits cannot overflow.
	maxCount = math.MaxInt32
)

// Allocator turns deposits into unique raffle numbers.
type Allocator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewAllocator creates an Allocator. A nil src seeds from the clock.
func NewAllocator(src rand.Source) *Allocator {
	if src == nil {
		src = rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)
	}
	return &Allocator{rng: rand.New(src)}
}

// IsFiniteAmount reports whether amount is a real money value, not NaN or an infinity.
func IsFiniteAmount(amount float64) bool {
	return !math.IsNaN(amount) && !math.IsInf(amount, 0)
}

// Blocks returns how many whole blocks of blockValue fit in amount.
// Non-finite input yields zero.
func Blocks(amount, blockValue float64) int {
	if !IsFiniteAmount(amount) || !IsFiniteAmount(blockValue) || amount <= 0 || blockValue <= 0 {
		return 0
	}
	return clampCount(decimal.NewFromFloat(amount).Div(decimal.NewFromFloat(blockValue)).Floor())
}

// NumbersFor returns how many numbers amount earns before any coupon bonus.
func NumbersFor(amount float64, cfg EffectiveConfig) int {
	blocks := decimal.NewFromInt(int64(Blocks(amount, cfg.BlockValue)))
	return clampCount(blocks.Mul(decimal.NewFromInt(int64(cfg.NumbersPerBlock))))
}

func clampCount(d decimal.Decimal) int {
	if d.Sign() <= 0 {
		return 0
	}
	if d.GreaterThan(decimal.NewFromInt(maxCount)) {
		return maxCount
	}
	return int(d.IntPart())
}

// FormatNumber renders a raffle number. Ranges that fit in five digits are
// zero-padded to a fixed width.
func FormatNumber(n int, cfg EffectiveConfig) string {
	if cfg.NumberMax <= fixedWidthMax {
		return fmt.Sprintf("%0*d", fixedWidth, n)
	}
	return strconv.Itoa(n)
}

// Allocate draws the numbers earned by amount plus bonus, uniformly from
// [NumberMin, NumberMax], skipping anything already drawn in this batch or
// present in existing. A total of zero yields an empty list.
//
// Callers must hold the raffle's allocation lock so that existing is current.
func (a *Allocator) Allocate(amount float64, cfg EffectiveConfig, bonus int, existing map[string]struct{}) ([]string, error) {
	if bonus < 0 {
		bonus = 0
	}
	total := NumbersFor(amount, cfg)
	if bonus > maxCount-total {
		total = maxCount
	} else {
		total += bonus
	}
	if total == 0 {
		return []string{}, nil
	}

	space := cfg.SpaceSize()
	used := countInRange(existing, cfg)
	free := space - used
	if free < total {
		return nil, fmt.Errorf("%w: need %d numbers but only %d of %d are free in [%d, %d]",
			ErrAllocationNonTerminating, total, free, space, cfg.NumberMin, cfg.NumberMax)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// past half occupancy rejection sampling degrades, so pick from the free list
	if used+total > space/2 {
		return a.pickFree(cfg, total, free, existing), nil
	}

	maxAttempts := total*attemptsPerNumber + attemptSlack
	drawn := make(map[string]struct{}, total)
	numbers := make([]string, 0, total)

	for attempts := 0; len(numbers) < total; attempts++ {
		if attempts >= maxAttempts {
			return nil, fmt.Errorf("%w: gave up after %d draws with %d of %d numbers",
				ErrAllocationNonTerminating, attempts, len(numbers), total)
		}
		candidate := FormatNumber(cfg.NumberMin+a.rng.IntN(space), cfg)
		if _, taken := existing[candidate]; taken {
			continue
		}
		if _, taken := drawn[candidate]; taken {
			continue
		}
		drawn[candidate] = struct{}{}
		numbers = append(numbers, candidate)
	}
	return numbers, nil
}

// pickFree enumerates the free numbers and takes total of them with a partial
// Fisher-Yates shuffle. The caller has checked that enough are free.
func (a *Allocator) pickFree(cfg EffectiveConfig, total, freeCount int, existing map[string]struct{}) []string {
	free := make([]string, 0, freeCount)
	for n := cfg.NumberMin; ; n++ {
		candidate := FormatNumber(n, cfg)
		if _, taken := existing[candidate]; !taken {
			free = append(free, candidate)
		}
		if n == cfg.NumberMax {
			break
		}
	}
	for i := 0; i < total; i++ {
		j := i + a.rng.IntN(len(free)-i)
		free[i], free[j] = free[j], free[i]
	}
	return free[:total]
}

func countInRange(existing map[string]struct{}, cfg EffectiveConfig) int {
	count := 0
	for number := range existing {
		n, err := strconv.Atoi(number)
		if err != nil {
			continue
		}
		if n >= cfg.NumberMin && n <= cfg.NumberMax && FormatNumber(n, cfg) == number {
			count++
		}
	}
	return count
}
