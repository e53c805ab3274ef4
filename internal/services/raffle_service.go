package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ArowuTest/raffle-backend/internal/engine"
	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/internal/repositories"
	"github.com/ArowuTest/raffle-backend/internal/utils"
	"github.com/ArowuTest/raffle-backend/pkg/metrics"
	"github.com/ArowuTest/raffle-backend/pkg/redislock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure RaffleServiceImpl implements RaffleService
var _ RaffleService = (*RaffleServiceImpl)(nil)

// RaffleServiceImpl handles the raffle lifecycle and draws
type RaffleServiceImpl struct {
	raffleRepo repositories.RaffleRepository
	numberRepo repositories.RaffleNumberRepository
	winnerRepo repositories.WinnerRepository
	userRepo   repositories.UserRepository
	settings   SystemConfigService
	drawEngine *engine.DrawEngine
	locker     redislock.Locker
	metrics    *metrics.Collector
}

// NewRaffleService creates a new RaffleServiceImpl
func NewRaffleService(
	raffleRepo repositories.RaffleRepository,
	numberRepo repositories.RaffleNumberRepository,
	winnerRepo repositories.WinnerRepository,
	userRepo repositories.UserRepository,
	settings SystemConfigService,
	drawEngine *engine.DrawEngine,
	locker redislock.Locker,
	collector *metrics.Collector,
) *RaffleServiceImpl {
	return &RaffleServiceImpl{
		raffleRepo: raffleRepo,
		numberRepo: numberRepo,
		winnerRepo: winnerRepo,
		userRepo:   userRepo,
		settings:   settings,
		drawEngine: drawEngine,
		locker:     locker,
		metrics:    collector,
	}
}

// raffleCreateLockKey serializes raffle creation so only one raffle is ever open
const raffleCreateLockKey = "raffles:create"

// raffleLockKey is the lock shared by allocation and drawing in one raffle
func raffleLockKey(id primitive.ObjectID) string {
	return "raffle:" + id.Hex()
}

// CreateRaffle validates the input, closes the open raffle and opens a new one
func (s *RaffleServiceImpl) CreateRaffle(ctx context.Context, input RaffleInput) (*models.Raffle, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := validateTiers(input.PrizeTiers); err != nil {
		return nil, err
	}
	if err := validateRaffleConfig(input.Config); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, raffleCreateLockKey)
	if err != nil {
		return nil, fmt.Errorf("failed to lock raffle creation: %w", err)
	}
	defer unlock()

	now := time.Now()
	if err := s.closeOpenRaffle(ctx, now); err != nil {
		return nil, err
	}

	raffle := &models.Raffle{
		Name:       name,
		Status:     models.RaffleStatusOpen,
		StartedAt:  now,
		VideoURL:   strings.TrimSpace(input.VideoURL),
		EmbedURL:   utils.EmbedVideoURL(input.VideoURL),
		PrizeTiers: input.PrizeTiers,
		Config:     input.Config,
	}
	if raffle.PrizeTiers == nil {
		raffle.PrizeTiers = []models.PrizeTier{}
	}
	if err := s.raffleRepo.Create(ctx, raffle); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrRaffleAlreadyOpen
		}
		return nil, fmt.Errorf("failed to create raffle: %w", err)
	}

	slog.Info("Raffle created", "raffleId", raffle.ID.Hex(), "name", raffle.Name, "tiers", len(raffle.PrizeTiers))
	return raffle, nil
}

// closeOpenRaffle force-closes the open raffle while holding its allocation
// lock, so no approval can add numbers to it after it closes.
func (s *RaffleServiceImpl) closeOpenRaffle(ctx context.Context, now time.Time) error {
	open, err := s.raffleRepo.FindOpen(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load open raffle: %w", err)
	}

	unlock, err := s.locker.Lock(ctx, raffleLockKey(open.ID))
	if err != nil {
		return fmt.Errorf("failed to lock raffle: %w", err)
	}
	defer unlock()

	closed, err := s.raffleRepo.CloseOpen(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to close open raffle: %w", err)
	}
	slog.Info("Closed open raffle before creating a new one", "raffleId", open.ID.Hex(), "closed", closed)
	return nil
}

func validateTiers(tiers []models.PrizeTier) error {
	seen := make(map[int]bool, len(tiers))
	for _, t := range tiers {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("%w: prize tier name is required", ErrInvalidRaffleConfig)
		}
		if t.NumbersRequired < 1 {
			return fmt.Errorf("%w: tier %q needs at least one number", ErrInvalidRaffleConfig, t.Name)
		}
		if seen[t.Order] {
			return fmt.Errorf("%w: duplicate tier order %d", ErrInvalidRaffleConfig, t.Order)
		}
		seen[t.Order] = true
	}
	return nil
}

func validateRaffleConfig(cfg *models.RaffleConfig) error {
	if cfg == nil {
		return nil
	}
	if cfg.NumberMin < 0 || cfg.NumberMax < 0 || cfg.TotalNumbers < 0 || cfg.NumbersPerUser < 0 {
		return fmt.Errorf("%w: values must not be negative", ErrInvalidRaffleConfig)
	}
	rangeSet := cfg.NumberMin != 0 || cfg.NumberMax != 0
	if rangeSet && cfg.NumberMax <= cfg.NumberMin {
		return fmt.Errorf("%w: numberMax must be greater than numberMin", ErrInvalidRaffleConfig)
	}
	effective := engine.Resolve(nil, cfg)
	if cfg.TotalNumbers > effective.SpaceSize() {
		return fmt.Errorf("%w: range [%d, %d] holds %d numbers, fewer than totalNumbers %d",
			ErrInvalidRaffleConfig, effective.NumberMin, effective.NumberMax, effective.SpaceSize(), cfg.TotalNumbers)
	}
	return nil
}

// GetRaffle retrieves a raffle by its ID
func (s *RaffleServiceImpl) GetRaffle(ctx context.Context, id primitive.ObjectID) (*models.Raffle, error) {
	raffle, err := s.raffleRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("raffle %s: %w", id.Hex(), ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load raffle: %w", err)
	}
	return raffle, nil
}

// GetOpenRaffle retrieves the raffle currently accepting numbers
func (s *RaffleServiceImpl) GetOpenRaffle(ctx context.Context) (*models.Raffle, error) {
	raffle, err := s.raffleRepo.FindOpen(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNoOpenRaffle
		}
		return nil, fmt.Errorf("failed to load open raffle: %w", err)
	}
	return raffle, nil
}

// ListRaffles lists raffles with their number statistics
func (s *RaffleServiceImpl) ListRaffles(ctx context.Context, page, limit int) ([]*models.RaffleWithStats, error) {
	raffles, err := s.raffleRepo.FindAll(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list raffles: %w", err)
	}

	out := make([]*models.RaffleWithStats, 0, len(raffles))
	for _, r := range raffles {
		stats, err := s.numberRepo.Stats(ctx, r.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load stats for raffle %s: %w", r.ID.Hex(), err)
		}
		out = append(out, &models.RaffleWithStats{Raffle: r, Stats: stats})
	}
	return out, nil
}

// UpdateVideo sets the draw video link of a raffle
func (s *RaffleServiceImpl) UpdateVideo(ctx context.Context, id primitive.ObjectID, videoURL string) (*models.Raffle, error) {
	trimmed := strings.TrimSpace(videoURL)
	if err := s.raffleRepo.SetVideo(ctx, id, trimmed, utils.EmbedVideoURL(videoURL)); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("raffle %s: %w", id.Hex(), ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update raffle video: %w", err)
	}
	return s.GetRaffle(ctx, id)
}

// CloseRaffle draws winners under the raffle lock, stores the result and closes the raffle
func (s *RaffleServiceImpl) CloseRaffle(ctx context.Context, id primitive.ObjectID, input CloseRaffleInput) (*models.Raffle, error) {
	strategy, err := engine.ParseStrategy(input.Strategy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	unlock, err := s.locker.Lock(ctx, raffleLockKey(id))
	if err != nil {
		return nil, fmt.Errorf("failed to lock raffle: %w", err)
	}
	defer unlock()

	raffle, err := s.GetRaffle(ctx, id)
	if err != nil {
		return nil, err
	}
	if !raffle.IsOpen() {
		return nil, ErrRaffleClosed
	}

	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	numbers, err := s.numberRepo.FindByRaffleID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load raffle numbers: %w", err)
	}

	result, err := s.drawEngine.Draw(ctx, engine.DrawRequest{
		Numbers:  numbers,
		Tiers:    raffle.PrizeTiers,
		Strategy: strategy,
		Manual:   utils.SplitNumbers(input.ManualNumbers),
		Config:   engine.Resolve(settings, raffle.Config),
	})
	s.metrics.Draw(string(strategy), err)
	if err != nil {
		slog.Warn("Draw failed", "raffleId", id.Hex(), "strategy", strategy, "error", err)
		return nil, fmt.Errorf("draw failed: %w", err)
	}
	if result.Unmatched > 0 {
		// manual and external numbers are not checked against the allocated set
		slog.Warn("Winning numbers without a holder", "raffleId", id.Hex(), "strategy", strategy, "unmatched", result.Unmatched)
	}

	now := time.Now()
	raffle.DrawStrategy = string(strategy)
	raffle.WinningNumbers = result.WinningNumbers
	raffle.TierResults = result.Tiers
	raffle.WinnerUserID = result.WinnerUserID
	raffle.EndedAt = &now
	if err := s.raffleRepo.Close(ctx, raffle); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRaffleClosed
		}
		return nil, fmt.Errorf("failed to close raffle: %w", err)
	}

	winners, err := s.buildWinners(ctx, raffle, now)
	if err != nil {
		return nil, err
	}
	if err := s.winnerRepo.CreateMany(ctx, winners); err != nil {
		// the raffle result is already stored on the raffle itself
		slog.Error("Failed to store winner records", "raffleId", id.Hex(), "error", err)
	}

	slog.Info("Raffle closed", "raffleId", id.Hex(), "strategy", strategy,
		"winningNumbers", len(result.WinningNumbers), "participants", len(numbers))
	return raffle, nil
}

func (s *RaffleServiceImpl) buildWinners(ctx context.Context, raffle *models.Raffle, at time.Time) ([]*models.Winner, error) {
	var ids []primitive.ObjectID
	seen := map[primitive.ObjectID]bool{}
	for _, tier := range raffle.TierResults {
		for _, slot := range tier.Slots {
			if slot.UserID != nil && !seen[*slot.UserID] {
				seen[*slot.UserID] = true
				ids = append(ids, *slot.UserID)
			}
		}
	}

	names := map[primitive.ObjectID]string{}
	if len(ids) > 0 {
		users, err := s.userRepo.FindByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load winning users: %w", err)
		}
		for _, u := range users {
			names[u.ID] = u.Name
		}
	}

	var winners []*models.Winner
	for _, tier := range raffle.TierResults {
		for _, slot := range tier.Slots {
			w := &models.Winner{
				RaffleID:  raffle.ID,
				UserID:    slot.UserID,
				Number:    slot.Number,
				TierName:  tier.TierName,
				TierOrder: tier.Order,
				WinDate:   at,
			}
			if slot.UserID != nil {
				w.UserName = names[*slot.UserID]
			}
			winners = append(winners, w)
		}
	}
	return winners, nil
}

// GetWinners retrieves the winners of a raffle
func (s *RaffleServiceImpl) GetWinners(ctx context.Context, id primitive.ObjectID) ([]*models.Winner, error) {
	if _, err := s.GetRaffle(ctx, id); err != nil {
		return nil, err
	}
	winners, err := s.winnerRepo.FindByRaffleID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load winners: %w", err)
	}
	return winners, nil
}
