package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/internal/repositories"
	"github.com/ArowuTest/raffle-backend/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

const (
	searchLimit    = 50
	topDepositors  = 5
	recentVouchers = 5
	historyLimit   = 100
)

// Compile-time check to ensure UserServiceImpl implements UserService
var _ UserService = (*UserServiceImpl)(nil)

// UserServiceImpl handles participant views, player search and the dashboard
type UserServiceImpl struct {
	userRepo    repositories.UserRepository
	raffleRepo  repositories.RaffleRepository
	numberRepo  repositories.RaffleNumberRepository
	voucherRepo repositories.VoucherRepository
	winnerRepo  repositories.WinnerRepository
}

// NewUserService creates a new UserServiceImpl
func NewUserService(
	userRepo repositories.UserRepository,
	raffleRepo repositories.RaffleRepository,
	numberRepo repositories.RaffleNumberRepository,
	voucherRepo repositories.VoucherRepository,
	winnerRepo repositories.WinnerRepository,
) *UserServiceImpl {
	return &UserServiceImpl{
		userRepo:    userRepo,
		raffleRepo:  raffleRepo,
		numberRepo:  numberRepo,
		voucherRepo: voucherRepo,
		winnerRepo:  winnerRepo,
	}
}

// CreateUser creates a participant or admin record
func (s *UserServiceImpl) CreateUser(ctx context.Context, user *models.User) error {
	user.Name = strings.TrimSpace(user.Name)
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CPF = strings.TrimSpace(user.CPF)
	if user.Name == "" || user.Email == "" {
		return fmt.Errorf("%w: name and email are required", ErrInvalidInput)
	}
	if user.Role != "" && user.Role != models.RoleUser && user.Role != models.RoleAdmin {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, user.Role)
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return fmt.Errorf("%w: email already registered", ErrInvalidInput)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID
func (s *UserServiceImpl) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", id.Hex(), ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// MyNumbers returns a user's numbers grouped by raffle, newest raffle first
func (s *UserServiceImpl) MyNumbers(ctx context.Context, userID primitive.ObjectID) ([]models.UserRaffleNumbers, error) {
	numbers, err := s.numberRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load numbers: %w", err)
	}

	groups := map[primitive.ObjectID]*models.UserRaffleNumbers{}
	var order []primitive.ObjectID
	for _, n := range numbers {
		g, ok := groups[n.RaffleID]
		if !ok {
			g = &models.UserRaffleNumbers{RaffleID: n.RaffleID, Numbers: []string{}}
			groups[n.RaffleID] = g
			order = append(order, n.RaffleID)
		}
		g.Numbers = append(g.Numbers, n.Number)
	}

	out := make([]models.UserRaffleNumbers, 0, len(order))
	for _, id := range order {
		g := groups[id]
		raffle, err := s.raffleRepo.FindByID(ctx, id)
		switch {
		case err == nil:
			g.RaffleName = raffle.Name
			g.Status = raffle.Status
			g.Winning = intersect(g.Numbers, raffle.WinningNumbers)
		case errors.Is(err, repositories.ErrNotFound):
			slog.Warn("Numbers reference a missing raffle", "raffleId", id.Hex(), "userId", userID.Hex())
		default:
			return nil, fmt.Errorf("failed to load raffle %s: %w", id.Hex(), err)
		}
		sort.Strings(g.Numbers)
		out = append(out, *g)
	}
	return out, nil
}

func intersect(held, winning []string) []string {
	if len(winning) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(winning))
	for _, w := range winning {
		set[w] = struct{}{}
	}
	var out []string
	for _, h := range held {
		if _, ok := set[h]; ok {
			out = append(out, h)
		}
	}
	return out
}

// History returns the user's vouchers and wins
func (s *UserServiceImpl) History(ctx context.Context, userID primitive.ObjectID) (*models.UserHistory, error) {
	vouchers, err := s.voucherRepo.FindByUserID(ctx, userID, 1, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load vouchers: %w", err)
	}
	wins, err := s.winnerRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wins: %w", err)
	}
	return &models.UserHistory{Vouchers: vouchers, Wins: wins}, nil
}

// SearchPlayers finds players by name, email, cpf or a raffle number fragment
func (s *UserServiceImpl) SearchPlayers(ctx context.Context, query string) ([]models.PlayerSummary, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, fmt.Errorf("%w: query must have at least 2 characters", ErrInvalidInput)
	}

	users, err := s.userRepo.Search(ctx, query, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	byID := make(map[primitive.ObjectID]*models.User, len(users))
	var ids []primitive.ObjectID
	for _, u := range users {
		byID[u.ID] = u
		ids = append(ids, u.ID)
	}

	matching := map[primitive.ObjectID][]string{}
	if utils.IsDigits(query) {
		numbers, err := s.numberRepo.SearchByNumber(ctx, query, searchLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to search numbers: %w", err)
		}
		var missing []primitive.ObjectID
		for _, n := range numbers {
			if _, ok := byID[n.UserID]; !ok {
				if _, queued := matching[n.UserID]; !queued {
					missing = append(missing, n.UserID)
				}
			}
			matching[n.UserID] = append(matching[n.UserID], n.Number)
		}
		if len(missing) > 0 {
			extra, err := s.userRepo.FindByIDs(ctx, missing)
			if err != nil {
				return nil, fmt.Errorf("failed to load users: %w", err)
			}
			for _, u := range extra {
				byID[u.ID] = u
				ids = append(ids, u.ID)
			}
		}
	}

	counts, err := s.numberRepo.CountByUsers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count numbers: %w", err)
	}
	totals, err := s.voucherRepo.TotalsByUser(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to total deposits: %w", err)
	}

	out := make([]models.PlayerSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.PlayerSummary{
			User:            byID[id],
			TotalNumbers:    counts[id],
			TotalApproved:   totals[id].TotalApproved,
			MatchingNumbers: matching[id],
		})
	}
	return out, nil
}

// PlayerDetail gathers a participant's vouchers, number count and deposit totals
func (s *UserServiceImpl) PlayerDetail(ctx context.Context, id primitive.ObjectID) (*models.PlayerDetail, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	vouchers, err := s.voucherRepo.FindByUserID(ctx, id, 1, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load vouchers: %w", err)
	}
	ids := []primitive.ObjectID{id}
	counts, err := s.numberRepo.CountByUsers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count numbers: %w", err)
	}
	totals, err := s.voucherRepo.TotalsByUser(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to total deposits: %w", err)
	}

	total := totals[id]
	return &models.PlayerDetail{
		User:           user,
		Vouchers:       vouchers,
		TotalNumbers:   counts[id],
		PendingCount:   total.PendingCount,
		TotalDeposited: total.TotalDeposited,
		TotalApproved:  total.TotalApproved,
	}, nil
}

// Dashboard aggregates the admin dashboard figures
func (s *UserServiceImpl) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	var err error

	if stats.TotalUsers, err = s.userRepo.CountPlayers(ctx); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if stats.PendingVouchers, err = s.voucherRepo.CountByStatus(ctx, models.VoucherStatusPending); err != nil {
		return nil, fmt.Errorf("failed to count vouchers: %w", err)
	}
	if stats.ApprovedVouchers, err = s.voucherRepo.CountByStatus(ctx, models.VoucherStatusApproved); err != nil {
		return nil, fmt.Errorf("failed to count vouchers: %w", err)
	}
	if stats.RejectedVouchers, err = s.voucherRepo.CountByStatus(ctx, models.VoucherStatusRejected); err != nil {
		return nil, fmt.Errorf("failed to count vouchers: %w", err)
	}
	if stats.OpenRaffles, err = s.raffleRepo.CountByStatus(ctx, models.RaffleStatusOpen); err != nil {
		return nil, fmt.Errorf("failed to count raffles: %w", err)
	}
	if stats.TotalRevenue, stats.TotalDeposited, err = s.voucherRepo.SumAmounts(ctx); err != nil {
		return nil, fmt.Errorf("failed to sum deposits: %w", err)
	}

	top, err := s.voucherRepo.TopDepositors(ctx, topDepositors)
	if err != nil {
		return nil, fmt.Errorf("failed to load top depositors: %w", err)
	}
	ids := make([]primitive.ObjectID, len(top))
	for i, t := range top {
		ids[i] = t.UserID
	}
	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load depositors: %w", err)
	}
	names := make(map[primitive.ObjectID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	for i := range top {
		top[i].Name = names[top[i].UserID]
	}
	stats.TopDepositors = top

	if stats.RecentVouchers, err = s.voucherRepo.FindByStatus(ctx, "", 1, recentVouchers); err != nil {
		return nil, fmt.Errorf("failed to load recent vouchers: %w", err)
	}
	return &stats, nil
}
