package services

import (
	"context"
	"errors"
	"fmt"
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

// AutoReviewer is recorded as the reviewer of vouchers approved by the validator
const AutoReviewer = "ai-validator"

const (
	msgPendingReview = "Voucher received and waiting for manual review"
	msgFlagged       = "The amount read from the voucher did not match; it was sent to manual review"
	msgApproved      = "Voucher approved"
)

// Compile-time check to ensure VoucherServiceImpl implements VoucherService
var _ VoucherService = (*VoucherServiceImpl)(nil)

// VoucherServiceImpl handles voucher submission, review and number allocation
type VoucherServiceImpl struct {
	voucherRepo repositories.VoucherRepository
	couponRepo  repositories.CouponRepository
	raffleRepo  repositories.RaffleRepository
	numberRepo  repositories.RaffleNumberRepository
	settings    SystemConfigService
	validator   VoucherValidator
	allocator   *engine.Allocator
	locker      redislock.Locker
	metrics     *metrics.Collector
}

// NewVoucherService creates a new VoucherServiceImpl. validator may be nil,
// in which case every voucher goes to manual review.
func NewVoucherService(
	voucherRepo repositories.VoucherRepository,
	couponRepo repositories.CouponRepository,
	raffleRepo repositories.RaffleRepository,
	numberRepo repositories.RaffleNumberRepository,
	settings SystemConfigService,
	validator VoucherValidator,
	allocator *engine.Allocator,
	locker redislock.Locker,
	collector *metrics.Collector,
) *VoucherServiceImpl {
	return &VoucherServiceImpl{
		voucherRepo: voucherRepo,
		couponRepo:  couponRepo,
		raffleRepo:  raffleRepo,
		numberRepo:  numberRepo,
		settings:    settings,
		validator:   validator,
		allocator:   allocator,
		locker:      locker,
		metrics:     collector,
	}
}

// SubmitVoucher records a deposit voucher and runs automatic validation when enabled
func (s *VoucherServiceImpl) SubmitVoucher(ctx context.Context, userID primitive.ObjectID, input VoucherInput) (*models.VoucherOutcome, error) {
	if input.Amount <= 0 || !engine.IsFiniteAmount(input.Amount) {
		return nil, fmt.Errorf("%w: amount must be a number greater than zero", ErrInvalidInput)
	}
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if input.Amount < settings.MinDepositAmount {
		return nil, fmt.Errorf("%w: minimum is %.2f", ErrBelowMinimumDeposit, settings.MinDepositAmount)
	}

	outcome := &models.VoucherOutcome{}
	voucher := &models.Voucher{
		UserID:         userID,
		DeclaredAmount: input.Amount,
		ImageRef:       input.ImageRef,
		Status:         models.VoucherStatusPending,
		SubmittedAt:    time.Now(),
	}

	if code := utils.NormalizeCouponCode(input.CouponCode); code != "" {
		res, err := s.previewCoupon(ctx, code, input.Amount)
		if err != nil {
			return nil, err
		}
		if res.Applied() {
			voucher.CouponCode = code
			voucher.DiscountApplied = res.Discount
			voucher.BonusNumbers = res.BonusCount
		} else {
			outcome.CouponWarning = (&engine.CouponUsageError{Code: code, Status: res.Status}).Error()
		}
	}

	if err := s.voucherRepo.Create(ctx, voucher); err != nil {
		return nil, fmt.Errorf("failed to save voucher: %w", err)
	}
	s.metrics.VoucherOutcome("submitted")
	slog.Info("Voucher submitted", "voucherId", voucher.ID.Hex(), "userId", userID.Hex(),
		"amount", voucher.DeclaredAmount, "coupon", voucher.CouponCode)

	outcome.Voucher = voucher
	outcome.Message = msgPendingReview
	if !settings.AIValidationEnabled || s.validator == nil {
		return outcome, nil
	}

	result, err := s.validator.Validate(ctx, input.Amount, input.Image)
	if err != nil {
		slog.Warn("Voucher validation failed, leaving for manual review", "voucherId", voucher.ID.Hex(), "error", err)
		return outcome, nil
	}

	readAmount := result.ReadAmount
	voucher.ReadAmount = &readAmount
	if !result.Approved {
		if err := s.voucherRepo.Update(ctx, voucher); err != nil {
			return nil, fmt.Errorf("failed to record validation result: %w", err)
		}
		s.metrics.VoucherOutcome("flagged")
		outcome.Message = msgFlagged
		return outcome, nil
	}

	if err := s.voucherRepo.Update(ctx, voucher); err != nil {
		return nil, fmt.Errorf("failed to record validation result: %w", err)
	}
	approved, err := s.approve(ctx, voucher, AutoReviewer)
	if err != nil {
		// the voucher stays pending for an admin to retry
		slog.Warn("Automatic approval failed", "voucherId", voucher.ID.Hex(), "error", err)
		return outcome, nil
	}
	s.metrics.VoucherOutcome("auto_approved")
	if outcome.CouponWarning != "" && approved.CouponWarning == "" {
		approved.CouponWarning = outcome.CouponWarning
	}
	return approved, nil
}

func (s *VoucherServiceImpl) previewCoupon(ctx context.Context, code string, amount float64) (engine.CouponResult, error) {
	coupon, err := s.couponRepo.FindByCode(ctx, code)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return engine.CouponResult{}, fmt.Errorf("failed to load coupon: %w", err)
	}
	return engine.ApplyCoupon(coupon, amount, time.Now()), nil
}

// ApproveVoucher approves a pending voucher and allocates its numbers in the open raffle
func (s *VoucherServiceImpl) ApproveVoucher(ctx context.Context, id primitive.ObjectID, reviewer string) (*models.VoucherOutcome, error) {
	voucher, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if voucher.Status != models.VoucherStatusPending {
		return nil, ErrVoucherNotPending
	}
	outcome, err := s.approve(ctx, voucher, reviewer)
	if err != nil {
		return nil, err
	}
	s.metrics.VoucherOutcome("approved")
	return outcome, nil
}

// approve runs the approval unit of work: claim the voucher, redeem its coupon,
// then allocate and store numbers. A failure after the claim is compensated.
func (s *VoucherServiceImpl) approve(ctx context.Context, voucher *models.Voucher, reviewer string) (*models.VoucherOutcome, error) {
	if voucher.DeclaredAmount <= 0 || !engine.IsFiniteAmount(voucher.DeclaredAmount) {
		return nil, fmt.Errorf("%w: voucher %s has an unusable amount", ErrInvalidInput, voucher.ID.Hex())
	}
	raffle, err := s.raffleRepo.FindOpen(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNoOpenRaffle
		}
		return nil, fmt.Errorf("failed to load open raffle: %w", err)
	}
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	claimed, err := s.voucherRepo.Transition(ctx, voucher.ID, models.VoucherStatusPending, models.VoucherStatusApproved, reviewer, now)
	if err != nil {
		return nil, fmt.Errorf("failed to claim voucher: %w", err)
	}
	if !claimed {
		return nil, ErrVoucherNotPending
	}

	outcome := &models.VoucherOutcome{Voucher: voucher}
	coupon := engine.CouponResult{EffectiveAmount: voucher.DeclaredAmount, Status: engine.CouponNotFound}
	redeemed := false
	if voucher.CouponCode != "" {
		coupon, redeemed, err = s.redeemCoupon(ctx, voucher, now)
		if err != nil {
			s.compensate(voucher, false)
			return nil, err
		}
		if !redeemed {
			outcome.CouponWarning = (&engine.CouponUsageError{Code: voucher.CouponCode, Status: coupon.Status}).Error()
		}
	}

	numbers, err := s.allocate(ctx, raffle.ID, voucher, settings, coupon)
	if err != nil {
		s.compensate(voucher, redeemed)
		return nil, err
	}

	voucher.Status = models.VoucherStatusApproved
	voucher.ReviewedBy = reviewer
	voucher.ReviewedAt = &now
	voucher.RaffleID = &raffle.ID
	voucher.NumbersAllocated = len(numbers)
	if redeemed {
		voucher.DiscountApplied = coupon.Discount
		voucher.BonusNumbers = coupon.BonusCount
	} else {
		voucher.CouponCode = ""
		voucher.DiscountApplied = 0
		voucher.BonusNumbers = 0
	}
	if err := s.voucherRepo.Update(ctx, voucher); err != nil {
		// numbers are stored and the voucher is already APPROVED; only the summary fields are stale
		slog.Error("Failed to update approved voucher summary", "voucherId", voucher.ID.Hex(), "error", err)
	}

	if limit := configNumbersPerUser(raffle); limit > 0 && len(numbers) > limit {
		slog.Warn("Allocation exceeds advisory per-user limit", "voucherId", voucher.ID.Hex(), "numbers", len(numbers), "limit", limit)
	}

	slog.Info("Voucher approved", "voucherId", voucher.ID.Hex(), "raffleId", raffle.ID.Hex(),
		"reviewer", reviewer, "numbers", len(numbers), "couponRedeemed", redeemed)

	outcome.Numbers = numbers
	outcome.Message = msgApproved
	return outcome, nil
}

func configNumbersPerUser(raffle *models.Raffle) int {
	if raffle.Config == nil {
		return 0
	}
	return raffle.Config.NumbersPerUser
}

// redeemCoupon rechecks the stored coupon and records one use. A coupon that
// lapsed since submission yields its status with the deposit untouched.
func (s *VoucherServiceImpl) redeemCoupon(ctx context.Context, voucher *models.Voucher, now time.Time) (engine.CouponResult, bool, error) {
	res, err := s.previewCoupon(ctx, voucher.CouponCode, voucher.DeclaredAmount)
	if err != nil {
		return res, false, err
	}
	if !res.Applied() {
		s.metrics.CouponRedemption(string(res.Status))
		return engine.CouponResult{EffectiveAmount: voucher.DeclaredAmount, Status: res.Status}, false, nil
	}

	ok, err := s.couponRepo.Redeem(ctx, voucher.CouponCode, now)
	if err != nil {
		return res, false, fmt.Errorf("failed to redeem coupon: %w", err)
	}
	if !ok {
		// another approval took the last use between the check and the increment
		s.metrics.CouponRedemption(string(engine.CouponExhausted))
		return engine.CouponResult{EffectiveAmount: voucher.DeclaredAmount, Status: engine.CouponExhausted}, false, nil
	}
	s.metrics.CouponRedemption(string(engine.CouponValid))
	return res, true, nil
}

// allocate draws and stores numbers for a voucher while holding the raffle lock
func (s *VoucherServiceImpl) allocate(ctx context.Context, raffleID primitive.ObjectID, voucher *models.Voucher, settings *models.SystemConfig, coupon engine.CouponResult) ([]string, error) {
	start := time.Now()
	unlock, err := s.locker.Lock(ctx, raffleLockKey(raffleID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock raffle: %w", err)
	}
	defer unlock()

	raffle, err := s.raffleRepo.FindByID(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload raffle: %w", err)
	}
	if !raffle.IsOpen() {
		return nil, ErrRaffleClosed
	}

	existing, err := s.numberRepo.NumberSet(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load taken numbers: %w", err)
	}

	cfg := engine.Resolve(settings, raffle.Config)
	numbers, err := s.allocator.Allocate(coupon.EffectiveAmount, cfg, coupon.BonusCount, existing)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate numbers: %w", err)
	}

	records := make([]*models.RaffleNumber, len(numbers))
	for i, n := range numbers {
		records[i] = &models.RaffleNumber{
			UserID:    voucher.UserID,
			RaffleID:  raffleID,
			VoucherID: voucher.ID,
			Number:    n,
		}
	}
	if err := s.numberRepo.InsertMany(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to store numbers: %w", err)
	}
	s.metrics.NumbersAllocated(len(numbers), time.Since(start))
	return numbers, nil
}

// compensate undoes the effects of a failed approval. It runs on a fresh
// context so a cancelled request still rolls back.
func (s *VoucherServiceImpl) compensate(voucher *models.Voucher, releaseCoupon bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.numberRepo.DeleteByVoucherID(ctx, voucher.ID); err != nil {
		slog.Error("Compensation: failed to remove numbers", "voucherId", voucher.ID.Hex(), "error", err)
	}
	if releaseCoupon {
		if err := s.couponRepo.Release(ctx, voucher.CouponCode); err != nil {
			slog.Error("Compensation: failed to release coupon use", "voucherId", voucher.ID.Hex(), "code", voucher.CouponCode, "error", err)
		}
	}
	reverted, err := s.voucherRepo.Transition(ctx, voucher.ID, models.VoucherStatusApproved, models.VoucherStatusPending, "", time.Now())
	if err != nil || !reverted {
		slog.Error("Compensation: failed to return voucher to pending", "voucherId", voucher.ID.Hex(), "error", err)
	}
	voucher.Status = models.VoucherStatusPending
}

// RejectVoucher rejects a pending voucher
func (s *VoucherServiceImpl) RejectVoucher(ctx context.Context, id primitive.ObjectID, reviewer string) (*models.Voucher, error) {
	now := time.Now()
	ok, err := s.voucherRepo.Transition(ctx, id, models.VoucherStatusPending, models.VoucherStatusRejected, reviewer, now)
	if err != nil {
		return nil, fmt.Errorf("failed to reject voucher: %w", err)
	}
	voucher, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrVoucherNotPending
	}
	s.metrics.VoucherOutcome("rejected")
	slog.Info("Voucher rejected", "voucherId", id.Hex(), "reviewer", reviewer)
	return voucher, nil
}

// ListVouchers lists vouchers by status; an empty status lists all
func (s *VoucherServiceImpl) ListVouchers(ctx context.Context, status models.VoucherStatus, page, limit int) ([]*models.Voucher, error) {
	switch status {
	case "", models.VoucherStatusPending, models.VoucherStatusApproved, models.VoucherStatusRejected:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	vouchers, err := s.voucherRepo.FindByStatus(ctx, status, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list vouchers: %w", err)
	}
	return vouchers, nil
}

// ListUserVouchers lists a user's own vouchers
func (s *VoucherServiceImpl) ListUserVouchers(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]*models.Voucher, error) {
	vouchers, err := s.voucherRepo.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list vouchers: %w", err)
	}
	return vouchers, nil
}

func (s *VoucherServiceImpl) find(ctx context.Context, id primitive.ObjectID) (*models.Voucher, error) {
	voucher, err := s.voucherRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("voucher %s: %w", id.Hex(), ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load voucher: %w", err)
	}
	return voucher, nil
}
