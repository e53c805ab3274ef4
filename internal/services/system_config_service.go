package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ArowuTest/raffle-backend/internal/engine"
	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/internal/repositories"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure SystemConfigServiceImpl implements SystemConfigService
var _ SystemConfigService = (*SystemConfigServiceImpl)(nil)

// SystemConfigServiceImpl manages the singleton raffle settings document
type SystemConfigServiceImpl struct {
	configRepo repositories.SystemConfigRepository
	raffleRepo repositories.RaffleRepository
}

// NewSystemConfigService creates a new SystemConfigServiceImpl
func NewSystemConfigService(configRepo repositories.SystemConfigRepository, raffleRepo repositories.RaffleRepository) *SystemConfigServiceImpl {
	return &SystemConfigServiceImpl{
		configRepo: configRepo,
		raffleRepo: raffleRepo,
	}
}

// GetSettings returns the stored settings, persisting the defaults if none exist yet
func (s *SystemConfigServiceImpl) GetSettings(ctx context.Context) (*models.SystemConfig, error) {
	cfg, err := s.configRepo.FindByKey(ctx, models.SystemConfigKey)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	cfg = models.DefaultSystemConfig()
	cfg.UpdatedBy = "system"
	if err := s.configRepo.Upsert(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to create default settings: %w", err)
	}
	slog.Info("Created default raffle settings", "blockValue", cfg.BlockValue, "numbersPerBlock", cfg.NumbersPerBlock)
	return cfg, nil
}

// UpdateSettings validates and stores new settings
func (s *SystemConfigServiceImpl) UpdateSettings(ctx context.Context, input SettingsInput, updatedBy string) (*models.SystemConfig, error) {
	switch {
	case input.MinDepositAmount <= 0:
		return nil, fmt.Errorf("%w: minDepositAmount must be greater than zero", ErrInvalidInput)
	case input.BlockValue <= 0:
		return nil, fmt.Errorf("%w: blockValue must be greater than zero", ErrInvalidInput)
	case input.NumbersPerBlock < 1:
		return nil, fmt.Errorf("%w: numbersPerBlock must be at least 1", ErrInvalidInput)
	}

	cfg := &models.SystemConfig{
		Key:                 models.SystemConfigKey,
		MinDepositAmount:    input.MinDepositAmount,
		BlockValue:          input.BlockValue,
		NumbersPerBlock:     input.NumbersPerBlock,
		AIValidationEnabled: input.AIValidationEnabled,
		UpdatedBy:           updatedBy,
	}
	if err := s.configRepo.Upsert(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}
	slog.Info("Raffle settings updated", "updatedBy", updatedBy, "minDeposit", cfg.MinDepositAmount,
		"blockValue", cfg.BlockValue, "numbersPerBlock", cfg.NumbersPerBlock, "aiValidation", cfg.AIValidationEnabled)
	return cfg, nil
}

// NumbersForAmount previews the allocation for amount under the open raffle's configuration
func (s *SystemConfigServiceImpl) NumbersForAmount(ctx context.Context, amount float64) (*NumbersPreview, error) {
	if amount < 0 || !engine.IsFiniteAmount(amount) {
		return nil, fmt.Errorf("%w: amount must be a non-negative number", ErrInvalidInput)
	}
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	var raffleCfg *models.RaffleConfig
	raffle, err := s.raffleRepo.FindOpen(ctx)
	switch {
	case err == nil:
		raffleCfg = raffle.Config
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, fmt.Errorf("failed to load open raffle: %w", err)
	}

	cfg := engine.Resolve(settings, raffleCfg)
	return &NumbersPreview{
		Amount:           amount,
		Numbers:          engine.NumbersFor(amount, cfg),
		MinDepositAmount: settings.MinDepositAmount,
		Config:           cfg,
	}, nil
}
