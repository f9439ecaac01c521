package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log"

	"korfarm-api/internal/adapters/persistence/models"
	"korfarm-api/internal/adapters/persistence/repositories"
	"korfarm-api/internal/core/domain"

	"gorm.io/gorm"
)

// Flag keys consulted by the payment surface
const (
	FlagSubscriptionCheckout = "feature.payments.subscription"
	FlagShopCheckout         = "feature.payments.shop"
	FlagPaymentsKillSwitch   = "ops.kill_switch.payments"
)

// FeatureFlagService evaluates rollout and kill-switch flags
type FeatureFlagService struct {
	flagRepo repositories.FeatureFlagRepository
}

// NewFeatureFlagService creates a new feature flag service
func NewFeatureFlagService(flagRepo repositories.FeatureFlagRepository) *FeatureFlagService {
	return &FeatureFlagService{flagRepo: flagRepo}
}

// UpdateFlagInput represents a partial flag update. Nil fields are untouched.
type UpdateFlagInput struct {
	Enabled        *bool   `json:"enabled"`
	RolloutPercent *int    `json:"rolloutPercent"`
	Description    *string `json:"description"`
}

// rolloutBucket maps (flagKey, userID) to a deterministic bucket in [1,100].
// Same inputs, same bucket: a user's exposure to a flag never flaps.
func rolloutBucket(flagKey string, userID uint) int {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s:%d", flagKey, userID)
	return int(h.Sum32()%100) + 1
}

// IsEnabled evaluates a flag for a user. userID 0 means no user is bound to
// the call; rollout cannot bucket an anonymous caller so an enabled flag
// default-permits.
func (s *FeatureFlagService) IsEnabled(ctx context.Context, flagKey string, userID uint) (bool, error) {
	flag, err := s.flagRepo.GetByKey(ctx, flagKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	if !flag.Enabled || flag.RolloutPercent <= 0 {
		return false, nil
	}
	if flag.RolloutPercent >= 100 {
		return true, nil
	}
	if userID == 0 {
		return true, nil
	}

	return rolloutBucket(flagKey, userID) <= flag.RolloutPercent, nil
}

// RequireEnabled fails with FEATURE_DISABLED when the flag does not pass
func (s *FeatureFlagService) RequireEnabled(ctx context.Context, flagKey string, userID uint) error {
	enabled, err := s.IsEnabled(ctx, flagKey, userID)
	if err != nil {
		return err
	}
	if !enabled {
		return domain.ErrFeatureDisabled
	}
	return nil
}

// RequireNotKilled guards a feature behind a kill switch. Polarity is
// inverted versus RequireEnabled: an ENABLED kill-switch flag means the
// feature is forcibly down. A missing flag means nothing is killed.
func (s *FeatureFlagService) RequireNotKilled(ctx context.Context, flagKey string) error {
	flag, err := s.flagRepo.GetByKey(ctx, flagKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if flag.Enabled {
		return domain.ErrServiceUnavailable
	}
	return nil
}

// List returns all flags for the admin surface
func (s *FeatureFlagService) List(ctx context.Context) ([]*models.FeatureFlag, error) {
	return s.flagRepo.List(ctx)
}

// Update applies a partial update to a flag
func (s *FeatureFlagService) Update(ctx context.Context, flagKey string, input *UpdateFlagInput) (*models.FeatureFlag, error) {
	flag, err := s.flagRepo.GetByKey(ctx, flagKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if input.Enabled != nil {
		flag.Enabled = *input.Enabled
	}
	if input.RolloutPercent != nil {
		if *input.RolloutPercent < 0 || *input.RolloutPercent > 100 {
			return nil, domain.NewValidationError("rolloutPercent must be between 0 and 100")
		}
		flag.RolloutPercent = *input.RolloutPercent
	}
	if input.Description != nil {
		flag.Description = *input.Description
	}

	if err := s.flagRepo.Save(ctx, flag); err != nil {
		return nil, err
	}

	log.Printf("✅ Feature flag updated: %s (enabled=%t, rollout=%d%%)", flag.FlagKey, flag.Enabled, flag.RolloutPercent)
	return flag, nil
}
