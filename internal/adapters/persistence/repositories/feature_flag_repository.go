package repositories

import (
	"context"

	"korfarm-api/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// featureFlagRepository implements FeatureFlagRepository interface
type featureFlagRepository struct {
	db *gorm.DB
}

// NewFeatureFlagRepository creates a new feature flag repository
func NewFeatureFlagRepository(db *gorm.DB) FeatureFlagRepository {
	return &featureFlagRepository{db: db}
}

// GetByKey gets a flag by its key
func (r *featureFlagRepository) GetByKey(ctx context.Context, key string) (*models.FeatureFlag, error) {
	var flag models.FeatureFlag
	err := r.db.WithContext(ctx).Where("flag_key = ?", key).First(&flag).Error
	if err != nil {
		return nil, err
	}
	return &flag, nil
}

// List lists all flags ordered by key
func (r *featureFlagRepository) List(ctx context.Context) ([]*models.FeatureFlag, error) {
	var flags []*models.FeatureFlag
	err := r.db.WithContext(ctx).Order("flag_key ASC").Find(&flags).Error
	if err != nil {
		return nil, err
	}
	return flags, nil
}

// Save creates or updates a flag
func (r *featureFlagRepository) Save(ctx context.Context, flag *models.FeatureFlag) error {
	return r.db.WithContext(ctx).Save(flag).Error
}
