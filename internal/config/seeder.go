package config

import (
	"log"

	"korfarm-api/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// SeedCoreData seeds the headquarters org and the default feature flags.
// Idempotent: existing rows are left untouched so admin edits survive restarts.
func SeedCoreData(db *gorm.DB, cfg *Config) error {
	log.Println("🌱 Running database seeders...")

	if err := seedHQOrg(db, cfg); err != nil {
		return err
	}
	if err := seedFeatureFlags(db); err != nil {
		return err
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedHQOrg ensures the distinguished headquarters org exists
func seedHQOrg(db *gorm.DB, cfg *Config) error {
	org := &models.Org{
		ID:      cfg.Org.HQOrgID,
		Name:    "Headquarters",
		Status:  "active",
		OrgType: "hq",
	}
	return db.Where(models.Org{ID: cfg.Org.HQOrgID}).FirstOrCreate(org).Error
}

// seedFeatureFlags ensures the flags the payment surface consults exist.
// The kill switch is seeded disabled: enabling it turns payments OFF.
func seedFeatureFlags(db *gorm.DB) error {
	flags := []models.FeatureFlag{
		{FlagKey: "feature.payments.subscription", Enabled: true, RolloutPercent: 100, Description: "Subscription checkout"},
		{FlagKey: "feature.payments.shop", Enabled: true, RolloutPercent: 100, Description: "Shop checkout"},
		{FlagKey: "ops.kill_switch.payments", Enabled: false, RolloutPercent: 0, Description: "Kill switch: enabled means payments are down"},
	}

	for i := range flags {
		flag := flags[i]
		if err := db.Where(models.FeatureFlag{FlagKey: flag.FlagKey}).FirstOrCreate(&flag).Error; err != nil {
			return err
		}
	}
	return nil
}
