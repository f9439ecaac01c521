package services

import (
	"context"
	"log"
	"time"

	"korfarm-api/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// CronService runs the scheduled maintenance jobs
type CronService struct {
	cron             *cron.Cron
	refreshTokenRepo repositories.RefreshTokenRepository
}

// NewCronService creates a new cron service
func NewCronService(db *gorm.DB) *CronService {
	return &CronService{
		cron:             cron.New(),
		refreshTokenRepo: repositories.NewRefreshTokenRepository(db),
	}
}

// Start registers and starts the scheduled jobs
func (s *CronService) Start() {
	// Purge expired refresh-token rows daily at 04:00.
	// Revoked-but-unexpired rows are kept until expiry so replay attempts
	// still hit a recognizable revoked row.
	_, err := s.cron.AddFunc("0 4 * * *", s.purgeExpiredRefreshTokens)
	if err != nil {
		log.Printf("❌ Failed to register refresh-token purge job: %v", err)
		return
	}

	s.cron.Start()
	log.Println("✅ Cron service started (refresh-token purge daily at 04:00)")
}

// Stop stops the scheduler
func (s *CronService) Stop() {
	s.cron.Stop()
	log.Println("🛑 Cron service stopped")
}

func (s *CronService) purgeExpiredRefreshTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.refreshTokenRepo.DeleteExpired(ctx); err != nil {
		log.Printf("⚠️  Refresh-token purge failed: %v", err)
		return
	}
	log.Println("✅ Expired refresh tokens purged")
}
