package services

import (
	"context"
	"errors"
	"log"
	"time"

	"korfarm-api/internal/adapters/persistence/models"
	"korfarm-api/internal/adapters/persistence/repositories"
	"korfarm-api/internal/core/domain"

	"gorm.io/gorm"
)

// SubscriptionService tracks the user's paid-access window.
// "expired" is derived at read time from end_at, never stored.
type SubscriptionService struct {
	subscriptionRepo repositories.SubscriptionRepository
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(subscriptionRepo repositories.SubscriptionRepository) *SubscriptionService {
	return &SubscriptionService{subscriptionRepo: subscriptionRepo}
}

// SubscriptionView is the derived view of a user's current subscription
type SubscriptionView struct {
	Status        string     `json:"status"`
	StartAt       *time.Time `json:"startAt,omitempty"`
	EndAt         *time.Time `json:"endAt,omitempty"`
	NextBillingAt *time.Time `json:"nextBillingAt,omitempty"`
	CanceledAt    *time.Time `json:"canceledAt,omitempty"`
}

// effectiveStatus derives the reported status: past end_at means expired
// no matter what is stored.
func effectiveStatus(sub *models.Subscription, now time.Time) string {
	if now.After(sub.EndAt) {
		return domain.SubscriptionExpired
	}
	return sub.Status
}

// IsEntitled reports whether the subscription still grants access: the
// window must not have ended and the stored status must be active or
// canceled (cancel-at-period-end keeps access until end_at).
func IsEntitled(sub *models.Subscription, now time.Time) bool {
	if sub == nil || !sub.EndAt.After(now) {
		return false
	}
	return sub.Status == domain.SubscriptionActive || sub.Status == domain.SubscriptionCanceled
}

// Current returns the derived view of the user's latest subscription,
// or status "none" when no record exists.
func (s *SubscriptionService) Current(ctx context.Context, userID uint) (*SubscriptionView, error) {
	sub, err := s.subscriptionRepo.GetCurrentByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &SubscriptionView{Status: domain.SubscriptionNone}, nil
		}
		return nil, err
	}

	return &SubscriptionView{
		Status:        effectiveStatus(sub, time.Now()),
		StartAt:       &sub.StartAt,
		EndAt:         &sub.EndAt,
		NextBillingAt: sub.NextBillingAt,
		CanceledAt:    sub.CanceledAt,
	}, nil
}

// Cancel marks the current subscription canceled at period end. end_at is
// left alone: access continues until the window naturally closes.
func (s *SubscriptionService) Cancel(ctx context.Context, userID uint) (*SubscriptionView, error) {
	sub, err := s.subscriptionRepo.GetCurrentByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	now := time.Now()
	sub.Status = domain.SubscriptionCanceled
	sub.CanceledAt = &now
	sub.NextBillingAt = nil
	if err := s.subscriptionRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	log.Printf("✅ Subscription canceled for user %d (access until %s)", userID, sub.EndAt.Format(time.RFC3339))

	return &SubscriptionView{
		Status:        effectiveStatus(sub, now),
		StartAt:       &sub.StartAt,
		EndAt:         &sub.EndAt,
		NextBillingAt: sub.NextBillingAt,
		CanceledAt:    sub.CanceledAt,
	}, nil
}

// RequireActive fails with PAYMENT_REQUIRED when no entitled subscription
// exists for the user.
func (s *SubscriptionService) RequireActive(ctx context.Context, userID uint) error {
	sub, err := s.subscriptionRepo.GetCurrentByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrPaymentRequired
		}
		return err
	}
	if !IsEntitled(sub, time.Now()) {
		return domain.ErrPaymentRequired
	}
	return nil
}

// UpsertOnPayment applies a successful subscription payment, inside the
// caller's transaction. An entitled active subscription is extended by one
// billing month; otherwise a new row starts at now, or at the prior end_at
// when that is still in the future (no gap, no double-billed overlap).
func (s *SubscriptionService) UpsertOnPayment(ctx context.Context, tx *gorm.DB, userID uint, now time.Time) error {
	repo := s.subscriptionRepo.WithTx(tx)

	current, err := repo.GetCurrentByUser(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if current != nil && IsEntitled(current, now) && current.Status == domain.SubscriptionActive {
		extended := current.EndAt.AddDate(0, 1, 0)
		current.EndAt = extended
		current.NextBillingAt = &extended
		return repo.Update(ctx, current)
	}

	startAt := now
	if current != nil && current.EndAt.After(now) {
		startAt = current.EndAt
	}
	endAt := startAt.AddDate(0, 1, 0)

	return repo.Create(ctx, &models.Subscription{
		UserID:        userID,
		Status:        domain.SubscriptionActive,
		StartAt:       startAt,
		EndAt:         endAt,
		NextBillingAt: &endAt,
	})
}
