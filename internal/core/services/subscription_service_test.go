package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"korfarm-api/internal/adapters/persistence/models"
	"korfarm-api/internal/core/domain"
)

func TestCurrentDerivesExpired(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		sub  *models.Subscription
		want string
	}{
		{name: "no record reports none", sub: nil, want: domain.SubscriptionNone},
		{
			name: "active within window",
			sub:  &models.Subscription{UserID: 1, Status: domain.SubscriptionActive, StartAt: now.AddDate(0, -1, 0), EndAt: now.AddDate(0, 1, 0)},
			want: domain.SubscriptionActive,
		},
		{
			name: "stored active past end reports expired",
			sub:  &models.Subscription{UserID: 1, Status: domain.SubscriptionActive, StartAt: now.AddDate(0, -2, 0), EndAt: now.AddDate(0, -1, 0)},
			want: domain.SubscriptionExpired,
		},
		{
			name: "canceled within window stays canceled",
			sub:  &models.Subscription{UserID: 1, Status: domain.SubscriptionCanceled, StartAt: now.AddDate(0, -1, 0), EndAt: now.AddDate(0, 1, 0)},
			want: domain.SubscriptionCanceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeSubscriptionRepo()
			if tt.sub != nil {
				if err := repo.Create(context.Background(), tt.sub); err != nil {
					t.Fatalf("seed subscription: %v", err)
				}
			}
			svc := NewSubscriptionService(repo)

			view, err := svc.Current(context.Background(), 1)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if view.Status != tt.want {
				t.Fatalf("expected status %q, got %q", tt.want, view.Status)
			}
		})
	}
}

func TestCancelKeepsEndAt(t *testing.T) {
	now := time.Now()
	endAt := now.AddDate(0, 1, 0)
	repo := newFakeSubscriptionRepo()
	if err := repo.Create(context.Background(), &models.Subscription{
		UserID: 1, Status: domain.SubscriptionActive,
		StartAt: now.AddDate(0, -1, 0), EndAt: endAt, NextBillingAt: &endAt,
	}); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
	svc := NewSubscriptionService(repo)

	view, err := svc.Cancel(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Status != domain.SubscriptionCanceled {
		t.Fatalf("expected canceled, got %q", view.Status)
	}
	if view.CanceledAt == nil {
		t.Fatal("expected canceledAt to be stamped")
	}
	if !view.EndAt.Equal(endAt) {
		t.Fatalf("cancel must not shorten endAt: want %v, got %v", endAt, view.EndAt)
	}
	if view.NextBillingAt != nil {
		t.Fatal("expected nextBillingAt to be cleared")
	}
}

func TestCancelWithoutSubscription(t *testing.T) {
	svc := NewSubscriptionService(newFakeSubscriptionRepo())

	if _, err := svc.Cancel(context.Background(), 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestIsEntitled(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		sub  *models.Subscription
		want bool
	}{
		{name: "nil subscription", sub: nil, want: false},
		{
			name: "active within window",
			sub:  &models.Subscription{Status: domain.SubscriptionActive, EndAt: now.AddDate(0, 1, 0)},
			want: true,
		},
		{
			name: "canceled but window still open keeps access",
			sub:  &models.Subscription{Status: domain.SubscriptionCanceled, EndAt: now.AddDate(0, 1, 0)},
			want: true,
		},
		{
			name: "active past window",
			sub:  &models.Subscription{Status: domain.SubscriptionActive, EndAt: now.AddDate(0, -1, 0)},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEntitled(tt.sub, now); got != tt.want {
				t.Fatalf("expected %t, got %t", tt.want, got)
			}
		})
	}
}

func TestRequireActive(t *testing.T) {
	now := time.Now()
	repo := newFakeSubscriptionRepo()
	if err := repo.Create(context.Background(), &models.Subscription{
		UserID: 1, Status: domain.SubscriptionActive,
		StartAt: now.AddDate(0, -1, 0), EndAt: now.AddDate(0, 1, 0),
	}); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
	svc := NewSubscriptionService(repo)
	ctx := context.Background()

	if err := svc.RequireActive(ctx, 1); err != nil {
		t.Fatalf("expected entitled user to pass, got %v", err)
	}
	if err := svc.RequireActive(ctx, 2); !errors.Is(err, domain.ErrPaymentRequired) {
		t.Fatalf("expected PAYMENT_REQUIRED, got %v", err)
	}
}

func TestUpsertOnPaymentExtendsActive(t *testing.T) {
	now := time.Now()
	endAt := now.AddDate(0, 1, 0)
	repo := newFakeSubscriptionRepo()
	sub := &models.Subscription{
		UserID: 1, Status: domain.SubscriptionActive,
		StartAt: now, EndAt: endAt, NextBillingAt: &endAt,
	}
	if err := repo.Create(context.Background(), sub); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
	svc := NewSubscriptionService(repo)

	if err := svc.UpsertOnPayment(context.Background(), nil, 1, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.subscriptions) != 1 {
		t.Fatalf("expected no new row, got %d rows", len(repo.subscriptions))
	}
	wantEnd := endAt.AddDate(0, 1, 0)
	got := repo.subscriptions[0]
	if !got.EndAt.Equal(wantEnd) {
		t.Fatalf("expected endAt %v, got %v", wantEnd, got.EndAt)
	}
	if got.NextBillingAt == nil || !got.NextBillingAt.Equal(wantEnd) {
		t.Fatalf("expected nextBillingAt %v, got %v", wantEnd, got.NextBillingAt)
	}
}

func TestUpsertOnPaymentNewRowStartsAtPriorEnd(t *testing.T) {
	now := time.Now()
	endAt := now.AddDate(0, 1, 0)
	repo := newFakeSubscriptionRepo()
	// Canceled but still in its window: a new payment starts a fresh row
	// at the old window's end rather than extending in place.
	if err := repo.Create(context.Background(), &models.Subscription{
		UserID: 1, Status: domain.SubscriptionCanceled,
		StartAt: now.AddDate(0, -1, 0), EndAt: endAt,
	}); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
	svc := NewSubscriptionService(repo)

	if err := svc.UpsertOnPayment(context.Background(), nil, 1, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.subscriptions) != 2 {
		t.Fatalf("expected a new row, got %d rows", len(repo.subscriptions))
	}
	created := repo.subscriptions[1]
	if !created.StartAt.Equal(endAt) {
		t.Fatalf("expected new window to start at prior end %v, got %v", endAt, created.StartAt)
	}
	if !created.EndAt.Equal(endAt.AddDate(0, 1, 0)) {
		t.Fatalf("expected one-month window, got end %v", created.EndAt)
	}
	if created.Status != domain.SubscriptionActive {
		t.Fatalf("expected active status, got %q", created.Status)
	}
}

func TestUpsertOnPaymentAfterExpiryStartsNow(t *testing.T) {
	now := time.Now()
	repo := newFakeSubscriptionRepo()
	if err := repo.Create(context.Background(), &models.Subscription{
		UserID: 1, Status: domain.SubscriptionActive,
		StartAt: now.AddDate(0, -2, 0), EndAt: now.AddDate(0, -1, 0),
	}); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
	svc := NewSubscriptionService(repo)

	if err := svc.UpsertOnPayment(context.Background(), nil, 1, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	created := repo.subscriptions[len(repo.subscriptions)-1]
	if !created.StartAt.Equal(now) {
		t.Fatalf("expected new window to start now, got %v", created.StartAt)
	}
}

func TestSubscriptionMonotonicity(t *testing.T) {
	now := time.Now()
	repo := newFakeSubscriptionRepo()
	svc := NewSubscriptionService(repo)
	ctx := context.Background()

	var prevEnd time.Time
	for i := 0; i < 3; i++ {
		if err := svc.UpsertOnPayment(ctx, nil, 1, now); err != nil {
			t.Fatalf("payment %d failed: %v", i+1, err)
		}
		current, err := repo.GetCurrentByUser(ctx, 1)
		if err != nil {
			t.Fatalf("read current: %v", err)
		}
		if i > 0 && !current.EndAt.Equal(prevEnd.AddDate(0, 1, 0)) {
			t.Fatalf("payment %d: expected endAt %v, got %v", i+1, prevEnd.AddDate(0, 1, 0), current.EndAt)
		}
		prevEnd = current.EndAt
	}

	if len(repo.subscriptions) != 1 {
		t.Fatalf("expected repeated payments to extend one row, got %d rows", len(repo.subscriptions))
	}
}
