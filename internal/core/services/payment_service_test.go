package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"korfarm-api/internal/adapters/persistence/models"
	"korfarm-api/internal/core/domain"
)

type paymentFixture struct {
	svc              *PaymentService
	paymentRepo      *fakePaymentRepo
	orderRepo        *fakeOrderRepo
	productRepo      *fakeProductRepo
	shipmentRepo     *fakeShipmentRepo
	subscriptionRepo *fakeSubscriptionRepo
}

func newPaymentFixture(products ...*models.Product) *paymentFixture {
	paymentRepo := newFakePaymentRepo()
	orderRepo := newFakeOrderRepo()
	productRepo := newFakeProductRepo(products...)
	shipmentRepo := newFakeShipmentRepo()
	subscriptionRepo := newFakeSubscriptionRepo()

	return &paymentFixture{
		svc: NewPaymentService(
			paymentRepo, orderRepo, productRepo, shipmentRepo,
			NewSubscriptionService(subscriptionRepo), fakeTxManager{},
		),
		paymentRepo:      paymentRepo,
		orderRepo:        orderRepo,
		productRepo:      productRepo,
		shipmentRepo:     shipmentRepo,
		subscriptionRepo: subscriptionRepo,
	}
}

func uintPtr(v uint) *uint { return &v }
func boolPtr(v bool) *bool { return &v }

func TestCheckoutSubscription(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()

	payment, err := f.svc.CheckoutSubscription(ctx, 1, &CheckoutInput{Method: "CARD", Amount: 19000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.PaymentType != domain.PaymentTypeSubscription {
		t.Fatalf("expected subscription payment, got %q", payment.PaymentType)
	}
	if payment.Status != domain.PaymentStatusPaid {
		t.Fatalf("expected paid status, got %q", payment.Status)
	}
	if payment.ProviderRef == "" {
		t.Fatal("expected a provider reference")
	}

	// The payment started a subscription window
	sub, err := f.subscriptionRepo.GetCurrentByUser(ctx, 1)
	if err != nil {
		t.Fatalf("expected a subscription row: %v", err)
	}
	if !IsEntitled(sub, time.Now()) {
		t.Fatal("expected the new subscription to grant access")
	}
}

func TestCheckoutSubscriptionRejections(t *testing.T) {
	tests := []struct {
		name     string
		input    *CheckoutInput
		wantErr  error
		wantCode string
	}{
		{
			name:    "unsupported method",
			input:   &CheckoutInput{Method: "bank_transfer", Amount: 19000},
			wantErr: domain.ErrPaymentMethodUnsupported,
		},
		{
			name:     "order id not allowed",
			input:    &CheckoutInput{Method: "card", Amount: 19000, OrderID: uintPtr(5)},
			wantCode: "INVALID_REQUEST",
		},
		{
			name:     "explicitly non-subscription",
			input:    &CheckoutInput{Method: "card", Amount: 19000, IsSubscription: boolPtr(false)},
			wantCode: "INVALID_REQUEST",
		},
		{
			name:     "non-positive amount",
			input:    &CheckoutInput{Method: "card", Amount: 0},
			wantCode: "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentFixture()
			_, err := f.svc.CheckoutSubscription(context.Background(), 1, tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			var de *domain.Error
			if !errors.As(err, &de) || de.Code != tt.wantCode {
				t.Fatalf("expected code %q, got %v", tt.wantCode, err)
			}
			if len(f.paymentRepo.payments) != 0 {
				t.Fatal("expected no payment row on rejection")
			}
		})
	}
}

func TestCheckoutMethodCaseInsensitive(t *testing.T) {
	for _, method := range []string{"card", "CARD", "Card", " card "} {
		f := newPaymentFixture()
		if _, err := f.svc.CheckoutSubscription(context.Background(), 1, &CheckoutInput{Method: method, Amount: 19000}); err != nil {
			t.Fatalf("method %q should be accepted: %v", method, err)
		}
	}
}

func seedOrder(f *paymentFixture, order *models.Order, items ...*models.OrderItem) {
	f.orderRepo.orders[order.ID] = order
	f.orderRepo.items[order.ID] = items
}

func TestCheckoutShop(t *testing.T) {
	f := newPaymentFixture(
		&models.Product{ID: 10, Name: "Workbook", Price: 5000, Stock: 3, Status: "active"},
		&models.Product{ID: 11, Name: "Pencil set", Price: 2500, Stock: 10, Status: "active"},
	)
	seedOrder(f,
		&models.Order{ID: 1, UserID: 1, Status: domain.OrderPending, TotalAmount: 15000},
		&models.OrderItem{OrderID: 1, ProductID: 10, Quantity: 2, UnitPrice: 5000},
		&models.OrderItem{OrderID: 1, ProductID: 11, Quantity: 2, UnitPrice: 2500},
	)
	ctx := context.Background()

	payment, err := f.svc.CheckoutShop(ctx, 1, &CheckoutInput{Method: "card", Amount: 15000, OrderID: uintPtr(1)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.PaymentType != domain.PaymentTypeShop {
		t.Fatalf("expected shop payment, got %q", payment.PaymentType)
	}
	if f.orderRepo.orders[1].Status != domain.OrderPaid {
		t.Fatalf("expected order paid, got %q", f.orderRepo.orders[1].Status)
	}
	if f.productRepo.products[10].Stock != 1 || f.productRepo.products[11].Stock != 8 {
		t.Fatalf("expected stock decremented, got %d and %d",
			f.productRepo.products[10].Stock, f.productRepo.products[11].Stock)
	}
	if !f.shipmentRepo.paidOrders[1] {
		t.Fatal("expected shipment advanced to paid")
	}
}

func TestCheckoutShopRejections(t *testing.T) {
	tests := []struct {
		name    string
		order   *models.Order
		items   []*models.OrderItem
		input   *CheckoutInput
		wantErr error
	}{
		{
			name:    "missing order id",
			input:   &CheckoutInput{Method: "card", Amount: 15000},
			wantErr: nil, // INVALID_REQUEST, checked by code below
		},
		{
			name:    "order owned by someone else",
			order:   &models.Order{ID: 1, UserID: 99, Status: domain.OrderPending, TotalAmount: 15000},
			items:   []*models.OrderItem{{OrderID: 1, ProductID: 10, Quantity: 1, UnitPrice: 5000}},
			input:   &CheckoutInput{Method: "card", Amount: 15000, OrderID: uintPtr(1)},
			wantErr: domain.ErrForbidden,
		},
		{
			name:    "already paid order",
			order:   &models.Order{ID: 1, UserID: 1, Status: domain.OrderPaid, TotalAmount: 15000},
			items:   []*models.OrderItem{{OrderID: 1, ProductID: 10, Quantity: 1, UnitPrice: 5000}},
			input:   &CheckoutInput{Method: "card", Amount: 15000, OrderID: uintPtr(1)},
			wantErr: domain.ErrAlreadyPaid,
		},
		{
			name:    "amount mismatch",
			order:   &models.Order{ID: 1, UserID: 1, Status: domain.OrderPending, TotalAmount: 15000},
			items:   []*models.OrderItem{{OrderID: 1, ProductID: 10, Quantity: 1, UnitPrice: 5000}},
			input:   &CheckoutInput{Method: "card", Amount: 14000, OrderID: uintPtr(1)},
			wantErr: domain.ErrAmountMismatch,
		},
		{
			name:    "insufficient stock",
			order:   &models.Order{ID: 1, UserID: 1, Status: domain.OrderPending, TotalAmount: 15000},
			items:   []*models.OrderItem{{OrderID: 1, ProductID: 10, Quantity: 100, UnitPrice: 150}},
			input:   &CheckoutInput{Method: "card", Amount: 15000, OrderID: uintPtr(1)},
			wantErr: domain.ErrOutOfStock,
		},
		{
			name:    "marked as subscription",
			order:   &models.Order{ID: 1, UserID: 1, Status: domain.OrderPending, TotalAmount: 15000},
			items:   []*models.OrderItem{{OrderID: 1, ProductID: 10, Quantity: 1, UnitPrice: 5000}},
			input:   &CheckoutInput{Method: "card", Amount: 15000, OrderID: uintPtr(1), IsSubscription: boolPtr(true)},
			wantErr: nil, // INVALID_REQUEST
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentFixture(
				&models.Product{ID: 10, Name: "Workbook", Price: 5000, Stock: 3, Status: "active"},
			)
			if tt.order != nil {
				seedOrder(f, tt.order, tt.items...)
			}

			_, err := f.svc.CheckoutShop(context.Background(), 1, tt.input)
			if err == nil {
				t.Fatal("expected rejection")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if len(f.paymentRepo.payments) != 0 {
				t.Fatal("expected no payment row on rejection")
			}
			if f.productRepo.products[10].Stock != 3 {
				t.Fatalf("expected stock untouched, got %d", f.productRepo.products[10].Stock)
			}
			if tt.order != nil && tt.order.Status == domain.OrderPending && f.orderRepo.orders[1].Status != domain.OrderPending {
				t.Fatal("expected order to stay pending")
			}
		})
	}
}

func TestCheckoutShopInactiveProduct(t *testing.T) {
	f := newPaymentFixture(
		&models.Product{ID: 10, Name: "Discontinued", Price: 5000, Stock: 3, Status: "inactive"},
	)
	seedOrder(f,
		&models.Order{ID: 1, UserID: 1, Status: domain.OrderPending, TotalAmount: 5000},
		&models.OrderItem{OrderID: 1, ProductID: 10, Quantity: 1, UnitPrice: 5000},
	)

	_, err := f.svc.CheckoutShop(context.Background(), 1, &CheckoutInput{Method: "card", Amount: 5000, OrderID: uintPtr(1)})
	var de *domain.Error
	if !errors.As(err, &de) || de.Code != "INVALID_ORDER" {
		t.Fatalf("expected INVALID_ORDER, got %v", err)
	}
}

func TestCheckoutShopEmptyOrder(t *testing.T) {
	f := newPaymentFixture()
	seedOrder(f, &models.Order{ID: 1, UserID: 1, Status: domain.OrderPending, TotalAmount: 0})

	_, err := f.svc.CheckoutShop(context.Background(), 1, &CheckoutInput{Method: "card", Amount: 0, OrderID: uintPtr(1)})
	var de *domain.Error
	if !errors.As(err, &de) || de.Code != "INVALID_ORDER" {
		t.Fatalf("expected INVALID_ORDER, got %v", err)
	}
}

func TestCheckoutShopDoubleSubmit(t *testing.T) {
	f := newPaymentFixture(
		&models.Product{ID: 10, Name: "Workbook", Price: 5000, Stock: 3, Status: "active"},
	)
	seedOrder(f,
		&models.Order{ID: 1, UserID: 1, Status: domain.OrderPending, TotalAmount: 5000},
		&models.OrderItem{OrderID: 1, ProductID: 10, Quantity: 1, UnitPrice: 5000},
	)
	ctx := context.Background()
	input := &CheckoutInput{Method: "card", Amount: 5000, OrderID: uintPtr(1)}

	if _, err := f.svc.CheckoutShop(ctx, 1, input); err != nil {
		t.Fatalf("first checkout failed: %v", err)
	}
	if _, err := f.svc.CheckoutShop(ctx, 1, input); !errors.Is(err, domain.ErrAlreadyPaid) {
		t.Fatalf("expected ALREADY_PAID on resubmit, got %v", err)
	}

	if len(f.paymentRepo.payments) != 1 {
		t.Fatalf("expected exactly one payment row, got %d", len(f.paymentRepo.payments))
	}
	if f.productRepo.products[10].Stock != 2 {
		t.Fatalf("expected a single decrement, got stock %d", f.productRepo.products[10].Stock)
	}
}

func TestSuccessiveSubscriptionCheckoutsExtend(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()

	var prevEnd time.Time
	for i := 0; i < 3; i++ {
		if _, err := f.svc.CheckoutSubscription(ctx, 1, &CheckoutInput{Method: "card", Amount: 19000}); err != nil {
			t.Fatalf("checkout %d failed: %v", i+1, err)
		}
		sub, err := f.subscriptionRepo.GetCurrentByUser(ctx, 1)
		if err != nil {
			t.Fatalf("read subscription: %v", err)
		}
		if i > 0 && !sub.EndAt.Equal(prevEnd.AddDate(0, 1, 0)) {
			t.Fatalf("checkout %d: expected endAt %v, got %v", i+1, prevEnd.AddDate(0, 1, 0), sub.EndAt)
		}
		prevEnd = sub.EndAt
	}

	if len(f.subscriptionRepo.subscriptions) != 1 {
		t.Fatalf("expected one evolving subscription row, got %d", len(f.subscriptionRepo.subscriptions))
	}
	if len(f.paymentRepo.payments) != 3 {
		t.Fatalf("expected three ledger rows, got %d", len(f.paymentRepo.payments))
	}
}

func TestListByUserFiltersOwner(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()

	if _, err := f.svc.CheckoutSubscription(ctx, 1, &CheckoutInput{Method: "card", Amount: 19000}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if _, err := f.svc.CheckoutSubscription(ctx, 2, &CheckoutInput{Method: "card", Amount: 19000}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	mine, err := f.svc.ListByUser(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mine) != 1 || mine[0].UserID != 1 {
		t.Fatalf("expected only user 1's payments, got %+v", mine)
	}
}
