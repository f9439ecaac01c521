package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"korfarm-api/internal/adapters/persistence/models"
	"korfarm-api/internal/adapters/persistence/repositories"
	"korfarm-api/internal/core/domain"
	"korfarm-api/internal/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// paymentProvider is the charge backend name stamped on ledger rows.
// A real PG integration would replace this constant with an adapter.
const paymentProvider = "mock"

// PaymentService runs the two checkout flows and the payment listings.
// Shop checkout commits payment, stock, order and shipment writes as one
// transaction through the TxManager.
type PaymentService struct {
	paymentRepo         repositories.PaymentRepository
	orderRepo           repositories.OrderRepository
	productRepo         repositories.ProductRepository
	shipmentRepo        repositories.ShipmentRepository
	subscriptionService *SubscriptionService
	txManager           repositories.TxManager
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	paymentRepo repositories.PaymentRepository,
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	shipmentRepo repositories.ShipmentRepository,
	subscriptionService *SubscriptionService,
	txManager repositories.TxManager,
) *PaymentService {
	return &PaymentService{
		paymentRepo:         paymentRepo,
		orderRepo:           orderRepo,
		productRepo:         productRepo,
		shipmentRepo:        shipmentRepo,
		subscriptionService: subscriptionService,
		txManager:           txManager,
	}
}

// CheckoutInput represents a checkout request
type CheckoutInput struct {
	Method         string `json:"method"`
	Amount         int    `json:"amount"`
	OrderID        *uint  `json:"orderId"`
	IsSubscription *bool  `json:"isSubscription"`
}

// PaymentView is the ledger row returned to clients
type PaymentView struct {
	ID          uint      `json:"id"`
	UserID      uint      `json:"userId"`
	PaymentType string    `json:"paymentType"`
	Amount      int       `json:"amount"`
	Status      string    `json:"status"`
	Provider    string    `json:"provider"`
	ProviderRef string    `json:"providerRef,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toPaymentView(p *models.Payment) *PaymentView {
	return &PaymentView{
		ID:          p.ID,
		UserID:      p.UserID,
		PaymentType: p.PaymentType,
		Amount:      p.Amount,
		Status:      p.Status,
		Provider:    p.Provider,
		ProviderRef: p.ProviderRef,
		CreatedAt:   p.CreatedAt,
	}
}

// validateMethod accepts card in any casing, nothing else
func validateMethod(method string) error {
	if !strings.EqualFold(strings.TrimSpace(method), "card") {
		return domain.ErrPaymentMethodUnsupported
	}
	return nil
}

// CheckoutSubscription charges one subscription period and applies the
// subscription upsert rule.
func (s *PaymentService) CheckoutSubscription(ctx context.Context, userID uint, input *CheckoutInput) (*PaymentView, error) {
	// 1. Card only
	if err := validateMethod(input.Method); err != nil {
		return nil, err
	}

	// 2. A subscription checkout carries no shop order
	if input.OrderID != nil {
		return nil, domain.NewInvalidRequestError("orderId not allowed for subscription checkout")
	}
	if input.IsSubscription != nil && !*input.IsSubscription {
		return nil, domain.NewInvalidRequestError("request marked non-subscription")
	}
	if input.Amount <= 0 {
		return nil, domain.NewValidationError("amount must be positive")
	}

	// 3. Ledger row and subscription window commit together
	now := time.Now()
	payment := &models.Payment{
		UserID:      userID,
		PaymentType: domain.PaymentTypeSubscription,
		Amount:      input.Amount,
		Status:      domain.PaymentStatusPaid,
		Provider:    paymentProvider,
		ProviderRef: uuid.New().String(),
	}

	err := s.txManager.RunInTx(ctx, func(tx *gorm.DB) error {
		if err := s.paymentRepo.WithTx(tx).Create(ctx, payment); err != nil {
			return err
		}
		return s.subscriptionService.UpsertOnPayment(ctx, tx, userID, now)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Subscription payment %d recorded for user %d (%d)", payment.ID, userID, payment.Amount)
	return toPaymentView(payment), nil
}

// CheckoutShop charges a pending shop order: validates it, then commits the
// payment row, the per-line stock decrements, the order transition and the
// shipment advance as one transaction. Any failed decrement aborts the whole
// checkout.
func (s *PaymentService) CheckoutShop(ctx context.Context, userID uint, input *CheckoutInput) (*PaymentView, error) {
	// 1. Card only, and it must not claim to be a subscription
	if err := validateMethod(input.Method); err != nil {
		return nil, err
	}
	if input.IsSubscription != nil && *input.IsSubscription {
		return nil, domain.NewInvalidRequestError("request marked as subscription")
	}
	if input.OrderID == nil {
		return nil, domain.NewInvalidRequestError("orderId is required")
	}

	// 2. Load and validate the order outside the transaction
	order, err := s.orderRepo.GetByID(ctx, *input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	items, err := s.orderRepo.GetItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	products, err := s.loadOrderProducts(ctx, items)
	if err != nil {
		return nil, err
	}
	if err := validateShopOrder(userID, input.Amount, order, items, products); err != nil {
		return nil, err
	}

	// 3. Commit everything or nothing
	payment := &models.Payment{
		UserID:      userID,
		PaymentType: domain.PaymentTypeShop,
		Amount:      input.Amount,
		Status:      domain.PaymentStatusPaid,
		Provider:    paymentProvider,
		ProviderRef: uuid.New().String(),
	}

	err = s.txManager.RunInTx(ctx, func(tx *gorm.DB) error {
		// The conditional decrement re-checks stock inside the
		// transaction, so two racing checkouts cannot both win.
		productRepo := s.productRepo.WithTx(tx)
		for _, item := range items {
			ok, err := productRepo.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrOutOfStock
			}
		}

		ok, err := s.orderRepo.WithTx(tx).MarkPaid(ctx, order.ID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrAlreadyPaid
		}

		if err := s.paymentRepo.WithTx(tx).Create(ctx, payment); err != nil {
			return err
		}
		return s.shipmentRepo.WithTx(tx).MarkPaidByOrder(ctx, order.ID)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Shop payment %d recorded for order %d (user %d, %d)", payment.ID, order.ID, userID, payment.Amount)
	return toPaymentView(payment), nil
}

// loadOrderProducts fetches the products referenced by the order lines
func (s *PaymentService) loadOrderProducts(ctx context.Context, items []*models.OrderItem) (map[uint]*models.Product, error) {
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	if len(ids) == 0 {
		return map[uint]*models.Product{}, nil
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID, nil
}

// validateShopOrder checks everything about the order that can be checked
// before the transaction starts. Pure: no I/O, no time.
func validateShopOrder(userID uint, amount int, order *models.Order, items []*models.OrderItem, products map[uint]*models.Product) error {
	if order.UserID != userID {
		return domain.ErrForbidden
	}
	if order.Status == domain.OrderPaid {
		return domain.ErrAlreadyPaid
	}
	if order.TotalAmount != amount {
		return domain.ErrAmountMismatch
	}
	if len(items) == 0 {
		return domain.NewInvalidOrderError("order has no items")
	}

	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			return domain.NewInvalidOrderError(fmt.Sprintf("product %d not found", item.ProductID))
		}
		if product.Status != domain.StatusActive {
			return domain.NewInvalidOrderError(fmt.Sprintf("product %d is not active", item.ProductID))
		}
		if item.Quantity <= 0 {
			return domain.NewInvalidOrderError(fmt.Sprintf("invalid quantity for product %d", item.ProductID))
		}
		if product.Stock < item.Quantity {
			return domain.ErrOutOfStock
		}
	}
	return nil
}

// ListAdmin returns a page of all payments, newest first
func (s *PaymentService) ListAdmin(ctx context.Context, params *pagination.Params) ([]*PaymentView, int64, error) {
	payments, total, err := s.paymentRepo.List(ctx, params.Offset, params.Limit)
	if err != nil {
		return nil, 0, err
	}
	views := make([]*PaymentView, 0, len(payments))
	for _, p := range payments {
		views = append(views, toPaymentView(p))
	}
	return views, total, nil
}

// ListByUser returns the caller's payment history, newest first
func (s *PaymentService) ListByUser(ctx context.Context, userID uint) ([]*PaymentView, error) {
	payments, err := s.paymentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]*PaymentView, 0, len(payments))
	for _, p := range payments {
		views = append(views, toPaymentView(p))
	}
	return views, nil
}
