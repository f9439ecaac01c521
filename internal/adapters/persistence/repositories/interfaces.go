package repositories

import (
	"context"
	"time"

	"korfarm-api/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// UpdateLastLogin stamps the last-login timestamp only; callers treat
	// failures as best-effort.
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
	// FindStudentMatch looks up a student by name and phone numbers for the
	// parent-signup linking hint. parentPhone may be empty.
	FindStudentMatch(ctx context.Context, name, studentPhone, parentPhone string) (*models.User, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) error
}

// OrgRepository defines org repository interface
type OrgRepository interface {
	GetByID(ctx context.Context, id string) (*models.Org, error)
	ListActive(ctx context.Context) ([]*models.Org, error)
}

// MembershipRepository defines org membership repository interface
type MembershipRepository interface {
	Create(ctx context.Context, membership *models.OrgMembership) error
	GetByOrgAndUser(ctx context.Context, orgID string, userID uint) (*models.OrgMembership, error)
	FindByUserAndStatus(ctx context.Context, userID uint, status string) ([]*models.OrgMembership, error)
	ExistsByUserAndStatus(ctx context.Context, userID uint, status string) (bool, error)
}

// ParentLinkRepository defines parent-student link repository interface
type ParentLinkRepository interface {
	ExistsActiveByParent(ctx context.Context, parentUserID uint) (bool, error)
}

// SubscriptionRepository defines subscription repository interface
type SubscriptionRepository interface {
	// WithTx returns a repository bound to the given transaction.
	WithTx(tx *gorm.DB) SubscriptionRepository
	// GetCurrentByUser returns the latest-by-end_at subscription.
	GetCurrentByUser(ctx context.Context, userID uint) (*models.Subscription, error)
	Create(ctx context.Context, subscription *models.Subscription) error
	Update(ctx context.Context, subscription *models.Subscription) error
}

// PaymentRepository defines payment repository interface
type PaymentRepository interface {
	WithTx(tx *gorm.DB) PaymentRepository
	Create(ctx context.Context, payment *models.Payment) error
	List(ctx context.Context, offset, limit int) ([]*models.Payment, int64, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Payment, error)
}

// OrderRepository defines order repository interface
type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	GetItems(ctx context.Context, orderID uint) ([]*models.OrderItem, error)
	// MarkPaid transitions the order to paid only while it is still unpaid.
	// Returns false when no row changed (already paid).
	MarkPaid(ctx context.Context, id uint) (bool, error)
}

// ProductRepository defines product repository interface
type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	GetByIDs(ctx context.Context, ids []uint) ([]*models.Product, error)
	// DecrementStock performs an atomic conditional decrement
	// (stock = stock - qty WHERE stock >= qty). Returns false when the
	// guard failed and nothing changed.
	DecrementStock(ctx context.Context, id uint, qty int) (bool, error)
}

// ShipmentRepository defines shipment repository interface
type ShipmentRepository interface {
	WithTx(tx *gorm.DB) ShipmentRepository
	// MarkPaidByOrder advances the order's shipment to paid; orders without
	// a shipment are a no-op.
	MarkPaidByOrder(ctx context.Context, orderID uint) error
}

// FeatureFlagRepository defines feature flag repository interface
type FeatureFlagRepository interface {
	GetByKey(ctx context.Context, key string) (*models.FeatureFlag, error)
	List(ctx context.Context) ([]*models.FeatureFlag, error)
	Save(ctx context.Context, flag *models.FeatureFlag) error
}

// TxManager runs a function inside a single database transaction. The
// checkout flows use it so payment, stock and order writes commit together.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTxManager struct {
	db *gorm.DB
}

// NewTxManager creates a TxManager backed by the given database handle
func NewTxManager(db *gorm.DB) TxManager {
	return &gormTxManager{db: db}
}

func (m *gormTxManager) RunInTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return m.db.WithContext(ctx).Transaction(fn)
}
