package repositories

import (
	"context"

	"korfarm-api/internal/adapters/persistence/models"
	"korfarm-api/internal/core/domain"

	"gorm.io/gorm"
)

// orderRepository implements OrderRepository interface
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// WithTx returns a copy of the repository bound to the transaction
func (r *orderRepository) WithTx(tx *gorm.DB) OrderRepository {
	return &orderRepository{db: tx}
}

// GetByID gets an order by ID
func (r *orderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetItems gets the line items of an order
func (r *orderRepository) GetItems(ctx context.Context, orderID uint) ([]*models.OrderItem, error) {
	var items []*models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// MarkPaid transitions the order from pending to paid. The status guard in
// the WHERE clause makes a replayed checkout a no-op instead of a double sale.
func (r *orderRepository) MarkPaid(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Where("status = ?", domain.OrderPending).
		Update("status", domain.OrderPaid)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// productRepository implements ProductRepository interface
type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// WithTx returns a copy of the repository bound to the transaction
func (r *productRepository) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepository{db: tx}
}

// GetByIDs gets products by a set of IDs
func (r *productRepository) GetByIDs(ctx context.Context, ids []uint) ([]*models.Product, error) {
	var products []*models.Product
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// DecrementStock decrements a product's stock only while enough remains.
// The stock >= qty guard keeps concurrent checkouts from going negative.
func (r *productRepository) DecrementStock(ctx context.Context, id uint, qty int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Where("stock >= ?", qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// shipmentRepository implements ShipmentRepository interface
type shipmentRepository struct {
	db *gorm.DB
}

// NewShipmentRepository creates a new shipment repository
func NewShipmentRepository(db *gorm.DB) ShipmentRepository {
	return &shipmentRepository{db: db}
}

// WithTx returns a copy of the repository bound to the transaction
func (r *shipmentRepository) WithTx(tx *gorm.DB) ShipmentRepository {
	return &shipmentRepository{db: tx}
}

// MarkPaidByOrder advances the order's shipment to paid. Orders without a
// shipment row are left alone.
func (r *shipmentRepository) MarkPaidByOrder(ctx context.Context, orderID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Shipment{}).
		Where("order_id = ?", orderID).
		Update("status", domain.OrderPaid).Error
}
