package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Identity tables
// ============================================================

// User represents users table. Never hard-deleted.
type User struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	Email             string         `gorm:"uniqueIndex;size:100;not null" json:"login_id"`
	Password          string         `gorm:"size:255;not null" json:"-"`
	Name              string         `gorm:"size:100" json:"name"`
	Region            string         `gorm:"size:50" json:"region,omitempty"`
	School            string         `gorm:"size:100" json:"school,omitempty"`
	GradeLabel        string         `gorm:"size:30" json:"grade_label,omitempty"`
	LevelID           string         `gorm:"size:30" json:"level_id,omitempty"`
	StudentPhone      string         `gorm:"size:20" json:"student_phone,omitempty"`
	ParentPhone       string         `gorm:"size:20" json:"parent_phone,omitempty"`
	ShippingName      string         `gorm:"size:100" json:"shipping_name,omitempty"`
	ShippingPhone     string         `gorm:"size:20" json:"shipping_phone,omitempty"`
	ShippingZipCode   string         `gorm:"size:10" json:"shipping_zip_code,omitempty"`
	ShippingAddress   string         `gorm:"size:255" json:"shipping_address,omitempty"`
	ShippingDetail    string         `gorm:"size:255" json:"shipping_address_detail,omitempty"`
	ProfileImageURL   string         `gorm:"size:255" json:"profile_image_url,omitempty"`
	DiagnosticOptIn   bool           `gorm:"default:false" json:"diagnostic_opt_in"`
	LearningStartDate *time.Time     `json:"learning_start_date,omitempty"`
	Status            string         `gorm:"size:20;default:'active'" json:"status"`
	LastLoginAt       *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// Org represents orgs table. Org ids are external, human-assigned strings
// (the headquarters org id is configuration, e.g. "org_hq").
type Org struct {
	ID        string    `gorm:"primaryKey;size:40" json:"org_id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Status    string    `gorm:"size:20;default:'active'" json:"status"`
	Plan      string    `gorm:"size:30" json:"plan,omitempty"`
	OrgType   string    `gorm:"size:30" json:"org_type,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Org) TableName() string {
	return "orgs"
}

// OrgMembership represents org_memberships table: the (org, user) relation
// carrying role and approval status. The linked_* columns hold the
// parent-reported student data used by the external approval workflow.
type OrgMembership struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	OrgID              string     `gorm:"size:40;not null;uniqueIndex:idx_org_user" json:"org_id"`
	UserID             uint       `gorm:"not null;uniqueIndex:idx_org_user;index" json:"user_id"`
	Role               string     `gorm:"size:20;not null" json:"role"`
	Status             string     `gorm:"size:20;not null;index" json:"status"`
	RequestedAt        time.Time  `json:"requested_at"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty"`
	LinkedStudentName  string     `gorm:"size:100" json:"linked_student_name,omitempty"`
	LinkedStudentPhone string     `gorm:"size:20" json:"linked_student_phone,omitempty"`
	LinkedParentPhone  string     `gorm:"size:20" json:"linked_parent_phone,omitempty"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (OrgMembership) TableName() string {
	return "org_memberships"
}

// ParentStudentLink represents parent_student_links table. Created by the
// external linking workflow; role resolution only reads active rows.
type ParentStudentLink struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ParentUserID  uint      `gorm:"not null;index" json:"parent_user_id"`
	StudentUserID uint      `gorm:"not null;index" json:"student_user_id"`
	Status        string    `gorm:"size:20;not null" json:"status"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ParentStudentLink) TableName() string {
	return "parent_student_links"
}

// RefreshToken represents refresh_tokens table. Stores a SHA-256 digest of
// the issued token, never the raw value.
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Entitlement tables
// ============================================================

// Subscription represents subscriptions table. At most one row per user is
// "current" (latest end_at); superseded rows are history and never mutated.
type Subscription struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"not null;index" json:"user_id"`
	Status        string     `gorm:"size:20;not null" json:"status"`
	StartAt       time.Time  `gorm:"not null" json:"start_at"`
	EndAt         time.Time  `gorm:"not null;index" json:"end_at"`
	NextBillingAt *time.Time `json:"next_billing_at,omitempty"`
	CanceledAt    *time.Time `json:"canceled_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// Payment represents payments table. Rows are an immutable ledger: created
// once per checkout, never updated.
type Payment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	PaymentType string    `gorm:"size:20;not null" json:"payment_type"`
	Amount      int       `gorm:"not null" json:"amount"`
	Status      string    `gorm:"size:20;not null" json:"status"`
	Provider    string    `gorm:"size:30;not null" json:"provider"`
	ProviderRef string    `gorm:"size:64" json:"provider_ref,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Payment) TableName() string {
	return "payments"
}

// ============================================================
// Shop tables (read/written only through the checkout transaction)
// ============================================================

// Product represents products table
type Product struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Price     int       `gorm:"not null" json:"price"`
	Stock     int       `gorm:"not null" json:"stock"`
	Status    string    `gorm:"size:20;default:'active'" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// Order represents orders table
type Order struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Status      string    `gorm:"size:20;not null" json:"status"`
	TotalAmount int       `gorm:"not null" json:"total_amount"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem represents order_items table
type OrderItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	ProductID uint      `gorm:"not null" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	UnitPrice int       `gorm:"not null" json:"unit_price"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// Shipment represents shipments table
type Shipment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;uniqueIndex" json:"order_id"`
	Status    string    `gorm:"size:20;not null" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Shipment) TableName() string {
	return "shipments"
}

// ============================================================
// System tables
// ============================================================

// FeatureFlag represents feature_flags table
type FeatureFlag struct {
	FlagKey        string    `gorm:"primaryKey;size:100" json:"flag_key"`
	Enabled        bool      `gorm:"not null;default:false" json:"enabled"`
	RolloutPercent int       `gorm:"not null;default:0" json:"rollout_percent"`
	Description    string    `gorm:"size:255" json:"description,omitempty"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (FeatureFlag) TableName() string {
	return "feature_flags"
}

// AutoMigrate creates or updates all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Org{},
		&OrgMembership{},
		&ParentStudentLink{},
		&RefreshToken{},
		&Subscription{},
		&Payment{},
		&Product{},
		&Order{},
		&OrderItem{},
		&Shipment{},
		&FeatureFlag{},
	)
}
