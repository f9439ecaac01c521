package domain

// Role represents a user role in the system
type Role = string

const (
	RoleStudent  Role = "STUDENT"
	RoleParent   Role = "PARENT"
	RoleOrgAdmin Role = "ORG_ADMIN"
	RoleHQAdmin  Role = "HQ_ADMIN"
)

// Account types accepted at signup
const (
	AccountTypeStudent  = "student"
	AccountTypeParent   = "parent"
	AccountTypeOrgAdmin = "org_admin"
)

// Generic record statuses shared by users, orgs and links
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusPending  = "pending"
)

// Subscription statuses. "expired" is derived at read time, never stored;
// "none" reports the absence of any record.
const (
	SubscriptionActive   = "active"
	SubscriptionCanceled = "canceled"
	SubscriptionExpired  = "expired"
	SubscriptionNone     = "none"
)

// Payment types and the single terminal payment status produced here
const (
	PaymentTypeSubscription = "subscription"
	PaymentTypeShop         = "shop"
	PaymentStatusPaid       = "paid"
)

// Order statuses touched by checkout
const (
	OrderPending = "pending"
	OrderPaid    = "paid"
)
