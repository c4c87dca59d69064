package subscriptions

import (
	"time"

	"retail-billing-app/internal/domain/users"
)

type PlanType string

const (
	PlanMonthly PlanType = "MONTHLY"
	PlanAnnual  PlanType = "ANNUAL"
	PlanCustom  PlanType = "CUSTOM" // usage-based, billed per created bill
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusSuspended Status = "SUSPENDED"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

// At most one ACTIVE subscription per user; enforced by query discipline in
// the subscribe handler, not by a database constraint.
type Subscription struct {
	ID     uint       `gorm:"primaryKey" json:"id"`
	UserID uint       `gorm:"not null;index:idx_subscriptions_user_id" json:"user_id"`
	User   users.User `json:"-"`

	PlanType PlanType `gorm:"type:varchar(20);not null" json:"plan_type"`
	Status   Status   `gorm:"type:varchar(20);not null;default:'ACTIVE';index:idx_subscriptions_status" json:"status"`
	Amount   float64  `json:"amount"`

	StartDate       time.Time  `gorm:"not null" json:"start_date"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	NextBillingDate *time.Time `json:"next_billing_date,omitempty"`

	// Running counter for the current billing period; reset when the
	// monthly invoice is generated.
	BillsGenerated int `gorm:"not null;default:0" json:"bills_generated"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UsageRecord is one row per sales bill created under a custom plan.
// Immutable once written; only ever counted.
type UsageRecord struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;index:idx_usage_records_user_month,priority:1" json:"user_id"`
	BillID uint `gorm:"not null" json:"bill_id"`

	Month int `gorm:"not null;index:idx_usage_records_user_month,priority:2" json:"month"`
	Year  int `gorm:"not null;index:idx_usage_records_user_month,priority:3" json:"year"`

	CreatedAt time.Time `json:"created_at"`
}

type BillStatus string

const (
	BillPending BillStatus = "PENDING"
	BillPaid    BillStatus = "PAID"
	BillOverdue BillStatus = "OVERDUE"
)

// SubscriptionBill is the monthly usage invoice. One per
// (user, billing month, billing year); created only by the scheduler.
type SubscriptionBill struct {
	ID     uint       `gorm:"primaryKey" json:"id"`
	UserID uint       `gorm:"not null;uniqueIndex:idx_subscription_bills_period,priority:1" json:"user_id"`
	User   users.User `json:"-"`

	BillNumber string     `gorm:"type:varchar(32);not null;uniqueIndex:idx_subscription_bills_number" json:"bill_number"`
	Amount     float64    `json:"amount"`
	BillCount  int        `json:"bill_count"`
	Status     BillStatus `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_subscription_bills_status" json:"status"`

	BillingMonth int `gorm:"not null;uniqueIndex:idx_subscription_bills_period,priority:2" json:"billing_month"`
	BillingYear  int `gorm:"not null;uniqueIndex:idx_subscription_bills_period,priority:3" json:"billing_year"`

	DueDate time.Time `gorm:"not null" json:"due_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
