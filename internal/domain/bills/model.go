package bills

import (
	"time"

	"retail-billing-app/internal/domain/catalog"
	"retail-billing-app/internal/domain/customers"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
)

// Bill is immutable once created except for payment status/method updates.
// Sum of the items' TotalPrice equals TotalAmount.
type Bill struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	BillNumber string `gorm:"type:varchar(32);not null;uniqueIndex:idx_bills_number" json:"bill_number"`

	CustomerID uint               `gorm:"not null;index:idx_bills_customer_id" json:"customer_id"`
	Customer   customers.Customer `json:"customer"`

	TotalAmount     float64 `json:"total_amount"`
	DiscountPercent float64 `json:"discount_percent"`
	DiscountAmount  float64 `json:"discount_amount"`
	FinalAmount     float64 `json:"final_amount"`

	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_bills_payment_status" json:"payment_status"`
	PaymentMethod *string       `json:"payment_method,omitempty"`
	TransactionID *string       `json:"transaction_id,omitempty"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`

	Items []BillItem `gorm:"foreignKey:BillID" json:"items"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BillItem snapshots the unit price at sale time.
type BillItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	BillID    uint            `gorm:"not null;index:idx_bill_items_bill_id" json:"bill_id"`
	ProductID uint            `gorm:"not null;index:idx_bill_items_product_id" json:"product_id"`
	Product   catalog.Product `json:"product,omitempty"`

	Quantity   int     `gorm:"not null" json:"quantity"`
	UnitPrice  float64 `gorm:"not null" json:"unit_price"`
	TotalPrice float64 `gorm:"not null" json:"total_price"`
}
