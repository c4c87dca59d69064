package customers

import "time"

// Customer identity is the (name, mobile number) pair; bill creation does a
// find-or-create on it.
type Customer struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Name         string  `gorm:"not null;uniqueIndex:idx_customers_name_mobile,priority:1" json:"name"`
	MobileNumber string  `gorm:"type:varchar(20);not null;uniqueIndex:idx_customers_name_mobile,priority:2" json:"mobile_number"`
	Email        *string `json:"email,omitempty"`
	Address      *string `json:"address,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
