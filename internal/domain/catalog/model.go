package catalog

import "time"

const (
	AvailabilityInStock    = "In Stock"
	AvailabilityOutOfStock = "Out of Stock"
)

type Product struct {
	ID    uint    `gorm:"primaryKey" json:"id"`
	Title string  `gorm:"not null;index:idx_products_title" json:"title"`
	Price float64 `gorm:"not null" json:"price"`
	Stock int     `gorm:"not null;default:0" json:"stock"`

	// Derived from Stock; recomputed on every stock mutation.
	AvailabilityStatus string `gorm:"type:varchar(20);not null;default:'Out of Stock'" json:"availability_status"`

	Category string  `gorm:"index:idx_products_category" json:"category"`
	Brand    string  `json:"brand"`
	Images   string  `json:"images"` // comma-separated URLs
	Tags     string  `json:"tags"`
	Rating   float64 `json:"rating"`

	WarrantyInformation string `json:"warranty_information"`
	ShippingInformation string `json:"shipping_information"`
	ReturnPolicy        string `json:"return_policy"`

	MinimumOrderQuantity int `gorm:"not null;default:1" json:"minimum_order_quantity"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func AvailabilityFor(stock int) string {
	if stock > 0 {
		return AvailabilityInStock
	}
	return AvailabilityOutOfStock
}
