package bills

import (
	"net/http"

	"retail-billing-app/internal/domain/bills"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalBills   int64        `json:"total_bills"`
	TotalRevenue float64      `json:"total_revenue"`
	PaidBills    int64        `json:"paid_bills"`
	PaidRevenue  float64      `json:"paid_revenue"`
	PendingBills int64        `json:"pending_bills"`
	TopProducts  []TopProduct `json:"top_products"`
}

type TopProduct struct {
	ProductID uint    `json:"product_id"`
	Title     string  `json:"title"`
	Quantity  int64   `json:"quantity"`
	Revenue   float64 `json:"revenue"`
}

// GET /bills/stats/dashboard
func (h *Handler) GetDashboardStats(c *gin.Context) {
	// Fresh query per aggregate; gorm chains accumulate conditions.
	billsInRange := func() *gorm.DB {
		return dateRangeQuery(h.DB.Model(&bills.Bill{}), c, "bills.created_at")
	}

	var stats DashboardStats

	err := billsInRange().Count(&stats.TotalBills).Error
	if err == nil {
		err = billsInRange().Select("COALESCE(SUM(final_amount), 0)").Scan(&stats.TotalRevenue).Error
	}
	if err == nil {
		err = billsInRange().Where("payment_status = ?", bills.PaymentPaid).Count(&stats.PaidBills).Error
	}
	if err == nil {
		err = billsInRange().Where("payment_status = ?", bills.PaymentPaid).
			Select("COALESCE(SUM(final_amount), 0)").Scan(&stats.PaidRevenue).Error
	}
	if err == nil {
		err = billsInRange().Where("payment_status = ?", bills.PaymentPending).Count(&stats.PendingBills).Error
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	top := dateRangeQuery(
		h.DB.Table("bill_items").
			Joins("JOIN bills ON bills.id = bill_items.bill_id").
			Joins("JOIN products ON products.id = bill_items.product_id"),
		c, "bills.created_at")

	if err := top.
		Select("bill_items.product_id, products.title, SUM(bill_items.quantity) AS quantity, SUM(bill_items.total_price) AS revenue").
		Group("bill_items.product_id, products.title").
		Order("quantity DESC").
		Limit(5).
		Scan(&stats.TopProducts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
