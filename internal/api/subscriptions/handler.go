package subscriptions

import (
	"net/http"
	"time"

	"retail-billing-app/internal/domain/subscriptions"
	"retail-billing-app/internal/domain/users"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	DB *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db}
}

type subscribeRequest struct {
	PlanType string  `json:"plan_type" binding:"required"`
	Amount   float64 `json:"amount" binding:"gte=0"`
}

// POST /subscriptions
func (h *Handler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan := subscriptions.PlanType(req.PlanType)
	switch plan {
	case subscriptions.PlanMonthly, subscriptions.PlanAnnual, subscriptions.PlanCustom:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid plan_type"})
		return
	}

	user := c.MustGet("user").(users.User)

	var active int64
	if err := h.DB.Model(&subscriptions.Subscription{}).
		Where("user_id = ? AND status = ?", user.ID, subscriptions.StatusActive).
		Count(&active).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check subscriptions"})
		return
	}
	if active > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "An active subscription already exists"})
		return
	}

	now := time.Now()
	sub := subscriptions.Subscription{
		UserID:    user.ID,
		PlanType:  plan,
		Status:    subscriptions.StatusActive,
		Amount:    req.Amount,
		StartDate: now,
	}

	switch plan {
	case subscriptions.PlanMonthly:
		end := now.AddDate(0, 1, 0)
		sub.EndDate = &end
		sub.NextBillingDate = &end
	case subscriptions.PlanAnnual:
		end := now.AddDate(1, 0, 0)
		sub.EndDate = &end
		sub.NextBillingDate = &end
	case subscriptions.PlanCustom:
		// Open-ended; invoiced monthly on usage. First invoice lands on
		// day 11 of next month.
		next := time.Date(now.Year(), now.Month(), 11, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
		sub.NextBillingDate = &next
	}

	if err := h.DB.Create(&sub).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create subscription"})
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// GET /subscriptions/current
func (h *Handler) GetCurrent(c *gin.Context) {
	sub := c.MustGet("subscription").(subscriptions.Subscription)
	c.JSON(http.StatusOK, sub)
}

// GET /subscriptions/bills
func (h *Handler) ListBills(c *gin.Context) {
	user := c.MustGet("user").(users.User)

	var invoices []subscriptions.SubscriptionBill
	err := h.DB.Where("user_id = ?", user.ID).
		Order("billing_year DESC, billing_month DESC").
		Find(&invoices).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load subscription bills"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bills": invoices})
}

// GET /subscriptions/stats
func (h *Handler) GetStats(c *gin.Context) {
	user := c.MustGet("user").(users.User)
	sub := c.MustGet("subscription").(subscriptions.Subscription)

	now := time.Now()
	var monthUsage int64
	if err := h.DB.Model(&subscriptions.UsageRecord{}).
		Where("user_id = ? AND month = ? AND year = ?", user.ID, int(now.Month()), now.Year()).
		Count(&monthUsage).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load usage"})
		return
	}

	var pending int64
	if err := h.DB.Model(&subscriptions.SubscriptionBill{}).
		Where("user_id = ? AND status = ?", user.ID, subscriptions.BillPending).
		Count(&pending).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load pending invoices"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"plan_type":         sub.PlanType,
		"status":            sub.Status,
		"bills_this_month":  monthUsage,
		"bills_generated":   sub.BillsGenerated,
		"next_billing_date": sub.NextBillingDate,
		"pending_invoices":  pending,
	})
}

// POST /subscriptions/cancel — refused while a PENDING invoice exists.
func (h *Handler) Cancel(c *gin.Context) {
	user := c.MustGet("user").(users.User)
	sub := c.MustGet("subscription").(subscriptions.Subscription)

	var pending int64
	if err := h.DB.Model(&subscriptions.SubscriptionBill{}).
		Where("user_id = ? AND status = ?", user.ID, subscriptions.BillPending).
		Count(&pending).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check pending bills"})
		return
	}
	if pending > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":         "Cannot cancel while subscription bills are pending",
			"pending_count": pending,
		})
		return
	}

	res := h.DB.Model(&subscriptions.Subscription{}).
		Where("id = ? AND status = ?", sub.ID, subscriptions.StatusActive).
		Update("status", subscriptions.StatusCancelled)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel subscription"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Subscription is no longer active"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}
