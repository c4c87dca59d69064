package middleware

import (
	"log"
	"net/http"
	"time"

	"retail-billing-app/internal/domain/subscriptions"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreatedBillKey is set by the bill-creation handler so the tracker knows
// which bill the 201 refers to.
const CreatedBillKey = "created_bill_id"

// UsageTracker records one usage unit after a successful bill creation.
// It runs after the handler has written the response; a recording failure
// is logged for reconciliation and never surfaces to the client.
func UsageTracker(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() != http.StatusCreated {
			return
		}
		billID, ok := c.Get(CreatedBillKey)
		if !ok {
			return
		}
		userID := c.GetUint("user_id")
		if userID == 0 {
			return
		}

		var sub subscriptions.Subscription
		if s, ok := c.Get("subscription"); ok {
			sub = s.(subscriptions.Subscription)
		}

		if err := recordUsage(db, userID, billID.(uint), sub); err != nil {
			log.Printf("usage tracker: failed to record bill %v for user %d: %v", billID, userID, err)
		}
	}
}

func recordUsage(db *gorm.DB, userID, billID uint, sub subscriptions.Subscription) error {
	now := time.Now()
	record := subscriptions.UsageRecord{
		UserID: userID,
		BillID: billID,
		Month:  int(now.Month()),
		Year:   now.Year(),
	}
	if err := db.Create(&record).Error; err != nil {
		return err
	}

	if sub.ID != 0 && sub.PlanType == subscriptions.PlanCustom {
		return db.Model(&subscriptions.Subscription{}).
			Where("id = ?", sub.ID).
			UpdateColumn("bills_generated", gorm.Expr("bills_generated + 1")).Error
	}
	return nil
}
