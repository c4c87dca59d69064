package scheduler

import (
	"fmt"
	"log"
	"time"

	"retail-billing-app/internal/domain/subscriptions"

	"gorm.io/gorm"
)

// The three sweeps are idempotent by construction: each acts only on rows
// matching its precondition and re-checks existence before creating, so any
// of them can be re-run without double effect. They take now as a parameter
// so tests can pin the clock.

// GenerateMonthlyInvoices turns the previous calendar month's usage into one
// PENDING SubscriptionBill per custom-plan user.
func GenerateMonthlyInvoices(db *gorm.DB, now time.Time, unitPrice float64) error {
	// Anchor on the first of the month; AddDate from day 29-31 would
	// normalize past February and invoice the wrong month.
	prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
	billingMonth := int(prev.Month())
	billingYear := prev.Year()

	var subs []subscriptions.Subscription
	err := db.Where("status = ? AND plan_type = ?",
		subscriptions.StatusActive, subscriptions.PlanCustom).
		Find(&subs).Error
	if err != nil {
		return fmt.Errorf("load custom subscriptions: %w", err)
	}

	for _, sub := range subs {
		if err := invoiceSubscription(db, &sub, billingMonth, billingYear, now, unitPrice); err != nil {
			// One failing user must not block the rest of the sweep.
			log.Printf("invoice generation: user %d (%d-%02d): %v",
				sub.UserID, billingYear, billingMonth, err)
		}
	}
	return nil
}

func invoiceSubscription(db *gorm.DB, sub *subscriptions.Subscription, month, year int, now time.Time, unitPrice float64) error {
	var count int64
	err := db.Model(&subscriptions.UsageRecord{}).
		Where("user_id = ? AND month = ? AND year = ?", sub.UserID, month, year).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		// No usage, no invoice.
		return nil
	}

	// Re-run protection: one invoice per (user, month, year).
	var existing int64
	err = db.Model(&subscriptions.SubscriptionBill{}).
		Where("user_id = ? AND billing_month = ? AND billing_year = ?", sub.UserID, month, year).
		Count(&existing).Error
	if err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		number, err := nextInvoiceNumber(tx, now)
		if err != nil {
			return err
		}

		invoice := subscriptions.SubscriptionBill{
			UserID:       sub.UserID,
			BillNumber:   number,
			Amount:       float64(count) * unitPrice,
			BillCount:    int(count),
			Status:       subscriptions.BillPending,
			BillingMonth: month,
			BillingYear:  year,
			DueDate:      now.AddDate(0, 0, 15),
		}
		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}

		next := time.Date(now.Year(), now.Month(), 11, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
		return tx.Model(&subscriptions.Subscription{}).
			Where("id = ?", sub.ID).
			Updates(map[string]interface{}{
				"next_billing_date": next,
				"bills_generated":   0,
			}).Error
	})
}

// Sequential SUB-YYYYMM-XXXX scoped to the issue month.
func nextInvoiceNumber(tx *gorm.DB, now time.Time) (string, error) {
	prefix := "SUB-" + now.Format("200601") + "-"

	var count int64
	err := tx.Model(&subscriptions.SubscriptionBill{}).
		Where("bill_number LIKE ?", prefix+"%").
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

// MarkOverdue flags every PENDING invoice past its due date, then suspends
// the ACTIVE subscriptions of every user holding an OVERDUE invoice. Both
// steps are set-based conditional updates.
func MarkOverdue(db *gorm.DB, now time.Time) error {
	res := db.Model(&subscriptions.SubscriptionBill{}).
		Where("status = ? AND due_date < ?", subscriptions.BillPending, now).
		Update("status", subscriptions.BillOverdue)
	if res.Error != nil {
		return fmt.Errorf("mark overdue: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		log.Printf("overdue sweep: %d invoices flagged", res.RowsAffected)
	}

	sub := db.Model(&subscriptions.SubscriptionBill{}).
		Select("user_id").
		Where("status = ?", subscriptions.BillOverdue)

	res = db.Model(&subscriptions.Subscription{}).
		Where("status = ? AND user_id IN (?)", subscriptions.StatusActive, sub).
		Update("status", subscriptions.StatusSuspended)
	if res.Error != nil {
		return fmt.Errorf("suspend subscriptions: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		log.Printf("overdue sweep: %d subscriptions suspended", res.RowsAffected)
	}
	return nil
}

// ExpireSubscriptions transitions ACTIVE subscriptions with a past end date
// to EXPIRED.
func ExpireSubscriptions(db *gorm.DB, now time.Time) error {
	res := db.Model(&subscriptions.Subscription{}).
		Where("status = ? AND end_date IS NOT NULL AND end_date < ?",
			subscriptions.StatusActive, now).
		Update("status", subscriptions.StatusExpired)
	if res.Error != nil {
		return fmt.Errorf("expire subscriptions: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		log.Printf("expiry sweep: %d subscriptions expired", res.RowsAffected)
	}
	return nil
}
