package scheduler

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Start wires the three sweeps onto their schedules and starts the cron
// runner. A failing sweep is logged and retried on its next tick; it never
// takes the process down. Callers stop the returned cron on shutdown.
func Start(db *gorm.DB, unitPrice float64) (*cron.Cron, error) {
	c := cron.New()

	// Invoice generation on the 1st at 02:00, before the overdue sweep.
	_, err := c.AddFunc("0 2 1 * *", func() {
		if err := GenerateMonthlyInvoices(db, time.Now(), unitPrice); err != nil {
			log.Println("monthly invoice generation failed:", err)
		}
	})
	if err != nil {
		return nil, err
	}

	_, err = c.AddFunc("30 1 * * *", func() {
		if err := MarkOverdue(db, time.Now()); err != nil {
			log.Println("overdue sweep failed:", err)
		}
	})
	if err != nil {
		return nil, err
	}

	_, err = c.AddFunc("0 */6 * * *", func() {
		if err := ExpireSubscriptions(db, time.Now()); err != nil {
			log.Println("expiry sweep failed:", err)
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	log.Println("billing scheduler started")
	return c, nil
}
