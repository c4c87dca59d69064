package stripewebhooks

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"retail-billing-app/internal/domain/bills"

	"github.com/stripe/stripe-go/v75"
)

// Marks the referenced bill PAID. Keyed on bill id + non-PAID status, so a
// redelivered event is a no-op.
func (h *Handler) handleCheckoutSessionCompleted(session *stripe.CheckoutSession) error {
	billIDStr := ""
	if session.Metadata != nil {
		billIDStr = session.Metadata["bill_id"]
	}
	if billIDStr == "" {
		return errors.New("checkout session missing metadata.bill_id")
	}

	billID, err := strconv.ParseUint(billIDStr, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid bill_id %q: %w", billIDStr, err)
	}

	method := "card"
	if len(session.PaymentMethodTypes) > 0 {
		method = session.PaymentMethodTypes[0]
	}

	res := h.DB.Model(&bills.Bill{}).
		Where("id = ? AND payment_status <> ?", uint(billID), bills.PaymentPaid).
		Updates(map[string]interface{}{
			"payment_status": bills.PaymentPaid,
			"payment_method": method,
			"transaction_id": session.ID,
			"paid_at":        time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to mark bill %d paid: %w", billID, res.Error)
	}
	// RowsAffected == 0 means already paid (duplicate delivery) or unknown
	// bill; both are acked so Stripe stops retrying.
	return nil
}
