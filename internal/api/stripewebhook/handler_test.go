package stripewebhooks

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"retail-billing-app/internal/domain/bills"
	"retail-billing-app/internal/domain/customers"
	"retail-billing-app/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v75/webhook"
	"gorm.io/gorm"
)

const testSecret = "whsec_test_secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func webhookRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	r.POST("/webhook", NewHandler(db).StripeWebhook)
	return r
}

func signedRequest(payload []byte, secret string) *http.Request {
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, secret)
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature",
		fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig)))
	return req
}

func seedBill(t *testing.T, db *gorm.DB) bills.Bill {
	t.Helper()
	customer := customers.Customer{Name: "A", MobileNumber: "9999999999"}
	require.NoError(t, db.Create(&customer).Error)

	bill := bills.Bill{
		BillNumber:    "BILL-20260101-00001",
		CustomerID:    customer.ID,
		TotalAmount:   200,
		FinalAmount:   200,
		PaymentStatus: bills.PaymentPending,
	}
	require.NoError(t, db.Create(&bill).Error)
	return bill
}

func sessionCompletedPayload(billID uint) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"object": "event",
		"api_version": "2023-08-16",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_1",
				"object": "checkout.session",
				"payment_method_types": ["card"],
				"metadata": {"bill_id": "%d"}
			}
		}
	}`, billID))
}

func TestStripeWebhook(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", testSecret)

	t.Run("invalid signature rejected without mutation", func(t *testing.T) {
		db := testutil.OpenDB(t)
		bill := seedBill(t, db)
		r := webhookRouter(db)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, signedRequest(sessionCompletedPayload(bill.ID), "whsec_wrong"))

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var refreshed bills.Bill
		require.NoError(t, db.First(&refreshed, bill.ID).Error)
		assert.Equal(t, bills.PaymentPending, refreshed.PaymentStatus)
		assert.Nil(t, refreshed.PaidAt)
	})

	t.Run("session completed marks bill paid", func(t *testing.T) {
		db := testutil.OpenDB(t)
		bill := seedBill(t, db)
		r := webhookRouter(db)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, signedRequest(sessionCompletedPayload(bill.ID), testSecret))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var refreshed bills.Bill
		require.NoError(t, db.First(&refreshed, bill.ID).Error)
		assert.Equal(t, bills.PaymentPaid, refreshed.PaymentStatus)
		require.NotNil(t, refreshed.TransactionID)
		assert.Equal(t, "cs_test_1", *refreshed.TransactionID)
		require.NotNil(t, refreshed.PaymentMethod)
		assert.Equal(t, "card", *refreshed.PaymentMethod)
		require.NotNil(t, refreshed.PaidAt)
	})

	t.Run("duplicate delivery is a no-op", func(t *testing.T) {
		db := testutil.OpenDB(t)
		bill := seedBill(t, db)
		r := webhookRouter(db)

		payload := sessionCompletedPayload(bill.ID)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, signedRequest(payload, testSecret))
		require.Equal(t, http.StatusOK, w.Code)

		var afterFirst bills.Bill
		require.NoError(t, db.First(&afterFirst, bill.ID).Error)
		paidAt := *afterFirst.PaidAt

		time.Sleep(10 * time.Millisecond)

		w = httptest.NewRecorder()
		r.ServeHTTP(w, signedRequest(payload, testSecret))
		require.Equal(t, http.StatusOK, w.Code)

		var afterSecond bills.Bill
		require.NoError(t, db.First(&afterSecond, bill.ID).Error)
		assert.Equal(t, bills.PaymentPaid, afterSecond.PaymentStatus)
		assert.True(t, afterSecond.PaidAt.Equal(paidAt), "paid timestamp must not change on redelivery")
	})

	t.Run("unknown event type acked", func(t *testing.T) {
		db := testutil.OpenDB(t)
		r := webhookRouter(db)

		payload := []byte(`{"id":"evt_2","object":"event","type":"invoice.created","data":{"object":{}}}`)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, signedRequest(payload, testSecret))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "ignored")
	})
}
