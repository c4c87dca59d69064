package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"retail-billing-app/internal/domain/subscriptions"
	"retail-billing-app/internal/domain/users"
	"retail-billing-app/internal/infra/identity"
	"retail-billing-app/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	profile *identity.Profile
	err     error
}

func (f fakeVerifier) Verify(ctx context.Context, rawToken string) (*identity.Profile, error) {
	return f.profile, f.err
}

func guardedRouter(db *gorm.DB, v identity.Verifier) *gin.Engine {
	r := gin.New()
	r.GET("/protected", SubscriptionGuard(db, v), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func doGet(r *gin.Engine, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func responseCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	code, _ := body["code"].(string)
	return code
}

func activeProfile() *identity.Profile {
	return &identity.Profile{
		Subject:   "ext-123",
		Email:     "jo@example.com",
		FirstName: "Jo",
		LastName:  "Doe",
	}
}

func seedActiveSubscription(t *testing.T, db *gorm.DB, userID uint, plan subscriptions.PlanType) subscriptions.Subscription {
	t.Helper()
	sub := subscriptions.Subscription{
		UserID:    userID,
		PlanType:  plan,
		Status:    subscriptions.StatusActive,
		StartDate: time.Now().AddDate(0, -1, 0),
	}
	require.NoError(t, db.Create(&sub).Error)
	return sub
}

func TestSubscriptionGuard(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		db := testutil.OpenDB(t)
		w := doGet(guardedRouter(db, fakeVerifier{}), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, CodeNoToken, responseCode(t, w))
	})

	t.Run("invalid token", func(t *testing.T) {
		db := testutil.OpenDB(t)
		v := fakeVerifier{err: errors.New("bad signature")}
		w := doGet(guardedRouter(db, v), "garbage")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, CodeInvalidToken, responseCode(t, w))
	})

	t.Run("unknown caller is provisioned once and rejected without subscription", func(t *testing.T) {
		db := testutil.OpenDB(t)
		r := guardedRouter(db, fakeVerifier{profile: activeProfile()})

		w := doGet(r, "tok")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, CodeNoSubscription, responseCode(t, w))

		var count int64
		db.Model(&users.User{}).Where("external_id = ?", "ext-123").Count(&count)
		assert.Equal(t, int64(1), count)

		// Second request reuses the provisioned user.
		doGet(r, "tok")
		db.Model(&users.User{}).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("active subscription passes", func(t *testing.T) {
		db := testutil.OpenDB(t)
		u := users.User{ExternalID: "ext-123", Email: "jo@example.com"}
		require.NoError(t, db.Create(&u).Error)
		seedActiveSubscription(t, db, u.ID, subscriptions.PlanCustom)

		w := doGet(guardedRouter(db, fakeVerifier{profile: activeProfile()}), "tok")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("past end date marks expired in storage", func(t *testing.T) {
		db := testutil.OpenDB(t)
		u := users.User{ExternalID: "ext-123", Email: "jo@example.com"}
		require.NoError(t, db.Create(&u).Error)
		sub := seedActiveSubscription(t, db, u.ID, subscriptions.PlanMonthly)
		end := time.Now().AddDate(0, 0, -1)
		db.Model(&sub).Update("end_date", end)

		w := doGet(guardedRouter(db, fakeVerifier{profile: activeProfile()}), "tok")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, CodeSubscriptionExpired, responseCode(t, w))

		var refreshed subscriptions.Subscription
		require.NoError(t, db.First(&refreshed, sub.ID).Error)
		assert.Equal(t, subscriptions.StatusExpired, refreshed.Status)
	})

	t.Run("custom plan with past-due pending invoice is rejected", func(t *testing.T) {
		db := testutil.OpenDB(t)
		u := users.User{ExternalID: "ext-123", Email: "jo@example.com"}
		require.NoError(t, db.Create(&u).Error)
		seedActiveSubscription(t, db, u.ID, subscriptions.PlanCustom)

		require.NoError(t, db.Create(&subscriptions.SubscriptionBill{
			UserID:       u.ID,
			BillNumber:   "SUB-202601-0001",
			Status:       subscriptions.BillPending,
			BillingMonth: 12,
			BillingYear:  2025,
			DueDate:      time.Now().AddDate(0, 0, -3),
		}).Error)

		w := doGet(guardedRouter(db, fakeVerifier{profile: activeProfile()}), "tok")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, CodeUnpaidBills, responseCode(t, w))

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, float64(1), body["unpaid_count"])
	})

	t.Run("pending invoice not yet due passes", func(t *testing.T) {
		db := testutil.OpenDB(t)
		u := users.User{ExternalID: "ext-123", Email: "jo@example.com"}
		require.NoError(t, db.Create(&u).Error)
		seedActiveSubscription(t, db, u.ID, subscriptions.PlanCustom)

		require.NoError(t, db.Create(&subscriptions.SubscriptionBill{
			UserID:       u.ID,
			BillNumber:   "SUB-202602-0001",
			Status:       subscriptions.BillPending,
			BillingMonth: 1,
			BillingYear:  2026,
			DueDate:      time.Now().AddDate(0, 0, 10),
		}).Error)

		w := doGet(guardedRouter(db, fakeVerifier{profile: activeProfile()}), "tok")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
