package subscriptions

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"retail-billing-app/internal/domain/subscriptions"
	"retail-billing-app/internal/domain/users"
	"retail-billing-app/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Routes are registered with the guard's context contract faked directly.
func subsRouter(db *gorm.DB, user users.User, sub *subscriptions.Subscription) *gin.Engine {
	h := NewHandler(db)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user", user)
		c.Set("user_id", user.ID)
		if sub != nil {
			c.Set("subscription", *sub)
		}
	})
	r.POST("/subscriptions", h.Subscribe)
	r.POST("/subscriptions/cancel", h.Cancel)
	r.GET("/subscriptions/current", h.GetCurrent)
	r.GET("/subscriptions/stats", h.GetStats)
	return r
}

func seedUser(t *testing.T, db *gorm.DB) users.User {
	t.Helper()
	u := users.User{ExternalID: "ext-1", Email: "jo@example.com"}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func postJSON(r *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	var body []byte
	if payload != nil {
		body, _ = json.Marshal(payload)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestSubscribe(t *testing.T) {
	t.Run("custom plan gets next billing on day 11", func(t *testing.T) {
		db := testutil.OpenDB(t)
		u := seedUser(t, db)
		r := subsRouter(db, u, nil)

		w := postJSON(r, "/subscriptions", gin.H{"plan_type": "CUSTOM", "amount": 0})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var sub subscriptions.Subscription
		require.NoError(t, db.First(&sub, "user_id = ?", u.ID).Error)
		assert.Equal(t, subscriptions.PlanCustom, sub.PlanType)
		assert.Equal(t, subscriptions.StatusActive, sub.Status)
		assert.Nil(t, sub.EndDate)
		require.NotNil(t, sub.NextBillingDate)
		assert.Equal(t, 11, sub.NextBillingDate.Day())
	})

	t.Run("monthly plan gets an end date", func(t *testing.T) {
		db := testutil.OpenDB(t)
		u := seedUser(t, db)
		r := subsRouter(db, u, nil)

		w := postJSON(r, "/subscriptions", gin.H{"plan_type": "MONTHLY", "amount": 29.0})
		require.Equal(t, http.StatusCreated, w.Code)

		var sub subscriptions.Subscription
		require.NoError(t, db.First(&sub, "user_id = ?", u.ID).Error)
		require.NotNil(t, sub.EndDate)
		assert.True(t, sub.EndDate.After(time.Now()))
	})

	t.Run("second active subscription refused", func(t *testing.T) {
		db := testutil.OpenDB(t)
		u := seedUser(t, db)
		r := subsRouter(db, u, nil)

		require.Equal(t, http.StatusCreated, postJSON(r, "/subscriptions", gin.H{"plan_type": "CUSTOM"}).Code)
		w := postJSON(r, "/subscriptions", gin.H{"plan_type": "MONTHLY"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("unknown plan refused", func(t *testing.T) {
		db := testutil.OpenDB(t)
		u := seedUser(t, db)
		r := subsRouter(db, u, nil)

		w := postJSON(r, "/subscriptions", gin.H{"plan_type": "WEEKLY"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCancel(t *testing.T) {
	t.Run("refused while invoices are pending", func(t *testing.T) {
		db := testutil.OpenDB(t)
		u := seedUser(t, db)
		sub := subscriptions.Subscription{
			UserID:    u.ID,
			PlanType:  subscriptions.PlanCustom,
			Status:    subscriptions.StatusActive,
			StartDate: time.Now(),
		}
		require.NoError(t, db.Create(&sub).Error)
		require.NoError(t, db.Create(&subscriptions.SubscriptionBill{
			UserID:       u.ID,
			BillNumber:   "SUB-202601-0001",
			Status:       subscriptions.BillPending,
			BillingMonth: 12,
			BillingYear:  2025,
			DueDate:      time.Now().AddDate(0, 0, 5),
		}).Error)

		r := subsRouter(db, u, &sub)
		w := postJSON(r, "/subscriptions/cancel", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var refreshed subscriptions.Subscription
		require.NoError(t, db.First(&refreshed, sub.ID).Error)
		assert.Equal(t, subscriptions.StatusActive, refreshed.Status)
	})

	t.Run("cancels a clean subscription", func(t *testing.T) {
		db := testutil.OpenDB(t)
		u := seedUser(t, db)
		sub := subscriptions.Subscription{
			UserID:    u.ID,
			PlanType:  subscriptions.PlanCustom,
			Status:    subscriptions.StatusActive,
			StartDate: time.Now(),
		}
		require.NoError(t, db.Create(&sub).Error)

		r := subsRouter(db, u, &sub)
		w := postJSON(r, "/subscriptions/cancel", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var refreshed subscriptions.Subscription
		require.NoError(t, db.First(&refreshed, sub.ID).Error)
		assert.Equal(t, subscriptions.StatusCancelled, refreshed.Status)
	})
}

func TestGetStats(t *testing.T) {
	db := testutil.OpenDB(t)
	u := seedUser(t, db)
	sub := subscriptions.Subscription{
		UserID:         u.ID,
		PlanType:       subscriptions.PlanCustom,
		Status:         subscriptions.StatusActive,
		StartDate:      time.Now(),
		BillsGenerated: 2,
	}
	require.NoError(t, db.Create(&sub).Error)

	now := time.Now()
	for i := 0; i < 2; i++ {
		require.NoError(t, db.Create(&subscriptions.UsageRecord{
			UserID: u.ID,
			BillID: uint(i + 1),
			Month:  int(now.Month()),
			Year:   now.Year(),
		}).Error)
	}

	r := subsRouter(db, u, &sub)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/subscriptions/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(2), body["bills_this_month"])
	assert.Equal(t, float64(2), body["bills_generated"])
}

func TestGetStatsStorageFailure(t *testing.T) {
	db := testutil.OpenDB(t)
	u := seedUser(t, db)
	sub := subscriptions.Subscription{
		UserID:    u.ID,
		PlanType:  subscriptions.PlanCustom,
		Status:    subscriptions.StatusActive,
		StartDate: time.Now(),
	}
	require.NoError(t, db.Create(&sub).Error)
	require.NoError(t, db.Migrator().DropTable(&subscriptions.SubscriptionBill{}))

	r := subsRouter(db, u, &sub)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/subscriptions/stats", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
