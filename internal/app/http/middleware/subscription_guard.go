package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"

	"retail-billing-app/config"
	"retail-billing-app/internal/domain/subscriptions"
	"retail-billing-app/internal/domain/users"
	"retail-billing-app/internal/infra/identity"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Machine-readable failure codes returned alongside the HTTP status, so
// clients branch on code, not on message text.
const (
	CodeNoToken             = "NO_TOKEN"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeNoSubscription      = "NO_SUBSCRIPTION"
	CodeSubscriptionExpired = "SUBSCRIPTION_EXPIRED"
	CodeUnpaidBills         = "UNPAID_BILLS"
)

// SubscriptionGuard resolves the caller from the bearer token, provisions
// the local user on first use, and rejects the request unless an ACTIVE,
// non-expired, fully-paid subscription exists. Runs on every protected
// request; the lookups are single indexed queries, no caching.
func SubscriptionGuard(db *gorm.DB, verifier identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header missing",
				"code":  CodeNoToken,
			})
			return
		}

		rawToken := strings.TrimPrefix(authHeader, "Bearer ")
		if rawToken == authHeader || strings.TrimSpace(rawToken) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Bearer token malformed",
				"code":  CodeNoToken,
			})
			return
		}

		profile, err := verifier.Verify(c.Request.Context(), rawToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
				"code":  CodeInvalidToken,
			})
			return
		}

		user, err := findOrCreateUser(db, profile)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to resolve user",
			})
			return
		}

		var sub subscriptions.Subscription
		err = db.Where("user_id = ? AND status = ?", user.ID, subscriptions.StatusActive).
			Order("created_at DESC").
			First(&sub).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error":    "No active subscription",
					"code":     CodeNoSubscription,
					"redirect": config.APP_URL + config.BILLING_PAGE,
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to load subscription",
			})
			return
		}

		now := time.Now()

		// Whichever of guard or expiry sweep notices first marks it EXPIRED.
		if sub.EndDate != nil && sub.EndDate.Before(now) {
			if err := db.Model(&subscriptions.Subscription{}).
				Where("id = ? AND status = ?", sub.ID, subscriptions.StatusActive).
				Update("status", subscriptions.StatusExpired).Error; err != nil {
				// The request is rejected either way; the expiry sweep will
				// retry the status write.
				log.Printf("subscription guard: marking subscription %d expired: %v", sub.ID, err)
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":    "Subscription has expired",
				"code":     CodeSubscriptionExpired,
				"redirect": config.APP_URL + config.BILLING_PAGE,
			})
			return
		}

		if sub.PlanType == subscriptions.PlanCustom {
			var overdue int64
			if err := db.Model(&subscriptions.SubscriptionBill{}).
				Where("user_id = ? AND status = ? AND due_date < ?",
					user.ID, subscriptions.BillPending, now).
				Count(&overdue).Error; err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Failed to check billing state",
				})
				return
			}
			if overdue > 0 {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error":        "Unpaid subscription bills",
					"code":         CodeUnpaidBills,
					"unpaid_count": overdue,
					"redirect":     config.APP_URL + config.BILLING_PAGE,
				})
				return
			}
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Set("subscription", sub)
		c.Next()
	}
}

// AuthOnly verifies the bearer token and provisions the local user without
// requiring a subscription. Used by the subscribe endpoint itself.
func AuthOnly(db *gorm.DB, verifier identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		rawToken := strings.TrimPrefix(authHeader, "Bearer ")
		if authHeader == "" || rawToken == authHeader || strings.TrimSpace(rawToken) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header missing or malformed",
				"code":  CodeNoToken,
			})
			return
		}

		profile, err := verifier.Verify(c.Request.Context(), rawToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
				"code":  CodeInvalidToken,
			})
			return
		}

		user, err := findOrCreateUser(db, profile)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to resolve user",
			})
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}

// First-use provisioning from verified provider claims; not a registration
// flow, so nothing beyond the profile is written.
func findOrCreateUser(db *gorm.DB, profile *identity.Profile) (users.User, error) {
	var user users.User
	err := db.Where("external_id = ?", profile.Subject).First(&user).Error
	if err == nil {
		return user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return users.User{}, err
	}

	user = users.User{
		ExternalID: profile.Subject,
		Email:      profile.Email,
		FirstName:  profile.FirstName,
		LastName:   profile.LastName,
	}
	if err := db.Create(&user).Error; err != nil {
		return users.User{}, err
	}
	return user, nil
}
