package routes

import (
	billsapi "retail-billing-app/internal/api/bills"
	checkoutapi "retail-billing-app/internal/api/checkout"
	customersapi "retail-billing-app/internal/api/customers"
	meetingsapi "retail-billing-app/internal/api/meetings"
	productsapi "retail-billing-app/internal/api/products"
	stripewebhooks "retail-billing-app/internal/api/stripewebhook"
	subscriptionsapi "retail-billing-app/internal/api/subscriptions"
	"retail-billing-app/internal/app/http/middleware"
	"retail-billing-app/internal/infra/identity"
	"retail-billing-app/internal/infra/zoom"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, verifier identity.Verifier, zoomClient *zoom.Client) {
	products := productsapi.NewHandler(db)
	customers := customersapi.NewHandler(db)
	bills := billsapi.NewHandler(db)
	subscriptions := subscriptionsapi.NewHandler(db)
	checkout := checkoutapi.NewHandler(db)
	webhooks := stripewebhooks.NewHandler(db)
	meetings := meetingsapi.NewHandler(zoomClient)

	// The webhook needs the raw body for signature verification, so it is
	// registered before any body-rewriting middleware.
	r.POST("/webhook", webhooks.StripeWebhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	public := r.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())

	public.GET("/products", products.ListProducts)
	public.GET("/products/:id", products.GetProduct)
	public.POST("/products", products.CreateProduct)
	public.PUT("/products/:id", products.UpdateProduct)
	public.DELETE("/products/:id", products.DeleteProduct)

	public.GET("/customers", customers.ListCustomers)
	public.GET("/customers/:id", customers.GetCustomer)
	public.POST("/customers", customers.CreateCustomer)
	public.PUT("/customers/:id", customers.UpdateCustomer)
	public.DELETE("/customers/:id", customers.DeleteCustomer)

	public.GET("/bills", bills.ListBills)
	public.GET("/bills/stats/dashboard", bills.GetDashboardStats)
	public.GET("/bills/:id", bills.GetBill)
	public.PUT("/bills/:id", bills.UpdateBill)
	public.DELETE("/bills/:id", bills.DeleteBill)

	public.POST("/checkout", checkout.CreateCheckoutSession)

	// Subscribed users: guard resolves identity + active subscription;
	// the usage tracker records successful bill creations behind it.
	guarded := r.Group("/")
	guarded.Use(
		middleware.SanitizeAndCleanInputMiddleware(),
		middleware.SubscriptionGuard(db, verifier),
		middleware.UsageTracker(db),
	)

	guarded.POST("/bills", bills.CreateBill)

	guarded.GET("/subscriptions/current", subscriptions.GetCurrent)
	guarded.GET("/subscriptions/bills", subscriptions.ListBills)
	guarded.GET("/subscriptions/stats", subscriptions.GetStats)
	guarded.POST("/subscriptions/cancel", subscriptions.Cancel)

	guarded.POST("/meetings", meetings.CreateMeeting)
	guarded.POST("/video/token", meetings.CreateVideoToken)

	// Subscribing itself only needs a verified identity, not an existing
	// subscription.
	authed := r.Group("/")
	authed.Use(
		middleware.SanitizeAndCleanInputMiddleware(),
		middleware.AuthOnly(db, verifier),
	)
	authed.POST("/subscriptions", subscriptions.Subscribe)
}
