package checkout

import (
	"fmt"
	"log"
	"math"
	"net/http"
	"os"

	"retail-billing-app/config"
	"retail-billing-app/internal/domain/bills"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	checkoutsession "github.com/stripe/stripe-go/v75/checkout/session"
	"gorm.io/gorm"
)

type Handler struct {
	DB *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db}
}

type checkoutRequest struct {
	BillID uint `json:"bill_id" binding:"required"`
}

// Stripe takes integer cents; prices are stored as float dollars, so round
// rather than truncate (19.99*100 is 1998.999… in binary).
func amountInCents(price float64) int64 {
	return int64(math.Round(price * 100))
}

// POST /checkout — hosted payment session for an unpaid bill. The webhook
// marks the bill PAID when Stripe confirms.
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	if stripe.Key == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stripe key not configured"})
		return
	}

	var bill bills.Bill
	err := h.DB.Preload("Items").Preload("Items.Product").
		First(&bill, "id = ?", req.BillID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Bill not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load bill"})
		return
	}

	if bill.PaymentStatus == bills.PaymentPaid {
		c.JSON(http.StatusConflict, gin.H{"error": "Bill already paid"})
		return
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(bill.Items))
	for _, item := range bill.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(item.Quantity)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String("usd"),
				UnitAmount: stripe.Int64(amountInCents(item.UnitPrice)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Product.Title),
				},
			},
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(config.APP_URL + "/bills/" + fmt.Sprint(bill.ID) + "?paid=1"),
		CancelURL:  stripe.String(config.APP_URL + "/bills/" + fmt.Sprint(bill.ID) + "?canceled=1"),
		LineItems:  lineItems,
		Metadata: map[string]string{
			"bill_id": fmt.Sprint(bill.ID),
		},
	}

	s, err := checkoutsession.New(params)
	if err != nil {
		log.Printf("checkout: stripe session for bill %d failed: %v", bill.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": s.URL})
}
