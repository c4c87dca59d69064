package bills

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"retail-billing-app/internal/app/http/middleware"
	"retail-billing-app/internal/domain/bills"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	DB *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db}
}

// POST /bills
func (h *Handler) CreateBill(c *gin.Context) {
	var req CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var created *bills.Bill
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		bill, err := createBillTx(tx, &req, time.Now())
		if err != nil {
			return err
		}
		created = bill
		return nil
	})

	if err != nil {
		var notFound ErrProductNotFound
		if errors.As(err, &notFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
			return
		}
		var noStock ErrInsufficientStock
		if errors.As(err, &noStock) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": noStock.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create bill"})
		return
	}

	// The usage tracker picks this up after the response is written.
	c.Set(middleware.CreatedBillKey, created.ID)
	c.JSON(http.StatusCreated, created)
}

// GET /bills
func (h *Handler) ListBills(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := h.DB.Model(&bills.Bill{})

	if search := c.Query("search"); search != "" {
		query = query.
			Joins("JOIN customers ON customers.id = bills.customer_id").
			Where("bills.bill_number LIKE ? OR customers.name LIKE ?",
				"%"+search+"%", "%"+search+"%")
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("bills.payment_status = ?", status)
	}
	query = dateRangeQuery(query, c, "bills.created_at")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count bills"})
		return
	}

	sortBy := c.DefaultQuery("sortBy", "created_at")
	order := c.DefaultQuery("order", "desc")
	switch sortBy {
	case "created_at", "final_amount", "bill_number":
	default:
		sortBy = "created_at"
	}
	if order != "asc" {
		order = "desc"
	}

	var result []bills.Bill
	err := query.
		Preload("Customer").
		Preload("Items").
		Order("bills." + sortBy + " " + order).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&result).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load bills"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bills": result,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GET /bills/:id
func (h *Handler) GetBill(c *gin.Context) {
	var bill bills.Bill
	err := h.DB.
		Preload("Customer").
		Preload("Items").
		Preload("Items.Product").
		First(&bill, "id = ?", c.Param("id")).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Bill not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load bill"})
		return
	}
	c.JSON(http.StatusOK, bill)
}

// PUT /bills/:id — bills are immutable except for payment status/method.
func (h *Handler) UpdateBill(c *gin.Context) {
	var req UpdateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.PaymentStatus != nil {
		switch bills.PaymentStatus(*req.PaymentStatus) {
		case bills.PaymentPending, bills.PaymentPaid:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment_status"})
			return
		}
		updates["payment_status"] = *req.PaymentStatus
		if bills.PaymentStatus(*req.PaymentStatus) == bills.PaymentPaid {
			updates["paid_at"] = time.Now()
		}
	}
	if req.PaymentMethod != nil {
		updates["payment_method"] = *req.PaymentMethod
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	res := h.DB.Model(&bills.Bill{}).Where("id = ?", c.Param("id")).Updates(updates)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update bill"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Bill not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// DELETE /bills/:id
func (h *Handler) DeleteBill(c *gin.Context) {
	id := c.Param("id")

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bill_id = ?", id).Delete(&bills.BillItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&bills.Bill{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Bill not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete bill"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func dateRangeQuery(query *gorm.DB, c *gin.Context, column string) *gorm.DB {
	if from := c.Query("startDate"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			query = query.Where(column+" >= ?", t)
		}
	}
	if to := c.Query("endDate"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			query = query.Where(column+" < ?", t.AddDate(0, 0, 1))
		}
	}
	return query
}
