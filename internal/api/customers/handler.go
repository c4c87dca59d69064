package customers

import (
	"net/http"
	"strconv"

	"retail-billing-app/internal/domain/bills"
	"retail-billing-app/internal/domain/customers"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	DB *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db}
}

type customerRequest struct {
	Name         string  `json:"name" binding:"required"`
	MobileNumber string  `json:"mobile_number" binding:"required"`
	Email        *string `json:"email"`
	Address      *string `json:"address"`
}

// POST /customers
func (h *Handler) CreateCustomer(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing customers.Customer
	err := h.DB.Where("name = ? AND mobile_number = ?", req.Name, req.MobileNumber).
		First(&existing).Error
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Customer already exists"})
		return
	}
	if err != gorm.ErrRecordNotFound {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create customer"})
		return
	}

	customer := customers.Customer{
		Name:         req.Name,
		MobileNumber: req.MobileNumber,
		Email:        req.Email,
		Address:      req.Address,
	}
	if err := h.DB.Create(&customer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create customer"})
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// GET /customers
func (h *Handler) ListCustomers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := h.DB.Model(&customers.Customer{})
	if search := c.Query("search"); search != "" {
		query = query.Where("name LIKE ? OR mobile_number LIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count customers"})
		return
	}

	var result []customers.Customer
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&result).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load customers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customers": result,
		"total":     total,
		"page":      page,
		"limit":     limit,
	})
}

// GET /customers/:id
func (h *Handler) GetCustomer(c *gin.Context) {
	var customer customers.Customer
	if err := h.DB.First(&customer, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load customer"})
		return
	}
	c.JSON(http.StatusOK, customer)
}

// PUT /customers/:id
func (h *Handler) UpdateCustomer(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := h.DB.Model(&customers.Customer{}).
		Where("id = ?", c.Param("id")).
		Updates(map[string]interface{}{
			"name":          req.Name,
			"mobile_number": req.MobileNumber,
			"email":         req.Email,
			"address":       req.Address,
		})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update customer"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// DELETE /customers/:id — refused while bills reference the customer.
func (h *Handler) DeleteCustomer(c *gin.Context) {
	id := c.Param("id")

	var refs int64
	if err := h.DB.Model(&bills.Bill{}).Where("customer_id = ?", id).Count(&refs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete customer"})
		return
	}
	if refs > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Customer has existing bills"})
		return
	}

	res := h.DB.Delete(&customers.Customer{}, "id = ?", id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete customer"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
