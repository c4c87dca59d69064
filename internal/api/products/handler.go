package products

import (
	"net/http"
	"strconv"

	"retail-billing-app/internal/domain/bills"
	"retail-billing-app/internal/domain/catalog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	DB *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db}
}

type productRequest struct {
	Title string   `json:"title" binding:"required"`
	Price *float64 `json:"price" binding:"required,gte=0"`
	Stock *int     `json:"stock" binding:"required,gte=0"`

	Category string  `json:"category"`
	Brand    string  `json:"brand"`
	Images   string  `json:"images"`
	Tags     string  `json:"tags"`
	Rating   float64 `json:"rating"`

	WarrantyInformation string `json:"warranty_information"`
	ShippingInformation string `json:"shipping_information"`
	ReturnPolicy        string `json:"return_policy"`

	MinimumOrderQuantity int `json:"minimum_order_quantity"`
}

// POST /products
func (h *Handler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	minQty := req.MinimumOrderQuantity
	if minQty < 1 {
		minQty = 1
	}

	product := catalog.Product{
		Title:                req.Title,
		Price:                *req.Price,
		Stock:                *req.Stock,
		AvailabilityStatus:   catalog.AvailabilityFor(*req.Stock),
		Category:             req.Category,
		Brand:                req.Brand,
		Images:               req.Images,
		Tags:                 req.Tags,
		Rating:               req.Rating,
		WarrantyInformation:  req.WarrantyInformation,
		ShippingInformation:  req.ShippingInformation,
		ReturnPolicy:         req.ReturnPolicy,
		MinimumOrderQuantity: minQty,
	}

	if err := h.DB.Create(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}
	c.JSON(http.StatusCreated, product)
}

// GET /products
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := h.DB.Model(&catalog.Product{})
	if search := c.Query("search"); search != "" {
		query = query.Where("title LIKE ? OR brand LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count products"})
		return
	}

	sortBy := c.DefaultQuery("sortBy", "created_at")
	order := c.DefaultQuery("order", "desc")
	switch sortBy {
	case "created_at", "title", "price", "stock", "rating":
	default:
		sortBy = "created_at"
	}
	if order != "asc" {
		order = "desc"
	}

	var products []catalog.Product
	err := query.
		Order(sortBy + " " + order).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// GET /products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	var product catalog.Product
	if err := h.DB.First(&product, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load product"})
		return
	}
	c.JSON(http.StatusOK, product)
}

// PUT /products/:id
func (h *Handler) UpdateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{
		"title":                 req.Title,
		"price":                 *req.Price,
		"stock":                 *req.Stock,
		"availability_status":   catalog.AvailabilityFor(*req.Stock),
		"category":              req.Category,
		"brand":                 req.Brand,
		"images":                req.Images,
		"tags":                  req.Tags,
		"rating":                req.Rating,
		"warranty_information":  req.WarrantyInformation,
		"shipping_information":  req.ShippingInformation,
		"return_policy":         req.ReturnPolicy,
	}
	if req.MinimumOrderQuantity >= 1 {
		updates["minimum_order_quantity"] = req.MinimumOrderQuantity
	}

	res := h.DB.Model(&catalog.Product{}).Where("id = ?", c.Param("id")).Updates(updates)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	var product catalog.Product
	h.DB.First(&product, "id = ?", c.Param("id"))
	c.JSON(http.StatusOK, product)
}

// DELETE /products/:id — refused while any bill item references the product.
func (h *Handler) DeleteProduct(c *gin.Context) {
	id := c.Param("id")

	var refs int64
	if err := h.DB.Model(&bills.BillItem{}).Where("product_id = ?", id).Count(&refs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}
	if refs > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Product is referenced by existing bills"})
		return
	}

	res := h.DB.Delete(&catalog.Product{}, "id = ?", id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
