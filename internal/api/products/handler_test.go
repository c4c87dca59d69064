package products

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	billsdomain "retail-billing-app/internal/domain/bills"
	"retail-billing-app/internal/domain/catalog"
	"retail-billing-app/internal/domain/customers"
	"retail-billing-app/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(db *gorm.DB) *gin.Engine {
	h := NewHandler(db)
	r := gin.New()
	r.POST("/products", h.CreateProduct)
	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)
	r.PUT("/products/:id", h.UpdateProduct)
	r.DELETE("/products/:id", h.DeleteProduct)
	return r
}

func TestCreateProduct(t *testing.T) {
	db := testutil.OpenDB(t)
	r := newRouter(db)

	body := []byte(`{"title":"Widget","price":99.5,"stock":0,"category":"tools"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var product catalog.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &product))
	assert.Equal(t, catalog.AvailabilityOutOfStock, product.AvailabilityStatus)
	assert.Equal(t, 1, product.MinimumOrderQuantity)
}

func TestListProducts(t *testing.T) {
	db := testutil.OpenDB(t)
	r := newRouter(db)

	for _, p := range []catalog.Product{
		{Title: "Hammer", Price: 10, Stock: 5, Category: "tools", AvailabilityStatus: catalog.AvailabilityInStock},
		{Title: "Saw", Price: 20, Stock: 2, Category: "tools", AvailabilityStatus: catalog.AvailabilityInStock},
		{Title: "Mug", Price: 5, Stock: 9, Category: "kitchen", AvailabilityStatus: catalog.AvailabilityInStock},
	} {
		require.NoError(t, db.Create(&p).Error)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products?category=tools&sortBy=price&order=asc", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Products []catalog.Product `json:"products"`
		Total    int64             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(2), body.Total)
	require.Len(t, body.Products, 2)
	assert.Equal(t, "Hammer", body.Products[0].Title)
}

func TestDeleteProduct(t *testing.T) {
	t.Run("refused when referenced by a bill", func(t *testing.T) {
		db := testutil.OpenDB(t)
		r := newRouter(db)

		product := catalog.Product{Title: "Widget", Price: 10, Stock: 5}
		require.NoError(t, db.Create(&product).Error)
		customer := customers.Customer{Name: "A", MobileNumber: "9999999999"}
		require.NoError(t, db.Create(&customer).Error)
		bill := billsdomain.Bill{
			BillNumber: "BILL-20260101-00001",
			CustomerID: customer.ID,
			Items: []billsdomain.BillItem{
				{ProductID: product.ID, Quantity: 1, UnitPrice: 10, TotalPrice: 10},
			},
		}
		require.NoError(t, db.Create(&bill).Error)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/products/1", nil))
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("deletes an unreferenced product", func(t *testing.T) {
		db := testutil.OpenDB(t)
		r := newRouter(db)

		product := catalog.Product{Title: "Widget", Price: 10, Stock: 5}
		require.NoError(t, db.Create(&product).Error)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/products/1", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		var count int64
		db.Model(&catalog.Product{}).Count(&count)
		assert.Zero(t, count)
	})
}
