package bills

type CustomerInput struct {
	Name         string  `json:"name" binding:"required"`
	MobileNumber string  `json:"mobile_number" binding:"required"`
	Email        *string `json:"email"`
	Address      *string `json:"address"`
}

type BillLineInput struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,gt=0"`
}

type CreateBillRequest struct {
	Customer        CustomerInput   `json:"customer" binding:"required"`
	Items           []BillLineInput `json:"items" binding:"required,min=1,dive"`
	DiscountPercent float64         `json:"discount_percent" binding:"gte=0,lte=100"`
	PaymentMethod   *string         `json:"payment_method"`
}

type UpdateBillRequest struct {
	PaymentStatus *string `json:"payment_status"`
	PaymentMethod *string `json:"payment_method"`
}
