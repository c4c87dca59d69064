package bills

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"retail-billing-app/internal/domain/bills"
	"retail-billing-app/internal/domain/catalog"
	"retail-billing-app/internal/domain/customers"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrProductNotFound aborts the whole transaction; nothing written before it
// survives.
type ErrProductNotFound struct {
	ProductID uint
}

func (e ErrProductNotFound) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

type ErrInsufficientStock struct {
	Product   string
	Requested int
	Available int
}

func (e ErrInsufficientStock) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.Product, e.Requested, e.Available)
}

// createBillTx runs the one multi-entity write in the system as a single
// storage transaction: find-or-create customer, stock check + decrement per
// line, totals, bill number allocation, persist bill with items.
func createBillTx(tx *gorm.DB, req *CreateBillRequest, now time.Time) (*bills.Bill, error) {
	customer, err := findOrCreateCustomer(tx, &req.Customer)
	if err != nil {
		return nil, err
	}

	var totalAmount float64
	items := make([]bills.BillItem, 0, len(req.Items))

	for _, line := range req.Items {
		var product catalog.Product
		if err := lockForUpdate(tx).First(&product, "id = ?", line.ProductID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, ErrProductNotFound{ProductID: line.ProductID}
			}
			return nil, err
		}

		if line.Quantity > product.Stock {
			return nil, ErrInsufficientStock{
				Product:   product.Title,
				Requested: line.Quantity,
				Available: product.Stock,
			}
		}

		lineTotal := product.Price * float64(line.Quantity)
		totalAmount += lineTotal
		items = append(items, bills.BillItem{
			ProductID:  product.ID,
			Quantity:   line.Quantity,
			UnitPrice:  product.Price,
			TotalPrice: lineTotal,
		})

		newStock := product.Stock - line.Quantity
		if err := tx.Model(&catalog.Product{}).
			Where("id = ?", product.ID).
			Updates(map[string]interface{}{
				"stock":               newStock,
				"availability_status": catalog.AvailabilityFor(newStock),
			}).Error; err != nil {
			return nil, err
		}
	}

	discountAmount := totalAmount * req.DiscountPercent / 100

	number, err := nextBillNumber(tx, now)
	if err != nil {
		return nil, err
	}

	bill := bills.Bill{
		BillNumber:      number,
		CustomerID:      customer.ID,
		TotalAmount:     totalAmount,
		DiscountPercent: req.DiscountPercent,
		DiscountAmount:  discountAmount,
		FinalAmount:     totalAmount - discountAmount,
		PaymentStatus:   bills.PaymentPending,
		PaymentMethod:   req.PaymentMethod,
		Items:           items,
	}
	if err := tx.Create(&bill).Error; err != nil {
		return nil, err
	}

	bill.Customer = customer
	return &bill, nil
}

func findOrCreateCustomer(tx *gorm.DB, in *CustomerInput) (customers.Customer, error) {
	var customer customers.Customer
	err := tx.Where("name = ? AND mobile_number = ?", in.Name, in.MobileNumber).
		First(&customer).Error
	if err == nil {
		return customer, nil
	}
	if err != gorm.ErrRecordNotFound {
		return customers.Customer{}, err
	}

	customer = customers.Customer{
		Name:         in.Name,
		MobileNumber: in.MobileNumber,
		Email:        in.Email,
		Address:      in.Address,
	}
	if err := tx.Create(&customer).Error; err != nil {
		return customers.Customer{}, err
	}
	return customer, nil
}

// nextBillNumber allocates BILL-YYYYMMDD-XXXXX: one past the highest suffix
// for today's prefix, 00001 when none. The unique index on bill_number turns
// a concurrent double allocation into a transaction failure instead of a
// duplicate.
func nextBillNumber(tx *gorm.DB, now time.Time) (string, error) {
	prefix := "BILL-" + now.Format("20060102") + "-"

	var last bills.Bill
	err := tx.Where("bill_number LIKE ?", prefix+"%").
		Order("bill_number DESC").
		First(&last).Error

	seq := 1
	if err == nil {
		suffix := strings.TrimPrefix(last.BillNumber, prefix)
		n, perr := strconv.Atoi(suffix)
		if perr != nil {
			return "", fmt.Errorf("malformed bill number %q", last.BillNumber)
		}
		seq = n + 1
	} else if err != gorm.ErrRecordNotFound {
		return "", err
	}

	return fmt.Sprintf("%s%05d", prefix, seq), nil
}

// Concurrent sales of the same product serialize on a row lock. sqlite (used
// in tests) rejects FOR UPDATE and is single-writer anyway.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
