package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how the customer settled a sale.
type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "cash"
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentDebitCard  PaymentMethod = "debit_card"
	PaymentUPI        PaymentMethod = "upi"
)

// ParsePaymentMethod validates a payment method coming from the API layer.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PaymentCash, PaymentCreditCard, PaymentDebitCard, PaymentUPI:
		return PaymentMethod(s), nil
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}

// DiscountType records how a discount was entered. The stored discount amount
// is always absolute regardless of type.
type DiscountType string

const (
	DiscountNone    DiscountType = "none"
	DiscountPercent DiscountType = "percent"
	DiscountAmount  DiscountType = "amount"
)

// Sale is a committed transaction. Rows only exist for committed sales;
// open carts live in memory and never touch this table.
type Sale struct {
	ID             uint            `gorm:"primaryKey"`
	UserID         uint            `gorm:"not null;index"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	DiscountType   DiscountType    `gorm:"not null;default:none"`
	PaymentMethod  PaymentMethod   `gorm:"not null"`
	SaleDate       time.Time       `gorm:"not null;index"`
	Items          []SaleItem      `gorm:"foreignKey:SaleID"`
}

func (s *Sale) TableName() string {
	return "sales"
}

// SaleItem is one line of a committed sale. Name and unit price are snapshots
// taken when the line was added to the cart, so later catalog edits do not
// rewrite history.
type SaleItem struct {
	ID          uint            `gorm:"primaryKey"`
	SaleID      uint            `gorm:"not null;index"`
	ProductID   uint            `gorm:"not null"`
	ProductName string          `gorm:"not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
}

func (i *SaleItem) TableName() string {
	return "sale_items"
}

// Subtotal is unit price times quantity.
func (i *SaleItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// InsufficientStockError reports that a product could not cover the requested
// quantity, either at pre-check or when the conditional decrement found fewer
// units than needed at write time.
type InsufficientStockError struct {
	ProductID uint
}

func (e InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d", e.ProductID)
}
