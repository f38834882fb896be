package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Thresholds used by the dashboard queries and the product helpers.
const (
	LowStockThreshold = 10
	ExpiryWarningDays = 30
)

// Product represents a product in the catalog.
// Stock is the live on-hand quantity; it is only ever decremented through the
// conditional update inside a sale transaction, so it can never go negative.
type Product struct {
	ID         uint            `gorm:"primaryKey"`
	Code       string          `gorm:"uniqueIndex;not null"`
	Name       string          `gorm:"not null"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Stock      int             `gorm:"not null;default:0"`
	ExpiryDate *time.Time
	CategoryID uint     `gorm:"not null"`
	Category   Category `gorm:"foreignKey:CategoryID"`
}

func (p *Product) TableName() string {
	return "products"
}

// IsLowStock reports whether the product is below the reorder threshold.
func (p *Product) IsLowStock() bool {
	return p.Stock < LowStockThreshold
}

// IsExpiring reports whether the product expires within the warning window.
// Products without an expiry date never expire.
func (p *Product) IsExpiring() bool {
	if p.ExpiryDate == nil {
		return false
	}
	return time.Now().AddDate(0, 0, ExpiryWarningDays).After(*p.ExpiryDate)
}
