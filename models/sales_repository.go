package models

import (
	"context"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

type SalesRepository struct {
	db *gorm.DB
}

func NewSalesRepository(db *gorm.DB) *SalesRepository {
	return &SalesRepository{
		db: db,
	}
}

// CreateSale persists the sale header, its items, and the stock decrements as
// one database transaction. The decrement is conditional on sufficient stock,
// so two sales racing over the same product cannot both drain it below zero:
// the loser's update matches no row and the whole transaction rolls back with
// InsufficientStockError. On success sale.ID carries the assigned identifier.
func (r *SalesRepository) CreateSale(ctx context.Context, sale *Sale) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Create inserts the header and, via the association, every item
		// with the freshly assigned sale id.
		if err := tx.Create(sale).Error; err != nil {
			return pkgerrors.Wrap(err, "insert sale")
		}

		for _, item := range sale.Items {
			res := tx.Model(&Product{}).
				Where("id = ? AND stock >= ?", item.ProductID, item.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", item.Quantity))
			if res.Error != nil {
				return pkgerrors.Wrap(res.Error, "decrement stock")
			}
			if res.RowsAffected == 0 {
				return InsufficientStockError{ProductID: item.ProductID}
			}
		}
		return nil
	})
	if err != nil {
		// The rollback leaves a stale generated id behind; zero it so a
		// failed sale never looks committed.
		sale.ID = 0
		for i := range sale.Items {
			sale.Items[i].ID = 0
			sale.Items[i].SaleID = 0
		}
	}
	return err
}

// SalesInRange returns committed sales whose date falls in [start, end],
// items included, oldest first.
func (r *SalesRepository) SalesInRange(ctx context.Context, start, end time.Time) ([]Sale, error) {
	var sales []Sale
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("sale_date BETWEEN ? AND ?", start, end).
		Order("sale_date ASC").
		Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}
