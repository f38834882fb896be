// Package checkout turns an open cart into a durable sale. Commit is
// two-phase: an advisory stock pre-check against the live catalog, then one
// atomic write covering the sale header, its items, and the stock decrements.
// Only the write phase is authoritative; concurrent commits are serialized by
// the conditional decrement inside the storage transaction.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/openpos/pos-service/cart"
	"github.com/openpos/pos-service/models"
	"github.com/openpos/pos-service/pkg/metrics"
)

// ErrEmptyCart rejects a commit before any storage access.
var ErrEmptyCart = errors.New("cart has no line items")

// PersistenceError wraps a storage failure during the atomic write. The write
// was rolled back completely, so the caller may retry with the same cart.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("sale could not be persisted: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// CatalogProvider is the read side of the catalog used by the pre-check.
type CatalogProvider interface {
	GetByID(ctx context.Context, id uint) (*models.Product, error)
}

// SaleStore persists a sale atomically, stock decrements included.
type SaleStore interface {
	CreateSale(ctx context.Context, sale *models.Sale) error
}

type Engine struct {
	catalog CatalogProvider
	sales   SaleStore
	metrics *metrics.CheckoutMetrics
	log     *logrus.Entry
}

func NewEngine(catalog CatalogProvider, sales SaleStore, m *metrics.CheckoutMetrics, log *logrus.Logger) *Engine {
	return &Engine{
		catalog: catalog,
		sales:   sales,
		metrics: m,
		log:     log.WithField("component", "checkout"),
	}
}

// Commit validates and durably writes the cart as a sale.
//
// On success the cart is sealed and the assigned sale id returned; the caller
// starts a fresh cart for the next customer. On any failure the cart is left
// open and untouched, so the operator can adjust and retry. Failures are
// always one of ErrEmptyCart, models.InsufficientStockError, or
// *PersistenceError.
//
// Once the write phase starts it runs to completion; ctx cancellation before
// that point aborts cleanly, but a caller-side timeout during the write means
// "outcome unknown", not "rolled back".
func (e *Engine) Commit(ctx context.Context, c *cart.Cart) (uint, error) {
	if c.Committed() {
		return 0, cart.ErrCartCommitted
	}
	lines := c.Lines()
	if len(lines) == 0 {
		e.metrics.SalesFailed.WithLabelValues("empty_cart").Inc()
		return 0, ErrEmptyCart
	}

	// Pre-check phase: advisory only. It closes the gap between cart
	// assembly and commit but cannot exclude concurrent commits; the
	// conditional decrement in the write phase is the real guard.
	for _, line := range lines {
		product, err := e.catalog.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, models.ErrProductNotFound) {
				e.metrics.SalesFailed.WithLabelValues("insufficient_stock").Inc()
				return 0, models.InsufficientStockError{ProductID: line.ProductID}
			}
			e.metrics.SalesFailed.WithLabelValues("persistence").Inc()
			return 0, &PersistenceError{Err: err}
		}
		if product.Stock < line.Quantity {
			e.metrics.SalesFailed.WithLabelValues("insufficient_stock").Inc()
			return 0, models.InsufficientStockError{ProductID: line.ProductID}
		}
	}

	sale := e.buildSale(c, lines)
	if err := e.sales.CreateSale(ctx, sale); err != nil {
		var stockErr models.InsufficientStockError
		if errors.As(err, &stockErr) {
			e.metrics.SalesFailed.WithLabelValues("insufficient_stock").Inc()
			e.log.WithFields(logrus.Fields{
				"user_id":    c.UserID(),
				"product_id": stockErr.ProductID,
			}).Warn("commit lost stock race")
			return 0, stockErr
		}
		e.metrics.SalesFailed.WithLabelValues("persistence").Inc()
		e.log.WithField("user_id", c.UserID()).WithError(err).Error("sale write failed")
		return 0, &PersistenceError{Err: err}
	}

	c.MarkCommitted()
	e.metrics.SalesCommitted.Inc()
	e.log.WithFields(logrus.Fields{
		"sale_id": sale.ID,
		"user_id": c.UserID(),
		"total":   sale.TotalAmount.String(),
		"lines":   len(lines),
	}).Info("sale committed")
	return sale.ID, nil
}

func (e *Engine) buildSale(c *cart.Cart, lines []cart.Line) *models.Sale {
	items := make([]models.SaleItem, len(lines))
	for i, line := range lines {
		items[i] = models.SaleItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		}
	}
	return &models.Sale{
		UserID:         c.UserID(),
		TotalAmount:    c.NetTotal(),
		DiscountAmount: c.DiscountAmount(),
		DiscountType:   c.DiscountType(),
		PaymentMethod:  c.PaymentMethod(),
		SaleDate:       time.Now(),
		Items:          items,
	}
}
