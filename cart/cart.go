// Package cart holds the in-memory state of a sale in progress. A cart is
// mutable until the checkout engine commits it, after which every mutator
// fails with ErrCartCommitted.
package cart

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openpos/pos-service/models"
)

var (
	ErrCartCommitted = errors.New("cart is already committed")
	ErrLineNotFound  = errors.New("line item not found")
)

var oneHundred = decimal.NewFromInt(100)

// Line is one product entry in the cart. Name, unit price and the stock level
// are snapshots taken when the line was added; catalog changes afterwards do
// not alter the line. Lines are addressed by their ID, never by position.
type Line struct {
	ID          uuid.UUID
	ProductID   uint
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal

	// stock seen at add time, used to bound quantity edits
	stockSnapshot int
}

// Subtotal is unit price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is safe for concurrent use; the UI thread and the checkout engine may
// touch the same cart.
type Cart struct {
	mu sync.Mutex

	id             uuid.UUID
	userID         uint
	lines          []Line
	discountType   models.DiscountType
	discountAmount decimal.Decimal
	payment        models.PaymentMethod
	committed      bool
}

// New starts an empty open cart for the given cashier. The user id is
// explicit here so there is no ambient current-user state anywhere below the
// session layer.
func New(userID uint) *Cart {
	return &Cart{
		id:             uuid.New(),
		userID:         userID,
		discountType:   models.DiscountNone,
		discountAmount: decimal.Zero,
		payment:        models.PaymentCash,
	}
}

func (c *Cart) ID() uuid.UUID { return c.id }

func (c *Cart) UserID() uint { return c.userID }

// AddItem appends a line for the product. Adding the same product twice keeps
// two separate lines; the register treats each add action as its own entry.
func (c *Cart) AddItem(product *models.Product, quantity int) (uuid.UUID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.committed {
		return uuid.Nil, ErrCartCommitted
	}
	if quantity <= 0 {
		return uuid.Nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	if product.Stock < quantity {
		return uuid.Nil, models.InsufficientStockError{ProductID: product.ID}
	}

	line := Line{
		ID:            uuid.New(),
		ProductID:     product.ID,
		ProductName:   product.Name,
		Quantity:      quantity,
		UnitPrice:     product.Price,
		stockSnapshot: product.Stock,
	}
	c.lines = append(c.lines, line)
	return line.ID, nil
}

// RemoveLine deletes the line with the given id.
func (c *Cart) RemoveLine(id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.committed {
		return ErrCartCommitted
	}
	for i, l := range c.lines {
		if l.ID == id {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

// UpdateLine changes a line's quantity. The new quantity is bounded by the
// stock level seen when the line was added; commit re-validates against the
// live catalog anyway.
func (c *Cart) UpdateLine(id uuid.UUID, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.committed {
		return ErrCartCommitted
	}
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	for i := range c.lines {
		if c.lines[i].ID == id {
			if quantity > c.lines[i].stockSnapshot {
				return models.InsufficientStockError{ProductID: c.lines[i].ProductID}
			}
			c.lines[i].Quantity = quantity
			return nil
		}
	}
	return ErrLineNotFound
}

// ApplyDiscount validates and applies a discount. A percent value is
// converted to an absolute amount against the current raw total, rounded
// half-up to cents, and frozen; later cart edits do not re-derive it.
func (c *Cart) ApplyDiscount(kind models.DiscountType, value decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.committed {
		return ErrCartCommitted
	}

	switch kind {
	case models.DiscountNone:
		c.discountType = models.DiscountNone
		c.discountAmount = decimal.Zero
		return nil
	case models.DiscountPercent:
		if value.IsNegative() || value.GreaterThan(oneHundred) {
			return fmt.Errorf("percent discount must be between 0 and 100, got %s", value)
		}
		raw := c.rawTotalLocked()
		c.discountAmount = raw.Mul(value).Div(oneHundred).Round(2)
		c.discountType = models.DiscountPercent
		return nil
	case models.DiscountAmount:
		if value.IsNegative() {
			return fmt.Errorf("discount amount must not be negative, got %s", value)
		}
		if value.GreaterThan(c.rawTotalLocked()) {
			return fmt.Errorf("discount amount %s exceeds cart total", value)
		}
		c.discountAmount = value.Round(2)
		c.discountType = models.DiscountAmount
		return nil
	default:
		return fmt.Errorf("unknown discount type %q", kind)
	}
}

// Clear empties the cart and resets the discount. The cart stays open.
func (c *Cart) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.committed {
		return ErrCartCommitted
	}
	c.lines = nil
	c.discountType = models.DiscountNone
	c.discountAmount = decimal.Zero
	return nil
}

// Lines returns a copy of the current line items in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) DiscountType() models.DiscountType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.discountType
}

func (c *Cart) DiscountAmount() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.discountAmount
}

// RawTotal is the sum of line subtotals before any discount.
func (c *Cart) RawTotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rawTotalLocked()
}

// NetTotal is the raw total minus the discount, floored at zero.
func (c *Cart) NetTotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	net := c.rawTotalLocked().Sub(c.discountAmount)
	if net.IsNegative() {
		return decimal.Zero
	}
	return net
}

// SetPaymentMethod records how the sale will be settled. Defaults to cash.
func (c *Cart) SetPaymentMethod(m models.PaymentMethod) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.committed {
		return ErrCartCommitted
	}
	c.payment = m
	return nil
}

func (c *Cart) PaymentMethod() models.PaymentMethod {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.payment
}

func (c *Cart) Committed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.committed
}

func (c *Cart) rawTotalLocked() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// MarkCommitted seals the cart. Only the checkout engine calls this, after
// the sale is durably written.
func (c *Cart) MarkCommitted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.committed = true
}
