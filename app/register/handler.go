// Package register is the cashier-facing API: it keeps the open carts of
// active sessions in memory and drives the checkout engine.
package register

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/openpos/pos-service/cart"
	"github.com/openpos/pos-service/checkout"
	"github.com/openpos/pos-service/models"
)

// CartStore holds the open carts, one per register session.
type CartStore struct {
	mu    sync.RWMutex
	carts map[uuid.UUID]*cart.Cart
}

func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[uuid.UUID]*cart.Cart)}
}

func (s *CartStore) Put(c *cart.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[c.ID()] = c
}

func (s *CartStore) Get(id uuid.UUID) (*cart.Cart, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.carts[id]
	return c, ok
}

func (s *CartStore) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, id)
}

// Committer is the checkout engine as seen by the handler.
type Committer interface {
	Commit(ctx context.Context, c *cart.Cart) (uint, error)
}

// CatalogProvider resolves product codes when lines are added.
type CatalogProvider interface {
	GetByCode(ctx context.Context, code string) (*models.Product, error)
}

type RegisterHandler struct {
	store   *CartStore
	catalog CatalogProvider
	engine  Committer
	log     *logrus.Entry
}

func NewRegisterHandler(store *CartStore, catalog CatalogProvider, engine Committer, log *logrus.Logger) *RegisterHandler {
	return &RegisterHandler{
		store:   store,
		catalog: catalog,
		engine:  engine,
		log:     log.WithField("component", "register"),
	}
}

type lineResponse struct {
	ID          string `json:"id"`
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Subtotal    string `json:"subtotal"`
}

type cartResponse struct {
	ID             string         `json:"id"`
	UserID         uint           `json:"user_id"`
	Lines          []lineResponse `json:"lines"`
	DiscountType   string         `json:"discount_type"`
	DiscountAmount string         `json:"discount_amount"`
	RawTotal       string         `json:"raw_total"`
	NetTotal       string         `json:"net_total"`
	PaymentMethod  string         `json:"payment_method"`
}

func toCartResponse(c *cart.Cart) cartResponse {
	lines := c.Lines()
	out := cartResponse{
		ID:             c.ID().String(),
		UserID:         c.UserID(),
		Lines:          make([]lineResponse, len(lines)),
		DiscountType:   string(c.DiscountType()),
		DiscountAmount: c.DiscountAmount().StringFixed(2),
		RawTotal:       c.RawTotal().StringFixed(2),
		NetTotal:       c.NetTotal().StringFixed(2),
		PaymentMethod:  string(c.PaymentMethod()),
	}
	for i, l := range lines {
		out.Lines[i] = lineResponse{
			ID:          l.ID.String(),
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice.StringFixed(2),
			Subtotal:    l.Subtotal().StringFixed(2),
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// HandleCreateCart opens a fresh cart for the given cashier.
func (h *RegisterHandler) HandleCreateCart(w http.ResponseWriter, r *http.Request) {
	var input struct {
		UserID uint `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if input.UserID == 0 {
		writeError(w, http.StatusUnprocessableEntity, "user_id is required")
		return
	}

	c := cart.New(input.UserID)
	h.store.Put(c)
	writeJSON(w, http.StatusCreated, toCartResponse(c))
}

func (h *RegisterHandler) HandleGetCart(w http.ResponseWriter, r *http.Request) {
	c, ok := h.cartFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// HandleAddItem resolves the product and appends a line. Repeating a product
// appends a second line; lines are never merged.
func (h *RegisterHandler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	c, ok := h.cartFromPath(w, r)
	if !ok {
		return
	}

	var input struct {
		ProductCode string `json:"product_code"`
		Quantity    int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	product, err := h.catalog.GetByCode(r.Context(), input.ProductCode)
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.log.WithError(err).Error("product lookup failed")
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return
	}

	if _, err := c.AddItem(product, input.Quantity); err != nil {
		h.writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *RegisterHandler) HandleUpdateLine(w http.ResponseWriter, r *http.Request) {
	c, ok := h.cartFromPath(w, r)
	if !ok {
		return
	}
	lineID, err := uuid.Parse(r.PathValue("lineID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid line id")
		return
	}

	var input struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := c.UpdateLine(lineID, input.Quantity); err != nil {
		h.writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *RegisterHandler) HandleRemoveLine(w http.ResponseWriter, r *http.Request) {
	c, ok := h.cartFromPath(w, r)
	if !ok {
		return
	}
	lineID, err := uuid.Parse(r.PathValue("lineID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid line id")
		return
	}

	if err := c.RemoveLine(lineID); err != nil {
		h.writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *RegisterHandler) HandleApplyDiscount(w http.ResponseWriter, r *http.Request) {
	c, ok := h.cartFromPath(w, r)
	if !ok {
		return
	}

	var input struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	value := decimal.Zero
	if input.Value != "" {
		parsed, err := decimal.NewFromString(input.Value)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid discount value")
			return
		}
		value = parsed
	}

	if err := c.ApplyDiscount(models.DiscountType(input.Type), value); err != nil {
		h.writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// HandleCheckout commits the cart. On success the cart leaves the store; on
// any failure it stays open and unchanged so the cashier can adjust and retry.
func (h *RegisterHandler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	c, ok := h.cartFromPath(w, r)
	if !ok {
		return
	}

	var input struct {
		PaymentMethod string `json:"payment_method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	previousMethod := c.PaymentMethod()
	if input.PaymentMethod != "" {
		method, err := models.ParsePaymentMethod(input.PaymentMethod)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		if err := c.SetPaymentMethod(method); err != nil {
			h.writeCartError(w, err)
			return
		}
	}

	saleID, err := h.engine.Commit(r.Context(), c)
	if err != nil {
		// A failed commit leaves the cart exactly as it was, payment
		// method included.
		_ = c.SetPaymentMethod(previousMethod)
		h.writeCartError(w, err)
		return
	}

	h.store.Delete(c.ID())
	writeJSON(w, http.StatusCreated, map[string]any{"sale_id": saleID})
}

func (h *RegisterHandler) cartFromPath(w http.ResponseWriter, r *http.Request) (*cart.Cart, bool) {
	id, err := uuid.Parse(r.PathValue("cartID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid cart id")
		return nil, false
	}
	c, ok := h.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "cart not found")
		return nil, false
	}
	return c, true
}

func (h *RegisterHandler) writeCartError(w http.ResponseWriter, err error) {
	var stockErr models.InsufficientStockError
	var persistErr *checkout.PersistenceError

	switch {
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      "insufficient stock",
			"product_id": stockErr.ProductID,
		})
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, http.StatusUnprocessableEntity, "cart is empty")
	case errors.Is(err, cart.ErrCartCommitted):
		writeError(w, http.StatusConflict, "cart is already committed")
	case errors.Is(err, cart.ErrLineNotFound):
		writeError(w, http.StatusNotFound, "line item not found")
	case errors.As(err, &persistErr):
		h.log.WithError(err).Error("checkout persistence failure")
		writeError(w, http.StatusInternalServerError, "sale could not be persisted, retry")
	default:
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	}
}
