// Package products exposes the back-office product management endpoints:
// create, update, delete, plus the low-stock and expiring dashboards.
package products

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/openpos/pos-service/models"
)

type ProductStore interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
	GetLowStockProducts(ctx context.Context) ([]models.Product, error)
	GetExpiringProducts(ctx context.Context) ([]models.Product, error)
}

type ProductHandler struct {
	repo ProductStore
	log  *logrus.Entry
}

func NewProductHandler(r ProductStore, log *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		repo: r,
		log:  log.WithField("component", "products"),
	}
}

type productInput struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Price      string `json:"price"`
	Stock      int    `json:"stock"`
	Expiry     string `json:"expiry,omitempty"`
	CategoryID uint   `json:"category_id"`
}

type productResponse struct {
	ID       uint   `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Stock    int    `json:"stock"`
	Expiry   string `json:"expiry,omitempty"`
	LowStock bool   `json:"low_stock"`
	Expiring bool   `json:"expiring"`
}

func toResponse(p models.Product) productResponse {
	out := productResponse{
		ID:       p.ID,
		Code:     p.Code,
		Name:     p.Name,
		Price:    p.Price.StringFixed(2),
		Stock:    p.Stock,
		LowStock: p.IsLowStock(),
		Expiring: p.IsExpiring(),
	}
	if p.ExpiryDate != nil {
		out.Expiry = p.ExpiryDate.Format("2006-01-02")
	}
	return out
}

func (in productInput) toModel() (*models.Product, error) {
	if in.Code == "" || in.Name == "" {
		return nil, errors.New("code and name are required")
	}
	price, err := decimal.NewFromString(in.Price)
	if err != nil {
		return nil, errors.New("invalid price")
	}
	if price.IsNegative() {
		return nil, errors.New("price must not be negative")
	}
	if in.Stock < 0 {
		return nil, errors.New("stock must not be negative")
	}
	p := &models.Product{
		Code:       in.Code,
		Name:       in.Name,
		Price:      price,
		Stock:      in.Stock,
		CategoryID: in.CategoryID,
	}
	if in.Expiry != "" {
		expiry, err := time.Parse("2006-01-02", in.Expiry)
		if err != nil {
			return nil, errors.New("invalid expiry date, want YYYY-MM-DD")
		}
		p.ExpiryDate = &expiry
	}
	return p, nil
}

func (h *ProductHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input productInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	product, err := input.toModel()
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	if err := h.repo.CreateProduct(r.Context(), product); err != nil {
		h.log.WithError(err).WithField("code", input.Code).Error("create product failed")
		http.Error(w, "Failed to create product", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toResponse(*product))
}

func (h *ProductHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid product id", http.StatusBadRequest)
		return
	}

	var input productInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	product, err := input.toModel()
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	product.ID = id

	if err := h.repo.UpdateProduct(r.Context(), product); err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		h.log.WithError(err).WithField("id", id).Error("update product failed")
		http.Error(w, "Failed to update product", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toResponse(*product))
}

func (h *ProductHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid product id", http.StatusBadRequest)
		return
	}

	if err := h.repo.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		h.log.WithError(err).WithField("id", id).Error("delete product failed")
		http.Error(w, "Failed to delete product", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) HandleLowStock(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.repo.GetLowStockProducts)
}

func (h *ProductHandler) HandleExpiring(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.repo.GetExpiringProducts)
}

func (h *ProductHandler) writeList(w http.ResponseWriter, r *http.Request, fetch func(context.Context) ([]models.Product, error)) {
	products, err := fetch(r.Context())
	if err != nil {
		h.log.WithError(err).Error("product list query failed")
		http.Error(w, "failed to fetch products", http.StatusInternalServerError)
		return
	}

	response := make([]productResponse, len(products))
	for i, p := range products {
		response[i] = toResponse(p)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
