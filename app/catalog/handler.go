package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/openpos/pos-service/models"
)

type Response struct {
	Total    int       `json:"total"`
	Products []Product `json:"products"`
}

type Category struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type Product struct {
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	Price    string   `json:"price"`
	Stock    int      `json:"stock"`
	Expiry   string   `json:"expiry,omitempty"`
	Category Category `json:"category"`
}

// ProductProvider is the read-only catalog surface the handler needs.
type ProductProvider interface {
	GetFilteredProducts(ctx context.Context, offset, limit int, filters models.ProductFilters) ([]models.Product, int64, error)
	GetByCode(ctx context.Context, code string) (*models.Product, error)
}

type CatalogHandler struct {
	repo ProductProvider
}

func NewCatalogHandler(r ProductProvider) *CatalogHandler {
	return &CatalogHandler{
		repo: r,
	}
}

func (h *CatalogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	// Parse pagination query params
	offset := 0
	limit := 10

	if oStr := r.URL.Query().Get("offset"); oStr != "" {
		if o, err := strconv.Atoi(oStr); err == nil && o >= 0 {
			offset = o
		}
	}

	if lStr := r.URL.Query().Get("limit"); lStr != "" {
		if l, err := strconv.Atoi(lStr); err == nil {
			if l < 1 {
				limit = 1
			} else if l > 100 {
				limit = 100
			} else {
				limit = l
			}
		}
	}

	// Parse filters
	categoryCode := r.URL.Query().Get("category")

	var priceFilter *float64
	if priceStr := r.URL.Query().Get("price_lt"); priceStr != "" {
		if val, err := strconv.ParseFloat(priceStr, 64); err == nil {
			priceFilter = &val
		}
	}

	filters := models.ProductFilters{
		CategoryCode:  categoryCode,
		PriceLessThan: priceFilter,
	}

	res, total, err := h.repo.GetFilteredProducts(r.Context(), offset, limit, filters)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	products := make([]Product, len(res))
	for i, p := range res {
		products[i] = toProduct(p)
	}

	w.Header().Set("Content-Type", "application/json")
	response := Response{
		Total:    int(total),
		Products: products,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *CatalogHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	product, err := h.repo.GetByCode(r.Context(), code)
	if err != nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	response := struct {
		Product
		LowStock bool `json:"low_stock"`
		Expiring bool `json:"expiring"`
	}{
		Product:  toProduct(*product),
		LowStock: product.IsLowStock(),
		Expiring: product.IsExpiring(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toProduct(p models.Product) Product {
	out := Product{
		Code:  p.Code,
		Name:  p.Name,
		Price: p.Price.StringFixed(2),
		Stock: p.Stock,
		Category: Category{
			Code: p.Category.Code,
			Name: p.Category.Name,
		},
	}
	if p.ExpiryDate != nil {
		out.Expiry = p.ExpiryDate.Format("2006-01-02")
	}
	return out
}
