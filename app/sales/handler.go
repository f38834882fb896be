// Package sales exposes the committed-sale history for reporting.
package sales

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/openpos/pos-service/models"
)

type SalesProvider interface {
	SalesInRange(ctx context.Context, start, end time.Time) ([]models.Sale, error)
}

type SalesHandler struct {
	repo SalesProvider
	log  *logrus.Entry
}

func NewSalesHandler(r SalesProvider, log *logrus.Logger) *SalesHandler {
	return &SalesHandler{
		repo: r,
		log:  log.WithField("component", "sales"),
	}
}

type ItemResponse struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Subtotal    string `json:"subtotal"`
}

type SaleResponse struct {
	ID             uint           `json:"id"`
	UserID         uint           `json:"user_id"`
	TotalAmount    string         `json:"total_amount"`
	DiscountAmount string         `json:"discount_amount"`
	DiscountType   string         `json:"discount_type"`
	PaymentMethod  string         `json:"payment_method"`
	SaleDate       time.Time      `json:"sale_date"`
	Items          []ItemResponse `json:"items"`
}

// HandleGetRange serves GET /sales?from=YYYY-MM-DD&to=YYYY-MM-DD. The to-date
// is inclusive: the range extends to the end of that day.
func (h *SalesHandler) HandleGetRange(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		http.Error(w, "invalid or missing from date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, "invalid or missing to date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	end := to.AddDate(0, 0, 1).Add(-time.Nanosecond)

	sales, err := h.repo.SalesInRange(r.Context(), from, end)
	if err != nil {
		h.log.WithError(err).Error("sales range query failed")
		http.Error(w, "failed to fetch sales", http.StatusInternalServerError)
		return
	}

	response := make([]SaleResponse, len(sales))
	for i, s := range sales {
		items := make([]ItemResponse, len(s.Items))
		for j := range s.Items {
			item := &s.Items[j]
			items[j] = ItemResponse{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice.StringFixed(2),
				Subtotal:    item.Subtotal().StringFixed(2),
			}
		}
		response[i] = SaleResponse{
			ID:             s.ID,
			UserID:         s.UserID,
			TotalAmount:    s.TotalAmount.StringFixed(2),
			DiscountAmount: s.DiscountAmount.StringFixed(2),
			DiscountType:   string(s.DiscountType),
			PaymentMethod:  string(s.PaymentMethod),
			SaleDate:       s.SaleDate,
			Items:          items,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
