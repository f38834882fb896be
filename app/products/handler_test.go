package products

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpos/pos-service/models"
)

// --- Mock Store ---

type MockProductStore struct {
	Products  map[uint]*models.Product
	Err       error
	LastSaved *models.Product
	Deleted   []uint
	LowStock  []models.Product
	Expiring  []models.Product
}

func (m *MockProductStore) CreateProduct(_ context.Context, product *models.Product) error {
	if m.Err != nil {
		return m.Err
	}
	product.ID = 1
	m.LastSaved = product
	return nil
}

func (m *MockProductStore) UpdateProduct(_ context.Context, product *models.Product) error {
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.Products[product.ID]; !ok {
		return models.ErrProductNotFound
	}
	m.LastSaved = product
	return nil
}

func (m *MockProductStore) DeleteProduct(_ context.Context, id uint) error {
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.Products[id]; !ok {
		return models.ErrProductNotFound
	}
	m.Deleted = append(m.Deleted, id)
	return nil
}

func (m *MockProductStore) GetLowStockProducts(_ context.Context) ([]models.Product, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.LowStock, nil
}

func (m *MockProductStore) GetExpiringProducts(_ context.Context) ([]models.Product, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Expiring, nil
}

func newTestHandler(store *MockProductStore) *ProductHandler {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewProductHandler(store, log)
}

// --- Tests ---

func TestHandleCreateProduct(t *testing.T) {
	testCases := []struct {
		name               string
		requestBody        string
		storeSetup         func() *MockProductStore
		expectedStatusCode int
		checkStore         func(t *testing.T, store *MockProductStore)
	}{
		{
			name:               "Success",
			requestBody:        `{"code":"P010","name":"Tea 100g","price":"6.40","stock":25,"category_id":1}`,
			storeSetup:         func() *MockProductStore { return &MockProductStore{} },
			expectedStatusCode: http.StatusCreated,
			checkStore: func(t *testing.T, store *MockProductStore) {
				require.NotNil(t, store.LastSaved)
				assert.Equal(t, "P010", store.LastSaved.Code)
				assert.True(t, store.LastSaved.Price.Equal(decimal.NewFromFloat(6.40)))
				assert.Equal(t, 25, store.LastSaved.Stock)
			},
		},
		{
			name:               "Success with expiry",
			requestBody:        `{"code":"P011","name":"Yogurt","price":"1.20","stock":10,"category_id":2,"expiry":"2026-10-01"}`,
			storeSetup:         func() *MockProductStore { return &MockProductStore{} },
			expectedStatusCode: http.StatusCreated,
			checkStore: func(t *testing.T, store *MockProductStore) {
				require.NotNil(t, store.LastSaved)
				require.NotNil(t, store.LastSaved.ExpiryDate)
				assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), *store.LastSaved.ExpiryDate)
			},
		},
		{
			name:               "Invalid JSON",
			requestBody:        `{broken`,
			storeSetup:         func() *MockProductStore { return &MockProductStore{} },
			expectedStatusCode: http.StatusBadRequest,
		},
		{
			name:               "Negative price",
			requestBody:        `{"code":"P012","name":"Bad","price":"-1.00","stock":1,"category_id":1}`,
			storeSetup:         func() *MockProductStore { return &MockProductStore{} },
			expectedStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:               "Negative stock",
			requestBody:        `{"code":"P013","name":"Bad","price":"1.00","stock":-1,"category_id":1}`,
			storeSetup:         func() *MockProductStore { return &MockProductStore{} },
			expectedStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:               "Missing code",
			requestBody:        `{"name":"NoCode","price":"1.00","stock":1,"category_id":1}`,
			storeSetup:         func() *MockProductStore { return &MockProductStore{} },
			expectedStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:               "Bad expiry format",
			requestBody:        `{"code":"P014","name":"Bad","price":"1.00","stock":1,"category_id":1,"expiry":"01/10/2026"}`,
			storeSetup:         func() *MockProductStore { return &MockProductStore{} },
			expectedStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:        "Store error",
			requestBody: `{"code":"P015","name":"Tea","price":"1.00","stock":1,"category_id":1}`,
			storeSetup: func() *MockProductStore {
				return &MockProductStore{Err: errors.New("insert failed")}
			},
			expectedStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := tc.storeSetup()
			handler := newTestHandler(store)

			req := httptest.NewRequest("POST", "/products", strings.NewReader(tc.requestBody))
			rec := httptest.NewRecorder()
			handler.HandleCreate(rec, req)

			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.checkStore != nil {
				tc.checkStore(t, store)
			}
		})
	}
}

func TestHandleUpdateProduct(t *testing.T) {
	existing := &models.Product{
		ID:    3,
		Code:  "P003",
		Name:  "Orange Juice",
		Price: decimal.NewFromFloat(4.75),
		Stock: 8,
	}

	t.Run("success", func(t *testing.T) {
		store := &MockProductStore{Products: map[uint]*models.Product{3: existing}}
		handler := newTestHandler(store)

		req := httptest.NewRequest("PUT", "/products/3",
			strings.NewReader(`{"code":"P003","name":"Orange Juice 1L","price":"4.99","stock":12,"category_id":3}`))
		req.SetPathValue("id", "3")
		rec := httptest.NewRecorder()
		handler.HandleUpdate(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, store.LastSaved)
		assert.Equal(t, uint(3), store.LastSaved.ID)
		assert.Equal(t, "Orange Juice 1L", store.LastSaved.Name)
		assert.Equal(t, 12, store.LastSaved.Stock)
	})

	t.Run("not found", func(t *testing.T) {
		store := &MockProductStore{Products: map[uint]*models.Product{}}
		handler := newTestHandler(store)

		req := httptest.NewRequest("PUT", "/products/99",
			strings.NewReader(`{"code":"P099","name":"Ghost","price":"1.00","stock":1,"category_id":1}`))
		req.SetPathValue("id", "99")
		rec := httptest.NewRecorder()
		handler.HandleUpdate(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		handler := newTestHandler(&MockProductStore{})
		req := httptest.NewRequest("PUT", "/products/abc", strings.NewReader(`{}`))
		req.SetPathValue("id", "abc")
		rec := httptest.NewRecorder()
		handler.HandleUpdate(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleDeleteProduct(t *testing.T) {
	existing := &models.Product{ID: 3, Code: "P003"}

	t.Run("success", func(t *testing.T) {
		store := &MockProductStore{Products: map[uint]*models.Product{3: existing}}
		handler := newTestHandler(store)

		req := httptest.NewRequest("DELETE", "/products/3", nil)
		req.SetPathValue("id", "3")
		rec := httptest.NewRecorder()
		handler.HandleDelete(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, []uint{3}, store.Deleted)
	})

	t.Run("not found", func(t *testing.T) {
		store := &MockProductStore{Products: map[uint]*models.Product{}}
		handler := newTestHandler(store)

		req := httptest.NewRequest("DELETE", "/products/99", nil)
		req.SetPathValue("id", "99")
		rec := httptest.NewRecorder()
		handler.HandleDelete(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleDashboards(t *testing.T) {
	soon := time.Now().AddDate(0, 0, 5)
	store := &MockProductStore{
		LowStock: []models.Product{
			{ID: 1, Code: "P001", Name: "Rice 1kg", Price: decimal.NewFromFloat(10.00), Stock: 5},
		},
		Expiring: []models.Product{
			{ID: 2, Code: "P002", Name: "Milk 1L", Price: decimal.NewFromFloat(2.50), Stock: 40, ExpiryDate: &soon},
		},
	}
	handler := newTestHandler(store)

	t.Run("low stock", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/products/low-stock", nil)
		rec := httptest.NewRecorder()
		handler.HandleLowStock(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp []productResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Len(t, resp, 1)
		assert.Equal(t, "P001", resp[0].Code)
		assert.True(t, resp[0].LowStock)
	})

	t.Run("expiring", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/products/expiring", nil)
		rec := httptest.NewRecorder()
		handler.HandleExpiring(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp []productResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Len(t, resp, 1)
		assert.Equal(t, "P002", resp[0].Code)
		assert.True(t, resp[0].Expiring)
	})
}
