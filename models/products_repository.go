package models

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

type ProductsRepository struct {
	db *gorm.DB
}

// ErrProductNotFound is returned when a product is not found.
var ErrProductNotFound = errors.New("product not found")

type ProductFilters struct {
	CategoryCode  string
	PriceLessThan *float64
}

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

// Unused by the handlers so far, but keeping for export tooling
func (r *ProductsRepository) GetAllProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductsRepository) GetFilteredProducts(ctx context.Context, offset, limit int, filters ProductFilters) ([]Product, int64, error) {
	var products []Product
	var total int64

	query := r.db.WithContext(ctx).Model(&Product{}).
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Preload("Category")

	// Filter
	if filters.CategoryCode != "" {
		query = query.Where("categories.code = ?", filters.CategoryCode)
	}
	if filters.PriceLessThan != nil {
		query = query.Where("products.price < ?", *filters.PriceLessThan)
	}

	// Count total after filtering
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Apply pagination
	if err := query.Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *ProductsRepository) GetByCode(ctx context.Context, code string) (*Product, error) {
	var product Product
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Where("code = ?", code).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err // Other DB error
	}
	return &product, nil
}

// GetByID is the lookup used by the checkout pre-check, where carts reference
// products by their numeric id snapshot rather than by code.
func (r *ProductsRepository) GetByID(ctx context.Context, id uint) (*Product, error) {
	var product Product
	if err := r.db.WithContext(ctx).
		Preload("Category").
		First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *ProductsRepository) CreateProduct(ctx context.Context, product *Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return pkgerrors.Wrap(err, "create product")
	}
	return nil
}

func (r *ProductsRepository) UpdateProduct(ctx context.Context, product *Product) error {
	res := r.db.WithContext(ctx).Model(&Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"code":        product.Code,
			"name":        product.Name,
			"price":       product.Price,
			"stock":       product.Stock,
			"expiry_date": product.ExpiryDate,
			"category_id": product.CategoryID,
		})
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "update product")
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *ProductsRepository) DeleteProduct(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&Product{}, id)
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "delete product")
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// GetLowStockProducts lists products below the reorder threshold.
func (r *ProductsRepository) GetLowStockProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Where("stock < ?", LowStockThreshold).
		Order("stock ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// GetExpiringProducts lists products whose expiry date falls inside the
// warning window.
func (r *ProductsRepository) GetExpiringProducts(ctx context.Context) ([]Product, error) {
	cutoff := time.Now().AddDate(0, 0, ExpiryWarningDays)
	var products []Product
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Where("expiry_date IS NOT NULL AND expiry_date < ?", cutoff).
		Order("expiry_date ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}
