package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/openpos/pos-service/app/catalog"
	"github.com/openpos/pos-service/app/categories"
	"github.com/openpos/pos-service/app/products"
	"github.com/openpos/pos-service/app/register"
	"github.com/openpos/pos-service/app/sales"
	"github.com/openpos/pos-service/checkout"
	"github.com/openpos/pos-service/config"
	"github.com/openpos/pos-service/models"
	"github.com/openpos/pos-service/pkg/metrics"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	if err := db.AutoMigrate(&models.Category{}, &models.Product{}, &models.Sale{}, &models.SaleItem{}); err != nil {
		log.WithError(err).Fatal("migration failed")
	}

	productsRepo := models.NewProductsRepository(db)
	categoriesRepo := models.NewCategoriesRepository(db)
	salesRepo := models.NewSalesRepository(db)

	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)
	engine := checkout.NewEngine(productsRepo, salesRepo, checkoutMetrics, log)

	catalogHandler := catalog.NewCatalogHandler(productsRepo)
	categoryHandler := categories.NewCategoryHandler(categoriesRepo, log)
	productHandler := products.NewProductHandler(productsRepo, log)
	registerHandler := register.NewRegisterHandler(register.NewCartStore(), productsRepo, engine, log)
	salesHandler := sales.NewSalesHandler(salesRepo, log)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /catalog", catalogHandler.HandleGet)
	mux.HandleFunc("GET /catalog/{code}", catalogHandler.HandleGetProduct)

	mux.HandleFunc("GET /categories", categoryHandler.HandleGetAll)
	mux.HandleFunc("POST /categories", categoryHandler.HandleCreate)

	mux.HandleFunc("POST /products", productHandler.HandleCreate)
	mux.HandleFunc("PUT /products/{id}", productHandler.HandleUpdate)
	mux.HandleFunc("DELETE /products/{id}", productHandler.HandleDelete)
	mux.HandleFunc("GET /products/low-stock", productHandler.HandleLowStock)
	mux.HandleFunc("GET /products/expiring", productHandler.HandleExpiring)

	mux.HandleFunc("POST /carts", registerHandler.HandleCreateCart)
	mux.HandleFunc("GET /carts/{cartID}", registerHandler.HandleGetCart)
	mux.HandleFunc("POST /carts/{cartID}/items", registerHandler.HandleAddItem)
	mux.HandleFunc("PATCH /carts/{cartID}/items/{lineID}", registerHandler.HandleUpdateLine)
	mux.HandleFunc("DELETE /carts/{cartID}/items/{lineID}", registerHandler.HandleRemoveLine)
	mux.HandleFunc("POST /carts/{cartID}/discount", registerHandler.HandleApplyDiscount)
	mux.HandleFunc("POST /carts/{cartID}/checkout", registerHandler.HandleCheckout)

	mux.HandleFunc("GET /sales", salesHandler.HandleGetRange)

	mux.Handle("GET /metrics", metrics.Handler())

	log.WithField("addr", cfg.Addr).Info("pos service listening")
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
