// Command seed loads demo categories and products for local development.
// It talks straight SQL so it can run before the service has ever started.
package main

import (
	"database/sql"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/joho/godotenv"
)

type seedProduct struct {
	code     string
	name     string
	price    string
	stock    int
	expiry   *time.Time
	category string
}

func main() {
	_ = godotenv.Load()
	dsn := os.Getenv("POS_DATABASE_URL")
	if dsn == "" {
		log.Fatal("POS_DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	categories := map[string]string{
		"grocery":   "Grocery",
		"dairy":     "Dairy",
		"beverages": "Beverages",
	}

	in30 := time.Now().AddDate(0, 0, 20)
	products := []seedProduct{
		{code: "P001", name: "Rice 1kg", price: "10.00", stock: 5, category: "grocery"},
		{code: "P002", name: "Milk 1L", price: "2.50", stock: 40, expiry: &in30, category: "dairy"},
		{code: "P003", name: "Orange Juice", price: "4.75", stock: 8, expiry: &in30, category: "beverages"},
		{code: "P004", name: "Sugar 500g", price: "3.20", stock: 100, category: "grocery"},
	}

	for code, name := range categories {
		if _, err := db.Exec(`
			INSERT INTO categories (code, name) VALUES ($1, $2)
			ON CONFLICT (code) DO NOTHING
		`, code, name); err != nil {
			log.Fatalf("seed category %s: %v", code, err)
		}
	}

	for _, p := range products {
		if _, err := db.Exec(`
			INSERT INTO products (code, name, price, stock, expiry_date, category_id)
			SELECT $1, $2, $3, $4, $5, c.id FROM categories c WHERE c.code = $6
			ON CONFLICT (code) DO NOTHING
		`, p.code, p.name, p.price, p.stock, p.expiry, p.category); err != nil {
			log.Fatalf("seed product %s: %v", p.code, err)
		}
	}

	log.Printf("seeded %d categories and %d products", len(categories), len(products))
}
