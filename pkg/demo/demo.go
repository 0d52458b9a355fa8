// Package demo builds a small, reproducible SQLite shop database to profile.
package demo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// OrderStatuses are the values of orders.status.
var OrderStatuses = []string{"CREATED", "PAID", "SHIPPED", "CANCELLED"}

const (
	customerCount = 20
	productCount  = 30
	orderCount    = 80
)

var schema = []string{`
CREATE TABLE customers (
    customer_id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT UNIQUE,
    created_at TEXT
)`, `
CREATE TABLE products (
    product_id INTEGER PRIMARY KEY,
    sku TEXT UNIQUE,
    name TEXT NOT NULL,
    category TEXT,
    price_cents INTEGER
)`, `
CREATE TABLE orders (
    order_id INTEGER PRIMARY KEY,
    customer_id INTEGER NOT NULL,
    order_date TEXT,
    status TEXT,
    FOREIGN KEY(customer_id) REFERENCES customers(customer_id)
)`, `
CREATE TABLE order_items (
    order_id INTEGER,
    product_id INTEGER,
    quantity INTEGER,
    unit_price_cents INTEGER,
    PRIMARY KEY (order_id, product_id),
    FOREIGN KEY(order_id) REFERENCES orders(order_id),
    FOREIGN KEY(product_id) REFERENCES products(product_id)
)`,
}

var (
	firstNames = []string{"Arun", "Beena", "Chitra", "Divya", "Eshan", "Fatima", "Gautam", "Hira"}
	domains    = []string{"example.com", "shop.test", "mail.local"}
	categories = []string{"Books", "Electronics", "Clothing", "Home"}
)

// Summary counts the rows written per table.
type Summary struct {
	Path       string
	Customers  int
	Products   int
	Orders     int
	OrderItems int
}

// Generate replaces the file at path with a freshly populated database.
// The same seed always produces the same rows.
func Generate(ctx context.Context, path string, seed int64) (*Summary, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove existing demo database: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open demo database: %w", err)
	}
	defer db.Close()

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("create demo schema: %w", err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rng := rand.New(rand.NewSource(seed))
	summary := &Summary{Path: path}

	customersStart := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for cid := 1; cid <= customerCount; cid++ {
		name := fmt.Sprintf("%s %d", pick(rng, firstNames), cid)
		email := fmt.Sprintf("user%d@%s", cid, pick(rng, domains))
		createdAt := customersStart.AddDate(0, 0, rng.Intn(601)).Format("2006-01-02T15:04:05")
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO customers (customer_id, name, email, created_at) VALUES (?, ?, ?, ?)",
			cid, name, email, createdAt); err != nil {
			return nil, fmt.Errorf("insert customer %d: %w", cid, err)
		}
		summary.Customers++
	}

	prices := make(map[int]int, productCount)
	for pid := 1; pid <= productCount; pid++ {
		price := 199 + rng.Intn(9999-199+1)
		prices[pid] = price
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO products (product_id, sku, name, category, price_cents) VALUES (?, ?, ?, ?, ?)",
			pid, fmt.Sprintf("SKU%04d", pid), fmt.Sprintf("Product %d", pid), pick(rng, categories), price); err != nil {
			return nil, fmt.Errorf("insert product %d: %w", pid, err)
		}
		summary.Products++
	}

	ordersStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for oid := 1; oid <= orderCount; oid++ {
		// The first orders walk every status so all of them are present.
		status := pick(rng, OrderStatuses)
		if oid <= len(OrderStatuses) {
			status = OrderStatuses[oid-1]
		}
		orderDate := ordersStart.AddDate(0, 0, rng.Intn(591)).Format("2006-01-02T15:04:05")
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO orders (order_id, customer_id, order_date, status) VALUES (?, ?, ?, ?)",
			oid, 1+rng.Intn(customerCount), orderDate, status); err != nil {
			return nil, fmt.Errorf("insert order %d: %w", oid, err)
		}
		summary.Orders++

		items := make(map[int]struct{})
		for n := 1 + rng.Intn(4); n > 0; n-- {
			pid := 1 + rng.Intn(productCount)
			qty := 1 + rng.Intn(3)
			if _, err := tx.ExecContext(ctx,
				"INSERT OR REPLACE INTO order_items (order_id, product_id, quantity, unit_price_cents) VALUES (?, ?, ?, ?)",
				oid, pid, qty, prices[pid]); err != nil {
				return nil, fmt.Errorf("insert order item %d/%d: %w", oid, pid, err)
			}
			items[pid] = struct{}{}
		}
		summary.OrderItems += len(items)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit demo data: %w", err)
	}
	return summary, nil
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}
