package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresImage is the stock image used for adapter integration tests.
const PostgresImage = "postgres:16-alpine"

// ShopSchema is loaded into the test database: the same four tables the
// demo generator writes to SQLite, including a composite primary key.
const ShopSchema = `
CREATE TABLE customers (
	customer_id SERIAL PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	email VARCHAR(255),
	phone VARCHAR(30),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE products (
	product_id SERIAL PRIMARY KEY,
	sku VARCHAR(20) NOT NULL UNIQUE,
	name VARCHAR(100) NOT NULL,
	category VARCHAR(50),
	price NUMERIC(10,2) NOT NULL,
	attributes JSONB
);
CREATE TABLE orders (
	order_id SERIAL PRIMARY KEY,
	customer_id INTEGER NOT NULL REFERENCES customers(customer_id),
	status VARCHAR(20) NOT NULL,
	ordered_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE order_items (
	order_id INTEGER NOT NULL REFERENCES orders(order_id),
	product_id INTEGER NOT NULL REFERENCES products(product_id),
	quantity INTEGER NOT NULL,
	unit_price NUMERIC(10,2) NOT NULL,
	PRIMARY KEY (order_id, product_id)
);
INSERT INTO customers (name, email, phone) VALUES
	('Arun Rao', 'arun@example.com', '+1-555-0100'),
	('Beena Das', 'beena@example.org', NULL),
	('Chen Li', NULL, '+1-555-0102');
INSERT INTO products (sku, name, category, price, attributes) VALUES
	('SKU-0001', 'Widget', 'hardware', 19.99, '{"color": "red"}'),
	('SKU-0002', 'Gadget', 'hardware', 5.50, NULL);
INSERT INTO orders (customer_id, status, ordered_at) VALUES
	(1, 'PAID', now()), (1, 'SHIPPED', now()), (2, 'CREATED', now());
INSERT INTO order_items VALUES (1, 1, 2, 19.99), (1, 2, 1, 5.50), (3, 2, 4, 5.50);
`

// TestDB holds a shared test database container and connection pool.
type TestDB struct {
	Container testcontainers.Container
	Pool      *pgxpool.Pool
	ConnStr   string
}

var (
	sharedTestDB     *TestDB
	sharedTestDBOnce sync.Once
	sharedTestDBErr  error
)

// GetTestDB returns a shared PostgreSQL container for integration tests.
// The container is created once and reused across all tests in the run,
// with ShopSchema loaded.
func GetTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestDBOnce.Do(func() {
		sharedTestDB, sharedTestDBErr = setupTestDB()
	})

	if sharedTestDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedTestDBErr)
	}

	return sharedTestDB
}

func setupTestDB() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "shop",
			"POSTGRES_USER":     "profiler",
			"POSTGRES_PASSWORD": "test_password",
		},
		// The server restarts once after running init scripts.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	connStr := fmt.Sprintf("postgres://profiler:test_password@%s:%s/shop?sslmode=disable",
		host, port.Port())

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection with retry
	for i := 0; i < 10; i++ {
		if err = pool.Ping(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		return nil, fmt.Errorf("database never became reachable: %w", err)
	}

	if _, err := pool.Exec(ctx, ShopSchema); err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}

	return &TestDB{
		Container: container,
		Pool:      pool,
		ConnStr:   connStr,
	}, nil
}
