// Package dbtest wires repository tests to a disposable PostgreSQL database.
// Tests run only when STOREFRONT_TEST_DATABASE_URL is set.
package dbtest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const EnvDatabaseURL = "STOREFRONT_TEST_DATABASE_URL"

// Open connects to the test database and applies migrations. It returns a nil
// pool when EnvDatabaseURL is unset.
func Open(ctx context.Context) (*pgxpool.Pool, error) {
	dsn := os.Getenv(EnvDatabaseURL)
	if dsn == "" {
		return nil, nil
	}

	if err := migrateUp(dsn); err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("dbtest: failed to parse %s: %w", EnvDatabaseURL, err)
	}
	poolConfig.MaxConns = 5

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("dbtest: failed to connect: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("dbtest: failed to ping: %w", err)
	}
	return pool, nil
}

// RequirePool skips the test when no database is configured.
func RequirePool(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if pool == nil {
		t.Skipf("%s is not set, skipping database test", EnvDatabaseURL)
	}
}

// Reset empties every storefront table.
func Reset(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		"TRUNCATE TABLE reviews, order_items, orders, product_images, products, categories, profiles CASCADE")
	if err != nil {
		t.Fatalf("dbtest: failed to truncate tables: %v", err)
	}
}

func SeedProfile(t *testing.T, pool *pgxpool.Pool, email string) uuid.UUID {
	t.Helper()
	id := uuid.Must(uuid.NewV4())
	_, err := pool.Exec(context.Background(),
		`INSERT INTO profiles (id, email, password, full_name) VALUES ($1, $2, $3, $4)`,
		id, email, "not-a-real-hash", "Seeded "+email)
	if err != nil {
		t.Fatalf("dbtest: failed to seed profile %s: %v", email, err)
	}
	return id
}

type ProductSeed struct {
	Title    string
	Price    string
	Discount string
	InStock  bool
	Category *uuid.UUID
}

func SeedProduct(t *testing.T, pool *pgxpool.Pool, p ProductSeed) uuid.UUID {
	t.Helper()
	id := uuid.Must(uuid.NewV4())
	discount := p.Discount
	if discount == "" {
		discount = "0"
	}
	_, err := pool.Exec(context.Background(),
		`INSERT INTO products (id, title, slug, price, discount_percentage, in_stock, category_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, p.Title, slug(p.Title)+"-"+id.String()[:8],
		decimal.RequireFromString(p.Price), decimal.RequireFromString(discount), p.InStock, p.Category)
	if err != nil {
		t.Fatalf("dbtest: failed to seed product %s: %v", p.Title, err)
	}
	return id
}

func SeedCategory(t *testing.T, pool *pgxpool.Pool, name string, sortOrder int) uuid.UUID {
	t.Helper()
	id := uuid.Must(uuid.NewV4())
	_, err := pool.Exec(context.Background(),
		`INSERT INTO categories (id, name, slug, sort_order) VALUES ($1, $2, $3, $4)`,
		id, name, slug(name), sortOrder)
	if err != nil {
		t.Fatalf("dbtest: failed to seed category %s: %v", name, err)
	}
	return id
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}

func migrateUp(dsn string) error {
	dbURL := dsn
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dbURL, prefix) {
			dbURL = "pgx5://" + strings.TrimPrefix(dbURL, prefix)
			break
		}
	}

	m, err := migrate.New("file://"+migrationsDir(), dbURL)
	if err != nil {
		return fmt.Errorf("dbtest: failed to initialize migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("dbtest: failed to apply migrations: %w", err)
	}
	return nil
}

func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")
}
