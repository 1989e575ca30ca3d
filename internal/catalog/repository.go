package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/storefront/internal/order"
)

type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	Categories(ctx context.Context) ([]Category, error)
	Snapshots(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]order.CatalogSnapshot, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const productSelect = `
	SELECT p.id, p.title, p.slug, p.description, p.price, p.discount_percentage, p.category_id,
	       p.in_stock, p.stock_quantity, p.is_featured, p.collection_tag, p.created_at, p.updated_at,
	       COALESCE(
	           json_agg(
	               json_build_object(
	                   'id', pi.id,
	                   'image_url', pi.image_url,
	                   'alt_text', pi.alt_text,
	                   'sort_order', pi.sort_order
	               ) ORDER BY pi.sort_order
	           ) FILTER (WHERE pi.id IS NOT NULL),
	           '[]'::json
	       ) AS product_images
	FROM products p
	LEFT JOIN product_images pi ON pi.product_id = p.id
`

func (r *postgresRepository) List(ctx context.Context) ([]Product, error) {
	query := productSelect + `
	GROUP BY p.id
	ORDER BY p.created_at DESC, p.id
`
	products := make([]Product, 0)
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("repository: failed to select products: %w", err)
	}
	return products, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	query := productSelect + `
	WHERE p.id = $1
	GROUP BY p.id
`
	var p Product
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product %s: %w", id, err)
	}
	return &p, nil
}

func (r *postgresRepository) Categories(ctx context.Context) ([]Category, error) {
	query := `
		SELECT id, name, slug, description, image_url, is_featured, sort_order, created_at
		FROM categories
		ORDER BY sort_order, name
	`
	categories := make([]Category, 0)
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("repository: failed to select categories: %w", err)
	}
	return categories, nil
}

type snapshotRow struct {
	ID                 uuid.UUID       `db:"id"`
	Price              decimal.Decimal `db:"price"`
	DiscountPercentage decimal.Decimal `db:"discount_percentage"`
	InStock            bool            `db:"in_stock"`
}

// Snapshots reads the current pricing of the given products. Unknown ids are
// absent from the result.
func (r *postgresRepository) Snapshots(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]order.CatalogSnapshot, error) {
	result := make(map[uuid.UUID]order.CatalogSnapshot, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT id, price, discount_percentage, in_stock FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to build snapshot query: %w", err)
	}

	var rows []snapshotRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("repository: failed to select product snapshots: %w", err)
	}

	for _, row := range rows {
		result[row.ID] = order.CatalogSnapshot{
			ProductID:          row.ID,
			Price:              row.Price,
			DiscountPercentage: row.DiscountPercentage,
			Available:          row.InStock,
		}
	}
	return result, nil
}
