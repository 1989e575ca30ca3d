package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

type Repository interface {
	Commit(ctx context.Context, draft *Draft) (*Order, error)
	GetByIDForUser(ctx context.Context, orderID, userID uuid.UUID) (*OrderView, error)
	GetByID(ctx context.Context, orderID uuid.UUID) (*OrderView, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]OrderView, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus OrderStatus) error
}

// DB is the store handle the repository works against; *pgxpool.Pool satisfies it.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresRepository struct {
	db DB
}

func NewRepository(db DB) Repository {
	return &postgresRepository{db: db}
}

const (
	insertOrderQuery = `
		INSERT INTO orders (id, user_id, total_amount, status, payment_status, payment_method, shipping_address, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	insertOrderItemQuery = `
		INSERT INTO order_items (id, order_id, product_id, quantity, price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
)

// Commit writes the order header and all of its line items in one
// transaction. Either every row becomes visible or none does.
func (r *postgresRepository) Commit(ctx context.Context, draft *Draft) (created *Order, err error) {
	orderID, err := uuid.NewV4()
	if err != nil {
		return nil, &PersistenceError{Op: "generate order id", Err: err}
	}

	now := time.Now().UTC()
	o := &Order{
		ID:              orderID,
		UserID:          draft.UserID,
		TotalAmount:     RoundMoney(draft.TotalAmount),
		Status:          draft.Status,
		PaymentStatus:   draft.PaymentStatus,
		PaymentMethod:   draft.PaymentMethod,
		ShippingAddress: draft.ShippingAddress,
		Notes:           draft.Notes,
		OrderItems:      make([]OrderItem, 0, len(draft.Items)),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "begin transaction", Err: err}
	}
	defer func() {
		// Rollback must still reach the server when ctx is already cancelled.
		releaseCtx := context.WithoutCancel(ctx)
		if p := recover(); p != nil {
			log.Error().Interface("panic_value", p).Stringer("order_id_attempted", orderID).Msg("Panic recovered during order commit, rolling back")
			if rbErr := tx.Rollback(releaseCtx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id_attempted", orderID).Msg("Failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			log.Warn().Err(err).Stringer("order_id_attempted", orderID).Msg("Order transaction failed, rolling back")
			if rbErr := tx.Rollback(releaseCtx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id_attempted", orderID).Msg("Failed to rollback transaction")
			}
			created = nil
		} else if commitErr := tx.Commit(ctx); commitErr != nil {
			log.Error().Err(commitErr).Stringer("order_id", orderID).Msg("Failed to commit transaction")
			err = &PersistenceError{Op: "commit transaction", Err: commitErr}
			created = nil
		}
	}()

	_, err = tx.Exec(ctx, insertOrderQuery,
		o.ID,
		o.UserID,
		o.TotalAmount,
		string(o.Status),
		string(o.PaymentStatus),
		o.PaymentMethod,
		o.ShippingAddress,
		o.Notes,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return nil, &PersistenceError{Op: "insert order", Err: err}
	}

	for _, item := range draft.Items {
		itemID, genErr := uuid.NewV4()
		if genErr != nil {
			err = &PersistenceError{Op: "generate order item id", Err: genErr}
			return nil, err
		}

		orderItem := OrderItem{
			ID:        itemID,
			OrderID:   o.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     RoundMoney(item.UnitPrice),
			CreatedAt: time.Now().UTC(),
		}

		_, err = tx.Exec(ctx, insertOrderItemQuery,
			orderItem.ID,
			orderItem.OrderID,
			orderItem.ProductID,
			orderItem.Quantity,
			orderItem.Price,
			orderItem.CreatedAt,
		)
		if err != nil {
			return nil, &PersistenceError{Op: fmt.Sprintf("insert order item for order %s", o.ID), Err: err}
		}

		o.OrderItems = append(o.OrderItems, orderItem)
	}

	return o, nil
}

// The product object reflects the catalog now; oi.price is the frozen unit price.
const orderViewSelect = `
	SELECT o.id, o.user_id, o.total_amount, o.status, o.payment_status, o.payment_method,
	       o.shipping_address, o.notes, o.created_at, o.updated_at,
	       COALESCE(
	           json_agg(
	               json_build_object(
	                   'id', oi.id,
	                   'product_id', oi.product_id,
	                   'quantity', oi.quantity,
	                   'price', oi.price,
	                   'created_at', oi.created_at,
	                   'product', CASE WHEN p.id IS NULL THEN NULL ELSE json_build_object(
	                       'id', p.id,
	                       'title', p.title,
	                       'price', p.price
	                   ) END
	               ) ORDER BY oi.created_at, oi.id
	           ) FILTER (WHERE oi.id IS NOT NULL),
	           '[]'::json
	       ) AS order_items
	FROM orders o
	LEFT JOIN order_items oi ON oi.order_id = o.id
	LEFT JOIN products p ON p.id = oi.product_id
`

var (
	orderByIDForUserQuery = orderViewSelect + `
	WHERE o.id = $1 AND o.user_id = $2
	GROUP BY o.id
`
	orderByIDQuery = orderViewSelect + `
	WHERE o.id = $1
	GROUP BY o.id
`
	ordersByUserQuery = orderViewSelect + `
	WHERE o.user_id = $1
	GROUP BY o.id
	ORDER BY o.created_at DESC, o.id
`
)

func scanOrderView(row pgx.Row) (*OrderView, error) {
	var v OrderView
	err := row.Scan(
		&v.ID,
		&v.UserID,
		&v.TotalAmount,
		&v.Status,
		&v.PaymentStatus,
		&v.PaymentMethod,
		&v.ShippingAddress,
		&v.Notes,
		&v.CreatedAt,
		&v.UpdatedAt,
		&v.OrderItems,
	)
	if err != nil {
		return nil, err
	}
	if v.OrderItems == nil {
		v.OrderItems = []OrderItemView{}
	}
	return &v, nil
}

// GetByIDForUser treats an order owned by someone else exactly like a missing one.
func (r *postgresRepository) GetByIDForUser(ctx context.Context, orderID, userID uuid.UUID) (*OrderView, error) {
	v, err := scanOrderView(r.db.QueryRow(ctx, orderByIDForUserQuery, orderID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", orderID, err)
	}
	return v, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderView, error) {
	v, err := scanOrderView(r.db.QueryRow(ctx, orderByIDQuery, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", orderID, err)
	}
	return v, nil
}

func (r *postgresRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]OrderView, error) {
	rows, err := r.db.Query(ctx, ordersByUserQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders for user id %s: %w", userID, err)
	}
	defer rows.Close()

	orders := make([]OrderView, 0)
	for rows.Next() {
		v, err := scanOrderView(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order for user id %s: %w", userID, err)
		}
		orders = append(orders, *v)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating orders for user id %s: %w", userID, err)
	}

	return orders, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus OrderStatus) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	cmdTag, err := r.db.Exec(ctx, query,
		string(newStatus),
		time.Now().UTC(),
		orderID,
	)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Stringer("new_status", newStatus).Msg("repository: failed to update order status")
		return fmt.Errorf("repository: failed to update order status %s: %w", orderID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}
