package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Repository interface {
	Create(ctx context.Context, r *Review) error
	ListApproved(ctx context.Context, limit int) ([]Review, error)
	ListApprovedByProduct(ctx context.Context, productID uuid.UUID) ([]Review, error)
}

type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type repository struct {
	db DB
}

func NewRepository(db DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, rv *Review) error {
	query := `
		INSERT INTO reviews (id, product_id, user_id, rating, comment, is_approved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		rv.ID,
		rv.ProductID,
		rv.UserID,
		rv.Rating,
		rv.Comment,
		rv.IsApproved,
		rv.CreatedAt,
		rv.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.ForeignKeyViolation:
				if pgErr.ConstraintName == "reviews_product_id_fkey" {
					return ErrProductNotFound
				}
			case pgerrcode.CheckViolation:
				return ErrInvalidRating
			}
		}
		return fmt.Errorf("repository: failed to insert review: %w", err)
	}
	return nil
}

const approvedSelect = `
	SELECT r.id, r.product_id, r.user_id, r.rating, r.comment, r.is_approved, r.created_at, r.updated_at, p.full_name
	FROM reviews r
	JOIN profiles p ON p.id = r.user_id
	WHERE r.is_approved
`

func (r *repository) ListApproved(ctx context.Context, limit int) ([]Review, error) {
	rows, err := r.db.Query(ctx, approvedSelect+" ORDER BY r.created_at DESC LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query approved reviews: %w", err)
	}
	return collectReviews(rows)
}

func (r *repository) ListApprovedByProduct(ctx context.Context, productID uuid.UUID) ([]Review, error) {
	rows, err := r.db.Query(ctx, approvedSelect+" AND r.product_id = $1 ORDER BY r.created_at DESC", productID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query reviews for product %s: %w", productID, err)
	}
	return collectReviews(rows)
}

func collectReviews(rows pgx.Rows) ([]Review, error) {
	reviews, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Review, error) {
		var (
			rv       Review
			fullName string
		)
		err := row.Scan(
			&rv.ID,
			&rv.ProductID,
			&rv.UserID,
			&rv.Rating,
			&rv.Comment,
			&rv.IsApproved,
			&rv.CreatedAt,
			&rv.UpdatedAt,
			&fullName,
		)
		rv.Author = &Author{FullName: fullName}
		return rv, err
	})
	if err != nil {
		return nil, fmt.Errorf("repository: failed to scan reviews: %w", err)
	}
	if reviews == nil {
		reviews = []Review{}
	}
	return reviews, nil
}

func newReview(userID, productID uuid.UUID, rating int, comment string) (*Review, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate review id: %w", err)
	}
	now := time.Now().UTC()
	return &Review{
		ID:        id,
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
