package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/order"
)

type Service interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	ListCategories(ctx context.Context) ([]Category, error)
	Snapshots(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]order.CatalogSnapshot, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) ListProducts(ctx context.Context) ([]Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list products")
		return nil, fmt.Errorf("service: failed to list products: %w", err)
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			log.Warn().Stringer("product_id", id).Msg("service: product not found")
			return nil, ErrProductNotFound
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to get product")
		return nil, fmt.Errorf("service: failed to get product: %w", err)
	}
	return p, nil
}

func (s *service) ListCategories(ctx context.Context) ([]Category, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list categories")
		return nil, fmt.Errorf("service: failed to list categories: %w", err)
	}
	if categories == nil {
		categories = []Category{}
	}
	return categories, nil
}

func (s *service) Snapshots(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]order.CatalogSnapshot, error) {
	snapshots, err := s.repo.Snapshots(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load catalog snapshots: %w", err)
	}
	if missing := len(ids) - len(snapshots); missing > 0 {
		log.Warn().Int("requested", len(ids)).Int("missing", missing).Msg("service: some products are not in the catalog")
	}
	return snapshots, nil
}
