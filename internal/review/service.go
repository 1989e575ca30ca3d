package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

type Service interface {
	Latest(ctx context.Context) ([]Review, error)
	ForProduct(ctx context.Context, productID uuid.UUID) ([]Review, error)
	Submit(ctx context.Context, userID, productID uuid.UUID, rating int, comment string) (*Review, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Latest(ctx context.Context) ([]Review, error) {
	reviews, err := s.repo.ListApproved(ctx, LatestLimit)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list latest reviews")
		return nil, fmt.Errorf("service: failed to list latest reviews: %w", err)
	}
	return reviews, nil
}

func (s *service) ForProduct(ctx context.Context, productID uuid.UUID) ([]Review, error) {
	reviews, err := s.repo.ListApprovedByProduct(ctx, productID)
	if err != nil {
		log.Error().Err(err).Stringer("product_id", productID).Msg("service: failed to list product reviews")
		return nil, fmt.Errorf("service: failed to list product reviews: %w", err)
	}
	return reviews, nil
}

// Submit stores a review pending moderation.
func (s *service) Submit(ctx context.Context, userID, productID uuid.UUID, rating int, comment string) (*Review, error) {
	if rating < MinRating || rating > MaxRating {
		return nil, ErrInvalidRating
	}

	rv, err := newReview(userID, productID, rating, comment)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, rv); err != nil {
		if errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrInvalidRating) {
			log.Warn().Err(err).Stringer("product_id", productID).Msg("service: review rejected")
			return nil, err
		}
		log.Error().Err(err).Stringer("product_id", productID).Msg("service: failed to create review")
		return nil, fmt.Errorf("service: failed to create review: %w", err)
	}

	log.Info().Stringer("review_id", rv.ID).Stringer("product_id", productID).Msg("service: review submitted for approval")
	return rv, nil
}
