package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var allowedTransitions = map[OrderStatus]map[OrderStatus]bool{
	StatusPending: {
		StatusConfirmed: true,
		StatusCancelled: true,
	},
	StatusConfirmed: {
		StatusProcessing: true,
		StatusCancelled:  true,
	},
	StatusProcessing: {
		StatusShipped:   true,
		StatusCancelled: true,
	},
	StatusShipped: {
		StatusDelivered: true,
	},
	StatusDelivered: {},
	StatusCancelled: {},
}

// SnapshotSource resolves point-in-time pricing for catalog entries. Missing
// ids are simply absent from the returned map.
type SnapshotSource interface {
	Snapshots(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]CatalogSnapshot, error)
}

// Publisher announces committed orders. It is never called inside a transaction.
type Publisher interface {
	OrderPlaced(ctx context.Context, o *Order) error
}

type Service interface {
	PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Order, error)
	GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*OrderView, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]OrderView, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus OrderStatus) error
}

type service struct {
	orderRepo Repository
	catalog   SnapshotSource
	publisher Publisher
}

func NewService(orderRepo Repository, catalog SnapshotSource, publisher Publisher) Service {
	return &service{
		orderRepo: orderRepo,
		catalog:   catalog,
		publisher: publisher,
	}
}

func (s *service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Order, error) {
	if len(in.Items) == 0 {
		log.Warn().Stringer("user_id", in.UserID).Msg("service: attempt to create order with no items")
		return nil, newValidationError("Order items are required")
	}

	ids := make([]uuid.UUID, 0, len(in.Items))
	seen := make(map[uuid.UUID]struct{}, len(in.Items))
	for _, item := range in.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	snapshots, err := s.catalog.Snapshots(ctx, ids)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", in.UserID).Msg("service: failed to resolve catalog snapshots")
		return nil, fmt.Errorf("service: failed to resolve catalog snapshots: %w", err)
	}

	lines := make([]ProposedLine, 0, len(in.Items))
	for _, item := range in.Items {
		line := ProposedLine{ProductID: item.ProductID, Quantity: item.Quantity}
		if snap, ok := snapshots[item.ProductID]; ok {
			line.Snapshot = &snap
		}
		lines = append(lines, line)
	}

	draft, err := Assemble(in.UserID, lines, in.Checkout)
	if err != nil {
		log.Warn().Err(err).Stringer("user_id", in.UserID).Msg("service: order rejected")
		return nil, err
	}

	created, err := s.orderRepo.Commit(ctx, draft)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", in.UserID).Msg("service: failed to commit order")
		var perr *PersistenceError
		if errors.As(err, &perr) {
			return nil, err
		}
		return nil, &PersistenceError{Op: "commit order", Err: err}
	}

	if s.publisher != nil {
		if err := s.publisher.OrderPlaced(ctx, created); err != nil {
			log.Error().Err(err).Stringer("order_id", created.ID).Msg("service: failed to publish order placed event")
		}
	}

	log.Info().
		Stringer("order_id", created.ID).
		Stringer("user_id", created.UserID).
		Stringer("total_amount", created.TotalAmount).
		Int("items", len(created.OrderItems)).
		Msg("service: order created successfully")

	return created, nil
}

func (s *service) GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*OrderView, error) {
	order, err := s.orderRepo.GetByIDForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Stringer("order_id", orderID).Stringer("user_id", userID).Msg("service: order not found for user")
			return nil, ErrOrderNotFound
		}

		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to fetch order by id in repository")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}

	return order, nil
}

func (s *service) ListOrders(ctx context.Context, userID uuid.UUID) ([]OrderView, error) {
	orders, err := s.orderRepo.ListByUserID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to fetch user orders in repository")
		return nil, fmt.Errorf("service: failed to fetch user orders: %w", err)
	}

	if orders == nil {
		orders = []OrderView{}
	}
	return orders, nil
}

func (s *service) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus OrderStatus) error {
	if !newStatus.Valid() {
		return newValidationError("Unknown order status %q", newStatus)
	}

	currentOrder, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Stringer("order_id", orderID).Stringer("new_status", newStatus).Msg("service: order not found, cannot update status")
			return ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to get order for status update")
		return fmt.Errorf("service: failed to get order for status update: %w", err)
	}

	if currentOrder.Status == newStatus {
		log.Info().Stringer("order_id", orderID).Stringer("status", newStatus).Msg("service: order status is already the same, no update needed")
		return nil
	}

	if !allowedTransitions[currentOrder.Status][newStatus] {
		log.Warn().
			Stringer("order_id", currentOrder.ID).
			Stringer("current_status", currentOrder.Status).
			Stringer("new_status", newStatus).
			Msg("service: invalid status transition attempt")
		return fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, currentOrder.Status, newStatus)
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, newStatus); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Stringer("new_status", newStatus).Msg("service: failed to update order status in repository")
		return fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().Stringer("order_id", orderID).Stringer("old_status", currentOrder.Status).Stringer("new_status", newStatus).Msg("service: order status updated successfully")
	return nil
}
