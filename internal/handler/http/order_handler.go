package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/order"
)

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity"`
}

type PaymentConfirmationRequest struct {
	ID string `json:"id" validate:"max=255"`
}

type ShippingAddressRequest struct {
	FullName string `json:"full_name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"max=50"`
	Address  string `json:"address" validate:"required,max=500"`
	City     string `json:"city" validate:"required,max=100"`
	State    string `json:"state" validate:"max=100"`
	Postcode string `json:"postcode" validate:"required,max=20"`
	Country  string `json:"country" validate:"max=100"`
}

type CreateOrderRequest struct {
	Items               []OrderItemRequest         `json:"items" validate:"dive"`
	PaymentMethod       string                     `json:"payment_method" validate:"required,oneof=stripe paypal"`
	PaymentConfirmation PaymentConfirmationRequest `json:"payment_confirmation"`
	ShippingAddress     ShippingAddressRequest     `json:"shipping_address"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type CreateOrderResponse struct {
	Order   *order.Order `json:"order"`
	Message string       `json:"message"`
}

type OrderHandler struct {
	service  order.Service
	validate *validator.Validate
}

func NewOrderHandler(service order.Service) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes expects router to already be behind Authenticate.
func (h *OrderHandler) RegisterRoutes(router chi.Router, adminOnly func(http.Handler) http.Handler) {
	router.Post("/orders", h.handleCreateOrder)
	router.Get("/orders/my-orders", h.handleListMyOrders)
	router.Get("/orders/{id}", h.handleGetOrder)
	router.With(adminOnly).Patch("/orders/{id}/status", h.handleUpdateOrderStatus)
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	var req CreateOrderRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	input := order.PlaceOrderInput{
		UserID: userID,
		Items:  make([]order.LineRequest, 0, len(req.Items)),
		Checkout: order.Checkout{
			PaymentMethod: req.PaymentMethod,
			Payment:       order.PaymentConfirmation{ID: req.PaymentConfirmation.ID},
			ShippingAddress: order.ShippingAddress{
				FullName: req.ShippingAddress.FullName,
				Email:    req.ShippingAddress.Email,
				Phone:    req.ShippingAddress.Phone,
				Address:  req.ShippingAddress.Address,
				City:     req.ShippingAddress.City,
				State:    req.ShippingAddress.State,
				Postcode: req.ShippingAddress.Postcode,
				Country:  req.ShippingAddress.Country,
			},
		},
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, order.LineRequest{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	created, err := h.service.PlaceOrder(r.Context(), input)
	if err != nil {
		var verr *order.ValidationError
		if errors.As(err, &verr) {
			respondWithError(w, http.StatusBadRequest, verr.Reason)
			return
		}
		log.Error().Err(err).Stringer("user_id", userID).Msg("Failed to create order via service")
		respondWithError(w, mapErrorToStatusCode(err), "Could not complete the order")
		return
	}

	respondWithJSON(w, http.StatusCreated, CreateOrderResponse{
		Order:   created,
		Message: "Order created successfully",
	})
}

func (h *OrderHandler) handleListMyOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	orders, err := h.service.ListOrders(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("Failed to list orders via service")
		respondWithError(w, mapErrorToStatusCode(err), "Error fetching orders")
		return
	}

	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	idParam := chi.URLParam(r, "id")
	orderID, err := uuid.FromString(idParam)
	if err != nil {
		log.Warn().Err(err).Str("order_id", idParam).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	view, err := h.service.GetOrder(r.Context(), orderID, userID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondWithError(w, http.StatusNotFound, "Order not found")
			return
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("Failed to get order via service")
		respondWithError(w, mapErrorToStatusCode(err), "Error fetching order")
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}

func (h *OrderHandler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	orderID, err := uuid.FromString(idParam)
	if err != nil {
		log.Warn().Err(err).Str("order_id", idParam).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var req UpdateOrderStatusRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	err = h.service.UpdateOrderStatus(r.Context(), orderID, order.OrderStatus(req.Status))
	if err != nil {
		var verr *order.ValidationError
		var clientMessage string
		switch {
		case errors.As(err, &verr):
			clientMessage = verr.Reason
		case errors.Is(err, order.ErrOrderNotFound):
			clientMessage = "Order not found"
		case errors.Is(err, order.ErrInvalidStatusTransition):
			clientMessage = err.Error()
		default:
			log.Error().Err(err).Stringer("order_id", orderID).Msg("Failed to update order status via service")
			clientMessage = "Failed to update order status"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
