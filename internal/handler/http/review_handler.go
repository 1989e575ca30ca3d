package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/review"
)

type CreateReviewRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Rating    int       `json:"rating" validate:"required"`
	Comment   string    `json:"comment" validate:"max=2000"`
}

type CreateReviewResponse struct {
	*review.Review
	Message string `json:"message"`
}

type ReviewHandler struct {
	service  review.Service
	validate *validator.Validate
}

func NewReviewHandler(service review.Service) *ReviewHandler {
	return &ReviewHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *ReviewHandler) RegisterPublicRoutes(router chi.Router) {
	router.Get("/reviews", h.handleLatest)
	router.Get("/reviews/product/{productId}", h.handleForProduct)
}

// RegisterRoutes expects router to already be behind Authenticate.
func (h *ReviewHandler) RegisterRoutes(router chi.Router) {
	router.Post("/reviews", h.handleCreate)
}

func (h *ReviewHandler) handleLatest(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.Latest(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list reviews via service")
		respondWithError(w, mapErrorToStatusCode(err), "Error fetching reviews")
		return
	}
	respondWithJSON(w, http.StatusOK, reviews)
}

func (h *ReviewHandler) handleForProduct(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "productId")
	productID, err := uuid.FromString(idParam)
	if err != nil {
		log.Warn().Err(err).Str("product_id", idParam).Msg("Failed to parse productId parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid productId parameter")
		return
	}

	reviews, err := h.service.ForProduct(r.Context(), productID)
	if err != nil {
		log.Error().Err(err).Stringer("product_id", productID).Msg("Failed to list product reviews via service")
		respondWithError(w, mapErrorToStatusCode(err), "Error fetching product reviews")
		return
	}
	respondWithJSON(w, http.StatusOK, reviews)
}

func (h *ReviewHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	var req CreateReviewRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	created, err := h.service.Submit(r.Context(), userID, req.ProductID, req.Rating, req.Comment)
	if err != nil {
		var clientMessage string
		switch {
		case errors.Is(err, review.ErrInvalidRating):
			clientMessage = "Rating must be between 1 and 5"
		case errors.Is(err, review.ErrProductNotFound):
			clientMessage = "Product not found"
		default:
			log.Error().Err(err).Stringer("user_id", userID).Msg("Failed to create review via service")
			clientMessage = "Error creating review"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusCreated, CreateReviewResponse{
		Review:  created,
		Message: "Review submitted successfully and is pending approval",
	})
}
