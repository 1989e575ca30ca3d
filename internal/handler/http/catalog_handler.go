package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/catalog"
)

type CatalogHandler struct {
	service catalog.Service
}

func NewCatalogHandler(service catalog.Service) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func (h *CatalogHandler) RegisterRoutes(router chi.Router) {
	router.Get("/products", h.handleListProducts)
	router.Get("/products/categories/all", h.handleListCategories)
	router.Get("/products/{id}", h.handleGetProduct)
}

func (h *CatalogHandler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list products via service")
		respondWithError(w, mapErrorToStatusCode(err), "Error fetching products")
		return
	}
	respondWithJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	productID, err := uuid.FromString(idParam)
	if err != nil {
		log.Warn().Err(err).Str("product_id", idParam).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	product, err := h.service.GetProduct(r.Context(), productID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, "Product not found")
			return
		}
		log.Error().Err(err).Stringer("product_id", productID).Msg("Failed to get product via service")
		respondWithError(w, mapErrorToStatusCode(err), "Error fetching product")
		return
	}
	respondWithJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list categories via service")
		respondWithError(w, mapErrorToStatusCode(err), "Error fetching categories")
		return
	}
	respondWithJSON(w, http.StatusOK, categories)
}
