package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/auth"
	"github.com/vasiliy-maslov/storefront/internal/catalog"
	"github.com/vasiliy-maslov/storefront/internal/order"
	"github.com/vasiliy-maslov/storefront/internal/review"
)

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// decodeAndValidate reads a strictly typed body. It writes the error response
// itself and reports false when the request must not proceed.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		log.Warn().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload: %v", err))
		return false
	}

	if err := v.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   "Validation failed",
				Details: formatValidationErrors(validationErrors),
			})
		} else {
			log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return false
	}
	return true
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := fieldPath(fe.Namespace())
		switch fe.Tag() {
		case "required":
			details[field] = "This field is required"
		case "email":
			details[field] = "Must be a valid email address"
		case "min":
			details[field] = fmt.Sprintf("Must be at least %s characters long", fe.Param())
		case "max":
			details[field] = fmt.Sprintf("Must be at most %s characters long", fe.Param())
		case "oneof":
			details[field] = fmt.Sprintf("Must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
		case "gte", "lte":
			details[field] = fmt.Sprintf("Must satisfy %s=%s", fe.Tag(), fe.Param())
		default:
			details[field] = fmt.Sprintf("Failed on the '%s' rule", fe.Tag())
		}
	}
	return details
}

// fieldPath drops the root struct name: "CreateOrderRequest.items[0].product_id" -> "items[0].product_id".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func mapErrorToStatusCode(err error) int {
	var verr *order.ValidationError

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, auth.ErrNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, review.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrInvalidStatusTransition),
		errors.Is(err, auth.ErrEmailExists):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, review.ErrInvalidRating):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
