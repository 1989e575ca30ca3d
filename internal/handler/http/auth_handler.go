package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/auth"
)

type SignUpRequest struct {
	FullName string `json:"fullName" validate:"required,min=2,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SessionUser struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
}

type SessionResponse struct {
	User      SessionUser `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	Message   string      `json:"message"`
}

type VerifyResponse struct {
	Valid  bool      `json:"valid"`
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
}

type AuthHandler struct {
	service  auth.Service
	validate *validator.Validate
}

func NewAuthHandler(service auth.Service) *AuthHandler {
	return &AuthHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *AuthHandler) RegisterPublicRoutes(router chi.Router) {
	router.Post("/auth/signup", h.handleSignUp)
	router.Post("/auth/signin", h.handleSignIn)
}

// RegisterRoutes expects router to already be behind Authenticate.
func (h *AuthHandler) RegisterRoutes(router chi.Router) {
	router.Get("/auth/profile", h.handleProfile)
	router.Get("/auth/verify", h.handleVerify)
}

func (h *AuthHandler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	session, err := h.service.SignUp(r.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailExists) {
			respondWithError(w, http.StatusConflict, "User already exists with this email")
			return
		}
		log.Error().Err(err).Msg("Failed to sign up via service")
		respondWithError(w, mapErrorToStatusCode(err), "Error creating user")
		return
	}

	respondWithJSON(w, http.StatusCreated, newSessionResponse(session, "User created successfully"))
}

func (h *AuthHandler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	session, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondWithError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		log.Error().Err(err).Msg("Failed to sign in via service")
		respondWithError(w, mapErrorToStatusCode(err), "Error signing in")
		return
	}

	respondWithJSON(w, http.StatusOK, newSessionResponse(session, "Sign in successful"))
}

func (h *AuthHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	u, err := h.service.Profile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Error().Err(err).Stringer("user_id", userID).Msg("Failed to get profile via service")
		respondWithError(w, mapErrorToStatusCode(err), "Error fetching profile")
		return
	}

	respondWithJSON(w, http.StatusOK, u)
}

func (h *AuthHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Access token required")
		return
	}
	respondWithJSON(w, http.StatusOK, VerifyResponse{
		Valid:  true,
		UserID: userID,
		Email:  userEmailFromContext(r.Context()),
	})
}

func newSessionResponse(s *auth.Session, message string) SessionResponse {
	return SessionResponse{
		User: SessionUser{
			ID:       s.User.ID,
			Email:    s.User.Email,
			FullName: s.User.FullName,
		},
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		Message:   message,
	}
}
