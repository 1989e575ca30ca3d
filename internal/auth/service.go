package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	SignUp(ctx context.Context, fullName, email, password string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	Profile(ctx context.Context, userID uuid.UUID) (*User, error)
}

type service struct {
	repo   Repository
	tokens *TokenIssuer
}

func NewService(repo Repository, tokens *TokenIssuer) Service {
	return &service{repo: repo, tokens: tokens}
}

func (s *service) SignUp(ctx context.Context, fullName, email, password string) (*Session, error) {
	if password == "" {
		return nil, errors.New("password cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to generate password hash")
		return nil, fmt.Errorf("service: internal error hashing password: %w", err)
	}

	created, err := s.repo.Create(ctx, &User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
	})
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		log.Error().Err(err).Msg("service: failed to create user in repository")
		return nil, fmt.Errorf("service: failed to save user: %w", err)
	}

	log.Info().Stringer("user_id", created.ID).Msg("service: user signed up")
	return s.session(created)
}

func (s *service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		log.Error().Err(err).Msg("service: failed to get user by email")
		return nil, fmt.Errorf("service: failed to get user by email: %w", err)
	}

	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		log.Warn().Stringer("user_id", u.ID).Msg("service: password mismatch")
		return nil, ErrInvalidCredentials
	}

	return s.session(u)
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to get user by id")
		return nil, fmt.Errorf("service: failed to get user by id '%s': %w", userID, err)
	}
	return u, nil
}

func (s *service) session(u *User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(u)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", u.ID).Msg("service: failed to issue token")
		return nil, fmt.Errorf("service: failed to issue token: %w", err)
	}
	return &Session{User: u, Token: token, ExpiresAt: expiresAt}, nil
}
