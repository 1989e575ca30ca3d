package review

import (
	"errors"
	"time"

	"github.com/gofrs/uuid"
)

const (
	MinRating   = 1
	MaxRating   = 5
	LatestLimit = 6
)

var (
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrProductNotFound = errors.New("product not found")
)

type Author struct {
	FullName string `json:"full_name"`
}

type Review struct {
	ID         uuid.UUID `json:"id"`
	ProductID  uuid.UUID `json:"product_id"`
	UserID     uuid.UUID `json:"user_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	IsApproved bool      `json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Author     *Author   `json:"profiles,omitempty"`
}
