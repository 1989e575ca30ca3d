package catalog

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

var ErrProductNotFound = errors.New("product not found")

type ProductImage struct {
	ID        uuid.UUID `json:"id"`
	ImageURL  string    `json:"image_url"`
	AltText   string    `json:"alt_text"`
	SortOrder int       `json:"sort_order"`
}

// ProductImages scans the json_agg column produced by the product queries.
type ProductImages []ProductImage

func (pi *ProductImages) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*pi = ProductImages{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("catalog: cannot scan %T into ProductImages", src)
	}

	images := ProductImages{}
	if err := json.Unmarshal(raw, &images); err != nil {
		return fmt.Errorf("catalog: failed to decode product images: %w", err)
	}
	*pi = images
	return nil
}

func (pi ProductImages) Value() (driver.Value, error) {
	if pi == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]ProductImage(pi))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

type Product struct {
	ID                 uuid.UUID       `db:"id" json:"id"`
	Title              string          `db:"title" json:"title"`
	Slug               string          `db:"slug" json:"slug"`
	Description        string          `db:"description" json:"description"`
	Price              decimal.Decimal `db:"price" json:"price"`
	DiscountPercentage decimal.Decimal `db:"discount_percentage" json:"discount_percentage"`
	CategoryID         uuid.NullUUID   `db:"category_id" json:"category_id"`
	InStock            bool            `db:"in_stock" json:"in_stock"`
	StockQuantity      int             `db:"stock_quantity" json:"stock_quantity"`
	IsFeatured         bool            `db:"is_featured" json:"is_featured"`
	CollectionTag      string          `db:"collection_tag" json:"collection_tag"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
	Images             ProductImages   `db:"product_images" json:"product_images"`
}

type Category struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Slug        string    `db:"slug" json:"slug"`
	Description string    `db:"description" json:"description"`
	ImageURL    string    `db:"image_url" json:"image_url"`
	IsFeatured  bool      `db:"is_featured" json:"is_featured"`
	SortOrder   int       `db:"sort_order" json:"sort_order"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
