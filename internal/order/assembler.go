package order

import (
	"strings"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// Assemble prices every proposed line against its snapshot and builds the
// in-memory order. It has no side effects.
func Assemble(userID uuid.UUID, lines []ProposedLine, checkout Checkout) (*Draft, error) {
	if len(lines) == 0 {
		return nil, newValidationError("Order items are required")
	}
	if userID == uuid.Nil {
		return nil, newValidationError("User is required")
	}

	items := make([]DraftItem, 0, len(lines))
	total := decimal.Zero

	for i, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, newValidationError("Order item %d has no product", i+1)
		}
		if line.Quantity < 1 {
			return nil, newValidationError("Quantity for product %s must be at least 1", line.ProductID)
		}
		if line.Snapshot == nil {
			return nil, newValidationError("Product %s was not found", line.ProductID)
		}
		if !line.Snapshot.Available {
			return nil, newValidationError("Product %s is out of stock", line.ProductID)
		}

		unitPrice := EffectivePrice(line.Snapshot.Price, line.Snapshot.DiscountPercentage)
		total = total.Add(unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))

		items = append(items, DraftItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
		})
	}

	return &Draft{
		UserID:          userID,
		Status:          StatusConfirmed,
		PaymentStatus:   PaymentPaid,
		PaymentMethod:   checkout.PaymentMethod,
		ShippingAddress: checkout.ShippingAddress,
		Notes:           paymentNote(checkout.Payment),
		TotalAmount:     total,
		Items:           items,
	}, nil
}

func paymentNote(p PaymentConfirmation) string {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		id = "N/A"
	}
	return "Payment ID: " + id
}
