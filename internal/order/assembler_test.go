package order_test

import (
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront/internal/order"
)

func snapshot(id uuid.UUID, price, discount string) *order.CatalogSnapshot {
	return &order.CatalogSnapshot{
		ProductID:          id,
		Price:              decimal.RequireFromString(price),
		DiscountPercentage: decimal.RequireFromString(discount),
		Available:          true,
	}
}

func testCheckout() order.Checkout {
	return order.Checkout{
		PaymentMethod: "stripe",
		Payment:       order.PaymentConfirmation{ID: "pi_3Nk"},
		ShippingAddress: order.ShippingAddress{
			FullName: "Test User",
			Email:    "test@example.com",
			Address:  "123 Collins Street",
			City:     "Melbourne",
			Postcode: "3000",
		},
	}
}

func TestAssemble_DiscountedScenario(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	lipstick := uuid.Must(uuid.NewV4())
	serum := uuid.Must(uuid.NewV4())

	lines := []order.ProposedLine{
		{ProductID: lipstick, Quantity: 2, Snapshot: snapshot(lipstick, "35", "25")},
		{ProductID: serum, Quantity: 1, Snapshot: snapshot(serum, "55", "0")},
	}

	draft, err := order.Assemble(userID, lines, testCheckout())
	require.NoError(t, err)
	require.Len(t, draft.Items, 2)

	assert.Equal(t, "26.25", draft.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "55.00", draft.Items[1].UnitPrice.StringFixed(2))
	assert.Equal(t, "107.50", draft.TotalAmount.StringFixed(2))

	assert.Equal(t, userID, draft.UserID)
	assert.Equal(t, order.StatusConfirmed, draft.Status)
	assert.Equal(t, order.PaymentPaid, draft.PaymentStatus)
	assert.Equal(t, "stripe", draft.PaymentMethod)
	assert.Equal(t, "Payment ID: pi_3Nk", draft.Notes)
	assert.Equal(t, "Melbourne", draft.ShippingAddress.City)
}

func TestAssemble_TotalEqualsSumOfLines(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	prices := []struct {
		price, discount string
		qty             int
	}{
		{"9.99", "33", 3},
		{"0.10", "0", 7},
		{"129.95", "12.5", 2},
		{"4.49", "99", 11},
	}

	lines := make([]order.ProposedLine, 0, len(prices))
	for _, p := range prices {
		id := uuid.Must(uuid.NewV4())
		lines = append(lines, order.ProposedLine{ProductID: id, Quantity: p.qty, Snapshot: snapshot(id, p.price, p.discount)})
	}

	draft, err := order.Assemble(userID, lines, testCheckout())
	require.NoError(t, err)

	sum := decimal.Zero
	for _, item := range draft.Items {
		sum = sum.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	assert.True(t, sum.Equal(draft.TotalAmount), "total %s != sum %s", draft.TotalAmount, sum)
}

func TestAssemble_SameProductOnSeveralLines(t *testing.T) {
	id := uuid.Must(uuid.NewV4())
	snap := snapshot(id, "10", "0")

	draft, err := order.Assemble(uuid.Must(uuid.NewV4()), []order.ProposedLine{
		{ProductID: id, Quantity: 1, Snapshot: snap},
		{ProductID: id, Quantity: 2, Snapshot: snap},
	}, testCheckout())
	require.NoError(t, err)

	assert.Len(t, draft.Items, 2)
	assert.Equal(t, "30.00", draft.TotalAmount.StringFixed(2))
}

func TestAssemble_MissingPaymentIDFallsBack(t *testing.T) {
	id := uuid.Must(uuid.NewV4())
	checkout := testCheckout()
	checkout.Payment.ID = "  "

	draft, err := order.Assemble(uuid.Must(uuid.NewV4()), []order.ProposedLine{
		{ProductID: id, Quantity: 1, Snapshot: snapshot(id, "10", "0")},
	}, checkout)
	require.NoError(t, err)
	assert.Equal(t, "Payment ID: N/A", draft.Notes)
}

func TestAssemble_ValidationErrors(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())
	unavailable := snapshot(id, "10", "0")
	unavailable.Available = false

	tests := []struct {
		name    string
		userID  uuid.UUID
		lines   []order.ProposedLine
		wantMsg string
	}{
		{
			name:    "empty_lines",
			userID:  userID,
			lines:   nil,
			wantMsg: "Order items are required",
		},
		{
			name:    "nil_user",
			userID:  uuid.Nil,
			lines:   []order.ProposedLine{{ProductID: id, Quantity: 1, Snapshot: snapshot(id, "10", "0")}},
			wantMsg: "User is required",
		},
		{
			name:    "zero_quantity",
			userID:  userID,
			lines:   []order.ProposedLine{{ProductID: id, Quantity: 0, Snapshot: snapshot(id, "10", "0")}},
			wantMsg: "Quantity for product " + id.String() + " must be at least 1",
		},
		{
			name:    "negative_quantity",
			userID:  userID,
			lines:   []order.ProposedLine{{ProductID: id, Quantity: -3, Snapshot: snapshot(id, "10", "0")}},
			wantMsg: "Quantity for product " + id.String() + " must be at least 1",
		},
		{
			name:    "missing_snapshot",
			userID:  userID,
			lines:   []order.ProposedLine{{ProductID: id, Quantity: 1}},
			wantMsg: "Product " + id.String() + " was not found",
		},
		{
			name:    "out_of_stock",
			userID:  userID,
			lines:   []order.ProposedLine{{ProductID: id, Quantity: 1, Snapshot: unavailable}},
			wantMsg: "Product " + id.String() + " is out of stock",
		},
		{
			name:    "nil_product",
			userID:  userID,
			lines:   []order.ProposedLine{{ProductID: uuid.Nil, Quantity: 1}},
			wantMsg: "Order item 1 has no product",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, err := order.Assemble(tt.userID, tt.lines, testCheckout())
			require.Error(t, err)
			assert.Nil(t, draft)

			var verr *order.ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %T", err)
			assert.Equal(t, tt.wantMsg, verr.Reason)
		})
	}
}
