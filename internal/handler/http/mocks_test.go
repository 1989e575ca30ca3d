package http_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront/internal/auth"
	"github.com/vasiliy-maslov/storefront/internal/catalog"
	storefrontHttp "github.com/vasiliy-maslov/storefront/internal/handler/http"
	"github.com/vasiliy-maslov/storefront/internal/order"
	"github.com/vasiliy-maslov/storefront/internal/review"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) PlaceOrder(ctx context.Context, in order.PlaceOrderInput) (*order.Order, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*order.OrderView, error) {
	args := m.Called(ctx, orderID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.OrderView), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, userID uuid.UUID) ([]order.OrderView, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.OrderView), args.Error(1)
}

func (m *MockOrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus order.OrderStatus) error {
	args := m.Called(ctx, orderID, newStatus)
	return args.Error(0)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) SignUp(ctx context.Context, fullName, email, password string) (*auth.Session, error) {
	args := m.Called(ctx, fullName, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

func (m *MockAuthService) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

func (m *MockAuthService) Profile(ctx context.Context, userID uuid.UUID) (*auth.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockCatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockCatalogService) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Category), args.Error(1)
}

func (m *MockCatalogService) Snapshots(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]order.CatalogSnapshot, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]order.CatalogSnapshot), args.Error(1)
}

type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) Latest(ctx context.Context) ([]review.Review, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]review.Review), args.Error(1)
}

func (m *MockReviewService) ForProduct(ctx context.Context, productID uuid.UUID) ([]review.Review, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]review.Review), args.Error(1)
}

func (m *MockReviewService) Submit(ctx context.Context, userID, productID uuid.UUID, rating int, comment string) (*review.Review, error) {
	args := m.Called(ctx, userID, productID, rating, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*review.Review), args.Error(1)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

type testServer struct {
	router  *chi.Mux
	orders  *MockOrderService
	auth    *MockAuthService
	catalog *MockCatalogService
	reviews *MockReviewService
	tokens  *auth.TokenIssuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		orders:  new(MockOrderService),
		auth:    new(MockAuthService),
		catalog: new(MockCatalogService),
		reviews: new(MockReviewService),
		tokens:  auth.NewTokenIssuer("handler-test-secret", time.Hour),
	}
	ts.router = storefrontHttp.NewRouter(storefrontHttp.Dependencies{
		Orders:  ts.orders,
		Auth:    ts.auth,
		Catalog: ts.catalog,
		Reviews: ts.reviews,
		Tokens:  ts.tokens,
		DB:      fakePinger{},
	})
	return ts
}

func (ts *testServer) bearer(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, _, err := ts.tokens.Issue(&auth.User{ID: userID, Email: "caller@example.com"})
	require.NoError(t, err)
	return "Bearer " + token
}
