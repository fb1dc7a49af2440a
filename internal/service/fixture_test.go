package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/repo/repotest"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/hash"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	types  []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.types = append(p.types, ev.Type)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.types...)
}

type fixture struct {
	ctx      context.Context
	repo     *repo.GormRepo
	pub      *recordingPublisher
	catalog  *CatalogService
	cart     *CartService
	orders   *OrderService
	payments *PaymentService
	reviews  *ReviewService
	profile  *ProfileService
	users    *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	r := repotest.New(t)
	pub := &recordingPublisher{}
	clock := func() time.Time { return testNow }

	orders := NewOrderService(r, nil, pub)
	orders.Now = clock

	payments := NewPaymentService(r, config.DefaultPayment(), SettlerFunc(func(context.Context, models.Payment) Settlement {
		return Settlement{Approved: true}
	}), pub)
	payments.Now = clock

	profile := NewProfileService(r)
	profile.Now = clock

	return &fixture{
		ctx:      context.Background(),
		repo:     r,
		pub:      pub,
		catalog:  NewCatalogService(r, nil, nil, pub),
		cart:     NewCartService(r),
		orders:   orders,
		payments: payments,
		reviews:  NewReviewService(r, nil),
		profile:  profile,
		users:    NewUserService(r, hash.Hasher{Cost: bcrypt.MinCost}, []byte("test-jwt-secret"), time.Minute),
	}
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	return repotest.User(t, f.repo, name)
}

func (f *fixture) product(t *testing.T, name, price string, stock int) *models.Product {
	t.Helper()
	return repotest.Product(t, f.repo, name, price, stock)
}

func (f *fixture) stock(t *testing.T, productID uint) int {
	t.Helper()
	p, err := f.repo.GetProduct(f.ctx, productID)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) addToCart(t *testing.T, username string, productID uint, qty int) {
	t.Helper()
	_, err := f.cart.AddToCart(f.ctx, username, transport.AddToCartRequest{ProductID: productID, Quantity: qty})
	require.NoError(t, err)
}

// placeOrder puts qty of the product into the user's cart and checks out.
func (f *fixture) placeOrder(t *testing.T, username string, productID uint, qty int) *models.Order {
	t.Helper()
	f.addToCart(t, username, productID, qty)
	o, err := f.orders.CreateOrder(f.ctx, username, transport.CreateOrderRequest{
		ShippingAddress: "1 Main St, Springfield",
		PaymentMethod:   "CREDIT_CARD",
	})
	require.NoError(t, err)
	return o
}

func (f *fixture) orderStatus(t *testing.T, orderID uint) models.OrderStatus {
	t.Helper()
	o, err := f.repo.GetOrder(f.ctx, orderID)
	require.NoError(t, err)
	return o.Status
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
