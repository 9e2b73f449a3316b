package http

import (
	"context"
	"sync"

	"github.com/fjod/marketplace/internal/domain"
	"github.com/fjod/marketplace/internal/payment"
	"github.com/fjod/marketplace/internal/service"
)

type mockAuth struct {
	m      sync.RWMutex
	users  map[string]*domain.User // by token
	result *service.AuthResult
	err    error
	update domain.ProfileUpdate
}

func (a *mockAuth) Authenticate(_ context.Context, token string) (*domain.User, error) {
	a.m.RLock()
	defer a.m.RUnlock()
	user, ok := a.users[token]
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	return user, nil
}

func (a *mockAuth) Register(_ context.Context, in service.RegisterInput) (*service.AuthResult, error) {
	a.m.RLock()
	defer a.m.RUnlock()
	if a.err != nil {
		return nil, a.err
	}
	return a.result, nil
}

func (a *mockAuth) Login(_ context.Context, email, password string) (*service.AuthResult, error) {
	a.m.RLock()
	defer a.m.RUnlock()
	if a.err != nil {
		return nil, a.err
	}
	return a.result, nil
}

func (a *mockAuth) UpdateProfile(_ context.Context, userID string, update domain.ProfileUpdate) (*domain.UserProfile, error) {
	a.m.Lock()
	defer a.m.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	a.update = update
	p := domain.UserProfile{ID: userID}
	if update.City != nil {
		p.City = *update.City
	}
	return &p, nil
}

type cartCall struct {
	userID    string
	productID string
	quantity  int
}

type mockCarts struct {
	m     sync.RWMutex
	cart  *domain.Cart
	err   error
	calls []cartCall
}

func (c *mockCarts) record(userID, productID string, quantity int) error {
	c.m.Lock()
	defer c.m.Unlock()
	c.calls = append(c.calls, cartCall{userID, productID, quantity})
	return c.err
}

func (c *mockCarts) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	c.m.RLock()
	defer c.m.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.cart, nil
}

func (c *mockCarts) AddItem(_ context.Context, userID, productID string, quantity int) error {
	return c.record(userID, productID, quantity)
}

func (c *mockCarts) UpdateItem(_ context.Context, userID, productID string, quantity int) error {
	return c.record(userID, productID, quantity)
}

func (c *mockCarts) RemoveItem(_ context.Context, userID, productID string) error {
	return c.record(userID, productID, 0)
}

func (c *mockCarts) lastCall() cartCall {
	c.m.RLock()
	defer c.m.RUnlock()
	return c.calls[len(c.calls)-1]
}

type mockOrders struct {
	m      sync.RWMutex
	order  *domain.Order
	orders []*domain.Order
	err    error
	input  service.CreateOrderInput
}

func (o *mockOrders) CreateOrder(_ context.Context, userID string, in service.CreateOrderInput) (*domain.Order, error) {
	o.m.Lock()
	defer o.m.Unlock()
	o.input = in
	if o.err != nil {
		return nil, o.err
	}
	return o.order, nil
}

func (o *mockOrders) GetOrder(_ context.Context, userID, orderID string) (*domain.Order, error) {
	o.m.RLock()
	defer o.m.RUnlock()
	if o.err != nil {
		return nil, o.err
	}
	if o.order == nil || o.order.ID != orderID || o.order.UserID != userID {
		return nil, domain.ErrOrderNotFound
	}
	return o.order, nil
}

func (o *mockOrders) ListOrders(_ context.Context, userID string) ([]*domain.Order, error) {
	o.m.RLock()
	defer o.m.RUnlock()
	return o.orders, o.err
}

type mockPayments struct {
	m          sync.RWMutex
	session    *payment.Session
	check      *domain.PaymentCheck
	err        error
	webhookErr error
	payload    []byte
	signature  string
	origin     string
}

func (p *mockPayments) CreateSession(_ context.Context, userID, orderID, originURL string) (*payment.Session, error) {
	p.m.Lock()
	defer p.m.Unlock()
	p.origin = originURL
	if p.err != nil {
		return nil, p.err
	}
	return p.session, nil
}

func (p *mockPayments) CheckStatus(_ context.Context, userID, sessionID string) (*domain.PaymentCheck, error) {
	p.m.RLock()
	defer p.m.RUnlock()
	if p.err != nil {
		return nil, p.err
	}
	return p.check, nil
}

func (p *mockPayments) HandleWebhook(_ context.Context, payload []byte, signature string) error {
	p.m.Lock()
	defer p.m.Unlock()
	p.payload = payload
	p.signature = signature
	return p.webhookErr
}

type mockCatalog struct {
	products []*domain.Product
	filter   domain.ProductFilter
	err      error
}

func (c *mockCatalog) ListProducts(_ context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	c.filter = filter
	return c.products, c.err
}

func (c *mockCatalog) GetProduct(_ context.Context, productID string) (*domain.Product, error) {
	for _, p := range c.products {
		if p.ID == productID {
			return p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (c *mockCatalog) ListCategories(context.Context) ([]*domain.Category, error) {
	return []*domain.Category{{ID: "c1", Name: "Books", Slug: "books"}}, c.err
}
