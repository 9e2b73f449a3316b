package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fjod/marketplace/internal/cache"
	"github.com/fjod/marketplace/internal/domain"
	"github.com/fjod/marketplace/internal/payment"
	"github.com/fjod/marketplace/internal/publisher"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func testLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

// memoryStore mirrors the single-document write semantics of the Mongo
// repositories.
type memoryStore struct {
	m            sync.RWMutex
	carts        map[string]*domain.Cart
	orders       map[string]*domain.Order
	transactions map[string]*domain.PaymentTransaction
	products     map[string]*domain.Product
	users        map[string]*domain.User
	err          error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		carts:        make(map[string]*domain.Cart),
		orders:       make(map[string]*domain.Order),
		transactions: make(map[string]*domain.PaymentTransaction),
		products:     make(map[string]*domain.Product),
		users:        make(map[string]*domain.User),
	}
}

func cloneCart(c *domain.Cart) *domain.Cart {
	out := *c
	out.Items = append([]domain.CartItem{}, c.Items...)
	return &out
}

func (s *memoryStore) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	s.m.RLock()
	defer s.m.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	c, ok := s.carts[userID]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	return cloneCart(c), nil
}

func (s *memoryStore) GetOrCreateCart(_ context.Context, userID string) (*domain.Cart, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	c, ok := s.carts[userID]
	if !ok {
		c = &domain.Cart{ID: "cart-" + userID, UserID: userID, Items: []domain.CartItem{}, UpdatedAt: time.Now()}
		s.carts[userID] = c
	}
	return cloneCart(c), nil
}

func (s *memoryStore) AddItem(_ context.Context, userID string, item domain.CartItem) error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.err != nil {
		return s.err
	}
	c, ok := s.carts[userID]
	if !ok {
		return domain.ErrCartNotFound
	}
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += item.Quantity
			return nil
		}
	}
	c.Items = append(c.Items, item)
	return nil
}

func (s *memoryStore) UpdateItemQuantity(_ context.Context, userID, productID string, quantity int) error {
	s.m.Lock()
	defer s.m.Unlock()
	c, ok := s.carts[userID]
	if !ok {
		return domain.ErrItemNotFound
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return nil
		}
	}
	return domain.ErrItemNotFound
}

func (s *memoryStore) RemoveItem(_ context.Context, userID, productID string) error {
	s.m.Lock()
	defer s.m.Unlock()
	c, ok := s.carts[userID]
	if !ok {
		return nil
	}
	for i, item := range c.Items {
		if item.ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *memoryStore) ClearCart(_ context.Context, userID string) error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.err != nil {
		return s.err
	}
	if c, ok := s.carts[userID]; ok {
		c.Items = []domain.CartItem{}
	}
	return nil
}

func (s *memoryStore) CreateOrder(_ context.Context, order *domain.Order) error {
	s.m.Lock()
	defer s.m.Unlock()
	o := *order
	s.orders[order.ID] = &o
	return nil
}

func (s *memoryStore) GetOrder(_ context.Context, orderID string) (*domain.Order, error) {
	s.m.RLock()
	defer s.m.RUnlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	out := *o
	return &out, nil
}

func (s *memoryStore) GetOrderForUser(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	o, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

func (s *memoryStore) ListOrdersByUserID(_ context.Context, userID string, limit int64) ([]*domain.Order, error) {
	s.m.RLock()
	defer s.m.RUnlock()
	out := make([]*domain.Order, 0)
	for _, o := range s.orders {
		if o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryStore) AttachSession(_ context.Context, orderID, sessionID string) error {
	s.m.Lock()
	defer s.m.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.SessionID = sessionID
	return nil
}

func (s *memoryStore) MarkPaid(_ context.Context, orderID string, paidAt time.Time) (*domain.Order, error) {
	s.m.Lock()
	defer s.m.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	before := *o
	o.PaymentStatus = domain.PaymentStatusPaid
	o.Status = domain.OrderStatusConfirmed
	if o.PaidAt == nil {
		o.PaidAt = &paidAt
	}
	return &before, nil
}

func (s *memoryStore) ListUnpublishedConfirmations(_ context.Context, paidBefore time.Time, limit int64) ([]*domain.Order, error) {
	s.m.RLock()
	defer s.m.RUnlock()
	out := make([]*domain.Order, 0)
	for _, o := range s.orders {
		if o.IsPaid() && o.ConfirmationPublishedAt == nil && o.PaidAt != nil && !o.PaidAt.After(paidBefore) {
			c := *o
			out = append(out, &c)
		}
	}
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryStore) MarkConfirmationPublished(_ context.Context, orderID string, at time.Time) error {
	s.m.Lock()
	defer s.m.Unlock()
	if o, ok := s.orders[orderID]; ok && o.ConfirmationPublishedAt == nil {
		o.ConfirmationPublishedAt = &at
	}
	return nil
}

// order returns a copy of the stored order.
func (s *memoryStore) order(orderID string) *domain.Order {
	s.m.RLock()
	defer s.m.RUnlock()
	o := *s.orders[orderID]
	return &o
}

func (s *memoryStore) cart(userID string) domain.Cart {
	s.m.RLock()
	defer s.m.RUnlock()
	return *cloneCart(s.carts[userID])
}

func (s *memoryStore) transaction(sessionID string) domain.PaymentTransaction {
	s.m.RLock()
	defer s.m.RUnlock()
	return *s.transactions[sessionID]
}

// transactionStore adapts memoryStore to TransactionRepository, whose MarkPaid
// is keyed by session id rather than order id.
type transactionStore struct {
	*memoryStore
}

func (t transactionStore) CreateTransaction(_ context.Context, txn *domain.PaymentTransaction) error {
	t.m.Lock()
	defer t.m.Unlock()
	cp := *txn
	t.transactions[txn.SessionID] = &cp
	return nil
}

func (t transactionStore) GetTransactionForUser(_ context.Context, sessionID, userID string) (*domain.PaymentTransaction, error) {
	t.m.RLock()
	defer t.m.RUnlock()
	txn, ok := t.transactions[sessionID]
	if !ok || txn.UserID != userID {
		return nil, domain.ErrTransactionNotFound
	}
	cp := *txn
	return &cp, nil
}

func (t transactionStore) UpdatePaymentStatus(_ context.Context, sessionID string, status domain.PaymentStatus) error {
	t.m.Lock()
	defer t.m.Unlock()
	if txn, ok := t.transactions[sessionID]; ok && txn.PaymentStatus != domain.PaymentStatusPaid {
		txn.PaymentStatus = status
	}
	return nil
}

func (t transactionStore) MarkPaid(_ context.Context, sessionID string) error {
	t.m.Lock()
	defer t.m.Unlock()
	if txn, ok := t.transactions[sessionID]; ok {
		txn.PaymentStatus = domain.PaymentStatusPaid
	}
	return nil
}

func (s *memoryStore) GetProduct(_ context.Context, productID string) (*domain.Product, error) {
	s.m.RLock()
	defer s.m.RUnlock()
	p, ok := s.products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memoryStore) ListProducts(_ context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	s.m.RLock()
	defer s.m.RUnlock()
	out := make([]*domain.Product, 0)
	for _, p := range s.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(filter.Search)) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *memoryStore) setPrice(productID string, price float64) {
	s.m.Lock()
	defer s.m.Unlock()
	s.products[productID].Price = price
}

type userStore struct {
	*memoryStore
}

func (u userStore) CreateUser(_ context.Context, user *domain.User) error {
	u.m.Lock()
	defer u.m.Unlock()
	for _, existing := range u.users {
		if existing.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	cp := *user
	u.users[user.ID] = &cp
	return nil
}

func (u userStore) GetUserByID(_ context.Context, userID string) (*domain.User, error) {
	u.m.RLock()
	defer u.m.RUnlock()
	user, ok := u.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (u userStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	u.m.RLock()
	defer u.m.RUnlock()
	for _, user := range u.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (u userStore) UpdateProfile(_ context.Context, userID string, fields map[string]string) error {
	u.m.Lock()
	defer u.m.Unlock()
	user, ok := u.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	for k, v := range fields {
		switch k {
		case "full_name":
			user.FullName = v
		case "phone":
			user.Phone = v
		case "address":
			user.Address = v
		case "city":
			user.City = v
		case "postal_code":
			user.PostalCode = v
		case "country":
			user.Country = v
		}
	}
	return nil
}

type categoryStore struct {
	m          sync.RWMutex
	categories []*domain.Category
	lastLimit  int64
}

func (c *categoryStore) ListCategories(_ context.Context, limit int64) ([]*domain.Category, error) {
	c.m.Lock()
	defer c.m.Unlock()
	c.lastLimit = limit
	return c.categories, nil
}

type mockCache struct {
	m        sync.RWMutex
	carts    map[string]*domain.Cart
	versions map[string]int64
	deletes  int
	err      error
}

func newMockCache() *mockCache {
	return &mockCache{carts: make(map[string]*domain.Cart), versions: make(map[string]int64)}
}

func (m *mockCache) Get(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return c, nil
}

func (m *mockCache) Version(_ context.Context, userID string) (int64, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.versions[userID], m.err
}

func (m *mockCache) Set(_ context.Context, userID string, version int64, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.versions[userID] != version {
		return cache.ErrStaleVersion
	}
	m.carts[userID] = cart
	return nil
}

func (m *mockCache) Delete(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.carts, userID)
	m.versions[userID]++
	m.deletes++
	return m.err
}

func (m *mockCache) cached(userID string) (*domain.Cart, bool) {
	m.m.RLock()
	defer m.m.RUnlock()
	c, ok := m.carts[userID]
	return c, ok
}

// fakeGateway stands in for the provider. Webhook payloads are accepted when
// the signature equals validSignature and decoded from a "session|status|order"
// string.
type fakeGateway struct {
	m              sync.Mutex
	statuses       map[string]*payment.Status
	statusErr      error
	createErr      error
	statusCalls    int
	createRequests []payment.SessionRequest
	nextSession    int
}

const validSignature = "good-signature"

func newFakeGateway() *fakeGateway {
	return &fakeGateway{statuses: make(map[string]*payment.Status)}
}

func (g *fakeGateway) CreateSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	g.m.Lock()
	defer g.m.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.createRequests = append(g.createRequests, req)
	g.nextSession++
	id := fmt.Sprintf("cs_test_%d", g.nextSession)
	g.statuses[id] = &payment.Status{Status: "open", PaymentStatus: domain.PaymentStatusPending}
	return &payment.Session{ID: id, URL: "https://checkout.example/" + id}, nil
}

func (g *fakeGateway) GetStatus(_ context.Context, sessionID string) (*payment.Status, error) {
	g.m.Lock()
	defer g.m.Unlock()
	g.statusCalls++
	if g.statusErr != nil {
		return nil, g.statusErr
	}
	st, ok := g.statuses[sessionID]
	if !ok {
		return nil, domain.ErrGateway
	}
	cp := *st
	return &cp, nil
}

func (g *fakeGateway) ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	if signature != validSignature {
		return nil, domain.ErrSignatureInvalid
	}
	parts := strings.Split(string(payload), "|")
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return &payment.WebhookEvent{
		EventID:       "evt_1",
		Type:          "checkout.session.completed",
		SessionID:     parts[0],
		PaymentStatus: domain.PaymentStatus(parts[1]),
		Metadata:      map[string]string{payment.MetadataOrderID: parts[2]},
	}, nil
}

func (g *fakeGateway) setPaid(sessionID string, amountTotal int64) {
	g.m.Lock()
	defer g.m.Unlock()
	g.statuses[sessionID] = &payment.Status{
		Status:        "complete",
		PaymentStatus: domain.PaymentStatusPaid,
		AmountTotal:   amountTotal,
	}
}

func (g *fakeGateway) calls() int {
	g.m.Lock()
	defer g.m.Unlock()
	return g.statusCalls
}

type recordingPublisher struct {
	m      sync.Mutex
	events []publisher.OrderConfirmed
	err    error
}

func (p *recordingPublisher) PublishOrderConfirmed(_ context.Context, event publisher.OrderConfirmed) error {
	p.m.Lock()
	defer p.m.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []publisher.OrderConfirmed {
	p.m.Lock()
	defer p.m.Unlock()
	return append([]publisher.OrderConfirmed{}, p.events...)
}
