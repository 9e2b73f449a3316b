package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fjod/marketplace/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	// Start MongoDB container
	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, MongoOptions{URI: uri, Database: "testdb"})
	require.NoError(t, err)

	store := NewStore(db)
	require.NoError(t, store.CreateIndexes(ctx))

	cleanup := func() {
		_ = store.Disconnect(ctx)
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return store, cleanup
}

func TestGetCart_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	cart, err := store.Carts.GetCart(context.Background(), "nonexistent")

	assert.ErrorIs(t, err, domain.ErrCartNotFound)
	assert.Nil(t, cart)
}

func TestGetOrCreateCart_CreatesOnce(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	first, err := store.Carts.GetOrCreateCart(ctx, "user123")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Empty(t, first.Items)

	second, err := store.Carts.GetOrCreateCart(ctx, "user123")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestAddItem_AccumulatesQuantity(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	userID := "user123"

	_, err := store.Carts.GetOrCreateCart(ctx, userID)
	require.NoError(t, err)

	item := domain.CartItem{ProductID: "p1", Quantity: 2, Price: 10, Title: "Lamp", Image: "lamp.jpg"}
	require.NoError(t, store.Carts.AddItem(ctx, userID, item))

	again := domain.CartItem{ProductID: "p1", Quantity: 3, Price: 99, Title: "Renamed", Image: "other.jpg"}
	require.NoError(t, store.Carts.AddItem(ctx, userID, again))

	cart, err := store.Carts.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, 10.0, cart.Items[0].Price)
	assert.Equal(t, "Lamp", cart.Items[0].Title)
	assert.Equal(t, "lamp.jpg", cart.Items[0].Image)
}

func TestAddItem_ConcurrentAddsKeepSingleLineItem(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	userID := "user-race"

	_, err := store.Carts.GetOrCreateCart(ctx, userID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Carts.AddItem(ctx, userID, domain.CartItem{ProductID: "p1", Quantity: 1, Price: 1}))
		}()
	}
	wg.Wait()

	cart, err := store.Carts.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 10, cart.Items[0].Quantity)
}

func TestAddItem_MissingCart(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.Carts.AddItem(context.Background(), "ghost", domain.CartItem{ProductID: "p1", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrCartNotFound)
}

func TestUpdateItemQuantity(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	userID := "user123"

	_, err := store.Carts.GetOrCreateCart(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, store.Carts.AddItem(ctx, userID, domain.CartItem{ProductID: "p1", Quantity: 2}))

	require.NoError(t, store.Carts.UpdateItemQuantity(ctx, userID, "p1", 10))

	cart, err := store.Carts.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 10, cart.Items[0].Quantity)

	err = store.Carts.UpdateItemQuantity(ctx, userID, "missing", 1)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestRemoveItemAndClear(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	userID := "user123"

	_, err := store.Carts.GetOrCreateCart(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, store.Carts.AddItem(ctx, userID, domain.CartItem{ProductID: "p1", Quantity: 2}))
	require.NoError(t, store.Carts.AddItem(ctx, userID, domain.CartItem{ProductID: "p2", Quantity: 3}))

	require.NoError(t, store.Carts.RemoveItem(ctx, userID, "p1"))
	require.NoError(t, store.Carts.RemoveItem(ctx, userID, "p1"))
	require.NoError(t, store.Carts.RemoveItem(ctx, "nobody", "p1"))

	cart, err := store.Carts.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "p2", cart.Items[0].ProductID)

	require.NoError(t, store.Carts.ClearCart(ctx, userID))
	require.NoError(t, store.Carts.ClearCart(ctx, userID))

	cart, err = store.Carts.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func newTestOrder(userID string) *domain.Order {
	return &domain.Order{
		ID:            uuid.NewString(),
		UserID:        userID,
		Items:         []domain.CartItem{{ProductID: "p1", Quantity: 2, Price: 10}},
		TotalAmount:   20,
		PaymentMethod: domain.PaymentMethodStripe,
		PaymentStatus: domain.PaymentStatusPending,
		Status:        domain.OrderStatusPending,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestOrder_OwnershipScopedLookup(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	order := newTestOrder("owner")
	require.NoError(t, store.Orders.CreateOrder(ctx, order))

	fetched, err := store.Orders.GetOrderForUser(ctx, order.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, order.TotalAmount, fetched.TotalAmount)

	_, err = store.Orders.GetOrderForUser(ctx, order.ID, "intruder")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrder_MarkPaidReturnsPriorState(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	order := newTestOrder("owner")
	require.NoError(t, store.Orders.CreateOrder(ctx, order))
	require.NoError(t, store.Orders.AttachSession(ctx, order.ID, "cs_1"))

	firstPaid := time.Now().UTC().Truncate(time.Millisecond)
	before, err := store.Orders.MarkPaid(ctx, order.ID, firstPaid)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, before.PaymentStatus)
	assert.Nil(t, before.PaidAt)

	before, err = store.Orders.MarkPaid(ctx, order.ID, firstPaid.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, before.PaymentStatus)

	fetched, err := store.Orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, fetched.Status)
	assert.Equal(t, "cs_1", fetched.SessionID)
	require.NotNil(t, fetched.PaidAt)
	assert.True(t, firstPaid.Equal(*fetched.PaidAt))

	_, err = store.Orders.MarkPaid(ctx, "missing", firstPaid)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrder_UnpublishedConfirmations(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	paidAt := time.Now().UTC().Truncate(time.Millisecond)
	paid := newTestOrder("relay")
	pending := newTestOrder("relay")
	require.NoError(t, store.Orders.CreateOrder(ctx, paid))
	require.NoError(t, store.Orders.CreateOrder(ctx, pending))
	_, err := store.Orders.MarkPaid(ctx, paid.ID, paidAt)
	require.NoError(t, err)

	orders, err := store.Orders.ListUnpublishedConfirmations(ctx, paidAt.Add(-time.Second), 10)
	require.NoError(t, err)
	assert.Empty(t, orders, "orders paid after the cutoff are still in flight")

	orders, err = store.Orders.ListUnpublishedConfirmations(ctx, paidAt.Add(time.Second), 10)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, paid.ID, orders[0].ID)

	require.NoError(t, store.Orders.MarkConfirmationPublished(ctx, paid.ID, paidAt))
	require.NoError(t, store.Orders.MarkConfirmationPublished(ctx, paid.ID, paidAt.Add(time.Hour)))

	orders, err = store.Orders.ListUnpublishedConfirmations(ctx, paidAt.Add(time.Second), 10)
	require.NoError(t, err)
	assert.Empty(t, orders)

	fetched, err := store.Orders.GetOrder(ctx, paid.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.ConfirmationPublishedAt)
	assert.True(t, paidAt.Equal(*fetched.ConfirmationPublishedAt))
}

func TestListOrdersByUserID(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	older := newTestOrder("lister")
	require.NoError(t, store.Orders.CreateOrder(ctx, older))
	newer := newTestOrder("lister")
	newer.CreatedAt = older.CreatedAt.Add(time.Minute)
	require.NoError(t, store.Orders.CreateOrder(ctx, newer))
	require.NoError(t, store.Orders.CreateOrder(ctx, newTestOrder("someone-else")))

	orders, err := store.Orders.ListOrdersByUserID(ctx, "lister", 100)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, newer.ID, orders[0].ID)
	assert.Equal(t, older.ID, orders[1].ID)
}

func TestTransaction_StatusNeverRegresses(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	txn := &domain.PaymentTransaction{
		ID:            uuid.NewString(),
		OrderID:       "o1",
		SessionID:     "cs_1",
		Amount:        20,
		Currency:      domain.DefaultCurrency,
		PaymentStatus: domain.PaymentStatusPending,
		PaymentMethod: domain.PaymentMethodStripe,
		UserID:        "owner",
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, store.Transactions.CreateTransaction(ctx, txn))

	require.NoError(t, store.Transactions.UpdatePaymentStatus(ctx, "cs_1", "unpaid"))
	fetched, err := store.Transactions.GetTransactionForUser(ctx, "cs_1", "owner")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatus("unpaid"), fetched.PaymentStatus)

	require.NoError(t, store.Transactions.MarkPaid(ctx, "cs_1"))
	require.NoError(t, store.Transactions.UpdatePaymentStatus(ctx, "cs_1", domain.PaymentStatusPending))

	fetched, err = store.Transactions.GetTransactionForUser(ctx, "cs_1", "owner")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, fetched.PaymentStatus)

	_, err = store.Transactions.GetTransactionForUser(ctx, "cs_1", "intruder")
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestCatalog_ListAndSearch(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	categories := []domain.Category{{ID: "c1", Name: "Books", Slug: "books"}}
	products := []domain.Product{
		{ID: "p1", Title: "Go in Action", Description: "A book", Category: "books", Price: 30},
		{ID: "p2", Title: "Desk Lamp", Description: "Bright (LED)", Category: "home-garden", Price: 15},
	}
	require.NoError(t, store.Catalog.ReplaceCatalog(ctx, categories, products))

	found, err := store.Catalog.ListProducts(ctx, domain.ProductFilter{Search: "go in", Limit: 50})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "p1", found[0].ID)

	found, err = store.Catalog.ListProducts(ctx, domain.ProductFilter{Search: "(led)", Limit: 50})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "p2", found[0].ID)

	found, err = store.Catalog.ListProducts(ctx, domain.ProductFilter{Category: "books", Limit: 50})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	_, err = store.Catalog.GetProduct(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	cats, err := store.Catalog.ListCategories(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, cats, 1)
}

func TestUser_DuplicateEmailAndProfileUpdate(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	user := &domain.User{ID: "u1", Email: "a@example.com", FullName: "Ann", Role: domain.RoleCustomer}
	require.NoError(t, store.Users.CreateUser(ctx, user))

	dup := &domain.User{ID: "u2", Email: "a@example.com"}
	assert.ErrorIs(t, store.Users.CreateUser(ctx, dup), domain.ErrEmailTaken)

	require.NoError(t, store.Users.UpdateProfile(ctx, "u1", map[string]string{"city": "Oslo"}))
	fetched, err := store.Users.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Oslo", fetched.City)
	assert.Equal(t, "Ann", fetched.FullName)
}
