package repository

import (
	"context"
	"time"

	"github.com/fjod/marketplace/internal/domain"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	usersCollection        = "users"
	categoriesCollection   = "categories"
	productsCollection     = "products"
	cartsCollection        = "carts"
	ordersCollection       = "orders"
	transactionsCollection = "payment_transactions"
)

type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	GetOrCreateCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID string, item domain.CartItem) error
	UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID, productID string) error
	ClearCart(ctx context.Context, userID string) error
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	GetOrderForUser(ctx context.Context, orderID, userID string) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string, limit int64) ([]*domain.Order, error)
	AttachSession(ctx context.Context, orderID, sessionID string) error
	// MarkPaid sets payment_status=paid and status=confirmed in one write and
	// returns the document as it was before the write. paid_at keeps the
	// earliest value across repeated calls.
	MarkPaid(ctx context.Context, orderID string, paidAt time.Time) (*domain.Order, error)
	ListUnpublishedConfirmations(ctx context.Context, paidBefore time.Time, limit int64) ([]*domain.Order, error)
	MarkConfirmationPublished(ctx context.Context, orderID string, at time.Time) error
}

type TransactionRepository interface {
	CreateTransaction(ctx context.Context, txn *domain.PaymentTransaction) error
	GetTransactionForUser(ctx context.Context, sessionID, userID string) (*domain.PaymentTransaction, error)
	// UpdatePaymentStatus records the provider status unless the transaction
	// is already paid.
	UpdatePaymentStatus(ctx context.Context, sessionID string, status domain.PaymentStatus) error
	MarkPaid(ctx context.Context, sessionID string) error
}

type ProductRepository interface {
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error)
}

type CategoryRepository interface {
	ListCategories(ctx context.Context, limit int64) ([]*domain.Category, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, fields map[string]string) error
}

// Store groups the repositories backed by one database handle.
type Store struct {
	db           *mongo.Database
	Users        UserRepository
	Catalog      *CatalogRepository
	Carts        CartRepository
	Orders       OrderRepository
	Transactions TransactionRepository
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		db:           db,
		Users:        NewUserRepository(db),
		Catalog:      NewCatalogRepository(db),
		Carts:        NewCartRepository(db),
		Orders:       NewOrderRepository(db),
		Transactions: NewTransactionRepository(db),
	}
}

func (s *Store) Disconnect(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}
