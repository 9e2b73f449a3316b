package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
)

type ShippingAddress struct {
	FullName   string `bson:"full_name" json:"full_name" validate:"required"`
	Address    string `bson:"address" json:"address" validate:"required"`
	City       string `bson:"city" json:"city" validate:"required"`
	PostalCode string `bson:"postal_code" json:"postal_code" validate:"required"`
	Country    string `bson:"country" json:"country" validate:"required"`
	Phone      string `bson:"phone" json:"phone" validate:"required"`
}

// Order owns a frozen copy of the cart items. TotalAmount is computed once at
// creation and never recomputed from catalog prices.
type Order struct {
	ID              string          `bson:"id" json:"id"`
	UserID          string          `bson:"user_id" json:"user_id"`
	Items           []CartItem      `bson:"items" json:"items"`
	TotalAmount     float64         `bson:"total_amount" json:"total_amount"`
	PaymentMethod   string          `bson:"payment_method" json:"payment_method"`
	PaymentStatus   PaymentStatus   `bson:"payment_status" json:"payment_status"`
	ShippingAddress ShippingAddress `bson:"shipping_address" json:"shipping_address"`
	Status          OrderStatus     `bson:"status" json:"status"`
	SessionID       string          `bson:"session_id" json:"session_id"`
	CreatedAt       time.Time       `bson:"created_at" json:"created_at"`
	PaidAt          *time.Time      `bson:"paid_at,omitempty" json:"paid_at,omitempty"`

	// ConfirmationPublishedAt is set once the order.confirmed event is out.
	ConfirmationPublishedAt *time.Time `bson:"confirmation_published_at,omitempty" json:"-"`
}

func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}
