package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// PaymentMethodStripe is the only payment method with a checkout provider.
const PaymentMethodStripe = "stripe"

// CheckoutStatusCompleted is reported for transactions already recorded as paid.
const CheckoutStatusCompleted = "completed"

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusPaid
}

func (s PaymentStatus) String() string {
	return string(s)
}

// PaymentTransaction is one checkout-session attempt for an order.
type PaymentTransaction struct {
	ID            string        `bson:"id" json:"id"`
	OrderID       string        `bson:"order_id" json:"order_id"`
	SessionID     string        `bson:"session_id" json:"session_id"`
	Amount        float64       `bson:"amount" json:"amount"`
	Currency      string        `bson:"currency" json:"currency"`
	PaymentStatus PaymentStatus `bson:"payment_status" json:"payment_status"`
	PaymentMethod string        `bson:"payment_method" json:"payment_method"`
	UserID        string        `bson:"user_id" json:"user_id"`
	CreatedAt     time.Time     `bson:"created_at" json:"created_at"`
}

// PaymentCheck is the result of a client status poll.
type PaymentCheck struct {
	Status        string        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	OrderID       string        `json:"order_id"`
	Amount        *float64      `json:"amount,omitempty"`
}
