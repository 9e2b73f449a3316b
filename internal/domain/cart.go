package domain

import "time"

type Cart struct {
	ID        string     `bson:"id" json:"id"`
	UserID    string     `bson:"user_id" json:"user_id"`
	Items     []CartItem `bson:"items" json:"items"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

// CartItem carries the catalog price, title and image captured when the
// product was first added.
type CartItem struct {
	ProductID string  `bson:"product_id" json:"product_id"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	Price     float64 `bson:"price" json:"price"`
	Title     string  `bson:"title" json:"title"`
	Image     string  `bson:"image" json:"image"`
}

func (c *Cart) Item(productID string) (CartItem, bool) {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return CartItem{}, false
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Total is the sum of price*quantity across all line items.
func (c *Cart) Total() float64 {
	return LineTotal(c.Items)
}
