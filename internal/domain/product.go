package domain

import "time"

type Product struct {
	ID           string    `bson:"id" json:"id"`
	Title        string    `bson:"title" json:"title"`
	Description  string    `bson:"description" json:"description"`
	Price        float64   `bson:"price" json:"price"`
	Images       []string  `bson:"images" json:"images"`
	Category     string    `bson:"category" json:"category"`
	Stock        int       `bson:"stock" json:"stock"`
	Rating       float64   `bson:"rating" json:"rating"`
	ReviewsCount int       `bson:"reviews_count" json:"reviews_count"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// Thumbnail returns the first image or an empty string.
func (p *Product) Thumbnail() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

type Category struct {
	ID          string `bson:"id" json:"id"`
	Name        string `bson:"name" json:"name"`
	Slug        string `bson:"slug" json:"slug"`
	Description string `bson:"description" json:"description"`
	Image       string `bson:"image" json:"image"`
}

type ProductFilter struct {
	Category string
	Search   string
	Limit    int
}
