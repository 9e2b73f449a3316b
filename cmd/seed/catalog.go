package main

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/marketplace/internal/domain"
	"github.com/google/uuid"
)

//go:embed catalog.json
var catalogJSON []byte

type catalogFile struct {
	Categories []domain.Category `json:"categories"`
	Products   []domain.Product  `json:"products"`
}

// loadCatalog assigns fresh ids and creation times to the embedded catalog.
func loadCatalog(now time.Time) ([]domain.Category, []domain.Product, error) {
	var f catalogFile
	if err := json.Unmarshal(catalogJSON, &f); err != nil {
		return nil, nil, fmt.Errorf("decode catalog: %w", err)
	}

	for i := range f.Categories {
		f.Categories[i].ID = uuid.NewString()
	}
	for i := range f.Products {
		f.Products[i].ID = uuid.NewString()
		f.Products[i].CreatedAt = now
	}
	return f.Categories, f.Products, nil
}
