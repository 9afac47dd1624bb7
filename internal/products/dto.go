package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/feria-cr/feria-backend/pkg/db/models"
)

// ProductDTO is the public catalog shape of a listing.
type ProductDTO struct {
	ID          uuid.UUID `json:"id"`
	StoreID     uuid.UUID `json:"store_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Category    string    `json:"category"`
	PriceCents  int64     `json:"price_cents"`
	Stock       int       `json:"stock"`
	ImageURLs   []string  `json:"image_urls,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// FromModel maps a persisted product onto the API shape.
func FromModel(product *models.Product) *ProductDTO {
	if product == nil {
		return nil
	}
	return &ProductDTO{
		ID:          product.ID,
		StoreID:     product.StoreID,
		Name:        product.Name,
		Description: product.Description,
		Category:    product.Category,
		PriceCents:  product.PriceCents,
		Stock:       product.Stock,
		ImageURLs:   product.ImageURLs,
		IsActive:    product.IsActive,
		CreatedAt:   product.CreatedAt,
	}
}

// CreateProductInput carries the fields a seller provides for a new listing.
type CreateProductInput struct {
	Name        string
	Description *string
	Category    string
	PriceCents  int64
	Stock       int
	ImageURLs   []string
}

// UpdateProductInput captures the mutable listing fields.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Category    *string
	PriceCents  *int64
	Stock       *int
	ImageURLs   *[]string
	IsActive    *bool
}

// ListFilters narrows the public catalog query.
type ListFilters struct {
	StoreID       *uuid.UUID
	Category      *string
	MinPriceCents *int64
	MaxPriceCents *int64
	Search        *string
}

// ProductList is one page of catalog results.
type ProductList struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}
