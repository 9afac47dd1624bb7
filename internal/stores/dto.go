package stores

import (
	"time"

	"github.com/google/uuid"

	"github.com/feria-cr/feria-backend/pkg/db/models"
)

// StoreDTO is the public storefront shape.
type StoreDTO struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	Categories  []string  `json:"categories,omitempty"`
	LogoURL     *string   `json:"logo_url,omitempty"`
	Province    *string   `json:"province,omitempty"`
	Canton      *string   `json:"canton,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// FromModel maps a persisted store onto the API shape.
func FromModel(store *models.Store) *StoreDTO {
	if store == nil {
		return nil
	}
	return &StoreDTO{
		ID:          store.ID,
		OwnerID:     store.OwnerID,
		Name:        store.Name,
		Slug:        store.Slug,
		Description: store.Description,
		Categories:  store.Categories,
		LogoURL:     store.LogoURL,
		Province:    store.Province,
		Canton:      store.Canton,
		IsActive:    store.IsActive,
		CreatedAt:   store.CreatedAt,
	}
}

// CreateStoreDTO carries the fields needed to open a storefront.
type CreateStoreDTO struct {
	OwnerID     uuid.UUID
	Name        string
	Slug        string
	Description *string
	Categories  []string
	Province    *string
	Canton      *string
}

// UpdateStoreInput captures the allowed store fields for mutation.
type UpdateStoreInput struct {
	Name        *string
	Description *string
	Categories  *[]string
	LogoURL     *string
	Province    *string
	Canton      *string
}
