package stores

import (
	"context"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/feria-cr/feria-backend/pkg/db/models"
)

// Repository exposes store persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a stores repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new store and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateStoreDTO) (*models.Store, error) {
	store := &models.Store{
		OwnerID:     dto.OwnerID,
		Name:        dto.Name,
		Slug:        dto.Slug,
		Description: dto.Description,
		Categories:  pq.StringArray(dto.Categories),
		Province:    dto.Province,
		Canton:      dto.Canton,
		IsActive:    true,
	}
	if err := r.db.WithContext(ctx).Create(store).Error; err != nil {
		return nil, err
	}
	return store, nil
}

// FindByID loads a store by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).First(&store, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// FindBySlug loads a store by its public slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// FindByOwner loads the store owned by the given user, if any.
func (r *Repository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// Update persists the full store model.
func (r *Repository) Update(ctx context.Context, store *models.Store) error {
	return r.db.WithContext(ctx).Save(store).Error
}
