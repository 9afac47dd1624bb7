package addresses

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feria-cr/feria-backend/pkg/db/models"
)

// Repository persists saved addresses.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an addresses repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new address and returns the persisted model.
func (r *Repository) Create(ctx context.Context, address *models.Address) (*models.Address, error) {
	if err := r.db.WithContext(ctx).Create(address).Error; err != nil {
		return nil, err
	}
	return address, nil
}

// FindByID loads an address by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	var address models.Address
	if err := r.db.WithContext(ctx).First(&address, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

// ListByUser returns a user's addresses, default first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var addresses []models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC").
		Order("created_at DESC").
		Find(&addresses).Error
	if err != nil {
		return nil, err
	}
	return addresses, nil
}

// Update persists the full address model.
func (r *Repository) Update(ctx context.Context, address *models.Address) error {
	return r.db.WithContext(ctx).Save(address).Error
}

// Delete removes an address row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Address{}, "id = ?", id).Error
}

// ClearDefault unsets the default flag on every address of the user.
func (r *Repository) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("user_id = ? AND is_default", userID).
		UpdateColumn("is_default", false).Error
}
