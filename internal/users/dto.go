package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/feria-cr/feria-backend/pkg/db/models"
	"github.com/feria-cr/feria-backend/pkg/enums"
)

// UserDTO is the outward-facing user shape; the password hash never leaves
// the persistence layer.
type UserDTO struct {
	ID          uuid.UUID      `json:"id"`
	Email       string         `json:"email"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	Phone       *string        `json:"phone,omitempty"`
	Role        enums.UserRole `json:"role"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// FromModel maps a persisted user onto the API shape.
func FromModel(user *models.User) *UserDTO {
	if user == nil {
		return nil
	}
	return &UserDTO{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Phone:       user.Phone,
		Role:        user.Role,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}

// CreateUserDTO carries the fields needed to insert a user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        *string
	Role         enums.UserRole
}

// ToModel converts the DTO into a persistable model.
func (d CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Phone:        d.Phone,
		Role:         d.Role,
		IsActive:     true,
	}
}

// UpdateProfileInput captures the mutable profile fields.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
}
