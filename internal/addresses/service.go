package addresses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feria-cr/feria-backend/pkg/db/models"
	pkgerrors "github.com/feria-cr/feria-backend/pkg/errors"
)

// AddressInput carries the fields of a saved shipping destination.
type AddressInput struct {
	Label      string  `json:"label" validate:"required"`
	Line1      string  `json:"line1" validate:"required"`
	Line2      *string `json:"line2,omitempty"`
	District   string  `json:"district" validate:"required"`
	Canton     string  `json:"canton" validate:"required"`
	Province   string  `json:"province" validate:"required"`
	PostalCode *string `json:"postal_code,omitempty"`
	Notes      *string `json:"notes,omitempty"`
	IsDefault  bool    `json:"is_default"`
}

type addressRepository interface {
	Create(ctx context.Context, address *models.Address) (*models.Address, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Address, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	Update(ctx context.Context, address *models.Address) error
	Delete(ctx context.Context, id uuid.UUID) error
	ClearDefault(ctx context.Context, userID uuid.UUID) error
}

// Service exposes saved address operations.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input AddressInput) (*models.Address, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	Update(ctx context.Context, userID, addressID uuid.UUID, input AddressInput) (*models.Address, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
}

type service struct {
	repo addressRepository
}

// NewService builds an addresses service with the provided repository.
func NewService(repo addressRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input AddressInput) (*models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	if input.IsDefault {
		if err := s.repo.ClearDefault(ctx, userID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default address")
		}
	}

	address := &models.Address{
		UserID:     userID,
		Label:      strings.TrimSpace(input.Label),
		Line1:      strings.TrimSpace(input.Line1),
		Line2:      input.Line2,
		District:   strings.TrimSpace(input.District),
		Canton:     strings.TrimSpace(input.Canton),
		Province:   strings.TrimSpace(input.Province),
		PostalCode: input.PostalCode,
		Notes:      input.Notes,
		IsDefault:  input.IsDefault,
	}
	created, err := s.repo.Create(ctx, address)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
	}
	return created, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	addresses, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	return addresses, nil
}

func (s *service) Update(ctx context.Context, userID, addressID uuid.UUID, input AddressInput) (*models.Address, error) {
	address, err := s.ownedAddress(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	if input.IsDefault && !address.IsDefault {
		if err := s.repo.ClearDefault(ctx, userID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default address")
		}
	}

	address.Label = strings.TrimSpace(input.Label)
	address.Line1 = strings.TrimSpace(input.Line1)
	address.Line2 = input.Line2
	address.District = strings.TrimSpace(input.District)
	address.Canton = strings.TrimSpace(input.Canton)
	address.Province = strings.TrimSpace(input.Province)
	address.PostalCode = input.PostalCode
	address.Notes = input.Notes
	address.IsDefault = input.IsDefault

	if err := s.repo.Update(ctx, address); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update address")
	}
	return address, nil
}

func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	if _, err := s.ownedAddress(ctx, userID, addressID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, addressID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
	}
	return nil
}

func (s *service) ownedAddress(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	address, err := s.repo.FindByID(ctx, addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	if address.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "address does not belong to user")
	}
	return address, nil
}

func validateInput(input AddressInput) error {
	if strings.TrimSpace(input.Label) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "label is required")
	}
	if strings.TrimSpace(input.Line1) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "line1 is required")
	}
	if strings.TrimSpace(input.Province) == "" || strings.TrimSpace(input.Canton) == "" || strings.TrimSpace(input.District) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "province, canton, and district are required")
	}
	return nil
}
