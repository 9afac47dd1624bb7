package stores

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/feria-cr/feria-backend/pkg/db/models"
	pkgerrors "github.com/feria-cr/feria-backend/pkg/errors"
)

type storeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	FindBySlug(ctx context.Context, slug string) (*models.Store, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Store, error)
	Update(ctx context.Context, store *models.Store) error
}

// Service exposes storefront operations.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*StoreDTO, error)
	GetBySlug(ctx context.Context, slug string) (*StoreDTO, error)
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*StoreDTO, error)
	Update(ctx context.Context, ownerID, storeID uuid.UUID, input UpdateStoreInput) (*StoreDTO, error)
}

type service struct {
	repo storeRepository
}

// NewService builds a stores service with the provided repository.
func NewService(repo storeRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*StoreDTO, error) {
	store, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return FromModel(store), nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*StoreDTO, error) {
	store, err := s.repo.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return FromModel(store), nil
}

func (s *service) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*StoreDTO, error) {
	store, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return FromModel(store), nil
}

func (s *service) Update(ctx context.Context, ownerID, storeID uuid.UUID, input UpdateStoreInput) (*StoreDTO, error) {
	store, err := s.repo.FindByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if store.OwnerID != ownerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store does not belong to user")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name cannot be empty")
		}
		store.Name = name
	}
	if input.Description != nil {
		store.Description = input.Description
	}
	if input.Categories != nil {
		store.Categories = pq.StringArray(*input.Categories)
	}
	if input.LogoURL != nil {
		store.LogoURL = input.LogoURL
	}
	if input.Province != nil {
		store.Province = input.Province
	}
	if input.Canton != nil {
		store.Canton = input.Canton
	}

	if err := s.repo.Update(ctx, store); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update store")
	}
	return FromModel(store), nil
}

var slugCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL-safe slug from a store name.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugCleaner.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
