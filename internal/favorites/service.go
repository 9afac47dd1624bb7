package favorites

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feria-cr/feria-backend/internal/products"
	"github.com/feria-cr/feria-backend/pkg/db/models"
	pkgerrors "github.com/feria-cr/feria-backend/pkg/errors"
)

type favoritesRepository interface {
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	ListProducts(ctx context.Context, userID uuid.UUID) ([]models.Product, error)
}

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes saved-product operations.
type Service interface {
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]products.ProductDTO, error)
}

type service struct {
	repo    favoritesRepository
	catalog productFinder
}

// NewService builds a favorites service with the provided repositories.
func NewService(repo favoritesRepository, catalog productFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("favorites repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo, catalog: catalog}, nil
}

func (s *service) Add(ctx context.Context, userID, productID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if _, err := s.catalog.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if err := s.repo.Add(ctx, userID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add favorite")
	}
	return nil
}

func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := s.repo.Remove(ctx, userID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove favorite")
	}
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]products.ProductDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.ListProducts(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list favorites")
	}
	out := make([]products.ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *products.FromModel(&rows[i]))
	}
	return out, nil
}
