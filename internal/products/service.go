package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/feria-cr/feria-backend/pkg/db/models"
	pkgerrors "github.com/feria-cr/feria-backend/pkg/errors"
	"github.com/feria-cr/feria-backend/pkg/pagination"
)

type productRepository interface {
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.Product, string, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Product, error)
}

// Service exposes catalog operations for buyers and sellers.
type Service interface {
	Create(ctx context.Context, storeID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, storeID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, storeID, productID uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*ProductList, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]ProductDTO, error)
}

type service struct {
	repo productRepository
}

// NewService builds a products service with the provided repository.
func NewService(repo productRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, storeID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store context required")
	}
	if err := validateListing(input.Name, input.Category, input.PriceCents, input.Stock); err != nil {
		return nil, err
	}

	product := &models.Product{
		StoreID:     storeID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Category:    strings.ToLower(strings.TrimSpace(input.Category)),
		PriceCents:  input.PriceCents,
		Stock:       input.Stock,
		ImageURLs:   pq.StringArray(input.ImageURLs),
		IsActive:    true,
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return FromModel(created), nil
}

func (s *service) Update(ctx context.Context, storeID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.ownedProduct(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Category != nil {
		category := strings.ToLower(strings.TrimSpace(*input.Category))
		if category == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category cannot be empty")
		}
		product.Category = category
	}
	if input.PriceCents != nil {
		if *input.PriceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		product.PriceCents = *input.PriceCents
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		product.Stock = *input.Stock
	}
	if input.ImageURLs != nil {
		product.ImageURLs = pq.StringArray(*input.ImageURLs)
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return FromModel(product), nil
}

func (s *service) Delete(ctx context.Context, storeID, productID uuid.UUID) error {
	if _, err := s.ownedProduct(ctx, storeID, productID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return FromModel(product), nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*ProductList, error) {
	rows, next, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	list := &ProductList{NextCursor: next, Products: make([]ProductDTO, 0, len(rows))}
	for i := range rows {
		list.Products = append(list.Products, *FromModel(&rows[i]))
	}
	return list, nil
}

func (s *service) ListByStore(ctx context.Context, storeID uuid.UUID) ([]ProductDTO, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	rows, err := s.repo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list store products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) ownedProduct(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.StoreID != storeID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product does not belong to store")
	}
	return product, nil
}

func validateListing(name, category string, priceCents int64, stock int) error {
	if strings.TrimSpace(name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if strings.TrimSpace(category) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	if priceCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	return nil
}
