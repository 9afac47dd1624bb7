package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feria-cr/feria-backend/pkg/db/models"
	pkgerrors "github.com/feria-cr/feria-backend/pkg/errors"
)

type cartRepository interface {
	FindByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error)
	FindOrCreateByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error)
	ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error
	Clear(ctx context.Context, cartID uuid.UUID) error
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// ItemInput is one requested cart line.
type ItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// LineDTO is one quoted cart line.
type LineDTO struct {
	ProductID  uuid.UUID `json:"product_id"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	Quantity   int       `json:"quantity"`
	TotalCents int64     `json:"total_cents"`
	StoreID    uuid.UUID `json:"store_id"`
}

// CartDTO is the buyer's quoted cart.
type CartDTO struct {
	ID            uuid.UUID `json:"id"`
	Lines         []LineDTO `json:"lines"`
	SubtotalCents int64     `json:"subtotal_cents"`
	ItemCount     int       `json:"item_count"`
}

// Service exposes cart operations.
type Service interface {
	Get(ctx context.Context, buyerID uuid.UUID) (*CartDTO, error)
	Replace(ctx context.Context, buyerID uuid.UUID, items []ItemInput) (*CartDTO, error)
	Clear(ctx context.Context, buyerID uuid.UUID) error
}

type service struct {
	repo cartRepository
}

// NewService builds a cart service with the provided repository.
func NewService(repo cartRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, buyerID uuid.UUID) (*CartDTO, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	cart, err := s.repo.FindOrCreateByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return s.quote(ctx, cart)
}

func (s *service) Replace(ctx context.Context, buyerID uuid.UUID, items []ItemInput) (*CartDTO, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}

	merged, err := mergeLines(items)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(merged))
	for _, item := range merged {
		ids = append(ids, item.ProductID)
	}
	products, err := s.repo.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	known := map[uuid.UUID]models.Product{}
	for _, p := range products {
		known[p.ID] = p
	}
	for _, item := range merged {
		product, ok := known[item.ProductID]
		if !ok || !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product unavailable").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
	}

	cart, err := s.repo.FindOrCreateByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	lines := make([]models.CartItem, 0, len(merged))
	for _, item := range merged {
		lines = append(lines, models.CartItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	if err := s.repo.ReplaceItems(ctx, cart.ID, lines); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace cart items")
	}

	cart.Items = lines
	return s.quote(ctx, cart)
}

func (s *service) Clear(ctx context.Context, buyerID uuid.UUID) error {
	if buyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	cart, err := s.repo.FindByBuyer(ctx, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := s.repo.Clear(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// quote joins cart lines with current catalog prices. Lines whose product
// disappeared or went inactive are dropped from the quote.
func (s *service) quote(ctx context.Context, cart *models.CartRecord) (*CartDTO, error) {
	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.repo.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	known := map[uuid.UUID]models.Product{}
	for _, p := range products {
		known[p.ID] = p
	}

	dto := &CartDTO{ID: cart.ID, Lines: []LineDTO{}}
	for _, item := range cart.Items {
		product, ok := known[item.ProductID]
		if !ok || !product.IsActive {
			continue
		}
		line := LineDTO{
			ProductID:  product.ID,
			Name:       product.Name,
			PriceCents: product.PriceCents,
			Quantity:   item.Quantity,
			TotalCents: product.PriceCents * int64(item.Quantity),
			StoreID:    product.StoreID,
		}
		dto.Lines = append(dto.Lines, line)
		dto.SubtotalCents += line.TotalCents
		dto.ItemCount += item.Quantity
	}
	return dto, nil
}

// mergeLines collapses duplicate product lines and validates quantities.
func mergeLines(items []ItemInput) ([]ItemInput, error) {
	seen := map[uuid.UUID]int{}
	order := []uuid.UUID{}
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		if _, ok := seen[item.ProductID]; !ok {
			order = append(order, item.ProductID)
		}
		seen[item.ProductID] += item.Quantity
	}

	merged := make([]ItemInput, 0, len(order))
	for _, id := range order {
		merged = append(merged, ItemInput{ProductID: id, Quantity: seen[id]})
	}
	return merged, nil
}
