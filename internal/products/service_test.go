package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feria-cr/feria-backend/pkg/db/models"
	pkgerrors "github.com/feria-cr/feria-backend/pkg/errors"
	"github.com/feria-cr/feria-backend/pkg/pagination"
)

type stubProductRepo struct {
	products map[uuid.UUID]*models.Product
	deleted  []uuid.UUID
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: map[uuid.UUID]*models.Product{}}
}

func (r *stubProductRepo) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	product.ID = uuid.New()
	r.products[product.ID] = product
	return product, nil
}

func (r *stubProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (r *stubProductRepo) Update(ctx context.Context, product *models.Product) error {
	r.products[product.ID] = product
	return nil
}

func (r *stubProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.products, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *stubProductRepo) List(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.Product, string, error) {
	var out []models.Product
	for _, product := range r.products {
		if !product.IsActive {
			continue
		}
		if filters.Category != nil && product.Category != *filters.Category {
			continue
		}
		out = append(out, *product)
	}
	return out, "", nil
}

func (r *stubProductRepo) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, product := range r.products {
		if product.StoreID == storeID {
			out = append(out, *product)
		}
	}
	return out, nil
}

func TestCreateValidatesInput(t *testing.T) {
	repo := newStubProductRepo()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Create(context.Background(), uuid.New(), CreateProductInput{Name: "", Category: "ceramica", PriceCents: 1000})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.Create(context.Background(), uuid.New(), CreateProductInput{Name: "taza", Category: "ceramica", PriceCents: -1})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for negative price, got %v", err)
	}

	dto, err := svc.Create(context.Background(), uuid.New(), CreateProductInput{Name: " Taza ", Category: "Cerámica", PriceCents: 4500, Stock: 3})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.Name != "Taza" || dto.Category != "cerámica" {
		t.Fatalf("input not normalized: %+v", dto)
	}
	if !dto.IsActive {
		t.Fatal("new listings start active")
	}
}

func TestUpdateEnforcesOwnership(t *testing.T) {
	repo := newStubProductRepo()
	svc, _ := NewService(repo)
	storeID := uuid.New()

	dto, err := svc.Create(context.Background(), storeID, CreateProductInput{Name: "taza", Category: "ceramica", PriceCents: 4500})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Update(context.Background(), uuid.New(), dto.ID, UpdateProductInput{})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	newPrice := int64(5200)
	updated, err := svc.Update(context.Background(), storeID, dto.ID, UpdateProductInput{PriceCents: &newPrice})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.PriceCents != 5200 {
		t.Fatalf("price not applied: %d", updated.PriceCents)
	}
}

func TestDeleteEnforcesOwnership(t *testing.T) {
	repo := newStubProductRepo()
	svc, _ := NewService(repo)
	storeID := uuid.New()

	dto, _ := svc.Create(context.Background(), storeID, CreateProductInput{Name: "taza", Category: "ceramica", PriceCents: 4500})

	if err := svc.Delete(context.Background(), uuid.New(), dto.ID); err == nil {
		t.Fatal("expected forbidden")
	}
	if err := svc.Delete(context.Background(), storeID, dto.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(repo.deleted) != 1 {
		t.Fatalf("expected 1 deletion, got %d", len(repo.deleted))
	}
}
