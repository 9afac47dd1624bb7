package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feria-cr/feria-backend/pkg/db/models"
	pkgerrors "github.com/feria-cr/feria-backend/pkg/errors"
)

type stubCartRepo struct {
	carts    map[uuid.UUID]*models.CartRecord
	products map[uuid.UUID]models.Product
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{
		carts:    map[uuid.UUID]*models.CartRecord{},
		products: map[uuid.UUID]models.Product{},
	}
}

func (r *stubCartRepo) FindByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error) {
	cart, ok := r.carts[buyerID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cart, nil
}

func (r *stubCartRepo) FindOrCreateByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error) {
	if cart, ok := r.carts[buyerID]; ok {
		return cart, nil
	}
	cart := &models.CartRecord{ID: uuid.New(), BuyerID: buyerID}
	r.carts[buyerID] = cart
	return cart, nil
}

func (r *stubCartRepo) ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error {
	for _, cart := range r.carts {
		if cart.ID == cartID {
			cart.Items = items
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubCartRepo) Clear(ctx context.Context, cartID uuid.UUID) error {
	for _, cart := range r.carts {
		if cart.ID == cartID {
			cart.Items = nil
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubCartRepo) FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func seedProduct(repo *stubCartRepo, priceCents int64, active bool) uuid.UUID {
	id := uuid.New()
	repo.products[id] = models.Product{
		ID:         id,
		StoreID:    uuid.New(),
		Name:       "producto",
		PriceCents: priceCents,
		IsActive:   active,
	}
	return id
}

func TestReplaceQuotesCart(t *testing.T) {
	repo := newStubCartRepo()
	productA := seedProduct(repo, 2500, true)
	productB := seedProduct(repo, 1000, true)
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	buyerID := uuid.New()
	dto, err := svc.Replace(context.Background(), buyerID, []ItemInput{
		{ProductID: productA, Quantity: 2},
		{ProductID: productB, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}

	if len(dto.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(dto.Lines))
	}
	if dto.SubtotalCents != 6000 {
		t.Fatalf("subtotal = %d, want 6000", dto.SubtotalCents)
	}
	if dto.ItemCount != 3 {
		t.Fatalf("item count = %d, want 3", dto.ItemCount)
	}
}

func TestReplaceMergesDuplicateLines(t *testing.T) {
	repo := newStubCartRepo()
	product := seedProduct(repo, 1000, true)
	svc, _ := NewService(repo)

	dto, err := svc.Replace(context.Background(), uuid.New(), []ItemInput{
		{ProductID: product, Quantity: 1},
		{ProductID: product, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(dto.Lines) != 1 || dto.Lines[0].Quantity != 3 {
		t.Fatalf("duplicate lines must merge: %+v", dto.Lines)
	}
}

func TestReplaceRejectsInactiveProduct(t *testing.T) {
	repo := newStubCartRepo()
	inactive := seedProduct(repo, 1000, false)
	svc, _ := NewService(repo)

	_, err := svc.Replace(context.Background(), uuid.New(), []ItemInput{{ProductID: inactive, Quantity: 1}})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.Replace(context.Background(), uuid.New(), []ItemInput{{ProductID: uuid.New(), Quantity: 1}})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown product, got %v", err)
	}
}

func TestClearMissingCartIsNoOp(t *testing.T) {
	repo := newStubCartRepo()
	svc, _ := NewService(repo)

	if err := svc.Clear(context.Background(), uuid.New()); err != nil {
		t.Fatalf("clear: %v", err)
	}
}
