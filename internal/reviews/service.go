package reviews

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feria-cr/feria-backend/pkg/db/models"
	"github.com/feria-cr/feria-backend/pkg/enums"
	pkgerrors "github.com/feria-cr/feria-backend/pkg/errors"
	"github.com/feria-cr/feria-backend/pkg/outbox"
)

// ReviewInput is a buyer's rating submission.
type ReviewInput struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment,omitempty"`
}

type reviewsRepository interface {
	UpsertProductReview(ctx context.Context, review *models.ProductReview) error
	UpsertStoreReview(ctx context.Context, review *models.StoreReview) error
	ListProductReviews(ctx context.Context, productID uuid.UUID) ([]models.ProductReview, error)
	ListStoreReviews(ctx context.Context, storeID uuid.UUID) ([]models.StoreReview, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes review operations.
type Service interface {
	SubmitProductReview(ctx context.Context, buyerID, productID uuid.UUID, input ReviewInput) (*models.ProductReview, error)
	SubmitStoreReview(ctx context.Context, buyerID, storeID uuid.UUID, input ReviewInput) (*models.StoreReview, error)
	ListProductReviews(ctx context.Context, productID uuid.UUID) ([]models.ProductReview, error)
	ListStoreReviews(ctx context.Context, storeID uuid.UUID) ([]models.StoreReview, error)
}

type service struct {
	repo   reviewsRepository
	tx     txRunner
	outbox outboxEmitter
}

// NewService builds a reviews service with the provided dependencies.
func NewService(repo reviewsRepository, tx txRunner, outboxSvc outboxEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc}, nil
}

func (s *service) SubmitProductReview(ctx context.Context, buyerID, productID uuid.UUID, input ReviewInput) (*models.ProductReview, error) {
	if err := validateReview(buyerID, productID, input); err != nil {
		return nil, err
	}

	review := &models.ProductReview{
		ProductID: productID,
		BuyerID:   buyerID,
		Rating:    input.Rating,
		Comment:   normalizeComment(input.Comment),
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.UpsertProductReview(ctx, review); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store review")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReviewSubmitted,
			AggregateType: enums.AggregateReview,
			AggregateID:   review.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: buyerID, Role: enums.UserRoleBuyer.String()},
			Data:          map[string]any{"product_id": productID, "rating": input.Rating},
		})
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (s *service) SubmitStoreReview(ctx context.Context, buyerID, storeID uuid.UUID, input ReviewInput) (*models.StoreReview, error) {
	if err := validateReview(buyerID, storeID, input); err != nil {
		return nil, err
	}

	review := &models.StoreReview{
		StoreID: storeID,
		BuyerID: buyerID,
		Rating:  input.Rating,
		Comment: normalizeComment(input.Comment),
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.UpsertStoreReview(ctx, review); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store review")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReviewSubmitted,
			AggregateType: enums.AggregateReview,
			AggregateID:   review.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: buyerID, Role: enums.UserRoleBuyer.String()},
			Data:          map[string]any{"store_id": storeID, "rating": input.Rating},
		})
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (s *service) ListProductReviews(ctx context.Context, productID uuid.UUID) ([]models.ProductReview, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	reviews, err := s.repo.ListProductReviews(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return reviews, nil
}

func (s *service) ListStoreReviews(ctx context.Context, storeID uuid.UUID) ([]models.StoreReview, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	reviews, err := s.repo.ListStoreReviews(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return reviews, nil
}

func validateReview(buyerID, targetID uuid.UUID, input ReviewInput) error {
	if buyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if targetID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "target id required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	return nil
}

func normalizeComment(comment *string) *string {
	if comment == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*comment)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
