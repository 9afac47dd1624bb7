package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feria-cr/feria-backend/pkg/config"
	"github.com/feria-cr/feria-backend/pkg/enums"
	pkgerrors "github.com/feria-cr/feria-backend/pkg/errors"
	"github.com/feria-cr/feria-backend/pkg/logger"
	"github.com/feria-cr/feria-backend/pkg/metrics"
	"github.com/feria-cr/feria-backend/pkg/outbox"
	"github.com/feria-cr/feria-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines the order fan-out and reconciliation operations.
type Service interface {
	FanOut(ctx context.Context, input FanOutInput) (*FanOutResult, error)
	UpdateSubOrderStatus(ctx context.Context, input UpdateStatusInput) (*UpdateStatusResult, error)
	ReconcileParent(ctx context.Context, buyerOrderID uuid.UUID) (*ReconcileResult, error)

	GetBuyerOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*BuyerOrderDetail, error)
	ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters BuyerOrderFilters) (*BuyerOrderList, error)
	GetVendorOrder(ctx context.Context, vendorID, orderID uuid.UUID) (*VendorOrderDetail, error)
	ListVendorOrders(ctx context.Context, vendorID uuid.UUID, params pagination.Params, filters VendorOrderFilters) (*VendorOrderList, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	cfg     config.OrdersConfig
	metrics *metrics.OrderMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, cfg config.OrdersConfig, m *metrics.OrderMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		outbox:  outboxSvc,
		cfg:     cfg,
		metrics: m,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// FanOut splits a parent order into one sub-order per vendor. Each vendor
// group is materialized in its own transaction so one failing vendor never
// blocks the rest; failed groups are reported back and the operation can be
// re-run safely because existing (parent, vendor) pairs are skipped.
func (s *service) FanOut(ctx context.Context, input FanOutInput) (*FanOutResult, error) {
	if input.BuyerOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer order id required")
	}

	parent, err := s.repo.FindBuyerOrder(ctx, input.BuyerOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "buyer order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer order")
	}

	groups, unassigned := groupItemsByVendor(parent.Items)
	result := &FanOutResult{
		BuyerOrderID:    parent.ID,
		UnassignedItems: unassigned,
		ParentStatus:    parent.Status,
	}
	if len(groups) == 0 {
		return result, nil
	}

	goodsSubtotal := int64(0)
	for _, group := range groups {
		goodsSubtotal += group.subtotal
	}

	for _, group := range sortedGroups(groups) {
		existing, err := s.repo.FindVendorOrderByParentAndVendor(ctx, parent.ID, group.vendorID)
		if err == nil {
			result.Existing = append(result.Existing, *existing)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			result.Failures = append(result.Failures, VendorFailure{VendorID: group.vendorID, Reason: err.Error()})
			s.metrics.IncFanOutFailure()
			continue
		}

		created, err := s.materializeVendorOrder(ctx, parent, group, goodsSubtotal, len(groups), input)
		if err != nil {
			result.Failures = append(result.Failures, VendorFailure{VendorID: group.vendorID, Reason: err.Error()})
			s.metrics.IncFanOutFailure()
			if s.logg != nil {
				logCtx := s.logg.WithFields(ctx, map[string]any{
					"buyer_order_id": parent.ID.String(),
					"vendor_id":      group.vendorID.String(),
				})
				s.logg.Error(logCtx, "vendor order creation failed", err)
			}
			continue
		}
		result.Created = append(result.Created, *created)
		s.metrics.IncSubOrderCreated(created.Priority.String())
	}

	// The parent row is never written here; the outbox event is the record
	// that fan-out completed.
	if len(result.Created) > 0 {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderFannedOut,
				AggregateType: enums.AggregateBuyerOrder,
				AggregateID:   parent.ID,
				Version:       1,
				Actor:         buildActor(input.ActorUserID, nil, input.ActorRole),
				Data: FanOutCompletedEvent{
					BuyerOrderID:    parent.ID,
					CreatedCount:    len(result.Created),
					ExistingCount:   len(result.Existing),
					FailureCount:    len(result.Failures),
					UnassignedItems: unassigned,
				},
			})
		})
		if err != nil {
			return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finalize fan-out")
		}
	}

	return result, nil
}

func buildActor(userID uuid.UUID, storeID *uuid.UUID, role string) *outbox.ActorRef {
	if userID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: userID, StoreID: storeID, Role: role}
}
