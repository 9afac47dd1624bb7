package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feria-cr/feria-backend/pkg/db/models"
	"github.com/feria-cr/feria-backend/pkg/enums"
	pkgerrors "github.com/feria-cr/feria-backend/pkg/errors"
	"github.com/feria-cr/feria-backend/pkg/outbox"
	"github.com/feria-cr/feria-backend/pkg/types"
)

// ReconcileResult reports the outcome of a parent reconciliation pass.
type ReconcileResult struct {
	BuyerOrderID uuid.UUID
	Status       enums.BuyerOrderStatus
	Changed      bool
}

// UpdateSubOrderStatus applies a seller's status change to one sub-order,
// appends the audit history entry, and stamps first-time milestones. The
// parent order is reconciled afterwards in a separate transaction: the
// sub-order write commits on its own, and a reconciliation failure is logged
// without failing the update.
func (s *service) UpdateSubOrderStatus(ctx context.Context, input UpdateStatusInput) (*UpdateStatusResult, error) {
	if input.VendorOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor order id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown status %q", input.Status)).
			WithDetails(map[string]any{"status": input.Status})
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var result *UpdateStatusResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindVendorOrder(ctx, input.VendorOrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "vendor order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor order")
		}

		if input.ActorRole != enums.UserRoleAdmin.String() && input.ActorStoreID != order.VendorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to store")
		}

		from := order.Status

		// Every update appends a history entry, even when the status does not
		// move; milestones are first-write-wins so repeats never overwrite.
		now := s.now()
		updates := s.statusUpdates(order, input, now)
		if err := repo.UpdateVendorOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update vendor order")
		}
		applyStatusUpdates(order, updates)

		if from != input.Status {
			event := outbox.DomainEvent{
				EventType:     enums.EventSubOrderStatusChanged,
				AggregateType: enums.AggregateVendorOrder,
				AggregateID:   order.ID,
				Version:       1,
				Actor:         buildActor(input.ActorUserID, &order.VendorID, input.ActorRole),
				Data: SubOrderStatusChangedEvent{
					VendorOrderID: order.ID,
					BuyerOrderID:  order.BuyerOrderID,
					VendorID:      order.VendorID,
					From:          from,
					To:            input.Status,
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return err
			}
			s.metrics.IncStatusTransition(input.Status.String())
		}

		result = &UpdateStatusResult{VendorOrder: order}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Best-effort: the sub-order change above is already committed, so a
	// failed parent write must not surface as a failed update.
	recErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		status, changed, err := s.reconcileParentTx(ctx, tx, result.VendorOrder.BuyerOrderID, input.ActorUserID, input.ActorRole)
		if err != nil {
			return err
		}
		result.ParentStatus = status
		result.ParentChanged = changed
		return nil
	})
	if recErr != nil && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"vendor_order_id": result.VendorOrder.ID.String(),
			"buyer_order_id":  result.VendorOrder.BuyerOrderID.String(),
		})
		s.logg.Error(logCtx, "parent reconciliation failed", recErr)
	}
	return result, nil
}

// ReconcileParent recomputes the parent's derived status from its sub-orders.
// It is safe to call at any time; nothing is written unless the status moved.
func (s *service) ReconcileParent(ctx context.Context, buyerOrderID uuid.UUID) (*ReconcileResult, error) {
	if buyerOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer order id required")
	}

	var result *ReconcileResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		status, changed, err := s.reconcileParentTx(ctx, tx, buyerOrderID, uuid.Nil, "")
		if err != nil {
			return err
		}
		result = &ReconcileResult{BuyerOrderID: buyerOrderID, Status: status, Changed: changed}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) reconcileParentTx(ctx context.Context, tx *gorm.DB, buyerOrderID uuid.UUID, actorID uuid.UUID, actorRole string) (enums.BuyerOrderStatus, bool, error) {
	repo := s.repo.WithTx(tx)

	parent, err := repo.FindBuyerOrder(ctx, buyerOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, pkgerrors.New(pkgerrors.CodeNotFound, "buyer order not found")
		}
		return "", false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer order")
	}

	subOrders, err := repo.FindVendorOrdersByParent(ctx, buyerOrderID)
	if err != nil {
		return "", false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sub-orders")
	}

	derived := deriveParentStatus(parent.Status, subOrders)
	if derived == parent.Status {
		return derived, false, nil
	}

	if err := repo.UpdateBuyerOrder(ctx, parent.ID, map[string]any{"status": derived}); err != nil {
		return "", false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update buyer order status")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventParentStatusChanged,
		AggregateType: enums.AggregateBuyerOrder,
		AggregateID:   parent.ID,
		Version:       1,
		Actor:         buildActor(actorID, nil, actorRole),
		Data: ParentStatusChangedEvent{
			BuyerOrderID: parent.ID,
			From:         parent.Status,
			To:           derived,
		},
	}
	if derived == enums.BuyerOrderStatusDelivered {
		event.EventType = enums.EventOrderDelivered
	}
	if derived == enums.BuyerOrderStatusCancelled {
		event.EventType = enums.EventOrderCancelled
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return "", false, err
	}
	s.metrics.IncParentReconciled()

	return derived, true, nil
}

// statusUpdates builds the column updates for a transition: new status, the
// appended history entry, first-time milestone stamps, and the derived
// durations once their anchor milestones exist.
func (s *service) statusUpdates(order *models.VendorOrder, input UpdateStatusInput, now time.Time) map[string]any {
	note := input.Note
	if note == "" {
		note = fmt.Sprintf("changed from %s to %s", order.Status, input.Status)
	}
	history := append(order.History, types.StatusChange{
		Status:    input.Status.String(),
		Note:      note,
		ChangedBy: input.ActorUserID.String(),
		ChangedAt: now,
	})

	updates := map[string]any{
		"status":  input.Status,
		"history": history,
	}
	if input.TrackingNumber != "" {
		updates["tracking_number"] = input.TrackingNumber
	}
	if input.Note != "" {
		updates["vendor_notes"] = input.Note
	}

	confirmedAt := order.ConfirmedAt
	shippedAt := order.ShippedAt

	switch input.Status {
	case enums.VendorOrderStatusConfirmed:
		if order.ConfirmedAt == nil {
			updates["confirmed_at"] = now
			confirmedAt = &now
		}
	case enums.VendorOrderStatusProcessing:
		if order.ProcessedAt == nil {
			updates["processed_at"] = now
		}
	case enums.VendorOrderStatusShipped:
		if order.ShippedAt == nil {
			updates["shipped_at"] = now
			shippedAt = &now
		}
	case enums.VendorOrderStatusDelivered:
		if order.DeliveredAt == nil {
			updates["delivered_at"] = now
		}
	case enums.VendorOrderStatusCancelled:
		if order.CancelledAt == nil {
			updates["cancelled_at"] = now
		}
	}

	if input.Status == enums.VendorOrderStatusShipped && order.ProcessingTimeMinutes == nil && confirmedAt != nil && shippedAt != nil {
		minutes := int64(shippedAt.Sub(*confirmedAt).Minutes())
		updates["processing_time_minutes"] = minutes
	}
	if input.Status == enums.VendorOrderStatusDelivered && order.DeliveryTimeDays == nil && shippedAt != nil {
		days := int64(now.Sub(*shippedAt).Hours() / 24)
		updates["delivery_time_days"] = days
	}

	return updates
}

// applyStatusUpdates mirrors the persisted updates onto the in-memory order
// so callers see the post-transition state without a reload.
func applyStatusUpdates(order *models.VendorOrder, updates map[string]any) {
	if v, ok := updates["status"].(enums.VendorOrderStatus); ok {
		order.Status = v
	}
	if v, ok := updates["history"].(types.StatusHistory); ok {
		order.History = v
	}
	if v, ok := updates["tracking_number"].(string); ok {
		order.TrackingNumber = &v
	}
	if v, ok := updates["vendor_notes"].(string); ok {
		order.VendorNotes = &v
	}
	if v, ok := updates["confirmed_at"].(time.Time); ok {
		order.ConfirmedAt = &v
	}
	if v, ok := updates["processed_at"].(time.Time); ok {
		order.ProcessedAt = &v
	}
	if v, ok := updates["shipped_at"].(time.Time); ok {
		order.ShippedAt = &v
	}
	if v, ok := updates["delivered_at"].(time.Time); ok {
		order.DeliveredAt = &v
	}
	if v, ok := updates["cancelled_at"].(time.Time); ok {
		order.CancelledAt = &v
	}
	if v, ok := updates["processing_time_minutes"].(int64); ok {
		order.ProcessingTimeMinutes = &v
	}
	if v, ok := updates["delivery_time_days"].(int64); ok {
		order.DeliveryTimeDays = &v
	}
}
