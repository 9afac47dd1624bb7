package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feria-cr/feria-backend/pkg/db/models"
	"github.com/feria-cr/feria-backend/pkg/enums"
	pkgerrors "github.com/feria-cr/feria-backend/pkg/errors"
	"github.com/feria-cr/feria-backend/pkg/types"
)

func seedFamily(repo *stubRepo, statuses ...enums.VendorOrderStatus) (*models.BuyerOrder, []*models.VendorOrder) {
	parent := &models.BuyerOrder{
		ID:      uuid.New(),
		Code:    "FER-2001",
		BuyerID: uuid.New(),
		Status:  enums.BuyerOrderStatusPending,
	}
	repo.parents[parent.ID] = parent

	var subs []*models.VendorOrder
	for _, status := range statuses {
		sub := &models.VendorOrder{
			ID:           uuid.New(),
			BuyerOrderID: parent.ID,
			VendorID:     uuid.New(),
			BuyerID:      parent.BuyerID,
			Status:       status,
			History: types.StatusHistory{{
				Status: enums.VendorOrderStatusPending.String(),
				Note:   "sub-order created",
			}},
		}
		repo.vendorOrders[sub.ID] = sub
		subs = append(subs, sub)
	}
	return parent, subs
}

func TestUpdateSubOrderStatusAppendsHistoryAndStampsMilestones(t *testing.T) {
	repo := newStubRepo()
	_, subs := seedFamily(repo, enums.VendorOrderStatusPending)
	sub := subs[0]
	svc, ob := newTestService(t, repo)

	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	actor := uuid.New()
	res, err := svc.UpdateSubOrderStatus(context.Background(), UpdateStatusInput{
		VendorOrderID: sub.ID,
		Status:        enums.VendorOrderStatusConfirmed,
		Note:          "stock verificado",
		ActorUserID:   actor,
		ActorStoreID:  sub.VendorID,
		ActorRole:     enums.UserRoleSeller.String(),
	})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}

	if res.VendorOrder.Status != enums.VendorOrderStatusConfirmed {
		t.Fatalf("status not applied: %s", res.VendorOrder.Status)
	}
	if sub.ConfirmedAt == nil || !sub.ConfirmedAt.Equal(base) {
		t.Fatalf("confirmed_at not stamped: %v", sub.ConfirmedAt)
	}
	if len(sub.History) != 2 {
		t.Fatalf("history must be appended, got %d entries", len(sub.History))
	}
	last := sub.History[len(sub.History)-1]
	if last.Note != "stock verificado" {
		t.Fatalf("supplied note must be stored verbatim, got %q", last.Note)
	}
	if sub.VendorNotes == nil || *sub.VendorNotes != "stock verificado" {
		t.Fatalf("vendor notes not mirrored: %v", sub.VendorNotes)
	}
	if last.ChangedBy != actor.String() {
		t.Fatalf("history must record the actor, got %q", last.ChangedBy)
	}

	var statusEvents int
	for _, event := range ob.events {
		if event.EventType == enums.EventSubOrderStatusChanged {
			statusEvents++
		}
	}
	if statusEvents != 1 {
		t.Fatalf("expected 1 status event, got %d", statusEvents)
	}
}

func TestUpdateSubOrderStatusDefaultsHistoryNote(t *testing.T) {
	repo := newStubRepo()
	_, subs := seedFamily(repo, enums.VendorOrderStatusPending)
	sub := subs[0]
	svc, _ := newTestService(t, repo)

	_, err := svc.UpdateSubOrderStatus(context.Background(), UpdateStatusInput{
		VendorOrderID: sub.ID,
		Status:        enums.VendorOrderStatusConfirmed,
		ActorUserID:   uuid.New(),
		ActorStoreID:  sub.VendorID,
		ActorRole:     enums.UserRoleSeller.String(),
	})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	last := sub.History[len(sub.History)-1]
	if last.Note != "changed from pending to confirmed" {
		t.Fatalf("expected the generated note, got %q", last.Note)
	}
	if sub.VendorNotes != nil {
		t.Fatalf("vendor notes must stay empty without an operator note, got %q", *sub.VendorNotes)
	}
}

func TestUpdateSubOrderStatusMilestonesAreFirstWriteWins(t *testing.T) {
	repo := newStubRepo()
	_, subs := seedFamily(repo, enums.VendorOrderStatusPending)
	sub := subs[0]
	svc, _ := newTestService(t, repo)

	first := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }

	input := UpdateStatusInput{
		VendorOrderID: sub.ID,
		ActorUserID:   uuid.New(),
		ActorStoreID:  sub.VendorID,
		ActorRole:     enums.UserRoleSeller.String(),
	}

	input.Status = enums.VendorOrderStatusConfirmed
	if _, err := svc.UpdateSubOrderStatus(context.Background(), input); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	// Bounce away and back; the original stamp must survive.
	svc.now = func() time.Time { return first.Add(2 * time.Hour) }
	input.Status = enums.VendorOrderStatusDelayed
	if _, err := svc.UpdateSubOrderStatus(context.Background(), input); err != nil {
		t.Fatalf("delay: %v", err)
	}
	input.Status = enums.VendorOrderStatusConfirmed
	if _, err := svc.UpdateSubOrderStatus(context.Background(), input); err != nil {
		t.Fatalf("re-confirm: %v", err)
	}

	if !sub.ConfirmedAt.Equal(first) {
		t.Fatalf("confirmed_at must keep the first stamp, got %v", sub.ConfirmedAt)
	}
}

func TestUpdateSubOrderStatusStampsProcessedMilestone(t *testing.T) {
	repo := newStubRepo()
	_, subs := seedFamily(repo, enums.VendorOrderStatusConfirmed)
	sub := subs[0]
	svc, _ := newTestService(t, repo)

	first := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }

	input := UpdateStatusInput{
		VendorOrderID: sub.ID,
		ActorUserID:   uuid.New(),
		ActorStoreID:  sub.VendorID,
		ActorRole:     enums.UserRoleSeller.String(),
	}

	input.Status = enums.VendorOrderStatusProcessing
	if _, err := svc.UpdateSubOrderStatus(context.Background(), input); err != nil {
		t.Fatalf("process: %v", err)
	}
	if sub.ProcessedAt == nil || !sub.ProcessedAt.Equal(first) {
		t.Fatalf("processed_at not stamped: %v", sub.ProcessedAt)
	}

	// A second pass through processing keeps the original stamp.
	svc.now = func() time.Time { return first.Add(time.Hour) }
	input.Status = enums.VendorOrderStatusDelayed
	if _, err := svc.UpdateSubOrderStatus(context.Background(), input); err != nil {
		t.Fatalf("delay: %v", err)
	}
	input.Status = enums.VendorOrderStatusProcessing
	if _, err := svc.UpdateSubOrderStatus(context.Background(), input); err != nil {
		t.Fatalf("re-process: %v", err)
	}
	if !sub.ProcessedAt.Equal(first) {
		t.Fatalf("processed_at must keep the first stamp, got %v", sub.ProcessedAt)
	}
}

func TestUpdateSubOrderStatusComputesDurations(t *testing.T) {
	repo := newStubRepo()
	_, subs := seedFamily(repo, enums.VendorOrderStatusPending)
	sub := subs[0]
	svc, _ := newTestService(t, repo)

	confirmed := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	input := UpdateStatusInput{
		VendorOrderID: sub.ID,
		ActorUserID:   uuid.New(),
		ActorStoreID:  sub.VendorID,
		ActorRole:     enums.UserRoleSeller.String(),
	}

	svc.now = func() time.Time { return confirmed }
	input.Status = enums.VendorOrderStatusConfirmed
	if _, err := svc.UpdateSubOrderStatus(context.Background(), input); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	svc.now = func() time.Time { return confirmed.Add(90 * time.Minute) }
	input.Status = enums.VendorOrderStatusShipped
	if _, err := svc.UpdateSubOrderStatus(context.Background(), input); err != nil {
		t.Fatalf("ship: %v", err)
	}
	if sub.ProcessingTimeMinutes == nil || *sub.ProcessingTimeMinutes != 90 {
		t.Fatalf("processing_time_minutes: got %v", sub.ProcessingTimeMinutes)
	}

	svc.now = func() time.Time { return confirmed.Add(90*time.Minute + 72*time.Hour) }
	input.Status = enums.VendorOrderStatusDelivered
	if _, err := svc.UpdateSubOrderStatus(context.Background(), input); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if sub.DeliveryTimeDays == nil || *sub.DeliveryTimeDays != 3 {
		t.Fatalf("delivery_time_days: got %v", sub.DeliveryTimeDays)
	}
}

func TestUpdateSubOrderStatusRecordsTrackingNumber(t *testing.T) {
	repo := newStubRepo()
	_, subs := seedFamily(repo, enums.VendorOrderStatusConfirmed)
	sub := subs[0]
	svc, _ := newTestService(t, repo)

	_, err := svc.UpdateSubOrderStatus(context.Background(), UpdateStatusInput{
		VendorOrderID:  sub.ID,
		Status:         enums.VendorOrderStatusShipped,
		TrackingNumber: "CR-778812",
		ActorUserID:    uuid.New(),
		ActorStoreID:   sub.VendorID,
		ActorRole:      enums.UserRoleSeller.String(),
	})
	if err != nil {
		t.Fatalf("ship with tracking: %v", err)
	}
	if sub.TrackingNumber == nil || *sub.TrackingNumber != "CR-778812" {
		t.Fatalf("tracking number not stored: %v", sub.TrackingNumber)
	}
}

func TestUpdateSubOrderStatusSameStatusAppendsHistory(t *testing.T) {
	repo := newStubRepo()
	_, subs := seedFamily(repo, enums.VendorOrderStatusConfirmed)
	sub := subs[0]
	stamped := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	sub.ConfirmedAt = &stamped
	svc, ob := newTestService(t, repo)

	_, err := svc.UpdateSubOrderStatus(context.Background(), UpdateStatusInput{
		VendorOrderID: sub.ID,
		Status:        enums.VendorOrderStatusConfirmed,
		Note:          "reconfirmado con el comprador",
		ActorUserID:   uuid.New(),
		ActorStoreID:  sub.VendorID,
		ActorRole:     enums.UserRoleSeller.String(),
	})
	if err != nil {
		t.Fatalf("same-status update: %v", err)
	}
	if len(sub.History) != 2 {
		t.Fatalf("every update must append history, got %d entries", len(sub.History))
	}
	if sub.History[1].Note != "reconfirmado con el comprador" {
		t.Fatalf("unexpected history note: %q", sub.History[1].Note)
	}
	if !sub.ConfirmedAt.Equal(stamped) {
		t.Fatalf("milestone must keep its first stamp, got %v", sub.ConfirmedAt)
	}
	for _, event := range ob.events {
		if event.EventType == enums.EventSubOrderStatusChanged {
			t.Fatal("no transition happened, no status event expected")
		}
	}
}

type reconcileFailRepo struct {
	*stubRepo
}

func (r *reconcileFailRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *reconcileFailRepo) UpdateBuyerOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return fmt.Errorf("parent row unavailable")
}

func TestUpdateSubOrderStatusSurvivesReconcileFailure(t *testing.T) {
	repo := newStubRepo()
	parent, subs := seedFamily(repo, enums.VendorOrderStatusPending)
	sub := subs[0]
	ob := &stubOutbox{}
	svc, err := NewService(&reconcileFailRepo{stubRepo: repo}, stubTx{}, ob, testOrdersConfig(), nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	res, err := svc.UpdateSubOrderStatus(context.Background(), UpdateStatusInput{
		VendorOrderID: sub.ID,
		Status:        enums.VendorOrderStatusConfirmed,
		ActorUserID:   uuid.New(),
		ActorStoreID:  sub.VendorID,
		ActorRole:     enums.UserRoleSeller.String(),
	})
	if err != nil {
		t.Fatalf("a failed parent write must not fail the update: %v", err)
	}
	if sub.Status != enums.VendorOrderStatusConfirmed {
		t.Fatalf("sub-order status must still apply, got %s", sub.Status)
	}
	if res.ParentChanged {
		t.Fatal("parent change must not be reported when its write failed")
	}
	if parent.Status != enums.BuyerOrderStatusPending {
		t.Fatalf("parent must be untouched, got %s", parent.Status)
	}
}

func TestUpdateSubOrderStatusEnforcesStoreOwnership(t *testing.T) {
	repo := newStubRepo()
	_, subs := seedFamily(repo, enums.VendorOrderStatusPending)
	sub := subs[0]
	svc, _ := newTestService(t, repo)

	_, err := svc.UpdateSubOrderStatus(context.Background(), UpdateStatusInput{
		VendorOrderID: sub.ID,
		Status:        enums.VendorOrderStatusConfirmed,
		ActorUserID:   uuid.New(),
		ActorStoreID:  uuid.New(),
		ActorRole:     enums.UserRoleSeller.String(),
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	// Admins may act on any store's order.
	_, err = svc.UpdateSubOrderStatus(context.Background(), UpdateStatusInput{
		VendorOrderID: sub.ID,
		Status:        enums.VendorOrderStatusConfirmed,
		ActorUserID:   uuid.New(),
		ActorRole:     enums.UserRoleAdmin.String(),
	})
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
}

func TestUpdateSubOrderStatusRejectsUnknownStatus(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestService(t, repo)

	_, err := svc.UpdateSubOrderStatus(context.Background(), UpdateStatusInput{
		VendorOrderID: uuid.New(),
		Status:        enums.VendorOrderStatus("misplaced"),
		ActorUserID:   uuid.New(),
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParentFollowsWeakestSubOrder(t *testing.T) {
	repo := newStubRepo()
	parent, subs := seedFamily(repo, enums.VendorOrderStatusShipped, enums.VendorOrderStatusPending)
	svc, _ := newTestService(t, repo)

	// One vendor shipped, the other still pending: parent stays pending.
	res, err := svc.ReconcileParent(context.Background(), parent.ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.Changed {
		t.Fatal("parent already matches the weakest sub-order")
	}
	if res.Status != enums.BuyerOrderStatusPending {
		t.Fatalf("expected pending, got %s", res.Status)
	}

	// The laggard confirms: parent advances to confirmed.
	subs[1].Status = enums.VendorOrderStatusConfirmed
	res, err = svc.ReconcileParent(context.Background(), parent.ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !res.Changed || res.Status != enums.BuyerOrderStatusConfirmed {
		t.Fatalf("expected confirmed change, got %+v", res)
	}
	if parent.Status != enums.BuyerOrderStatusConfirmed {
		t.Fatalf("parent row not updated: %s", parent.Status)
	}
}

func TestParentReconciliationEmitsTerminalEvents(t *testing.T) {
	repo := newStubRepo()
	parent, subs := seedFamily(repo, enums.VendorOrderStatusDelivered, enums.VendorOrderStatusDelivered)
	parent.Status = enums.BuyerOrderStatusShipped
	svc, ob := newTestService(t, repo)

	res, err := svc.ReconcileParent(context.Background(), parent.ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !res.Changed || res.Status != enums.BuyerOrderStatusDelivered {
		t.Fatalf("expected delivered, got %+v", res)
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventOrderDelivered {
		t.Fatalf("expected delivered event, got %+v", ob.events)
	}

	// A cancelled sub-order pins the whole family.
	subs[0].Status = enums.VendorOrderStatusCancelled
	res, err = svc.ReconcileParent(context.Background(), parent.ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.Status != enums.BuyerOrderStatusCancelled {
		t.Fatalf("cancelled must win, got %s", res.Status)
	}
	if ob.events[len(ob.events)-1].EventType != enums.EventOrderCancelled {
		t.Fatalf("expected cancelled event, got %s", ob.events[len(ob.events)-1].EventType)
	}
}

func TestParentWithoutSubOrdersKeepsStatus(t *testing.T) {
	repo := newStubRepo()
	parent, _ := seedFamily(repo)
	svc, ob := newTestService(t, repo)

	res, err := svc.ReconcileParent(context.Background(), parent.ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.Changed {
		t.Fatal("no sub-orders means no change")
	}
	if len(ob.events) != 0 {
		t.Fatal("no events expected")
	}
}
