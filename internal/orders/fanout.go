package orders

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feria-cr/feria-backend/pkg/db/models"
	"github.com/feria-cr/feria-backend/pkg/enums"
	"github.com/feria-cr/feria-backend/pkg/outbox"
	"github.com/feria-cr/feria-backend/pkg/types"
)

type vendorGroup struct {
	vendorID uuid.UUID
	items    []models.BuyerOrderItem
	subtotal int64
	units    int
}

// groupItemsByVendor buckets parent items per vendor. Items with no assigned
// vendor cannot be fanned out and are only counted.
func groupItemsByVendor(items []models.BuyerOrderItem) (map[uuid.UUID]*vendorGroup, int) {
	groups := map[uuid.UUID]*vendorGroup{}
	unassigned := 0
	for _, item := range items {
		if item.VendorID == nil || *item.VendorID == uuid.Nil {
			unassigned++
			continue
		}
		group, ok := groups[*item.VendorID]
		if !ok {
			group = &vendorGroup{vendorID: *item.VendorID}
			groups[*item.VendorID] = group
		}
		group.items = append(group.items, item)
		group.subtotal += item.TotalCents
		group.units += item.Quantity
	}
	return groups, unassigned
}

// sortedGroups returns groups ordered by vendor id so fan-out is deterministic.
func sortedGroups(groups map[uuid.UUID]*vendorGroup) []*vendorGroup {
	out := make([]*vendorGroup, 0, len(groups))
	for _, group := range groups {
		out = append(out, group)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].vendorID.String() < out[j].vendorID.String()
	})
	return out
}

// apportionShipping gives each vendor a share of the parent's shipping cost
// proportional to its goods subtotal. A single vendor carries the whole cost.
// Rounding happens per share; the cent-level drift is accepted.
func apportionShipping(totalShippingCents, vendorSubtotalCents, goodsSubtotalCents int64, vendorCount int) int64 {
	if totalShippingCents <= 0 {
		return 0
	}
	if vendorCount <= 1 {
		return totalShippingCents
	}
	if goodsSubtotalCents <= 0 {
		return 0
	}
	return int64(math.Round(float64(totalShippingCents) * float64(vendorSubtotalCents) / float64(goodsSubtotalCents)))
}

// subOrderCode derives a stable per-vendor code from the parent code, so a
// retried fan-out reproduces the same identifiers.
func subOrderCode(parentCode string, vendorID uuid.UUID) string {
	short := strings.ToUpper(strings.ReplaceAll(vendorID.String(), "-", ""))[:8]
	return parentCode + "-" + short
}

// materializeVendorOrder creates one sub-order with snapshotted items inside
// its own transaction.
func (s *service) materializeVendorOrder(ctx context.Context, parent *models.BuyerOrder, group *vendorGroup, goodsSubtotal int64, vendorCount int, input FanOutInput) (*models.VendorOrder, error) {
	snapshots, err := s.snapshotProducts(ctx, group.items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	shippingShare := apportionShipping(parent.ShippingCents, group.subtotal, goodsSubtotal, vendorCount)
	total := group.subtotal + shippingShare

	order := &models.VendorOrder{
		Code:            subOrderCode(parent.Code, group.vendorID),
		BuyerOrderID:    parent.ID,
		VendorID:        group.vendorID,
		BuyerID:         parent.BuyerID,
		Status:          enums.VendorOrderStatusPending,
		PaymentMethod:   parent.PaymentMethod,
		ShippingAddress: parent.ShippingAddress,
		Currency:        parent.Currency,
		SubtotalCents:   group.subtotal,
		ShippingCents:   shippingShare,
		TotalCents:      total,
		ItemCount:       group.units,
		History: types.StatusHistory{{
			Status:    enums.VendorOrderStatusPending.String(),
			Note:      "sub-order created",
			ChangedBy: input.ActorUserID.String(),
			ChangedAt: now,
		}},
	}

	items := make([]models.VendorOrderItem, 0, len(group.items))
	for _, src := range group.items {
		items = append(items, models.VendorOrderItem{
			ProductID:      src.ProductID,
			Name:           src.Name,
			UnitPriceCents: src.UnitPriceCents,
			Quantity:       src.Quantity,
			TotalCents:     src.TotalCents,
			Snapshot:       snapshotFor(snapshots, src),
		})
	}

	// Priority and tags bucket by line-item count, not the summed quantities.
	order.Priority = classifyPriority(s.cfg, total, len(group.items))
	order.Tags = buildTags(s.cfg, parent.PaymentMethod, total, len(group.items), items, now)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		created, err := repo.CreateVendorOrder(ctx, order)
		if err != nil {
			return err
		}
		for i := range items {
			items[i].VendorOrderID = created.ID
		}
		if err := repo.CreateVendorOrderItems(ctx, items); err != nil {
			return err
		}
		created.Items = items

		vendorID := group.vendorID
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSubOrderCreated,
			AggregateType: enums.AggregateVendorOrder,
			AggregateID:   created.ID,
			Version:       1,
			Actor:         buildActor(input.ActorUserID, &vendorID, input.ActorRole),
			Data: SubOrderCreatedEvent{
				VendorOrderID: created.ID,
				BuyerOrderID:  parent.ID,
				VendorID:      group.vendorID,
				BuyerID:       parent.BuyerID,
				TotalCents:    total,
				Priority:      created.Priority,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// snapshotProducts loads current catalog data for the group's items. Products
// that have been deleted since purchase still produce a snapshot flagged as
// missing rather than failing the vendor group.
func (s *service) snapshotProducts(ctx context.Context, items []models.BuyerOrderItem) (map[uuid.UUID]types.ProductSnapshot, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if item.ProductID != nil {
			ids = append(ids, *item.ProductID)
		}
	}

	products, err := s.repo.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]types.ProductSnapshot, len(products))
	for _, p := range products {
		desc := ""
		if p.Description != nil {
			desc = *p.Description
		}
		out[p.ID] = types.ProductSnapshot{
			ProductID:   p.ID.String(),
			Name:        p.Name,
			Description: desc,
			Category:    p.Category,
			ImageURLs:   p.ImageURLs,
			PriceCents:  p.PriceCents,
		}
	}
	return out, nil
}

func snapshotFor(snapshots map[uuid.UUID]types.ProductSnapshot, item models.BuyerOrderItem) types.ProductSnapshot {
	if item.ProductID != nil {
		if snap, ok := snapshots[*item.ProductID]; ok {
			return snap
		}
	}
	snap := types.ProductSnapshot{
		Name:       item.Name,
		PriceCents: item.UnitPriceCents,
		Missing:    true,
	}
	if item.ProductID != nil {
		snap.ProductID = item.ProductID.String()
	}
	return snap
}
