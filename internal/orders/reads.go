package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feria-cr/feria-backend/pkg/db/models"
	"github.com/feria-cr/feria-backend/pkg/enums"
	pkgerrors "github.com/feria-cr/feria-backend/pkg/errors"
	"github.com/feria-cr/feria-backend/pkg/pagination"
)

// BuyerOrderDetail joins a parent order with its sub-orders.
type BuyerOrderDetail struct {
	Order     models.BuyerOrder    `json:"order"`
	SubOrders []models.VendorOrder `json:"sub_orders"`
}

// VendorOrderDetail is the seller's view of one sub-order.
type VendorOrderDetail struct {
	Order models.VendorOrder `json:"order"`
}

func (s *service) GetBuyerOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*BuyerOrderDetail, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindBuyerOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer order")
	}
	if buyerID != uuid.Nil && order.BuyerID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to buyer")
	}

	subOrders, err := s.repo.FindVendorOrdersByParent(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sub-orders")
	}

	return &BuyerOrderDetail{Order: *order, SubOrders: subOrders}, nil
}

func (s *service) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters BuyerOrderFilters) (*BuyerOrderList, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	list, err := s.repo.ListBuyerOrders(ctx, buyerID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list buyer orders")
	}
	return list, nil
}

func (s *service) GetVendorOrder(ctx context.Context, vendorID, orderID uuid.UUID) (*VendorOrderDetail, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindVendorOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor order")
	}
	if vendorID != uuid.Nil && order.VendorID != vendorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to store")
	}

	return &VendorOrderDetail{Order: *order}, nil
}

func (s *service) ListVendorOrders(ctx context.Context, vendorID uuid.UUID, params pagination.Params, filters VendorOrderFilters) (*VendorOrderList, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown status filter")
	}
	if filters.Priority != nil && !filters.Priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown priority filter")
	}
	list, err := s.repo.ListVendorOrders(ctx, vendorID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor orders")
	}
	return list, nil
}

// StatusFilter parses an optional status query parameter.
func StatusFilter(raw string) (*enums.VendorOrderStatus, error) {
	if raw == "" {
		return nil, nil
	}
	status, err := enums.ParseVendorOrderStatus(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	return &status, nil
}
