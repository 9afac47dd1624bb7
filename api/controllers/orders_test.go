package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/feria-cr/feria-backend/api/middleware"
	ordersvc "github.com/feria-cr/feria-backend/internal/orders"
	"github.com/feria-cr/feria-backend/pkg/db/models"
	"github.com/feria-cr/feria-backend/pkg/enums"
	pkgerrors "github.com/feria-cr/feria-backend/pkg/errors"
	"github.com/feria-cr/feria-backend/pkg/pagination"
)

type stubOrdersService struct {
	updateInput  *ordersvc.UpdateStatusInput
	updateResult *ordersvc.UpdateStatusResult
	updateErr    error

	listFilters ordersvc.VendorOrderFilters
	listParams  pagination.Params
	vendorList  *ordersvc.VendorOrderList
}

func (s *stubOrdersService) FanOut(_ context.Context, _ ordersvc.FanOutInput) (*ordersvc.FanOutResult, error) {
	return nil, nil
}

func (s *stubOrdersService) UpdateSubOrderStatus(_ context.Context, input ordersvc.UpdateStatusInput) (*ordersvc.UpdateStatusResult, error) {
	s.updateInput = &input
	return s.updateResult, s.updateErr
}

func (s *stubOrdersService) ReconcileParent(_ context.Context, _ uuid.UUID) (*ordersvc.ReconcileResult, error) {
	return nil, nil
}

func (s *stubOrdersService) GetBuyerOrder(_ context.Context, _, _ uuid.UUID) (*ordersvc.BuyerOrderDetail, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubOrdersService) ListBuyerOrders(_ context.Context, _ uuid.UUID, _ pagination.Params, _ ordersvc.BuyerOrderFilters) (*ordersvc.BuyerOrderList, error) {
	return &ordersvc.BuyerOrderList{}, nil
}

func (s *stubOrdersService) GetVendorOrder(_ context.Context, _, _ uuid.UUID) (*ordersvc.VendorOrderDetail, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubOrdersService) ListVendorOrders(_ context.Context, _ uuid.UUID, params pagination.Params, filters ordersvc.VendorOrderFilters) (*ordersvc.VendorOrderList, error) {
	s.listParams = params
	s.listFilters = filters
	return s.vendorList, nil
}

func sellerRequest(method, target, body string, userID, storeID uuid.UUID) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithStoreID(ctx, storeID.String())
	ctx = middleware.WithRole(ctx, "seller")
	return req.WithContext(ctx)
}

func TestSellerUpdateOrderStatusForwardsActor(t *testing.T) {
	userID := uuid.New()
	storeID := uuid.New()
	orderID := uuid.New()

	svc := &stubOrdersService{
		updateResult: &ordersvc.UpdateStatusResult{
			VendorOrder:   &models.VendorOrder{ID: orderID, Status: enums.VendorOrderStatusShipped},
			ParentStatus:  enums.BuyerOrderStatusShipped,
			ParentChanged: true,
		},
	}

	router := chi.NewRouter()
	router.Patch("/api/v1/seller/orders/{id}/status", SellerUpdateOrderStatus(svc, nil))

	body := `{"status":"shipped","note":"left with courier"}`
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, sellerRequest(http.MethodPatch, "/api/v1/seller/orders/"+orderID.String()+"/status", body, userID, storeID))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.updateInput == nil {
		t.Fatal("service was not called")
	}
	if svc.updateInput.VendorOrderID != orderID || svc.updateInput.Status != enums.VendorOrderStatusShipped {
		t.Fatalf("unexpected input: %+v", svc.updateInput)
	}
	if svc.updateInput.ActorUserID != userID || svc.updateInput.ActorStoreID != storeID || svc.updateInput.ActorRole != "seller" {
		t.Fatalf("actor not forwarded: %+v", svc.updateInput)
	}

	var envelope struct {
		Data ordersvc.UpdateStatusResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.ParentChanged || envelope.Data.ParentStatus != enums.BuyerOrderStatusShipped {
		t.Fatalf("unexpected result payload: %+v", envelope.Data)
	}
}

func TestSellerUpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	svc := &stubOrdersService{}
	router := chi.NewRouter()
	router.Patch("/api/v1/seller/orders/{id}/status", SellerUpdateOrderStatus(svc, nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, sellerRequest(http.MethodPatch, "/api/v1/seller/orders/"+uuid.NewString()+"/status", `{"status":"teleported"}`, uuid.New(), uuid.New()))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.updateInput != nil {
		t.Fatal("service must not be called for invalid status")
	}
}

func TestSellerUpdateOrderStatusSurfacesStateConflict(t *testing.T) {
	svc := &stubOrdersService{updateErr: pkgerrors.New(pkgerrors.CodeStateConflict, "cannot leave terminal status")}
	router := chi.NewRouter()
	router.Patch("/api/v1/seller/orders/{id}/status", SellerUpdateOrderStatus(svc, nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, sellerRequest(http.MethodPatch, "/api/v1/seller/orders/"+uuid.NewString()+"/status", `{"status":"pending"}`, uuid.New(), uuid.New()))

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestSellerListOrdersParsesFilters(t *testing.T) {
	svc := &stubOrdersService{vendorList: &ordersvc.VendorOrderList{NextCursor: "abc"}}
	router := chi.NewRouter()
	router.Get("/api/v1/seller/orders", SellerListOrders(svc, nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, sellerRequest(http.MethodGet, "/api/v1/seller/orders?status=pending&priority=high&limit=10", "", uuid.New(), uuid.New()))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.listParams.Limit != 10 {
		t.Fatalf("limit not forwarded: %+v", svc.listParams)
	}
	if svc.listFilters.Status == nil || *svc.listFilters.Status != enums.VendorOrderStatusPending {
		t.Fatalf("status filter missing: %+v", svc.listFilters)
	}
	if svc.listFilters.Priority == nil || *svc.listFilters.Priority != enums.OrderPriorityHigh {
		t.Fatalf("priority filter missing: %+v", svc.listFilters)
	}
}

func TestBuyerGetOrderRejectsBadID(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/api/v1/orders/{id}", BuyerGetOrder(&stubOrdersService{}, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
