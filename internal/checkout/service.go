package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feria-cr/feria-backend/internal/orders"
	"github.com/feria-cr/feria-backend/pkg/config"
	"github.com/feria-cr/feria-backend/pkg/db/models"
	"github.com/feria-cr/feria-backend/pkg/enums"
	pkgerrors "github.com/feria-cr/feria-backend/pkg/errors"
	"github.com/feria-cr/feria-backend/pkg/logger"
	"github.com/feria-cr/feria-backend/pkg/outbox"
	"github.com/feria-cr/feria-backend/pkg/types"
)

// Store is the slice of persistence checkout needs. A StoreFactory rebinds it
// to the active transaction.
type Store interface {
	FindCartByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error)
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	CreateBuyerOrder(ctx context.Context, order *models.BuyerOrder) (*models.BuyerOrder, error)
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error
	ClearCart(ctx context.Context, cartID uuid.UUID) error
}

// StoreFactory returns a Store bound to the given transaction; a nil tx means
// the shared connection.
type StoreFactory func(tx *gorm.DB) Store

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type fanOutService interface {
	FanOut(ctx context.Context, input orders.FanOutInput) (*orders.FanOutResult, error)
}

// PlaceOrderInput is the buyer's checkout request after validation.
type PlaceOrderInput struct {
	BuyerID         uuid.UUID
	ActorRole       string
	PaymentMethod   enums.PaymentMethod
	ShippingAddress types.JSONMap
}

// PlaceOrderResult reports the created parent order and the fan-out outcome.
type PlaceOrderResult struct {
	Order  *models.BuyerOrder   `json:"order"`
	FanOut *orders.FanOutResult `json:"fanout"`
}

// OrderPlacedEvent is the outbox payload for a new parent order.
type OrderPlacedEvent struct {
	BuyerOrderID  uuid.UUID           `json:"buyer_order_id"`
	Code          string              `json:"code"`
	BuyerID       uuid.UUID           `json:"buyer_id"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	TotalCents    int64               `json:"total_cents"`
	ItemCount     int                 `json:"item_count"`
}

// Service turns a cart into a parent order and triggers vendor fan-out.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error)
}

type service struct {
	stores StoreFactory
	tx     txRunner
	outbox outboxPublisher
	orders fanOutService
	cfg    config.CheckoutConfig
	logg   *logger.Logger
	now    func() time.Time
}

// NewService builds a checkout service with the required dependencies.
func NewService(stores StoreFactory, tx txRunner, outboxSvc outboxPublisher, ordersSvc fanOutService, cfg config.CheckoutConfig, logg *logger.Logger) (Service, error) {
	if stores == nil {
		return nil, fmt.Errorf("store factory required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if ordersSvc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	return &service{
		stores: stores,
		tx:     tx,
		outbox: outboxSvc,
		orders: ordersSvc,
		cfg:    cfg,
		logg:   logg,
		now:    time.Now,
	}, nil
}

// PlaceOrder validates the cart, snapshots pricing and seller identity onto a
// new parent order, clears the cart, and fans the order out per vendor. The
// parent order commits before fan-out starts; a vendor-level fan-out failure
// therefore never loses the order, it is reported in the result and retried
// later.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if len(input.ShippingAddress) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address required")
	}

	store := s.stores(nil)
	cart, err := store.FindCartByBuyer(ctx, input.BuyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := store.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	catalog := map[uuid.UUID]models.Product{}
	for _, p := range products {
		catalog[p.ID] = p
	}

	order, err := s.buildOrder(input, cart, catalog)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txStore := s.stores(tx)
		created, err := txStore.CreateBuyerOrder(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create buyer order")
		}
		for _, item := range cart.Items {
			if err := txStore.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
		}
		if err := txStore.ClearCart(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateBuyerOrder,
			AggregateID:   created.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.BuyerID, Role: input.ActorRole},
			Data: OrderPlacedEvent{
				BuyerOrderID:  created.ID,
				Code:          created.Code,
				BuyerID:       created.BuyerID,
				PaymentMethod: created.PaymentMethod,
				TotalCents:    created.TotalCents,
				ItemCount:     created.ItemCount,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	fanOut, err := s.orders.FanOut(ctx, orders.FanOutInput{
		BuyerOrderID: order.ID,
		ActorUserID:  input.BuyerID,
		ActorRole:    input.ActorRole,
	})
	if err != nil {
		// The order exists; fan-out can be re-run by the reconcile job.
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{"buyer_order_id": order.ID.String()})
			s.logg.Error(logCtx, "fan-out after checkout failed", err)
		}
		return &PlaceOrderResult{Order: order}, nil
	}
	return &PlaceOrderResult{Order: order, FanOut: fanOut}, nil
}

// buildOrder prices the cart against the current catalog and snapshots each
// line with its seller identity. Lines whose product vanished keep a nil
// vendor id and are excluded from fan-out later.
func (s *service) buildOrder(input PlaceOrderInput, cart *models.CartRecord, catalog map[uuid.UUID]models.Product) (*models.BuyerOrder, error) {
	order := &models.BuyerOrder{
		Code:            newOrderCode(),
		BuyerID:         input.BuyerID,
		Status:          enums.BuyerOrderStatusPending,
		PaymentMethod:   input.PaymentMethod,
		ShippingAddress: input.ShippingAddress,
		Currency:        "CRC",
	}

	for _, item := range cart.Items {
		product, ok := catalog[item.ProductID]
		if !ok || !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product unavailable").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
		if product.Stock < item.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").
				WithDetails(map[string]any{"product_id": item.ProductID, "available": product.Stock})
		}

		productID := item.ProductID
		line := models.BuyerOrderItem{
			ProductID:      &productID,
			Name:           product.Name,
			UnitPriceCents: product.PriceCents,
			Quantity:       item.Quantity,
			TotalCents:     product.PriceCents * int64(item.Quantity),
		}
		if product.StoreID != uuid.Nil {
			vendorID := product.StoreID
			line.VendorID = &vendorID
		}
		order.Items = append(order.Items, line)
		order.SubtotalCents += line.TotalCents
		order.ItemCount += item.Quantity
	}

	order.ShippingCents = s.shippingFor(order.SubtotalCents)
	order.TotalCents = order.SubtotalCents + order.ShippingCents
	return order, nil
}

func (s *service) shippingFor(subtotalCents int64) int64 {
	if s.cfg.FreeShippingMinCents > 0 && subtotalCents >= s.cfg.FreeShippingMinCents {
		return 0
	}
	return s.cfg.ShippingFlatCents
}

func newOrderCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return "FER-" + raw[:10]
}
