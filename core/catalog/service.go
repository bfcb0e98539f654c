package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vitrinehq/vitrine/core/logger"
)

// Store defines catalog persistence. Implementations must be safe for
// concurrent use.
type Store interface {
	ListProducts(ctx context.Context, tenantID uuid.UUID) ([]Product, error)
	GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*Product, error)
	SaveProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, tenantID, productID uuid.UUID) error

	// CreateOrder persists the order and decrements stock atomically,
	// assigning the tenant-scoped order number.
	CreateOrder(ctx context.Context, o *Order) error
	ListOrders(ctx context.Context, tenantID uuid.UUID, limit int) ([]Order, error)

	// Stats returns the tenant's dashboard counters.
	Stats(ctx context.Context, tenantID uuid.UUID) (*Stats, error)
}

// Stats are the dashboard counters for one tenant.
type Stats struct {
	Products int64
	Orders   int64
	Revenue  decimal.Decimal
}

// OrderRequestItem is one cart line in a storefront submission.
type OrderRequestItem struct {
	ProductID uuid.UUID
	Quantity  int
}

// OrderRequest is a cart-to-order submission from a storefront visitor.
type OrderRequest struct {
	CustomerName  string
	CustomerPhone string
	Items         []OrderRequestItem
}

// Service validates cart submissions against the live catalog and records
// orders.
type Service struct {
	store Store
	log   *slog.Logger
}

// NewService creates a catalog service.
func NewService(store Store, log *slog.Logger) *Service {
	if log == nil {
		log = logger.NewDiscard()
	}
	return &Service{store: store, log: log}
}

// ListProducts returns the tenant's storefront catalog.
func (s *Service) ListProducts(ctx context.Context, tenantID uuid.UUID) ([]Product, error) {
	return s.store.ListProducts(ctx, tenantID)
}

// GetProduct returns a single product scoped to the tenant.
func (s *Service) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*Product, error) {
	return s.store.GetProduct(ctx, tenantID, productID)
}

// SaveProduct validates and persists a product, creating it when the ID is
// unset.
func (s *Service) SaveProduct(ctx context.Context, p *Product) error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return s.store.SaveProduct(ctx, p)
}

// DeleteProduct removes a product from the tenant's catalog.
func (s *Service) DeleteProduct(ctx context.Context, tenantID, productID uuid.UUID) error {
	return s.store.DeleteProduct(ctx, tenantID, productID)
}

// ListOrders returns the tenant's most recent orders, newest first.
func (s *Service) ListOrders(ctx context.Context, tenantID uuid.UUID, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListOrders(ctx, tenantID, limit)
}

// Stats returns the tenant's dashboard counters: catalog size, order volume,
// and accumulated order value.
func (s *Service) Stats(ctx context.Context, tenantID uuid.UUID) (*Stats, error) {
	return s.store.Stats(ctx, tenantID)
}

// PlaceOrder validates the cart against current products (existence, stock)
// and persists the order with prices captured at submission time.
func (s *Service) PlaceOrder(ctx context.Context, tenantID uuid.UUID, req OrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	items := make([]OrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		product, err := s.store.GetProduct(ctx, tenantID, line.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.InStock(line.Quantity) {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, product.Name)
		}

		items = append(items, OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
	}

	order := &Order{
		ID:            uuid.New(),
		TenantID:      tenantID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Items:         items,
		Status:        OrderPending,
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "order placed",
		logger.TenantID(tenantID),
		slog.Int64("order_number", order.Number),
		slog.String("total", order.Total().StringFixed(2)))

	return order, nil
}
