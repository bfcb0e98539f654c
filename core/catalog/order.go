package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus tracks an order through fulfillment.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// OrderItem is one product line within an order. UnitPrice is captured at
// order time so later catalog price changes do not rewrite history.
type OrderItem struct {
	ProductID uuid.UUID
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Subtotal returns quantity times unit price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a cart submission from a storefront visitor, handed off to the
// tenant over WhatsApp.
type Order struct {
	ID            uuid.UUID
	Number        int64
	TenantID      uuid.UUID
	CustomerName  string
	CustomerPhone string
	Items         []OrderItem
	Status        OrderStatus
	CreatedAt     time.Time
}

// Total sums the item subtotals.
func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}
