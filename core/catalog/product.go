package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a single catalog entry on a tenant's storefront.
type Product struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	Stock       int
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// InStock reports whether qty units can be ordered.
func (p Product) InStock(qty int) bool {
	return p.Available && qty > 0 && p.Stock >= qty
}
