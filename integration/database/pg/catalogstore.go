package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitrinehq/vitrine/core/catalog"
)

// CatalogStore implements catalog.Store on PostgreSQL.
type CatalogStore struct {
	pool *pgxpool.Pool
}

// NewCatalogStore creates a catalog store backed by pool.
func NewCatalogStore(pool *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{pool: pool}
}

const productColumns = `id, tenant_id, name, description, price, image_url,
	stock, available, created_at, updated_at`

func scanProduct(row pgx.Row) (*catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(
		&p.ID, &p.TenantID, &p.Name, &p.Description, &p.Price, &p.ImageURL,
		&p.Stock, &p.Available, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &p, nil
}

// ListProducts returns the tenant's products, newest first.
func (s *CatalogStore) ListProducts(ctx context.Context, tenantID uuid.UUID) ([]catalog.Product, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE tenant_id = $1 ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// GetProduct returns one product scoped to the tenant.
func (s *CatalogStore) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*catalog.Product, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE id = $1 AND tenant_id = $2`, productID, tenantID)
	return scanProduct(row)
}

// SaveProduct inserts or updates a product.
func (s *CatalogStore) SaveProduct(ctx context.Context, p *catalog.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO products (id, tenant_id, name, description, price, image_url,
			stock, available, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			image_url = EXCLUDED.image_url,
			stock = EXCLUDED.stock,
			available = EXCLUDED.available,
			updated_at = EXCLUDED.updated_at`,
		p.ID, p.TenantID, p.Name, p.Description, p.Price, p.ImageURL,
		p.Stock, p.Available, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save product: %w", err)
	}
	return nil
}

// DeleteProduct removes a product scoped to the tenant.
func (s *CatalogStore) DeleteProduct(ctx context.Context, tenantID, productID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM products WHERE id = $1 AND tenant_id = $2`, productID, tenantID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

// CreateOrder persists the order and decrements stock in one transaction.
// The conditional stock update re-validates availability under concurrency;
// the order number is assigned from a per-tenant counter.
func (s *CatalogStore) CreateOrder(ctx context.Context, o *catalog.Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin order tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, item := range o.Items {
		tag, err := tx.Exec(ctx, `
			UPDATE products SET stock = stock - $3, updated_at = now()
			WHERE id = $1 AND tenant_id = $2 AND stock >= $3`,
			item.ProductID, o.TenantID, item.Quantity)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", catalog.ErrInsufficientStock, item.Name)
		}
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO order_counters (tenant_id, last_number)
		VALUES ($1, 1)
		ON CONFLICT (tenant_id) DO UPDATE SET last_number = order_counters.last_number + 1
		RETURNING last_number`, o.TenantID).Scan(&o.Number)
	if err != nil {
		return fmt.Errorf("assign order number: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, number, tenant_id, customer_name, customer_phone, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		o.ID, o.Number, o.TenantID, o.CustomerName, o.CustomerPhone, o.Status, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range o.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, name, quantity, unit_price)
			VALUES ($1,$2,$3,$4,$5)`,
			o.ID, item.ProductID, item.Name, item.Quantity, item.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order tx: %w", err)
	}
	return nil
}

// ListOrders returns the tenant's orders, newest first, with their items.
func (s *CatalogStore) ListOrders(ctx context.Context, tenantID uuid.UUID, limit int) ([]catalog.Order, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, number, tenant_id, customer_name, customer_phone, status, created_at
		FROM orders WHERE tenant_id = $1
		ORDER BY created_at DESC LIMIT $2`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var (
		orders []catalog.Order
		index  = make(map[uuid.UUID]int)
	)
	for rows.Next() {
		var o catalog.Order
		if err := rows.Scan(&o.ID, &o.Number, &o.TenantID, &o.CustomerName,
			&o.CustomerPhone, &o.Status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}

	itemRows, err := s.pool.Query(ctx, `
		SELECT order_id, product_id, name, quantity, unit_price
		FROM order_items WHERE order_id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			orderID uuid.UUID
			item    catalog.OrderItem
		)
		if err := itemRows.Scan(&orderID, &item.ProductID, &item.Name,
			&item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	return orders, itemRows.Err()
}

// Stats returns the tenant's dashboard counters in two aggregate queries.
func (s *CatalogStore) Stats(ctx context.Context, tenantID uuid.UUID) (*catalog.Stats, error) {
	var st catalog.Stats

	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM products WHERE tenant_id = $1`, tenantID).Scan(&st.Products)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT count(DISTINCT o.id), COALESCE(sum(oi.quantity * oi.unit_price), 0)
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		WHERE o.tenant_id = $1`, tenantID).Scan(&st.Orders, &st.Revenue)
	if err != nil {
		return nil, fmt.Errorf("aggregate orders: %w", err)
	}

	return &st, nil
}

var _ catalog.Store = (*CatalogStore)(nil)
