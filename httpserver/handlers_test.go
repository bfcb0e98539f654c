package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrinehq/vitrine/core/catalog"
	"github.com/vitrinehq/vitrine/core/onboarding"
	"github.com/vitrinehq/vitrine/core/operator"
	"github.com/vitrinehq/vitrine/core/session"
	"github.com/vitrinehq/vitrine/core/tenant"
	"github.com/vitrinehq/vitrine/httpserver"
	"github.com/vitrinehq/vitrine/middleware"
)

const platformApex = "vitrine.test"

// memSessionStore is an in-memory session.Store.
type memSessionStore struct {
	mu      sync.Mutex
	byToken map[string]session.Session
	byID    map[uuid.UUID]string
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{
		byToken: make(map[string]session.Session),
		byID:    make(map[uuid.UUID]string),
	}
}

func (ms *memSessionStore) GetByToken(ctx context.Context, token string) (*session.Session, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	sess, ok := ms.byToken[token]
	if !ok {
		return nil, session.ErrNotFound
	}
	return &sess, nil
}

func (ms *memSessionStore) Save(ctx context.Context, sess *session.Session) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if prev, ok := ms.byID[sess.ID]; ok && prev != sess.Token {
		delete(ms.byToken, prev)
	}
	ms.byToken[sess.Token] = *sess
	ms.byID[sess.ID] = sess.Token
	return nil
}

func (ms *memSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if token, ok := ms.byID[id]; ok {
		delete(ms.byToken, token)
		delete(ms.byID, id)
	}
	return nil
}

func (ms *memSessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

// memOperatorStore is an in-memory operator.Store.
type memOperatorStore struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]operator.Operator
	byEmail map[string]uuid.UUID
}

func newMemOperatorStore() *memOperatorStore {
	return &memOperatorStore{
		byID:    make(map[uuid.UUID]operator.Operator),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (ms *memOperatorStore) ByID(ctx context.Context, id uuid.UUID) (*operator.Operator, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	op, ok := ms.byID[id]
	if !ok {
		return nil, operator.ErrNotFound
	}
	return &op, nil
}

func (ms *memOperatorStore) ByEmail(ctx context.Context, email string) (*operator.Operator, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	id, ok := ms.byEmail[email]
	if !ok {
		return nil, operator.ErrNotFound
	}
	op := ms.byID[id]
	return &op, nil
}

func (ms *memOperatorStore) Create(ctx context.Context, op *operator.Operator) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, exists := ms.byEmail[op.Email]; exists {
		return operator.ErrEmailTaken
	}
	ms.byID[op.ID] = *op
	ms.byEmail[op.Email] = op.ID
	return nil
}

// memCatalogStore is an in-memory catalog.Store.
type memCatalogStore struct {
	mu       sync.Mutex
	products map[uuid.UUID]catalog.Product
	orders   []catalog.Order
	counters map[uuid.UUID]int64
}

func newMemCatalogStore() *memCatalogStore {
	return &memCatalogStore{
		products: make(map[uuid.UUID]catalog.Product),
		counters: make(map[uuid.UUID]int64),
	}
}

func (ms *memCatalogStore) ListProducts(ctx context.Context, tenantID uuid.UUID) ([]catalog.Product, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	var out []catalog.Product
	for _, p := range ms.products {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (ms *memCatalogStore) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*catalog.Product, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	p, ok := ms.products[productID]
	if !ok || p.TenantID != tenantID {
		return nil, catalog.ErrProductNotFound
	}
	return &p, nil
}

func (ms *memCatalogStore) SaveProduct(ctx context.Context, p *catalog.Product) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.products[p.ID] = *p
	return nil
}

func (ms *memCatalogStore) DeleteProduct(ctx context.Context, tenantID, productID uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	p, ok := ms.products[productID]
	if !ok || p.TenantID != tenantID {
		return catalog.ErrProductNotFound
	}
	delete(ms.products, productID)
	return nil
}

func (ms *memCatalogStore) CreateOrder(ctx context.Context, o *catalog.Order) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for _, item := range o.Items {
		p, ok := ms.products[item.ProductID]
		if !ok || p.TenantID != o.TenantID {
			return catalog.ErrProductNotFound
		}
		if p.Stock < item.Quantity {
			return catalog.ErrInsufficientStock
		}
		p.Stock -= item.Quantity
		ms.products[item.ProductID] = p
	}
	ms.counters[o.TenantID]++
	o.Number = ms.counters[o.TenantID]
	ms.orders = append(ms.orders, *o)
	return nil
}

func (ms *memCatalogStore) ListOrders(ctx context.Context, tenantID uuid.UUID, limit int) ([]catalog.Order, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	var out []catalog.Order
	for i := len(ms.orders) - 1; i >= 0 && len(out) < limit; i-- {
		if ms.orders[i].TenantID == tenantID {
			out = append(out, ms.orders[i])
		}
	}
	return out, nil
}

func (ms *memCatalogStore) Stats(ctx context.Context, tenantID uuid.UUID) (*catalog.Stats, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	st := catalog.Stats{Revenue: decimal.Zero}
	for _, p := range ms.products {
		if p.TenantID == tenantID {
			st.Products++
		}
	}
	for _, o := range ms.orders {
		if o.TenantID == tenantID {
			st.Orders++
			st.Revenue = st.Revenue.Add(o.Total())
		}
	}
	return &st, nil
}

// fakeVerifier returns a canned DNS check result.
type fakeVerifier struct {
	mu     sync.Mutex
	result onboarding.CheckResult
	err    error
}

func (f *fakeVerifier) Check(ctx context.Context, domain string) (onboarding.CheckResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result, f.err
}

func (f *fakeVerifier) set(result onboarding.CheckResult, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result = result
	f.err = err
}

// fakeProvisioner hands out a fixed attempt ID and stays pending.
type fakeProvisioner struct {
	mu     sync.Mutex
	status onboarding.IssuanceStatus
}

func (f *fakeProvisioner) RequestIssuance(ctx context.Context, domain string) (string, error) {
	return "attempt-" + domain, nil
}

func (f *fakeProvisioner) PollStatus(ctx context.Context, attemptID string) (onboarding.IssuanceStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

type env struct {
	tenants  *tenant.MemoryStore
	products *memCatalogStore
	verifier *fakeVerifier
	router   http.Handler
}

func newEnv(t *testing.T, seed ...*tenant.Tenant) *env {
	t.Helper()

	tenants := tenant.NewMemoryStore(seed...)
	products := newMemCatalogStore()
	verifier := &fakeVerifier{result: onboarding.CheckResult{Status: onboarding.CheckOK}}
	sessions := session.NewManager(newMemSessionStore())

	handlers := httpserver.NewHandlers(httpserver.HandlersConfig{
		Tenants:      tenants,
		Catalog:      catalog.NewService(products, nil),
		Operators:    operator.NewService(newMemOperatorStore(), operator.WithBcryptCost(4)),
		Verifier:     verifier,
		Provisioner:  &fakeProvisioner{status: onboarding.IssuanceStatus{Status: onboarding.CertPending}},
		PlatformApex: platformApex,
	})

	router := handlers.Router(httpserver.RouterConfig{
		Sessions: sessions,
		Resolver: tenant.NewResolver(tenants, platformApex),
	})

	return &env{tenants: tenants, products: products, verifier: verifier, router: router}
}

func (e *env) do(t *testing.T, method, path, host string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Host = host
	req.Header.Set("Accept", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName && c.Value != "" {
			return c
		}
	}
	return nil
}

func (e *env) register(t *testing.T, email, storeName string) (*http.Cookie, uuid.UUID) {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/auth/register", platformApex, map[string]string{
		"email":      email,
		"password":   "s3cret-pass",
		"name":       "Owner",
		"store_name": storeName,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		TenantID string `json:"tenant_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	tenantID, err := uuid.Parse(resp.TenantID)
	require.NoError(t, err)

	cookie := sessionCookie(t, rec)
	require.NotNil(t, cookie)
	return cookie, tenantID
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	cookie, tenantID := e.register(t, "owner@example.com", "My Store")

	t.Run("registration binds the session", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/api/admin/products", platformApex, nil, cookie)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("slug is derived from the store name", func(t *testing.T) {
		stored, err := e.tenants.ByID(t.Context(), tenantID)
		require.NoError(t, err)
		assert.Equal(t, "my-store", stored.PlatformSlug)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/auth/register", platformApex, map[string]string{
			"email":      "owner@example.com",
			"password":   "s3cret-pass",
			"store_name": "Another Store",
		}, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("login with the right password", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/auth/login", platformApex, map[string]string{
			"email":    "owner@example.com",
			"password": "s3cret-pass",
		}, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotNil(t, sessionCookie(t, rec))
	})

	t.Run("login with a wrong password", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/auth/login", platformApex, map[string]string{
			"email":    "owner@example.com",
			"password": "wrong-pass",
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("admin surface requires authentication", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/api/admin/products", platformApex, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAdminProfile(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	cookie, tenantID := e.register(t, "owner@example.com", "Bella Moda")

	t.Run("get returns the current profile", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/api/admin/profile", platformApex, nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			PlatformSlug string `json:"platform_slug"`
			Name         string `json:"name"`
			DomainStatus string `json:"domain_status"`
			Template     string `json:"template"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "bella-moda", resp.PlatformSlug)
		assert.Equal(t, "Bella Moda", resp.Name)
		assert.Equal(t, string(tenant.DomainUnconfigured), resp.DomainStatus)
		assert.Equal(t, "classic", resp.Template)
	})

	t.Run("update persists editable fields", func(t *testing.T) {
		rec := e.do(t, http.MethodPut, "/api/admin/profile", platformApex, map[string]any{
			"name":          "Bella Moda Boutique",
			"description":   "Roupas femininas",
			"whatsapp":      "+55 11 91234-5678",
			"primary_color": "#b5485d",
			"template":      2,
			"active":        true,
		}, cookie)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		stored, err := e.tenants.ByID(t.Context(), tenantID)
		require.NoError(t, err)
		assert.Equal(t, "Bella Moda Boutique", stored.Name)
		assert.Equal(t, "Roupas femininas", stored.Description)
		assert.Equal(t, tenant.TemplateCatalog, stored.Template)
		assert.Equal(t, "bella-moda", stored.PlatformSlug)
	})

	t.Run("unknown template falls back to the default", func(t *testing.T) {
		rec := e.do(t, http.MethodPut, "/api/admin/profile", platformApex, map[string]any{
			"name":     "Bella Moda Boutique",
			"template": 99,
			"active":   true,
		}, cookie)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		stored, err := e.tenants.ByID(t.Context(), tenantID)
		require.NoError(t, err)
		assert.Equal(t, tenant.TemplateDefault, stored.Template)
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		rec := e.do(t, http.MethodPut, "/api/admin/profile", platformApex, map[string]any{
			"name": "",
		}, cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAdminProductCRUD(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	cookie, _ := e.register(t, "owner@example.com", "Gadget Shop")

	rec := e.do(t, http.MethodPost, "/api/admin/products", platformApex, map[string]any{
		"name":      "Widget",
		"price":     "19.90",
		"stock":     5,
		"available": true,
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID    string `json:"id"`
		Price string `json:"price"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "19.90", created.Price)

	t.Run("invalid price is rejected", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/admin/products", platformApex, map[string]any{
			"name":  "Broken",
			"price": "not-a-number",
		}, cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("update changes the stored product", func(t *testing.T) {
		rec := e.do(t, http.MethodPut, "/api/admin/products/"+created.ID, platformApex, map[string]any{
			"name":      "Widget v2",
			"price":     "24.90",
			"stock":     3,
			"available": true,
		}, cookie)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated struct {
			Name  string `json:"name"`
			Price string `json:"price"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, "Widget v2", updated.Name)
		assert.Equal(t, "24.90", updated.Price)
	})

	t.Run("delete removes the product", func(t *testing.T) {
		rec := e.do(t, http.MethodDelete, "/api/admin/products/"+created.ID, platformApex, nil, cookie)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = e.do(t, http.MethodGet, "/api/admin/products", platformApex, nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		var list []json.RawMessage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		assert.Empty(t, list)
	})
}

func seedStorefront(t *testing.T) (*env, *tenant.Tenant) {
	t.Helper()

	shop := &tenant.Tenant{
		ID:           uuid.New(),
		OwnerID:      uuid.New(),
		PlatformSlug: "corner-shop",
		CustomDomain: "shop.example.com",
		DomainStatus: tenant.DomainActive,
		Name:         "Corner Shop",
		WhatsApp:     "+55 11 91234-5678",
		Template:     tenant.TemplateDefault,
		Active:       true,
	}
	e := newEnv(t, shop)

	svc := catalog.NewService(e.products, nil)
	require.NoError(t, svc.SaveProduct(t.Context(), &catalog.Product{
		TenantID:  shop.ID,
		Name:      "Coffee Beans",
		Price:     decimal.RequireFromString("25.00"),
		Stock:     10,
		Available: true,
	}))
	require.NoError(t, svc.SaveProduct(t.Context(), &catalog.Product{
		TenantID:  shop.ID,
		Name:      "Hidden Item",
		Price:     decimal.RequireFromString("5.00"),
		Stock:     1,
		Available: false,
	}))

	return e, shop
}

func TestStorefront(t *testing.T) {
	t.Parallel()

	e, shop := seedStorefront(t)

	decode := func(t *testing.T, rec *httptest.ResponseRecorder) struct {
		Name     string `json:"name"`
		Products []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"products"`
	} {
		t.Helper()
		var resp struct {
			Name     string `json:"name"`
			Products []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"products"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp
	}

	t.Run("custom domain host", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/api/store/", shop.CustomDomain, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decode(t, rec)
		assert.Equal(t, "Corner Shop", resp.Name)
		require.Len(t, resp.Products, 1, "unavailable products must be hidden")
		assert.Equal(t, "Coffee Beans", resp.Products[0].Name)
	})

	t.Run("platform path", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/e/corner-shop/api/store/", platformApex, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "Corner Shop", decode(t, rec).Name)
	})

	t.Run("unknown slug", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/e/nope/api/store/", platformApex, nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown custom domain", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/api/store/", "other.example.com", nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestStorefrontOrder(t *testing.T) {
	t.Parallel()

	e, shop := seedStorefront(t)

	products, err := e.products.ListProducts(t.Context(), shop.ID)
	require.NoError(t, err)
	var coffee catalog.Product
	for _, p := range products {
		if p.Name == "Coffee Beans" {
			coffee = p
		}
	}
	require.NotEqual(t, uuid.Nil, coffee.ID)

	rec := e.do(t, http.MethodPost, "/api/store/orders", shop.CustomDomain, map[string]any{
		"customer_name":  "Maria",
		"customer_phone": "+55 11 99999-0000",
		"items": []map[string]any{
			{"product_id": coffee.ID.String(), "quantity": 2},
		},
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Number       int64  `json:"number"`
		Total        string `json:"total"`
		WhatsAppLink string `json:"whatsapp_link"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Number)
	assert.Equal(t, "50.00", resp.Total)
	assert.Contains(t, resp.WhatsAppLink, "wa.me/5511912345678")

	t.Run("stock was decremented", func(t *testing.T) {
		p, err := e.products.GetProduct(t.Context(), shop.ID, coffee.ID)
		require.NoError(t, err)
		assert.Equal(t, 8, p.Stock)
	})

	t.Run("oversized order is rejected", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/store/orders", shop.CustomDomain, map[string]any{
			"items": []map[string]any{
				{"product_id": coffee.ID.String(), "quantity": 100},
			},
		}, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("empty cart is rejected", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/store/orders", shop.CustomDomain, map[string]any{
			"items": []map[string]any{},
		}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStoreQR(t *testing.T) {
	t.Parallel()

	e, shop := seedStorefront(t)

	rec := e.do(t, http.MethodGet, "/api/store/qr", shop.CustomDomain, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	// PNG magic bytes.
	body := rec.Body.Bytes()
	require.Greater(t, len(body), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, body[:4])
}

func TestAdminStats(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	cookie, _ := e.register(t, "owner@example.com", "Corner Shop")

	readStats := func(t *testing.T) statsView {
		t.Helper()
		rec := e.do(t, http.MethodGet, "/api/admin/stats", platformApex, nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var st statsView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
		return st
	}

	t.Run("fresh store has zero counters", func(t *testing.T) {
		st := readStats(t)
		assert.Zero(t, st.Products)
		assert.Zero(t, st.Orders)
		assert.Equal(t, "0.00", st.Revenue)
	})

	rec := e.do(t, http.MethodPost, "/api/admin/products", platformApex, map[string]any{
		"name": "Espresso Beans", "price": "10.00", "stock": 5, "available": true,
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var beans struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &beans))

	rec = e.do(t, http.MethodPost, "/api/admin/products", platformApex, map[string]any{
		"name": "Filter Paper", "price": "2.50", "stock": 9, "available": true,
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/e/corner-shop/api/store/orders", platformApex, map[string]any{
		"customer_name":  "Ana",
		"customer_phone": "+55 11 91234-5678",
		"items":          []map[string]any{{"product_id": beans.ID, "quantity": 2}},
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	t.Run("counters track catalog and orders", func(t *testing.T) {
		st := readStats(t)
		assert.Equal(t, int64(2), st.Products)
		assert.Equal(t, int64(1), st.Orders)
		assert.Equal(t, "20.00", st.Revenue)
	})
}

type statsView struct {
	Products int64  `json:"products"`
	Orders   int64  `json:"orders"`
	Revenue  string `json:"revenue"`
}

func TestDomainOnboardingFlow(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	cookie, tenantID := e.register(t, "owner@example.com", "Corner Shop")

	t.Run("attach verifies dns immediately", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/admin/domain", platformApex, map[string]string{
			"domain": "Shop.Example.COM",
		}, cookie)
		require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

		var resp struct {
			Applied bool   `json:"applied"`
			From    string `json:"from"`
			Attempt struct {
				Domain string `json:"domain"`
				Stage  string `json:"stage"`
			} `json:"attempt"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Applied)
		assert.Equal(t, string(tenant.DomainUnconfigured), resp.From)
		assert.Equal(t, "shop.example.com", resp.Attempt.Domain)
		assert.Equal(t, string(tenant.DomainDNSVerified), resp.Attempt.Stage)

		stored, err := e.tenants.ByID(t.Context(), tenantID)
		require.NoError(t, err)
		assert.Equal(t, tenant.DomainDNSVerified, stored.DomainStatus)
		assert.Equal(t, "shop.example.com", stored.CustomDomain)
	})

	t.Run("status reports the live attempt", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/api/admin/domain", platformApex, nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code)

		var attempt struct {
			Stage string `json:"stage"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &attempt))
		assert.Equal(t, string(tenant.DomainDNSVerified), attempt.Stage)
	})

	t.Run("certificate request starts polling", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/admin/domain/certificate", platformApex, nil, cookie)
		require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

		var resp struct {
			Applied bool   `json:"applied"`
			To      string `json:"to"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Applied)
		assert.Equal(t, string(tenant.DomainCertPending), resp.To)

		stored, err := e.tenants.ByID(t.Context(), tenantID)
		require.NoError(t, err)
		assert.Equal(t, tenant.DomainCertPending, stored.DomainStatus)
	})

	t.Run("cancel stops polling without losing the stage", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/admin/domain/cancel", platformApex, nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code)

		stored, err := e.tenants.ByID(t.Context(), tenantID)
		require.NoError(t, err)
		assert.Equal(t, tenant.DomainCertPending, stored.DomainStatus)
	})

	t.Run("remove releases the domain", func(t *testing.T) {
		rec := e.do(t, http.MethodDelete, "/api/admin/domain", platformApex, nil, cookie)
		require.Equal(t, http.StatusNoContent, rec.Code)

		stored, err := e.tenants.ByID(t.Context(), tenantID)
		require.NoError(t, err)
		assert.Empty(t, stored.CustomDomain)
		assert.Equal(t, tenant.DomainRemoved, stored.DomainStatus)
	})
}

func TestAttachDomainValidation(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	cookie, _ := e.register(t, "owner@example.com", "Corner Shop")

	t.Run("invalid domain", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/admin/domain", platformApex, map[string]string{
			"domain": "not a domain",
		}, cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("domain already claimed by another tenant", func(t *testing.T) {
		other, otherTenant := e.register(t, "other@example.com", "Other Shop")
		rec := e.do(t, http.MethodPost, "/api/admin/domain", platformApex, map[string]string{
			"domain": "claimed.example.com",
		}, other)
		require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
		_ = otherTenant

		rec = e.do(t, http.MethodPost, "/api/admin/domain", platformApex, map[string]string{
			"domain": "claimed.example.com",
		}, cookie)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unauthenticated request", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/admin/domain", platformApex, map[string]string{
			"domain": "shop.example.com",
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestDNSMismatchKeepsPending(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	cookie, tenantID := e.register(t, "owner@example.com", "Corner Shop")

	e.verifier.set(onboarding.CheckResult{
		Status: onboarding.CheckMismatch,
		Detail: "A record points elsewhere",
	}, nil)

	rec := e.do(t, http.MethodPost, "/api/admin/domain", platformApex, map[string]string{
		"domain": "shop.example.com",
	}, cookie)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	stored, err := e.tenants.ByID(t.Context(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, tenant.DomainDNSPending, stored.DomainStatus)

	// Operator fixes DNS and re-checks.
	e.verifier.set(onboarding.CheckResult{Status: onboarding.CheckOK}, nil)
	rec = e.do(t, http.MethodPost, "/api/admin/domain/dns-check", platformApex, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err = e.tenants.ByID(t.Context(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, tenant.DomainDNSVerified, stored.DomainStatus)
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	tenants := tenant.NewMemoryStore()
	handlers := httpserver.NewHandlers(httpserver.HandlersConfig{
		Tenants:      tenants,
		Catalog:      catalog.NewService(newMemCatalogStore(), nil),
		Operators:    operator.NewService(newMemOperatorStore(), operator.WithBcryptCost(4)),
		Verifier:     &fakeVerifier{},
		Provisioner:  &fakeProvisioner{},
		PlatformApex: platformApex,
	})

	healthy := func(ctx context.Context) error { return nil }
	unhealthy := func(ctx context.Context) error { return context.DeadlineExceeded }

	t.Run("all dependencies healthy", func(t *testing.T) {
		router := handlers.Router(httpserver.RouterConfig{
			Sessions:     session.NewManager(newMemSessionStore()),
			Resolver:     tenant.NewResolver(tenants, platformApex),
			HealthChecks: map[string]httpserver.HealthCheck{"postgres": healthy},
		})

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Host = platformApex
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("failing dependency flips the status", func(t *testing.T) {
		router := handlers.Router(httpserver.RouterConfig{
			Sessions:     session.NewManager(newMemSessionStore()),
			Resolver:     tenant.NewResolver(tenants, platformApex),
			HealthChecks: map[string]httpserver.HealthCheck{"postgres": healthy, "redis": unhealthy},
		})

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Host = platformApex
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
