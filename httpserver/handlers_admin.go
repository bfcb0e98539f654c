package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vitrinehq/vitrine/core/catalog"
	"github.com/vitrinehq/vitrine/core/logger"
	"github.com/vitrinehq/vitrine/core/tenant"
)

type profileRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	LogoURL        string `json:"logo_url"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	WhatsApp       string `json:"whatsapp"`
	Email          string `json:"email"`
	Address        string `json:"address"`
	Template       int    `json:"template"`
	Active         bool   `json:"active"`
}

type profileResponse struct {
	PlatformSlug   string `json:"platform_slug"`
	CustomDomain   string `json:"custom_domain,omitempty"`
	DomainStatus   string `json:"domain_status"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	LogoURL        string `json:"logo_url,omitempty"`
	PrimaryColor   string `json:"primary_color,omitempty"`
	SecondaryColor string `json:"secondary_color,omitempty"`
	WhatsApp       string `json:"whatsapp,omitempty"`
	Email          string `json:"email,omitempty"`
	Address        string `json:"address,omitempty"`
	Template       string `json:"template"`
	Active         bool   `json:"active"`
}

func toProfileResponse(t *tenant.Tenant) profileResponse {
	return profileResponse{
		PlatformSlug:   t.PlatformSlug,
		CustomDomain:   t.CustomDomain,
		DomainStatus:   string(t.DomainStatus),
		Name:           t.Name,
		Description:    t.Description,
		LogoURL:        t.LogoURL,
		PrimaryColor:   t.PrimaryColor,
		SecondaryColor: t.SecondaryColor,
		WhatsApp:       t.WhatsApp,
		Email:          t.Email,
		Address:        t.Address,
		Template:       t.Template.String(),
		Active:         t.Active,
	}
}

// handleGetProfile returns the operator's tenant profile, including the
// read-only slug and domain state.
func (h *Handlers) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	t := h.sessionTenant(w, r)
	if t == nil {
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(t))
}

// handleUpdateProfile replaces the tenant's editable profile fields. The slug
// and domain configuration are not editable here; domains go through the
// onboarding endpoints.
func (h *Handlers) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	t := h.sessionTenant(w, r)
	if t == nil {
		return
	}

	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, errors.New("name is required"))
		return
	}

	profile := tenant.Profile{
		Name:           req.Name,
		Description:    req.Description,
		LogoURL:        req.LogoURL,
		PrimaryColor:   req.PrimaryColor,
		SecondaryColor: req.SecondaryColor,
		WhatsApp:       req.WhatsApp,
		Email:          req.Email,
		Address:        req.Address,
		Template:       tenant.TemplateFromID(req.Template),
		Active:         req.Active,
	}

	if err := h.tenants.UpdateProfile(r.Context(), t.ID, profile); err != nil {
		h.log.ErrorContext(r.Context(), "profile update failed",
			logger.TenantID(t.ID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, errors.New("profile update failed"))
		return
	}

	profile.Apply(t)
	writeJSON(w, http.StatusOK, toProfileResponse(t))
}

type productRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	ImageURL    string `json:"image_url"`
	Stock       int    `json:"stock"`
	Available   bool   `json:"available"`
}

func (req productRequest) apply(p *catalog.Product) error {
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return errors.New("invalid price")
	}
	p.Name = req.Name
	p.Description = req.Description
	p.Price = price
	p.ImageURL = req.ImageURL
	p.Stock = req.Stock
	p.Available = req.Available
	return nil
}

// handleListProducts returns the full catalog, including products hidden from
// the storefront.
func (h *Handlers) handleListProducts(w http.ResponseWriter, r *http.Request) {
	t := h.sessionTenant(w, r)
	if t == nil {
		return
	}

	products, err := h.catalog.ListProducts(r.Context(), t.ID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "catalog listing failed",
			logger.TenantID(t.ID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, errors.New("catalog unavailable"))
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	t := h.sessionTenant(w, r)
	if t == nil {
		return
	}

	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p := catalog.Product{TenantID: t.ID}
	if err := req.apply(&p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.catalog.SaveProduct(r.Context(), &p); err != nil {
		if errors.Is(err, catalog.ErrInvalidProduct) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		h.log.ErrorContext(r.Context(), "product save failed",
			logger.TenantID(t.ID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, errors.New("product save failed"))
		return
	}

	writeJSON(w, http.StatusCreated, toProductResponse(p))
}

func (h *Handlers) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	t := h.sessionTenant(w, r)
	if t == nil {
		return
	}

	productID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid product id"))
		return
	}

	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := h.catalog.GetProduct(r.Context(), t.ID, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		h.log.ErrorContext(r.Context(), "product lookup failed",
			logger.TenantID(t.ID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, errors.New("product lookup failed"))
		return
	}

	if err := req.apply(p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.catalog.SaveProduct(r.Context(), p); err != nil {
		if errors.Is(err, catalog.ErrInvalidProduct) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		h.log.ErrorContext(r.Context(), "product save failed",
			logger.TenantID(t.ID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, errors.New("product save failed"))
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(*p))
}

func (h *Handlers) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	t := h.sessionTenant(w, r)
	if t == nil {
		return
	}

	productID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid product id"))
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), t.ID, productID); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		h.log.ErrorContext(r.Context(), "product delete failed",
			logger.TenantID(t.ID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, errors.New("product delete failed"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type statsResponse struct {
	Products int64  `json:"products"`
	Orders   int64  `json:"orders"`
	Revenue  string `json:"revenue"`
}

// handleStats returns the dashboard counters for the operator's tenant.
func (h *Handlers) handleStats(w http.ResponseWriter, r *http.Request) {
	t := h.sessionTenant(w, r)
	if t == nil {
		return
	}

	st, err := h.catalog.Stats(r.Context(), t.ID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "stats query failed",
			logger.TenantID(t.ID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, errors.New("stats unavailable"))
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Products: st.Products,
		Orders:   st.Orders,
		Revenue:  st.Revenue.StringFixed(2),
	})
}

type adminOrderResponse struct {
	ID            string              `json:"id"`
	Number        int64               `json:"number"`
	CustomerName  string              `json:"customer_name"`
	CustomerPhone string              `json:"customer_phone"`
	Status        string              `json:"status"`
	Total         string              `json:"total"`
	Items         []orderItemResponse `json:"items"`
	CreatedAt     string              `json:"created_at"`
}

type orderItemResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

// handleListOrders returns the tenant's recent orders, newest first. The
// limit query parameter caps the page; it defaults inside the service.
func (h *Handlers) handleListOrders(w http.ResponseWriter, r *http.Request) {
	t := h.sessionTenant(w, r)
	if t == nil {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	orders, err := h.catalog.ListOrders(r.Context(), t.ID, limit)
	if err != nil {
		h.log.ErrorContext(r.Context(), "order listing failed",
			logger.TenantID(t.ID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, errors.New("order listing failed"))
		return
	}

	resp := make([]adminOrderResponse, 0, len(orders))
	for _, o := range orders {
		items := make([]orderItemResponse, 0, len(o.Items))
		for _, item := range o.Items {
			items = append(items, orderItemResponse{
				ProductID: item.ProductID.String(),
				Name:      item.Name,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice.StringFixed(2),
			})
		}
		resp = append(resp, adminOrderResponse{
			ID:            o.ID.String(),
			Number:        o.Number,
			CustomerName:  o.CustomerName,
			CustomerPhone: o.CustomerPhone,
			Status:        string(o.Status),
			Total:         o.Total().StringFixed(2),
			Items:         items,
			CreatedAt:     o.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
