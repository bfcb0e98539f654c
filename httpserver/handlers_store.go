package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/vitrinehq/vitrine/core/catalog"
	"github.com/vitrinehq/vitrine/core/logger"
	"github.com/vitrinehq/vitrine/core/tenant"
	"github.com/vitrinehq/vitrine/middleware"
	"github.com/vitrinehq/vitrine/pkg/qr"
	"github.com/vitrinehq/vitrine/pkg/whatsapp"
)

type storefrontResponse struct {
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	LogoURL        string            `json:"logo_url,omitempty"`
	PrimaryColor   string            `json:"primary_color,omitempty"`
	SecondaryColor string            `json:"secondary_color,omitempty"`
	Template       string            `json:"template"`
	Products       []productResponse `json:"products"`
}

type productResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price"`
	ImageURL    string `json:"image_url,omitempty"`
	Stock       int    `json:"stock"`
	Available   bool   `json:"available"`
}

func toProductResponse(p catalog.Product) productResponse {
	return productResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		ImageURL:    p.ImageURL,
		Stock:       p.Stock,
		Available:   p.Available,
	}
}

// handleStorefront renders the tenant's public catalog.
func (h *Handlers) handleStorefront(w http.ResponseWriter, r *http.Request) {
	match, ok := middleware.GetTenant(r.Context())
	if !ok {
		http.NotFound(w, r)
		return
	}
	t := match.Tenant

	products, err := h.catalog.ListProducts(r.Context(), t.ID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "catalog listing failed",
			logger.TenantID(t.ID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, errors.New("catalog unavailable"))
		return
	}

	resp := storefrontResponse{
		Name:           t.Name,
		Description:    t.Description,
		LogoURL:        t.LogoURL,
		PrimaryColor:   t.PrimaryColor,
		SecondaryColor: t.SecondaryColor,
		Template:       t.Template.String(),
		Products:       make([]productResponse, 0, len(products)),
	}
	for _, p := range products {
		if !p.Available {
			continue
		}
		resp.Products = append(resp.Products, toProductResponse(p))
	}

	writeJSON(w, http.StatusOK, resp)
}

type orderRequest struct {
	CustomerName  string             `json:"customer_name"`
	CustomerPhone string             `json:"customer_phone"`
	Items         []orderRequestItem `json:"items"`
}

type orderRequestItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type orderResponse struct {
	OrderID      string `json:"order_id"`
	Number       int64  `json:"number"`
	Total        string `json:"total"`
	WhatsAppLink string `json:"whatsapp_link,omitempty"`
}

// handleCreateOrder validates the visitor's cart, records the order, and
// hands back a prefilled WhatsApp link so the customer can confirm with the
// store directly.
func (h *Handlers) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	match, ok := middleware.GetTenant(r.Context())
	if !ok {
		http.NotFound(w, r)
		return
	}
	t := match.Tenant

	var req orderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	items := make([]catalog.OrderRequestItem, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid product id"))
			return
		}
		if item.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, errors.New("quantity must be positive"))
			return
		}
		items = append(items, catalog.OrderRequestItem{ProductID: productID, Quantity: item.Quantity})
	}

	order, err := h.catalog.PlaceOrder(r.Context(), t.ID, catalog.OrderRequest{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Items:         items,
	})
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrEmptyOrder):
			writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, catalog.ErrProductNotFound):
			writeError(w, http.StatusNotFound, err)
		case errors.Is(err, catalog.ErrInsufficientStock):
			writeError(w, http.StatusConflict, err)
		default:
			h.log.ErrorContext(r.Context(), "order placement failed",
				logger.TenantID(t.ID), logger.Error(err))
			writeError(w, http.StatusInternalServerError, errors.New("order placement failed"))
		}
		return
	}

	resp := orderResponse{
		OrderID: order.ID.String(),
		Number:  order.Number,
		Total:   order.Total().StringFixed(2),
	}
	if t.WhatsApp != "" {
		link, err := whatsapp.Link(t.WhatsApp,
			whatsapp.OrderConfirmation(t.Name, order.Number, order.Total()))
		if err == nil {
			resp.WhatsAppLink = link
		}
	}

	writeJSON(w, http.StatusCreated, resp)
}

// handleStoreQR returns a PNG QR code pointing at the storefront. Custom
// domains are only advertised once Active; before that the platform URL is
// encoded.
func (h *Handlers) handleStoreQR(w http.ResponseWriter, r *http.Request) {
	match, ok := middleware.GetTenant(r.Context())
	if !ok {
		http.NotFound(w, r)
		return
	}
	t := match.Tenant

	size := qr.DefaultSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			size = n
		}
	}

	png, err := qr.PNG(h.storefrontURL(t), size)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(png)
}

// storefrontURL returns the canonical public URL for a tenant's storefront.
func (h *Handlers) storefrontURL(t *tenant.Tenant) string {
	if t.DomainIsPublic() {
		return "https://" + t.CustomDomain
	}
	return "https://" + h.platformApex + "/e/" + t.PlatformSlug
}
