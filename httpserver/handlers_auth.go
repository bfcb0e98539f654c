package httpserver

import (
	"errors"
	"net/http"

	"github.com/vitrinehq/vitrine/core/logger"
	"github.com/vitrinehq/vitrine/core/operator"
	"github.com/vitrinehq/vitrine/core/tenant"
	"github.com/vitrinehq/vitrine/middleware"
	"github.com/vitrinehq/vitrine/pkg/slug"
)

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	StoreName string `json:"store_name"`
	WhatsApp  string `json:"whatsapp"`
}

type accountResponse struct {
	OperatorID string `json:"operator_id"`
	TenantID   string `json:"tenant_id"`
	StoreSlug  string `json:"store_slug"`
}

// handleRegister creates an operator account with its tenant and signs the
// session in. The store slug is derived from the store name; on a collision a
// random suffix is appended rather than failing the registration.
func (h *Handlers) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.StoreName == "" {
		writeError(w, http.StatusBadRequest, errors.New("store_name is required"))
		return
	}

	op, err := h.operators.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, operator.ErrEmailTaken):
			writeError(w, http.StatusConflict, err)
		case errors.Is(err, operator.ErrInvalidEmail), errors.Is(err, operator.ErrWeakPassword):
			writeError(w, http.StatusBadRequest, err)
		default:
			h.log.ErrorContext(r.Context(), "operator registration failed", logger.Error(err))
			writeError(w, http.StatusInternalServerError, errors.New("registration failed"))
		}
		return
	}

	t := &tenant.Tenant{
		OwnerID:      op.ID,
		PlatformSlug: slug.Make(req.StoreName),
		Name:         req.StoreName,
		WhatsApp:     req.WhatsApp,
		Email:        op.Email,
		Template:     tenant.TemplateDefault,
		Active:       true,
	}
	if err := h.tenants.Create(r.Context(), t); err != nil {
		if errors.Is(err, tenant.ErrSlugTaken) {
			t.PlatformSlug = slug.Make(req.StoreName, slug.WithSuffix(6))
			err = h.tenants.Create(r.Context(), t)
		}
		if err != nil {
			h.log.ErrorContext(r.Context(), "tenant creation failed", logger.Error(err))
			writeError(w, http.StatusInternalServerError, errors.New("registration failed"))
			return
		}
	}

	if sess, ok := middleware.GetSession(r.Context()); ok {
		if err := sess.Authenticate(op.ID, t.ID); err != nil {
			writeError(w, http.StatusInternalServerError, errors.New("session failure"))
			return
		}
	}

	writeJSON(w, http.StatusCreated, accountResponse{
		OperatorID: op.ID.String(),
		TenantID:   t.ID.String(),
		StoreSlug:  t.PlatformSlug,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin verifies credentials and binds the session to the operator's
// tenant, rotating the session token.
func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	op, err := h.operators.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, operator.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		h.log.ErrorContext(r.Context(), "login failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, errors.New("login failed"))
		return
	}

	t, err := h.tenants.ByOwner(r.Context(), op.ID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "tenant lookup failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, errors.New("login failed"))
		return
	}

	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("session failure"))
		return
	}
	if err := sess.Authenticate(op.ID, t.ID); err != nil {
		writeError(w, http.StatusInternalServerError, errors.New("session failure"))
		return
	}

	writeJSON(w, http.StatusOK, accountResponse{
		OperatorID: op.ID.String(),
		TenantID:   t.ID.String(),
		StoreSlug:  t.PlatformSlug,
	})
}

// handleLogout marks the session deleted; the middleware clears the cookie.
func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := middleware.GetSession(r.Context()); ok {
		sess.Logout()
	}
	w.WriteHeader(http.StatusNoContent)
}
