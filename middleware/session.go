package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/vitrinehq/vitrine/core/session"
)

// SessionCookieName is the cookie carrying the session bearer token.
const SessionCookieName = "vitrine_session"

// sessionContextKey is used as a key for storing the session in the request
// context.
type sessionContextKey struct{}

// SessionConfig configures the session middleware.
type SessionConfig struct {
	// Manager handles session lifecycle. Required.
	Manager *session.Manager

	// CookieName overrides the session cookie name.
	CookieName string

	// Secure marks the cookie Secure; enable everywhere except local dev.
	Secure bool
}

// Session loads the operator session from the request cookie, starting a
// fresh anonymous one when absent or expired. Handlers mutate the session via
// the context pointer; the middleware persists it and keeps the cookie in
// sync with token rotation. The sync happens right before the handler writes
// its first response byte, since Set-Cookie headers written after the
// response is flushed are lost.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = SessionCookieName
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var cookieToken string
			if cookie, err := r.Cookie(cfg.CookieName); err == nil {
				cookieToken = cookie.Value
			}

			sess, err := loadOrBegin(r, cfg.Manager, cookieToken)
			if err != nil {
				http.Error(w, "session unavailable", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, &sess)

			sw := &sessionWriter{ResponseWriter: w, persist: func() {
				switch err := cfg.Manager.Store(r.Context(), sess); {
				case errors.Is(err, session.ErrNotAuthenticated):
					clearCookie(w, cfg.CookieName, cfg.Secure)
				case err == nil:
					if sess.Token != cookieToken {
						setCookie(w, cfg.CookieName, sess.Token, cfg.Manager.TTL(), cfg.Secure)
					}
				}
			}}

			next.ServeHTTP(sw, r.WithContext(ctx))

			// Handlers that wrote nothing still get their session persisted.
			sw.syncOnce()
		})
	}
}

// sessionWriter defers session persistence until the handler commits the
// response, so the cookie lands in the headers before they are flushed.
type sessionWriter struct {
	http.ResponseWriter
	persist func()
	synced  bool
}

func (w *sessionWriter) syncOnce() {
	if !w.synced {
		w.synced = true
		w.persist()
	}
}

func (w *sessionWriter) WriteHeader(code int) {
	w.syncOnce()
	w.ResponseWriter.WriteHeader(code)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.syncOnce()
	return w.ResponseWriter.Write(b)
}

func loadOrBegin(r *http.Request, manager *session.Manager, token string) (session.Session, error) {
	if token != "" {
		sess, err := manager.GetByToken(r.Context(), token)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, session.ErrNotFound) && !errors.Is(err, session.ErrExpired) {
			return session.Session{}, err
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return manager.Begin(r.Context(), session.NewParams{
		IP:        ip,
		UserAgent: r.UserAgent(),
	})
}

// GetSession retrieves the session from the request context. Mutations
// through the pointer are persisted by the middleware after the handler
// returns.
func GetSession(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*session.Session)
	return sess, ok
}

// RequireAuth rejects unauthenticated requests. Browser requests are
// redirected to loginPath; API-style requests (Accept: application/json) get
// a 401.
func RequireAuth(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := GetSession(r.Context())
			if !ok || !sess.IsAuthenticated() {
				if r.Header.Get("Accept") == "application/json" {
					http.Error(w, "authentication required", http.StatusUnauthorized)
					return
				}
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func setCookie(w http.ResponseWriter, name, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCookie(w http.ResponseWriter, name string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
