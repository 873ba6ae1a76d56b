package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/inkpost/inkpost/internal/auth"
	"github.com/inkpost/inkpost/internal/model"
	"github.com/inkpost/inkpost/internal/session"
)

// LoginPath is where unauthenticated browsers are sent.
const LoginPath = "/login"

// SessionResolver resolves a session token to a live session.
type SessionResolver interface {
	Lookup(ctx context.Context, token string) (*model.Session, error)
}

// SessionGateConfig configures the authentication gate.
type SessionGateConfig struct {
	Logger     *slog.Logger
	Sessions   SessionResolver
	CookieName string
	// PublicPaths are reachable without a session. Entries ending in "/"
	// match by prefix, everything else exactly.
	PublicPaths []string
}

// DefaultPublicPaths lists the pages and endpoints reachable without login.
func DefaultPublicPaths() []string {
	return []string{
		"/login",
		"/signup",
		"/user",
		"/healthz",
		"/readyz",
		"/metrics",
		"/static/",
	}
}

// SessionGate returns middleware that requires a valid session cookie for
// every path outside PublicPaths. Unauthenticated requests are redirected
// to the login page with 302. On success the principal is stored in the
// request context.
func SessionGate(cfg SessionGateConfig) func(http.Handler) http.Handler {
	exact := make(map[string]bool)
	var prefixes []string
	for _, p := range cfg.PublicPaths {
		if strings.HasSuffix(p, "/") {
			prefixes = append(prefixes, p)
			continue
		}
		exact[p] = true
	}

	isPublic := func(path string) bool {
		if exact[path] {
			return true
		}
		for _, p := range prefixes {
			if strings.HasPrefix(path, p) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			public := isPublic(r.URL.Path)

			sess, err := resolveSession(r, cfg)
			if err != nil {
				cfg.Logger.Error("session lookup failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				if !public {
					http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
					return
				}
			}

			if sess == nil {
				if public {
					next.ServeHTTP(w, r)
					return
				}
				http.Redirect(w, r, LoginPath, http.StatusFound)
				return
			}

			principal := sess.Principal()
			recordPrincipal(r.Context(), principal)
			ctx := auth.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolveSession returns the session named by the request cookie, nil when
// there is none (or it is invalid/expired), or an error when the store fails.
func resolveSession(r *http.Request, cfg SessionGateConfig) (*model.Session, error) {
	cookie, err := r.Cookie(cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	sess, err := cfg.Sessions.Lookup(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrInvalidToken) {
			return nil, nil
		}
		return nil, err
	}
	return sess, nil
}
