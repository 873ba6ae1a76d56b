package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/inkpost/inkpost/internal/auth"
	"github.com/inkpost/inkpost/internal/metrics"
	"github.com/inkpost/inkpost/internal/service"
	"github.com/inkpost/inkpost/internal/session"
)

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandler serves the login, signup and logout flow.
type AuthHandler struct {
	accounts *service.AccountService
	sessions *session.Manager
	views    *Renderer
	metrics  metrics.Recorder
	cookie   CookieConfig
	logger   *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	accounts *service.AccountService,
	sessions *session.Manager,
	views *Renderer,
	recorder metrics.Recorder,
	cookie CookieConfig,
	logger *slog.Logger,
) *AuthHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthHandler{
		accounts: accounts,
		sessions: sessions,
		views:    views,
		metrics:  recorder,
		cookie:   cookie,
		logger:   logger,
	}
}

// LoginPage handles GET /login.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if auth.PrincipalFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/articles", http.StatusFound)
		return
	}

	data := viewData{Title: "Log in"}
	query := r.URL.Query()
	if query.Has("error") {
		data.Error = "Invalid email or password."
	}
	if query.Has("registered") {
		data.Notice = "Account created. You can log in now."
	}
	if query.Has("logout") {
		data.Notice = "You have been logged out."
	}

	h.views.Render(w, r, http.StatusOK, pageLogin, data)
}

// SignupPage handles GET /signup.
func (h *AuthHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, r, http.StatusOK, pageSignup, viewData{Title: "Sign up"})
}

// Login handles POST /login. The email may arrive as "username" or "email".
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.failLogin(w, r)
		return
	}

	email := r.PostFormValue("username")
	if email == "" {
		email = r.PostFormValue("email")
	}

	account, err := h.accounts.Authenticate(r.Context(), email, r.PostFormValue("password"))
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Error("login failed", "error", err)
		}
		h.failLogin(w, r)
		return
	}

	sess, err := h.sessions.Create(r.Context(), account)
	if err != nil {
		h.logger.Error("session create failed",
			"account_id", account.ID,
			"error", err,
		)
		h.views.RenderError(w, r, http.StatusServiceUnavailable, "Could not start a session, please try again.")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(h.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	h.metrics.IncLoginAttempt(metrics.LoginSuccess)
	h.logger.Info("login_succeeded",
		"account_id", account.ID,
		"session_id", sess.ID,
	)

	http.Redirect(w, r, "/articles", http.StatusSeeOther)
}

func (h *AuthHandler) failLogin(w http.ResponseWriter, r *http.Request) {
	h.metrics.IncLoginAttempt(metrics.LoginFailure)
	h.logger.Info("login_failed")
	http.Redirect(w, r, "/login?error", http.StatusSeeOther)
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(h.cookie.Name); err == nil {
		if err := h.sessions.Destroy(r.Context(), cookie.Value); err != nil {
			h.logger.Error("session destroy failed", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	if p := auth.PrincipalFromContext(r.Context()); p != nil {
		h.logger.Info("logout", "account_id", p.AccountID, "session_id", p.SessionID)
	}
	h.metrics.IncLogout()

	http.Redirect(w, r, "/login?logout", http.StatusSeeOther)
}
