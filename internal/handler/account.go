package handler

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/inkpost/inkpost/internal/handler/dto"
	"github.com/inkpost/inkpost/internal/service"
)

// AccountHandler handles account registration.
type AccountHandler struct {
	svc    *service.AccountService
	views  *Renderer
	logger *slog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(svc *service.AccountService, views *Renderer, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		svc:    svc,
		views:  views,
		logger: logger,
	}
}

// Create handles POST /user. JSON bodies get a JSON answer; form posts from
// the signup page are redirected to the login page on success.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	if isJSONRequest(r) {
		h.createJSON(w, r)
		return
	}
	h.createForm(w, r)
}

func (h *AccountHandler) createJSON(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.svc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("account_registered", "account_id", account.ID)
	writeJSON(w, http.StatusCreated, dto.ToAccountResponse(account))
}

func (h *AccountHandler) createForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.views.RenderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	email := r.PostFormValue("email")
	account, err := h.svc.Register(r.Context(), email, r.PostFormValue("password"))
	if err != nil {
		data := viewData{Title: "Sign up", Form: formValues{Email: email}}

		var vErr *service.ValidationError
		switch {
		case errors.As(err, &vErr):
			data.Error = vErr.Message
			h.views.Render(w, r, http.StatusBadRequest, pageSignup, data)
		case errors.Is(err, service.ErrEmailTaken):
			data.Error = "That email is already registered."
			h.views.Render(w, r, http.StatusConflict, pageSignup, data)
		default:
			h.logger.Error("account registration failed", "error", err)
			h.views.RenderError(w, r, http.StatusInternalServerError, "Something went wrong, please try again.")
		}
		return
	}

	h.logger.Info("account_registered", "account_id", account.ID)
	http.Redirect(w, r, "/login?registered", http.StatusSeeOther)
}

func isJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}
