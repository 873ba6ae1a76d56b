// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/inkpost/inkpost/internal/handler/dto"
	"github.com/inkpost/inkpost/internal/service"
)

// Handler serves the router-level fallbacks.
type Handler struct {
	views *Renderer
}

// New creates a new Handler instance.
func New(views *Renderer) *Handler {
	return &Handler{views: views}
}

// Home redirects to the article list.
// GET /
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/articles", http.StatusFound)
}

// NotFound handles 404 responses: JSON under /api/, an HTML page elsewhere.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	if isAPIRequest(r) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
		return
	}
	h.views.RenderError(w, r, http.StatusNotFound, "The page you are looking for does not exist.")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if isAPIRequest(r) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Default().Debug("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// decodeJSON decodes the request body into dst, writing the error response
// itself and returning false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return false
	}
	return true
}

// parseID reads the {id} URL parameter as a positive integer.
func parseID(r *http.Request) (int64, bool) {
	return parsePositiveInt(chi.URLParam(r, "id"))
}

func parsePositiveInt(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// handleServiceError maps service errors to JSON API responses.
func handleServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error: vErr.Error(),
			Code:  "VALIDATION_FAILED",
			Field: vErr.Field,
		})
	case errors.Is(err, service.ErrArticleNotFound), errors.Is(err, service.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", notFoundMessage(err))
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusConflict, "EMAIL_TAKEN", "Email is already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	default:
		logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// notFoundMessage strips the sentinel suffix so "not found:5: article not
// found" is reported as "not found:5".
func notFoundMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i > 0 {
		return msg[:i]
	}
	return msg
}
