package handler

import (
	"log/slog"
	"net/http"

	"github.com/inkpost/inkpost/internal/auth"
	"github.com/inkpost/inkpost/internal/handler/dto"
	"github.com/inkpost/inkpost/internal/service"
)

// ArticleHandler handles the JSON article API.
type ArticleHandler struct {
	svc    *service.ArticleService
	logger *slog.Logger
}

// NewArticleHandler creates a new ArticleHandler.
func NewArticleHandler(svc *service.ArticleService, logger *slog.Logger) *ArticleHandler {
	return &ArticleHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/articles.
func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.ArticleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	article, err := h.svc.Create(r.Context(), req.Title, req.Content)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("article_created",
		"article_id", article.ID,
		"account_id", auth.AccountIDFromContext(r.Context()),
	)

	writeJSON(w, http.StatusCreated, dto.ToArticleResponse(article))
}

// List handles GET /api/articles.
func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	articles, err := h.svc.List(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToArticleListResponse(articles))
}

// Get handles GET /api/articles/{id}.
func (h *ArticleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Article ID must be a positive integer")
		return
	}

	article, err := h.svc.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToArticleResponse(article))
}

// Update handles PUT /api/articles/{id}.
func (h *ArticleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Article ID must be a positive integer")
		return
	}

	var req dto.ArticleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	article, err := h.svc.Update(r.Context(), id, req.Title, req.Content)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("article_updated",
		"article_id", article.ID,
		"account_id", auth.AccountIDFromContext(r.Context()),
	)

	writeJSON(w, http.StatusOK, dto.ToArticleResponse(article))
}

// Delete handles DELETE /api/articles/{id}.
// Deleting an id that does not exist still answers 200.
func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Article ID must be a positive integer")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("article_deleted",
		"article_id", id,
		"account_id", auth.AccountIDFromContext(r.Context()),
	)

	w.WriteHeader(http.StatusOK)
}
