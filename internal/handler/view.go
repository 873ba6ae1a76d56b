package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/inkpost/inkpost/internal/model"
	"github.com/inkpost/inkpost/internal/service"
)

// ViewHandler renders the article pages.
type ViewHandler struct {
	svc    *service.ArticleService
	views  *Renderer
	logger *slog.Logger
}

// NewViewHandler creates a new ViewHandler.
func NewViewHandler(svc *service.ArticleService, views *Renderer, logger *slog.Logger) *ViewHandler {
	return &ViewHandler{
		svc:    svc,
		views:  views,
		logger: logger,
	}
}

// ArticleList handles GET /articles.
func (h *ViewHandler) ArticleList(w http.ResponseWriter, r *http.Request) {
	articles, err := h.svc.List(r.Context())
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	h.views.Render(w, r, http.StatusOK, pageArticleList, viewData{
		Title:    "Articles",
		Articles: articles,
	})
}

// Article handles GET /articles/{id}.
func (h *ViewHandler) Article(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		h.views.RenderError(w, r, http.StatusNotFound, "That article does not exist.")
		return
	}

	article, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	h.views.Render(w, r, http.StatusOK, pageArticle, viewData{
		Title:   article.Title,
		Article: article,
	})
}

// NewArticle handles GET /new-article. With ?id= the form is prefilled for
// editing that article.
func (h *ViewHandler) NewArticle(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		h.views.Render(w, r, http.StatusOK, pageNewArticle, viewData{
			Title:   "New article",
			Article: &model.Article{},
		})
		return
	}

	id, ok := parsePositiveInt(raw)
	if !ok {
		h.views.RenderError(w, r, http.StatusNotFound, "That article does not exist.")
		return
	}

	article, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	h.views.Render(w, r, http.StatusOK, pageNewArticle, viewData{
		Title:   "Edit article",
		Article: article,
	})
}

func (h *ViewHandler) renderServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrArticleNotFound) {
		h.views.RenderError(w, r, http.StatusNotFound, "That article does not exist.")
		return
	}
	h.logger.Error("view_error", "path", r.URL.Path, "error", err)
	h.views.RenderError(w, r, http.StatusInternalServerError, "Something went wrong, please try again.")
}
