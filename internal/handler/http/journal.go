package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shawnhank/nomnomlog-sub000/internal/domain"
	"github.com/shawnhank/nomnomlog-sub000/internal/service"
	apperrors "github.com/shawnhank/nomnomlog-sub000/pkg/errors"
	"github.com/shawnhank/nomnomlog-sub000/pkg/httputil"
	"github.com/shawnhank/nomnomlog-sub000/pkg/middleware"
)

// TagHandler serves GET /api/tags.
type TagHandler struct {
	service *service.TagService
	logger  *slog.Logger
}

// NewTagHandler creates a new tag HTTP handler.
func NewTagHandler(svc *service.TagService, logger *slog.Logger) *TagHandler {
	return &TagHandler{service: svc, logger: logger}
}

// List handles GET /api/tags.
func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.List(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	httputil.WriteData(w, http.StatusOK, tags)
}

// PhotoHandler serves presigned photo upload and download URLs. A nil
// service answers 503, which happens when no bucket is configured.
type PhotoHandler struct {
	service *service.PhotoService
	logger  *slog.Logger
}

// NewPhotoHandler creates a new photo HTTP handler.
func NewPhotoHandler(svc *service.PhotoService, logger *slog.Logger) *PhotoHandler {
	return &PhotoHandler{service: svc, logger: logger}
}

// PresignRequest is the JSON body for POST /api/photos/presign.
type PresignRequest struct {
	ContentType string `json:"content_type" validate:"required"`
}

// Presign handles POST /api/photos/presign.
func (h *PhotoHandler) Presign(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		httputil.WriteError(w, r, apperrors.ServiceUnavailable("photo storage is not configured", nil), h.logger)
		return
	}

	var req PresignRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	up, err := h.service.PresignUpload(r.Context(), middleware.UserIDFromContext(r.Context()), req.ContentType)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, up)
}

// Download handles GET /api/photos/* by redirecting to a presigned GET URL.
func (h *PhotoHandler) Download(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		httputil.WriteError(w, r, apperrors.ServiceUnavailable("photo storage is not configured", nil), h.logger)
		return
	}

	url, err := h.service.DownloadURL(r.Context(), chi.URLParam(r, "*"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// SearchHandler proxies business search. A nil service answers 503.
type SearchHandler struct {
	service *service.SearchService
	logger  *slog.Logger
}

// NewSearchHandler creates a new business search HTTP handler.
func NewSearchHandler(svc *service.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{service: svc, logger: logger}
}

// Search handles GET /api/search/businesses?term=&location=&limit=.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		httputil.WriteError(w, r, apperrors.ServiceUnavailable("business search is not configured", nil), h.logger)
		return
	}

	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("limit must be an integer"), h.logger)
			return
		}
		limit = n
	}

	res, err := h.service.Search(r.Context(), domain.BusinessQuery{
		Term:     q.Get("term"),
		Location: q.Get("location"),
		Limit:    limit,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}

// Get handles GET /api/search/businesses/{id}.
func (h *SearchHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		httputil.WriteError(w, r, apperrors.ServiceUnavailable("business search is not configured", nil), h.logger)
		return
	}

	b, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, b)
}
