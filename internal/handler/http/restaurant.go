package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shawnhank/nomnomlog-sub000/internal/domain"
	"github.com/shawnhank/nomnomlog-sub000/internal/service"
	"github.com/shawnhank/nomnomlog-sub000/pkg/httputil"
	"github.com/shawnhank/nomnomlog-sub000/pkg/middleware"
	"github.com/shawnhank/nomnomlog-sub000/pkg/pagination"
)

// RestaurantHandler serves the caller's restaurants.
type RestaurantHandler struct {
	service *service.RestaurantService
	logger  *slog.Logger
}

// NewRestaurantHandler creates a new restaurant HTTP handler.
func NewRestaurantHandler(svc *service.RestaurantService, logger *slog.Logger) *RestaurantHandler {
	return &RestaurantHandler{service: svc, logger: logger}
}

// CreateRestaurantRequest is the JSON body for POST /api/restaurants.
type CreateRestaurantRequest struct {
	Name       string   `json:"name" validate:"required,notblank,max=200"`
	Address    string   `json:"address" validate:"max=500"`
	Phone      string   `json:"phone" validate:"max=50"`
	Website    string   `json:"website" validate:"omitempty,http_url,max=500"`
	Rating     int      `json:"rating" validate:"gte=0,lte=5"`
	Notes      string   `json:"notes" validate:"max=5000"`
	IsFavorite bool     `json:"is_favorite"`
	ExternalID string   `json:"external_id" validate:"max=100"`
	Tags       []string `json:"tags" validate:"max=20,dive,max=50"`
}

// UpdateRestaurantRequest is the JSON body for PUT /api/restaurants/{id}.
// Absent fields are left unchanged.
type UpdateRestaurantRequest struct {
	Name       *string   `json:"name" validate:"omitempty,notblank,max=200"`
	Address    *string   `json:"address" validate:"omitempty,max=500"`
	Phone      *string   `json:"phone" validate:"omitempty,max=50"`
	Website    *string   `json:"website" validate:"omitempty,http_url,max=500"`
	Rating     *int      `json:"rating" validate:"omitempty,gte=0,lte=5"`
	Notes      *string   `json:"notes" validate:"omitempty,max=5000"`
	IsFavorite *bool     `json:"is_favorite"`
	ExternalID *string   `json:"external_id" validate:"omitempty,max=100"`
	Tags       *[]string `json:"tags" validate:"omitempty,max=20,dive,max=50"`
}

// Create handles POST /api/restaurants.
func (h *RestaurantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRestaurantRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	rest, err := h.service.Create(r.Context(), middleware.UserIDFromContext(r.Context()), service.CreateRestaurantInput{
		Name:       req.Name,
		Address:    req.Address,
		Phone:      req.Phone,
		Website:    req.Website,
		Rating:     req.Rating,
		Notes:      req.Notes,
		IsFavorite: req.IsFavorite,
		ExternalID: req.ExternalID,
		Tags:       req.Tags,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, rest)
}

// List handles GET /api/restaurants?q=&tag=&favorite=.
func (h *RestaurantHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	favorite, _ := strconv.ParseBool(q.Get("favorite"))
	filter := domain.RestaurantFilter{
		Query:        q.Get("q"),
		Tag:          q.Get("tag"),
		FavoriteOnly: favorite,
	}

	res, err := h.service.List(r.Context(), middleware.UserIDFromContext(r.Context()), filter, pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// Get handles GET /api/restaurants/{id}.
func (h *RestaurantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	rest, err := h.service.Get(r.Context(), middleware.UserIDFromContext(r.Context()), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, rest)
}

// Update handles PUT /api/restaurants/{id}.
func (h *RestaurantHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateRestaurantRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	rest, err := h.service.Update(r.Context(), middleware.UserIDFromContext(r.Context()), id.String(), service.UpdateRestaurantInput{
		Name:       req.Name,
		Address:    req.Address,
		Phone:      req.Phone,
		Website:    req.Website,
		Rating:     req.Rating,
		Notes:      req.Notes,
		IsFavorite: req.IsFavorite,
		ExternalID: req.ExternalID,
		Tags:       req.Tags,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, rest)
}

// Delete handles DELETE /api/restaurants/{id}.
func (h *RestaurantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), middleware.UserIDFromContext(r.Context()), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
