package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shawnhank/nomnomlog-sub000/internal/domain"
	"github.com/shawnhank/nomnomlog-sub000/internal/service"
	"github.com/shawnhank/nomnomlog-sub000/pkg/httputil"
	"github.com/shawnhank/nomnomlog-sub000/pkg/middleware"
	"github.com/shawnhank/nomnomlog-sub000/pkg/pagination"
)

// MealHandler serves the caller's meals.
type MealHandler struct {
	service *service.MealService
	logger  *slog.Logger
}

// NewMealHandler creates a new meal HTTP handler.
func NewMealHandler(svc *service.MealService, logger *slog.Logger) *MealHandler {
	return &MealHandler{service: svc, logger: logger}
}

// CreateMealRequest is the JSON body for POST /api/meals.
type CreateMealRequest struct {
	RestaurantID    string     `json:"restaurant_id" validate:"required,uuid"`
	Name            string     `json:"name" validate:"required,notblank,max=200"`
	Description     string     `json:"description" validate:"max=2000"`
	Rating          int        `json:"rating" validate:"gte=0,lte=5"`
	WouldOrderAgain bool       `json:"would_order_again"`
	Notes           string     `json:"notes" validate:"max=5000"`
	PhotoKeys       []string   `json:"photo_keys" validate:"max=10"`
	Tags            []string   `json:"tags" validate:"max=20,dive,max=50"`
	VisitedAt       *time.Time `json:"visited_at"`
}

// UpdateMealRequest is the JSON body for PUT /api/meals/{id}. Absent fields
// are left unchanged.
type UpdateMealRequest struct {
	RestaurantID    *string    `json:"restaurant_id" validate:"omitempty,uuid"`
	Name            *string    `json:"name" validate:"omitempty,notblank,max=200"`
	Description     *string    `json:"description" validate:"omitempty,max=2000"`
	Rating          *int       `json:"rating" validate:"omitempty,gte=0,lte=5"`
	WouldOrderAgain *bool      `json:"would_order_again"`
	Notes           *string    `json:"notes" validate:"omitempty,max=5000"`
	PhotoKeys       *[]string  `json:"photo_keys" validate:"omitempty,max=10"`
	Tags            *[]string  `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	VisitedAt       *time.Time `json:"visited_at"`
}

// Create handles POST /api/meals.
func (h *MealHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateMealRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	meal, err := h.service.Create(r.Context(), middleware.UserIDFromContext(r.Context()), service.CreateMealInput{
		RestaurantID:    req.RestaurantID,
		Name:            req.Name,
		Description:     req.Description,
		Rating:          req.Rating,
		WouldOrderAgain: req.WouldOrderAgain,
		Notes:           req.Notes,
		PhotoKeys:       req.PhotoKeys,
		Tags:            req.Tags,
		VisitedAt:       req.VisitedAt,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, meal)
}

// List handles GET /api/meals?restaurant_id=&tag=.
func (h *MealHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.MealFilter{Tag: q.Get("tag")}
	if rid := q.Get("restaurant_id"); rid != "" {
		id, ok := httputil.ParseUUID(w, rid)
		if !ok {
			return
		}
		filter.RestaurantID = id.String()
	}

	res, err := h.service.List(r.Context(), middleware.UserIDFromContext(r.Context()), filter, pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// Get handles GET /api/meals/{id}.
func (h *MealHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	meal, err := h.service.Get(r.Context(), middleware.UserIDFromContext(r.Context()), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, meal)
}

// Update handles PUT /api/meals/{id}.
func (h *MealHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateMealRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	meal, err := h.service.Update(r.Context(), middleware.UserIDFromContext(r.Context()), id.String(), service.UpdateMealInput{
		RestaurantID:    req.RestaurantID,
		Name:            req.Name,
		Description:     req.Description,
		Rating:          req.Rating,
		WouldOrderAgain: req.WouldOrderAgain,
		Notes:           req.Notes,
		PhotoKeys:       req.PhotoKeys,
		Tags:            req.Tags,
		VisitedAt:       req.VisitedAt,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, meal)
}

// Delete handles DELETE /api/meals/{id}.
func (h *MealHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
