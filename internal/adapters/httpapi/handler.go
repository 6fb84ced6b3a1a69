package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"classifieds-engine/internal/domain"
	infrahttp "classifieds-engine/internal/infra/http"
	"classifieds-engine/internal/usecase/calendar"
	"classifieds-engine/internal/usecase/feature"
	"classifieds-engine/internal/usecase/lifecycle"
	"classifieds-engine/internal/usecase/moderation"
)

// SweepRunner запускает проход жизненного цикла по требованию.
type SweepRunner interface {
	Run(ctx context.Context) (lifecycle.Report, error)
}

// Handler обслуживает публичный и административный API площадки.
type Handler struct {
	calendar   *calendar.Service
	feature    *feature.Service
	moderation *moderation.Service
	sweeper    SweepRunner
	auth       func(http.Handler) http.Handler
	log        zerolog.Logger
}

// Option настраивает Handler.
type Option func(*Handler)

// WithLogger задаёт логгер.
func WithLogger(log zerolog.Logger) Option {
	return func(h *Handler) {
		h.log = log
	}
}

// WithAuth задаёт middleware, кладущее domain.Identity в контекст запроса.
func WithAuth(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.auth = mw
	}
}

// WithSweeper включает ручной запуск прохода.
func WithSweeper(sweeper SweepRunner) Option {
	return func(h *Handler) {
		h.sweeper = sweeper
	}
}

type featureRequest struct {
	Days int `json:"days"`
}

type eventRequest struct {
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Location    string                 `json:"location"`
	StartAt     time.Time              `json:"start_at"`
	EndAt       *time.Time             `json:"end_at"`
	Recurrence  *domain.RecurrenceRule `json:"recurrence"`
}

type sweepResponse struct {
	RunID           string              `json:"run_id"`
	FeaturedCleared int                 `json:"featured_cleared"`
	Inactivated     int                 `json:"inactivated"`
	Scanned         int                 `json:"scanned"`
	CutoffDate      string              `json:"cutoff_date"`
	Failures        []lifecycle.Failure `json:"failures"`
}

type optionsResponse struct {
	Days []int `json:"days"`
}

// NewHandler создаёт обработчик.
func NewHandler(cal *calendar.Service, feat *feature.Service, mod *moderation.Service, opts ...Option) *Handler {
	h := &Handler{calendar: cal, feature: feat, moderation: mod, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register добавляет маршруты в router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/calendar", h.handleCalendar)
		r.Get("/calendar.ics", h.handleCalendarICS)
		r.Get("/listings/highlight-options", h.handleHighlightOptions)

		r.Group(func(r chi.Router) {
			if h.auth != nil {
				r.Use(h.auth)
			}
			r.Post("/events", h.handleSubmitEvent)
			r.Post("/listings/{id}/feature", h.handleFeature)

			r.Route("/admin", func(r chi.Router) {
				if h.sweeper != nil {
					r.Post("/sweep", h.handleSweep)
				}
				r.Post("/listings/{id}/approve", h.handleListingModeration(h.moderation.ApproveListing))
				r.Post("/listings/{id}/reject", h.handleListingModeration(h.moderation.RejectListing))
				r.Post("/events/{id}/approve", h.handleEventModeration(h.moderation.ApproveEvent))
				r.Post("/events/{id}/reject", h.handleEventModeration(h.moderation.RejectEvent))
				r.Get("/settings", h.handleGetSettings)
				r.Put("/settings", h.handlePutSettings)
			})
		})
	})
}

// Router возвращает отдельный chi.Router с маршрутами API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func (h *Handler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}
	items, err := h.calendar.Calendar(r.Context(), filter)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleCalendarICS(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}
	body, err := h.calendar.ICS(r.Context(), filter)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (h *Handler) handleHighlightOptions(w http.ResponseWriter, r *http.Request) {
	days, err := h.feature.Options(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, optionsResponse{Days: days})
}

func (h *Handler) handleSubmitEvent(w http.ResponseWriter, r *http.Request) {
	who, ok := identity(w, r)
	if !ok {
		return
	}
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	saved, err := h.calendar.Submit(r.Context(), who, domain.Event{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Recurrence:  req.Recurrence,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *Handler) handleFeature(w http.ResponseWriter, r *http.Request) {
	who, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req featureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	listing, err := h.feature.RequestFeature(r.Context(), id, who.UserID, req.Days)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *Handler) handleSweep(w http.ResponseWriter, r *http.Request) {
	who, ok := identity(w, r)
	if !ok {
		return
	}
	if !who.IsAdmin() {
		h.writeDomainError(w, r, domain.ErrForbidden)
		return
	}
	report, err := h.sweeper.Run(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.log.Info().Str("run_id", report.RunID).Int64("admin", who.UserID).Msg("httpapi: ручной проход выполнен")
	writeJSON(w, http.StatusOK, sweepResponse{
		RunID:           report.RunID,
		FeaturedCleared: report.FeaturedCleared,
		Inactivated:     report.Inactivated,
		Scanned:         report.Scanned,
		CutoffDate:      report.CutoffISO(),
		Failures:        report.Failures,
	})
}

func (h *Handler) handleListingModeration(action func(context.Context, domain.Identity, int64) (domain.Listing, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		who, ok := identity(w, r)
		if !ok {
			return
		}
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		listing, err := action(r.Context(), who, id)
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, listing)
	}
}

func (h *Handler) handleEventModeration(action func(context.Context, domain.Identity, int64) (domain.Event, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		who, ok := identity(w, r)
		if !ok {
			return
		}
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		ev, err := action(r.Context(), who, id)
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ev)
	}
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	who, ok := identity(w, r)
	if !ok {
		return
	}
	settings, err := h.moderation.Settings(r.Context(), who)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *Handler) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	who, ok := identity(w, r)
	if !ok {
		return
	}
	var req domain.Settings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	settings, err := h.moderation.UpdateSettings(r.Context(), who, req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func identity(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	who, ok := infrahttp.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return domain.Identity{}, false
	}
	return who, true
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// parseFilter разбирает year и month. Месяц без года не принимается.
func parseFilter(w http.ResponseWriter, r *http.Request) (calendar.Filter, bool) {
	var filter calendar.Filter
	query := r.URL.Query()
	if raw := query.Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil || len(raw) != 4 || year < 1 {
			writeError(w, http.StatusBadRequest, "invalid_year", "year must be a 4-digit number")
			return calendar.Filter{}, false
		}
		filter.Year = year
	}
	if raw := query.Get("month"); raw != "" {
		month, err := strconv.Atoi(raw)
		if err != nil || month < 1 || month > 12 {
			writeError(w, http.StatusBadRequest, "invalid_month", "month must be within 1..12")
			return calendar.Filter{}, false
		}
		if filter.Year == 0 {
			writeError(w, http.StatusBadRequest, "invalid_month", "month requires year")
			return calendar.Filter{}, false
		}
		filter.Month = month
	}
	return filter, true
}

func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "operation is not allowed")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "record not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, domain.ErrSweepInProgress):
		writeError(w, http.StatusConflict, "sweep_in_progress", "another sweep is running")
	case errors.Is(err, domain.ErrStoreUnavailable):
		h.log.Error().Err(err).Str("request_id", infrahttp.RequestID(r)).Msg("httpapi: хранилище недоступно")
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "store is unavailable")
	default:
		h.log.Error().Err(err).Str("request_id", infrahttp.RequestID(r)).Msg("httpapi: необработанная ошибка")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, infrahttp.ErrorResponse{Error: message, Code: code})
}
