package adapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"booklore/internal/auth"
	"booklore/internal/core"
	"booklore/internal/core/model"
)

// Handler exposes the library over HTTP.
type Handler struct {
	Svc *core.Service
	log zerolog.Logger
}

func NewHandler(svc *core.Service, logger zerolog.Logger) *Handler {
	return &Handler{Svc: svc, log: logger.With().Str("component", "http").Logger()}
}

// Routes mounts all API endpoints on a fresh router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/books", func(r chi.Router) {
			r.Get("/", h.ListBooks)
			r.Post("/", h.CreateBook)
			r.Get("/{id}", h.GetBook)
			r.Delete("/{id}", h.DeleteBook)
			r.Put("/{id}/read-status", h.UpdateReadStatus)
			r.Put("/{id}/shelves", h.AssignShelves)
		})

		r.Route("/shelves", func(r chi.Router) {
			r.Get("/", h.ListShelves)
			r.Post("/", h.CreateShelf)
			r.Delete("/{id}", h.DeleteShelf)
		})

		r.Route("/reading-sessions", func(r chi.Router) {
			r.Post("/", h.RecordSession)
			r.Get("/heatmap/year/{year}", h.SessionHeatmap)
			r.Get("/timeline/week/{year}/{week}", h.SessionTimeline)
		})

		r.Get("/stats/reading-velocity", h.ReadingVelocity)

		r.Route("/icons", func(r chi.Router) {
			r.Get("/", h.AllIcons)
			r.Get("/{name}", h.GetIcon)
			r.Put("/{name}", h.SaveIcon)
			r.Delete("/{name}", h.DeleteIcon)
		})
	})

	return r
}

type httpError struct {
	Error struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details,omitempty"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string, details map[string]interface{}) {
	e := httpError{}
	e.Error.Code = code
	e.Error.Message = msg
	e.Error.Details = details
	writeJSON(w, status, e)
}

// writeServiceError maps service sentinel errors onto HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrValidation):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, core.ErrConflict):
		writeError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, core.ErrUpstream):
		writeError(w, http.StatusBadGateway, "UPSTREAM", err.Error(), nil)
	default:
		h.log.Error().Err(err).Msg("unhandled service error")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}

type createBookRequest struct {
	ISBN              *string             `json:"isbn,omitempty"`
	LibraryID         string              `json:"libraryId"`
	FileName          string              `json:"fileName"`
	FileSizeKB        *int64              `json:"fileSizeKb,omitempty"`
	BookType          model.BookType      `json:"bookType"`
	Metadata          *model.BookMetadata `json:"metadata,omitempty"`
	Enrich            bool                `json:"enrich"`
	RequireEnrichment bool                `json:"requireEnrichment"`
}

func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_JSON", "invalid request body", nil)
		return
	}

	book, err := h.Svc.CreateBook(r.Context(), model.CreateBookInput{
		ISBN:              req.ISBN,
		LibraryID:         req.LibraryID,
		FileName:          req.FileName,
		FileSizeKB:        req.FileSizeKB,
		BookType:          req.BookType,
		Metadata:          req.Metadata,
		Enrich:            req.Enrich,
		RequireEnrichment: req.RequireEnrichment,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/books/"+book.ID)
	writeJSON(w, http.StatusCreated, book)
}

// filterKeys are the query parameters interpreted as filter criteria; every
// other parameter is ignored.
var filterKeys = []model.FilterKey{
	model.FilterAuthor,
	model.FilterCategory,
	model.FilterMood,
	model.FilterTag,
	model.FilterPublisher,
	model.FilterSeries,
	model.FilterReadStatus,
	model.FilterAmazonRating,
	model.FilterGoodreadsRating,
	model.FilterHardcoverRating,
	model.FilterPersonalRating,
	model.FilterPublishedYear,
	model.FilterPublishedDate,
	model.FilterFileSize,
	model.FilterShelfStatus,
	model.FilterPageCount,
	model.FilterLanguage,
	model.FilterMatchScore,
	model.FilterBookType,
}

func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	criteria := model.FilterCriteria{}
	for _, key := range filterKeys {
		raw, ok := q[string(key)]
		if !ok {
			continue
		}
		var values []string
		for _, v := range raw {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					values = append(values, part)
				}
			}
		}
		criteria[key] = values
	}

	query := model.ListQuery{Criteria: criteria}

	switch q.Get("mode") {
	case "", "or":
		query.Mode = model.FilterModeOr
	case "and":
		query.Mode = model.FilterModeAnd
	default:
		writeError(w, http.StatusBadRequest, "VALIDATION", "mode must be and or or", nil)
		return
	}

	if field := q.Get("sort"); field != "" {
		opt := model.SortOption{Field: model.SortField(field)}
		if q.Get("direction") == "desc" {
			opt.Direction = model.Descending
		}
		query.Sort = &opt
	}

	query.Page, _ = strconv.Atoi(q.Get("page"))
	query.PageSize, _ = strconv.Atoi(q.Get("pageSize"))

	page, err := h.Svc.ListBooks(r.Context(), query)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.Svc.GetBook(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *Handler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.DeleteBook(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UpdateReadStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReadStatus model.ReadStatus `json:"readStatus"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_JSON", "invalid request body", nil)
		return
	}
	switch req.ReadStatus {
	case model.ReadStatusUnset, model.ReadStatusUnread, model.ReadStatusReading,
		model.ReadStatusPaused, model.ReadStatusRead, model.ReadStatusReReading,
		model.ReadStatusAbandoned:
	default:
		writeError(w, http.StatusBadRequest, "VALIDATION", "unknown read status", nil)
		return
	}

	book, err := h.Svc.UpdateReadStatus(r.Context(), chi.URLParam(r, "id"), req.ReadStatus)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *Handler) AssignShelves(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShelfIDs []string `json:"shelfIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_JSON", "invalid request body", nil)
		return
	}

	book, err := h.Svc.AssignShelves(r.Context(), chi.URLParam(r, "id"), req.ShelfIDs)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *Handler) CreateShelf(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Icon string `json:"icon"`
		Sort int    `json:"sort"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_JSON", "invalid request body", nil)
		return
	}

	shelf, err := h.Svc.CreateShelf(r.Context(), model.Shelf{
		Name:   req.Name,
		Icon:   req.Icon,
		Sort:   req.Sort,
		UserID: auth.UserID(r.Context()),
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, shelf)
}

func (h *Handler) ListShelves(w http.ResponseWriter, r *http.Request) {
	shelves, err := h.Svc.ListShelves(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shelves)
}

func (h *Handler) DeleteShelf(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.DeleteShelf(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type recordSessionRequest struct {
	BookID          string         `json:"bookId"`
	BookType        model.BookType `json:"bookType"`
	StartTime       time.Time      `json:"startTime"`
	EndTime         time.Time      `json:"endTime"`
	DurationSeconds int64          `json:"durationSeconds"`
}

func (h *Handler) RecordSession(w http.ResponseWriter, r *http.Request) {
	var req recordSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_JSON", "invalid request body", nil)
		return
	}
	if req.DurationSeconds == 0 && req.EndTime.After(req.StartTime) {
		req.DurationSeconds = int64(req.EndTime.Sub(req.StartTime).Seconds())
	}

	session, err := h.Svc.RecordSession(r.Context(), auth.UserID(r.Context()), model.ReadingSession{
		BookID:          req.BookID,
		BookType:        req.BookType,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *Handler) SessionHeatmap(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "year must be numeric", nil)
		return
	}

	entries, err := h.Svc.SessionHeatmap(r.Context(), auth.UserID(r.Context()), year)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) SessionTimeline(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "year must be numeric", nil)
		return
	}
	week, err := strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil || week < 1 || week > 53 {
		writeError(w, http.StatusBadRequest, "VALIDATION", "week must be 1..53", nil)
		return
	}

	entries, err := h.Svc.SessionTimeline(r.Context(), auth.UserID(r.Context()), year, week)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) ReadingVelocity(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.ReadingVelocity(r.Context(), r.URL.Query().Get("libraryId"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) AllIcons(w http.ResponseWriter, r *http.Request) {
	icons, err := h.Svc.AllIcons(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, icons)
}

func (h *Handler) GetIcon(w http.ResponseWriter, r *http.Request) {
	content, err := h.Svc.GetIcon(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))
}

func (h *Handler) SaveIcon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_JSON", "invalid request body", nil)
		return
	}
	if err := h.Svc.SaveIcon(r.Context(), chi.URLParam(r, "name"), req.Content); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteIcon(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.DeleteIcon(r.Context(), chi.URLParam(r, "name")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
