package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ecoregistry/internal/registry/models"
	"ecoregistry/pkg/platform/sentinel"
)

// Dataset is the read side of a dataset store.
type Dataset interface {
	Load(ctx context.Context) ([]models.Record, error)
	Get(ctx context.Context, projectID string) (*models.Record, error)
}

// ProjectsHandler serves the JSON mirrors of the dataset: the full list, a
// single record, and the aggregate metadata summary.
type ProjectsHandler struct {
	dataset Dataset
	logger  *slog.Logger
	now     func() time.Time
}

func NewProjectsHandler(dataset Dataset, logger *slog.Logger) *ProjectsHandler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ProjectsHandler{dataset: dataset, logger: logger, now: time.Now}
}

// Register mounts the mirror endpoints on r.
func (h *ProjectsHandler) Register(r chi.Router) {
	r.Get("/projects", h.handleList)
	r.Get("/projects/{id}", h.handleGet)
	r.Get("/meta", h.handleMeta)
}

func (h *ProjectsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.dataset.Load(r.Context())
	if err != nil {
		h.internalError(w, r, "load dataset failed", err)
		return
	}
	if records == nil {
		records = []models.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *ProjectsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	record, err := h.dataset.Get(r.Context(), id)
	if errors.Is(err, sentinel.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "project "+id+" not found")
		return
	}
	if err != nil {
		h.internalError(w, r, "get project failed", err, "project_id", id)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *ProjectsHandler) handleMeta(w http.ResponseWriter, r *http.Request) {
	records, err := h.dataset.Load(r.Context())
	if err != nil {
		h.internalError(w, r, "load dataset failed", err)
		return
	}
	writeJSON(w, http.StatusOK, models.Summarize(records, h.now()))
}

func (h *ProjectsHandler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error, attrs ...any) {
	h.logger.ErrorContext(r.Context(), msg, append(attrs, "error", err)...)
	writeError(w, http.StatusInternalServerError, "internal_error", "")
}
