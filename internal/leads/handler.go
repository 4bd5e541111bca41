package leads

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/prism-crm/internal/http/respond"
	"github.com/wolfman30/prism-crm/pkg/logging"
)

// Handler handles HTTP requests for leads
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// ListLeads handles GET /leads and GET /get_leads.
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseListFilter(r.URL.Query())
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	leads, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to list leads")
		return
	}
	if leads == nil {
		leads = []*Lead{}
	}
	respond.JSON(w, http.StatusOK, leads)
}

// GetLead handles GET /leads/{leadID}.
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	id, ok := LeadIDParam(w, r)
	if !ok {
		return
	}

	lead, err := h.repo.GetByID(r.Context(), id)
	if errors.Is(err, ErrLeadNotFound) {
		respond.Error(w, http.StatusNotFound, ErrLeadNotFound.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed to get lead", "error", err, "lead_id", id)
		respond.Error(w, http.StatusInternalServerError, "failed to get lead")
		return
	}
	respond.JSON(w, http.StatusOK, lead)
}

// LeadIDParam parses the {leadID} route parameter, writing a 400 when it is
// not a positive integer.
func LeadIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "leadID"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(w, http.StatusBadRequest, "invalid lead id")
		return 0, false
	}
	return id, true
}
