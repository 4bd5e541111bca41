package bookings

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/wolfman30/prism-crm/internal/http/respond"
	"github.com/wolfman30/prism-crm/internal/leads"
	"github.com/wolfman30/prism-crm/pkg/logging"
)

const maxBookingBodyBytes = 64 << 10

// CreateResponse is returned for a stored booking.
type CreateResponse struct {
	Status    string `json:"status"`
	BookingID int64  `json:"booking_id"`
	LeadID    int64  `json:"lead_id"`
}

// Handler serves the booking form and slot lookups.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a bookings handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("bookings: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// CreateBooking handles POST /bookings.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBookingBodyBytes)).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.CreateBooking(r.Context(), &req)
	if errors.Is(err, ErrInvalidBooking) {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond.JSON(w, http.StatusOK, CreateResponse{
		Status:    "success",
		BookingID: result.BookingID,
		LeadID:    result.LeadID,
	})
}

// TakenSlots handles GET /bookings/taken?building=&date=.
func (h *Handler) TakenSlots(w http.ResponseWriter, r *http.Request) {
	building := r.URL.Query().Get("building")
	date := r.URL.Query().Get("date")
	if strings.TrimSpace(building) == "" || strings.TrimSpace(date) == "" {
		respond.Error(w, http.StatusBadRequest, "building and date are required")
		return
	}

	slots, err := h.service.TakenSlots(r.Context(), building, date)
	if err != nil {
		h.logger.Error("failed to load taken slots", "error", err, "building", building, "tour_date", date)
		respond.Error(w, http.StatusInternalServerError, "failed to load taken slots")
		return
	}
	respond.JSON(w, http.StatusOK, slots)
}

// ListLeadBookings handles GET /leads/{leadID}/bookings.
func (h *Handler) ListLeadBookings(w http.ResponseWriter, r *http.Request) {
	leadID, ok := leads.LeadIDParam(w, r)
	if !ok {
		return
	}

	out, err := h.service.ListByLead(r.Context(), leadID)
	if errors.Is(err, leads.ErrLeadNotFound) {
		respond.Error(w, http.StatusNotFound, leads.ErrLeadNotFound.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed to list lead bookings", "error", err, "lead_id", leadID)
		respond.Error(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}
	respond.JSON(w, http.StatusOK, out)
}
