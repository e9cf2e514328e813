// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bchauvel/creneau/internal/model"
	"github.com/bchauvel/creneau/internal/repository"
	"github.com/bchauvel/creneau/internal/service"
	"github.com/go-chi/chi/v5"
)

// Handler holds all HTTP handlers for the booking API.
type Handler struct {
	projects *service.ProjectService
	bookings *service.BookingService
	baseURL  string
}

// New constructs a Handler. baseURL is the externally visible origin used
// in the share links returned on project creation.
func New(projects *service.ProjectService, bookings *service.BookingService, baseURL string) *Handler {
	return &Handler{projects: projects, bookings: bookings, baseURL: baseURL}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// CreateProject handles POST /api/projects
// Creates a project with its slots and returns the public and admin links.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req model.CreateProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.projects.CreateProject(r.Context(), req, h.baseURL)
	if err != nil {
		var ve *service.ValidationError
		switch {
		case errors.As(err, &ve):
			writeError(w, http.StatusBadRequest, ve.Error())
		case errors.Is(err, repository.ErrStoreUnavailable):
			writeError(w, http.StatusServiceUnavailable, "temporary failure, please retry")
		default:
			writeError(w, http.StatusInternalServerError, "failed to create project")
		}
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// GetProject handles GET /api/projects/{slug}
// Returns the public view of a project and its slots.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	view, err := h.projects.GetProject(r.Context(), slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get project")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// BookSlot handles POST /api/slots/{slotID}/book
// Runs the concurrency-safe reservation procedure for the slot.
func (h *Handler) BookSlot(w http.ResponseWriter, r *http.Request) {
	slotID := chi.URLParam(r, "slotID")

	var req model.BookSlotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	booking, err := h.bookings.ReserveSlot(r.Context(), slotID, req)
	if err != nil {
		var ve *service.ValidationError
		switch {
		case errors.As(err, &ve):
			writeError(w, http.StatusBadRequest, ve.Error())
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "slot not found")
		case errors.Is(err, repository.ErrSlotUnavailable):
			writeError(w, http.StatusConflict, "this slot was just booked, please choose another one")
		case errors.Is(err, repository.ErrDuplicateParticipant):
			writeError(w, http.StatusConflict, "you already have a booking for this mentorship session")
		case errors.Is(err, repository.ErrStoreUnavailable):
			writeError(w, http.StatusServiceUnavailable, "temporary failure, please retry")
		default:
			writeError(w, http.StatusInternalServerError, "failed to book slot")
		}
		return
	}

	writeJSON(w, http.StatusCreated, model.BookSlotResponse{
		Success:   true,
		BookingID: booking.ID,
		Message:   "booking successful",
	})
}

// AdminDashboard handles GET /api/projects/{slug}/admin?token=...
// Returns the full booking state of a project, gated by the admin token.
func (h *Handler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	dash, ok := h.adminData(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

// ExportBookings handles GET /api/projects/{slug}/admin/export?token=...
// Streams the project's bookings as CSV, one row per booked slot.
func (h *Handler) ExportBookings(w http.ResponseWriter, r *http.Request) {
	dash, ok := h.adminData(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "bookings-"+dash.Project.PublicSlug+".csv"))

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{
		"slot_start", "duration_minutes", "slot_note",
		"participant_name", "participant_project", "participant_email", "participant_phone",
		"booked_at",
	})
	for _, s := range dash.Slots {
		if s.Booking == nil {
			continue
		}
		b := s.Booking
		_ = cw.Write([]string{
			s.StartDatetime.Format(time.RFC3339),
			fmt.Sprintf("%d", s.DurationMinutes),
			s.Note,
			b.ParticipantName,
			b.ParticipantProjectName,
			b.ParticipantEmail,
			b.ParticipantPhone,
			b.CreatedAt.Format(time.RFC3339),
		})
	}
	cw.Flush()
}

// adminData fetches the admin dashboard, writing the error response itself
// when the request fails.
func (h *Handler) adminData(w http.ResponseWriter, r *http.Request) (*model.AdminDashboard, bool) {
	slug := chi.URLParam(r, "slug")
	token := r.URL.Query().Get("token")

	dash, err := h.projects.AdminDashboard(r.Context(), slug, token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			writeError(w, http.StatusForbidden, "invalid credentials")
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "project not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to load project")
		}
		return nil, false
	}
	return dash, true
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
