package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bchauvel/creneau/internal/handler"
	"github.com/bchauvel/creneau/internal/model"
	"github.com/bchauvel/creneau/internal/repository/memory"
	"github.com/bchauvel/creneau/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter() http.Handler {
	store := memory.NewStore()
	h := handler.New(
		service.NewProjectService(store),
		service.NewBookingService(store),
		"http://localhost:8080",
	)

	r := chi.NewRouter()
	r.Get("/health", handler.HealthCheck)
	r.Route("/api", func(r chi.Router) {
		r.Post("/projects", h.CreateProject)
		r.Get("/projects/{slug}", h.GetProject)
		r.Get("/projects/{slug}/admin", h.AdminDashboard)
		r.Get("/projects/{slug}/admin/export", h.ExportBookings)
		r.Post("/slots/{slotID}/book", h.BookSlot)
	})
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createProject(t *testing.T, router http.Handler) model.CreateProjectResponse {
	t.Helper()
	start := time.Now().UTC().Add(48 * time.Hour)
	w := doJSON(t, router, http.MethodPost, "/api/projects", model.CreateProjectRequest{
		Title:          "Mentorat",
		OrganizerName:  "Claire",
		OrganizerEmail: "claire@example.org",
		Slots: []model.SlotInput{
			{StartDatetime: start, DurationMinutes: 30},
			{StartDatetime: start.Add(time.Hour), DurationMinutes: 45},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp model.CreateProjectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func getSlots(t *testing.T, router http.Handler, slug string) []model.Slot {
	t.Helper()
	w := doJSON(t, router, http.MethodGet, "/api/projects/"+slug, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view model.ProjectView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	return view.Slots
}

func bookRequest(email string) model.BookSlotRequest {
	return model.BookSlotRequest{
		ParticipantName:        "Alice",
		ParticipantProjectName: "Solar Tracker",
		ParticipantEmail:       email,
	}
}

func TestBookSlotEndToEnd(t *testing.T) {
	router := newTestRouter()
	project := createProject(t, router)
	slots := getSlots(t, router, project.PublicSlug)
	require.Len(t, slots, 2)

	// First claim wins.
	w := doJSON(t, router, http.MethodPost, "/api/slots/"+slots[0].ID+"/book", bookRequest("alice@example.com"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp model.BookSlotResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.BookingID)

	// Same slot again: confirmed taken.
	w = doJSON(t, router, http.MethodPost, "/api/slots/"+slots[0].ID+"/book", bookRequest("bob@example.com"))
	require.Equal(t, http.StatusConflict, w.Code)

	// Same participant, other slot: business-rule rejection, distinct message.
	w = doJSON(t, router, http.MethodPost, "/api/slots/"+slots[1].ID+"/book", bookRequest("alice@example.com"))
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "already have a booking")

	// The public view reflects the new state.
	slots = getSlots(t, router, project.PublicSlug)
	require.Equal(t, model.SlotBooked, slots[0].Status)
	require.Equal(t, model.SlotAvailable, slots[1].Status)
}

func TestBookSlot_BadRequests(t *testing.T) {
	router := newTestRouter()
	project := createProject(t, router)
	slots := getSlots(t, router, project.PublicSlug)

	w := doJSON(t, router, http.MethodPost, "/api/slots/"+slots[0].ID+"/book", bookRequest("not-an-email"))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/slots/"+slots[0].ID+"/book",
		model.BookSlotRequest{ParticipantEmail: "a@b.fr"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/slots/nope/book", bookRequest("a@b.fr"))
	require.Equal(t, http.StatusNotFound, w.Code)

	// A failed attempt must not consume the slot.
	slots = getSlots(t, router, project.PublicSlug)
	require.Equal(t, model.SlotAvailable, slots[0].Status)
}

func TestGetProject_NotFound(t *testing.T) {
	router := newTestRouter()
	w := doJSON(t, router, http.MethodGet, "/api/projects/missing", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminEndpoints(t *testing.T) {
	router := newTestRouter()
	project := createProject(t, router)
	slots := getSlots(t, router, project.PublicSlug)

	w := doJSON(t, router, http.MethodPost, "/api/slots/"+slots[0].ID+"/book", bookRequest("alice@example.com"))
	require.Equal(t, http.StatusCreated, w.Code)

	// Wrong token is rejected.
	w = doJSON(t, router, http.MethodGet, "/api/projects/"+project.PublicSlug+"/admin?token=wrong", nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	// Right token sees the dashboard.
	w = doJSON(t, router, http.MethodGet, "/api/projects/"+project.PublicSlug+"/admin?token="+project.AdminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var dash model.AdminDashboard
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dash))
	require.Equal(t, 1, dash.Stats.BookedSlots)
	require.Equal(t, 1, dash.Stats.AvailableSlots)

	// CSV export carries one header line plus one row per booking.
	w = doJSON(t, router, http.MethodGet, "/api/projects/"+project.PublicSlug+"/admin/export?token="+project.AdminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[1], "alice@example.com")
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter()
	w := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "ok")
}
