package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bchauvel/creneau/internal/model"
	"github.com/bchauvel/creneau/internal/repository"
	"github.com/bchauvel/creneau/internal/repository/memory"
	"github.com/bchauvel/creneau/internal/service"
	"github.com/stretchr/testify/require"
)

func createRequest() model.CreateProjectRequest {
	start := time.Now().UTC().Add(24 * time.Hour)
	return model.CreateProjectRequest{
		Title:          "Session mentorat printemps",
		Description:    "Mentorat pour les porteurs de projet",
		OrganizerName:  "Claire Dubois",
		OrganizerEmail: "claire@example.org",
		Slots: []model.SlotInput{
			{StartDatetime: start, DurationMinutes: 30},
			{StartDatetime: start.Add(time.Hour), DurationMinutes: 30, Note: "visio"},
		},
	}
}

func TestCreateProject(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := service.NewProjectService(store)

	resp, err := svc.CreateProject(ctx, createRequest(), "https://booking.example.org")
	require.NoError(t, err)
	require.NotEmpty(t, resp.ProjectID)
	require.Len(t, resp.PublicSlug, 10)
	require.Len(t, resp.AdminToken, 64) // 32 bytes, hex encoded
	require.Equal(t, "https://booking.example.org/booking/"+resp.PublicSlug, resp.PublicURL)
	require.Contains(t, resp.AdminURL, resp.PublicSlug)
	require.Contains(t, resp.AdminURL, "token="+resp.AdminToken)

	// All slots start out available.
	view, err := svc.GetProject(ctx, resp.PublicSlug)
	require.NoError(t, err)
	require.Len(t, view.Slots, 2)
	for _, s := range view.Slots {
		require.Equal(t, model.SlotAvailable, s.Status)
	}
}

func TestCreateProject_Validation(t *testing.T) {
	ctx := context.Background()
	svc := service.NewProjectService(memory.NewStore())

	cases := map[string]func(*model.CreateProjectRequest){
		"missing title":     func(r *model.CreateProjectRequest) { r.Title = "" },
		"missing organizer": func(r *model.CreateProjectRequest) { r.OrganizerName = "" },
		"bad email":         func(r *model.CreateProjectRequest) { r.OrganizerEmail = "nope" },
		"no slots":          func(r *model.CreateProjectRequest) { r.Slots = nil },
		"zero duration":     func(r *model.CreateProjectRequest) { r.Slots[0].DurationMinutes = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := createRequest()
			mutate(&req)
			_, err := svc.CreateProject(ctx, req, "http://localhost:8080")
			var ve *service.ValidationError
			require.ErrorAs(t, err, &ve)
		})
	}
}

func TestGetProject_NotFound(t *testing.T) {
	svc := service.NewProjectService(memory.NewStore())
	_, err := svc.GetProject(context.Background(), "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAdminDashboard(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	projectSvc := service.NewProjectService(store)
	bookingSvc := service.NewBookingService(store)

	resp, err := projectSvc.CreateProject(ctx, createRequest(), "http://localhost:8080")
	require.NoError(t, err)

	view, err := projectSvc.GetProject(ctx, resp.PublicSlug)
	require.NoError(t, err)
	_, err = bookingSvc.ReserveSlot(ctx, view.Slots[0].ID, validRequest("alice@example.com"))
	require.NoError(t, err)

	dash, err := projectSvc.AdminDashboard(ctx, resp.PublicSlug, resp.AdminToken)
	require.NoError(t, err)
	require.Equal(t, model.Stats{TotalSlots: 2, BookedSlots: 1, AvailableSlots: 1}, dash.Stats)
	require.Len(t, dash.Slots, 2)
	require.NotNil(t, dash.Slots[0].Booking)
	require.Equal(t, "alice@example.com", dash.Slots[0].Booking.ParticipantEmail)
	require.Nil(t, dash.Slots[1].Booking)
}

func TestAdminDashboard_InvalidToken(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := service.NewProjectService(store)

	resp, err := svc.CreateProject(ctx, createRequest(), "http://localhost:8080")
	require.NoError(t, err)

	for _, token := range []string{"", "wrong", resp.AdminToken + "x"} {
		_, err := svc.AdminDashboard(ctx, resp.PublicSlug, token)
		require.ErrorIs(t, err, service.ErrInvalidToken)
	}

	_, err = svc.AdminDashboard(ctx, "missing", resp.AdminToken)
	require.ErrorIs(t, err, repository.ErrNotFound)
}
