package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bchauvel/creneau/internal/model"
	"github.com/bchauvel/creneau/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned when the admin token does not match the
// project's token.
var ErrInvalidToken = errors.New("invalid admin token")

// slugAlphabet keeps public slugs URL-safe and unambiguous in copy-paste.
const slugAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

const slugLength = 10

// ProjectStore is the storage dependency for project creation and reads.
type ProjectStore interface {
	Create(ctx context.Context, project *model.Project, slots []model.Slot) error
	BySlug(ctx context.Context, slug string) (*model.Project, []model.Slot, error)
	AdminBySlug(ctx context.Context, slug string) (*model.Project, []model.SlotWithBooking, error)
}

// ProjectService orchestrates project-related business operations.
type ProjectService struct {
	store    ProjectStore
	validate *validator.Validate
}

// NewProjectService constructs a ProjectService.
func NewProjectService(store ProjectStore) *ProjectService {
	return &ProjectService{store: store, validate: newValidator()}
}

// CreateProject validates the request, generates the project's public slug
// and admin token, and persists the project with all its slots. baseURL is
// the externally visible origin used to build the share links.
func (s *ProjectService) CreateProject(ctx context.Context, req model.CreateProjectRequest, baseURL string) (*model.CreateProjectResponse, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.OrganizerName = strings.TrimSpace(req.OrganizerName)
	req.OrganizerEmail = strings.TrimSpace(strings.ToLower(req.OrganizerEmail))

	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	project := &model.Project{
		ID:             uuid.New().String(),
		Title:          req.Title,
		Description:    strings.TrimSpace(req.Description),
		OrganizerName:  req.OrganizerName,
		OrganizerEmail: req.OrganizerEmail,
		PublicSlug:     newSlug(),
		AdminToken:     newAdminToken(),
		CreatedAt:      now,
	}

	slots := make([]model.Slot, 0, len(req.Slots))
	for _, in := range req.Slots {
		slots = append(slots, model.Slot{
			ID:              uuid.New().String(),
			ProjectID:       project.ID,
			StartDatetime:   in.StartDatetime,
			DurationMinutes: in.DurationMinutes,
			Note:            strings.TrimSpace(in.Note),
			Status:          model.SlotAvailable,
			CreatedAt:       now,
		})
	}

	if err := s.store.Create(ctx, project, slots); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	return &model.CreateProjectResponse{
		ProjectID:  project.ID,
		PublicSlug: project.PublicSlug,
		AdminToken: project.AdminToken,
		PublicURL:  fmt.Sprintf("%s/booking/%s", baseURL, project.PublicSlug),
		AdminURL:   fmt.Sprintf("%s/admin/%s?token=%s", baseURL, project.PublicSlug, project.AdminToken),
	}, nil
}

// GetProject returns the public view of a project: no admin token, no
// organizer email.
func (s *ProjectService) GetProject(ctx context.Context, slug string) (*model.ProjectView, error) {
	if slug == "" {
		return nil, repository.ErrNotFound
	}
	project, slots, err := s.store.BySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if slots == nil {
		slots = []model.Slot{}
	}
	return &model.ProjectView{
		ID:            project.ID,
		Title:         project.Title,
		Description:   project.Description,
		OrganizerName: project.OrganizerName,
		CreatedAt:     project.CreatedAt,
		Slots:         slots,
	}, nil
}

// AdminDashboard returns the full booking state of a project. The caller
// must present the project's admin token; a mismatch fails with
// ErrInvalidToken regardless of how close the guess was.
func (s *ProjectService) AdminDashboard(ctx context.Context, slug, token string) (*model.AdminDashboard, error) {
	if slug == "" || token == "" {
		return nil, ErrInvalidToken
	}
	project, slots, err := s.store.AdminBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(project.AdminToken), []byte(token)) != 1 {
		return nil, ErrInvalidToken
	}

	stats := model.Stats{TotalSlots: len(slots)}
	for _, s := range slots {
		if s.Status == model.SlotBooked {
			stats.BookedSlots++
		}
	}
	stats.AvailableSlots = stats.TotalSlots - stats.BookedSlots

	if slots == nil {
		slots = []model.SlotWithBooking{}
	}
	return &model.AdminDashboard{
		Project: *project,
		Slots:   slots,
		Stats:   stats,
	}, nil
}

// newSlug generates a short, URL-safe, globally unique public slug.
func newSlug() string {
	buf := make([]byte, slugLength)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	for i, b := range buf {
		buf[i] = slugAlphabet[int(b)%len(slugAlphabet)]
	}
	return string(buf)
}

// newAdminToken generates the project's secret: 32 random bytes, hex.
func newAdminToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
