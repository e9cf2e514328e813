// Package memory provides an in-memory implementation of the service
// storage interfaces. A single mutex plays the role of the database's
// row-level lock: Claim observes and mutates slot state atomically, so
// the reservation semantics match the Postgres implementation. Intended
// for tests and local experimentation.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/bchauvel/creneau/internal/model"
	"github.com/bchauvel/creneau/internal/repository"
)

// Store holds all state behind one mutex.
type Store struct {
	mu       sync.Mutex
	projects map[string]*model.Project // by ID
	slugs    map[string]string         // public slug -> project ID
	slots    map[string]*model.Slot    // by ID
	bookings map[string]*model.Booking // by ID
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		projects: make(map[string]*model.Project),
		slugs:    make(map[string]string),
		slots:    make(map[string]*model.Slot),
		bookings: make(map[string]*model.Booking),
	}
}

// Create inserts the project and its slots.
func (s *Store) Create(_ context.Context, project *model.Project, slots []model.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := *project
	s.projects[p.ID] = &p
	s.slugs[p.PublicSlug] = p.ID
	for _, slot := range slots {
		sl := slot
		s.slots[sl.ID] = &sl
	}
	return nil
}

// BySlug returns a project and its slots ordered by start time.
func (s *Store) BySlug(_ context.Context, slug string) (*model.Project, []model.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.projectBySlug(slug)
	if err != nil {
		return nil, nil, err
	}
	return copyProject(p), s.slotsOf(p.ID), nil
}

// AdminBySlug returns a project with every slot and its booking.
func (s *Store) AdminBySlug(_ context.Context, slug string) (*model.Project, []model.SlotWithBooking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.projectBySlug(slug)
	if err != nil {
		return nil, nil, err
	}

	var out []model.SlotWithBooking
	for _, slot := range s.slotsOf(p.ID) {
		sw := model.SlotWithBooking{Slot: slot}
		for _, b := range s.bookings {
			if b.SlotID == slot.ID {
				booking := *b
				sw.Booking = &booking
				break
			}
		}
		out = append(out, sw)
	}
	return copyProject(p), out, nil
}

// SlotByID returns a single slot or repository.ErrNotFound.
func (s *Store) SlotByID(_ context.Context, id string) (*model.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *slot
	return &cp, nil
}

// ByParticipant returns the participant's booking in the project, or
// repository.ErrNotFound.
func (s *Store) ByParticipant(_ context.Context, projectID, email string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b := s.findBooking(projectID, email); b != nil {
		cp := *b
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

// Claim books a slot with the same semantics as the Postgres version:
// availability re-check and booking insert happen under one lock, and the
// per-project participant uniqueness rule is enforced at "commit" time.
func (s *Store) Claim(_ context.Context, booking *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[booking.SlotID]
	if !ok {
		return repository.ErrNotFound
	}
	if slot.Status != model.SlotAvailable {
		return repository.ErrSlotUnavailable
	}
	if s.findBooking(booking.ProjectID, booking.ParticipantEmail) != nil {
		return repository.ErrDuplicateParticipant
	}

	slot.Status = model.SlotBooked
	cp := *booking
	s.bookings[cp.ID] = &cp
	return nil
}

func (s *Store) projectBySlug(slug string) (*model.Project, error) {
	id, ok := s.slugs[slug]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.projects[id], nil
}

func (s *Store) slotsOf(projectID string) []model.Slot {
	var out []model.Slot
	for _, slot := range s.slots {
		if slot.ProjectID == projectID {
			out = append(out, *slot)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartDatetime.Before(out[j].StartDatetime)
	})
	return out
}

func (s *Store) findBooking(projectID, email string) *model.Booking {
	for _, b := range s.bookings {
		if b.ProjectID == projectID && strings.EqualFold(b.ParticipantEmail, email) {
			return b
		}
	}
	return nil
}

func copyProject(p *model.Project) *model.Project {
	cp := *p
	return &cp
}
