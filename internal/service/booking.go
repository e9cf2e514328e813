// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the storage layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bchauvel/creneau/internal/model"
	"github.com/bchauvel/creneau/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// BookingStore is the storage dependency of the reservation procedure.
// Claim must be atomic: it locks the slot row, re-checks availability,
// flips the status and inserts the booking in one transaction, returning
// repository.ErrSlotUnavailable when the slot is already booked.
type BookingStore interface {
	SlotByID(ctx context.Context, id string) (*model.Slot, error)
	ByParticipant(ctx context.Context, projectID, email string) (*model.Booking, error)
	Claim(ctx context.Context, booking *model.Booking) error
}

// BookingService implements the slot reservation procedure.
type BookingService struct {
	store    BookingStore
	validate *validator.Validate
}

// NewBookingService constructs a BookingService.
func NewBookingService(store BookingStore) *BookingService {
	return &BookingService{store: store, validate: newValidator()}
}

// ReserveSlot claims a slot for a participant. Steps, in order:
//
//  1. Structural validation of the participant record; fails with
//     *ValidationError before touching the store.
//  2. Slot existence; fails with repository.ErrNotFound.
//  3. Advisory duplicate-participant read, so the common case gets a
//     friendly rejection without taking the row lock. Not race-free on
//     its own; the unique index inside Claim is.
//  4. Atomic claim via the store.
//
// On ErrSlotUnavailable the same slot will never succeed again; the
// participant must pick a different one.
func (s *BookingService) ReserveSlot(ctx context.Context, slotID string, req model.BookSlotRequest) (*model.Booking, error) {
	req.ParticipantName = strings.TrimSpace(req.ParticipantName)
	req.ParticipantProjectName = strings.TrimSpace(req.ParticipantProjectName)
	req.ParticipantEmail = strings.TrimSpace(strings.ToLower(req.ParticipantEmail))
	req.ParticipantPhone = strings.TrimSpace(req.ParticipantPhone)

	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	if slotID == "" {
		return nil, &ValidationError{Fields: []FieldError{{Field: "slot_id", Message: "is required"}}}
	}

	slot, err := s.store.SlotByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("look up slot: %w", err)
	}

	_, err = s.store.ByParticipant(ctx, slot.ProjectID, req.ParticipantEmail)
	switch {
	case err == nil:
		return nil, repository.ErrDuplicateParticipant
	case errors.Is(err, repository.ErrNotFound):
		// No existing booking, proceed.
	default:
		return nil, fmt.Errorf("check duplicate participant: %w", err)
	}

	booking := &model.Booking{
		ID:                     uuid.New().String(),
		SlotID:                 slot.ID,
		ProjectID:              slot.ProjectID,
		ParticipantName:        req.ParticipantName,
		ParticipantProjectName: req.ParticipantProjectName,
		ParticipantEmail:       req.ParticipantEmail,
		ParticipantPhone:       req.ParticipantPhone,
		CreatedAt:              time.Now().UTC(),
	}

	if err := s.store.Claim(ctx, booking); err != nil {
		// Surface domain errors directly so handlers can set correct HTTP status.
		if errors.Is(err, repository.ErrNotFound) ||
			errors.Is(err, repository.ErrSlotUnavailable) ||
			errors.Is(err, repository.ErrDuplicateParticipant) ||
			errors.Is(err, repository.ErrStoreUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("claim slot: %w", err)
	}
	return booking, nil
}
