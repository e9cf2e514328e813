// Package model defines the core domain types for the mentorship-slot
// booking system.
package model

import "time"

// Slot status values. A slot moves from available to booked exactly once
// and never transitions back.
const (
	SlotAvailable = "available"
	SlotBooked    = "booked"
)

// Project represents an organizer-created mentorship session containing
// one or more bookable slots. AdminToken is an opaque secret granting
// access to the project's full booking state; it is generated at creation
// and never rotated.
type Project struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	OrganizerName  string    `json:"organizer_name"`
	OrganizerEmail string    `json:"organizer_email,omitempty"`
	PublicSlug     string    `json:"public_slug"`
	AdminToken     string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// Slot is a bookable time interval belonging to a project.
type Slot struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"project_id"`
	StartDatetime   time.Time `json:"start_datetime"`
	DurationMinutes int       `json:"duration_minutes"`
	Note            string    `json:"note,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// Booking records a participant claiming a slot. A slot holds at most one
// booking, and a participant email holds at most one booking per project.
type Booking struct {
	ID                     string    `json:"id"`
	SlotID                 string    `json:"slot_id"`
	ProjectID              string    `json:"project_id"`
	ParticipantName        string    `json:"participant_name"`
	ParticipantProjectName string    `json:"participant_project_name"`
	ParticipantEmail       string    `json:"participant_email"`
	ParticipantPhone       string    `json:"participant_phone,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
}

// SlotInput describes one slot in a project-creation request.
type SlotInput struct {
	StartDatetime   time.Time `json:"start_datetime" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,gt=0,lte=1440"`
	Note            string    `json:"note,omitempty" validate:"max=500"`
}

// CreateProjectRequest is the payload for creating a new project with its
// full set of slots.
type CreateProjectRequest struct {
	Title          string      `json:"title" validate:"required,max=200"`
	Description    string      `json:"description,omitempty" validate:"max=2000"`
	OrganizerName  string      `json:"organizer_name" validate:"required,max=200"`
	OrganizerEmail string      `json:"organizer_email" validate:"required,email_basic"`
	Slots          []SlotInput `json:"slots" validate:"required,min=1,max=200,dive"`
}

// CreateProjectResponse returns the identifiers and links the organizer
// needs: the public booking link and the secret admin link.
type CreateProjectResponse struct {
	ProjectID  string `json:"project_id"`
	PublicSlug string `json:"public_slug"`
	AdminToken string `json:"admin_token"`
	PublicURL  string `json:"public_url"`
	AdminURL   string `json:"admin_url"`
}

// BookSlotRequest is the payload a participant submits to claim a slot.
type BookSlotRequest struct {
	ParticipantName        string `json:"participant_name" validate:"required,max=200"`
	ParticipantProjectName string `json:"participant_project_name" validate:"required,max=200"`
	ParticipantEmail       string `json:"participant_email" validate:"required,email_basic"`
	ParticipantPhone       string `json:"participant_phone,omitempty" validate:"max=32"`
}

// BookSlotResponse reports the outcome of a booking attempt.
type BookSlotResponse struct {
	Success   bool   `json:"success"`
	BookingID string `json:"booking_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ProjectView is the public representation of a project and its slots,
// keyed by public slug. It never exposes the admin token or the
// organizer's email.
type ProjectView struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	OrganizerName string    `json:"organizer_name"`
	CreatedAt     time.Time `json:"created_at"`
	Slots         []Slot    `json:"slots"`
}

// SlotWithBooking pairs a slot with its booking, if any. Used in the
// admin dashboard.
type SlotWithBooking struct {
	Slot
	Booking *Booking `json:"booking,omitempty"`
}

// Stats summarises booking progress for a project.
type Stats struct {
	TotalSlots     int `json:"total_slots"`
	BookedSlots    int `json:"booked_slots"`
	AvailableSlots int `json:"available_slots"`
}

// AdminDashboard is the token-gated full view of a project's booking state.
type AdminDashboard struct {
	Project Project           `json:"project"`
	Slots   []SlotWithBooking `json:"slots"`
	Stats   Stats             `json:"stats"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
