package repository

import (
	"context"
	"errors"

	"github.com/bchauvel/creneau/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BookingRepository handles persistence for bookings, including the
// concurrency-safe slot claim.
type BookingRepository struct {
	db *pgxpool.Pool
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{db: db}
}

// SlotByID returns a single slot or ErrNotFound.
func (r *BookingRepository) SlotByID(ctx context.Context, id string) (*model.Slot, error) {
	var s model.Slot
	err := r.db.QueryRow(ctx,
		`SELECT id, project_id, start_datetime, duration_minutes, COALESCE(note, ''), status, created_at
		 FROM slots WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.ProjectID, &s.StartDatetime, &s.DurationMinutes, &s.Note, &s.Status, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storeErr("get slot", err)
	}
	return &s, nil
}

// ByParticipant returns the participant's existing booking in the project,
// or ErrNotFound. This is a plain read with no locking; the unique index
// on bookings(project_id, participant_email) is what makes the rule hold
// under concurrency (see Claim).
func (r *BookingRepository) ByParticipant(ctx context.Context, projectID, email string) (*model.Booking, error) {
	var b model.Booking
	err := r.db.QueryRow(ctx,
		`SELECT id, slot_id, project_id, participant_name, participant_project_name,
		        participant_email, COALESCE(participant_phone, ''), created_at
		 FROM bookings
		 WHERE project_id = $1 AND lower(participant_email) = lower($2)`,
		projectID, email,
	).Scan(&b.ID, &b.SlotID, &b.ProjectID, &b.ParticipantName, &b.ParticipantProjectName,
		&b.ParticipantEmail, &b.ParticipantPhone, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storeErr("get booking by participant", err)
	}
	return &b, nil
}

// Claim atomically books a slot.
//
// Two concurrent requests can both see the same slot as available before
// either commits; a naive read-then-write would then book it twice.
// SELECT ... FOR UPDATE acquires a row-level exclusive lock on the slot
// row inside the transaction, so concurrent claimants are serialised:
// exactly one observes status = available and wins, the rest block until
// the winner commits and then observe booked.
//
// The booking insert runs in the same transaction, so the slot flip and
// the booking row are committed together or not at all.
func (r *BookingRepository) Claim(ctx context.Context, booking *model.Booking) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return storeErr("begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Lock the slot row and re-read its status under the lock.
	var status string
	err = tx.QueryRow(ctx,
		`SELECT status FROM slots WHERE id = $1 FOR UPDATE`,
		booking.SlotID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return storeErr("lock slot row", err)
	}

	if status != model.SlotAvailable {
		return ErrSlotUnavailable
	}

	_, err = tx.Exec(ctx,
		`UPDATE slots SET status = $1 WHERE id = $2`,
		model.SlotBooked, booking.SlotID,
	)
	if err != nil {
		return storeErr("mark slot booked", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO bookings (id, slot_id, project_id, participant_name, participant_project_name,
		                       participant_email, participant_phone, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		booking.ID, booking.SlotID, booking.ProjectID, booking.ParticipantName,
		booking.ParticipantProjectName, booking.ParticipantEmail, booking.ParticipantPhone,
		booking.CreatedAt,
	)
	if err != nil {
		// The advisory duplicate check in the service runs before the lock,
		// so two requests from the same participant can both pass it. The
		// unique index catches the loser here, at commit time.
		if isUniqueViolation(err, "uq_bookings_project_participant") {
			return ErrDuplicateParticipant
		}
		return storeErr("insert booking", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return storeErr("commit transaction", err)
	}
	return nil
}
