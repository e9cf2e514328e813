// Package repository implements all database queries for the booking
// system. It uses pgx directly (no ORM) for transparency and performance.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bchauvel/creneau/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProjectRepository handles persistence for projects and their slots.
type ProjectRepository struct {
	db *pgxpool.Pool
}

// NewProjectRepository constructs a ProjectRepository.
func NewProjectRepository(db *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create inserts the project and all of its slots in a single transaction:
// a project is never visible without its full slot set.
func (r *ProjectRepository) Create(ctx context.Context, project *model.Project, slots []model.Slot) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return storeErr("begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO projects (id, title, description, organizer_name, organizer_email, public_slug, admin_token, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		project.ID, project.Title, project.Description, project.OrganizerName,
		project.OrganizerEmail, project.PublicSlug, project.AdminToken, project.CreatedAt,
	)
	if err != nil {
		return storeErr("insert project", err)
	}

	for i := range slots {
		s := &slots[i]
		_, err = tx.Exec(ctx,
			`INSERT INTO slots (id, project_id, start_datetime, duration_minutes, note, status, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			s.ID, s.ProjectID, s.StartDatetime, s.DurationMinutes, s.Note, s.Status, s.CreatedAt,
		)
		if err != nil {
			return storeErr("insert slot", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return storeErr("commit transaction", err)
	}
	return nil
}

// BySlug returns a project and its slots ordered by start time, or
// ErrNotFound.
func (r *ProjectRepository) BySlug(ctx context.Context, slug string) (*model.Project, []model.Slot, error) {
	project, err := r.scanProject(ctx, slug)
	if err != nil {
		return nil, nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, project_id, start_datetime, duration_minutes, COALESCE(note, ''), status, created_at
		 FROM slots
		 WHERE project_id = $1
		 ORDER BY start_datetime ASC`,
		project.ID,
	)
	if err != nil {
		return nil, nil, storeErr("list slots", err)
	}
	defer rows.Close()

	var slots []model.Slot
	for rows.Next() {
		var s model.Slot
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.StartDatetime, &s.DurationMinutes, &s.Note, &s.Status, &s.CreatedAt); err != nil {
			return nil, nil, storeErr("scan slot", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, storeErr("list slots", err)
	}
	return project, slots, nil
}

// AdminBySlug returns a project together with every slot and its booking,
// for the token-gated admin view.
func (r *ProjectRepository) AdminBySlug(ctx context.Context, slug string) (*model.Project, []model.SlotWithBooking, error) {
	project, err := r.scanProject(ctx, slug)
	if err != nil {
		return nil, nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT s.id, s.project_id, s.start_datetime, s.duration_minutes, COALESCE(s.note, ''), s.status, s.created_at,
		        b.id, b.participant_name, b.participant_project_name, b.participant_email,
		        COALESCE(b.participant_phone, ''), b.created_at
		 FROM slots s
		 LEFT JOIN bookings b ON b.slot_id = s.id
		 WHERE s.project_id = $1
		 ORDER BY s.start_datetime ASC`,
		project.ID,
	)
	if err != nil {
		return nil, nil, storeErr("list slots with bookings", err)
	}
	defer rows.Close()

	var slots []model.SlotWithBooking
	for rows.Next() {
		var sw model.SlotWithBooking
		var bookingID, name, projName, email, phone *string
		var bookedAt *time.Time
		if err := rows.Scan(
			&sw.ID, &sw.ProjectID, &sw.StartDatetime, &sw.DurationMinutes, &sw.Note, &sw.Status, &sw.CreatedAt,
			&bookingID, &name, &projName, &email, &phone, &bookedAt,
		); err != nil {
			return nil, nil, storeErr("scan slot with booking", err)
		}
		if bookingID != nil {
			sw.Booking = &model.Booking{
				ID:                     *bookingID,
				SlotID:                 sw.ID,
				ProjectID:              sw.ProjectID,
				ParticipantName:        deref(name),
				ParticipantProjectName: deref(projName),
				ParticipantEmail:       deref(email),
				ParticipantPhone:       deref(phone),
				CreatedAt:              *bookedAt,
			}
		}
		slots = append(slots, sw)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, storeErr("list slots with bookings", err)
	}
	return project, slots, nil
}

func (r *ProjectRepository) scanProject(ctx context.Context, slug string) (*model.Project, error) {
	var p model.Project
	err := r.db.QueryRow(ctx,
		`SELECT id, title, COALESCE(description, ''), organizer_name, organizer_email, public_slug, admin_token, created_at
		 FROM projects WHERE public_slug = $1`,
		slug,
	).Scan(&p.ID, &p.Title, &p.Description, &p.OrganizerName, &p.OrganizerEmail, &p.PublicSlug, &p.AdminToken, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storeErr("get project", err)
	}
	return &p, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
