package repository

import (
	"context"
	"database/sql"
	"time"

	"biocard-api/core/database"
	"biocard-api/modules/events/entity"

	"github.com/google/uuid"
)

type EventRepository interface {
	Create(ctx context.Context, ev *entity.CalendarEvent) error
	Upsert(ctx context.Context, ev *entity.CalendarEvent) error
	GetByExternalID(ctx context.Context, integrationID uuid.UUID, externalEventID string) (*entity.CalendarEvent, error)
	ListByIntegration(ctx context.Context, integrationID uuid.UUID, from, to time.Time) ([]entity.CalendarEvent, error)
}

type eventRepository struct {
	db database.IDatabase
}

func NewEventRepository(db database.IDatabase) EventRepository {
	return &eventRepository{db: db}
}

const eventColumns = `
	id, integration_id, external_event_id, booking_id, title, description,
	start_time, end_time, attendees, location, meeting_link, is_all_day,
	status, created_at, updated_at
`

func (r *eventRepository) Create(ctx context.Context, ev *entity.CalendarEvent) error {
	query := `
		INSERT INTO calendar_events (
			integration_id, external_event_id, booking_id, title, description,
			start_time, end_time, attendees, location, meeting_link, is_all_day, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		ev.IntegrationID, ev.ExternalEventID, ev.BookingID, ev.Title, ev.Description,
		ev.StartTime, ev.EndTime, ev.Attendees, ev.Location, ev.MeetingLink,
		ev.IsAllDay, ev.Status,
	).Scan(&ev.ID, &ev.CreatedAt, &ev.UpdatedAt)
}

// Upsert inserts the event or, when a row with the same
// (integration_id, external_event_id) already exists, overwrites its
// mutable fields. The local id and created_at stay stable; updated_at
// is bumped either way.
func (r *eventRepository) Upsert(ctx context.Context, ev *entity.CalendarEvent) error {
	query := `
		INSERT INTO calendar_events (
			integration_id, external_event_id, booking_id, title, description,
			start_time, end_time, attendees, location, meeting_link, is_all_day, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (integration_id, external_event_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			attendees = EXCLUDED.attendees,
			location = EXCLUDED.location,
			meeting_link = EXCLUDED.meeting_link,
			is_all_day = EXCLUDED.is_all_day,
			status = EXCLUDED.status,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		ev.IntegrationID, ev.ExternalEventID, ev.BookingID, ev.Title, ev.Description,
		ev.StartTime, ev.EndTime, ev.Attendees, ev.Location, ev.MeetingLink,
		ev.IsAllDay, ev.Status,
	).Scan(&ev.ID, &ev.CreatedAt, &ev.UpdatedAt)
}

func (r *eventRepository) GetByExternalID(ctx context.Context, integrationID uuid.UUID, externalEventID string) (*entity.CalendarEvent, error) {
	var ev entity.CalendarEvent
	query := `
		SELECT ` + eventColumns + `
		FROM calendar_events
		WHERE integration_id = $1 AND external_event_id = $2
	`
	if err := r.db.GetContext(ctx, &ev, query, integrationID, externalEventID); err != nil {
		return nil, err
	}
	return &ev, nil
}

func (r *eventRepository) ListByIntegration(ctx context.Context, integrationID uuid.UUID, from, to time.Time) ([]entity.CalendarEvent, error) {
	events := []entity.CalendarEvent{}
	query := `
		SELECT ` + eventColumns + `
		FROM calendar_events
		WHERE integration_id = $1 AND start_time < $3 AND end_time > $2
		ORDER BY start_time
	`
	if err := r.db.SelectContext(ctx, &events, query, integrationID, from, to); err != nil {
		return nil, err
	}
	return events, nil
}

// IsNotFound reports whether a repository error means "no such row".
func IsNotFound(err error) bool {
	return err == sql.ErrNoRows
}
