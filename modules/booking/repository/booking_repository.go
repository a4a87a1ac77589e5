package repository

import (
	"context"
	"database/sql"

	"biocard-api/core/database"
	"biocard-api/modules/booking/entity"

	"github.com/google/uuid"
)

type BookingRepository interface {
	Create(ctx context.Context, b *entity.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	GetByReference(ctx context.Context, reference string) (*entity.Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Booking, error)
	SetCalendarEventID(ctx context.Context, id, eventID uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type bookingRepository struct {
	db database.IDatabase
}

func NewBookingRepository(db database.IDatabase) BookingRepository {
	return &bookingRepository{db: db}
}

const bookingColumns = `
	id, user_id, integration_id, reference, customer_name, customer_email,
	service_name, start_time, end_time, notes, status, calendar_event_id,
	created_at, updated_at
`

func (r *bookingRepository) Create(ctx context.Context, b *entity.Booking) error {
	query := `
		INSERT INTO bookings (
			user_id, integration_id, reference, customer_name, customer_email,
			service_name, start_time, end_time, notes, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		b.UserID, b.IntegrationID, b.Reference, b.CustomerName, b.CustomerEmail,
		b.ServiceName, b.StartTime, b.EndTime, b.Notes, b.Status,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (r *bookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	var b entity.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	if err := r.db.GetContext(ctx, &b, query, id); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) GetByReference(ctx context.Context, reference string) (*entity.Booking, error) {
	var b entity.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE reference = $1`
	if err := r.db.GetContext(ctx, &b, query, reference); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Booking, error) {
	bookings := []entity.Booking{}
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY start_time DESC
	`
	if err := r.db.SelectContext(ctx, &bookings, query, userID); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) SetCalendarEventID(ctx context.Context, id, eventID uuid.UUID) error {
	query := `UPDATE bookings SET calendar_event_id = $1, updated_at = NOW() WHERE id = $2`
	return r.db.ExecContext(ctx, query, eventID, id)
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2`
	return r.db.ExecContext(ctx, query, status, id)
}

// IsNotFound reports whether a repository error means "no such row".
func IsNotFound(err error) bool {
	return err == sql.ErrNoRows
}
