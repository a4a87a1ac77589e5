package entity

import (
	"time"

	"biocard-api/core/entity"

	"github.com/google/uuid"
)

const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Booking is an appointment taken on a user's public booking page.
// Reference is the short public identifier customers use to look the
// booking up; the row id stays internal.
type Booking struct {
	entity.BaseEntity
	UserID          uuid.UUID  `db:"user_id" json:"user_id"`
	IntegrationID   uuid.UUID  `db:"integration_id" json:"integration_id"`
	Reference       string     `db:"reference" json:"reference"`
	CustomerName    string     `db:"customer_name" json:"customer_name"`
	CustomerEmail   string     `db:"customer_email" json:"customer_email"`
	ServiceName     string     `db:"service_name" json:"service_name,omitempty"`
	StartTime       time.Time  `db:"start_time" json:"start_time"`
	EndTime         time.Time  `db:"end_time" json:"end_time"`
	Notes           string     `db:"notes" json:"notes,omitempty"`
	Status          string     `db:"status" json:"status"`
	CalendarEventID *uuid.UUID `db:"calendar_event_id" json:"calendar_event_id,omitempty"`
}

func (Booking) TableName() string {
	return "bookings"
}
