package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"biocard-api/core/entity"

	"github.com/google/uuid"
)

// Event statuses stored in the local mirror.
const (
	StatusConfirmed = "confirmed"
	StatusTentative = "tentative"
	StatusCancelled = "cancelled"
)

type Attendee struct {
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Status string `json:"status"`
}

// AttendeeList is a JSONB-backed ordered attendee list.
type AttendeeList []Attendee

func (l AttendeeList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]Attendee{})
	}
	return json.Marshal(l)
}

func (l *AttendeeList) Scan(value any) error {
	if value == nil {
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, l)
}

// CalendarEvent mirrors one provider event locally. Rows are created by
// a booking push or a pull sync, updated in place on later syncs keyed
// by (integration_id, external_event_id), and never deleted; a
// provider-side cancellation flips Status instead.
type CalendarEvent struct {
	entity.BaseEntity
	IntegrationID   uuid.UUID    `db:"integration_id" json:"integration_id"`
	ExternalEventID string       `db:"external_event_id" json:"external_event_id"`
	BookingID       *uuid.UUID   `db:"booking_id" json:"booking_id,omitempty"`
	Title           string       `db:"title" json:"title"`
	Description     string       `db:"description" json:"description,omitempty"`
	StartTime       time.Time    `db:"start_time" json:"start_time"`
	EndTime         time.Time    `db:"end_time" json:"end_time"`
	Attendees       AttendeeList `db:"attendees" json:"attendees"`
	Location        string       `db:"location" json:"location,omitempty"`
	MeetingLink     string       `db:"meeting_link" json:"meeting_link,omitempty"`
	IsAllDay        bool         `db:"is_all_day" json:"is_all_day"`
	Status          string       `db:"status" json:"status"`
}

func (CalendarEvent) TableName() string {
	return "calendar_events"
}
