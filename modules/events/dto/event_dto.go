package dto

import (
	"time"

	"biocard-api/modules/events/entity"
)

type (
	CreateEventRequest struct {
		IntegrationID   string            `json:"integration_id" validate:"required"`
		Title           string            `json:"title" validate:"required"`
		Description     string            `json:"description"`
		StartTime       time.Time         `json:"start_time" validate:"required"`
		EndTime         time.Time         `json:"end_time" validate:"required"`
		Attendees       []AttendeeRequest `json:"attendees"`
		Location        string            `json:"location"`
		WithMeetingLink bool              `json:"with_meeting_link"`
	}

	AttendeeRequest struct {
		Email string `json:"email" validate:"required,email"`
		Name  string `json:"name"`
	}

	SyncResponse struct {
		IntegrationID string `json:"integration_id"`
		SyncedEvents  int    `json:"synced_events"`
	}

	EventListResponse struct {
		Events []entity.CalendarEvent `json:"events"`
	}
)
