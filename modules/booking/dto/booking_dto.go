package dto

import (
	"time"

	"biocard-api/modules/booking/entity"
)

type (
	// CreateBookingRequest is the public booking form payload.
	CreateBookingRequest struct {
		IntegrationID string    `json:"integration_id" validate:"required"`
		CustomerName  string    `json:"customer_name" validate:"required"`
		CustomerEmail string    `json:"customer_email" validate:"required,email"`
		ServiceName   string    `json:"service_name"`
		StartTime     time.Time `json:"start_time" validate:"required"`
		EndTime       time.Time `json:"end_time" validate:"required"`
		Notes         string    `json:"notes"`
	}

	BookingResponse struct {
		Reference     string    `json:"reference"`
		CustomerName  string    `json:"customer_name"`
		CustomerEmail string    `json:"customer_email"`
		ServiceName   string    `json:"service_name,omitempty"`
		StartTime     time.Time `json:"start_time"`
		EndTime       time.Time `json:"end_time"`
		Status        string    `json:"status"`
		CreatedAt     time.Time `json:"created_at"`
	}

	BookingListResponse struct {
		Bookings []entity.Booking `json:"bookings"`
	}

	// PersonalBookingURLResponse carries the shareable booking page URL.
	PersonalBookingURLResponse struct {
		URL string `json:"url"`
	}
)

func ToBookingResponse(b *entity.Booking) BookingResponse {
	return BookingResponse{
		Reference:     b.Reference,
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		ServiceName:   b.ServiceName,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		Status:        b.Status,
		CreatedAt:     b.CreatedAt,
	}
}
