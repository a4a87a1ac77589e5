package service

import (
	"context"
	"fmt"

	"biocard-api/core/config"
	"biocard-api/core/errors"
	"biocard-api/core/logger"
	"biocard-api/core/utils"
	availabilityService "biocard-api/modules/availability/service"
	"biocard-api/modules/booking/dto"
	"biocard-api/modules/booking/entity"
	"biocard-api/modules/booking/repository"
	eventService "biocard-api/modules/events/service"
	"biocard-api/modules/integration/provider"
	integrationRepository "biocard-api/modules/integration/repository"
	integrationService "biocard-api/modules/integration/service"
	notificationService "biocard-api/modules/notification/service"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// BookingService handles the public booking flow on top of the
// availability and events services.
type BookingService struct {
	bookings     repository.BookingRepository
	integRepo    integrationRepository.IntegrationRepository
	integrations *integrationService.IntegrationService
	availability *availabilityService.AvailabilityService
	events       *eventService.EventService
	notifier     *notificationService.NotificationService
}

func NewBookingService(
	bookings repository.BookingRepository,
	integRepo integrationRepository.IntegrationRepository,
	integrations *integrationService.IntegrationService,
	availability *availabilityService.AvailabilityService,
	events *eventService.EventService,
	notifier *notificationService.NotificationService,
) *BookingService {
	return &BookingService{
		bookings:     bookings,
		integRepo:    integRepo,
		integrations: integrations,
		availability: availability,
		events:       events,
		notifier:     notifier,
	}
}

// CreateBooking takes an appointment from the public page. The requested
// slot is re-verified against the provider calendar right before the
// booking is written, which narrows the window where two simultaneous
// requests can both land on the same slot.
func (s *BookingService) CreateBooking(ctx context.Context, req *dto.CreateBookingRequest) (*entity.Booking, *errors.AppError) {
	integrationID, err := uuid.Parse(req.IntegrationID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "invalid integration_id", err)
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "end_time must be after start_time", nil)
	}

	integ, err := s.integRepo.GetByID(ctx, integrationID)
	if err != nil {
		if integrationRepository.IsNotFound(err) {
			return nil, errors.NewAppError(errors.ErrNotFound, "booking page not found", err)
		}
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load booking page", err)
	}
	if !integ.IsActive {
		return nil, errors.NewAppError(errors.ErrNotFound, "booking page not found", nil)
	}

	busy, appErr := s.availability.BusyIntervals(ctx, integ.UserID, integ.ID, req.StartTime, req.EndTime)
	if appErr != nil {
		return nil, appErr
	}
	for _, b := range busy {
		if req.StartTime.Before(b.End) && req.EndTime.After(b.Start) {
			return nil, errors.NewAppError(errors.ErrAlreadyExists, "the requested slot is no longer available", nil)
		}
	}

	booking := &entity.Booking{
		UserID:        integ.UserID,
		IntegrationID: integ.ID,
		Reference:     utils.GenerateBookingReference(),
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		ServiceName:   req.ServiceName,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Notes:         req.Notes,
		Status:        entity.StatusConfirmed,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to store booking", err)
	}

	logger.Info("BookingService:CreateBooking:Stored",
		"booking_id", booking.ID,
		"reference", booking.Reference,
		"integration_id", integ.ID,
	)

	if integ.AutoCreateEvents {
		s.pushBookingEvent(ctx, integ.UserID, booking)
	}

	if s.notifier != nil {
		title := "New booking"
		message := fmt.Sprintf("%s booked %s", req.CustomerName, req.StartTime.Format("2006-01-02 15:04"))
		if req.ServiceName != "" {
			message = fmt.Sprintf("%s booked %s at %s", req.CustomerName, req.ServiceName, req.StartTime.Format("2006-01-02 15:04"))
		}
		if appErr := s.notifier.Create(ctx, integ.UserID, notificationService.TypeBookingCreated, title, message); appErr != nil {
			logger.Warn("BookingService:CreateBooking:Notify", "booking_id", booking.ID, "error", appErr)
		}
	}

	return booking, nil
}

// pushBookingEvent externalizes the booking onto the owner's calendar.
// The booking stands even when the push fails; the owner still sees it
// locally and the next manual push or reconnect can recover.
func (s *BookingService) pushBookingEvent(ctx context.Context, ownerID uuid.UUID, booking *entity.Booking) {
	title := booking.CustomerName
	if booking.ServiceName != "" {
		title = fmt.Sprintf("%s - %s", booking.ServiceName, booking.CustomerName)
	}

	draft := &provider.EventDraft{
		Title:       title,
		Description: booking.Notes,
		StartTime:   booking.StartTime,
		EndTime:     booking.EndTime,
		Attendees: []provider.Attendee{
			{Email: booking.CustomerEmail, Name: booking.CustomerName},
		},
		WithMeetingLink: true,
	}

	ev, appErr := s.events.CreateCalendarEvent(ctx, ownerID, booking.IntegrationID, draft, &booking.ID)
	if appErr != nil {
		logger.Warn("BookingService:pushBookingEvent:Failed",
			"booking_id", booking.ID,
			"integration_id", booking.IntegrationID,
			"error", appErr,
		)
		return
	}

	if err := s.bookings.SetCalendarEventID(ctx, booking.ID, ev.ID); err != nil {
		logger.Warn("BookingService:pushBookingEvent:Link", "booking_id", booking.ID, "error", err)
		return
	}
	booking.CalendarEventID = &ev.ID
}

// GetBookingByReference resolves a public confirmation lookup.
func (s *BookingService) GetBookingByReference(ctx context.Context, reference string) (*entity.Booking, *errors.AppError) {
	booking, err := s.bookings.GetByReference(ctx, reference)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errors.NewAppError(errors.ErrNotFound, "booking not found", err)
		}
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load booking", err)
	}
	return booking, nil
}

func (s *BookingService) ListBookings(ctx context.Context, userID uuid.UUID) ([]entity.Booking, *errors.AppError) {
	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list bookings", err)
	}
	return bookings, nil
}

// CancelBooking marks a booking cancelled. Cancelling twice is a no-op.
func (s *BookingService) CancelBooking(ctx context.Context, userID, bookingID uuid.UUID) *errors.AppError {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if repository.IsNotFound(err) {
			return errors.NewAppError(errors.ErrNotFound, "booking not found", err)
		}
		return errors.NewAppError(errors.ErrInternalServer, "failed to load booking", err)
	}
	if booking.UserID != userID {
		return errors.NewAppError(errors.ErrNotFound, "booking not found", nil)
	}
	if booking.Status == entity.StatusCancelled {
		return nil
	}

	if err := s.bookings.UpdateStatus(ctx, bookingID, entity.StatusCancelled); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to cancel booking", err)
	}

	logger.Info("BookingService:CancelBooking:Success", "booking_id", bookingID, "user_id", userID)
	return nil
}

// GetPersonalBookingURL builds the shareable public booking page URL
// from the user's first active integration.
func (s *BookingService) GetPersonalBookingURL(ctx context.Context, userID uuid.UUID) (*dto.PersonalBookingURLResponse, *errors.AppError) {
	integrations, appErr := s.integrations.ListActiveIntegrations(ctx, userID)
	if appErr != nil {
		return nil, appErr
	}
	if len(integrations) == 0 {
		return nil, errors.NewAppError(errors.ErrNotFound, "connect a calendar before sharing a booking page", nil)
	}
	integ := integrations[0]

	cfg, ok := config.GetSafe()
	if !ok {
		return nil, errors.NewAppError(errors.ErrInternalServer, "server configuration error", nil)
	}

	host := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	if cfg.Server.Host != "" && cfg.Server.Host != "0.0.0.0" {
		host = fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	}

	name := slug.Make(integ.CalendarName)
	if name == "" {
		name = "calendar"
	}

	return &dto.PersonalBookingURLResponse{
		URL: fmt.Sprintf("%s/book/%s/%s", host, name, integ.ID),
	}, nil
}
