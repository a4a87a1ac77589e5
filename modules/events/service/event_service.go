package service

import (
	"context"
	"time"

	"biocard-api/core/constants"
	"biocard-api/core/errors"
	"biocard-api/core/logger"
	"biocard-api/modules/events/entity"
	"biocard-api/modules/events/repository"
	"biocard-api/modules/integration/provider"
	integrationRepository "biocard-api/modules/integration/repository"
	integrationService "biocard-api/modules/integration/service"

	"github.com/google/uuid"
)

// EventService owns the local event mirror: pull sync from providers and
// push of booking-originated events outward.
type EventService struct {
	events       repository.EventRepository
	integrations *integrationService.IntegrationService
	integRepo    integrationRepository.IntegrationRepository
}

func NewEventService(events repository.EventRepository, integrations *integrationService.IntegrationService, integRepo integrationRepository.IntegrationRepository) *EventService {
	return &EventService{
		events:       events,
		integrations: integrations,
		integRepo:    integRepo,
	}
}

// SyncCalendarEvents pulls the provider's events for the next sync
// window into the local mirror, upserting by (integration_id,
// external_event_id). It returns the number of events upserted.
//
// The per-event loop is sequential and not transactional: a failure
// mid-list aborts the sync but keeps the events already written.
func (s *EventService) SyncCalendarEvents(ctx context.Context, integrationID uuid.UUID) (int, *errors.AppError) {
	integ, err := s.integRepo.GetByID(ctx, integrationID)
	if err != nil {
		if integrationRepository.IsNotFound(err) {
			return 0, errors.NewAppError(errors.ErrNotFound, "integration not found", err)
		}
		return 0, errors.NewAppError(errors.ErrInternalServer, "failed to load integration", err)
	}

	if !integ.IsActive || !integ.SyncEnabled {
		logger.Info("EventService:SyncCalendarEvents:Skipped",
			"integration_id", integrationID,
			"is_active", integ.IsActive,
			"sync_enabled", integ.SyncEnabled,
		)
		return 0, nil
	}

	integ, appErr := s.integrations.EnsureFreshToken(ctx, integ)
	if appErr != nil {
		return 0, appErr
	}

	adapter, appErr := s.integrations.AdapterFor(integ.Provider)
	if appErr != nil {
		return 0, appErr
	}

	windowStart := time.Now()
	windowEnd := windowStart.AddDate(0, 0, constants.SyncWindowDays)

	rawEvents, err := adapter.ListEvents(ctx, integ.AccessToken, integ.CalendarID, windowStart, windowEnd)
	if err != nil {
		logger.Error("EventService:SyncCalendarEvents:ListEvents",
			"integration_id", integ.ID,
			"provider", integ.Provider,
			"error", err,
		)
		return 0, errors.NewAppError(errors.ErrProviderAPI, err.Error(), err)
	}

	synced := 0
	for _, raw := range rawEvents {
		mapped, err := provider.MapEvent(integ.Provider, raw)
		if err != nil {
			logger.Error("EventService:SyncCalendarEvents:Map",
				"integration_id", integ.ID,
				"external_event_id", raw.ExternalID,
				"error", err,
			)
			return synced, errors.NewAppError(errors.ErrProviderAPI, err.Error(), err)
		}

		ev := mappedToEntity(integ.ID, mapped)
		if err := s.events.Upsert(ctx, ev); err != nil {
			logger.Error("EventService:SyncCalendarEvents:Upsert",
				"integration_id", integ.ID,
				"external_event_id", raw.ExternalID,
				"error", err,
			)
			return synced, errors.NewAppError(errors.ErrInternalServer, "failed to store synced event", err)
		}
		synced++
	}

	logger.Info("EventService:SyncCalendarEvents:Success",
		"integration_id", integ.ID,
		"provider", integ.Provider,
		"synced", synced,
	)
	return synced, nil
}

// SyncForUser verifies ownership before syncing. The HTTP layer goes
// through here; the background worker calls SyncCalendarEvents directly.
func (s *EventService) SyncForUser(ctx context.Context, userID, integrationID uuid.UUID) (int, *errors.AppError) {
	if _, appErr := s.integrations.GetIntegration(ctx, userID, integrationID); appErr != nil {
		return 0, appErr
	}
	return s.SyncCalendarEvents(ctx, integrationID)
}

// CreateCalendarEvent pushes a draft to the provider and records the
// created event locally. The stored attendee statuses start at
// needsAction; real RSVP state arrives with the next pull sync.
func (s *EventService) CreateCalendarEvent(ctx context.Context, userID, integrationID uuid.UUID, draft *provider.EventDraft, bookingID *uuid.UUID) (*entity.CalendarEvent, *errors.AppError) {
	integ, appErr := s.integrations.GetIntegration(ctx, userID, integrationID)
	if appErr != nil {
		return nil, appErr
	}

	integ, appErr = s.integrations.EnsureFreshToken(ctx, integ)
	if appErr != nil {
		return nil, appErr
	}

	adapter, appErr := s.integrations.AdapterFor(integ.Provider)
	if appErr != nil {
		return nil, appErr
	}

	externalID, err := adapter.CreateEvent(ctx, integ.AccessToken, integ.CalendarID, integ.TimeZone, draft)
	if err != nil {
		logger.Error("EventService:CreateCalendarEvent:Push",
			"integration_id", integ.ID,
			"provider", integ.Provider,
			"error", err,
		)
		return nil, errors.NewAppError(errors.ErrProviderAPI, err.Error(), err)
	}

	attendees := make(entity.AttendeeList, 0, len(draft.Attendees))
	for _, att := range draft.Attendees {
		attendees = append(attendees, entity.Attendee{
			Email:  att.Email,
			Name:   att.Name,
			Status: provider.AttendeeStatusNeedsAction,
		})
	}

	ev := &entity.CalendarEvent{
		IntegrationID:   integ.ID,
		ExternalEventID: externalID,
		BookingID:       bookingID,
		Title:           draft.Title,
		Description:     draft.Description,
		StartTime:       draft.StartTime,
		EndTime:         draft.EndTime,
		Attendees:       attendees,
		Location:        draft.Location,
		IsAllDay:        false,
		Status:          entity.StatusConfirmed,
	}
	if err := s.events.Create(ctx, ev); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "event pushed but local record failed", err)
	}

	logger.Info("EventService:CreateCalendarEvent:Success",
		"integration_id", integ.ID,
		"external_event_id", externalID,
	)
	return ev, nil
}

// ListLocalEvents reads the mirror without touching the provider.
func (s *EventService) ListLocalEvents(ctx context.Context, userID, integrationID uuid.UUID, from, to time.Time) ([]entity.CalendarEvent, *errors.AppError) {
	if _, appErr := s.integrations.GetIntegration(ctx, userID, integrationID); appErr != nil {
		return nil, appErr
	}

	events, err := s.events.ListByIntegration(ctx, integrationID, from, to)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list events", err)
	}
	return events, nil
}

// SyncAll sweeps every sync-enabled integration. The background worker
// runs it on a schedule; a failing integration does not stop the sweep.
func (s *EventService) SyncAll(ctx context.Context) (int, int) {
	integrations, err := s.integRepo.ListSyncEnabled(ctx)
	if err != nil {
		logger.Error("EventService:SyncAll:List", "error", err)
		return 0, 0
	}

	succeeded, failed := 0, 0
	for _, integ := range integrations {
		if _, appErr := s.SyncCalendarEvents(ctx, integ.ID); appErr != nil {
			failed++
			continue
		}
		succeeded++
	}

	logger.Info("EventService:SyncAll:Done",
		"total", len(integrations),
		"succeeded", succeeded,
		"failed", failed,
	)
	return succeeded, failed
}

func mappedToEntity(integrationID uuid.UUID, mapped *provider.MappedEvent) *entity.CalendarEvent {
	attendees := make(entity.AttendeeList, 0, len(mapped.Attendees))
	for _, att := range mapped.Attendees {
		attendees = append(attendees, entity.Attendee{
			Email:  att.Email,
			Name:   att.Name,
			Status: att.Status,
		})
	}

	return &entity.CalendarEvent{
		IntegrationID:   integrationID,
		ExternalEventID: mapped.ExternalID,
		Title:           mapped.Title,
		Description:     mapped.Description,
		StartTime:       mapped.StartTime,
		EndTime:         mapped.EndTime,
		Attendees:       attendees,
		Location:        mapped.Location,
		MeetingLink:     mapped.MeetingLink,
		IsAllDay:        mapped.IsAllDay,
		Status:          mapped.Status,
	}
}
