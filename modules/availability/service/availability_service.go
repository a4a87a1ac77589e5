package service

import (
	"context"
	"time"

	"biocard-api/core/errors"
	"biocard-api/core/logger"
	"biocard-api/modules/integration/entity"
	"biocard-api/modules/integration/provider"
	integrationService "biocard-api/modules/integration/service"

	"github.com/google/uuid"
)

// AvailabilityService computes bookable slots for one integration by
// combining the provider's events in the window with the slot generator.
type AvailabilityService struct {
	integrations *integrationService.IntegrationService
}

func NewAvailabilityService(integrations *integrationService.IntegrationService) *AvailabilityService {
	return &AvailabilityService{integrations: integrations}
}

// GetAvailability fetches the provider's events for [start, end) and
// returns the slot sequence. Nothing is cached; two calls in a row hit
// the provider twice.
func (s *AvailabilityService) GetAvailability(ctx context.Context, userID, integrationID uuid.UUID, start, end time.Time, slotDuration time.Duration) ([]AvailabilitySlot, *errors.AppError) {
	if slotDuration <= 0 {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "slot duration must be positive", nil)
	}

	integ, appErr := s.integrations.GetIntegration(ctx, userID, integrationID)
	if appErr != nil {
		return nil, appErr
	}

	busy, appErr := s.busyForIntegration(ctx, integ, start, end)
	if appErr != nil {
		return nil, appErr
	}

	slots, err := GenerateSlots(start, end, slotDuration, busy)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, err.Error(), err)
	}

	logger.Info("AvailabilityService:GetAvailability:Success",
		"integration_id", integrationID,
		"slots", len(slots),
	)
	return slots, nil
}

// BusyIntervals exposes the normalized busy view of an integration's
// calendar. The booking flow uses it to re-verify a slot right before
// pushing an event.
func (s *AvailabilityService) BusyIntervals(ctx context.Context, userID, integrationID uuid.UUID, start, end time.Time) ([]BusyInterval, *errors.AppError) {
	integ, appErr := s.integrations.GetIntegration(ctx, userID, integrationID)
	if appErr != nil {
		return nil, appErr
	}
	return s.busyForIntegration(ctx, integ, start, end)
}

// busyForIntegration pulls provider events in the window and normalizes
// them into busy intervals. Cancelled events do not occupy time.
func (s *AvailabilityService) busyForIntegration(ctx context.Context, integ *entity.CalendarIntegration, start, end time.Time) ([]BusyInterval, *errors.AppError) {
	integ, appErr := s.integrations.EnsureFreshToken(ctx, integ)
	if appErr != nil {
		return nil, appErr
	}

	adapter, appErr := s.integrations.AdapterFor(integ.Provider)
	if appErr != nil {
		return nil, appErr
	}

	rawEvents, err := adapter.ListEvents(ctx, integ.AccessToken, integ.CalendarID, start, end)
	if err != nil {
		logger.Error("AvailabilityService:busyForIntegration:ListEvents",
			"integration_id", integ.ID,
			"provider", integ.Provider,
			"error", err,
		)
		return nil, errors.NewAppError(errors.ErrProviderAPI, err.Error(), err)
	}

	busy := make([]BusyInterval, 0, len(rawEvents))
	for _, raw := range rawEvents {
		mapped, err := provider.MapEvent(integ.Provider, raw)
		if err != nil {
			logger.Warn("AvailabilityService:busyForIntegration:SkipUnparseable",
				"integration_id", integ.ID,
				"external_event_id", raw.ExternalID,
				"error", err,
			)
			continue
		}
		if mapped.Status == provider.EventStatusCancelled {
			continue
		}
		busy = append(busy, BusyInterval{
			Start: mapped.StartTime,
			End:   mapped.EndTime,
			Title: mapped.Title,
		})
	}
	return busy, nil
}
