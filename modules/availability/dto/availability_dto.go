package dto

import "biocard-api/modules/availability/service"

type AvailabilityResponse struct {
	IntegrationID string                     `json:"integration_id"`
	SlotDuration  int                        `json:"slot_duration_minutes"`
	Slots         []service.AvailabilitySlot `json:"slots"`
}
