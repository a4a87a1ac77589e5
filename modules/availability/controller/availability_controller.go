package controller

import (
	"time"

	"biocard-api/core/constants"
	"biocard-api/core/controller"
	"biocard-api/core/errors"
	"biocard-api/core/middleware"
	"biocard-api/modules/availability/dto"
	"biocard-api/modules/availability/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
)

type AvailabilityController struct {
	controller.BaseController
	service *service.AvailabilityService
}

func NewAvailabilityController(service *service.AvailabilityService) *AvailabilityController {
	return &AvailabilityController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

// GetAvailability returns the slot sequence for an integration.
// GET /api/v1/private/availability?integration_id=...&start_time=...&end_time=...&slot_duration=30
func (c *AvailabilityController) GetAvailability(ctx echo.Context) error {
	userID, ok := ctx.Get(middleware.ContextKeyUserID).(uuid.UUID)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user context")
	}

	integrationID, err := uuid.Parse(ctx.QueryParam("integration_id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "invalid integration_id")
	}

	startStr := ctx.QueryParam("start_time")
	endStr := ctx.QueryParam("end_time")
	if startStr == "" || endStr == "" {
		return c.BadRequest(errors.ErrInvalidInput, "start_time and end_time are required")
	}

	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "invalid start_time format, want RFC 3339")
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "invalid end_time format, want RFC 3339")
	}

	durationMinutes := constants.DefaultSlotDurationMinutes
	if raw := ctx.QueryParam("slot_duration"); raw != "" {
		durationMinutes = cast.ToInt(raw)
	}
	if durationMinutes <= 0 {
		return c.BadRequest(errors.ErrInvalidInput, "slot_duration must be a positive number of minutes")
	}

	slots, appErr := c.service.GetAvailability(ctx.Request().Context(), userID, integrationID, start, end, time.Duration(durationMinutes)*time.Minute)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, dto.AvailabilityResponse{
		IntegrationID: integrationID.String(),
		SlotDuration:  durationMinutes,
		Slots:         slots,
	}, "availability computed")
}
