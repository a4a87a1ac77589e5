package controller

import (
	"time"

	"biocard-api/core/controller"
	"biocard-api/core/errors"
	"biocard-api/core/middleware"
	"biocard-api/modules/events/dto"
	"biocard-api/modules/events/service"
	"biocard-api/modules/integration/provider"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type EventController struct {
	controller.BaseController
	service *service.EventService
}

func NewEventController(service *service.EventService) *EventController {
	return &EventController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

func getUserIDFromContext(ctx echo.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Get(middleware.ContextKeyUserID).(uuid.UUID)
	return userID, ok
}

// SyncEvents triggers an immediate pull sync for one integration.
// POST /api/v1/private/events/sync/:integration_id
func (c *EventController) SyncEvents(ctx echo.Context) error {
	userID, ok := getUserIDFromContext(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user context")
	}

	integrationID, err := uuid.Parse(ctx.Param("integration_id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "invalid integration id")
	}

	synced, appErr := c.service.SyncForUser(ctx.Request().Context(), userID, integrationID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, dto.SyncResponse{
		IntegrationID: integrationID.String(),
		SyncedEvents:  synced,
	}, "sync completed")
}

// CreateEvent pushes an event to the provider's calendar.
// POST /api/v1/private/events
func (c *EventController) CreateEvent(ctx echo.Context) error {
	userID, ok := getUserIDFromContext(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user context")
	}

	var req dto.CreateEventRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}

	integrationID, err := uuid.Parse(req.IntegrationID)
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "invalid integration_id")
	}
	if req.Title == "" {
		return c.BadRequest(errors.ErrInvalidInput, "title is required")
	}
	if !req.EndTime.After(req.StartTime) {
		return c.BadRequest(errors.ErrInvalidInput, "end_time must be after start_time")
	}

	draft := &provider.EventDraft{
		Title:           req.Title,
		Description:     req.Description,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Location:        req.Location,
		WithMeetingLink: req.WithMeetingLink,
	}
	for _, att := range req.Attendees {
		draft.Attendees = append(draft.Attendees, provider.Attendee{
			Email: att.Email,
			Name:  att.Name,
		})
	}

	ev, appErr := c.service.CreateCalendarEvent(ctx.Request().Context(), userID, integrationID, draft, nil)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.CreatedResponse(ctx, ev, "event created")
}

// ListEvents returns the local mirror for an integration.
// GET /api/v1/private/events?integration_id=...&from=...&to=...
func (c *EventController) ListEvents(ctx echo.Context) error {
	userID, ok := getUserIDFromContext(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user context")
	}

	integrationID, err := uuid.Parse(ctx.QueryParam("integration_id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "invalid integration_id")
	}

	from := time.Now()
	to := from.AddDate(0, 0, 30)
	if raw := ctx.QueryParam("from"); raw != "" {
		if from, err = time.Parse(time.RFC3339, raw); err != nil {
			return c.BadRequest(errors.ErrInvalidInput, "invalid from, want RFC 3339")
		}
	}
	if raw := ctx.QueryParam("to"); raw != "" {
		if to, err = time.Parse(time.RFC3339, raw); err != nil {
			return c.BadRequest(errors.ErrInvalidInput, "invalid to, want RFC 3339")
		}
	}

	events, appErr := c.service.ListLocalEvents(ctx.Request().Context(), userID, integrationID, from, to)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, dto.EventListResponse{Events: events}, "events listed")
}
