package controller

import (
	"biocard-api/core/controller"
	"biocard-api/core/errors"
	"biocard-api/core/middleware"
	"biocard-api/modules/booking/dto"
	"biocard-api/modules/booking/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type BookingController struct {
	controller.BaseController
	service *service.BookingService
}

func NewBookingController(service *service.BookingService) *BookingController {
	return &BookingController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

// CreateBooking takes a booking from the public page. No auth; rate
// limited by IP.
// POST /api/v1/public/bookings
func (c *BookingController) CreateBooking(ctx echo.Context) error {
	var req dto.CreateBookingRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}
	if req.CustomerName == "" || req.CustomerEmail == "" {
		return c.BadRequest(errors.ErrInvalidInput, "customer_name and customer_email are required")
	}

	booking, appErr := c.service.CreateBooking(ctx.Request().Context(), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.CreatedResponse(ctx, dto.ToBookingResponse(booking), "booking confirmed")
}

// GetBookingByReference resolves the public confirmation lookup.
// GET /api/v1/public/bookings/:reference
func (c *BookingController) GetBookingByReference(ctx echo.Context) error {
	reference := ctx.Param("reference")
	if reference == "" {
		return c.BadRequest(errors.ErrInvalidInput, "reference is required")
	}

	booking, appErr := c.service.GetBookingByReference(ctx.Request().Context(), reference)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, dto.ToBookingResponse(booking), "booking found")
}

// ListBookings returns the owner's bookings.
// GET /api/v1/private/bookings
func (c *BookingController) ListBookings(ctx echo.Context) error {
	userID, ok := ctx.Get(middleware.ContextKeyUserID).(uuid.UUID)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user context")
	}

	bookings, appErr := c.service.ListBookings(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, dto.BookingListResponse{Bookings: bookings}, "bookings listed")
}

// CancelBooking marks one of the owner's bookings cancelled.
// DELETE /api/v1/private/bookings/:id
func (c *BookingController) CancelBooking(ctx echo.Context) error {
	userID, ok := ctx.Get(middleware.ContextKeyUserID).(uuid.UUID)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user context")
	}

	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "invalid booking id")
	}

	if appErr := c.service.CancelBooking(ctx.Request().Context(), userID, bookingID); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, nil, "booking cancelled")
}

// GetPersonalBookingURL returns the shareable booking page URL.
// GET /api/v1/private/bookings/url
func (c *BookingController) GetPersonalBookingURL(ctx echo.Context) error {
	userID, ok := ctx.Get(middleware.ContextKeyUserID).(uuid.UUID)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user context")
	}

	res, appErr := c.service.GetPersonalBookingURL(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, res, "booking url generated")
}
