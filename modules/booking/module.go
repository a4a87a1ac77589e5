package booking

import (
	"biocard-api/core/database"
	"biocard-api/core/middleware"
	availabilityService "biocard-api/modules/availability/service"
	"biocard-api/modules/booking/controller"
	"biocard-api/modules/booking/repository"
	"biocard-api/modules/booking/router"
	"biocard-api/modules/booking/service"
	eventService "biocard-api/modules/events/service"
	integrationRepository "biocard-api/modules/integration/repository"
	integrationService "biocard-api/modules/integration/service"
	notificationService "biocard-api/modules/notification/service"

	"github.com/labstack/echo/v4"
)

func Init(
	e *echo.Echo,
	db database.IDatabase,
	mw *middleware.Middleware,
	integrations *integrationService.IntegrationService,
	availability *availabilityService.AvailabilityService,
	events *eventService.EventService,
	notifier *notificationService.NotificationService,
) {
	repo := repository.NewBookingRepository(db)
	integRepo := integrationRepository.NewIntegrationRepository(db)
	svc := service.NewBookingService(repo, integRepo, integrations, availability, events, notifier)

	ctrl := controller.NewBookingController(svc)
	router.NewBookingRouter(ctrl).Setup(e, mw)
}
