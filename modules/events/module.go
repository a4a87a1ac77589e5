package events

import (
	"biocard-api/core/database"
	"biocard-api/core/middleware"
	"biocard-api/modules/events/controller"
	"biocard-api/modules/events/repository"
	"biocard-api/modules/events/router"
	"biocard-api/modules/events/service"
	integrationRepository "biocard-api/modules/integration/repository"
	integrationService "biocard-api/modules/integration/service"

	"github.com/labstack/echo/v4"
)

// Init wires the events module and returns its service for the booking
// module and the background worker.
func Init(e *echo.Echo, db database.IDatabase, mw *middleware.Middleware, integrations *integrationService.IntegrationService) *service.EventService {
	eventRepo := repository.NewEventRepository(db)
	integRepo := integrationRepository.NewIntegrationRepository(db)
	svc := service.NewEventService(eventRepo, integrations, integRepo)

	ctrl := controller.NewEventController(svc)
	router.NewEventRouter(ctrl).Setup(e, mw)

	return svc
}
