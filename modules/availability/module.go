package availability

import (
	"biocard-api/core/middleware"
	"biocard-api/modules/availability/controller"
	"biocard-api/modules/availability/router"
	"biocard-api/modules/availability/service"
	integrationService "biocard-api/modules/integration/service"

	"github.com/labstack/echo/v4"
)

// Init wires the availability module and returns its service so the
// booking module can reuse the busy-interval view.
func Init(e *echo.Echo, mw *middleware.Middleware, integrations *integrationService.IntegrationService) *service.AvailabilityService {
	svc := service.NewAvailabilityService(integrations)

	ctrl := controller.NewAvailabilityController(svc)
	router.NewAvailabilityRouter(ctrl).Setup(e, mw)

	return svc
}
