package integration

import (
	"biocard-api/core/database"
	"biocard-api/core/middleware"
	"biocard-api/modules/integration/controller"
	"biocard-api/modules/integration/provider"
	"biocard-api/modules/integration/repository"
	"biocard-api/modules/integration/router"
	"biocard-api/modules/integration/service"

	"github.com/labstack/echo/v4"
)

// Init wires the integration module and returns its service so the
// availability, events and booking modules can share it.
func Init(e *echo.Echo, db database.IDatabase, mw *middleware.Middleware, providers *provider.Registry) *service.IntegrationService {
	repo := repository.NewIntegrationRepository(db)
	svc := service.NewIntegrationService(repo, providers)

	ctrl := controller.NewIntegrationController(svc)
	router.NewIntegrationRouter(ctrl).Setup(e, mw)

	return svc
}
