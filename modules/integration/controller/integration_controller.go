package controller

import (
	"biocard-api/core/controller"
	"biocard-api/core/errors"
	"biocard-api/core/middleware"
	"biocard-api/modules/integration/dto"
	"biocard-api/modules/integration/provider"
	"biocard-api/modules/integration/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type IntegrationController struct {
	controller.BaseController
	service *service.IntegrationService
}

func NewIntegrationController(service *service.IntegrationService) *IntegrationController {
	return &IntegrationController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

func getUserIDFromContext(ctx echo.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Get(middleware.ContextKeyUserID).(uuid.UUID)
	return userID, ok
}

// GetAuthURL returns the provider consent URL for the current user.
// GET /api/v1/private/integrations/auth-url?provider=google
func (c *IntegrationController) GetAuthURL(ctx echo.Context) error {
	userID, ok := getUserIDFromContext(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user context")
	}

	providerName := ctx.QueryParam("provider")
	if providerName == "" {
		return c.BadRequest(errors.ErrInvalidInput, "provider is required")
	}

	authURL, appErr := c.service.GetAuthURL(userID, providerName)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, dto.AuthURLResponse{
		Provider: providerName,
		AuthURL:  authURL,
	}, "auth url generated")
}

// ExchangeCode completes the OAuth flow and stores the integration.
// POST /api/v1/private/integrations/exchange
func (c *IntegrationController) ExchangeCode(ctx echo.Context) error {
	userID, ok := getUserIDFromContext(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user context")
	}

	var req dto.ExchangeCodeRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}
	if req.Provider == "" || req.Code == "" {
		return c.BadRequest(errors.ErrInvalidInput, "provider and code are required")
	}

	integ, appErr := c.service.ExchangeAuthorizationCode(ctx.Request().Context(), userID, req.Provider, req.Code, req.RedirectURI)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.CreatedResponse(ctx, dto.ToIntegrationResponse(integ), "calendar connected")
}

// ListIntegrations returns the user's active integrations.
// GET /api/v1/private/integrations
func (c *IntegrationController) ListIntegrations(ctx echo.Context) error {
	userID, ok := getUserIDFromContext(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user context")
	}

	integrations, appErr := c.service.ListActiveIntegrations(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, dto.ToIntegrationListResponse(integrations), "integrations listed")
}

// GetIntegration returns a single integration owned by the user.
// GET /api/v1/private/integrations/:id
func (c *IntegrationController) GetIntegration(ctx echo.Context) error {
	userID, ok := getUserIDFromContext(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user context")
	}

	integrationID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "invalid integration id")
	}

	integ, appErr := c.service.GetIntegration(ctx.Request().Context(), userID, integrationID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, dto.ToIntegrationResponse(integ), "integration found")
}

// UpdatePreferences toggles sync options on an integration.
// PATCH /api/v1/private/integrations/:id/preferences
func (c *IntegrationController) UpdatePreferences(ctx echo.Context) error {
	userID, ok := getUserIDFromContext(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user context")
	}

	integrationID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "invalid integration id")
	}

	var req dto.UpdatePreferencesRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}

	integ, appErr := c.service.UpdatePreferences(ctx.Request().Context(), userID, integrationID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, dto.ToIntegrationResponse(integ), "preferences updated")
}

// Disconnect deactivates an integration.
// DELETE /api/v1/private/integrations/:id
func (c *IntegrationController) Disconnect(ctx echo.Context) error {
	userID, ok := getUserIDFromContext(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user context")
	}

	integrationID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "invalid integration id")
	}

	if appErr := c.service.Disconnect(ctx.Request().Context(), userID, integrationID); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, nil, "calendar disconnected")
}

// ListProviders enumerates the providers a caller may connect.
// GET /api/v1/private/integrations/providers
func (c *IntegrationController) ListProviders(ctx echo.Context) error {
	return c.SuccessResponse(ctx, map[string]any{
		"supported": []string{provider.ProviderGoogle, provider.ProviderOutlook},
		"declared":  []string{provider.ProviderGoogle, provider.ProviderOutlook, provider.ProviderApple},
	}, "providers listed")
}
