package service

import (
	"context"
	goerrors "errors"
	"time"

	"biocard-api/core/errors"
	"biocard-api/core/logger"
	"biocard-api/modules/integration/dto"
	"biocard-api/modules/integration/entity"
	"biocard-api/modules/integration/provider"
	"biocard-api/modules/integration/repository"

	"github.com/google/uuid"
)

// IntegrationService owns the calendar integration lifecycle: OAuth code
// exchange, token freshness, preferences, disconnect.
type IntegrationService struct {
	repo      repository.IntegrationRepository
	providers *provider.Registry
}

func NewIntegrationService(repo repository.IntegrationRepository, providers *provider.Registry) *IntegrationService {
	return &IntegrationService{repo: repo, providers: providers}
}

// AdapterFor resolves a provider adapter, translating registry misses
// into the unsupported-provider error.
func (s *IntegrationService) AdapterFor(providerName string) (provider.Adapter, *errors.AppError) {
	adapter, err := s.providers.For(providerName)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrProviderUnsupported, err.Error(), err)
	}
	return adapter, nil
}

// GetAuthURL builds the provider consent URL. The user id rides in the
// state parameter and comes back on the OAuth callback.
func (s *IntegrationService) GetAuthURL(userID uuid.UUID, providerName string) (string, *errors.AppError) {
	adapter, appErr := s.AdapterFor(providerName)
	if appErr != nil {
		return "", appErr
	}
	return adapter.AuthURL(userID.String()), nil
}

// ExchangeAuthorizationCode trades a one-time OAuth code for tokens,
// fetches the provider profile and persists the integration. A provider
// failure at any step leaves no partial record behind.
func (s *IntegrationService) ExchangeAuthorizationCode(ctx context.Context, userID uuid.UUID, providerName, code, redirectURI string) (*entity.CalendarIntegration, *errors.AppError) {
	logger.Info("IntegrationService:ExchangeAuthorizationCode:Start",
		"user_id", userID,
		"provider", providerName,
	)

	adapter, appErr := s.AdapterFor(providerName)
	if appErr != nil {
		return nil, appErr
	}

	token, err := adapter.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		logger.Error("IntegrationService:ExchangeAuthorizationCode:Exchange",
			"user_id", userID,
			"provider", providerName,
			"error", err,
		)
		return nil, mapProviderError(err)
	}

	profile, err := adapter.FetchProfile(ctx, token.AccessToken)
	if err != nil {
		logger.Error("IntegrationService:ExchangeAuthorizationCode:Profile",
			"user_id", userID,
			"provider", providerName,
			"error", err,
		)
		return nil, mapProviderError(err)
	}

	integ := &entity.CalendarIntegration{
		UserID:        userID,
		Provider:      providerName,
		CalendarID:    profile.CalendarID,
		CalendarName:  profile.CalendarName,
		AccessToken:   token.AccessToken,
		IsActive:      true,
		Permissions:   entity.StringList{},
		SyncEnabled:   true,
		TimeZone:      profile.TimeZone,
		CalendarEmail: profile.Email,
	}
	if token.RefreshToken != "" {
		rt := token.RefreshToken
		integ.RefreshToken = &rt
	}
	if !token.ExpiresAt.IsZero() {
		exp := token.ExpiresAt
		integ.ExpiresAt = &exp
	}

	// A second grant for the same provider reuses the existing row so the
	// integration id stays stable across reconnects.
	existing, err := s.repo.GetByUserAndProvider(ctx, userID, providerName)
	switch {
	case err == nil:
		integ.ID = existing.ID
		integ.CreatedAt = existing.CreatedAt
		integ.SyncEnabled = existing.SyncEnabled
		integ.AutoCreateEvents = existing.AutoCreateEvents
		integ.Permissions = existing.Permissions
		if err := s.repo.Reconnect(ctx, integ); err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "failed to update integration", err)
		}
	case repository.IsNotFound(err):
		if err := s.repo.Create(ctx, integ); err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "failed to store integration", err)
		}
	default:
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to look up integration", err)
	}

	logger.Info("IntegrationService:ExchangeAuthorizationCode:Success",
		"user_id", userID,
		"provider", providerName,
		"integration_id", integ.ID,
	)
	return integ, nil
}

func (s *IntegrationService) ListActiveIntegrations(ctx context.Context, userID uuid.UUID) ([]entity.CalendarIntegration, *errors.AppError) {
	integrations, err := s.repo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list integrations", err)
	}
	return integrations, nil
}

// GetIntegration loads an integration and enforces ownership. A foreign
// integration id reads the same as a missing one.
func (s *IntegrationService) GetIntegration(ctx context.Context, userID, integrationID uuid.UUID) (*entity.CalendarIntegration, *errors.AppError) {
	integ, err := s.repo.GetByID(ctx, integrationID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errors.NewAppError(errors.ErrNotFound, "integration not found", err)
		}
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load integration", err)
	}
	if integ.UserID != userID {
		return nil, errors.NewAppError(errors.ErrNotFound, "integration not found", nil)
	}
	return integ, nil
}

// EnsureFreshToken returns the integration with a usable access token,
// refreshing and persisting it when the stored one has expired. Callers
// must not retry on a stale-credential error; the user has to reconnect.
func (s *IntegrationService) EnsureFreshToken(ctx context.Context, integ *entity.CalendarIntegration) (*entity.CalendarIntegration, *errors.AppError) {
	if !integ.TokenExpired() {
		return integ, nil
	}

	if integ.RefreshToken == nil || *integ.RefreshToken == "" {
		return nil, errors.NewAppError(errors.ErrStaleCredentials,
			"access token expired and no refresh token is stored, reconnect the calendar", nil)
	}

	adapter, appErr := s.AdapterFor(integ.Provider)
	if appErr != nil {
		return nil, appErr
	}

	token, err := adapter.RefreshAccessToken(ctx, *integ.RefreshToken)
	if err != nil {
		logger.Error("IntegrationService:EnsureFreshToken:Refresh",
			"integration_id", integ.ID,
			"provider", integ.Provider,
			"error", err,
		)
		return nil, mapProviderError(err)
	}

	var refreshToken *string
	if token.RefreshToken != "" && (integ.RefreshToken == nil || token.RefreshToken != *integ.RefreshToken) {
		rt := token.RefreshToken
		refreshToken = &rt
	}
	var expiresAt *time.Time
	if !token.ExpiresAt.IsZero() {
		exp := token.ExpiresAt
		expiresAt = &exp
	}

	if err := s.repo.UpdateTokens(ctx, integ.ID, token.AccessToken, refreshToken, expiresAt); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to persist refreshed token", err)
	}

	integ.AccessToken = token.AccessToken
	if refreshToken != nil {
		integ.RefreshToken = refreshToken
	}
	integ.ExpiresAt = expiresAt

	logger.Info("IntegrationService:EnsureFreshToken:Refreshed",
		"integration_id", integ.ID,
		"provider", integ.Provider,
	)
	return integ, nil
}

func (s *IntegrationService) UpdatePreferences(ctx context.Context, userID, integrationID uuid.UUID, req *dto.UpdatePreferencesRequest) (*entity.CalendarIntegration, *errors.AppError) {
	integ, appErr := s.GetIntegration(ctx, userID, integrationID)
	if appErr != nil {
		return nil, appErr
	}

	syncEnabled := integ.SyncEnabled
	if req.SyncEnabled != nil {
		syncEnabled = *req.SyncEnabled
	}
	autoCreate := integ.AutoCreateEvents
	if req.AutoCreateEvents != nil {
		autoCreate = *req.AutoCreateEvents
	}

	if err := s.repo.UpdatePreferences(ctx, integrationID, syncEnabled, autoCreate); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to update preferences", err)
	}

	integ.SyncEnabled = syncEnabled
	integ.AutoCreateEvents = autoCreate
	return integ, nil
}

// Disconnect soft-deletes the integration. Disconnecting an already
// inactive integration succeeds without touching the row.
func (s *IntegrationService) Disconnect(ctx context.Context, userID, integrationID uuid.UUID) *errors.AppError {
	integ, appErr := s.GetIntegration(ctx, userID, integrationID)
	if appErr != nil {
		return appErr
	}
	if !integ.IsActive {
		return nil
	}

	if err := s.repo.Deactivate(ctx, integrationID); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to disconnect integration", err)
	}

	logger.Info("IntegrationService:Disconnect:Success",
		"integration_id", integrationID,
		"user_id", userID,
	)
	return nil
}

// mapProviderError sorts adapter failures into the error taxonomy:
// missing app credentials, unsupported provider, or an upstream API
// failure carrying the provider's own message.
func mapProviderError(err error) *errors.AppError {
	switch {
	case goerrors.Is(err, provider.ErrMissingCredentials):
		return errors.NewAppError(errors.ErrConfigMissing, err.Error(), err)
	case goerrors.Is(err, provider.ErrUnsupported):
		return errors.NewAppError(errors.ErrProviderUnsupported, err.Error(), err)
	default:
		return errors.NewAppError(errors.ErrProviderAPI, err.Error(), err)
	}
}
