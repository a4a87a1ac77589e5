package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"biocard-api/core/errors"
	"biocard-api/modules/integration/entity"
	"biocard-api/modules/integration/provider"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo is an in-memory IntegrationRepository.
type fakeRepo struct {
	byID         map[uuid.UUID]*entity.CalendarIntegration
	createCalls  int
	updateTokens int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[uuid.UUID]*entity.CalendarIntegration{}}
}

func (r *fakeRepo) Create(_ context.Context, integ *entity.CalendarIntegration) error {
	r.createCalls++
	integ.ID = uuid.New()
	integ.CreatedAt = time.Now()
	integ.UpdatedAt = integ.CreatedAt
	cp := *integ
	r.byID[integ.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.CalendarIntegration, error) {
	integ, ok := r.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *integ
	return &cp, nil
}

func (r *fakeRepo) GetByUserAndProvider(_ context.Context, userID uuid.UUID, providerName string) (*entity.CalendarIntegration, error) {
	for _, integ := range r.byID {
		if integ.UserID == userID && integ.Provider == providerName {
			cp := *integ
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeRepo) ListActiveByUser(_ context.Context, userID uuid.UUID) ([]entity.CalendarIntegration, error) {
	out := []entity.CalendarIntegration{}
	for _, integ := range r.byID {
		if integ.UserID == userID && integ.IsActive {
			out = append(out, *integ)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListSyncEnabled(_ context.Context) ([]entity.CalendarIntegration, error) {
	out := []entity.CalendarIntegration{}
	for _, integ := range r.byID {
		if integ.IsActive && integ.SyncEnabled {
			out = append(out, *integ)
		}
	}
	return out, nil
}

func (r *fakeRepo) Reconnect(_ context.Context, integ *entity.CalendarIntegration) error {
	stored, ok := r.byID[integ.ID]
	if !ok {
		return sql.ErrNoRows
	}
	cp := *integ
	cp.IsActive = true
	cp.UpdatedAt = time.Now()
	cp.CreatedAt = stored.CreatedAt
	r.byID[integ.ID] = &cp
	return nil
}

func (r *fakeRepo) UpdateTokens(_ context.Context, id uuid.UUID, accessToken string, refreshToken *string, expiresAt *time.Time) error {
	r.updateTokens++
	integ, ok := r.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	integ.AccessToken = accessToken
	if refreshToken != nil {
		integ.RefreshToken = refreshToken
	}
	integ.ExpiresAt = expiresAt
	integ.UpdatedAt = time.Now()
	return nil
}

func (r *fakeRepo) UpdatePreferences(_ context.Context, id uuid.UUID, syncEnabled, autoCreateEvents bool) error {
	integ, ok := r.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	integ.SyncEnabled = syncEnabled
	integ.AutoCreateEvents = autoCreateEvents
	integ.UpdatedAt = time.Now()
	return nil
}

func (r *fakeRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	if integ, ok := r.byID[id]; ok {
		integ.IsActive = false
		integ.UpdatedAt = time.Now()
	}
	return nil
}

// fakeAdapter scripts the provider side.
type fakeAdapter struct {
	name          string
	exchangeErr   error
	profileErr    error
	refreshErr    error
	refreshCalls  int
	exchangeCalls int
	token         provider.Token
	profile       provider.Profile
}

func (a *fakeAdapter) Name() string               { return a.name }
func (a *fakeAdapter) AuthURL(state string) string { return "https://auth.example.com?state=" + state }

func (a *fakeAdapter) ExchangeCode(_ context.Context, _, _ string) (*provider.Token, error) {
	a.exchangeCalls++
	if a.exchangeErr != nil {
		return nil, a.exchangeErr
	}
	tok := a.token
	return &tok, nil
}

func (a *fakeAdapter) RefreshAccessToken(_ context.Context, _ string) (*provider.Token, error) {
	a.refreshCalls++
	if a.refreshErr != nil {
		return nil, a.refreshErr
	}
	tok := a.token
	return &tok, nil
}

func (a *fakeAdapter) FetchProfile(_ context.Context, _ string) (*provider.Profile, error) {
	if a.profileErr != nil {
		return nil, a.profileErr
	}
	p := a.profile
	return &p, nil
}

func (a *fakeAdapter) ListEvents(_ context.Context, _, _ string, _, _ time.Time) ([]provider.RawEvent, error) {
	return nil, nil
}

func (a *fakeAdapter) CreateEvent(_ context.Context, _, _, _ string, _ *provider.EventDraft) (string, error) {
	return "ext-1", nil
}

func newTestService(adapter *fakeAdapter) (*IntegrationService, *fakeRepo) {
	repo := newFakeRepo()
	svc := NewIntegrationService(repo, provider.NewRegistry(adapter))
	return svc, repo
}

func googleFake() *fakeAdapter {
	return &fakeAdapter{
		name: provider.ProviderGoogle,
		token: provider.Token{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			ExpiresAt:    time.Now().Add(time.Hour),
		},
		profile: provider.Profile{
			CalendarID:   "primary",
			CalendarName: "owner@example.com",
			Email:        "owner@example.com",
			TimeZone:     "Europe/Madrid",
		},
	}
}

func TestExchangeAuthorizationCode_PersistsIntegration(t *testing.T) {
	adapter := googleFake()
	svc, repo := newTestService(adapter)
	userID := uuid.New()

	integ, appErr := svc.ExchangeAuthorizationCode(context.Background(), userID, provider.ProviderGoogle, "code", "")
	require.Nil(t, appErr)

	assert.Equal(t, 1, adapter.exchangeCalls)
	assert.Equal(t, 1, repo.createCalls)
	assert.True(t, integ.IsActive)
	assert.Equal(t, "primary", integ.CalendarID)
	assert.Equal(t, "Europe/Madrid", integ.TimeZone)
	require.NotNil(t, integ.RefreshToken)
	assert.Equal(t, "refresh-1", *integ.RefreshToken)
}

func TestExchangeAuthorizationCode_ProviderErrorDoesNotPersist(t *testing.T) {
	adapter := googleFake()
	adapter.exchangeErr = fmt.Errorf("google token endpoint: invalid_grant")
	svc, repo := newTestService(adapter)

	_, appErr := svc.ExchangeAuthorizationCode(context.Background(), uuid.New(), provider.ProviderGoogle, "bad", "")
	require.NotNil(t, appErr)

	assert.Equal(t, errors.ErrProviderAPI, appErr.Code)
	assert.Contains(t, appErr.Message, "invalid_grant")
	assert.Zero(t, repo.createCalls)
	assert.Empty(t, repo.byID)
}

func TestExchangeAuthorizationCode_ProfileErrorDoesNotPersist(t *testing.T) {
	adapter := googleFake()
	adapter.profileErr = fmt.Errorf("google calendar api: 403 Forbidden")
	svc, repo := newTestService(adapter)

	_, appErr := svc.ExchangeAuthorizationCode(context.Background(), uuid.New(), provider.ProviderGoogle, "code", "")
	require.NotNil(t, appErr)
	assert.Zero(t, repo.createCalls)
}

func TestExchangeAuthorizationCode_MissingCredentials(t *testing.T) {
	adapter := googleFake()
	adapter.exchangeErr = fmt.Errorf("google: %w", provider.ErrMissingCredentials)
	svc, _ := newTestService(adapter)

	_, appErr := svc.ExchangeAuthorizationCode(context.Background(), uuid.New(), provider.ProviderGoogle, "code", "")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrConfigMissing, appErr.Code)
}

func TestExchangeAuthorizationCode_ReconnectKeepsID(t *testing.T) {
	adapter := googleFake()
	svc, _ := newTestService(adapter)
	userID := uuid.New()

	first, appErr := svc.ExchangeAuthorizationCode(context.Background(), userID, provider.ProviderGoogle, "code", "")
	require.Nil(t, appErr)

	second, appErr := svc.ExchangeAuthorizationCode(context.Background(), userID, provider.ProviderGoogle, "code-2", "")
	require.Nil(t, appErr)

	assert.Equal(t, first.ID, second.ID)
}

func TestExchangeAuthorizationCode_UnsupportedProvider(t *testing.T) {
	svc, _ := newTestService(googleFake())

	_, appErr := svc.ExchangeAuthorizationCode(context.Background(), uuid.New(), provider.ProviderApple, "code", "")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrProviderUnsupported, appErr.Code)
}

func seedIntegration(t *testing.T, repo *fakeRepo, mutate func(*entity.CalendarIntegration)) *entity.CalendarIntegration {
	t.Helper()
	refresh := "refresh-1"
	integ := &entity.CalendarIntegration{
		UserID:       uuid.New(),
		Provider:     provider.ProviderGoogle,
		CalendarID:   "primary",
		AccessToken:  "stale-access",
		RefreshToken: &refresh,
		IsActive:     true,
		SyncEnabled:  true,
	}
	if mutate != nil {
		mutate(integ)
	}
	require.NoError(t, repo.Create(context.Background(), integ))
	return integ
}

func TestEnsureFreshToken_NotExpiredIsUntouched(t *testing.T) {
	adapter := googleFake()
	svc, repo := newTestService(adapter)

	future := time.Now().Add(time.Hour)
	integ := seedIntegration(t, repo, func(i *entity.CalendarIntegration) { i.ExpiresAt = &future })

	out, appErr := svc.EnsureFreshToken(context.Background(), integ)
	require.Nil(t, appErr)

	assert.Equal(t, "stale-access", out.AccessToken)
	assert.Zero(t, adapter.refreshCalls)
	assert.Zero(t, repo.updateTokens)
}

func TestEnsureFreshToken_NoExpiryIsAssumedValid(t *testing.T) {
	adapter := googleFake()
	svc, repo := newTestService(adapter)
	integ := seedIntegration(t, repo, func(i *entity.CalendarIntegration) { i.ExpiresAt = nil })

	out, appErr := svc.EnsureFreshToken(context.Background(), integ)
	require.Nil(t, appErr)
	assert.Equal(t, "stale-access", out.AccessToken)
	assert.Zero(t, adapter.refreshCalls)
}

func TestEnsureFreshToken_ExpiredRefreshesExactlyOnce(t *testing.T) {
	adapter := googleFake()
	adapter.token.AccessToken = "fresh-access"
	svc, repo := newTestService(adapter)

	past := time.Now().Add(-time.Hour)
	integ := seedIntegration(t, repo, func(i *entity.CalendarIntegration) { i.ExpiresAt = &past })

	out, appErr := svc.EnsureFreshToken(context.Background(), integ)
	require.Nil(t, appErr)

	assert.Equal(t, 1, adapter.refreshCalls)
	assert.Equal(t, "fresh-access", out.AccessToken)

	stored, err := repo.GetByID(context.Background(), integ.ID)
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", stored.AccessToken)
}

func TestEnsureFreshToken_MissingRefreshTokenIsTerminal(t *testing.T) {
	adapter := googleFake()
	svc, repo := newTestService(adapter)

	past := time.Now().Add(-time.Hour)
	integ := seedIntegration(t, repo, func(i *entity.CalendarIntegration) {
		i.ExpiresAt = &past
		i.RefreshToken = nil
	})

	_, appErr := svc.EnsureFreshToken(context.Background(), integ)
	require.NotNil(t, appErr)

	assert.Equal(t, errors.ErrStaleCredentials, appErr.Code)
	assert.Zero(t, adapter.refreshCalls, "must not hit the refresh endpoint without a refresh token")
}

func TestEnsureFreshToken_RefreshFailureSurfaces(t *testing.T) {
	adapter := googleFake()
	adapter.refreshErr = fmt.Errorf("google token refresh: invalid_grant")
	svc, repo := newTestService(adapter)

	past := time.Now().Add(-time.Hour)
	integ := seedIntegration(t, repo, func(i *entity.CalendarIntegration) { i.ExpiresAt = &past })

	_, appErr := svc.EnsureFreshToken(context.Background(), integ)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrProviderAPI, appErr.Code)
	assert.Zero(t, repo.updateTokens)
}

func TestDisconnect_IsIdempotent(t *testing.T) {
	svc, repo := newTestService(googleFake())
	integ := seedIntegration(t, repo, nil)

	require.Nil(t, svc.Disconnect(context.Background(), integ.UserID, integ.ID))

	stored, err := repo.GetByID(context.Background(), integ.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	// Second disconnect is a no-op success.
	require.Nil(t, svc.Disconnect(context.Background(), integ.UserID, integ.ID))
}

func TestDisconnect_ForeignIntegrationReadsAsMissing(t *testing.T) {
	svc, repo := newTestService(googleFake())
	integ := seedIntegration(t, repo, nil)

	appErr := svc.Disconnect(context.Background(), uuid.New(), integ.ID)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
}

func TestGetAuthURL_CarriesUserIDAsState(t *testing.T) {
	svc, _ := newTestService(googleFake())
	userID := uuid.New()

	u, appErr := svc.GetAuthURL(userID, provider.ProviderGoogle)
	require.Nil(t, appErr)
	assert.Contains(t, u, userID.String())
}
