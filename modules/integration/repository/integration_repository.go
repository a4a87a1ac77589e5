package repository

import (
	"context"
	"database/sql"
	"time"

	"biocard-api/core/database"
	"biocard-api/modules/integration/entity"

	"github.com/google/uuid"
)

type IntegrationRepository interface {
	Create(ctx context.Context, integ *entity.CalendarIntegration) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.CalendarIntegration, error)
	GetByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*entity.CalendarIntegration, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]entity.CalendarIntegration, error)
	ListSyncEnabled(ctx context.Context) ([]entity.CalendarIntegration, error)
	Reconnect(ctx context.Context, integ *entity.CalendarIntegration) error
	UpdateTokens(ctx context.Context, id uuid.UUID, accessToken string, refreshToken *string, expiresAt *time.Time) error
	UpdatePreferences(ctx context.Context, id uuid.UUID, syncEnabled, autoCreateEvents bool) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type integrationRepository struct {
	db database.IDatabase
}

func NewIntegrationRepository(db database.IDatabase) IntegrationRepository {
	return &integrationRepository{db: db}
}

const integrationColumns = `
	id, user_id, provider, calendar_id, calendar_name, access_token, refresh_token,
	expires_at, is_active, permissions, sync_enabled, auto_create_events,
	time_zone, calendar_email, created_at, updated_at
`

func (r *integrationRepository) Create(ctx context.Context, integ *entity.CalendarIntegration) error {
	query := `
		INSERT INTO calendar_integrations (
			user_id, provider, calendar_id, calendar_name, access_token, refresh_token,
			expires_at, is_active, permissions, sync_enabled, auto_create_events,
			time_zone, calendar_email
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		integ.UserID, integ.Provider, integ.CalendarID, integ.CalendarName,
		integ.AccessToken, integ.RefreshToken, integ.ExpiresAt, integ.IsActive,
		integ.Permissions, integ.SyncEnabled, integ.AutoCreateEvents,
		integ.TimeZone, integ.CalendarEmail,
	).Scan(&integ.ID, &integ.CreatedAt, &integ.UpdatedAt)
}

func (r *integrationRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.CalendarIntegration, error) {
	var integ entity.CalendarIntegration
	query := `SELECT ` + integrationColumns + ` FROM calendar_integrations WHERE id = $1`
	if err := r.db.GetContext(ctx, &integ, query, id); err != nil {
		return nil, err
	}
	return &integ, nil
}

func (r *integrationRepository) GetByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*entity.CalendarIntegration, error) {
	var integ entity.CalendarIntegration
	query := `
		SELECT ` + integrationColumns + `
		FROM calendar_integrations
		WHERE user_id = $1 AND provider = $2
	`
	if err := r.db.GetContext(ctx, &integ, query, userID, provider); err != nil {
		return nil, err
	}
	return &integ, nil
}

func (r *integrationRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]entity.CalendarIntegration, error) {
	integrations := []entity.CalendarIntegration{}
	query := `
		SELECT ` + integrationColumns + `
		FROM calendar_integrations
		WHERE user_id = $1 AND is_active = true
		ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &integrations, query, userID); err != nil {
		return nil, err
	}
	return integrations, nil
}

// ListSyncEnabled returns every active integration whose owner opted into
// background event sync. The scheduler sweep iterates over this set.
func (r *integrationRepository) ListSyncEnabled(ctx context.Context) ([]entity.CalendarIntegration, error) {
	integrations := []entity.CalendarIntegration{}
	query := `
		SELECT ` + integrationColumns + `
		FROM calendar_integrations
		WHERE is_active = true AND sync_enabled = true
		ORDER BY created_at
	`
	if err := r.db.SelectContext(ctx, &integrations, query); err != nil {
		return nil, err
	}
	return integrations, nil
}

// Reconnect overwrites an existing integration row after a fresh OAuth
// grant for the same user and provider, reactivating it.
func (r *integrationRepository) Reconnect(ctx context.Context, integ *entity.CalendarIntegration) error {
	query := `
		UPDATE calendar_integrations
		SET calendar_id = $1, calendar_name = $2, access_token = $3, refresh_token = $4,
			expires_at = $5, is_active = true, permissions = $6,
			time_zone = $7, calendar_email = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		integ.CalendarID, integ.CalendarName, integ.AccessToken, integ.RefreshToken,
		integ.ExpiresAt, integ.Permissions, integ.TimeZone, integ.CalendarEmail,
		integ.ID,
	).Scan(&integ.UpdatedAt)
}

func (r *integrationRepository) UpdateTokens(ctx context.Context, id uuid.UUID, accessToken string, refreshToken *string, expiresAt *time.Time) error {
	query := `
		UPDATE calendar_integrations
		SET access_token = $1, refresh_token = COALESCE($2, refresh_token),
			expires_at = $3, updated_at = NOW()
		WHERE id = $4
	`
	return r.db.ExecContext(ctx, query, accessToken, refreshToken, expiresAt, id)
}

func (r *integrationRepository) UpdatePreferences(ctx context.Context, id uuid.UUID, syncEnabled, autoCreateEvents bool) error {
	query := `
		UPDATE calendar_integrations
		SET sync_enabled = $1, auto_create_events = $2, updated_at = NOW()
		WHERE id = $3
	`
	return r.db.ExecContext(ctx, query, syncEnabled, autoCreateEvents, id)
}

// Deactivate soft-deletes the integration. Running it on an already
// inactive row is a no-op.
func (r *integrationRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE calendar_integrations
		SET is_active = false, updated_at = NOW()
		WHERE id = $1 AND is_active = true
	`
	return r.db.ExecContext(ctx, query, id)
}

// IsNotFound reports whether a repository error means "no such row".
func IsNotFound(err error) bool {
	return err == sql.ErrNoRows
}
