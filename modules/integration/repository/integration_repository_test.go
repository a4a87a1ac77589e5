package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"biocard-api/core/database"
	"biocard-api/modules/integration/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (IntegrationRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := database.NewFromSQLx(sqlx.NewDb(mockDB, "sqlmock"))
	return NewIntegrationRepository(db), mock
}

func TestIntegrationRepository_Create(t *testing.T) {
	repo, mock := newMockRepo(t)

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO calendar_integrations`).
		WithArgs(
			sqlmock.AnyArg(), "google", "primary", "owner@example.com",
			"access", sqlmock.AnyArg(), sqlmock.AnyArg(), true,
			sqlmock.AnyArg(), true, false, "UTC", "owner@example.com",
		).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(id, now, now))

	integ := &entity.CalendarIntegration{
		UserID:        uuid.New(),
		Provider:      "google",
		CalendarID:    "primary",
		CalendarName:  "owner@example.com",
		AccessToken:   "access",
		IsActive:      true,
		SyncEnabled:   true,
		TimeZone:      "UTC",
		CalendarEmail: "owner@example.com",
	}
	require.NoError(t, repo.Create(context.Background(), integ))

	assert.Equal(t, id, integ.ID)
	assert.Equal(t, now, integ.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIntegrationRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	id := uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM calendar_integrations WHERE id`).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIntegrationRepository_UpdateTokens_KeepsRefreshWhenNil(t *testing.T) {
	repo, mock := newMockRepo(t)

	id := uuid.New()
	expires := time.Now().Add(time.Hour)
	mock.ExpectExec(`UPDATE calendar_integrations\s+SET access_token = \$1, refresh_token = COALESCE\(\$2, refresh_token\)`).
		WithArgs("new-access", nil, expires, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	var noRefresh *string
	require.NoError(t, repo.UpdateTokens(context.Background(), id, "new-access", noRefresh, &expires))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIntegrationRepository_Deactivate(t *testing.T) {
	repo, mock := newMockRepo(t)

	id := uuid.New()
	mock.ExpectExec(`UPDATE calendar_integrations\s+SET is_active = false, updated_at = NOW\(\)`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), id))
	require.NoError(t, mock.ExpectationsWereMet())
}
