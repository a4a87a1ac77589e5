package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"biocard-api/core/errors"
	"biocard-api/modules/events/entity"
	integrationEntity "biocard-api/modules/integration/entity"
	"biocard-api/modules/integration/provider"
	integrationService "biocard-api/modules/integration/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEventRepo is an in-memory EventRepository keyed the same way the
// unique index keys the real table.
type fakeEventRepo struct {
	byKey       map[string]*entity.CalendarEvent
	upsertCalls int
	failAfter   int // fail the Nth upsert when > 0
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{byKey: map[string]*entity.CalendarEvent{}}
}

func eventKey(integrationID uuid.UUID, externalID string) string {
	return integrationID.String() + "/" + externalID
}

func (r *fakeEventRepo) Create(_ context.Context, ev *entity.CalendarEvent) error {
	ev.ID = uuid.New()
	ev.CreatedAt = time.Now()
	ev.UpdatedAt = ev.CreatedAt
	cp := *ev
	r.byKey[eventKey(ev.IntegrationID, ev.ExternalEventID)] = &cp
	return nil
}

func (r *fakeEventRepo) Upsert(_ context.Context, ev *entity.CalendarEvent) error {
	r.upsertCalls++
	if r.failAfter > 0 && r.upsertCalls >= r.failAfter {
		return fmt.Errorf("connection reset")
	}

	key := eventKey(ev.IntegrationID, ev.ExternalEventID)
	if existing, ok := r.byKey[key]; ok {
		ev.ID = existing.ID
		ev.CreatedAt = existing.CreatedAt
	} else {
		ev.ID = uuid.New()
		ev.CreatedAt = time.Now()
	}
	ev.UpdatedAt = time.Now()
	cp := *ev
	r.byKey[key] = &cp
	return nil
}

func (r *fakeEventRepo) GetByExternalID(_ context.Context, integrationID uuid.UUID, externalID string) (*entity.CalendarEvent, error) {
	if ev, ok := r.byKey[eventKey(integrationID, externalID)]; ok {
		cp := *ev
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (r *fakeEventRepo) ListByIntegration(_ context.Context, integrationID uuid.UUID, _, _ time.Time) ([]entity.CalendarEvent, error) {
	out := []entity.CalendarEvent{}
	for _, ev := range r.byKey {
		if ev.IntegrationID == integrationID {
			out = append(out, *ev)
		}
	}
	return out, nil
}

// fakeIntegRepo backs the integration side with a single row.
type fakeIntegRepo struct {
	integ *integrationEntity.CalendarIntegration
}

func (r *fakeIntegRepo) Create(_ context.Context, integ *integrationEntity.CalendarIntegration) error {
	integ.ID = uuid.New()
	r.integ = integ
	return nil
}

func (r *fakeIntegRepo) GetByID(_ context.Context, id uuid.UUID) (*integrationEntity.CalendarIntegration, error) {
	if r.integ == nil || r.integ.ID != id {
		return nil, sql.ErrNoRows
	}
	cp := *r.integ
	return &cp, nil
}

func (r *fakeIntegRepo) GetByUserAndProvider(_ context.Context, _ uuid.UUID, _ string) (*integrationEntity.CalendarIntegration, error) {
	return nil, sql.ErrNoRows
}

func (r *fakeIntegRepo) ListActiveByUser(_ context.Context, _ uuid.UUID) ([]integrationEntity.CalendarIntegration, error) {
	if r.integ != nil && r.integ.IsActive {
		return []integrationEntity.CalendarIntegration{*r.integ}, nil
	}
	return nil, nil
}

func (r *fakeIntegRepo) ListSyncEnabled(_ context.Context) ([]integrationEntity.CalendarIntegration, error) {
	if r.integ != nil && r.integ.IsActive && r.integ.SyncEnabled {
		return []integrationEntity.CalendarIntegration{*r.integ}, nil
	}
	return nil, nil
}

func (r *fakeIntegRepo) Reconnect(_ context.Context, _ *integrationEntity.CalendarIntegration) error {
	return nil
}

func (r *fakeIntegRepo) UpdateTokens(_ context.Context, _ uuid.UUID, accessToken string, _ *string, expiresAt *time.Time) error {
	r.integ.AccessToken = accessToken
	r.integ.ExpiresAt = expiresAt
	return nil
}

func (r *fakeIntegRepo) UpdatePreferences(_ context.Context, _ uuid.UUID, _, _ bool) error {
	return nil
}

func (r *fakeIntegRepo) Deactivate(_ context.Context, _ uuid.UUID) error {
	r.integ.IsActive = false
	return nil
}

// fakeSyncAdapter serves scripted raw events.
type fakeSyncAdapter struct {
	name        string
	rawEvents   []provider.RawEvent
	listErr     error
	createErr   error
	createCalls int
	lastDraft   *provider.EventDraft
}

func (a *fakeSyncAdapter) Name() string            { return a.name }
func (a *fakeSyncAdapter) AuthURL(_ string) string { return "" }

func (a *fakeSyncAdapter) ExchangeCode(_ context.Context, _, _ string) (*provider.Token, error) {
	return nil, fmt.Errorf("not scripted")
}

func (a *fakeSyncAdapter) RefreshAccessToken(_ context.Context, _ string) (*provider.Token, error) {
	return &provider.Token{AccessToken: "fresh", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (a *fakeSyncAdapter) FetchProfile(_ context.Context, _ string) (*provider.Profile, error) {
	return &provider.Profile{}, nil
}

func (a *fakeSyncAdapter) ListEvents(_ context.Context, _, _ string, _, _ time.Time) ([]provider.RawEvent, error) {
	if a.listErr != nil {
		return nil, a.listErr
	}
	return a.rawEvents, nil
}

func (a *fakeSyncAdapter) CreateEvent(_ context.Context, _, _, _ string, draft *provider.EventDraft) (string, error) {
	a.createCalls++
	a.lastDraft = draft
	if a.createErr != nil {
		return "", a.createErr
	}
	return fmt.Sprintf("ext-%d", a.createCalls), nil
}

func googleRaw(t *testing.T, id, summary string) provider.RawEvent {
	t.Helper()
	body := fmt.Sprintf(`{
		"id": %q,
		"summary": %q,
		"status": "confirmed",
		"start": {"dateTime": "2024-06-03T10:00:00Z"},
		"end": {"dateTime": "2024-06-03T11:00:00Z"}
	}`, id, summary)
	require.True(t, json.Valid([]byte(body)))
	return provider.RawEvent{ExternalID: id, Data: json.RawMessage(body)}
}

type syncFixture struct {
	svc       *EventService
	events    *fakeEventRepo
	integRepo *fakeIntegRepo
	adapter   *fakeSyncAdapter
	integ     *integrationEntity.CalendarIntegration
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()

	adapter := &fakeSyncAdapter{name: provider.ProviderGoogle}
	integRepo := &fakeIntegRepo{}
	integ := &integrationEntity.CalendarIntegration{
		UserID:      uuid.New(),
		Provider:    provider.ProviderGoogle,
		CalendarID:  "primary",
		AccessToken: "access",
		IsActive:    true,
		SyncEnabled: true,
	}
	require.NoError(t, integRepo.Create(context.Background(), integ))

	integSvc := integrationService.NewIntegrationService(integRepo, provider.NewRegistry(adapter))
	events := newFakeEventRepo()
	svc := NewEventService(events, integSvc, integRepo)

	return &syncFixture{svc: svc, events: events, integRepo: integRepo, adapter: adapter, integ: integ}
}

func TestSyncCalendarEvents_UpsertsAndIsIdempotent(t *testing.T) {
	f := newSyncFixture(t)
	f.adapter.rawEvents = []provider.RawEvent{
		googleRaw(t, "e1", "First"),
		googleRaw(t, "e2", "Second"),
	}

	synced, appErr := f.svc.SyncCalendarEvents(context.Background(), f.integ.ID)
	require.Nil(t, appErr)
	assert.Equal(t, 2, synced)
	require.Len(t, f.events.byKey, 2)

	firstIDs := map[string]uuid.UUID{}
	for key, ev := range f.events.byKey {
		firstIDs[key] = ev.ID
	}

	// Second run with unchanged provider data yields the same local ids.
	synced, appErr = f.svc.SyncCalendarEvents(context.Background(), f.integ.ID)
	require.Nil(t, appErr)
	assert.Equal(t, 2, synced)
	require.Len(t, f.events.byKey, 2)
	for key, ev := range f.events.byKey {
		assert.Equal(t, firstIDs[key], ev.ID, "upsert must keep local id stable")
	}
}

func TestSyncCalendarEvents_SyncDisabledIsNoOp(t *testing.T) {
	f := newSyncFixture(t)
	f.integ.SyncEnabled = false
	f.adapter.rawEvents = []provider.RawEvent{googleRaw(t, "e1", "First")}

	synced, appErr := f.svc.SyncCalendarEvents(context.Background(), f.integ.ID)
	require.Nil(t, appErr)
	assert.Zero(t, synced)
	assert.Empty(t, f.events.byKey)
}

func TestSyncCalendarEvents_ProviderFailureAborts(t *testing.T) {
	f := newSyncFixture(t)
	f.adapter.listErr = fmt.Errorf("google calendar api: 500 Internal Server Error")

	_, appErr := f.svc.SyncCalendarEvents(context.Background(), f.integ.ID)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrProviderAPI, appErr.Code)
}

func TestSyncCalendarEvents_PartialProgressIsKept(t *testing.T) {
	f := newSyncFixture(t)
	f.adapter.rawEvents = []provider.RawEvent{
		googleRaw(t, "e1", "First"),
		googleRaw(t, "e2", "Second"),
		googleRaw(t, "e3", "Third"),
	}
	f.events.failAfter = 3 // third upsert fails

	synced, appErr := f.svc.SyncCalendarEvents(context.Background(), f.integ.ID)
	require.NotNil(t, appErr)

	// The two events written before the failure stay persisted.
	assert.Equal(t, 2, synced)
	assert.Len(t, f.events.byKey, 2)
}

func TestSyncCalendarEvents_MapsFieldsIntoMirror(t *testing.T) {
	f := newSyncFixture(t)
	body := `{
		"id": "e9",
		"status": "cancelled",
		"start": {"dateTime": "2024-06-03T10:00:00Z"},
		"end": {"dateTime": "2024-06-03T11:00:00Z"},
		"attendees": [{"email": "a@example.com"}]
	}`
	f.adapter.rawEvents = []provider.RawEvent{{ExternalID: "e9", Data: json.RawMessage(body)}}

	_, appErr := f.svc.SyncCalendarEvents(context.Background(), f.integ.ID)
	require.Nil(t, appErr)

	ev, err := f.events.GetByExternalID(context.Background(), f.integ.ID, "e9")
	require.NoError(t, err)
	assert.Equal(t, "Sin título", ev.Title)
	assert.Equal(t, entity.StatusCancelled, ev.Status)
	require.Len(t, ev.Attendees, 1)
	assert.Equal(t, provider.AttendeeStatusNeedsAction, ev.Attendees[0].Status)
}

func TestCreateCalendarEvent_PushDefaults(t *testing.T) {
	f := newSyncFixture(t)
	bookingID := uuid.New()

	draft := &provider.EventDraft{
		Title:     "Consultation - Ana",
		StartTime: time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 6, 3, 11, 0, 0, 0, time.UTC),
		Attendees: []provider.Attendee{{Email: "ana@example.com", Name: "Ana"}},
	}

	ev, appErr := f.svc.CreateCalendarEvent(context.Background(), f.integ.UserID, f.integ.ID, draft, &bookingID)
	require.Nil(t, appErr)

	assert.Equal(t, 1, f.adapter.createCalls)
	assert.Equal(t, entity.StatusConfirmed, ev.Status)
	assert.False(t, ev.IsAllDay)
	require.NotNil(t, ev.BookingID)
	assert.Equal(t, bookingID, *ev.BookingID)
	require.Len(t, ev.Attendees, 1)
	assert.Equal(t, provider.AttendeeStatusNeedsAction, ev.Attendees[0].Status)
}

func TestCreateCalendarEvent_PushFailureDoesNotPersist(t *testing.T) {
	f := newSyncFixture(t)
	f.adapter.createErr = fmt.Errorf("google calendar api: 403 Forbidden")

	_, appErr := f.svc.CreateCalendarEvent(context.Background(), f.integ.UserID, f.integ.ID, &provider.EventDraft{
		Title:     "x",
		StartTime: time.Now(),
		EndTime:   time.Now().Add(time.Hour),
	}, nil)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrProviderAPI, appErr.Code)
	assert.Empty(t, f.events.byKey)
}

func TestSyncForUser_RejectsForeignIntegration(t *testing.T) {
	f := newSyncFixture(t)

	_, appErr := f.svc.SyncForUser(context.Background(), uuid.New(), f.integ.ID)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
}

func TestSyncAll_SweepsEnabledIntegrations(t *testing.T) {
	f := newSyncFixture(t)
	f.adapter.rawEvents = []provider.RawEvent{googleRaw(t, "e1", "First")}

	succeeded, failed := f.svc.SyncAll(context.Background())
	assert.Equal(t, 1, succeeded)
	assert.Zero(t, failed)
	assert.Len(t, f.events.byKey, 1)
}
