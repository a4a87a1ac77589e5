package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"biocard-api/core/logger"
	"biocard-api/modules/events/service"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	TypeSyncIntegration = "events:sync_integration"
	TypeSyncAll         = "events:sync_all"
)

type syncIntegrationPayload struct {
	IntegrationID string `json:"integration_id"`
}

// NewSyncIntegrationTask builds a task that syncs a single integration.
func NewSyncIntegrationTask(integrationID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(syncIntegrationPayload{IntegrationID: integrationID.String()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSyncIntegration, payload, asynq.MaxRetry(3)), nil
}

// NewSyncAllTask builds the periodic sweep task.
func NewSyncAllTask() *asynq.Task {
	return asynq.NewTask(TypeSyncAll, nil, asynq.MaxRetry(0))
}

// SyncTaskHandler processes the sync task types against the event
// service.
type SyncTaskHandler struct {
	events *service.EventService
}

func NewSyncTaskHandler(events *service.EventService) *SyncTaskHandler {
	return &SyncTaskHandler{events: events}
}

func (h *SyncTaskHandler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeSyncIntegration, h.HandleSyncIntegration)
	mux.HandleFunc(TypeSyncAll, h.HandleSyncAll)
}

func (h *SyncTaskHandler) HandleSyncIntegration(ctx context.Context, t *asynq.Task) error {
	var payload syncIntegrationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		// Malformed payloads never become valid; drop instead of retrying.
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	integrationID, err := uuid.Parse(payload.IntegrationID)
	if err != nil {
		return fmt.Errorf("parse integration id: %v: %w", err, asynq.SkipRetry)
	}

	synced, appErr := h.events.SyncCalendarEvents(ctx, integrationID)
	if appErr != nil {
		logger.Error("SyncTaskHandler:HandleSyncIntegration:Failed",
			"integration_id", integrationID,
			"error", appErr,
		)
		return appErr
	}

	logger.Info("SyncTaskHandler:HandleSyncIntegration:Done",
		"integration_id", integrationID,
		"synced", synced,
	)
	return nil
}

func (h *SyncTaskHandler) HandleSyncAll(ctx context.Context, _ *asynq.Task) error {
	succeeded, failed := h.events.SyncAll(ctx)
	logger.Info("SyncTaskHandler:HandleSyncAll:Done",
		"succeeded", succeeded,
		"failed", failed,
	)
	return nil
}
