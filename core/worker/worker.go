package worker

import (
	"biocard-api/core/config"
	"biocard-api/core/logger"

	"github.com/hibiken/asynq"
)

// Worker runs the asynq task server plus a scheduler for periodic
// tasks, both against the same Redis instance the cache uses.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
}

func New(redisCfg config.RedisConfig, concurrency int) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}

	opt := asynq.RedisClientOpt{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
	})
	scheduler := asynq.NewScheduler(opt, nil)

	return &Worker{
		server:    server,
		scheduler: scheduler,
		mux:       asynq.NewServeMux(),
	}
}

// Mux exposes the handler mux so modules can register their task types.
func (w *Worker) Mux() *asynq.ServeMux {
	return w.mux
}

// RegisterPeriodic schedules a task on a cron spec ("@every 15m" or
// standard five-field cron).
func (w *Worker) RegisterPeriodic(spec string, task *asynq.Task) error {
	entryID, err := w.scheduler.Register(spec, task)
	if err != nil {
		return err
	}
	logger.Info("Worker:RegisterPeriodic", "entry_id", entryID, "spec", spec, "task", task.Type())
	return nil
}

// Start runs the task server and scheduler. It blocks until Shutdown.
func (w *Worker) Start() error {
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	return w.scheduler.Run()
}

func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
}
