package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/message-router/internal/config"
	"github.com/spec-kit/message-router/internal/repository"
	"github.com/spec-kit/message-router/internal/service"
	apperrors "github.com/spec-kit/message-router/pkg/util"
)

// RequeueWorker periodically re-attempts routing for messages stuck in
// PENDING, typically after transient store failures or keyword/staff
// changes since arrival. Retries are safe: a message that gained an
// assignment in the meantime surfaces as a conflict and is skipped.
type RequeueWorker struct {
	messages repository.MessageRepository
	assigner *service.AssignmentService
	cfg      config.RoutingConfig
	logger   *zap.Logger
	cron     *cron.Cron
}

// NewRequeueWorker creates the worker.
func NewRequeueWorker(messages repository.MessageRepository, assigner *service.AssignmentService, cfg config.RoutingConfig, logger *zap.Logger) *RequeueWorker {
	return &RequeueWorker{
		messages: messages,
		assigner: assigner,
		cfg:      cfg,
		logger:   logger,
		cron:     cron.New(),
	}
}

// Start schedules the sweep and begins running it.
func (w *RequeueWorker) Start() error {
	if _, err := w.cron.AddFunc(w.cfg.RequeueSchedule, w.sweep); err != nil {
		return err
	}
	w.cron.Start()
	w.logger.Info("requeue worker started", zap.String("schedule", w.cfg.RequeueSchedule))
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (w *RequeueWorker) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
}

func (w *RequeueWorker) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-w.cfg.RequeueMinAge())
	pending, err := w.messages.ListStalePending(ctx, cutoff, w.cfg.RequeueBatchSize)
	if err != nil {
		w.logger.Error("requeue sweep failed to list pending messages", zap.Error(err))
		return
	}
	if len(pending) == 0 {
		return
	}

	w.logger.Info("requeue sweep", zap.Int("pending", len(pending)))
	for _, message := range pending {
		result, err := w.assigner.AssignMessage(ctx, message.ID)
		switch {
		case err == nil:
			if result.Outcome == service.OutcomeAssigned {
				w.logger.Info("requeued message assigned",
					zap.String("message_id", message.ID),
					zap.String("assigned_to", result.Assignment.AssignedTo))
			}
		case apperrors.IsCode(err, "CONFLICT"):
			// A concurrent attempt won; nothing to do.
		case apperrors.IsCode(err, "INTEGRITY_VIOLATION"):
			w.logger.Error("requeued message has referential gap, giving up",
				zap.String("message_id", message.ID),
				zap.Error(err))
		default:
			w.logger.Error("requeue attempt failed",
				zap.String("message_id", message.ID),
				zap.Error(err))
		}
	}
}
