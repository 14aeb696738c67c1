package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/message-router/internal/config"
	"github.com/spec-kit/message-router/internal/domain"
	"github.com/spec-kit/message-router/internal/events"
	"github.com/spec-kit/message-router/internal/repository"
)

// NotificationService turns routing events into staff inbox entries. It is
// a downstream consumer: failures here are logged and never fed back into
// the routing pipeline.
type NotificationService struct {
	notifications repository.NotificationRepository
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	cfg           config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(notifications repository.NotificationRepository, dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		dispatcher:    dispatcher,
		logger:        logger,
		cfg:           cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil || !n.cfg.Enabled {
		return
	}
	n.dispatcher.Subscribe(events.EventMessageAssigned, n.handleMessageAssigned)
	n.dispatcher.Subscribe(events.EventMessageUnassigned, n.handleMessageUnassigned)
	n.dispatcher.Subscribe(events.EventMessageCompleted, n.handleMessageCompleted)
}

func (n *NotificationService) handleMessageAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MessageAssignedPayload)
	if !ok {
		return nil
	}
	notification := &domain.Notification{
		StaffID: payload.AssigneeStaffID,
		Title:   "New message assigned",
		Body:    fmt.Sprintf("You have a new message: %s", payload.Preview),
		Type:    domain.NotificationTypeMessage,
		Link:    fmt.Sprintf("%s/%s", n.cfg.LinkBaseURL, event.MessageID),
	}
	if err := n.notifications.Create(ctx, notification); err != nil {
		n.logger.Error("failed to write assignment notification",
			zap.String("message_id", event.MessageID),
			zap.String("staff_id", payload.AssigneeStaffID),
			zap.Error(err))
		return err
	}
	n.logger.Info("MessageAssigned",
		zap.String("message_id", event.MessageID),
		zap.String("staff_id", payload.AssigneeStaffID),
		zap.Float64("match_score", payload.MatchScore))
	return nil
}

func (n *NotificationService) handleMessageUnassigned(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.MessageUnassignedPayload)
	n.logger.Warn("MessageUnassigned",
		zap.String("message_id", event.MessageID),
		zap.String("reason", string(payload.Reason)))
	return nil
}

func (n *NotificationService) handleMessageCompleted(ctx context.Context, event events.Event) error {
	n.logger.Info("MessageCompleted", zap.String("message_id", event.MessageID))
	return nil
}
