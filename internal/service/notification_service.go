package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/vendor-finance/internal/config"
	"github.com/spec-kit/vendor-finance/internal/events"
)

// NotificationService handles emitting notifications for domain events. All
// delivery is fire-and-forget; failures never propagate to the publisher.
type NotificationService struct {
	dispatcher events.Dispatcher
	relay      *redis.Client
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service. The relay client may be nil
// when Redis is not configured.
func NewNotificationService(dispatcher events.Dispatcher, relay *redis.Client, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		relay:      relay,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventEntityCreated, n.handleEntityCreated)
	n.dispatcher.Subscribe(events.EventTransitionApplied, n.handleTransitionApplied)
	n.dispatcher.Subscribe(events.EventWorkItemAssigned, n.handleWorkItemAssigned)
}

func (n *NotificationService) handleEntityCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("EntityCreated",
		zap.String("entity_type", string(event.EntityType)),
		zap.String("entity_id", event.EntityID))
	n.relayEvent(ctx, event)
	return nil
}

func (n *NotificationService) handleTransitionApplied(ctx context.Context, event events.Event) error {
	n.logger.Info("TransitionApplied",
		zap.String("entity_type", string(event.EntityType)),
		zap.String("entity_id", event.EntityID),
		zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	n.relayEvent(ctx, event)
	return nil
}

func (n *NotificationService) handleWorkItemAssigned(ctx context.Context, event events.Event) error {
	n.logger.Info("WorkItemAssigned",
		zap.String("entity_type", string(event.EntityType)),
		zap.String("entity_id", event.EntityID),
		zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	n.relayEvent(ctx, event)
	return nil
}

// relayEvent publishes the event to the Redis channel for external consumers.
func (n *NotificationService) relayEvent(ctx context.Context, event events.Event) {
	if n.relay == nil || strings.TrimSpace(n.cfg.EventsChannel) == "" {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Warn("event marshal failed", zap.Error(err))
		return
	}
	if err := n.relay.Publish(ctx, n.cfg.EventsChannel, payload).Err(); err != nil {
		n.logger.Warn("event relay failed",
			zap.String("channel", n.cfg.EventsChannel),
			zap.Error(err))
	}
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("entity_id", event.EntityID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("entity_id", event.EntityID),
		zap.String("event_type", string(event.Type)))
}
