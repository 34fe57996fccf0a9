package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/payroll-desk/internal/audit"
	"github.com/spec-kit/payroll-desk/internal/config"
	"github.com/spec-kit/payroll-desk/internal/domain"
	"github.com/spec-kit/payroll-desk/internal/events"
	"github.com/spec-kit/payroll-desk/internal/observability"
)

// NotificationService reacts to recorded audit entries with notifications.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventAuditRecorded, n.handleAuditRecorded)
	n.dispatcher.Subscribe(events.EventAnalysisFinished, n.handleAnalysisFinished)
}

func (n *NotificationService) handleAuditRecorded(ctx context.Context, event events.Event) error {
	entry, ok := event.Payload.(domain.AuditLogEntry)
	if !ok {
		return nil
	}
	n.metrics.RecordAudit(entry.Action)

	switch entry.Action {
	case audit.ActionTicketCreated:
		n.sendWebhookNotificationStub(ctx, entry)
	case audit.ActionTicketResolved, audit.ActionCycleClosed:
		n.sendEmailNotificationStub(ctx, entry)
		n.sendWebhookNotificationStub(ctx, entry)
	}
	return nil
}

func (n *NotificationService) handleAnalysisFinished(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.AnalysisFinishedPayload)
	n.logger.Info("AnalysisFinished",
		zap.String("ticket_id", payload.TicketID),
		zap.Bool("failed", payload.Failed),
		zap.String("requested_by", event.Actor.ID))
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, entry domain.AuditLogEntry) {
	if !n.cfg.EmailEnabled || strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Info("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("action", entry.Action),
		zap.String("related_entity_id", entry.RelatedEntityID),
		zap.String("details", entry.Details))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, entry domain.AuditLogEntry) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Info("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("action", entry.Action),
		zap.String("related_entity_id", entry.RelatedEntityID))
}
