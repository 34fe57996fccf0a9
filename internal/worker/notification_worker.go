package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/payroll-desk/internal/audit"
	"github.com/spec-kit/payroll-desk/internal/events"
	"github.com/spec-kit/payroll-desk/internal/service"
)

// Dependencies lists the subscribers attached to the dispatcher.
type Dependencies struct {
	Dispatcher    events.Dispatcher
	Notifications *service.NotificationService
	Sinks         []audit.Sink
	Logger        *zap.Logger
}

// StartNotificationWorker registers notification handlers and audit sinks.
// Sinks receive entries in the order the log records them.
func StartNotificationWorker(deps Dependencies) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Notifications != nil {
		deps.Notifications.RegisterHandlers()
	}
	for _, sink := range deps.Sinks {
		if sink == nil {
			continue
		}
		audit.Subscribe(deps.Dispatcher, sink, logger)
		logger.Info("audit sink attached", zap.String("sink", sink.Name()))
	}
}
