package audit

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/payroll-desk/internal/domain"
	"github.com/spec-kit/payroll-desk/internal/events"
)

// Sink receives audit entries in emission order. The in-memory Log is
// never rebuilt from a sink.
type Sink interface {
	Name() string
	Write(ctx context.Context, entry domain.AuditLogEntry) error
}

// Mirror is a sink that can also read back its newest entries, newest
// first. It serves as an alternate read path for the trail.
type Mirror interface {
	Sink
	Recent(ctx context.Context, limit int) ([]domain.AuditLogEntry, error)
}

// Subscribe delivers every recorded entry to sink through the dispatcher.
func Subscribe(dispatcher events.Dispatcher, sink Sink, logger *zap.Logger) {
	if dispatcher == nil || sink == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher.Subscribe(events.EventAuditRecorded, func(ctx context.Context, event events.Event) error {
		entry, ok := event.Payload.(domain.AuditLogEntry)
		if !ok {
			return fmt.Errorf("audit sink %s: unexpected payload %T", sink.Name(), event.Payload)
		}
		if err := sink.Write(ctx, entry); err != nil {
			logger.Warn("audit sink write failed",
				zap.String("sink", sink.Name()),
				zap.String("entry_id", entry.ID),
				zap.Error(err))
			return fmt.Errorf("audit sink %s: %w", sink.Name(), err)
		}
		return nil
	})
}
