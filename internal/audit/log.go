package audit

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/payroll-desk/internal/domain"
	"github.com/spec-kit/payroll-desk/internal/events"
)

// Log is the process-wide append-only audit trail. Reads are newest-first.
type Log struct {
	mu         sync.RWMutex
	entries    []domain.AuditLogEntry // oldest first
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// Filter narrows Entries results. Zero values match everything.
type Filter struct {
	Action          string
	UserID          string
	RelatedEntityID string
	Limit           int
}

// NewLog builds a log pre-populated with seed entries in any order.
func NewLog(dispatcher events.Dispatcher, logger *zap.Logger, seed []domain.AuditLogEntry) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries := append([]domain.AuditLogEntry(nil), seed...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return &Log{entries: entries, dispatcher: dispatcher, logger: logger}
}

// Append records an entry and publishes it to subscribed sinks. Sink
// failures are logged and never roll the entry back.
func (l *Log) Append(ctx context.Context, entry domain.AuditLogEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()

	l.logger.Info("audit entry recorded",
		zap.String("action", entry.Action),
		zap.String("user_id", entry.UserID),
		zap.String("related_entity_id", entry.RelatedEntityID))

	if l.dispatcher == nil {
		return
	}
	err := l.dispatcher.Publish(ctx, events.Event{
		ID:        entry.ID,
		Type:      events.EventAuditRecorded,
		EntityID:  entry.RelatedEntityID,
		Actor:     domain.Actor{ID: entry.UserID, Name: entry.UserName, Role: entry.UserRole},
		Timestamp: entry.Timestamp,
		Payload:   entry,
	})
	if err != nil {
		l.logger.Warn("audit subscribers failed", zap.String("entry_id", entry.ID), zap.Error(err))
	}
}

// Len returns the number of recorded entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Entries returns every entry, newest first.
func (l *Log) Entries() []domain.AuditLogEntry {
	return l.Filter(Filter{})
}

// Filter returns matching entries, newest first.
func (l *Log) Filter(f Filter) []domain.AuditLogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.AuditLogEntry, 0, len(l.entries))
	for i := len(l.entries) - 1; i >= 0; i-- {
		if !f.Match(l.entries[i]) {
			continue
		}
		out = append(out, l.entries[i])
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

// Match reports whether e passes every set field of f. Limit is ignored.
func (f Filter) Match(e domain.AuditLogEntry) bool {
	if f.Action != "" && !strings.EqualFold(e.Action, f.Action) {
		return false
	}
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.RelatedEntityID != "" && e.RelatedEntityID != f.RelatedEntityID {
		return false
	}
	return true
}

// Apply keeps the matching entries of an already ordered slice, up to Limit.
func (f Filter) Apply(entries []domain.AuditLogEntry) []domain.AuditLogEntry {
	out := make([]domain.AuditLogEntry, 0, len(entries))
	for _, e := range entries {
		if !f.Match(e) {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}
