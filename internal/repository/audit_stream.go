package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/payroll-desk/internal/domain"
)

// ListClient is the part of redis.Client the audit stream needs.
type ListClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}

// AuditStream pushes audit entries onto a Redis list, newest at index 0, so
// other processes can tail the trail without touching the service.
type AuditStream struct {
	client ListClient
	key    string
}

const streamTimeLayout = "2006-01-02T15:04:05.000Z07:00"

type streamEntry struct {
	ID              string `json:"id"`
	Timestamp       string `json:"timestamp"`
	UserID          string `json:"user_id"`
	UserName        string `json:"user_name"`
	UserRole        string `json:"user_role"`
	Action          string `json:"action"`
	Details         string `json:"details"`
	RelatedEntityID string `json:"related_entity_id,omitempty"`
}

// NewAuditStream builds the Redis sink writing to key.
func NewAuditStream(client ListClient, key string) *AuditStream {
	return &AuditStream{client: client, key: key}
}

func (s *AuditStream) Name() string {
	return "redis"
}

func (s *AuditStream) Write(ctx context.Context, entry domain.AuditLogEntry) error {
	raw, err := json.Marshal(streamEntry{
		ID:              entry.ID,
		Timestamp:       entry.Timestamp.UTC().Format(streamTimeLayout),
		UserID:          entry.UserID,
		UserName:        entry.UserName,
		UserRole:        string(entry.UserRole),
		Action:          entry.Action,
		Details:         entry.Details,
		RelatedEntityID: entry.RelatedEntityID,
	})
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}
	return s.client.LPush(ctx, s.key, raw).Err()
}

// Recent decodes the newest limit entries, newest first.
func (s *AuditStream) Recent(ctx context.Context, limit int) ([]domain.AuditLogEntry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	raw, err := s.client.LRange(ctx, s.key, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.AuditLogEntry, 0, len(raw))
	for _, item := range raw {
		var se streamEntry
		if err := json.Unmarshal([]byte(item), &se); err != nil {
			return nil, fmt.Errorf("decode audit entry: %w", err)
		}
		ts, err := time.Parse(streamTimeLayout, se.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("decode audit entry %s: %w", se.ID, err)
		}
		out = append(out, domain.AuditLogEntry{
			ID:              se.ID,
			Timestamp:       ts,
			UserID:          se.UserID,
			UserName:        se.UserName,
			UserRole:        domain.UserRole(se.UserRole),
			Action:          se.Action,
			Details:         se.Details,
			RelatedEntityID: se.RelatedEntityID,
		})
	}
	return out, nil
}
