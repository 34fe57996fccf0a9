package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/payroll-desk/internal/domain"
)

type fakeConn struct {
	sql      string
	args     []any
	queryErr error
}

func (f *fakeConn) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql = sql
	f.args = args
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeConn) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.sql = sql
	f.args = args
	return nil, f.queryErr
}

type fakeList struct {
	key    string
	values []string
}

func (f *fakeList) LPush(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	f.key = key
	for _, v := range values {
		f.values = append([]string{string(v.([]byte))}, f.values...)
	}
	return redis.NewIntResult(int64(len(f.values)), nil)
}

func (f *fakeList) LRange(_ context.Context, key string, start, stop int64) *redis.StringSliceCmd {
	if stop >= int64(len(f.values)) {
		stop = int64(len(f.values)) - 1
	}
	return redis.NewStringSliceResult(f.values[start:stop+1], nil)
}

func sampleEntry(id, action string) domain.AuditLogEntry {
	return domain.AuditLogEntry{
		ID:              id,
		Timestamp:       time.Date(2024, 10, 3, 9, 0, 0, 0, time.UTC),
		UserID:          "u1",
		UserName:        "Ana Martinez",
		UserRole:        domain.RolePayrollManager,
		Action:          action,
		Details:         "Completed task \"Validate attendance\"",
		RelatedEntityID: "tk2",
	}
}

func TestAuditRepositoryWrite(t *testing.T) {
	conn := &fakeConn{}
	repo := NewAuditRepository(conn)

	require.NoError(t, repo.Write(context.Background(), sampleEntry("log-1", "TASK_COMPLETED")))
	assert.Contains(t, conn.sql, "INSERT INTO audit_log")
	require.Len(t, conn.args, 8)
	assert.Equal(t, "log-1", conn.args[0])
	assert.Equal(t, "PAYROLL_MANAGER", conn.args[4])
	assert.Equal(t, "tk2", conn.args[7])
	assert.Equal(t, "postgres", repo.Name())
}

func TestAuditRepositoryRecentPropagatesErrors(t *testing.T) {
	conn := &fakeConn{queryErr: errors.New("connection reset")}
	repo := NewAuditRepository(conn)

	_, err := repo.Recent(context.Background(), 0)
	assert.EqualError(t, err, "connection reset")
	assert.Equal(t, []any{50}, conn.args)
}

func TestAuditStreamNewestFirst(t *testing.T) {
	list := &fakeList{}
	stream := NewAuditStream(list, "payroll-desk:audit")
	ctx := context.Background()

	require.NoError(t, stream.Write(ctx, sampleEntry("log-1", "TASK_COMPLETED")))
	require.NoError(t, stream.Write(ctx, sampleEntry("log-2", "CYCLE_CLOSED")))
	assert.Equal(t, "payroll-desk:audit", list.key)

	recent, err := stream.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "log-2", recent[0].ID)
	assert.Equal(t, "CYCLE_CLOSED", recent[0].Action)
	assert.Equal(t, domain.RolePayrollManager, recent[0].UserRole)
	assert.True(t, recent[0].Timestamp.Equal(time.Date(2024, 10, 3, 9, 0, 0, 0, time.UTC)))

	all, err := stream.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "log-1", all[1].ID)
	assert.Equal(t, "tk2", all[1].RelatedEntityID)

	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(list.values[0]), &raw))
	assert.Equal(t, "2024-10-03T09:00:00.000Z", raw["timestamp"])
}

func TestAuditStreamRejectsCorruptEntries(t *testing.T) {
	list := &fakeList{values: []string{"{not json"}}
	stream := NewAuditStream(list, "payroll-desk:audit")

	_, err := stream.Recent(context.Background(), 10)
	assert.ErrorContains(t, err, "decode audit entry")
}
