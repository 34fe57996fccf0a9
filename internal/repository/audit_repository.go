package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/payroll-desk/internal/domain"
)

// PgxConn is the part of pgxpool.Pool the audit repository needs.
type PgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// AuditRepository mirrors audit entries into the audit_log table.
type AuditRepository interface {
	Name() string
	Write(ctx context.Context, entry domain.AuditLogEntry) error
	Recent(ctx context.Context, limit int) ([]domain.AuditLogEntry, error)
}

const defaultRecentLimit = 50

type auditRepository struct {
	db PgxConn
}

// NewAuditRepository builds repository.
func NewAuditRepository(db PgxConn) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Name() string {
	return "postgres"
}

// Write inserts an entry. Replays of the same entry id are ignored.
func (r *auditRepository) Write(ctx context.Context, entry domain.AuditLogEntry) error {
	const query = `
        INSERT INTO audit_log (id, occurred_at, user_id, user_name, user_role, action, details, related_entity_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (id) DO NOTHING`
	_, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.Timestamp,
		entry.UserID,
		entry.UserName,
		string(entry.UserRole),
		entry.Action,
		entry.Details,
		entry.RelatedEntityID,
	)
	return err
}

// Recent reads the newest limit rows, newest first.
func (r *auditRepository) Recent(ctx context.Context, limit int) ([]domain.AuditLogEntry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	const query = `
        SELECT id, occurred_at, user_id, user_name, user_role, action, details, related_entity_id
        FROM audit_log ORDER BY occurred_at DESC LIMIT $1`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditLogEntry
	for rows.Next() {
		var (
			entry domain.AuditLogEntry
			role  string
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.Timestamp,
			&entry.UserID,
			&entry.UserName,
			&role,
			&entry.Action,
			&entry.Details,
			&entry.RelatedEntityID,
		); err != nil {
			return nil, err
		}
		entry.UserRole = domain.UserRole(role)
		result = append(result, entry)
	}
	return result, rows.Err()
}
