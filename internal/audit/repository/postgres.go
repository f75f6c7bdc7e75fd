package repository

import (
	"context"
	"database/sql"

	"jagx-bot/internal/audit/domain"
)

const (
	insertAuditLog = `INSERT INTO pair_audit_logs (id, action, code_status, phone, ip, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	listRecentAuditLogs = `SELECT id, action, code_status, phone, ip, metadata, created_at
FROM pair_audit_logs ORDER BY created_at DESC LIMIT $1`
)

// PostgresRepository stores audit logs in the pair_audit_logs table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists a. The entry must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	_, err := r.db.ExecContext(ctx, insertAuditLog,
		a.ID, a.Action, a.CodeStatus, nullString(a.Phone), a.IP, nullString(a.Metadata), a.CreatedAt)
	return err
}

// ListRecent returns up to limit entries, newest first.
func (r *PostgresRepository) ListRecent(ctx context.Context, limit int) ([]*domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx, listRecentAuditLogs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.AuditLog
	for rows.Next() {
		var (
			a           domain.AuditLog
			phone, meta sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Action, &a.CodeStatus, &phone, &a.IP, &meta, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Phone = phone.String
		a.Metadata = meta.String
		out = append(out, &a)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
