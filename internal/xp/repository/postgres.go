package repository

import (
	"context"
	"database/sql"
	"errors"
)

const (
	upsertXP = `INSERT INTO xp_ledger (sender, xp, updated_at) VALUES ($1, $2, now())
ON CONFLICT (sender) DO UPDATE SET xp = xp_ledger.xp + EXCLUDED.xp, updated_at = now()
RETURNING xp`
	selectXP = `SELECT xp FROM xp_ledger WHERE sender = $1`
)

// PostgresLedger stores XP in the xp_ledger table. The upsert is a single statement, so concurrent
// awards for one sender serialize on the row.
type PostgresLedger struct {
	db *sql.DB
}

// NewPostgresLedger returns a ledger backed by db.
func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Add increases sender's XP by amount and returns the new total.
func (l *PostgresLedger) Add(ctx context.Context, sender string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, ErrNegativeAmount
	}
	var total int64
	if err := l.db.QueryRowContext(ctx, upsertXP, sender, amount).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// Get returns sender's XP, 0 if the sender has no row.
func (l *PostgresLedger) Get(ctx context.Context, sender string) (int64, error) {
	var total int64
	err := l.db.QueryRowContext(ctx, selectXP, sender).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return total, nil
}
