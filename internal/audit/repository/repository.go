package repository

import (
	"context"

	"jagx-bot/internal/audit/domain"
)

// Repository defines persistence for pairing audit logs.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	ListRecent(ctx context.Context, limit int) ([]*domain.AuditLog, error)
}
