// Package audit records pairing issue/verify attempts.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jagx-bot/internal/audit/domain"
	auditrepo "jagx-bot/internal/audit/repository"
)

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// AuditLogger writes a single pairing audit event. LogEvent is best-effort and never fails the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, action, codeStatus, phone, metadata string)
}

// Logger implements AuditLogger. Without a repository entries go to the zap logger only.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
	log         *zap.Logger
	nowF        func() time.Time
}

// NewLogger returns a Logger persisting to repo (may be nil) and using ipExtractor for the client IP.
// ipExtractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor, log *zap.Logger) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Logger{repo: repo, ipExtractor: ipExtractor, log: log, nowF: time.Now}
}

// LogEvent writes one audit entry. Repository errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, action, codeStatus, phone, metadata string) {
	ip := "unknown"
	if l.ipExtractor != nil {
		if v := l.ipExtractor(ctx); v != "" {
			ip = v
		}
	}
	entry := &domain.AuditLog{
		ID:         uuid.New().String(),
		Action:     action,
		CodeStatus: codeStatus,
		Phone:      phone,
		IP:         ip,
		Metadata:   metadata,
		CreatedAt:  l.nowF().UTC(),
	}
	fields := []zap.Field{
		zap.String("action", entry.Action),
		zap.String("code_status", entry.CodeStatus),
		zap.String("phone", entry.Phone),
		zap.String("ip", entry.IP),
	}
	if l.repo == nil {
		l.log.Info("audit", fields...)
		return
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		l.log.Warn("audit: failed to persist event", append(fields, zap.Error(err))...)
	}
}
