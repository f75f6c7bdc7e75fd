// Package service implements the pairing authority: issuing, describing and verifying the single pairing code.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	auditdomain "jagx-bot/internal/audit/domain"
	"jagx-bot/internal/pairing/domain"
	"jagx-bot/internal/pairing/qr"
	"jagx-bot/internal/pairing/repository"
	"jagx-bot/internal/security"
	"jagx-bot/internal/telemetry"
	telemetryotel "jagx-bot/internal/telemetry/otel"
)

const eventSource = "pair-server"

// Tokens issues and validates pairing session tokens. *security.TokenProvider implements it.
type Tokens interface {
	Issue(phone string) (string, time.Time, error)
	Validate(token string) (*security.PairClaims, error)
}

// AuditLogger records verification attempts.
type AuditLogger interface {
	LogEvent(ctx context.Context, action, codeStatus, phone, metadata string)
}

// Options configures an Authority. Zero values fall back to defaults; nil collaborators are skipped.
type Options struct {
	Prefix        string
	TTL           time.Duration
	QRURLTemplate string
	// SingleUse rejects verification of an already paired code with ErrAlreadyPaired.
	SingleUse bool

	Tokens  Tokens
	Audit   AuditLogger
	Emitter telemetry.EventEmitter
	Metrics *telemetryotel.Metrics
	Logger  *zap.Logger
	Now     func() time.Time
}

// VerifyResult is returned by a successful Verify.
type VerifyResult struct {
	UserPhone string
	// Token is empty when session tokens are not configured.
	Token          string
	TokenExpiresAt time.Time
}

// Session is what a pairing session token resolves to.
type Session struct {
	UserPhone string
	Code      string
	Paired    bool
}

// Authority owns the single pairing slot. All reads and writes of the stored record go through one mutex,
// so concurrent verifies cannot both pass an expiry boundary.
type Authority struct {
	mu      sync.Mutex
	repo    repository.Repository
	encoder qr.Encoder

	prefix     string
	ttl        time.Duration
	qrTemplate string
	singleUse  bool
	tokens     Tokens
	audit      AuditLogger
	emitter    telemetry.EventEmitter
	metrics    *telemetryotel.Metrics
	log        *zap.Logger
	tracer     trace.Tracer
	nowF       func() time.Time
}

// NewAuthority returns an Authority over repo. encoder may be nil, in which case no QR image is produced.
func NewAuthority(repo repository.Repository, encoder qr.Encoder, opts Options) *Authority {
	a := &Authority{
		repo:       repo,
		encoder:    encoder,
		prefix:     opts.Prefix,
		ttl:        opts.TTL,
		qrTemplate: opts.QRURLTemplate,
		singleUse:  opts.SingleUse,
		tokens:     opts.Tokens,
		audit:      opts.Audit,
		emitter:    opts.Emitter,
		metrics:    opts.Metrics,
		log:        opts.Logger,
		tracer:     otel.Tracer("jagx.pairing"),
		nowF:       opts.Now,
	}
	if a.prefix == "" {
		a.prefix = "JagX"
	}
	if a.ttl <= 0 {
		a.ttl = 24 * time.Hour
	}
	if a.qrTemplate == "" {
		a.qrTemplate = "https://katabump.com/pair?code=%s"
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	if a.nowF == nil {
		a.nowF = time.Now
	}
	return a
}

// Issue creates the pairing record and its QR image if no record exists yet.
// An existing record is never overwritten, whatever its state (expired, paired or unreadable).
// created reports whether a new record was written. QR failures are logged and do not fail issuance.
func (a *Authority) Issue(ctx context.Context) (rec *domain.Record, created bool, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	existing, err := a.repo.Load(ctx)
	switch {
	case errors.Is(err, repository.ErrCorruptRecord):
		a.log.Warn("pairing record unreadable; leaving it in place", zap.Error(err))
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("load pairing record: %w", err)
	case existing != nil:
		return existing, false, nil
	}

	code, err := domain.GenerateCode(a.prefix)
	if err != nil {
		return nil, false, fmt.Errorf("generate pairing code: %w", err)
	}
	rec = &domain.Record{
		Code:      code,
		ExpiresAt: a.nowF().Add(a.ttl).UTC(),
	}
	if err := a.repo.Save(ctx, rec); err != nil {
		return nil, false, fmt.Errorf("save pairing record: %w", err)
	}
	a.log.Info("pairing code issued", zap.String("code", code), zap.Time("expires_at", rec.ExpiresAt))
	a.writeQR(ctx, code)
	a.audited(ctx, auditdomain.ActionPairIssue, domain.StatusIssued, "", "")
	return rec, true, nil
}

func (a *Authority) writeQR(ctx context.Context, code string) {
	if a.encoder == nil {
		return
	}
	png, err := a.encoder.Encode(qr.PairURL(a.qrTemplate, code))
	if err == nil {
		err = a.repo.SaveQR(ctx, png)
	}
	if err != nil {
		a.log.Error("pairing QR generation failed", zap.Error(err))
		return
	}
	a.log.Info("pairing QR generated")
}

// Describe returns the read-only projection of the current record. The zero Description means nothing issued.
func (a *Authority) Describe(ctx context.Context) (domain.Description, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, err := a.load(ctx)
	if err != nil {
		return domain.Description{}, err
	}
	hasQR, err := a.repo.HasQR(ctx)
	if err != nil {
		return domain.Description{}, fmt.Errorf("stat pairing QR: %w", err)
	}
	if rec == nil {
		return domain.Description{HasQR: hasQR}, nil
	}
	return domain.Description{Code: rec.Code, ExpiresAt: rec.ExpiresAt, HasQR: hasQR}, nil
}

// QR returns the stored QR image, or nil if it has not been generated.
func (a *Authority) QR(ctx context.Context) ([]byte, error) {
	return a.repo.LoadQR(ctx)
}

// Verify checks code against the stored record and binds phone on success.
// Check order is existence, expiry, code match, then (single-use mode only) prior consumption.
func (a *Authority) Verify(ctx context.Context, code, phone string) (*VerifyResult, error) {
	ctx, span := a.tracer.Start(ctx, "pairing.Verify")
	defer span.End()

	a.mu.Lock()
	defer a.mu.Unlock()

	rec, err := a.load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	now := a.nowF()
	status := rec.Status(now)
	span.SetAttributes(attribute.String("pairing.status", string(status)))

	var verr error
	switch {
	case rec == nil:
		verr = domain.ErrNotFound
	case rec.Expired(now):
		verr = domain.ErrExpired
	case !domain.CodeEqual(code, rec.Code):
		verr = domain.ErrMismatch
	case a.singleUse && rec.Paired:
		verr = domain.ErrAlreadyPaired
	}
	if verr != nil {
		a.recordVerify(ctx, status, phone, verr)
		span.SetStatus(codes.Error, verr.Error())
		return nil, verr
	}

	rec.Paired = true
	rec.UserPhone = phone
	if err := a.repo.Save(ctx, rec); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("save pairing record: %w", err)
	}

	res := &VerifyResult{UserPhone: phone}
	if a.tokens != nil {
		token, exp, err := a.tokens.Issue(phone)
		if err != nil {
			// Pairing already persisted; the caller still gets a success without a token.
			a.log.Error("pairing session token issuance failed", zap.Error(err))
		} else {
			res.Token, res.TokenExpiresAt = token, exp
		}
	}
	a.recordVerify(ctx, status, phone, nil)
	return res, nil
}

// Session resolves a pairing session token to the currently bound phone.
// Returns security.ErrInvalidToken for bad tokens and ErrNotFound when the token's phone is no longer bound.
func (a *Authority) Session(ctx context.Context, token string) (*Session, error) {
	if a.tokens == nil {
		return nil, security.ErrInvalidToken
	}
	claims, err := a.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	rec, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	if rec == nil || !rec.Paired || rec.UserPhone != claims.Phone() {
		return nil, domain.ErrNotFound
	}
	return &Session{UserPhone: rec.UserPhone, Code: rec.Code, Paired: rec.Paired}, nil
}

// Health reports whether the record store is readable. A corrupt record is not a health failure.
func (a *Authority) Health(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, err := a.load(ctx)
	return err
}

// TokensEnabled reports whether verify hands out session tokens.
func (a *Authority) TokensEnabled() bool {
	return a.tokens != nil
}

// load reads the record, treating a corrupt file as absent. Caller holds a.mu.
func (a *Authority) load(ctx context.Context) (*domain.Record, error) {
	rec, err := a.repo.Load(ctx)
	if errors.Is(err, repository.ErrCorruptRecord) {
		a.log.Warn("pairing record unreadable; treating as absent", zap.Error(err))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load pairing record: %w", err)
	}
	return rec, nil
}

func (a *Authority) recordVerify(ctx context.Context, status domain.Status, phone string, verr error) {
	outcome := verifyOutcome(verr)
	a.metrics.PairVerify(ctx, outcome)
	a.audited(ctx, auditdomain.ActionPairVerify, status, phone, fmt.Sprintf(`{"outcome":%q}`, outcome))
	telemetry.EmitAsync(a.log, a.emitter, telemetry.NewEvent("pair_verify", eventSource, phone, map[string]string{
		"outcome":     outcome,
		"code_status": string(status),
	}))
	if verr != nil {
		a.log.Info("pairing verify rejected", zap.String("outcome", outcome), zap.String("code_status", string(status)))
		return
	}
	a.log.Info("pairing verified", zap.String("phone", phone))
}

func (a *Authority) audited(ctx context.Context, action string, status domain.Status, phone, metadata string) {
	if a.audit == nil {
		return
	}
	a.audit.LogEvent(ctx, action, string(status), phone, metadata)
}

func verifyOutcome(err error) string {
	switch {
	case err == nil:
		return "paired"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrExpired):
		return "expired"
	case errors.Is(err, domain.ErrMismatch):
		return "mismatch"
	case errors.Is(err, domain.ErrAlreadyPaired):
		return "already_paired"
	default:
		return "error"
	}
}
