// Package bootstrap gates the bot session on a successful pairing with the authority.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"jagx-bot/internal/pairing/client"
	"jagx-bot/internal/pairing/domain"
)

// PairingClient is the authority API used before a session starts. *client.Client implements it.
type PairingClient interface {
	Describe(ctx context.Context) (*client.Info, error)
	Verify(ctx context.Context, code, phone string) (*client.VerifyResult, error)
	QRURL(info *client.Info) string
}

// Paired describes the completed pairing handed to the session.
type Paired struct {
	Code  string
	Phone string
	// Token is the pairing session token, empty when the authority does not issue one.
	Token string
}

// Pair fetches the current code and verifies it for phone. Every failure is terminal for this attempt;
// callers wanting retries wrap Pair themselves. No pairing state is consulted after Pair returns.
func Pair(ctx context.Context, c PairingClient, phone string, log *zap.Logger) (*Paired, error) {
	if log == nil {
		log = zap.NewNop()
	}
	info, err := c.Describe(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch pairing code: %w", err)
	}
	if !info.Present() {
		return nil, fmt.Errorf("no pairing code from server, make sure it is running: %w", domain.ErrNotFound)
	}
	log.Info("pairing code received", zap.String("code", info.Code), zap.Time("expires_at", info.ExpiresAt))
	if qrURL := c.QRURL(info); qrURL != "" {
		log.Info("scan this QR to complete pairing", zap.String("qr_url", qrURL))
	}

	res, err := c.Verify(ctx, info.Code, phone)
	if err != nil {
		return nil, fmt.Errorf("verify pairing code: %w", err)
	}
	log.Info("successfully paired with server", zap.String("phone", res.UserPhone))
	return &Paired{Code: info.Code, Phone: phone, Token: res.Token}, nil
}
