// Package client is the bot-side HTTP client of the pairing authority.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"jagx-bot/internal/pairing/domain"
)

const defaultTimeout = 15 * time.Second

// ErrTransportUnavailable is returned when the authority cannot be reached or answers unexpectedly.
var ErrTransportUnavailable = errors.New("pairing authority unavailable")

// Info is the authority's description of the current pairing. Code is empty when none is issued.
type Info struct {
	Code      string
	ExpiresAt time.Time
	// QRPath is the authority-relative path of the QR image, empty if not generated.
	QRPath string
}

// Present reports whether a code is available.
func (i *Info) Present() bool {
	return i != nil && i.Code != ""
}

// VerifyResult is the successful outcome of Verify.
type VerifyResult struct {
	Message   string `json:"message"`
	UserPhone string `json:"userPhone"`
	Token     string `json:"token,omitempty"`
}

// Client talks to the pairing authority over HTTP.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a client for baseURL with the given per-request timeout (15s when <= 0).
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Describe fetches GET /auto-pair.
func (c *Client) Describe(ctx context.Context) (*Info, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/auto-pair", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransportUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, unexpectedStatus(resp)
	}
	var body struct {
		Code    *string `json:"code"`
		Expires *int64  `json:"expires"`
		QR      *string `json:"qr"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode /auto-pair: %v", ErrTransportUnavailable, err)
	}
	info := &Info{}
	if body.Code != nil {
		info.Code = *body.Code
	}
	if body.Expires != nil {
		info.ExpiresAt = time.UnixMilli(*body.Expires).UTC()
	}
	if body.QR != nil {
		info.QRPath = *body.QR
	}
	return info, nil
}

// Verify submits POST /verify-pair. Rejections map to the pairing domain errors.
func (c *Client) Verify(ctx context.Context, code, phone string) (*VerifyResult, error) {
	raw, err := json.Marshal(map[string]string{"code": code, "userPhone": phone})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/verify-pair", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransportUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, domain.ErrNotFound
	case http.StatusGone:
		return nil, domain.ErrExpired
	case http.StatusUnauthorized:
		return nil, domain.ErrMismatch
	case http.StatusConflict:
		return nil, domain.ErrAlreadyPaired
	default:
		return nil, unexpectedStatus(resp)
	}
	var res VerifyResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("%w: decode /verify-pair: %v", ErrTransportUnavailable, err)
	}
	if res.Message == "" {
		return nil, fmt.Errorf("%w: empty verify response", ErrTransportUnavailable)
	}
	return &res, nil
}

// QRURL returns the absolute URL of the QR image, or "" when info has none.
func (c *Client) QRURL(info *Info) string {
	if info == nil || info.QRPath == "" {
		return ""
	}
	return c.BaseURL + info.QRPath
}

func unexpectedStatus(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%w: status=%d body=%s", ErrTransportUnavailable, resp.StatusCode, strings.TrimSpace(string(b)))
}
