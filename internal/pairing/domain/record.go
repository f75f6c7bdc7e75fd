// Package domain holds the pairing record and its lifecycle rules.
package domain

import "time"

// Status is the lifecycle state of the single pairing slot.
type Status string

const (
	StatusUnissued Status = "unissued"
	StatusIssued   Status = "issued"
	StatusVerified Status = "verified"
	StatusExpired  Status = "expired"
)

// Record is the current pairing credential (persisted as auto-pair.json).
// Paired transitions false -> true at most once; a record past ExpiresAt is unusable regardless of Paired.
type Record struct {
	Code      string
	ExpiresAt time.Time
	Paired    bool
	// UserPhone is set only by a successful verification.
	UserPhone string
}

// Expired reports whether now is strictly after the expiry instant.
func (r *Record) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Status returns the lifecycle state at now. Expiry takes precedence over verification.
func (r *Record) Status(now time.Time) Status {
	switch {
	case r == nil || r.Code == "":
		return StatusUnissued
	case r.Expired(now):
		return StatusExpired
	case r.Paired:
		return StatusVerified
	default:
		return StatusIssued
	}
}

// Description is the read-only projection served to status queries.
// Code is empty when no record has been issued yet.
type Description struct {
	Code      string
	ExpiresAt time.Time
	HasQR     bool
}

// Present reports whether a code is available.
func (d Description) Present() bool {
	return d.Code != ""
}
