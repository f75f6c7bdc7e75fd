package domain

import "time"

// Actions recorded in the pairing audit log.
const (
	ActionPairIssue  = "issue_pair"
	ActionPairVerify = "verify_pair"
)

// AuditLog is one pairing audit entry. CodeStatus is the pairing status observed when the action ran.
type AuditLog struct {
	ID         string
	Action     string
	CodeStatus string
	Phone      string
	IP         string
	Metadata   string
	CreatedAt  time.Time
}
