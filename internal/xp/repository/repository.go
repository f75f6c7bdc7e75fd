// Package repository stores per-sender XP totals.
package repository

import (
	"context"
	"errors"
)

// ErrNegativeAmount is returned when an award would decrease XP.
var ErrNegativeAmount = errors.New("xp award must not be negative")

// Ledger is a per-sender, never-decreasing XP counter. Unknown senders start at 0.
type Ledger interface {
	// Add increases sender's XP by amount and returns the new total.
	Add(ctx context.Context, sender string, amount int64) (int64, error)
	// Get returns sender's XP total.
	Get(ctx context.Context, sender string) (int64, error)
}
