package repository

import (
	"context"
	"sync"
)

// MemoryLedger keeps XP for the process lifetime.
type MemoryLedger struct {
	mu sync.Mutex
	xp map[string]int64
}

// NewMemoryLedger returns an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{xp: make(map[string]int64)}
}

// Add increases sender's XP by amount.
func (l *MemoryLedger) Add(_ context.Context, sender string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, ErrNegativeAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.xp[sender] += amount
	return l.xp[sender], nil
}

// Get returns sender's XP, 0 if never seen.
func (l *MemoryLedger) Get(_ context.Context, sender string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.xp[sender], nil
}
