package quiz

import (
	"context"
	"sync"
	"time"

	"jagx-bot/internal/quiz/domain"
)

// Tracker holds at most one outstanding challenge per sender.
type Tracker interface {
	// Set stores q as sender's challenge, replacing any unanswered one. Returns the stored challenge.
	Set(ctx context.Context, sender string, q domain.Question) domain.Challenge
	// Take removes and returns sender's challenge. Returns ok false if none is outstanding.
	Take(ctx context.Context, sender string) (domain.Challenge, bool)
}

// MemoryTracker is an in-memory Tracker.
type MemoryTracker struct {
	mu   sync.Mutex
	m    map[string]domain.Challenge
	nowF func() time.Time
}

// NewMemoryTracker returns an empty tracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{
		m:    make(map[string]domain.Challenge),
		nowF: func() time.Time { return time.Now().UTC() },
	}
}

// Set stores q for sender.
func (t *MemoryTracker) Set(_ context.Context, sender string, q domain.Question) domain.Challenge {
	c := domain.Challenge{Sender: sender, Question: q, AskedAt: t.nowF()}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m[sender] = c
	return c
}

// Take consumes sender's challenge.
func (t *MemoryTracker) Take(_ context.Context, sender string) (domain.Challenge, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.m[sender]
	if ok {
		delete(t.m, sender)
	}
	return c, ok
}

// Pending returns the number of unanswered challenges.
func (t *MemoryTracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.m)
}
