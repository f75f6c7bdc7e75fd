package bot

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jagx-bot/internal/transport"
)

// MessageDispatcher turns one inbound message into replies. *Dispatcher implements it.
type MessageDispatcher interface {
	Dispatch(ctx context.Context, msg transport.Inbound) []transport.Outbound
}

// Session pumps messages from a transport into the dispatcher. Messages from one sender are handled
// one at a time in arrival order; different senders are handled concurrently.
type Session struct {
	transport  transport.Transport
	dispatcher MessageDispatcher
	log        *zap.Logger

	mu    sync.Mutex
	lanes map[string]*lane
	group errgroup.Group
}

type lane struct {
	queue []transport.Inbound
}

// NewSession binds a dispatcher to a transport.
func NewSession(t transport.Transport, d MessageDispatcher, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{transport: t, dispatcher: d, log: log, lanes: make(map[string]*lane)}
}

// Run receives until the transport closes or ctx is done, then waits for queued messages to finish.
// Returns nil on a clean close or cancellation and the receive error otherwise.
func (s *Session) Run(ctx context.Context) error {
	var runErr error
	for {
		msg, err := s.transport.Receive(ctx)
		if err != nil {
			if !errors.Is(err, transport.ErrClosed) && ctx.Err() == nil {
				runErr = err
			}
			break
		}
		s.enqueue(ctx, msg)
	}
	_ = s.group.Wait()
	return runErr
}

func (s *Session) enqueue(ctx context.Context, msg transport.Inbound) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.lanes[msg.Sender]; ok {
		l.queue = append(l.queue, msg)
		return
	}
	s.lanes[msg.Sender] = &lane{queue: []transport.Inbound{msg}}
	sender := msg.Sender
	s.group.Go(func() error {
		s.drain(ctx, sender)
		return nil
	})
}

// drain handles sender's queue until it is empty, then retires the lane.
func (s *Session) drain(ctx context.Context, sender string) {
	for {
		s.mu.Lock()
		l := s.lanes[sender]
		if len(l.queue) == 0 {
			delete(s.lanes, sender)
			s.mu.Unlock()
			return
		}
		msg := l.queue[0]
		l.queue = l.queue[1:]
		s.mu.Unlock()

		s.handle(ctx, msg)
	}
}

func (s *Session) handle(ctx context.Context, msg transport.Inbound) {
	for _, out := range s.dispatcher.Dispatch(ctx, msg) {
		if err := s.transport.Send(ctx, out); err != nil {
			s.log.Warn("bot: send reply failed", zap.String("sender", msg.Sender), zap.Error(err))
		}
	}
}
