package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// DefaultConsoleSender is used for lines without a "sender:" prefix.
const DefaultConsoleSender = "console"

// Console reads "sender: text" lines from an io.Reader and writes replies to an io.Writer.
// Media payloads are saved under outboxDir.
type Console struct {
	in        chan Inbound
	done      chan struct{}
	closeOnce sync.Once
	outboxDir string

	mu  sync.Mutex
	out io.Writer

	nowF func() time.Time
}

// NewConsole starts reading r in the background until EOF or Close.
func NewConsole(r io.Reader, w io.Writer, outboxDir string) *Console {
	c := &Console{
		in:        make(chan Inbound),
		done:      make(chan struct{}),
		out:       w,
		outboxDir: outboxDir,
		nowF:      func() time.Time { return time.Now().UTC() },
	}
	go c.readLoop(r)
	return c
}

func (c *Console) readLoop(r io.Reader) {
	defer close(c.in)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		msg, ok := c.parseLine(sc.Text())
		if !ok {
			continue
		}
		select {
		case c.in <- msg:
		case <-c.done:
			return
		}
	}
}

// parseLine splits "sender: text". Lines starting with "." are commands from DefaultConsoleSender.
func (c *Console) parseLine(line string) (Inbound, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Inbound{}, false
	}
	sender, text := DefaultConsoleSender, line
	if !strings.HasPrefix(line, ".") {
		if i := strings.Index(line, ":"); i > 0 {
			sender = strings.TrimSpace(line[:i])
			text = strings.TrimSpace(line[i+1:])
		}
	}
	if text == "" {
		return Inbound{}, false
	}
	return Inbound{ID: uuid.NewString(), Sender: sender, Text: text, ReceivedAt: c.nowF()}, true
}

// Receive returns the next parsed line.
func (c *Console) Receive(ctx context.Context) (Inbound, error) {
	select {
	case <-ctx.Done():
		return Inbound{}, ctx.Err()
	case msg, ok := <-c.in:
		if !ok {
			return Inbound{}, ErrClosed
		}
		return msg, nil
	}
}

// Send prints text replies and saves media to the outbox.
func (c *Console) Send(_ context.Context, out Outbound) error {
	line := out.Text
	if out.Media != nil {
		ref, err := c.saveMedia(out.Media)
		if err != nil {
			return err
		}
		line = fmt.Sprintf("<%s %s>", out.Media.Kind, ref)
		if out.Media.Caption != "" {
			line += " " + out.Media.Caption
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.out, "[%s] %s\n", out.To, line)
	return err
}

func (c *Console) saveMedia(m *Media) (string, error) {
	if len(m.Data) == 0 {
		return m.URL, nil
	}
	if err := os.MkdirAll(c.outboxDir, 0o755); err != nil {
		return "", fmt.Errorf("transport: create outbox: %w", err)
	}
	name := uuid.NewString() + mimetype.Detect(m.Data).Extension()
	path := filepath.Join(c.outboxDir, name)
	if err := os.WriteFile(path, m.Data, 0o644); err != nil {
		return "", fmt.Errorf("transport: write media: %w", err)
	}
	return path, nil
}

// Close stops the reader. Safe to call more than once.
func (c *Console) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}
