// Package transport is the boundary between the command engine and the chat network.
package transport

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by Receive once the transport has no more messages.
var ErrClosed = errors.New("transport closed")

// MediaKind tells the transport how to present a media reply.
type MediaKind string

const (
	MediaImage   MediaKind = "image"
	MediaSticker MediaKind = "sticker"
)

// Inbound is one text message received from a sender.
type Inbound struct {
	ID         string
	Sender     string
	Text       string
	ReceivedAt time.Time
}

// Media is an image or sticker attachment. Exactly one of Data or URL is set.
type Media struct {
	Kind    MediaKind
	Data    []byte
	URL     string
	Caption string
}

// Outbound is one reply. Media is nil for plain text.
type Outbound struct {
	To    string
	Text  string
	Media *Media
}

// Text builds a plain-text reply.
func Text(to, text string) Outbound {
	return Outbound{To: to, Text: text}
}

// Transport delivers inbound messages and sends replies.
type Transport interface {
	// Receive blocks for the next message. Returns ErrClosed when the stream ends.
	Receive(ctx context.Context) (Inbound, error)
	Send(ctx context.Context, out Outbound) error
	Close() error
}
