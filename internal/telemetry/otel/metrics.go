package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the counters shared by the pairing server and the bot.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	pairVerify     metric.Int64Counter
	xpAwarded      metric.Int64Counter
	commandHandled metric.Int64Counter
}

// NewMetrics creates the counters on the given MeterProvider (global provider when nil).
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)
	pairVerify, err := meter.Int64Counter("jagx.pair.verify",
		metric.WithDescription("Pairing verification attempts by outcome"))
	if err != nil {
		return nil, err
	}
	xpAwarded, err := meter.Int64Counter("jagx.xp.awarded",
		metric.WithDescription("Experience points awarded"))
	if err != nil {
		return nil, err
	}
	commandHandled, err := meter.Int64Counter("jagx.command.handled",
		metric.WithDescription("Chat commands handled by command name"))
	if err != nil {
		return nil, err
	}
	return &Metrics{pairVerify: pairVerify, xpAwarded: xpAwarded, commandHandled: commandHandled}, nil
}

// PairVerify counts one verification attempt with the given outcome (paired, not_found, expired, mismatch, already_paired).
func (m *Metrics) PairVerify(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.pairVerify.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// XPAwarded adds amount to the XP counter.
func (m *Metrics) XPAwarded(ctx context.Context, amount int64) {
	if m == nil {
		return
	}
	m.xpAwarded.Add(ctx, amount)
}

// CommandHandled counts one handled command.
func (m *Metrics) CommandHandled(ctx context.Context, command string) {
	if m == nil {
		return
	}
	m.commandHandled.Add(ctx, 1, metric.WithAttributes(attribute.String("command", command)))
}
