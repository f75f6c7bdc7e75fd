// Package bot is the chat command engine: routing, handlers, XP accrual and per-sender sessions.
package bot

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"jagx-bot/internal/media"
	"jagx-bot/internal/pairing/client"
	"jagx-bot/internal/policy/engine"
	"jagx-bot/internal/quiz"
	"jagx-bot/internal/telemetry"
	telemetryotel "jagx-bot/internal/telemetry/otel"
	"jagx-bot/internal/transport"
	xpdomain "jagx-bot/internal/xp/domain"
	xprepo "jagx-bot/internal/xp/repository"
)

// PairingInfo reads the authority's current pairing. *client.Client implements it.
type PairingInfo interface {
	Describe(ctx context.Context) (*client.Info, error)
	QRURL(info *client.Info) string
}

// Deps wires the dispatcher's collaborators. Ledger, Tracker, Bank, Media and Pairing are required.
type Deps struct {
	Pairing    PairingInfo
	PairServer string
	Ledger     xprepo.Ledger
	Tracker    quiz.Tracker
	Bank       *quiz.Bank
	Media      media.Renderer
	// Admin defaults to DemoAdmin and Authorizer to allowing everything.
	Admin      AdminActions
	Authorizer engine.Authorizer
	Metrics    *telemetryotel.Metrics
	Emitter    telemetry.EventEmitter
	Logger     *zap.Logger
	// Choose returns an int in [0, n); defaults to math/rand/v2.IntN.
	Choose func(n int) int
}

// Handler runs one command. args is the trimmed text captured after the command word.
type Handler func(ctx context.Context, msg transport.Inbound, args string) ([]transport.Outbound, error)

// Route binds a command pattern to its handler.
type Route struct {
	Name    string
	Pattern *regexp.Regexp
	Handle  Handler
}

// Dispatcher evaluates every route against each message; all matching handlers run, in order.
type Dispatcher struct {
	deps   Deps
	routes []Route
	log    *zap.Logger
}

// NewDispatcher validates deps and builds the command table.
func NewDispatcher(deps Deps) (*Dispatcher, error) {
	switch {
	case deps.Ledger == nil:
		return nil, errors.New("bot: ledger is required")
	case deps.Tracker == nil:
		return nil, errors.New("bot: quiz tracker is required")
	case deps.Bank == nil:
		return nil, errors.New("bot: quiz bank is required")
	case deps.Media == nil:
		return nil, errors.New("bot: media renderer is required")
	case deps.Pairing == nil:
		return nil, errors.New("bot: pairing client is required")
	}
	if deps.Admin == nil {
		deps.Admin = DemoAdmin{}
	}
	if deps.Authorizer == nil {
		deps.Authorizer = allowAll{}
	}
	if deps.Choose == nil {
		deps.Choose = rand.IntN
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	d := &Dispatcher{deps: deps, log: deps.Logger}
	d.routes = d.commandTable()
	return d, nil
}

// Routes returns the command table in evaluation order.
func (d *Dispatcher) Routes() []Route {
	return append([]Route(nil), d.routes...)
}

// Dispatch awards activity XP, then runs every route whose pattern matches msg.Text.
// A failing handler yields a failure notice to the sender instead of its replies.
func (d *Dispatcher) Dispatch(ctx context.Context, msg transport.Inbound) []transport.Outbound {
	if _, err := d.award(ctx, msg.Sender, xpdomain.ActivityAward); err != nil {
		d.log.Warn("bot: activity xp not recorded", zap.String("sender", msg.Sender), zap.Error(err))
	}
	text := strings.TrimSpace(msg.Text)
	var out []transport.Outbound
	for _, r := range d.routes {
		m := r.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		var args string
		if len(m) > 1 {
			args = strings.TrimSpace(m[1])
		}
		replies, err := r.Handle(ctx, msg, args)
		d.deps.Metrics.CommandHandled(ctx, r.Name)
		d.emit(msg.Sender, r.Name, err)
		if err != nil {
			d.log.Warn("bot: command failed",
				zap.String("sender", msg.Sender), zap.String("command", r.Name), zap.Error(err))
			out = append(out, transport.Text(msg.Sender, failureText(r.Name, err)))
			continue
		}
		out = append(out, replies...)
	}
	return out
}

func (d *Dispatcher) award(ctx context.Context, sender string, amount int64) (int64, error) {
	total, err := d.deps.Ledger.Add(ctx, sender, amount)
	if err != nil {
		return 0, err
	}
	d.deps.Metrics.XPAwarded(ctx, amount)
	return total, nil
}

func (d *Dispatcher) emit(sender, command string, err error) {
	if d.deps.Emitter == nil {
		return
	}
	meta := map[string]any{"command": command, "ok": err == nil}
	telemetry.EmitAsync(d.log, d.deps.Emitter, telemetry.NewEvent("command_handled", "bot", sender, meta))
}

func failureText(command string, err error) string {
	var v *validationError
	if errors.As(err, &v) {
		return "⚠️ Usage: " + v.usage
	}
	return fmt.Sprintf("⚠️ .%s failed. Please try again later.", command)
}

func exact(words string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^\.(?:` + words + `)$`)
}

func withArgs(word string) *regexp.Regexp {
	return regexp.MustCompile(`(?is)^\.` + regexp.QuoteMeta(word) + `\s+(.+)$`)
}

func (d *Dispatcher) commandTable() []Route {
	return []Route{
		{Name: "menu", Pattern: exact("menu|help"), Handle: d.menu},
		{Name: "features", Pattern: exact("features"), Handle: d.features},
		{Name: "status", Pattern: exact("status"), Handle: d.status},
		{Name: "pairinfo", Pattern: exact("pairinfo"), Handle: d.pairInfo},
		{Name: "rps", Pattern: exact("rps"), Handle: d.rps},
		{Name: "quiz", Pattern: exact("quiz"), Handle: d.quiz},
		{Name: "answer", Pattern: withArgs("answer"), Handle: d.answer},
		{Name: "level", Pattern: exact("level"), Handle: d.level},
		{Name: "meme", Pattern: withArgs("meme"), Handle: d.meme},
		{Name: "sticker+", Pattern: withArgs("sticker+"), Handle: d.sticker},
		{Name: "aiimg", Pattern: withArgs("aiimg"), Handle: d.aiImage},
		{Name: "viewonce", Pattern: exact("viewonce"), Handle: d.viewOnce},
		{Name: "antidelete", Pattern: exact("antidelete"), Handle: d.antiDelete},
		{Name: "kick", Pattern: withArgs("kick"), Handle: d.admin("kick")},
		{Name: "promote", Pattern: withArgs("promote"), Handle: d.admin("promote")},
		{Name: "demote", Pattern: withArgs("demote"), Handle: d.admin("demote")},
		{Name: "broadcast", Pattern: withArgs("broadcast"), Handle: d.admin("broadcast")},
	}
}
