package bot

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"jagx-bot/internal/policy/engine"
	"jagx-bot/internal/transport"
)

// AdminActions performs group administration. Implementations are responsible for any real membership
// change; the dispatcher only checks the Authorizer before calling them.
type AdminActions interface {
	Kick(ctx context.Context, actor, target string) (string, error)
	Promote(ctx context.Context, actor, target string) (string, error)
	Demote(ctx context.Context, actor, target string) (string, error)
	Broadcast(ctx context.Context, actor, text string) (string, error)
}

// DemoAdmin acknowledges admin commands without changing any group membership.
// It performs no permission check of its own; do not use it where members can be harmed.
type DemoAdmin struct{}

func (DemoAdmin) Kick(context.Context, string, string) (string, error) {
	return "Kick (demo): User removed.", nil
}

func (DemoAdmin) Promote(context.Context, string, string) (string, error) {
	return "Promote (demo): User promoted.", nil
}

func (DemoAdmin) Demote(context.Context, string, string) (string, error) {
	return "Demote (demo): User demoted.", nil
}

func (DemoAdmin) Broadcast(_ context.Context, _ string, text string) (string, error) {
	return "[Broadcast]: " + text, nil
}

type allowAll struct{}

func (allowAll) Authorize(context.Context, engine.AdminRequest) (bool, error) { return true, nil }

// DeniedText is sent when the authorizer rejects an admin command.
const DeniedText = "⛔ You are not allowed to use this command."

func (d *Dispatcher) admin(command string) Handler {
	return func(ctx context.Context, msg transport.Inbound, args string) ([]transport.Outbound, error) {
		req := engine.AdminRequest{Sender: msg.Sender, Command: command, Target: args}
		allowed, err := d.deps.Authorizer.Authorize(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("authorize %s: %w", command, err)
		}
		if !allowed {
			d.log.Info("bot: admin command denied", zap.String("sender", msg.Sender), zap.String("command", command))
			return reply(msg, DeniedText)
		}
		var text string
		switch command {
		case "kick":
			text, err = d.deps.Admin.Kick(ctx, msg.Sender, args)
		case "promote":
			text, err = d.deps.Admin.Promote(ctx, msg.Sender, args)
		case "demote":
			text, err = d.deps.Admin.Demote(ctx, msg.Sender, args)
		case "broadcast":
			text, err = d.deps.Admin.Broadcast(ctx, msg.Sender, args)
		default:
			return nil, fmt.Errorf("unknown admin command %q", command)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", command, err)
		}
		return reply(msg, text)
	}
}
