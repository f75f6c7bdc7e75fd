package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jagx-bot/internal/transport"
	xpdomain "jagx-bot/internal/xp/domain"
)

const botName = "🤖 JagX 🤖"

const menuText = `
` + botName + `
Commands:
.menu / .help - Show menu
.rps - Rock Paper Scissors
.quiz - Trivia quiz
.level - Show your XP/level
.meme <top>|<bottom> - Meme generator
.sticker+ <text> - Custom sticker
.aiimg <prompt> - AI image demo
.pairinfo - Bot pairing QR/code
.features - List all features
.status - Bot status
.viewonce - See last 'view once' media
.antidelete - Recover deleted messages

Admin:
.kick <number> - Kick user (admin)
.promote <number> - Promote user (admin)
.demote <number> - Demote user (admin)
.broadcast <text> - Owner broadcast
`

const featuresText = `
Main Features:
- Single server pairing via code or QR
- Games (RPS, Quiz, XP, Level)
- Media tools (Meme, Sticker, AI image)
- Status, Anti-delete, View-once recovery
- Admin panel: kick, promote, broadcast, etc.
- Pairing info via .pairinfo
`

// Reply texts.
const (
	NoPairingText  = "No pairing code available."
	QRCaption      = "Scan this QR to pair!"
	CorrectText    = "🎉 Correct! +50 XP"
	IncorrectText  = "❌ Incorrect. Try again!"
	NoQuizText     = "No active quiz. Send .quiz first."
	AIImageCaption = "AI generated image (demo)"
	ViewOnceText   = "View once recovery: (demo) Last media recovered."
	AntiDeleteText = "Anti-delete: (demo) Last deleted message recovered."

	memeUsage = ".meme <top>|<bottom>"
)

var rpsChoices = []string{"rock", "paper", "scissors"}

func reply(msg transport.Inbound, text string) ([]transport.Outbound, error) {
	return []transport.Outbound{transport.Text(msg.Sender, text)}, nil
}

func (d *Dispatcher) menu(_ context.Context, msg transport.Inbound, _ string) ([]transport.Outbound, error) {
	return reply(msg, menuText)
}

func (d *Dispatcher) features(_ context.Context, msg transport.Inbound, _ string) ([]transport.Outbound, error) {
	return reply(msg, featuresText)
}

func (d *Dispatcher) status(_ context.Context, msg transport.Inbound, _ string) ([]transport.Outbound, error) {
	return reply(msg, fmt.Sprintf("JagX Bot is running. Pairing server: %s\nXP enabled.", d.deps.PairServer))
}

func (d *Dispatcher) pairInfo(ctx context.Context, msg transport.Inbound, _ string) ([]transport.Outbound, error) {
	info, err := d.deps.Pairing.Describe(ctx)
	if err != nil {
		return nil, fmt.Errorf("describe pairing: %w", err)
	}
	if !info.Present() {
		return reply(msg, NoPairingText)
	}
	out := []transport.Outbound{transport.Text(msg.Sender,
		fmt.Sprintf("Pairing Code: %s\nExpires: %s", info.Code, info.ExpiresAt.UTC().Format(time.RFC1123)))}
	if qrURL := d.deps.Pairing.QRURL(info); qrURL != "" {
		out = append(out, transport.Outbound{
			To:    msg.Sender,
			Media: &transport.Media{Kind: transport.MediaImage, URL: qrURL, Caption: QRCaption},
		})
	}
	return out, nil
}

func (d *Dispatcher) rps(_ context.Context, msg transport.Inbound, _ string) ([]transport.Outbound, error) {
	return reply(msg, "🤖 I choose: "+rpsChoices[d.deps.Choose(len(rpsChoices))])
}

func (d *Dispatcher) quiz(ctx context.Context, msg transport.Inbound, _ string) ([]transport.Outbound, error) {
	c := d.deps.Tracker.Set(ctx, msg.Sender, d.deps.Bank.Random())
	return reply(msg, fmt.Sprintf("Quiz: %s\nReply with .answer <your answer>", c.Question.Prompt))
}

func (d *Dispatcher) answer(ctx context.Context, msg transport.Inbound, args string) ([]transport.Outbound, error) {
	c, ok := d.deps.Tracker.Take(ctx, msg.Sender)
	if !ok {
		return reply(msg, NoQuizText)
	}
	if !c.Matches(args) {
		return reply(msg, IncorrectText)
	}
	if _, err := d.award(ctx, msg.Sender, xpdomain.QuizBonus); err != nil {
		return nil, fmt.Errorf("award quiz bonus: %w", err)
	}
	return reply(msg, CorrectText)
}

func (d *Dispatcher) level(ctx context.Context, msg transport.Inbound, _ string) ([]transport.Outbound, error) {
	xp, err := d.deps.Ledger.Get(ctx, msg.Sender)
	if err != nil {
		return nil, fmt.Errorf("read xp: %w", err)
	}
	p := xpdomain.ProgressOf(xp)
	return reply(msg, fmt.Sprintf("XP: %d\nLevel: %d", p.XP, p.Level))
}

// parseMeme splits "top|bottom"; text after a second "|" is ignored.
func parseMeme(args string) (top, bottom string, err error) {
	parts := strings.Split(args, "|")
	if len(parts) < 2 {
		return "", "", usageError(memeUsage)
	}
	top, bottom = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if top == "" && bottom == "" {
		return "", "", usageError(memeUsage)
	}
	return top, bottom, nil
}

func (d *Dispatcher) meme(ctx context.Context, msg transport.Inbound, args string) ([]transport.Outbound, error) {
	top, bottom, err := parseMeme(args)
	if err != nil {
		return nil, err
	}
	img, err := d.deps.Media.Meme(ctx, top, bottom)
	if err != nil {
		return nil, fmt.Errorf("render meme: %w", err)
	}
	return []transport.Outbound{{
		To:    msg.Sender,
		Media: &transport.Media{Kind: transport.MediaImage, Data: img, Caption: top + "\n" + bottom},
	}}, nil
}

func (d *Dispatcher) sticker(ctx context.Context, msg transport.Inbound, args string) ([]transport.Outbound, error) {
	img, err := d.deps.Media.Sticker(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("render sticker: %w", err)
	}
	return []transport.Outbound{{
		To:    msg.Sender,
		Media: &transport.Media{Kind: transport.MediaSticker, Data: img},
	}}, nil
}

func (d *Dispatcher) aiImage(ctx context.Context, msg transport.Inbound, args string) ([]transport.Outbound, error) {
	img, err := d.deps.Media.AIImage(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("load ai placeholder: %w", err)
	}
	return []transport.Outbound{{
		To:    msg.Sender,
		Media: &transport.Media{Kind: transport.MediaImage, Data: img, Caption: AIImageCaption},
	}}, nil
}

func (d *Dispatcher) viewOnce(_ context.Context, msg transport.Inbound, _ string) ([]transport.Outbound, error) {
	return reply(msg, ViewOnceText)
}

func (d *Dispatcher) antiDelete(_ context.Context, msg transport.Inbound, _ string) ([]transport.Outbound, error) {
	return reply(msg, AntiDeleteText)
}
