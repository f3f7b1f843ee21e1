// Package bot drives the Telegram side: public search gated by the
// access ledger and the admin upload wizard.
package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/harikv/moviegate/internal/domain"
	"github.com/harikv/moviegate/internal/repo/mongodb"
	"github.com/harikv/moviegate/pkg/events"
	"github.com/harikv/moviegate/pkg/logger"
)

// Gate is the access ledger surface the bot needs.
type Gate interface {
	Enabled() bool
	CheckAccess(ctx context.Context, userID string) (domain.Decision, error)
	Challenge(ctx context.Context, userID string) (string, error)
}

// Sender is the slice of the Telegram client the bot actually uses.
// *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api      Sender
	movies   mongodb.MovieRepo
	sessions mongodb.SessionRepo
	gate     Gate
	bus      events.Publisher
	admins   map[int64]bool
	tutorial string
}

func New(
	api Sender,
	movies mongodb.MovieRepo,
	sessions mongodb.SessionRepo,
	gate Gate,
	bus events.Publisher,
	adminIDs []int64,
	tutorialLink string,
) *Bot {
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &Bot{
		api:      api,
		movies:   movies,
		sessions: sessions,
		gate:     gate,
		bus:      bus,
		admins:   admins,
		tutorial: tutorialLink,
	}
}

func (b *Bot) isAdmin(userID int64) bool { return b.admins[userID] }

// Run long-polls for updates. Used when no webhook URL is configured.
func (b *Bot) Run(ctx context.Context, api *tgbotapi.BotAPI) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	logger.Info("bot polling started", "username", api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes one update; shared by polling and webhook.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.Chat == nil {
		return
	}
	if !update.Message.Chat.IsPrivate() {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg := update.Message
	userID := msg.From.ID
	ctx = context.WithValue(ctx, logger.ChatIDKey, msg.Chat.ID)

	// A pending upload session takes priority over everything but
	// the cancel command.
	if b.isAdmin(userID) && !msg.IsCommand() {
		session, err := b.sessions.Get(ctx, userID)
		if err != nil {
			logger.ErrorContext(ctx, "wizard session lookup failed", "error", err)
			b.sendText(msg.Chat.ID, "❌ Something went wrong. Try /cancel and start over.")
			return
		}
		if session != nil {
			b.handleWizardStep(ctx, msg, session)
			return
		}
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if msg.Text != "" {
		b.handleSearch(ctx, msg)
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	m := tgbotapi.NewMessage(chatID, text)
	m.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(m); err != nil {
		logger.Warn("send message failed", "chat_id", chatID, "error", err)
	}
}
