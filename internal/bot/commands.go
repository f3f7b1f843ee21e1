package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/harikv/moviegate/pkg/logger"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		b.cmdStart(chatID, userID)
	case "test":
		b.cmdTest(ctx, chatID, userID)
	case "ping":
		b.sendText(chatID, "🏓 Pong! Bot is running!")
	case "info":
		b.cmdInfo(chatID)
	case "addmovie":
		if b.isAdmin(userID) {
			b.startWizard(ctx, chatID, userID)
		}
	case "cancel":
		if b.isAdmin(userID) {
			b.cancelWizard(ctx, chatID, userID)
		}
	case "listmovies":
		if b.isAdmin(userID) {
			b.cmdListMovies(ctx, chatID)
		}
	}
}

func (b *Bot) cmdStart(chatID, userID int64) {
	var text string
	if b.isAdmin(userID) {
		text = "🎬 *Movie Bot - Admin Panel*\n\n" +
			"✅ Bot online\n" +
			"✅ Database connected\n\n" +
			"*Admin Commands:*\n" +
			"/addmovie - Add new movie\n" +
			"/listmovies - View all movies\n" +
			"/cancel - Cancel upload\n" +
			"/test - Test bot\n" +
			"/ping - Check status\n" +
			"/info - Bot info"
	} else {
		text = "🎬 *Movie Bot*\n\n✅ Bot is online!\n\nType movie name to search..."
	}
	b.sendText(chatID, text)
}

func (b *Bot) cmdTest(ctx context.Context, chatID, userID int64) {
	total, err := b.movies.Count(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "movie count failed", "error", err)
		b.sendText(chatID, "❌ Database unreachable, try again later")
		return
	}
	b.sendText(chatID, fmt.Sprintf(
		"✅ *Test Results*\n\n🤖 Bot: Online\n💾 Database: Connected\n🎬 Movies: %d\n👤 Your ID: `%d`",
		total, userID,
	))
}

func (b *Bot) cmdInfo(chatID int64) {
	b.sendText(chatID,
		"ℹ️ *Bot Information*\n\n🔧 Backend: Go\n📡 Mode: Webhook\n💾 Database: MongoDB")
}

func (b *Bot) cmdListMovies(ctx context.Context, chatID int64) {
	movies, err := b.movies.Latest(ctx, 20)
	if err != nil {
		logger.ErrorContext(ctx, "list movies failed", "error", err)
		b.sendText(chatID, "❌ Database unreachable, try again later")
		return
	}
	if len(movies) == 0 {
		b.sendText(chatID, "📭 No movies yet!\n\nUse /addmovie to add first movie")
		return
	}

	var sb strings.Builder
	sb.WriteString("🎬 *Recent Movies*\n\n")
	for i, movie := range movies {
		fmt.Fprintf(&sb, "%d. *%s* (%d) - %s\n", i+1, movie.Title, movie.Year, movie.Quality)
	}
	fmt.Fprintf(&sb, "\n📊 Total: %d", len(movies))
	b.sendText(chatID, sb.String())
}
