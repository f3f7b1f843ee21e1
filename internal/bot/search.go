package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/harikv/moviegate/internal/domain"
	"github.com/harikv/moviegate/pkg/logger"
)

func (b *Bot) handleSearch(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	query := strings.TrimSpace(msg.Text)
	userID := strconv.FormatInt(msg.From.ID, 10)

	decision, err := b.gate.CheckAccess(ctx, userID)
	if err != nil {
		// Deny on storage trouble; free access never leaks through
		// an outage.
		logger.ErrorContext(ctx, "access check failed", "error", err)
		b.sendText(chatID, "❌ Temporary issue, please try again later")
		return
	}
	if !decision.Allowed {
		b.sendChallenge(ctx, chatID, userID, decision)
		return
	}

	movies, err := b.movies.SearchByTitle(ctx, query, 5)
	if err != nil {
		logger.ErrorContext(ctx, "search failed", "query", query, "error", err)
		b.sendText(chatID, "❌ Temporary issue, please try again later")
		return
	}
	if len(movies) == 0 {
		b.sendText(chatID, fmt.Sprintf("😕 No results for: `%s`\n\nTry another name!", query))
		return
	}

	b.sendMovieCard(ctx, chatID, &movies[0])
}

func (b *Bot) sendChallenge(ctx context.Context, chatID int64, userID string, decision domain.Decision) {
	verifyURL, err := b.gate.Challenge(ctx, userID)
	if err != nil {
		logger.ErrorContext(ctx, "challenge issue failed", "error", err)
		b.sendText(chatID, "❌ Temporary issue, please try again later")
		return
	}

	text := fmt.Sprintf(
		"🔒 *Daily free limit reached* (%d/%d)\n\n"+
			"Complete a quick verification to unlock unlimited access for today!",
		decision.Count, decision.Limit,
	)

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("✅ Verify Now", verifyURL),
		),
	}
	if b.tutorial != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("❓ How to verify", b.tutorial),
		))
	}

	m := tgbotapi.NewMessage(chatID, text)
	m.ParseMode = tgbotapi.ModeMarkdown
	m.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(m); err != nil {
		logger.Warn("send challenge failed", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) sendMovieCard(ctx context.Context, chatID int64, movie *domain.Movie) {
	caption := fmt.Sprintf(
		"🎬 *%s* (%d)\n\n🎭 %s\n📺 %s\n\n📝 %s\n\n⬇️ Choose your option:",
		movie.Title, movie.Year, strings.Join(movie.Genres, ", "), movie.Quality, movie.Description,
	)

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🎬 Watch", movie.WatchLink),
			tgbotapi.NewInlineKeyboardButtonURL("⬇️ Download", movie.DownloadLink),
		),
	)

	if movie.PosterRef != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(movie.PosterRef))
		photo.Caption = caption
		photo.ParseMode = tgbotapi.ModeMarkdown
		photo.ReplyMarkup = markup
		if _, err := b.api.Send(photo); err == nil {
			return
		} else {
			logger.WarnContext(ctx, "poster send failed, falling back to text", "error", err)
		}
	}

	// Text card keeps the buttons even when the poster is broken.
	m := tgbotapi.NewMessage(chatID, caption)
	m.ParseMode = tgbotapi.ModeMarkdown
	m.ReplyMarkup = markup
	if _, err := b.api.Send(m); err != nil {
		logger.Warn("send movie card failed", "chat_id", chatID, "error", err)
	}
}
