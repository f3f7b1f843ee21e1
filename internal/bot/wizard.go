package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/harikv/moviegate/internal/domain"
	"github.com/harikv/moviegate/pkg/events"
	"github.com/harikv/moviegate/pkg/logger"
)

func (b *Bot) startWizard(ctx context.Context, chatID, userID int64) {
	session := &domain.UploadSession{
		AdminID: userID,
		Step:    domain.StepTitle,
	}
	if err := b.sessions.Put(ctx, session); err != nil {
		logger.ErrorContext(ctx, "wizard start failed", "error", err)
		b.sendText(chatID, "❌ Could not start upload, try again later")
		return
	}
	b.sendText(chatID,
		"🎬 *Movie Upload Wizard*\n\n📝 *Step 1/8:* Send movie title\n\nExample: `Pushpa 2`\n\n💡 /cancel to stop")
}

func (b *Bot) cancelWizard(ctx context.Context, chatID, userID int64) {
	session, err := b.sessions.Get(ctx, userID)
	if err != nil {
		logger.ErrorContext(ctx, "wizard cancel lookup failed", "error", err)
		return
	}
	if session == nil {
		b.sendText(chatID, "No active upload")
		return
	}
	if err := b.sessions.Delete(ctx, userID); err != nil {
		logger.ErrorContext(ctx, "wizard cancel failed", "error", err)
		return
	}
	b.sendText(chatID, "❌ Upload cancelled")
}

func (b *Bot) handleWizardStep(ctx context.Context, msg *tgbotapi.Message, session *domain.UploadSession) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch session.Step {
	case domain.StepTitle:
		if text == "" {
			b.sendText(chatID, "❌ Please send a title as text:")
			return
		}
		session.Draft.Title = text
		session.Step = domain.StepYear
		b.saveAndPrompt(ctx, chatID, session, "📅 *Step 2/8:* Year\n\nExample: `2024`")

	case domain.StepYear:
		year, err := strconv.Atoi(text)
		if err != nil || year < 1900 || year > 2030 {
			b.sendText(chatID, "❌ Invalid year. Try again:")
			return
		}
		session.Draft.Year = year
		session.Step = domain.StepGenres
		b.saveAndPrompt(ctx, chatID, session, "🎭 *Step 3/8:* Genres (comma-separated)\n\nExample: `Action, Drama`")

	case domain.StepGenres:
		var genres []string
		for _, g := range strings.Split(text, ",") {
			if g = strings.TrimSpace(g); g != "" {
				genres = append(genres, g)
			}
		}
		if len(genres) == 0 {
			b.sendText(chatID, "❌ Please send at least one genre:")
			return
		}
		session.Draft.Genres = genres
		session.Step = domain.StepQuality
		b.saveAndPrompt(ctx, chatID, session, "📺 *Step 4/8:* Quality\n\nExample: `1080p`")

	case domain.StepQuality:
		if text == "" {
			b.sendText(chatID, "❌ Please send the quality as text:")
			return
		}
		session.Draft.Quality = text
		session.Step = domain.StepWatchLink
		b.saveAndPrompt(ctx, chatID, session, "🎬 *Step 5/8:* Streaming link\n\nExample: `https://stream.example/v/xyz`")

	case domain.StepWatchLink:
		if !strings.HasPrefix(text, "http") {
			b.sendText(chatID, "❌ Invalid URL. Try again:")
			return
		}
		session.Draft.WatchLink = text
		session.Step = domain.StepDownloadLink
		b.saveAndPrompt(ctx, chatID, session, "⬇️ *Step 6/8:* Download link\n\nExample: `https://files.example/file/abc`")

	case domain.StepDownloadLink:
		if !strings.HasPrefix(text, "http") {
			b.sendText(chatID, "❌ Invalid URL. Try again:")
			return
		}
		session.Draft.DownloadLink = text
		session.Step = domain.StepPoster
		b.saveAndPrompt(ctx, chatID, session, "🖼️ *Step 7/8:* Send poster image")

	case domain.StepPoster:
		if len(msg.Photo) == 0 {
			b.sendText(chatID, "❌ Please send an image")
			return
		}
		// Largest size is last in the Telegram photo array.
		session.Draft.PosterRef = msg.Photo[len(msg.Photo)-1].FileID
		session.Step = domain.StepDescription
		b.saveAndPrompt(ctx, chatID, session, "📝 *Step 8/8:* Description (2-3 lines)")

	case domain.StepDescription:
		if text == "" {
			b.sendText(chatID, "❌ Please send a description as text:")
			return
		}
		session.Draft.Description = text
		b.finishWizard(ctx, chatID, session)

	default:
		logger.WarnContext(ctx, "unknown wizard step, cancelling", "step", session.Step)
		_ = b.sessions.Delete(ctx, session.AdminID)
		b.sendText(chatID, "❌ Upload state was corrupted, start again with /addmovie")
	}
}

func (b *Bot) saveAndPrompt(ctx context.Context, chatID int64, session *domain.UploadSession, prompt string) {
	if err := b.sessions.Put(ctx, session); err != nil {
		logger.ErrorContext(ctx, "wizard save failed", "step", session.Step, "error", err)
		b.sendText(chatID, "❌ Could not save progress, try again")
		return
	}
	b.sendText(chatID, prompt)
}

func (b *Bot) finishWizard(ctx context.Context, chatID int64, session *domain.UploadSession) {
	movie := session.Draft
	movie.AddedBy = session.AdminID
	movie.CreatedAt = time.Now().UTC()

	id, err := b.movies.Insert(ctx, &movie)
	if err != nil {
		logger.ErrorContext(ctx, "movie insert failed", "title", movie.Title, "error", err)
		b.sendText(chatID, "❌ Failed to save movie. Send the description again or /cancel")
		return
	}

	if err := b.sessions.Delete(ctx, session.AdminID); err != nil {
		logger.WarnContext(ctx, "wizard cleanup failed", "error", err)
	}

	_ = b.bus.Publish(ctx, events.MovieAdded, events.MovieAddedEvent{
		MovieID: id.Hex(),
		Title:   movie.Title,
		Year:    movie.Year,
		AddedBy: session.AdminID,
		AddedAt: movie.CreatedAt,
	})

	caption := fmt.Sprintf(
		"✅ *Movie Added!*\n\n🎬 *%s* (%d)\n🎭 %s\n📺 %s\n\n📝 %s\n\n🆔 ID: `%s`\n✨ Movie is live!",
		movie.Title, movie.Year, strings.Join(movie.Genres, ", "), movie.Quality, movie.Description, id.Hex(),
	)

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(movie.PosterRef))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(photo); err != nil {
		b.sendText(chatID, caption)
	}

	logger.InfoContext(ctx, "movie added via wizard", "movie_id", id.Hex(), "title", movie.Title)
}
