package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/harikv/moviegate/internal/bot"
	"github.com/harikv/moviegate/internal/http/response"
)

// WebhookHandler feeds Telegram webhook updates into the bot.
type WebhookHandler struct {
	bot *bot.Bot
}

func NewWebhookHandler(b *bot.Bot) *WebhookHandler {
	return &WebhookHandler{bot: b}
}

func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		response.BadRequest(w, "Invalid update payload")
		return
	}

	// Telegram expects a fast 200; the update is processed out of
	// band with its own timeout.
	go h.bot.HandleUpdate(context.Background(), update)

	response.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
