package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/jhagelund/snaplist/internal/draft"
)

// TelegramNotifier posts finished drafts to a fixed chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier validates the token against the Telegram API and
// returns a notifier bound to chatID.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	log.Info().Str("username", bot.Self.UserName).Msg("telegram notifier ready")
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

// DraftReady implements Notifier.
func (t *TelegramNotifier) DraftReady(jobID string, d *draft.ListingDraft) error {
	msg := tgbotapi.NewMessage(t.chatID, FormatDraftMessage(jobID, d))
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	log.Debug().Str("jobID", jobID).Msg("draft notification sent")
	return nil
}
