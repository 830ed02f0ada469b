package notify

import (
	"context"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/teplocom/support-triage/internal/config"
)

// TelegramNotifier pushes operator alerts to a Telegram chat. Without a
// configured bot it logs alerts instead of dropping them.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

// NewTelegramNotifier connects to the bot API. Connection problems disable
// the channel with a warning rather than failing startup; alerts are an
// observability channel, not a precondition for serving requests.
func NewTelegramNotifier(cfg config.TelegramConfig, logger *zap.Logger) *TelegramNotifier {
	n := &TelegramNotifier{chatID: cfg.ChatID, logger: logger}
	if !cfg.Enabled() {
		logger.Warn("telegram not configured; operator alerts disabled")
		return n
	}

	client := &http.Client{Timeout: cfg.Timeout()}
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, tgbotapi.APIEndpoint, client)
	if err != nil {
		logger.Warn("telegram bot unreachable; operator alerts disabled", zap.Error(err))
		return n
	}
	n.bot = bot
	logger.Info("telegram alerts enabled")
	return n
}

// Push sends one alert message.
func (n *TelegramNotifier) Push(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n.bot == nil {
		n.logger.Info("alert suppressed (telegram disabled)", zap.String("text", text))
		return nil
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.bot.Send(msg); err != nil {
		return err
	}
	return nil
}
