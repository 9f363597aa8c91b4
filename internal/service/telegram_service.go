package service

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notifier tells administrators about new pending requests.
type Notifier interface {
	NotifyAdmin(ctx context.Context, message string) error
}

type nopNotifier struct{}

func (nopNotifier) NotifyAdmin(context.Context, string) error { return nil }

// NopNotifier is used when no Telegram bot is configured.
func NopNotifier() Notifier { return nopNotifier{} }

// telegramSender is the part of *tgbotapi.BotAPI the notifier needs.
type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type telegramNotifier struct {
	bot    telegramSender
	chatID int64
	logger *zap.Logger
}

func NewTelegramNotifier(botToken string, chatID int64, logger *zap.Logger) (Notifier, error) {
	if chatID == 0 {
		return nil, errors.New("invalid chat ID")
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, errors.New("failed to initialize Telegram bot: " + err.Error())
	}
	return newTelegramNotifier(bot, chatID, logger), nil
}

func newTelegramNotifier(bot telegramSender, chatID int64, logger *zap.Logger) *telegramNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &telegramNotifier{bot: bot, chatID: chatID, logger: logger}
}

func (n *telegramNotifier) NotifyAdmin(ctx context.Context, message string) error {
	if message == "" {
		return errors.New("message cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, message)
	if _, err := n.bot.Send(msg); err != nil {
		return errors.New("failed to send Telegram message: " + err.Error())
	}

	n.logger.Debug("admin notified", zap.Int64("chat_id", n.chatID))
	return nil
}
