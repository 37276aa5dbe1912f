// Package alert posts operational alerts to a Telegram chat so whoever is
// on call hears about invariant violations and resets without watching logs.
package alert

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier sends alert messages through a Telegram bot. A nil Notifier is
// valid and silently does nothing, so wiring stays unconditional.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// New authorizes the bot and targets the given ops chat.
func New(token string, chatID int64) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize alert bot: %w", err)
	}
	log.Printf("Alert bot authorized on account %s", bot.Self.UserName)
	return &Notifier{bot: bot, chatID: chatID}, nil
}

// Alert formats and sends one message. Failures are logged, never returned;
// alerting is best effort.
func (n *Notifier) Alert(format string, args ...any) {
	if n == nil {
		return
	}
	msg := tgbotapi.NewMessage(n.chatID, fmt.Sprintf(format, args...))
	if _, err := n.bot.Send(msg); err != nil {
		log.Printf("ERROR: failed to send ops alert: %v", err)
	}
}
