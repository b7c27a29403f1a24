// Package notify alerts moderators about automatically hidden messages.
package notify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"lennonwall/backend/internal/events"
	"lennonwall/backend/internal/localization"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const previewLength = 200

// Sender is the part of *tgbotapi.BotAPI the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Labels resolves translation keys; *localization.Localizer satisfies it.
type Labels interface {
	GetString(lang, key string) string
}

// TelegramNotifier posts a message to the moderator chat whenever the
// moderation policy hides a message.
type TelegramNotifier struct {
	sender Sender
	chatID int64
	labels Labels
}

func NewTelegramNotifier(sender Sender, chatID int64, labels Labels) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, chatID: chatID, labels: labels}
}

// NewBotSender authorizes against the Bot API.
func NewBotSender(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("authorize telegram bot: %w", err)
	}
	bot.Debug = false
	log.Printf("INFO: Authorized on account %s", bot.Self.UserName)
	return bot, nil
}

// Handle implements events.Sink. Only message.hidden events produce an alert.
func (n *TelegramNotifier) Handle(ctx context.Context, e events.Event) error {
	if e.Type != events.MessageHidden {
		return nil
	}

	msg := tgbotapi.NewMessage(n.chatID, n.formatHiddenAlert(e))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if _, err := n.sender.Send(msg); err != nil {
		return fmt.Errorf("send hidden alert for %s: %w", e.MessageID, err)
	}
	return nil
}

func (n *TelegramNotifier) formatHiddenAlert(e events.Event) string {
	var b strings.Builder
	b.WriteString("🚫 *Message hidden*\n")
	fmt.Fprintf(&b, "ID: %s\n", escape(e.MessageID))
	fmt.Fprintf(&b, "Reports: %d", e.ReportCount)
	if e.Reason != "" {
		fmt.Fprintf(&b, " (last: %s)", escape(n.labels.GetString(localization.DefaultLanguage, e.Reason.LabelKey())))
	}
	b.WriteString("\n\n")
	b.WriteString(escape(preview(e.Message.Content)))
	return b.String()
}

func preview(content string) string {
	if utf8.RuneCountInString(content) <= previewLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:previewLength]) + "…"
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}
