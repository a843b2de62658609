package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf16"

	"gopkg.in/telebot.v4"
)

// telegramMessageLimit is the maximum length of one Telegram text message.
const telegramMessageLimit = 4096

// API is the part of the telebot client used for delivery.
type API interface {
	// Send delivers a message to the recipient.
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// TelegramNotifier posts the plain-text report to a list of chats.
type TelegramNotifier struct {
	log   *slog.Logger
	bot   API
	chats []int64
}

// NewTelegramNotifier creates an offline bot: no polling, no getMe round trip.
func NewTelegramNotifier(log *slog.Logger, token string, chats []int64) (*TelegramNotifier, error) {
	bot, err := telebot.NewBot(telebot.Settings{Token: token, Offline: true})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}

	return &TelegramNotifier{log: log, bot: bot, chats: chats}, nil
}

// Send posts the report to every chat. A failed chat does not stop the others.
func (n *TelegramNotifier) Send(ctx context.Context, msg Message) error {
	const opn = "notify.Telegram.Send"

	if len(n.chats) == 0 {
		return fmt.Errorf("%s: %w", opn, ErrNoRecipients)
	}

	text := msg.Text
	if msg.Subject != "" {
		text = msg.Subject + "\n\n" + text
	}
	parts := chunk(text, telegramMessageLimit)

	var errs []error
	for _, chatID := range n.chats {
		for _, part := range parts {
			if _, err := n.bot.Send(telebot.ChatID(chatID), part, telebot.NoPreview); err != nil {
				errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
				break
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}

	n.log.InfoContext(ctx, "Telegram report sent", "op", opn, "chats", len(n.chats), "parts", len(parts))

	return nil
}

// chunk splits text on line boundaries into pieces of at most limit UTF-16
// code units, the unit Telegram counts message length in. A single line
// longer than limit is cut hard between runes.
func chunk(text string, limit int) []string {
	var (
		parts []string
		cur   strings.Builder
		size  int
	)
	flush := func() {
		if cur.Len() > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
			size = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf16Len(line)
		if size+n > limit {
			flush()
		}
		if n <= limit {
			cur.WriteString(line)
			size += n
			continue
		}
		for _, r := range line {
			w := utf16.RuneLen(r)
			if size+w > limit {
				flush()
			}
			cur.WriteRune(r)
			size += w
		}
	}
	flush()

	return parts
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}

	return n
}
