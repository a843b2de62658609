package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// ResendNotifier sends the report through the Resend API.
type ResendNotifier struct {
	log    *slog.Logger
	client *resend.Client
}

func NewResendNotifier(log *slog.Logger, apiKey string) *ResendNotifier {
	return &ResendNotifier{log: log, client: resend.NewClient(apiKey)}
}

func (n *ResendNotifier) Send(ctx context.Context, msg Message) error {
	const opn = "notify.Resend.Send"

	if len(msg.To) == 0 {
		return fmt.Errorf("%s: %w", opn, ErrNoRecipients)
	}

	params := &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}

	sent, err := n.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("%s: failed to send mail to %v: %w", opn, msg.To, err)
	}

	n.log.InfoContext(ctx, "Email sent", "op", opn, "message_id", sent.Id, "to", msg.To, "subject", msg.Subject)

	return nil
}
