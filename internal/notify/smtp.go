package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"
)

// SMTPConfig holds the mail server account.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// deliverFunc hands a finished message to the mail server.
type deliverFunc func(ctx context.Context, cfg SMTPConfig, from string, to []string, msg []byte) error

// SMTPNotifier sends HTML mail with a plain-text alternative over an implicit-TLS SMTP connection.
type SMTPNotifier struct {
	log     *slog.Logger
	cfg     SMTPConfig
	deliver deliverFunc
	now     func() time.Time
}

func NewSMTPNotifier(log *slog.Logger, cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{log: log, cfg: cfg, deliver: deliverTLS, now: time.Now}
}

// Send builds a MIME message from msg and delivers it to every recipient.
func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	const opn = "notify.SMTP.Send"

	if len(msg.To) == 0 {
		return fmt.Errorf("%s: %w", opn, ErrNoRecipients)
	}

	body := buildMessage(msg, n.now())
	if err := n.deliver(ctx, n.cfg, msg.From, msg.To, body); err != nil {
		return fmt.Errorf("%s: failed to send mail to %s: %w", opn, strings.Join(msg.To, ", "), err)
	}

	n.log.InfoContext(ctx, "Email sent", "op", opn, "to", msg.To, "subject", msg.Subject)

	return nil
}

// buildMessage renders the headers and a multipart/alternative body with a
// plain-text part and the HTML part, both base64 encoded.
func buildMessage(msg Message, date time.Time) []byte {
	var parts bytes.Buffer
	mw := multipart.NewWriter(&parts)

	writePart := func(contentType, content string) {
		pw, _ := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {contentType + `; charset="utf-8"`},
			"Content-Transfer-Encoding": {"base64"},
		})
		writeBase64(pw, []byte(content))
	}
	if msg.Text != "" {
		writePart("text/plain", msg.Text)
	}
	writePart("text/html", msg.HTML)
	_ = mw.Close()

	var buf bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&buf, "%s: %s\r\n", k, v) }
	header("From", msg.From)
	header("To", strings.Join(msg.To, ", "))
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", date.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", mime.FormatMediaType("multipart/alternative", map[string]string{"boundary": mw.Boundary()}))
	buf.WriteString("\r\n")
	buf.Write(parts.Bytes())

	return buf.Bytes()
}

// writeBase64 writes data as base64 in lines of at most 76 characters.
func writeBase64(w io.Writer, data []byte) {
	const lineLen = 76

	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > lineLen {
		_, _ = io.WriteString(w, encoded[:lineLen]+"\r\n")
		encoded = encoded[lineLen:]
	}
	_, _ = io.WriteString(w, encoded+"\r\n")
}

func deliverTLS(ctx context.Context, cfg SMTPConfig, from string, to []string, msg []byte) error {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	dialer := &tls.Dialer{Config: &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to start smtp session: %w", err)
	}
	defer client.Close()

	if cfg.Username != "" {
		if err = client.Auth(smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err = client.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM rejected: %w", err)
	}
	for _, rcpt := range to {
		if err = client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO %s rejected: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA rejected: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}

	return client.Quit()
}
