package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JuanKhanjar/inbox/retry"
	"github.com/JuanKhanjar/inbox/store"
)

// SMTPConfig holds SMTP delivery settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is the envelope sender for notification mail.
	From string
	// To lists the operator addresses that receive notifications.
	To []string
}

// SMTPNotifier delivers notification email over SMTP with bounded
// exponential backoff on transient failures.
type SMTPNotifier struct {
	cfg    SMTPConfig
	addr   string
	auth   smtp.Auth
	retry  retry.Config
	logger *slog.Logger
	nowFn  func() time.Time
}

var _ Notifier = (*SMTPNotifier)(nil)

// SMTPOption configures an SMTPNotifier.
type SMTPOption func(*SMTPNotifier)

// WithRetry overrides the retry policy.
func WithRetry(cfg retry.Config) SMTPOption {
	return func(n *SMTPNotifier) {
		n.retry = cfg
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) SMTPOption {
	return func(n *SMTPNotifier) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithClock overrides the time source used for the Date header.
func WithClock(now func() time.Time) SMTPOption {
	return func(n *SMTPNotifier) {
		if now != nil {
			n.nowFn = now
		}
	}
}

// NewSMTPNotifier validates cfg and creates the notifier.
func NewSMTPNotifier(cfg SMTPConfig, opts ...SMTPOption) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("notify: smtp host is required")
	}
	if cfg.Port <= 0 {
		cfg.Port = 25
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("notify: smtp from address is required")
	}
	if len(cfg.To) == 0 {
		return nil, fmt.Errorf("notify: at least one recipient is required")
	}

	n := &SMTPNotifier{
		cfg:    cfg,
		addr:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		retry:  retry.DefaultConfig(),
		logger: slog.Default(),
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
	if cfg.Username != "" {
		n.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Notify sends a notification email for the message, retrying transient
// SMTP failures.
func (n *SMTPNotifier) Notify(ctx context.Context, msg store.Message) error {
	payload := n.render(msg)
	err := retry.Do(ctx, n.retry, func(context.Context) error {
		return smtp.SendMail(n.addr, n.auth, n.cfg.From, n.cfg.To, payload)
	})
	if err != nil {
		return fmt.Errorf("notify: send mail: %w", err)
	}
	n.logger.Debug("notification dispatched", "message_id", msg.GetID(), "to", n.cfg.To)
	return nil
}

// render produces the RFC 5322 payload for the notification.
func (n *SMTPNotifier) render(msg store.Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(n.cfg.To, ", "))
	fmt.Fprintf(&b, "Reply-To: %s\r\n", msg.GetSenderEmail())
	fmt.Fprintf(&b, "Subject: New inquiry: %s\r\n", msg.GetSubject())
	fmt.Fprintf(&b, "Message-ID: <%s@%s>\r\n", uuid.NewString(), n.cfg.Host)
	fmt.Fprintf(&b, "Date: %s\r\n", n.nowFn().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "From: %s <%s>\r\n", msg.GetSenderName(), msg.GetSenderEmail())
	fmt.Fprintf(&b, "Sent: %s\r\n", msg.GetSentAt().Format(time.RFC1123Z))
	b.WriteString("\r\n")
	b.WriteString(msg.GetBody())
	b.WriteString("\r\n")
	return []byte(b.String())
}
