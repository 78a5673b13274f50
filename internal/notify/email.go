package notify

import (
	"context"
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

// EmailChannel sends notifications over SMTP. Notifications without a
// recipient email are skipped.
type EmailChannel struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailChannel creates an EmailChannel.
func NewEmailChannel(host string, port int, user, password, from string) (*EmailChannel, error) {
	if host == "" || user == "" || password == "" {
		return nil, fmt.Errorf("SMTP configuration missing")
	}
	return &EmailChannel{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}, nil
}

// Name identifies the channel in logs and metrics.
func (c *EmailChannel) Name() string { return "email" }

// Send delivers the notification by SMTP, giving up when ctx ends.
func (c *EmailChannel) Send(ctx context.Context, n Notification) error {
	if n.RecipientEmail == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", c.from)
	m.SetHeader("To", n.RecipientEmail)
	m.SetHeader("Subject", "DropNGo - "+n.Title)
	m.SetBody("text/html", renderEmail(n))

	// DialAndSend takes no context; stop waiting when ctx ends.
	errc := make(chan error, 1)
	go func() { errc <- c.dialer.DialAndSend(m) }()
	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("send email to %s: %w", n.RecipientEmail, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send email to %s: %w", n.RecipientEmail, ctx.Err())
	}
}

func renderEmail(n Notification) string {
	body := fmt.Sprintf(`<html><body style="font-family: Arial, sans-serif;">
<h2>%s</h2>
<p>%s</p>`, html.EscapeString(n.Title), html.EscapeString(n.Message))

	if otp := n.Data["otp"]; otp != "" {
		body += fmt.Sprintf(`<p>Your handoff code: <strong style="font-size: 28px; letter-spacing: 6px;">%s</strong></p>
<p>Share it with your porter only at pickup and delivery.</p>`, html.EscapeString(otp))
	}
	if number := n.Data["booking_number"]; number != "" {
		body += fmt.Sprintf(`<p>Booking number: %s</p>`, html.EscapeString(number))
	}
	return body + `</body></html>`
}
