package sendgrid

import (
	"context"
	"fmt"
	"html"

	"github.com/labstack/gommon/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer delivers note contents through the transactional-email provider.
// A failed delivery is surfaced immediately; there are no retries.
type Mailer struct {
	client    *sendgrid.Client
	fromEmail string
}

func NewMailer(apiKey, fromEmail string) *Mailer {
	return &Mailer{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
	}
}

// SendNote emails the note's title and content to the recipient.
// Non-2xx provider responses count as delivery failures.
func (m *Mailer) SendNote(ctx context.Context, toEmail, noteTitle, noteContent string) error {
	from := mail.NewEmail("Notepad App", m.fromEmail)
	to := mail.NewEmail("", toEmail)
	subject := "Your Note: " + noteTitle
	content := mail.NewContent("text/html", buildEmailBody(noteTitle, noteContent))

	message := mail.NewV3MailInit(from, subject, to, content)

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Errorf("mail provider rejected message, status %d: %s", resp.StatusCode, resp.Body)
		return fmt.Errorf("failed to send email, status code: %d", resp.StatusCode)
	}

	log.Infof("email sent to %s, status %d", toEmail, resp.StatusCode)
	return nil
}

func buildEmailBody(noteTitle, noteContent string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Your Note</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .note-title { color: #007bff; font-size: 24px; font-weight: bold; margin-bottom: 15px; }
    .note-content { font-size: 16px; white-space: pre-wrap; }
    .footer { text-align: center; margin-top: 20px; color: #6c757d; font-size: 14px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="note-title">%s</div>
    <div class="note-content">%s</div>
    <div class="footer"><p>This email was sent from your Notepad Application.</p></div>
  </div>
</body>
</html>`, html.EscapeString(noteTitle), html.EscapeString(noteContent))
}
