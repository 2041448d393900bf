package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/mailersend/mailersend-go"
)

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) SendRSVPNotification(hostEmail, eventTitle, guestName, rsvpStatus, menuChoice string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := fmt.Sprintf("New RSVP for %s", eventTitle)

	answer := "will attend"
	if rsvpStatus == "no" {
		answer = "will not attend"
	}

	menuLine := ""
	if menuChoice != "" {
		menuLine = fmt.Sprintf("<p>Menu choice: <strong>%s</strong></p>", menuChoice)
	}

	html := fmt.Sprintf(`
		<h2>New RSVP</h2>
		<p><strong>%s</strong> %s your event <strong>%s</strong>.</p>
		%s
	`, guestName, answer, eventTitle, menuLine)

	text := fmt.Sprintf("%s %s your event %s.", guestName, answer, eventTitle)
	if menuChoice != "" {
		text += fmt.Sprintf(" Menu choice: %s.", menuChoice)
	}

	return m.sendEmail(hostEmail, subject, text, html)
}

func (m *MailerSendClient) sendEmail(toEmail, subject, text, html string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Email: toEmail}})
	msg.SetSubject(subject)
	msg.SetText(text)
	msg.SetHTML(html)

	_, err := m.client.Email.Send(ctx, msg)
	return err
}
