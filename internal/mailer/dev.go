package mailer

import (
	"github.com/sventena/guestlist/pkg/logger"
)

// DevMailer logs notifications instead of sending them.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendRSVPNotification(hostEmail, eventTitle, guestName, rsvpStatus, menuChoice string) error {
	logger.Info("[DEV MAIL] RSVP notification",
		"to", hostEmail,
		"event", eventTitle,
		"guest", guestName,
		"rsvp_status", rsvpStatus,
		"menu_choice", menuChoice,
	)
	return nil
}
