package mailer

// Service delivers host-facing notification email.
type Service interface {
	SendRSVPNotification(hostEmail, eventTitle, guestName, rsvpStatus, menuChoice string) error
}
