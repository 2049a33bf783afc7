package services

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/mpavlov/studyhub-api/internal/config"
)

type EmailService struct {
	cfg config.SMTPConfig
}

func NewEmailService(cfg config.SMTPConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

func (s *EmailService) IsConfigured() bool {
	return s.cfg.Host != "" && s.cfg.Username != "" && s.cfg.Password != "" && s.cfg.From != ""
}

func (s *EmailService) Send(to, subject, body string) error {
	if !s.IsConfigured() {
		return nil
	}

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.cfg.From, to, subject, body)

	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg))
}

func (s *EmailService) SendSessionInvite(to, sessionTitle, senderName string, startTime time.Time) error {
	subject := fmt.Sprintf("You've been invited to the study session %q", sessionTitle)
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Study Session Invitation</h2>
			<p>Hi,</p>
			<p><strong>%s</strong> has invited you to the study session <strong>%s</strong>
			starting at %s.</p>
			<p>Log in to accept or decline this invitation.</p>
		</body>
		</html>
	`, senderName, sessionTitle, startTime.UTC().Format("Mon, 02 Jan 2006 15:04 MST"))

	return s.Send(to, subject, body)
}

func (s *EmailService) SendSessionReminder(to, sessionTitle, reminderText string) error {
	subject := fmt.Sprintf("Reminder: %s", sessionTitle)
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Study Session Reminder</h2>
			<p>%s</p>
		</body>
		</html>
	`, reminderText)

	return s.Send(to, subject, body)
}
