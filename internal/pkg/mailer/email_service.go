package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendFeedbackNotification(toEmail, category, message, contact string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

func NewEmailService(host string, port int, username, password, senderName string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: username,
		senderName:  senderName,
	}
}

// SendFeedbackNotification forwards a submitted feedback entry to the team
// inbox. Callers treat failures as non-fatal; the feedback is already stored.
func (s *emailService) SendFeedbackNotification(toEmail, category, message, contact string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.senderEmail, s.senderName))
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("[Cellexis Feedback] %s", category))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>New feedback received</h2>
			<p><b>Category:</b> %s</p>
			<p><b>Message:</b></p>
			<p>%s</p>
			<p><b>Contact:</b> %s</p>
		</div>
	`, category, message, contact)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send feedback notification to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Feedback notification sent to %s\n", toEmail)
	return nil
}
