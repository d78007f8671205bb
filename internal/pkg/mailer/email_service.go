package mailer

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendSubmissionReceipt(toEmail, reportId string, submittedAt time.Time) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
	}
}

// SendSubmissionReceipt mails the medic a confirmation after a report
// is submitted. Failures are logged and swallowed by the caller; the
// receipt is best effort and never blocks submission.
func (s *emailService) SendSubmissionReceipt(toEmail, reportId string, submittedAt time.Time) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Patient Report Submitted")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Report Submitted</h2>
			<p>Your patient report form has been submitted and locked.</p>
			<p><strong>Report ID:</strong> %s</p>
			<p><strong>Submitted at:</strong> %s</p>
			<p>If this wasn't you, contact your supervisor immediately.</p>
		</div>
	`, reportId, submittedAt.Format(time.RFC1123))

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send receipt to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Submission receipt sent to %s\n", toEmail)
	return nil
}
