// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendPaymentReceipt(toEmail string, description string, amount float64, currency string) error
	SendCancellationNotice(toEmail string, planName string, periodEnd time.Time) error
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

func (s *emailService) SendPaymentReceipt(toEmail string, description string, amount float64, currency string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Payment Received")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Thank you for your payment</h2>
			<p>%s</p>
			<h1 style="color: #4CAF50;">%.2f %s</h1>
			<p>This receipt was generated automatically. Keep it for your records.</p>
		</div>
	`, description, amount, currency)

	m.SetBody("text/html", body)
	return s.dialer.DialAndSend(m)
}

func (s *emailService) SendCancellationNotice(toEmail string, planName string, periodEnd time.Time) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Subscription Cancelled")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Your %s subscription has been cancelled</h2>
			<p>You keep full access until <strong>%s</strong>.</p>
			<p>Changed your mind? You can start a new subscription at any time.</p>
		</div>
	`, planName, periodEnd.Format("January 2, 2006"))

	m.SetBody("text/html", body)
	return s.dialer.DialAndSend(m)
}
