package notification

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"
)

// EmailConfig holds SMTP transport settings.
type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string

	// DialTimeout bounds the SMTP connection attempt.
	DialTimeout time.Duration
}

// EmailService sends transactional mail over SMTP.
type EmailService struct {
	config EmailConfig
}

// NewEmailService creates a new email service.
func NewEmailService(config EmailConfig) *EmailService {
	if config.DialTimeout == 0 {
		config.DialTimeout = 10 * time.Second
	}
	return &EmailService{config: config}
}

// SendVerificationEmail sends the registration verification link.
func (s *EmailService) SendVerificationEmail(to, verifyURL string) error {
	subject := "Email Verification"
	body := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
		<h2>Welcome to InstaSora!</h2>
		<p>Thank you for registering. Please verify your email address to complete your registration.</p>
		<p><a href="%s">Verify Email</a></p>
		<p>If the link above doesn't work, copy and paste it into your browser:</p>
		<p>%s</p>
		<p>If you did not create an account, please ignore this email.</p>
	</div>`, verifyURL, verifyURL)
	return s.send(to, subject, body)
}

// SendPasswordResetEmail sends the password reset link.
func (s *EmailService) SendPasswordResetEmail(to, resetURL string) error {
	subject := "Password Reset Request"
	body := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
		<h2>Password Reset Request</h2>
		<p>We received a request to reset your password. Use the link below to create a new password:</p>
		<p><a href="%s">Reset Password</a></p>
		<p>If the link above doesn't work, copy and paste it into your browser:</p>
		<p>%s</p>
		<p>This link will expire in 1 hour.</p>
		<p>If you did not request a password reset, please ignore this email.</p>
	</div>`, resetURL, resetURL)
	return s.send(to, subject, body)
}

func (s *EmailService) send(to, subject, body string) error {
	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		from, to, subject, body)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	conn, err := net.DialTimeout("tcp", addr, s.config.DialTimeout)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	// Upgrade before AUTH: PlainAuth refuses to send credentials over an
	// unencrypted connection to a non-localhost server.
	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.config.Host}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}

	if s.config.User != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
			if err := client.Auth(auth); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	if err := client.Mail(s.config.From); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
