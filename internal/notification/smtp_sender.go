package notification

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

var errHeaderInjection = errors.New("address contains line break")

// SMTPSender sends mail over implicit TLS (port 465)
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	resetURL string
	timeout  time.Duration
}

// NewSMTPSender creates an SMTP sender
func NewSMTPSender(host string, port int, username, password, from, resetURL string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		resetURL: resetURL,
		timeout:  15 * time.Second,
	}
}

func (s *SMTPSender) SendPasswordReset(ctx context.Context, email, token string) error {
	link, err := ResetLink(s.resetURL, token)
	if err != nil {
		return err
	}
	return s.Send(ctx, email, passwordResetSubject, passwordResetBody(link))
}

// Send delivers one HTML message
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg, err := buildMessage(s.from, to, subject, body)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{},
		Config:    &tls.Config{ServerName: s.host},
	}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(s.host, strconv.Itoa(s.port)))
	if err != nil {
		return fmt.Errorf("failed to connect to smtp server: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return fmt.Errorf("failed to start smtp session: %w", err)
	}
	defer client.Close()

	if s.username != "" {
		if err := client.Auth(smtp.PlainAuth("", s.username, s.password, s.host)); err != nil {
			return fmt.Errorf("smtp auth failed: %w", err)
		}
	}

	if err := client.Mail(s.from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}

func buildMessage(from, to, subject, body string) ([]byte, error) {
	for _, v := range []string{from, to, subject} {
		if strings.ContainsAny(v, "\r\n") {
			return nil, errHeaderInjection
		}
	}

	msg := "From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"utf-8\"\r\n" +
		"\r\n" +
		body

	return []byte(msg), nil
}
