package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/smtp"
	"strings"
	"time"
)

// Transport delivers a composed email. Implementations must be safe for
// concurrent use.
type Transport interface {
	Send(ctx context.Context, email Email) error
}

type TransportOptions struct {
	From         string
	WebhookURL   string
	WebhookToken string
	SMTPAddr     string
	SMTPUser     string
	SMTPPassword string
}

func NewTransport(kind string, opts TransportOptions) (Transport, error) {
	switch kind {
	case "", "stub", "log":
		return logTransport{}, nil
	case "noop":
		return noopTransport{}, nil
	case "fail":
		return failTransport{}, nil
	case "webhook":
		if opts.WebhookURL == "" {
			return nil, errors.New("webhook transport requires MAIL_WEBHOOK_URL")
		}
		return webhookTransport{url: opts.WebhookURL, token: opts.WebhookToken, from: opts.From}, nil
	case "smtp":
		if opts.SMTPAddr == "" {
			return nil, errors.New("smtp transport requires SMTP_ADDR")
		}
		return smtpTransport{addr: opts.SMTPAddr, user: opts.SMTPUser, password: opts.SMTPPassword, from: opts.From}, nil
	default:
		if strings.HasPrefix(kind, "http://") || strings.HasPrefix(kind, "https://") {
			return webhookTransport{url: kind, from: opts.From}, nil
		}
		return nil, fmt.Errorf("unknown mail provider %q", kind)
	}
}

type logTransport struct{}

func (logTransport) Send(ctx context.Context, email Email) error {
	log.Printf("mail: send %s to %s: %s", email.Kind, email.To, email.Subject)
	return nil
}

type noopTransport struct{}

func (noopTransport) Send(ctx context.Context, email Email) error {
	return nil
}

type failTransport struct{}

func (failTransport) Send(ctx context.Context, email Email) error {
	return errors.New("transport failure")
}

type webhookTransport struct {
	url   string
	token string
	from  string
}

func (t webhookTransport) Send(ctx context.Context, email Email) error {
	payload := map[string]string{
		"from":    t.from,
		"to":      email.To,
		"subject": email.Subject,
		"html":    email.HTML,
		"kind":    email.Kind,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail webhook returned %d", resp.StatusCode)
	}
	return nil
}

type smtpTransport struct {
	addr     string
	user     string
	password string
	from     string
}

func (t smtpTransport) Send(ctx context.Context, email Email) error {
	var auth smtp.Auth
	if t.user != "" {
		host, _, err := net.SplitHostPort(t.addr)
		if err != nil {
			host = t.addr
		}
		auth = smtp.PlainAuth("", t.user, t.password, host)
	}
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", t.from)
	fmt.Fprintf(&msg, "To: %s\r\n", email.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", email.Subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(email.HTML)
	return smtp.SendMail(t.addr, auth, t.from, []string{email.To}, msg.Bytes())
}
