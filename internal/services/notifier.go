package services

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/example/foodexpress/internal/config"
)

// Notifier delivers account messages. Callers treat delivery as best-effort.
type Notifier interface {
	SendOTP(ctx context.Context, email, username, code string) error
	SendWelcome(ctx context.Context, email, username string) error
}

// NewNotifier returns an SMTP-backed notifier when SMTP is configured and a
// console notifier otherwise.
func NewNotifier(cfg *config.Config) Notifier {
	if cfg.SMTPEnabled() {
		return NewEmailNotifier(cfg)
	}
	log.Println("[Notifier] SMTP not configured, messages will be logged only")
	return ConsoleNotifier{}
}

// ConsoleNotifier writes messages to the process log.
type ConsoleNotifier struct{}

func (ConsoleNotifier) SendOTP(_ context.Context, email, username, code string) error {
	log.Printf("[Notifier] verification code for %s (%s): %s", email, username, code)
	return nil
}

func (ConsoleNotifier) SendWelcome(_ context.Context, email, username string) error {
	log.Printf("[Notifier] welcome message for %s (%s)", email, username)
	return nil
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier sends plain-text mail through an SMTP relay.
type EmailNotifier struct {
	addr string
	auth smtp.Auth
	from string
	otp  time.Duration
	send sendMailFunc
}

// NewEmailNotifier constructs an EmailNotifier from the SMTP settings.
func NewEmailNotifier(cfg *config.Config) *EmailNotifier {
	var auth smtp.Auth
	if cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return &EmailNotifier{
		addr: cfg.SMTPHost + ":" + strconv.Itoa(cfg.SMTPPort),
		auth: auth,
		from: cfg.SMTPFrom,
		otp:  cfg.OTPTTL,
		send: smtp.SendMail,
	}
}

func (n *EmailNotifier) SendOTP(ctx context.Context, email, username, code string) error {
	body := fmt.Sprintf("Hi %s,\n\nYour verification code is %s. It expires in %d minutes.\n\nIf you did not sign up, ignore this email.\n",
		username, code, int(n.otp.Minutes()))
	return n.deliver(ctx, email, "Your verification code", body)
}

func (n *EmailNotifier) SendWelcome(ctx context.Context, email, username string) error {
	body := fmt.Sprintf("Hi %s,\n\nYour account is verified. Hungry? Your favourite restaurants are a tap away.\n", username)
	return n.deliver(ctx, email, "Welcome aboard", body)
}

func (n *EmailNotifier) deliver(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	msg.WriteString("From: " + n.from + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))

	if err := n.send(n.addr, n.auth, n.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}
