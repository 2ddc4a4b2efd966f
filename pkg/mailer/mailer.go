package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/noah-isme/datamatch-api/pkg/config"
)

const (
	otpSubject     = "Your OTP Code"
	senderName     = "University Data System"
	defaultPort    = 587
	defaultTimeout = 10 * time.Second
)

// SMTPMailer delivers one-time codes over SMTP with PLAIN auth and STARTTLS when offered.
type SMTPMailer struct {
	host     string
	port     int
	user     string
	password string
	from     string
	timeout  time.Duration
	ttl      time.Duration
	send     func(ctx context.Context, msg *mail.Msg) error
}

// NewSMTPMailer builds a mailer from config. From falls back to the SMTP user.
func NewSMTPMailer(cfg config.SMTPConfig, ttl time.Duration) *SMTPMailer {
	m := &SMTPMailer{
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.User,
		password: cfg.Password,
		from:     cfg.From,
		timeout:  cfg.Timeout,
		ttl:      ttl,
	}
	if m.from == "" {
		m.from = cfg.User
	}
	if m.port <= 0 {
		m.port = defaultPort
	}
	if m.timeout <= 0 {
		m.timeout = defaultTimeout
	}
	m.send = m.dialAndSend
	return m
}

// SendOTP emails the code to the recipient. It gives up when ctx is done or the timeout passes.
func (m *SMTPMailer) SendOTP(ctx context.Context, email, code string) error {
	msg, err := m.otpMessage(email, code)
	if err != nil {
		return fmt.Errorf("build otp email: %w", err)
	}
	if err := m.send(ctx, msg); err != nil {
		return fmt.Errorf("send otp email: %w", err)
	}
	return nil
}

func (m *SMTPMailer) otpMessage(to, code string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(senderName, m.from); err != nil {
		return nil, err
	}
	if err := msg.To(to); err != nil {
		return nil, err
	}
	msg.Subject(otpSubject)
	msg.SetBodyString(mail.TypeTextPlain,
		fmt.Sprintf("Your OTP for login/registration is: %s. It expires in %d minutes.", code, int(m.ttl.Minutes())))
	return msg, nil
}

func (m *SMTPMailer) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
		mail.WithPort(m.port),
		mail.WithTimeout(m.timeout),
	}
	if m.user != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.user),
			mail.WithPassword(m.password),
		)
	}
	client, err := mail.NewClient(m.host, opts...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	// ctx bounds the whole exchange, including the server greeting
	done := make(chan error, 1)
	go func() { done <- client.DialAndSendWithContext(ctx, msg) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogMailer writes codes to the log instead of sending them. Used when SMTP is not configured.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer constructs a LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// SendOTP logs the code.
func (m *LogMailer) SendOTP(_ context.Context, email, code string) error {
	m.logger.Info("smtp disabled, one-time code not emailed", zap.String("email", email), zap.String("code", code))
	return nil
}
