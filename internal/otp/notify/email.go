package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"time"

	"github.com/knadh/smtppool"
)

type EmailConfig struct {
	Host          string        `koanf:"host"`
	Port          int           `koanf:"port"`
	AuthProtocol  string        `koanf:"auth_protocol"` // login, cram, plain or none
	Username      string        `koanf:"username"`
	Password      string        `koanf:"password"`
	FromEmail     string        `koanf:"from_email"`
	MaxConns      int           `koanf:"max_conns"`
	Timeout       time.Duration `koanf:"timeout"`
	TLSType       string        `koanf:"tls_type"` // STARTTLS, TLS or none
	TLSSkipVerify bool          `koanf:"tls_skip_verify"`
}

type mailer interface {
	Send(e smtppool.Email) error
	Close()
}

// Email sends codes as plain text mail through a pooled SMTP connection.
type Email struct {
	from string
	pool mailer
	tpl  *Templates
}

func NewEmail(cfg EmailConfig, tpl *Templates) (*Email, error) {
	if cfg.FromEmail == "" {
		cfg.FromEmail = "otp@localhost"
	}
	if cfg.MaxConns < 1 {
		cfg.MaxConns = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	var auth smtp.Auth
	switch cfg.AuthProtocol {
	case "login":
		auth = &smtppool.LoginAuth{Username: cfg.Username, Password: cfg.Password}
	case "cram":
		auth = smtp.CRAMMD5Auth(cfg.Username, cfg.Password)
	case "plain":
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	case "", "none":
	default:
		return nil, fmt.Errorf("notify: unknown SMTP auth type %q", cfg.AuthProtocol)
	}

	opt := smtppool.Opt{
		Host:            cfg.Host,
		Port:            cfg.Port,
		MaxConns:        cfg.MaxConns,
		IdleTimeout:     10 * time.Second,
		PoolWaitTimeout: cfg.Timeout,
		Auth:            auth,
	}

	switch cfg.TLSType {
	case "", "none":
	case "STARTTLS", "TLS":
		opt.TLSConfig = &tls.Config{ServerName: cfg.Host}
		if cfg.TLSSkipVerify {
			opt.TLSConfig.InsecureSkipVerify = true // #nosec G402 -- opt-in for dev relays
		}
		opt.SSL = cfg.TLSType == "TLS"
	default:
		return nil, fmt.Errorf("notify: unknown SMTP TLS type %q", cfg.TLSType)
	}

	pool, err := smtppool.New(opt)
	if err != nil {
		return nil, err
	}
	return newEmail(cfg.FromEmail, pool, tpl), nil
}

func newEmail(from string, pool mailer, tpl *Templates) *Email {
	if tpl == nil {
		tpl = MustDefaultTemplates()
	}
	return &Email{from: from, pool: pool, tpl: tpl}
}

func (e *Email) Deliver(_ context.Context, to, code string) error {
	msg, err := e.tpl.Render(TemplateData{Code: code, Recipient: to, Channel: "EMAIL"})
	if err != nil {
		return err
	}
	return e.pool.Send(smtppool.Email{
		From:    e.from,
		To:      []string{to},
		Subject: msg.Subject,
		Text:    []byte(msg.Body),
	})
}

func (e *Email) Close() { e.pool.Close() }
