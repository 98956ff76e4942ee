package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultTelegramAPI = "https://api.telegram.org/bot"

type TelegramConfig struct {
	APIURL  string        `koanf:"api_url"`
	Token   string        `koanf:"token"`
	ChatID  string        `koanf:"chat_id"` // used when the user has no chat id
	Timeout time.Duration `koanf:"timeout"`
}

// Telegram posts codes through the Bot API sendMessage method.
type Telegram struct {
	cfg    TelegramConfig
	client *http.Client
	tpl    *Templates
}

func NewTelegram(cfg TelegramConfig, tpl *Templates) (*Telegram, error) {
	if cfg.Token == "" {
		return nil, errors.New("notify: telegram token is required")
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultTelegramAPI
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if tpl == nil {
		tpl = MustDefaultTemplates()
	}

	return &Telegram{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost:   4,
				ResponseHeaderTimeout: cfg.Timeout,
			},
		},
		tpl: tpl,
	}, nil
}

func (t *Telegram) Deliver(ctx context.Context, chatID, code string) error {
	if strings.TrimSpace(chatID) == "" {
		chatID = t.cfg.ChatID
	}
	if chatID == "" {
		return errors.New("notify: no telegram chat id")
	}

	msg, err := t.tpl.Render(TemplateData{Code: code, Recipient: chatID, Channel: "TELEGRAM"})
	if err != nil {
		return err
	}

	q := url.Values{}
	q.Set("chat_id", chatID)
	q.Set("text", msg.Body)
	u := t.cfg.APIURL + t.cfg.Token + "/sendMessage?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		// The URL carries the bot token; keep it out of the error.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return fmt.Errorf("notify: telegram request: %w", uerr.Err)
		}
		return err
	}
	defer func() {
		// Drain so the connection is reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notify: telegram api returned %d", resp.StatusCode)
	}
	return nil
}
