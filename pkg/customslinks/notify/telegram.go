package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultAPIBase = "https://api.telegram.org"

// Telegram sends operational notifications to a Telegram chat.
// All sends are best effort: failures are logged and never
// propagated to the caller.
type Telegram struct {
	apiBase    string
	botToken   string
	chatID     string
	httpClient *http.Client
	logger     *zap.Logger
}

// TelegramOption configures a Telegram notifier
type TelegramOption func(*Telegram)

// WithAPIBase overrides the Telegram API base URL
func WithAPIBase(base string) TelegramOption {
	return func(t *Telegram) {
		t.apiBase = base
	}
}

// NewTelegram creates a Telegram notifier. An empty bot token
// disables sending entirely.
func NewTelegram(botToken, chatID string, logger *zap.Logger, opts ...TelegramOption) *Telegram {
	t := &Telegram{
		apiBase:  defaultAPIBase,
		botToken: botToken,
		chatID:   chatID,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Enabled reports whether the notifier has credentials to send
func (t *Telegram) Enabled() bool {
	return t.botToken != "" && t.chatID != ""
}

// Send delivers a plain text message to the configured chat
func (t *Telegram) Send(text string) {
	if !t.Enabled() {
		return
	}

	payload, err := json.Marshal(map[string]string{
		"chat_id": t.chatID,
		"text":    text,
	})
	if err != nil {
		t.logger.Warn("telegram: failed to encode message", zap.Error(err))
		return
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.botToken)
	resp, err := t.httpClient.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.logger.Warn("telegram: send failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.logger.Warn("telegram: unexpected status", zap.Int("status", resp.StatusCode))
	}
}

// PaymentConfirmed announces a confirmed payment and the link it
// activated
func (t *Telegram) PaymentConfirmed(reference, shortURL string, amount float64, currency string) {
	t.Send(fmt.Sprintf("✅ Payment confirmed\nReference: %s\nAmount: %.2f %s\nLink: %s", reference, amount, currency, shortURL))
}

// DomainAdded announces a new custom domain
func (t *Telegram) DomainAdded(domain string) {
	t.Send(fmt.Sprintf("🌐 Custom domain added: %s", domain))
}
