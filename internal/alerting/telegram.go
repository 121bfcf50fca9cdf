package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// TelegramMessenger posts alert texts through the Telegram Bot API. The
// recipient contact handle is the chat id.
type TelegramMessenger struct {
	botToken string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramMessenger constructs a Telegram messenger.
func NewTelegramMessenger(botToken, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramMessenger {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramMessenger{
		botToken: botToken,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "telegram_messenger").Logger(),
	}
}

// SendMessage calls the sendMessage API once. No retry on failure.
func (m *TelegramMessenger) SendMessage(ctx context.Context, recipient, text string) error {
	payload := map[string]string{
		"chat_id": recipient,
		"text":    text,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", m.baseURL, m.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram unexpected status: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram returned ok=false")
		}
	}

	m.logger.Debug().Str("recipient", MaskRecipient(recipient)).Msg("telegram message delivered")
	return nil
}

var _ Messenger = (*TelegramMessenger)(nil)
