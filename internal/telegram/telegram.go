package telegram

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mariusnicorescu85/uk-property-investment/internal/models"
)

// Service posts operational notifications to a Telegram chat. With no
// credentials configured it degrades to a no-op.
type Service struct {
	logger   *logrus.Logger
	client   *http.Client
	botToken string
	chatID   string
	apiBase  string
}

func NewService(botToken, chatID string, logger *logrus.Logger) *Service {
	return &Service{
		logger:   logger,
		botToken: botToken,
		chatID:   chatID,
		apiBase:  "https://api.telegram.org",
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled reports whether both credentials are configured.
func (s *Service) Enabled() bool {
	return s.botToken != "" && s.chatID != ""
}

// SendMessage sends a message to the configured Telegram chat
func (s *Service) SendMessage(message string) error {
	if s.botToken == "" {
		return errors.New("Telegram bot token is not configured")
	}

	if s.chatID == "" {
		return errors.New("Telegram chat ID is not configured")
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.botToken)
	payload := map[string]interface{}{
		"chat_id":    s.chatID,
		"text":       message,
		"parse_mode": "HTML",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %v", err)
	}

	resp, err := s.client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send message to Telegram API: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return errors.New("invalid bot token - please check your token from @BotFather")
		case http.StatusBadRequest:
			return fmt.Errorf("invalid chat ID or message format: %s", string(body))
		case http.StatusForbidden:
			return errors.New("bot was blocked by the user or chat")
		case http.StatusNotFound:
			return errors.New("bot not found - please check your token from @BotFather")
		default:
			return fmt.Errorf("Telegram API error (status %d): %s", resp.StatusCode, string(body))
		}
	}

	return nil
}

// NotifyRefreshSummary sends the outcome of a background refresh run.
func (s *Service) NotifyRefreshSummary(summary models.RefreshSummary) error {
	if !s.Enabled() {
		return nil
	}

	var b strings.Builder
	b.WriteString("<b>🏠 Postcode refresh completed</b>\n\n")
	fmt.Fprintf(&b, "✅ %d of %d postcodes refreshed\n", summary.Succeeded, summary.Requested)
	fmt.Fprintf(&b, "⏱ Took %s\n", summary.Duration.Round(time.Millisecond))

	if summary.Failed > 0 {
		fmt.Fprintf(&b, "⚠️ %d failed\n", summary.Failed)
		for i, failure := range summary.Failures {
			if i == 5 {
				fmt.Fprintf(&b, "… and %d more\n", len(summary.Failures)-i)
				break
			}
			fmt.Fprintf(&b, "• %s\n", failure)
		}
	}

	return s.SendMessage(b.String())
}
