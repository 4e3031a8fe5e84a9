package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lp-funding-alert/internal/config"

	"go.uber.org/zap"
)

const (
	sendTimeout  = 10 * time.Second
	pollHeadroom = 5 * time.Second
)

type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`
	Chat      *Chat  `json:"chat"`
	From      *User  `json:"from"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type Telegram struct {
	token       string
	chatID      string
	baseURL     string
	pollTimeout time.Duration
	client      *http.Client
	pollClient  *http.Client
	log         *zap.Logger
}

func NewTelegram(cfg config.TelegramConfig, log *zap.Logger) *Telegram {
	return newTelegram(cfg, log, cfg.BaseURL, nil)
}

func newTelegram(cfg config.TelegramConfig, log *zap.Logger, baseURL string, client *http.Client) *Telegram {
	if client == nil {
		client = &http.Client{Timeout: sendTimeout}
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	if log == nil {
		log = zap.NewNop()
	}
	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 60 * time.Second
	}
	return &Telegram{
		token:       strings.TrimSpace(cfg.Token),
		chatID:      strings.TrimSpace(cfg.ChatID),
		baseURL:     strings.TrimRight(baseURL, "/"),
		pollTimeout: pollTimeout,
		client:      client,
		pollClient:  &http.Client{Timeout: pollTimeout + pollHeadroom, Transport: client.Transport},
		log:         log,
	}
}

// ChatID is the single authorized chat identity.
func (t *Telegram) ChatID() string {
	return t.chatID
}

// Send posts an HTML-formatted message to the configured chat.
func (t *Telegram) Send(ctx context.Context, message string) error {
	if t.token == "" || t.chatID == "" {
		return errors.New("telegram token and chat_id are required")
	}
	if strings.TrimSpace(message) == "" {
		return errors.New("telegram message is empty")
	}
	payload := map[string]string{
		"chat_id":    t.chatID,
		"text":       message,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.methodURL("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	var result apiResponse[json.RawMessage]
	return t.do(t.client, req, &result)
}

// GetUpdates long-polls for inbound messages starting at offset. The server
// holds the request open for up to the configured poll timeout.
func (t *Telegram) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	if t.token == "" {
		return nil, errors.New("telegram token is required")
	}
	query := url.Values{}
	query.Set("timeout", strconv.Itoa(int(t.pollTimeout/time.Second)))
	if offset > 0 {
		query.Set("offset", strconv.FormatInt(offset, 10))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.methodURL("getUpdates")+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var result apiResponse[[]Update]
	if err := t.do(t.pollClient, req, &result); err != nil {
		return nil, err
	}
	return result.Result, nil
}

type apiResponse[T any] struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      T      `json:"result"`
}

func (r apiResponse[T]) failure() error {
	if r.OK {
		return nil
	}
	desc := strings.TrimSpace(r.Description)
	if desc == "" {
		desc = "unknown telegram error"
	}
	return fmt.Errorf("telegram request failed: %s", desc)
}

func (t *Telegram) do(client *http.Client, req *http.Request, out interface{ failure() error }) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("telegram request failed: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("telegram response decode: %w", err)
	}
	return out.failure()
}

func (t *Telegram) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.baseURL, t.token, method)
}
