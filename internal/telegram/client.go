// Package telegram posts desk reports to a Telegram chat.
//
// This package handles:
//   - Sending text reports (HTML formatted)
//   - Sending the activity board image with a caption
//   - Critical alerts when the daemon cannot build a report
//
// A nil *Client is valid and turns every call into a logged no-op, so
// callers never have to check whether Telegram is configured.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"
)

const defaultBaseURL = "https://api.telegram.org"

// Captions longer than this are rejected by the Bot API.
const maxCaption = 1024

// Client represents a Telegram bot client.
//
// Fields:
//   - BotToken: Telegram bot API token
//   - ChatID: Target chat ID for reports
//   - DebugMode: If true, skip actual API calls
type Client struct {
	BotToken  string
	ChatID    string
	DebugMode bool

	baseURL string
	http    *http.Client
}

// Message represents a Telegram text message for sending.
type Message struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
}

// apiResponse is the envelope of every Bot API reply.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// NewClient creates a Telegram client.
//
// Returns nil, with a warning, when the token or chat ID is missing.
func NewClient(botToken, chatID string, debugMode bool) *Client {
	if botToken == "" || chatID == "" {
		log.Println("⚠️  TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID not set. Telegram reports disabled.")
		return nil
	}

	log.Println("✓ Telegram configured successfully")
	if debugMode {
		log.Println("🐛 DEBUG MODE ENABLED - API calls will be simulated")
	}

	return &Client{
		BotToken:  botToken,
		ChatID:    chatID,
		DebugMode: debugMode,
		baseURL:   defaultBaseURL,
		http:      newHTTPClient(60 * time.Second),
	}
}

// newHTTPClient returns a client with a small keep-alive pool; the daemon
// talks to one host only.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// WithBaseURL points the client at another Bot API server.
func (c *Client) WithBaseURL(u string) *Client {
	if c != nil {
		c.baseURL = u
	}
	return c
}

func (c *Client) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.BotToken, method)
}

// post sends a prepared body and decodes the API envelope.
func (c *Client) post(ctx context.Context, method, contentType string, body io.Reader) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(method), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result apiResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response (HTTP %d): %w", resp.StatusCode, err)
	}
	if !result.OK {
		return nil, fmt.Errorf("Telegram API error: %s", result.Description)
	}
	return result.Result, nil
}

// messageID extracts message_id from a sendMessage/sendPhoto result.
func messageID(result json.RawMessage) string {
	var m struct {
		MessageID int `json:"message_id"`
	}
	if err := json.Unmarshal(result, &m); err != nil || m.MessageID == 0 {
		return ""
	}
	return strconv.Itoa(m.MessageID)
}

// SendMessage sends an HTML formatted text message.
//
// Returns:
//   - string: Telegram message ID ("" when skipped)
//   - error: Send error
func (c *Client) SendMessage(ctx context.Context, text string) (string, error) {
	if c == nil {
		log.Println("   ⚠️  Telegram not configured, skipping message send")
		return "", nil
	}
	if c.DebugMode {
		log.Printf("   🐛 [debug] sendMessage: %d chars", len(text))
		return "", nil
	}

	payload, err := json.Marshal(Message{
		ChatID:                c.ChatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	result, err := c.post(ctx, "sendMessage", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	return messageID(result), nil
}

// SendPhoto uploads a PNG with a caption (trimmed to the API limit).
//
// Returns:
//   - string: Telegram message ID ("" when skipped)
//   - error: Upload error
func (c *Client) SendPhoto(ctx context.Context, png []byte, filename, caption string) (string, error) {
	if c == nil {
		log.Println("   ⚠️  Telegram not configured, skipping photo upload")
		return "", nil
	}
	if c.DebugMode {
		log.Printf("   🐛 [debug] sendPhoto: %s (%d bytes)", filename, len(png))
		return "", nil
	}

	if r := []rune(caption); len(r) > maxCaption {
		caption = string(r[:maxCaption-1]) + "…"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("chat_id", c.ChatID); err != nil {
		return "", err
	}
	if caption != "" {
		if err := mw.WriteField("caption", caption); err != nil {
			return "", err
		}
	}
	part, err := mw.CreateFormFile("photo", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(png); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	result, err := c.post(ctx, "sendPhoto", mw.FormDataContentType(), &body)
	if err != nil {
		return "", err
	}
	return messageID(result), nil
}

// SendCriticalAlert sends an urgent alert when a report cannot be built.
//
// Parameters:
//   - errorType: Type of error (e.g., "Store Failure")
//   - errorMsg: Detailed error message
//   - retryCount: Number of consecutive failures so far
func (c *Client) SendCriticalAlert(ctx context.Context, errorType, errorMsg string, retryCount int) error {
	if c == nil {
		log.Println("   ⚠️  Telegram not configured, skipping critical alert")
		return nil
	}

	log.Println("   🚨 Sending critical alert to Telegram...")

	message := fmt.Sprintf(
		"🚨 <b>CRITICAL ALERT - SERVICE DESK</b>\n\n"+
			"<b>Error Type:</b> %s\n"+
			"<b>Error Message:</b> %s\n"+
			"<b>Failures in a row:</b> %d\n"+
			"<b>Timestamp:</b> %s",
		errorType,
		errorMsg,
		retryCount,
		time.Now().Format("2006-01-02 15:04:05"),
	)

	if _, err := c.SendMessage(ctx, message); err != nil {
		return fmt.Errorf("failed to send Telegram alert: %w", err)
	}

	log.Println("   ✓ Critical alert successfully sent to Telegram")
	return nil
}
