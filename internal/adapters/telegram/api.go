// internal/adapters/telegram/api.go
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"property_bot/internal/adapters/observability"
)

const (
	DefaultBaseURL = "https://api.telegram.org"
	service        = "telegram"
	maxSendRetries = 2
)

// Chat actions shown while a reply is being prepared.
const (
	ActionTyping      = "typing"
	ActionUploadPhoto = "upload_photo"
)

/********** wire types (subset of the Bot API) **********/

type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data"`
}

type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after,omitempty"`
	} `json:"parameters,omitempty"`
}

// APIError is a response with ok=false.
type APIError struct {
	Method      string
	Code        int
	Description string
	RetryAfter  time.Duration
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("telegram %s failed (%d)", e.Method, e.Code)
	}
	return fmt.Sprintf("telegram %s failed (%d): %s", e.Method, e.Code, e.Description)
}

/********** client **********/

type ClientOptions struct {
	Token       string
	BaseURL     string
	PollTimeout time.Duration
	RPS         int
	HTTPClient  *http.Client
}

// Client talks to the Bot API over plain HTTPS.
type Client struct {
	hc          *http.Client
	base        string
	token       string
	pollTimeout time.Duration
	rl          *rate.Limiter
}

func NewClient(opts ClientOptions) (*Client, error) {
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, errors.New("telegram token is required")
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 30 * time.Second
	}
	if opts.RPS <= 0 {
		opts.RPS = 25
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.PollTimeout + 15*time.Second}
	}
	return &Client{
		hc:          hc,
		base:        base,
		token:       token,
		pollTimeout: opts.PollTimeout,
		rl:          rate.NewLimiter(rate.Limit(opts.RPS), opts.RPS),
	}, nil
}

// GetUpdates long-polls for updates with update_id >= offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	q := url.Values{}
	q.Set("timeout", strconv.Itoa(int(c.pollTimeout/time.Second)))
	q.Set("allowed_updates", `["message","callback_query"]`)
	if offset > 0 {
		q.Set("offset", strconv.FormatInt(offset, 10))
	}
	var out []Update
	if err := c.do(ctx, "getUpdates", http.MethodGet, "?"+q.Encode(), nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

type sendMessageRequest struct {
	ChatID      int64                 `json:"chat_id"`
	Text        string                `json:"text"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, kb *InlineKeyboardMarkup) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text, ReplyMarkup: kb})
	if err != nil {
		return err
	}
	return c.send(ctx, "sendMessage", body, "application/json")
}

// SendPhoto uploads a PNG as multipart/form-data.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, png []byte, caption string) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("chat_id", strconv.FormatInt(chatID, 10))
	if caption != "" {
		_ = mw.WriteField("caption", caption)
	}
	fw, err := mw.CreateFormFile("photo", "chart.png")
	if err != nil {
		return err
	}
	if _, err := fw.Write(png); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	return c.send(ctx, "sendPhoto", buf.Bytes(), mw.FormDataContentType())
}

func (c *Client) SendChatAction(ctx context.Context, chatID int64, action string) error {
	body, _ := json.Marshal(map[string]any{"chat_id": chatID, "action": action})
	return c.send(ctx, "sendChatAction", body, "application/json")
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, id string) error {
	body, _ := json.Marshal(map[string]any{"callback_query_id": id})
	return c.send(ctx, "answerCallbackQuery", body, "application/json")
}

// send is rate limited and honors retry_after on flood-control errors.
func (c *Client) send(ctx context.Context, method string, body []byte, contentType string) error {
	for attempt := 0; ; attempt++ {
		if err := c.rl.Wait(ctx); err != nil {
			return err
		}
		err := c.do(ctx, method, http.MethodPost, "", body, contentType, nil)
		var ae *APIError
		if !errors.As(err, &ae) || ae.RetryAfter <= 0 || attempt >= maxSendRetries {
			return err
		}
		t := time.NewTimer(ae.RetryAfter)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (c *Client) do(ctx context.Context, method, httpMethod, query string, body []byte, contentType string, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, httpMethod, c.base+"/bot"+c.token+"/"+method+query, rd)
	if err != nil {
		return c.redact(fmt.Errorf("telegram %s: %w", method, err))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal(service, method, 0, time.Since(start))
		return c.redact(fmt.Errorf("telegram %s: %w", method, err))
	}
	defer resp.Body.Close()
	observability.ObserveExternal(service, method, resp.StatusCode, time.Since(start))

	var env apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(&env); err != nil {
		return fmt.Errorf("telegram %s: http %d: decode: %w", method, resp.StatusCode, err)
	}
	if !env.OK {
		ae := &APIError{Method: method, Code: env.ErrorCode, Description: strings.TrimSpace(env.Description)}
		if ae.Code == 0 {
			ae.Code = resp.StatusCode
		}
		if env.Parameters != nil && env.Parameters.RetryAfter > 0 {
			ae.RetryAfter = time.Duration(env.Parameters.RetryAfter) * time.Second
		}
		return ae
	}
	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("telegram %s: decode result: %w", method, err)
		}
	}
	return nil
}

// redact keeps the bot token out of logged transport errors.
func (c *Client) redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = strings.ReplaceAll(ue.URL, c.token, "<token>")
	}
	msg := err.Error()
	if strings.Contains(msg, c.token) {
		return errors.New(strings.ReplaceAll(msg, c.token, "<token>"))
	}
	return err
}
