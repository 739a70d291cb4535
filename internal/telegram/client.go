// Package telegram предоставляет минимальный клиент Bot API:
// ответ на нажатие кнопки, правка сообщения и отправка нового.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/dkorovin/lunchbot-system/internal/view"
)

// Update — входящее обновление от чат-платформы (вебхук).
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// CallbackQuery — нажатие встроенной кнопки с токеном действия.
type CallbackQuery struct {
	ID      string   `json:"id"`
	Data    string   `json:"data"`
	From    UserRef  `json:"from"`
	Message *Message `json:"message,omitempty"`
}

// Message — сообщение чата, достаточное для правки представления.
type Message struct {
	MessageID int64   `json:"message_id"`
	Chat      ChatRef `json:"chat"`
	Text      string  `json:"text,omitempty"`
}

// UserRef — отправитель действия.
type UserRef struct {
	ID int64 `json:"id"`
}

// ChatRef — чат, в котором живёт интерактивное сообщение.
type ChatRef struct {
	ID int64 `json:"id"`
}

// Client инкапсулирует HTTP-взаимодействие с Bot API.
// Временные сетевые сбои и ответы 5xx повторяются автоматически.
type Client struct {
	baseURL    string
	token      string
	httpClient *retryablehttp.Client
}

// NewClient создаёт клиент Bot API для указанного адреса и токена бота.
func NewClient(baseURL, token string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = nil
	rc.HTTPClient.Timeout = 5 * time.Second

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: rc,
	}
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

type inlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type replyMarkup struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

func markupFor(kb [][]view.Button) *replyMarkup {
	if len(kb) == 0 {
		return nil
	}
	m := &replyMarkup{InlineKeyboard: make([][]inlineButton, 0, len(kb))}
	for _, row := range kb {
		btns := make([]inlineButton, 0, len(row))
		for _, b := range row {
			btns = append(btns, inlineButton{Text: b.Text, CallbackData: b.CallbackData})
		}
		m.InlineKeyboard = append(m.InlineKeyboard, btns)
	}
	return m
}

func (c *Client) call(ctx context.Context, method string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var res apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}

	if !res.OK {
		return fmt.Errorf("%s failed: %s", method, res.Description)
	}

	return nil
}

// AnswerCallback подтверждает нажатие кнопки коротким уведомлением.
// При alert = true уведомление показывается модально.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	payload := struct {
		CallbackQueryID string `json:"callback_query_id"`
		Text            string `json:"text,omitempty"`
		ShowAlert       bool   `json:"show_alert,omitempty"`
	}{callbackID, text, alert}

	return c.call(ctx, "answerCallbackQuery", payload)
}

// EditMessageText правит существующее интерактивное сообщение:
// представление обновляется на месте, без накопления дублей.
func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string, kb [][]view.Button) error {
	payload := struct {
		ChatID      int64        `json:"chat_id"`
		MessageID   int64        `json:"message_id"`
		Text        string       `json:"text"`
		ReplyMarkup *replyMarkup `json:"reply_markup,omitempty"`
	}{chatID, messageID, text, markupFor(kb)}

	return c.call(ctx, "editMessageText", payload)
}

// SendMessage отправляет новое сообщение с клавиатурой.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, kb [][]view.Button) error {
	payload := struct {
		ChatID      int64        `json:"chat_id"`
		Text        string       `json:"text"`
		ReplyMarkup *replyMarkup `json:"reply_markup,omitempty"`
	}{chatID, text, markupFor(kb)}

	return c.call(ctx, "sendMessage", payload)
}
