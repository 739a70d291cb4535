package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dkorovin/lunchbot-system/internal/view"
)

func TestAnswerCallback_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/bottest-token/answerCallbackQuery" {
			t.Fatalf("path = %s", r.URL.Path)
		}

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if payload["callback_query_id"] != "cb1" {
			t.Fatalf("callback_query_id = %v", payload["callback_query_id"])
		}
		if payload["show_alert"] != true {
			t.Fatalf("show_alert = %v, want true", payload["show_alert"])
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "test-token")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := client.AnswerCallback(ctx, "cb1", "готово", true); err != nil {
		t.Fatalf("AnswerCallback error: %v", err)
	}
}

func TestEditMessageText_Keyboard(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottest-token/editMessageText" {
			t.Fatalf("path = %s", r.URL.Path)
		}

		var payload struct {
			ChatID      int64 `json:"chat_id"`
			MessageID   int64 `json:"message_id"`
			ReplyMarkup *struct {
				InlineKeyboard [][]struct {
					Text         string `json:"text"`
					CallbackData string `json:"callback_data"`
				} `json:"inline_keyboard"`
			} `json:"reply_markup"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if payload.ChatID != 10 || payload.MessageID != 20 {
			t.Fatalf("chat/message = %d/%d", payload.ChatID, payload.MessageID)
		}
		if payload.ReplyMarkup == nil || len(payload.ReplyMarkup.InlineKeyboard) != 1 {
			t.Fatalf("unexpected markup: %+v", payload.ReplyMarkup)
		}
		if payload.ReplyMarkup.InlineKeyboard[0][0].CallbackData != "order_0" {
			t.Fatalf("callback_data = %s", payload.ReplyMarkup.InlineKeyboard[0][0].CallbackData)
		}

		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "test-token")

	kb := [][]view.Button{{{Text: "✅ Заказать", CallbackData: "order_0"}}}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := client.EditMessageText(ctx, 10, 20, "меню", kb); err != nil {
		t.Fatalf("EditMessageText error: %v", err)
	}
}

func TestCall_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"description":"message is not modified"}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "test-token")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := client.SendMessage(ctx, 1, "текст", nil)
	if err == nil {
		t.Fatalf("expected error for ok=false response")
	}
}

func TestUpdate_Decode(t *testing.T) {
	raw := `{
		"update_id": 7,
		"callback_query": {
			"id": "cb9",
			"data": "inc_1",
			"from": {"id": 42},
			"message": {"message_id": 5, "chat": {"id": 42}}
		}
	}`

	var u Update
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if u.CallbackQuery == nil {
		t.Fatalf("callback_query not decoded")
	}
	if u.CallbackQuery.Data != "inc_1" || u.CallbackQuery.From.ID != 42 {
		t.Fatalf("unexpected callback: %+v", u.CallbackQuery)
	}
	if u.CallbackQuery.Message == nil || u.CallbackQuery.Message.MessageID != 5 {
		t.Fatalf("unexpected message: %+v", u.CallbackQuery.Message)
	}
}
