package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func TestSendDeliversMessage(t *testing.T) {
	var got struct {
		ChatID string `json:"chat_id"`
		Text   string `json:"text"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tg := NewTelegram("TOKEN", "12345", zap.NewNop(), WithAPIBase(server.URL))
	tg.Send("hello")

	if got.ChatID != "12345" {
		t.Errorf("expected chat_id 12345, got %q", got.ChatID)
	}
	if got.Text != "hello" {
		t.Errorf("expected text hello, got %q", got.Text)
	}
}

func TestSendDisabledWithoutToken(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	tg := NewTelegram("", "12345", zap.NewNop(), WithAPIBase(server.URL))
	if tg.Enabled() {
		t.Error("expected notifier to be disabled without a token")
	}
	tg.Send("hello")

	if atomic.LoadInt32(&calls) != 0 {
		t.Error("expected no HTTP calls when disabled")
	}
}

func TestSendSurvivesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	tg := NewTelegram("TOKEN", "12345", zap.NewNop(), WithAPIBase(server.URL))
	tg.Send("hello") // must not panic or return an error
}

func TestPaymentConfirmedMessage(t *testing.T) {
	var text string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		text = body["text"]
	}))
	defer server.Close()

	tg := NewTelegram("TOKEN", "12345", zap.NewNop(), WithAPIBase(server.URL))
	tg.PaymentConfirmed("ref-1", "customslinks.com/abc123", 9.99, "USDT")

	for _, want := range []string{"ref-1", "customslinks.com/abc123", "9.99 USDT"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected message to contain %q, got %q", want, text)
		}
	}
}
