package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Buffetology/internal/model"
	"Buffetology/internal/recorder"
)

func newTestNotifier(srv *httptest.Server) *TelegramNotifier {
	n := NewTelegramNotifier("TOKEN", "42", "", zerolog.Nop())
	n.APIBase = srv.URL
	n.Client = srv.Client()
	return n
}

func TestSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := newTestNotifier(srv)
	require.NoError(t, n.Send(context.Background(), "<b>hi</b>"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "<b>hi</b>", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSend_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false,"description":"chat not found"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	err := newTestNotifier(srv).Send(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestSendWithBackoff_RecoversAfterFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := newTestNotifier(srv)
	require.NoError(t, n.sendWithBackoff(context.Background(), "x", 3, time.Millisecond))
	assert.Equal(t, int32(3), calls.Load())
}

func TestSendWithBackoff_Exhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestNotifier(srv).sendWithBackoff(context.Background(), "x", 2, time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 3 retries exhausted")
	assert.Equal(t, int32(3), calls.Load())
}

func TestSendWithRetry_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := newTestNotifier(srv).SendWithRetry(ctx, "x", 5)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEnabled(t *testing.T) {
	assert.True(t, NewTelegramNotifier("t", "c", "", zerolog.Nop()).Enabled())
	assert.False(t, NewTelegramNotifier("", "c", "", zerolog.Nop()).Enabled())
	assert.False(t, NewTelegramNotifier("t", "", "", zerolog.Nop()).Enabled())
	var n *TelegramNotifier
	assert.False(t, n.Enabled())
}

func TestPolling_DispatchesCommands(t *testing.T) {
	replies := make(chan string, 1)
	var served atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if served.CompareAndSwap(false, true) {
				assert.Equal(t, "0", r.URL.Query().Get("offset"))
				w.Write([]byte(`{"ok":true,"result":[
					{"update_id":7,"message":{"text":" /last "}},
					{"update_id":8}
				]}`))
				return
			}
			assert.Equal(t, "9", r.URL.Query().Get("offset"))
			w.Write([]byte(`{"ok":true,"result":[]}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			replies <- body["text"]
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		newTestNotifier(srv).poll(ctx, func(_ context.Context, cmd string) string {
			return "got " + cmd
		}, 0, time.Millisecond)
		close(done)
	}()

	select {
	case reply := <-replies:
		assert.Equal(t, "got /last", reply)
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
}

func TestFormatRankedReport(t *testing.T) {
	run := recorder.NewRun(model.TriggerScheduled, "yahoo")
	run.Finish([]model.AnalysisResult{
		{Ticker: "MOAT", QualityScore: 100, ValueScore: 100, GrowthScore: 100, OverallScore: 100, Recommendation: model.StrongBuy},
		{Ticker: "STDY", QualityScore: 100, ValueScore: 50, GrowthScore: 100.0 / 3, OverallScore: 65, Recommendation: model.Buy},
		{Ticker: "A&B", Recommendation: model.StrongSell},
		model.InsufficientDataResult("THIN"),
	})

	msg := FormatRankedReport(run, 3)
	assert.Contains(t, msg, "Provider: yahoo | Tickers: 4 | SCHEDULED")
	assert.Contains(t, msg, "Top 3")
	assert.Contains(t, msg, " 1. MOAT")
	assert.Contains(t, msg, "A&amp;B")
	assert.NotContains(t, msg, "THIN")
	assert.Contains(t, msg, "Strong Buy: 1")
	assert.Contains(t, msg, "insufficient data: 1")
	assert.NotContains(t, msg, "Hold:")

	// Summary lines follow label order.
	assert.Less(t, strings.Index(msg, "Strong Buy: 1"), strings.Index(msg, "Strong Sell: 1"))
}

func TestFormatRankedReport_Empty(t *testing.T) {
	run := recorder.NewRun(model.TriggerManual, "mock")
	run.Finish(nil)
	assert.Contains(t, FormatRankedReport(run, 10), "No results.")
}
