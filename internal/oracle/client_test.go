package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackzampolin/juris/internal/language"
	"github.com/jackzampolin/juris/internal/types"
)

// completionServer answers every chat completion with the given contents in turn.
func completionServer(t *testing.T, status []int, contents []string, onRequest func(body map[string]any)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1)) - 1
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected authorization: %s", auth)
		}
		if onRequest != nil {
			raw, _ := io.ReadAll(r.Body)
			var body map[string]any
			json.Unmarshal(raw, &body)
			onRequest(body)
		}

		w.Header().Set("Content-Type", "application/json")
		if n < len(status) && status[n] != http.StatusOK {
			w.WriteHeader(status[n])
			json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "upstream trouble"}})
			return
		}
		content := contents[min(n, len(contents)-1)]
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 0,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		APIKey:     "test-key",
		BaseURL:    baseURL,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		Timeout:    5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestNewClient_NoKey(t *testing.T) {
	if _, err := NewClient(Config{}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestClient_ValidateLanguage(t *testing.T) {
	var model any
	server, _ := completionServer(t, nil, []string{
		"```json\n{\"is_language_match\": true, \"detected_language\": \"Dutch\", \"confidence\": 0.92, \"explanation\": \"Dutch legal text\"}\n```",
	}, func(body map[string]any) { model = body["model"] })

	c := newTestClient(t, server.URL)
	verdict, err := c.ValidateLanguage(context.Background(), language.Request{
		FileName: "a_NL.json",
		Language: types.LanguageNL,
		Samples:  []string{"De rechter oordeelt dat de vordering ontvankelijk is."},
	})
	if err != nil {
		t.Fatalf("ValidateLanguage() error = %v", err)
	}
	if !verdict.Valid || verdict.Confidence != 0.92 || verdict.DetectedLanguage != "Dutch" {
		t.Errorf("verdict = %+v", verdict)
	}
	if model != DefaultModel {
		t.Errorf("model = %v, want %s", model, DefaultModel)
	}
}

func TestClient_ValidateBatch(t *testing.T) {
	var prompt string
	server, _ := completionServer(t, nil, []string{
		`[{"fileName": "a_FR.json", "is_valid": true, "confidence": 0.9, "explanation": "French"},
		  {"fileName": "stranger.json", "is_valid": true, "confidence": 1},
		  {"fileName": "b_NL.json", "is_valid": false, "confidence": 0.7, "explanation": "English"}]`,
	}, func(body map[string]any) {
		msgs, _ := body["messages"].([]any)
		if len(msgs) == 2 {
			prompt, _ = msgs[1].(map[string]any)["content"].(string)
		}
	})

	c := newTestClient(t, server.URL)
	verdicts, err := c.ValidateBatch(context.Background(), []BatchItem{
		{FileName: "a_FR.json", Language: types.LanguageFR, Text: "Le juge"},
		{FileName: "b_NL.json", Language: types.LanguageNL, Text: "The judge"},
	})
	if err != nil {
		t.Fatalf("ValidateBatch() error = %v", err)
	}
	if len(verdicts) != 2 {
		t.Fatalf("got %d verdicts, want 2: %+v", len(verdicts), verdicts)
	}
	if !verdicts["a_FR.json"].Valid || verdicts["b_NL.json"].Valid {
		t.Errorf("verdicts = %+v", verdicts)
	}
	if !strings.Contains(prompt, "File: b_NL.json") || !strings.Contains(prompt, "Expected Language: Dutch") {
		t.Errorf("prompt does not list the batch:\n%s", prompt)
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	server, calls := completionServer(t,
		[]int{http.StatusInternalServerError, http.StatusTooManyRequests, http.StatusOK},
		[]string{"2007-06-22"}, nil)

	c := newTestClient(t, server.URL)
	got, err := c.ExtractDate(context.Background(), "Jugement/arrêt du 22 juin 2007", types.LanguageFR)
	if err != nil {
		t.Fatalf("ExtractDate() error = %v", err)
	}
	if got != "2007-06-22" {
		t.Errorf("ExtractDate() = %q", got)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	server, calls := completionServer(t, []int{http.StatusUnauthorized}, []string{"unused"}, nil)

	c := newTestClient(t, server.URL)
	_, err := c.ExtractDate(context.Background(), "du 22 juin 2007", types.LanguageFR)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestClient_MalformedBatch(t *testing.T) {
	server, _ := completionServer(t, nil, []string{"I cannot help with that."}, nil)

	c := newTestClient(t, server.URL)
	_, err := c.ValidateBatch(context.Background(), []BatchItem{{FileName: "a_FR.json", Language: types.LanguageFR, Text: "x"}})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestNewBatchItem(t *testing.T) {
	rec := types.NewRecord("a_FR.json", types.LanguageFR)
	item := NewBatchItem(rec)
	if item.Text != noTextContent {
		t.Errorf("empty record text = %q, want %q", item.Text, noTextContent)
	}

	rec.FullText = strings.Repeat("a", 400)
	rec.Summaries = []types.Summary{{Summary: "résumé", KeywordsFree: "mots"}}
	rec.FieldOfLaw = "Droit civil"
	item = NewBatchItem(rec)
	if len([]rune(item.Text)) != batchItemLength {
		t.Errorf("text length = %d, want %d", len([]rune(item.Text)), batchItemLength)
	}
	if strings.Contains(item.Text, "Droit civil") {
		t.Error("only the first three samples should be used")
	}
}

func TestClient_HonoursRetryAfter(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.Header().Set("retry-after-ms", "150")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "slow down"}})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": "NO_DATE"}, "finish_reason": "stop"}},
		})
	}))
	t.Cleanup(server.Close)

	c := newTestClient(t, server.URL)
	start := time.Now()
	if _, err := c.ExtractDate(context.Background(), "arrêt sans date", types.LanguageFR); err != nil {
		t.Fatalf("ExtractDate() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 140*time.Millisecond {
		t.Errorf("retried after %v, want the advertised 150ms", elapsed)
	}
	status := c.ThrottleStatus()
	if status.Throttled != 1 || status.Calls != 2 {
		t.Errorf("status = %+v, want 1 throttled and 2 calls", status)
	}
}
