// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/techstack/internal/config"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	p := NewOpenAIProvider(config.LLMConfig{
		Provider:    config.LLMProviderOpenAI,
		APIKey:      "sk-test",
		BaseURL:     ts.URL + "/v1/",
		Model:       "gpt-4-turbo",
		Temperature: 0.2,
		MaxTokens:   500,
		MaxRetries:  3,
		Timeout:     5 * time.Second,
	})
	p.limiter = rate.NewLimiter(rate.Inf, 1)
	p.backoff = func(int) time.Duration { return 0 }
	return p
}

func completion(content string) string {
	return fmt.Sprintf(`{"choices":[{"message":{"role":"assistant","content":%q}}]}`, content)
}

func TestOpenAICompleteSendsChatRequest(t *testing.T) {
	t.Parallel()

	type captured struct {
		path, auth string
		body       openAIRequest
	}
	got := make(chan captured, 1)

	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		var body openAIRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		got <- captured{path: r.URL.Path, auth: r.Header.Get("Authorization"), body: body}
		fmt.Fprint(w, completion(`  {"ok": true}  `))
	})

	out, err := p.Complete(context.Background(), Request{Operation: "test", System: "You classify.", Prompt: "hello"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out != `{"ok": true}` {
		t.Errorf("Complete() = %q", out)
	}

	c := <-got
	if c.path != "/v1/chat/completions" {
		t.Errorf("path = %q", c.path)
	}
	if c.auth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", c.auth)
	}
	if c.body.Model != "gpt-4-turbo" || c.body.Temperature != 0.2 || c.body.MaxTokens != 500 {
		t.Errorf("request = %+v", c.body)
	}
	if len(c.body.Messages) != 2 || c.body.Messages[0].Content != "You classify.\nRespond only in valid JSON format." || c.body.Messages[1].Content != "hello" {
		t.Errorf("messages = %+v", c.body.Messages)
	}
}

func TestOpenAIRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			http.Error(w, "slow down", http.StatusTooManyRequests)
		case 2:
			http.Error(w, "oops", http.StatusBadGateway)
		default:
			fmt.Fprint(w, completion(`{"ok":1}`))
		}
	})

	out, err := p.Complete(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out != `{"ok":1}` || calls.Load() != 3 {
		t.Errorf("out = %q after %d calls", out, calls.Load())
	}
}

func TestOpenAIGivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	_, err := p.Complete(context.Background(), Request{})
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected StatusError 503, got %v", err)
	}
	if calls.Load() != 4 {
		t.Errorf("calls = %d, want 4 (1 + 3 retries)", calls.Load())
	}
}

func TestOpenAIDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	})

	_, err := p.Complete(context.Background(), Request{})
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected StatusError 401, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestOpenAIEmptyChoices(t *testing.T) {
	t.Parallel()

	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	})
	p.maxRetries = 0

	if _, err := p.Complete(context.Background(), Request{}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestOpenAIHonoursCancellation(t *testing.T) {
	t.Parallel()

	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})
	p.backoff = func(int) time.Duration { return time.Hour }

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.Complete(ctx, Request{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("backoff ignored context cancellation")
	}
}
