package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestComplete(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "hello there"}},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key", "chat-model", "embed-model")
	got, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, 100, 0.5)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "hello there" {
		t.Errorf("got %q, want %q", got, "hello there")
	}
	if gotReq.Model != "chat-model" {
		t.Errorf("request model = %q", gotReq.Model)
	}
	if gotReq.MaxTokens != 100 || gotReq.Temperature != 0.5 {
		t.Errorf("request params = %d tokens, %v temp", gotReq.MaxTokens, gotReq.Temperature)
	}
}

func TestCompleteNon2xxReturnsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", "m", "e")
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, 10, 0)

	var pErr *Error
	if !errors.As(err, &pErr) {
		t.Fatalf("got %v, want *Error", err)
	}
	if pErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", pErr.StatusCode)
	}
	if pErr.Message != "rate limited" {
		t.Errorf("message = %q, want extracted API message", pErr.Message)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", "m", "e")
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, 10, 0)
	var pErr *Error
	if !errors.As(err, &pErr) {
		t.Fatalf("got %v, want *Error", err)
	}
	if pErr.StatusCode != 0 {
		t.Errorf("status = %d, want 0 for a malformed success response", pErr.StatusCode)
	}
}

func TestCompleteNetworkError(t *testing.T) {
	c := New("http://127.0.0.1:1", "", "m", "e")
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, 10, 0)
	var pErr *Error
	if !errors.As(err, &pErr) {
		t.Fatalf("got %v, want *Error", err)
	}
	if pErr.StatusCode != 0 {
		t.Errorf("status = %d, want 0 for a network error", pErr.StatusCode)
	}
}

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			data[i] = map[string]any{"embedding": []float32{float32(i), 1}}
		}
		json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
	defer srv.Close()

	c := New(srv.URL, "", "m", "embed-model")
	vecs, err := c.Embed(context.Background(), []string{"one", "two"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vecs))
	}
	if vecs[1][0] != 1 {
		t.Errorf("vectors out of input order: %v", vecs)
	}
}

func TestEmbedCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"embedding":[1,2]}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", "m", "e")
	_, err := c.Embed(context.Background(), []string{"one", "two"})
	if err == nil {
		t.Fatal("expected error for embedding count mismatch")
	}
	if !strings.Contains(err.Error(), "expected 2 embeddings") {
		t.Errorf("error = %v", err)
	}
}

func TestEmbedEmptyInput(t *testing.T) {
	c := New("http://unused", "", "m", "e")
	vecs, err := c.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if vecs != nil {
		t.Errorf("got %v, want nil for empty input", vecs)
	}
}

func TestNewTrimsBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "//") {
			t.Errorf("double slash in path %q", r.URL.Path)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "", "m", "e")
	if _, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, 10, 0); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
}

func TestErrorString(t *testing.T) {
	e := &Error{StatusCode: 500, Message: "boom"}
	if got := e.Error(); !strings.Contains(got, "500") || !strings.Contains(got, "boom") {
		t.Errorf("Error() = %q", got)
	}
	network := &Error{Message: "timeout"}
	if got := network.Error(); strings.Contains(got, "status") {
		t.Errorf("Error() = %q, want no status for network errors", got)
	}
}
