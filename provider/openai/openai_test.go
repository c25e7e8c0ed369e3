package openai_provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clipexplain/clipexplain/models"
)

func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("missing bearer token, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, content)
	}))
}

func TestGenerateKeywords(t *testing.T) {
	reply := `{"primary_keywords":["inception","nolan"],"secondary_keywords":["dreams"],"search_queries":["inception ending explained"],"context":"film analysis"}`
	srv := completionServer(t, reply)
	defer srv.Close()

	c := NewClient("key", srv.URL, "test-model", 0.3, 500, time.Second)
	ks, err := c.GenerateKeywords(context.Background(), "conversation", "content")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !ks.LLM {
		t.Fatal("result must be marked llm-derived")
	}
	if len(ks.Primary) != 2 || ks.Primary[0] != "inception" {
		t.Fatalf("unexpected primary keywords %v", ks.Primary)
	}
}

func TestGenerateKeywordsStripsCodeFences(t *testing.T) {
	reply := "```json\n{\"primary_keywords\":[\"dune\"],\"search_queries\":[\"dune review\"]}\n```"
	srv := completionServer(t, reply)
	defer srv.Close()

	c := NewClient("key", srv.URL, "test-model", 0.3, 500, time.Second)
	ks, err := c.GenerateKeywords(context.Background(), "x", "y")
	if err != nil {
		t.Fatalf("fenced JSON should parse: %v", err)
	}
	if len(ks.Primary) != 1 || ks.Primary[0] != "dune" {
		t.Fatalf("unexpected keywords %v", ks.Primary)
	}
}

func TestGenerateKeywordsMalformed(t *testing.T) {
	srv := completionServer(t, "I could not produce keywords, sorry.")
	defer srv.Close()

	c := NewClient("key", srv.URL, "test-model", 0.3, 500, time.Second)
	_, err := c.GenerateKeywords(context.Background(), "x", "y")
	if !errors.Is(err, models.ErrMalformedLLMResponse) {
		t.Fatalf("non-JSON reply must be a malformed-response error, got %v", err)
	}
}

func TestGenerateKeywordsEmptyPrimary(t *testing.T) {
	srv := completionServer(t, `{"primary_keywords":[]}`)
	defer srv.Close()

	c := NewClient("key", srv.URL, "test-model", 0.3, 500, time.Second)
	_, err := c.GenerateKeywords(context.Background(), "x", "y")
	if !errors.Is(err, models.ErrMalformedLLMResponse) {
		t.Fatalf("empty primary list must be a malformed-response error, got %v", err)
	}
}

func TestGenerateKeywordsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient("key", srv.URL, "test-model", 0.3, 500, time.Second)
	_, err := c.GenerateKeywords(context.Background(), "x", "y")
	if err == nil {
		t.Fatal("expected an error for a 503 response")
	}
	if errors.Is(err, models.ErrMalformedLLMResponse) {
		t.Fatalf("transport failures must not masquerade as malformed output: %v", err)
	}
}
