package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func completionResponse(content string, in, out int) map[string]any {
	return map[string]any{
		"id":     "cmpl_1",
		"object": "chat.completion",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
		"usage": map[string]any{"prompt_tokens": in, "completion_tokens": out},
	}
}

func TestOpenAIChatPlainText(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path: %q", r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionResponse("Paris", 7, 2))
	}))
	t.Cleanup(srv.Close)

	a := NewOpenAIAdapter("test-key", srv.URL)
	resp, err := a.Chat(context.Background(), "gpt-4o-mini", &ChatRequest{Prompt: "capital of France?", Context: "be terse"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if resp.ResponseText != "Paris" {
		t.Fatalf("text: %q", resp.ResponseText)
	}
	if resp.Usage.TokensIn != 7 || resp.Usage.TokensOut != 2 {
		t.Fatalf("usage: %#v", resp.Usage)
	}
	if resp.Usage.Cost <= 0 {
		t.Fatalf("hosted cost: %v", resp.Usage.Cost)
	}

	if gotBody["model"] != "gpt-4o-mini" {
		t.Fatalf("model: %v", gotBody["model"])
	}
	msgs, _ := gotBody["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages: %#v", gotBody["messages"])
	}
	if _, ok := gotBody["response_format"]; ok {
		t.Fatal("response_format must be absent without a schema")
	}
	if _, ok := gotBody["max_tokens"]; ok {
		t.Fatal("max_tokens must be absent without brief")
	}
}

func TestOpenAIChatSchema(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionResponse(`{"answer": "B"}`, 1, 1))
	}))
	t.Cleanup(srv.Close)

	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"answer": map[string]any{"type": "string"}},
	}

	a := NewOpenAIAdapter("test-key", srv.URL)
	resp, err := a.Chat(context.Background(), "gpt-4o", &ChatRequest{Prompt: "pick", Schema: schema, Brief: true})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if resp.ResponseText != "" {
		t.Fatalf("text on schema call: %q", resp.ResponseText)
	}
	if resp.StructuredData["answer"] != "B" {
		t.Fatalf("structured: %#v", resp.StructuredData)
	}

	rf, _ := gotBody["response_format"].(map[string]any)
	if rf["type"] != "json_object" {
		t.Fatalf("response_format: %#v", gotBody["response_format"])
	}
	if gotBody["max_tokens"] != float64(briefMaxTokens) {
		t.Fatalf("max_tokens: %v", gotBody["max_tokens"])
	}

	// JSON mode has no schema channel, so the schema rides the system prompt.
	msgs, _ := gotBody["messages"].([]any)
	first, _ := msgs[0].(map[string]any)
	if first["role"] != "system" || !strings.Contains(first["content"].(string), `"answer"`) {
		t.Fatalf("system prompt: %#v", first)
	}
}

func TestOpenAIChatAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	t.Cleanup(srv.Close)

	a := NewOpenAIAdapter("bad-key", srv.URL)
	_, err := a.Chat(context.Background(), "gpt-4o-mini", &ChatRequest{Prompt: "x"})

	var ce *CallError
	if !errors.As(err, &ce) || ce.Kind != KindUnexpected {
		t.Fatalf("expected unexpected kind, got %v", err)
	}
}

func TestLMStudioChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/models") {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"phi-4","object":"model"}]}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionResponse("ok", 2, 3))
	}))
	t.Cleanup(srv.Close)

	a := NewLMStudioAdapter(srv.URL)
	if !a.Warm(context.Background(), "phi-4") {
		t.Fatal("expected warm success")
	}

	resp, err := a.Chat(context.Background(), "phi-4", &ChatRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.ResponseText != "ok" {
		t.Fatalf("text: %q", resp.ResponseText)
	}

	srv.Close()
	if a.Warm(context.Background(), "phi-4") {
		t.Fatal("expected warm failure once the server is gone")
	}
}
