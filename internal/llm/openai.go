package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIAdapter serves remote gpt-* models through the chat completions
// API.
type OpenAIAdapter struct {
	client *openai.Client
}

func NewOpenAIAdapter(apiKey, baseURL string) *OpenAIAdapter {
	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	if v := strings.TrimSpace(baseURL); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}
	return &OpenAIAdapter{client: openai.NewClientWithConfig(cfg)}
}

func (a *OpenAIAdapter) Name() string {
	return "openai"
}

// Warm is a no-op for the hosted API: there is no cold start worth a
// paid call.
func (a *OpenAIAdapter) Warm(ctx context.Context, identifier string) bool {
	return a != nil && a.client != nil
}

func (a *OpenAIAdapter) Chat(ctx context.Context, identifier string, req *ChatRequest) (*Response, error) {
	if a == nil || a.client == nil {
		return nil, &CallError{Kind: KindUnexpected, Backend: "openai", Err: fmt.Errorf("nil adapter")}
	}
	resp, err := chatCompletion(ctx, a.client, "openai", identifier, req)
	if err != nil {
		return nil, err
	}
	resp.Usage.Cost = estimateHostedCost(identifier, resp.Usage.TokensIn, resp.Usage.TokensOut)
	return resp, nil
}

// chatCompletion is the shared OpenAI-compatible call path; the OpenAI
// and LM Studio adapters differ only in endpoint and pricing.
func chatCompletion(ctx context.Context, client *openai.Client, backend, identifier string, req *ChatRequest) (*Response, error) {
	if ctx == nil {
		return nil, &CallError{Kind: KindUnexpected, Backend: backend, Err: fmt.Errorf("nil context")}
	}
	if req == nil {
		return nil, &CallError{Kind: KindUnexpected, Backend: backend, Err: fmt.Errorf("nil request")}
	}

	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if sys := systemPrompt(req); sys != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: sys,
		})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	r := openai.ChatCompletionRequest{
		Model:    strings.TrimSpace(identifier),
		Messages: msgs,
	}
	if req.Brief {
		r.MaxTokens = briefMaxTokens
	}
	if req.Schema != nil {
		r.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()
	resp, err := client.CreateChatCompletion(ctx, r)
	elapsed := float64(time.Since(start).Milliseconds())
	if err != nil {
		return nil, classifyErr(backend, err)
	}
	if len(resp.Choices) == 0 {
		return nil, &CallError{Kind: KindUnexpected, Backend: backend, Err: fmt.Errorf("empty choices")}
	}

	out := &Response{
		Usage: Usage{
			TokensIn:  resp.Usage.PromptTokens,
			TokensOut: resp.Usage.CompletionTokens,
			TotalMsec: elapsed,
		},
	}

	content := resp.Choices[0].Message.Content
	if req.Schema != nil {
		out.StructuredData = decodeStructured(content)
	} else {
		out.ResponseText = content
	}
	return out, nil
}

// systemPrompt merges the caller context with schema instructions for
// backends that take a JSON mode flag instead of a response schema.
func systemPrompt(req *ChatRequest) string {
	sys := strings.TrimSpace(req.Context)
	if req.Schema == nil {
		return sys
	}

	schema, err := json.Marshal(req.Schema)
	if err != nil {
		return sys
	}
	instruction := fmt.Sprintf("Respond with a single JSON object matching this schema, and nothing else: %s", schema)
	if sys == "" {
		return instruction
	}
	return sys + "\n\n" + instruction
}
