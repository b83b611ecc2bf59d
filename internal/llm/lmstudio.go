package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const defaultLMStudioBaseURL = "http://127.0.0.1:1234/v1"

// LMStudioAdapter serves local models behind the lmstudio: identifier
// prefix. LM Studio exposes an OpenAI-compatible server, so the call path
// is shared with the OpenAI adapter; only the endpoint and pricing differ.
type LMStudioAdapter struct {
	client *openai.Client
}

func NewLMStudioAdapter(baseURL string) *LMStudioAdapter {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultLMStudioBaseURL
	}
	cfg := openai.DefaultConfig("lm-studio")
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	return &LMStudioAdapter{client: openai.NewClientWithConfig(cfg)}
}

func (a *LMStudioAdapter) Name() string {
	return "lmstudio"
}

// Warm checks the server is up via the models listing, the cheapest call
// the API offers. LM Studio loads weights on first chat regardless.
func (a *LMStudioAdapter) Warm(ctx context.Context, identifier string) bool {
	if a == nil || a.client == nil || ctx == nil {
		return false
	}
	_, err := a.client.ListModels(ctx)
	return err == nil
}

func (a *LMStudioAdapter) Chat(ctx context.Context, identifier string, req *ChatRequest) (*Response, error) {
	if a == nil || a.client == nil {
		return nil, &CallError{Kind: KindUnexpected, Backend: "lmstudio", Err: fmt.Errorf("nil adapter")}
	}
	resp, err := chatCompletion(ctx, a.client, "lmstudio", identifier, req)
	if err != nil {
		return nil, err
	}
	resp.Usage.Cost = estimateLocalCost(resp.Usage.TotalMsec)
	return resp, nil
}
