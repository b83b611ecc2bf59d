package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stellarlinkco/model-bench/internal/claude"
)

const claudeMaxTokens = 1024

// ClaudeAdapter serves remote claude-* models through the messages API
// client in internal/claude.
type ClaudeAdapter struct {
	client *claude.Client
}

func NewClaudeAdapter(apiKey string, opts ...claude.Option) *ClaudeAdapter {
	return &ClaudeAdapter{client: claude.NewClient(apiKey, opts...)}
}

func (a *ClaudeAdapter) Name() string {
	return "claude"
}

// Warm is a no-op for the hosted API.
func (a *ClaudeAdapter) Warm(ctx context.Context, identifier string) bool {
	return a != nil && a.client != nil
}

func (a *ClaudeAdapter) Chat(ctx context.Context, identifier string, req *ChatRequest) (*Response, error) {
	if a == nil || a.client == nil {
		return nil, &CallError{Kind: KindUnexpected, Backend: "claude", Err: fmt.Errorf("nil adapter")}
	}
	if ctx == nil {
		return nil, &CallError{Kind: KindUnexpected, Backend: "claude", Err: fmt.Errorf("nil context")}
	}
	if req == nil {
		return nil, &CallError{Kind: KindUnexpected, Backend: "claude", Err: fmt.Errorf("nil request")}
	}

	maxTokens := claudeMaxTokens
	if req.Brief {
		maxTokens = briefMaxTokens
	}

	cr := &claude.Request{
		Model:     strings.TrimSpace(identifier),
		MaxTokens: maxTokens,
		System:    systemPrompt(req),
		Messages: []claude.Message{
			{Role: "user", Content: req.Prompt},
		},
	}

	start := time.Now()
	resp, err := a.client.Complete(ctx, cr)
	elapsed := float64(time.Since(start).Milliseconds())
	if err != nil {
		return nil, classifyErr("claude", err)
	}
	if resp == nil {
		return nil, &CallError{Kind: KindUnexpected, Backend: "claude", Err: fmt.Errorf("nil response")}
	}

	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	text := sb.String()

	out := &Response{
		Usage: Usage{
			TokensIn:  resp.Usage.InputTokens,
			TokensOut: resp.Usage.OutputTokens,
			TotalMsec: elapsed,
			Cost:      estimateHostedCost(identifier, resp.Usage.InputTokens, resp.Usage.OutputTokens),
		},
	}
	if req.Schema != nil {
		out.StructuredData = decodeStructured(text)
	} else {
		out.ResponseText = text
	}
	return out, nil
}
