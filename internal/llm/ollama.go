package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultOllamaBaseURL = "http://127.0.0.1:11434"

// OllamaAdapter talks to a local Ollama server over its /api/chat
// endpoint. It is the default route for local models.
type OllamaAdapter struct {
	baseURL    string
	httpClient *http.Client
}

func NewOllamaAdapter(baseURL string) *OllamaAdapter {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	return &OllamaAdapter{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

func (a *OllamaAdapter) Name() string {
	return "ollama"
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Format   map[string]any  `json:"format,omitempty"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaChatChunk struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done            bool   `json:"done"`
	TotalDuration   int64  `json:"total_duration"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	Error           string `json:"error"`
}

// Warm loads the model by sending a chat request with no messages. Ollama
// treats that as load-only and answers once the weights are resident.
func (a *OllamaAdapter) Warm(ctx context.Context, identifier string) bool {
	if a == nil || ctx == nil {
		return false
	}
	body := ollamaChatRequest{
		Model:    strings.TrimSpace(identifier),
		Messages: []ollamaMessage{},
	}
	resp, err := a.post(ctx, body)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

func (a *OllamaAdapter) Chat(ctx context.Context, identifier string, req *ChatRequest) (*Response, error) {
	if a == nil || a.httpClient == nil {
		return nil, &CallError{Kind: KindUnexpected, Backend: "ollama", Err: fmt.Errorf("nil adapter")}
	}
	if ctx == nil {
		return nil, &CallError{Kind: KindUnexpected, Backend: "ollama", Err: fmt.Errorf("nil context")}
	}
	if req == nil {
		return nil, &CallError{Kind: KindUnexpected, Backend: "ollama", Err: fmt.Errorf("nil request")}
	}

	msgs := make([]ollamaMessage, 0, 2)
	if sys := strings.TrimSpace(req.Context); sys != "" {
		msgs = append(msgs, ollamaMessage{Role: "system", Content: sys})
	}
	msgs = append(msgs, ollamaMessage{Role: "user", Content: req.Prompt})

	body := ollamaChatRequest{
		Model:    strings.TrimSpace(identifier),
		Messages: msgs,
	}
	if req.Schema != nil {
		body.Format = req.Schema
	}
	if req.Brief {
		body.Options = map[string]any{"num_predict": briefMaxTokens}
	}

	start := time.Now()
	httpResp, err := a.post(ctx, body)
	if err != nil {
		return nil, classifyErr("ollama", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		return nil, &CallError{
			Kind:    KindUnexpected,
			Backend: "ollama",
			Err:     fmt.Errorf("status %s: %s", httpResp.Status, strings.TrimSpace(string(raw))),
		}
	}

	text, usage, err := readChatStream(httpResp.Body)
	if err != nil {
		return nil, classifyErr("ollama", err)
	}
	if usage.TotalMsec == 0 {
		usage.TotalMsec = float64(time.Since(start).Milliseconds())
	}
	usage.Cost = estimateLocalCost(usage.TotalMsec)

	out := &Response{Usage: usage}
	if req.Schema != nil {
		out.StructuredData = decodeStructured(text)
	} else {
		out.ResponseText = text
	}
	return out, nil
}

func (a *OllamaAdapter) post(ctx context.Context, body ollamaChatRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return a.httpClient.Do(httpReq)
}

// readChatStream accumulates an NDJSON chat stream into the full reply
// text plus usage from the terminal chunk.
func readChatStream(r io.Reader) (string, Usage, error) {
	var sb strings.Builder
	var usage Usage

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk ollamaChatChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			return "", Usage{}, fmt.Errorf("decode chunk: %w", err)
		}
		if chunk.Error != "" {
			return "", Usage{}, fmt.Errorf("server error: %s", chunk.Error)
		}

		sb.WriteString(chunk.Message.Content)
		if chunk.Done {
			usage.TokensIn = chunk.PromptEvalCount
			usage.TokensOut = chunk.EvalCount
			usage.TotalMsec = float64(chunk.TotalDuration) / 1e6
		}
	}
	if err := scanner.Err(); err != nil {
		return "", Usage{}, fmt.Errorf("read stream: %w", err)
	}

	return sb.String(), usage, nil
}
