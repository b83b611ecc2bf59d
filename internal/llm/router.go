package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// DefaultChatTimeout bounds a single chat call when the caller's context
// carries no deadline of its own.
const DefaultChatTimeout = 150 * time.Second

const lmstudioPrefix = "lmstudio:"

// Router maps model codenames onto backend adapters. Resolution runs once
// per codename and is cached for the router's lifetime; registry edits
// need a new router. Not safe for concurrent use, matching the strictly
// sequential execution model of the engine.
type Router struct {
	resolver ModelResolver
	adapters map[string]Adapter
	timeout  time.Duration
	cache    map[string]routedModel
}

type routedModel struct {
	adapter    Adapter
	identifier string
}

func NewRouter(resolver ModelResolver, timeout time.Duration) *Router {
	if timeout <= 0 {
		timeout = DefaultChatTimeout
	}
	return &Router{
		resolver: resolver,
		adapters: make(map[string]Adapter),
		timeout:  timeout,
		cache:    make(map[string]routedModel),
	}
}

// Register adds an adapter under its own name, replacing any previous
// adapter with that name.
func (r *Router) Register(a Adapter) {
	if r == nil || a == nil {
		return
	}
	name := strings.TrimSpace(a.Name())
	if name == "" {
		return
	}
	r.adapters[name] = a
}

// Resolve picks the adapter and backend-native identifier for a codename.
// Remote models route by identifier prefix (gpt- to OpenAI, claude- to
// Anthropic); local models default to Ollama with any trailing
// quantization suffix stripped, unless the lmstudio: prefix claims them.
func (r *Router) Resolve(ctx context.Context, codename string) (Adapter, string, error) {
	if r == nil || r.resolver == nil {
		return nil, "", errors.New("llm: nil router")
	}
	codename = strings.TrimSpace(codename)
	if codename == "" {
		return nil, "", fmt.Errorf("llm: empty codename: %w", ErrUnsupportedModel)
	}

	if cached, ok := r.cache[codename]; ok {
		return cached.adapter, cached.identifier, nil
	}

	desc, err := r.resolver.GetModelByCodename(ctx, codename)
	if err != nil || desc == nil {
		return nil, "", fmt.Errorf("llm: unknown codename %q: %w", codename, ErrUnsupportedModel)
	}

	name, identifier, err := routeDescriptor(desc)
	if err != nil {
		return nil, "", err
	}

	adapter, ok := r.adapters[name]
	if !ok {
		return nil, "", fmt.Errorf("llm: no %s adapter registered: %w", name, ErrUnsupportedModel)
	}

	r.cache[codename] = routedModel{adapter: adapter, identifier: identifier}
	return adapter, identifier, nil
}

func routeDescriptor(desc *ModelDescriptor) (name, identifier string, err error) {
	id := strings.TrimSpace(desc.Identifier)

	switch desc.Backend {
	case BackendRemote:
		switch {
		case strings.HasPrefix(id, "gpt-"):
			return "openai", id, nil
		case strings.HasPrefix(id, "claude-"):
			return "claude", id, nil
		default:
			return "", "", fmt.Errorf("llm: remote identifier %q matches no provider: %w", id, ErrUnsupportedModel)
		}
	case BackendLocal:
		if rest, ok := strings.CutPrefix(id, lmstudioPrefix); ok {
			return "lmstudio", strings.TrimSpace(rest), nil
		}
		return "ollama", stripQuantSuffix(id), nil
	default:
		return "", "", fmt.Errorf("llm: codename %q has unknown backend %q: %w", desc.Codename, desc.Backend, ErrUnsupportedModel)
	}
}

// stripQuantSuffix drops the trailing colon-delimited quantization tag a
// registry codename carries, leaving the name Ollama knows the model by.
func stripQuantSuffix(identifier string) string {
	idx := strings.LastIndexByte(identifier, ':')
	if idx <= 0 {
		return identifier
	}
	return identifier[:idx]
}

// Warm readies a model's backend. Best effort: failures are logged and
// reported, never fatal.
func (r *Router) Warm(ctx context.Context, codename string) bool {
	adapter, identifier, err := r.Resolve(ctx, codename)
	if err != nil {
		log.Printf("llm: warm %s: %v", codename, err)
		return false
	}
	ok := adapter.Warm(ctx, identifier)
	if !ok {
		log.Printf("llm: warm %s: backend %s not ready", codename, adapter.Name())
	}
	return ok
}

// Chat performs one chat call against the resolved backend. Exactly one
// provider call happens; there are no retries at any layer.
func (r *Router) Chat(ctx context.Context, codename string, req *ChatRequest) (*Response, error) {
	adapter, identifier, err := r.Resolve(ctx, codename)
	if err != nil {
		return nil, err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	resp, err := adapter.Chat(ctx, identifier, req)
	if err != nil {
		return nil, classifyErr(adapter.Name(), err)
	}
	if resp == nil {
		return nil, &CallError{Kind: KindUnexpected, Backend: adapter.Name(), Err: errors.New("nil response")}
	}
	return resp, nil
}
