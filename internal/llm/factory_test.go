package llm

import (
	"context"
	"testing"

	"github.com/stellarlinkco/model-bench/internal/config"
)

func TestNewRouterFromConfig(t *testing.T) {
	cfg := &config.Config{}
	resolver := &fakeResolver{models: map[string]*ModelDescriptor{
		"m": {Codename: "m", Backend: BackendLocal, Identifier: "m:Q4_0"},
	}}

	r, err := NewRouterFromConfig(cfg, resolver)
	if err != nil {
		t.Fatalf("NewRouterFromConfig: %v", err)
	}
	for _, name := range []string{"ollama", "lmstudio", "openai", "claude"} {
		if _, ok := r.adapters[name]; !ok {
			t.Fatalf("adapter %q not registered", name)
		}
	}

	adapter, identifier, err := r.Resolve(context.Background(), "m")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if adapter.Name() != "ollama" || identifier != "m" {
		t.Fatalf("resolved %q/%q", adapter.Name(), identifier)
	}

	if _, err := NewRouterFromConfig(nil, resolver); err == nil {
		t.Fatal("nil config: expected error")
	}
	if _, err := NewRouterFromConfig(cfg, nil); err == nil {
		t.Fatal("nil resolver: expected error")
	}
}
