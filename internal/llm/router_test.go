package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeResolver struct {
	models map[string]*ModelDescriptor
	calls  int
}

func (f *fakeResolver) GetModelByCodename(ctx context.Context, codename string) (*ModelDescriptor, error) {
	f.calls++
	m, ok := f.models[codename]
	if !ok {
		return nil, errors.New("no such model")
	}
	return m, nil
}

type fakeAdapter struct {
	name   string
	warmFn func(ctx context.Context, identifier string) bool
	chatFn func(ctx context.Context, identifier string, req *ChatRequest) (*Response, error)
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Warm(ctx context.Context, identifier string) bool {
	if f.warmFn != nil {
		return f.warmFn(ctx, identifier)
	}
	return true
}

func (f *fakeAdapter) Chat(ctx context.Context, identifier string, req *ChatRequest) (*Response, error) {
	if f.chatFn != nil {
		return f.chatFn(ctx, identifier, req)
	}
	return &Response{ResponseText: "ok"}, nil
}

func newTestRouter(resolver *fakeResolver) *Router {
	r := NewRouter(resolver, time.Minute)
	for _, name := range []string{"ollama", "lmstudio", "openai", "claude"} {
		r.Register(&fakeAdapter{name: name})
	}
	return r
}

func TestResolveRouting(t *testing.T) {
	resolver := &fakeResolver{models: map[string]*ModelDescriptor{
		"gpt-4o-mini":        {Codename: "gpt-4o-mini", Backend: BackendRemote, Identifier: "gpt-4o-mini"},
		"claude-haiku":       {Codename: "claude-haiku", Backend: BackendRemote, Identifier: "claude-3-5-haiku-latest"},
		"smollm2:360m:Q4_0":  {Codename: "smollm2:360m:Q4_0", Backend: BackendLocal, Identifier: "smollm2:360m:Q4_0"},
		"studio-phi":         {Codename: "studio-phi", Backend: BackendLocal, Identifier: "lmstudio:phi-4"},
		"mystery-remote":     {Codename: "mystery-remote", Backend: BackendRemote, Identifier: "mistral-large"},
		"broken-backend-tag": {Codename: "broken-backend-tag", Backend: "cloud", Identifier: "x"},
	}}
	r := newTestRouter(resolver)
	ctx := context.Background()

	cases := []struct {
		codename   string
		adapter    string
		identifier string
	}{
		{"gpt-4o-mini", "openai", "gpt-4o-mini"},
		{"claude-haiku", "claude", "claude-3-5-haiku-latest"},
		{"smollm2:360m:Q4_0", "ollama", "smollm2:360m"},
		{"studio-phi", "lmstudio", "phi-4"},
	}
	for _, tc := range cases {
		adapter, identifier, err := r.Resolve(ctx, tc.codename)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", tc.codename, err)
		}
		if adapter.Name() != tc.adapter {
			t.Fatalf("Resolve(%s): adapter %q want %q", tc.codename, adapter.Name(), tc.adapter)
		}
		if identifier != tc.identifier {
			t.Fatalf("Resolve(%s): identifier %q want %q", tc.codename, identifier, tc.identifier)
		}
	}

	for _, codename := range []string{"mystery-remote", "broken-backend-tag", "not-registered", ""} {
		_, _, err := r.Resolve(ctx, codename)
		if !errors.Is(err, ErrUnsupportedModel) {
			t.Fatalf("Resolve(%q): expected ErrUnsupportedModel, got %v", codename, err)
		}
	}
}

func TestResolveCachesLookup(t *testing.T) {
	resolver := &fakeResolver{models: map[string]*ModelDescriptor{
		"gpt-4o": {Codename: "gpt-4o", Backend: BackendRemote, Identifier: "gpt-4o"},
	}}
	r := newTestRouter(resolver)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, _, err := r.Resolve(ctx, "gpt-4o"); err != nil {
			t.Fatalf("Resolve: %v", err)
		}
	}
	if resolver.calls != 1 {
		t.Fatalf("registry lookups: got %d want 1", resolver.calls)
	}
}

func TestStripQuantSuffix(t *testing.T) {
	cases := map[string]string{
		"name:Q4_0":         "name",
		"smollm2:360m:Q4_0": "smollm2:360m",
		"llama3":            "llama3",
		":weird":            ":weird",
	}
	for in, want := range cases {
		if got := stripQuantSuffix(in); got != want {
			t.Fatalf("stripQuantSuffix(%q): got %q want %q", in, got, want)
		}
	}
}

func TestWarmBestEffort(t *testing.T) {
	resolver := &fakeResolver{models: map[string]*ModelDescriptor{
		"ok":   {Codename: "ok", Backend: BackendLocal, Identifier: "ok:Q4_0"},
		"cold": {Codename: "cold", Backend: BackendLocal, Identifier: "cold:Q4_0"},
	}}
	r := NewRouter(resolver, time.Minute)
	r.Register(&fakeAdapter{name: "ollama", warmFn: func(ctx context.Context, identifier string) bool {
		return identifier == "ok"
	}})

	ctx := context.Background()
	if !r.Warm(ctx, "ok") {
		t.Fatal("expected warm success")
	}
	if r.Warm(ctx, "cold") {
		t.Fatal("expected warm failure")
	}
	if r.Warm(ctx, "unknown") {
		t.Fatal("unresolvable codename warms nothing")
	}
}

func TestChatClassifiesAndTimesOut(t *testing.T) {
	resolver := &fakeResolver{models: map[string]*ModelDescriptor{
		"m": {Codename: "m", Backend: BackendLocal, Identifier: "m:Q4_0"},
	}}
	r := NewRouter(resolver, 50*time.Millisecond)
	r.Register(&fakeAdapter{name: "ollama", chatFn: func(ctx context.Context, identifier string, req *ChatRequest) (*Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}})

	_, err := r.Chat(context.Background(), "m", &ChatRequest{Prompt: "hi"})
	if !IsTimeout(err) {
		t.Fatalf("expected timeout kind, got %v", err)
	}

	var ce *CallError
	if !errors.As(err, &ce) || ce.Backend != "ollama" {
		t.Fatalf("call error backend: %v", err)
	}
}

func TestChatUnsupportedModelPassesThrough(t *testing.T) {
	r := newTestRouter(&fakeResolver{models: map[string]*ModelDescriptor{}})

	_, err := r.Chat(context.Background(), "ghost", &ChatRequest{Prompt: "hi"})
	if !errors.Is(err, ErrUnsupportedModel) {
		t.Fatalf("expected ErrUnsupportedModel, got %v", err)
	}
}

func TestChatNilResponseIsUnexpected(t *testing.T) {
	resolver := &fakeResolver{models: map[string]*ModelDescriptor{
		"m": {Codename: "m", Backend: BackendLocal, Identifier: "m"},
	}}
	r := NewRouter(resolver, time.Minute)
	r.Register(&fakeAdapter{name: "ollama", chatFn: func(ctx context.Context, identifier string, req *ChatRequest) (*Response, error) {
		return nil, nil
	}})

	_, err := r.Chat(context.Background(), "m", &ChatRequest{Prompt: "hi"})
	var ce *CallError
	if !errors.As(err, &ce) || ce.Kind != KindUnexpected {
		t.Fatalf("expected unexpected kind, got %v", err)
	}
}
