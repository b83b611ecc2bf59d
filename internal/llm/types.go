package llm

import "context"

// BackendKind tags where a model runs. Set once at registration; routing
// never sniffs filesystem paths or probes servers to find out.
type BackendKind string

const (
	BackendLocal  BackendKind = "local"
	BackendRemote BackendKind = "remote"
)

// ModelDescriptor is the registry view of one model: the public codename
// plus everything routing needs.
type ModelDescriptor struct {
	Codename   string
	Backend    BackendKind
	Identifier string
}

// ModelResolver looks up a model descriptor by codename.
type ModelResolver interface {
	GetModelByCodename(ctx context.Context, codename string) (*ModelDescriptor, error)
}

// ChatRequest is a single-turn chat call. When Schema is set the backend
// is asked to produce JSON conforming to it; Brief caps the reply at a
// small token budget; Context becomes the system prompt.
type ChatRequest struct {
	Prompt  string
	Brief   bool
	Schema  map[string]any
	Context string
}

// Usage reports token counts, estimated cost, and wall time for one call.
type Usage struct {
	TokensIn  int
	TokensOut int
	Cost      float64
	TotalMsec float64
}

// Response is the canonical reply shape every adapter produces. A
// schema-constrained call fills StructuredData and leaves ResponseText
// empty; a plain call does the opposite.
type Response struct {
	ResponseText   string
	StructuredData map[string]any
	Usage          Usage
}

// Adapter is the per-backend contract. Warm is best-effort: it reports
// readiness but callers proceed either way. Chat performs exactly one
// provider call with no retries.
type Adapter interface {
	Name() string
	Warm(ctx context.Context, identifier string) bool
	Chat(ctx context.Context, identifier string, req *ChatRequest) (*Response, error)
}

const briefMaxTokens = 256
