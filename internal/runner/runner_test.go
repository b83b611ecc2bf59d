package runner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stellarlinkco/model-bench/internal/llm"
	"github.com/stellarlinkco/model-bench/internal/store"
)

type fakeClient struct {
	warmFn func(ctx context.Context, codename string) bool
	chatFn func(ctx context.Context, codename string, req *llm.ChatRequest) (*llm.Response, error)
	warms  int
	chats  int
}

func (f *fakeClient) Warm(ctx context.Context, codename string) bool {
	f.warms++
	if f.warmFn != nil {
		return f.warmFn(ctx, codename)
	}
	return true
}

func (f *fakeClient) Chat(ctx context.Context, codename string, req *llm.ChatRequest) (*llm.Response, error) {
	f.chats++
	if f.chatFn != nil {
		return f.chatFn(ctx, codename, req)
	}
	return &llm.Response{ResponseText: ""}, nil
}

type fakeSource struct {
	questions []store.Question
	err       error
}

func (f *fakeSource) LoadQuestions(ctx context.Context, benchmark string) ([]store.Question, error) {
	return f.questions, f.err
}

type fakeWriter struct {
	insertFn func(ctx context.Context, model, benchmark string, score int, details []store.RunDetail) (int64, error)
	score    int
	details  []store.RunDetail
}

func (f *fakeWriter) InsertRun(ctx context.Context, model, benchmark string, score int, details []store.RunDetail) (int64, error) {
	f.score = score
	f.details = details
	if f.insertFn != nil {
		return f.insertFn(ctx, model, benchmark, score, details)
	}
	return 7, nil
}

func question(id, text, answer string) store.Question {
	return store.Question{
		QuestionID: id,
		Benchmark:  "bench",
		InfoJSON:   `{"question_text":"` + text + `","answer_type":"free_text","correct_answer":"` + answer + `"}`,
	}
}

func TestRunScoresAndPersists(t *testing.T) {
	client := &fakeClient{
		chatFn: func(ctx context.Context, codename string, req *llm.ChatRequest) (*llm.Response, error) {
			if strings.Contains(req.Prompt, "first") {
				return &llm.Response{ResponseText: "right", Usage: llm.Usage{TotalMsec: 42}}, nil
			}
			return &llm.Response{ResponseText: "wrong"}, nil
		},
	}
	writer := &fakeWriter{}
	r := &Runner{
		Client: client,
		Source: &fakeSource{questions: []store.Question{
			question("q1", "first", "right"),
			question("q2", "second", "right"),
		}},
		Writer: writer,
		Model:  "test-model",
		Config: Config{Code: "bench"},
	}

	runID, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if runID != 7 {
		t.Fatalf("run id: got %d want 7", runID)
	}
	if client.warms != 1 {
		t.Fatalf("warm calls: %d", client.warms)
	}
	if client.chats != 2 {
		t.Fatalf("chat calls: %d", client.chats)
	}
	if writer.score != 50 {
		t.Fatalf("score: got %d want 50", writer.score)
	}
	if len(writer.details) != 2 {
		t.Fatalf("details: %d", len(writer.details))
	}
	if writer.details[0].Score != 100 || writer.details[0].EvalMsec != 42 {
		t.Fatalf("detail[0]: %#v", writer.details[0])
	}
	if !strings.Contains(writer.details[0].DebugJSON, `"is_correct":true`) {
		t.Fatalf("debug[0]: %s", writer.details[0].DebugJSON)
	}
}

func TestRunEmptyQuestionsIsFatal(t *testing.T) {
	client := &fakeClient{}
	r := &Runner{
		Client: client,
		Source: &fakeSource{},
		Writer: &fakeWriter{},
		Model:  "test-model",
		Config: Config{Code: "bench"},
	}

	runID, err := r.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if runID != FailedRunID {
		t.Fatalf("run id: got %d want %d", runID, FailedRunID)
	}
	if client.warms != 0 || client.chats != 0 {
		t.Fatalf("no backend calls expected, got warm=%d chat=%d", client.warms, client.chats)
	}
}

func TestRunUnsupportedModelAborts(t *testing.T) {
	client := &fakeClient{
		chatFn: func(ctx context.Context, codename string, req *llm.ChatRequest) (*llm.Response, error) {
			return nil, llm.ErrUnsupportedModel
		},
	}
	writer := &fakeWriter{
		insertFn: func(ctx context.Context, model, benchmark string, score int, details []store.RunDetail) (int64, error) {
			t.Fatal("InsertRun must not be called")
			return 0, nil
		},
	}
	r := &Runner{
		Client: client,
		Source: &fakeSource{questions: []store.Question{
			question("q1", "first", "x"),
			question("q2", "second", "x"),
		}},
		Writer: writer,
		Model:  "mystery-model",
		Config: Config{Code: "bench"},
	}

	runID, err := r.Run(context.Background())
	if !errors.Is(err, llm.ErrUnsupportedModel) {
		t.Fatalf("expected ErrUnsupportedModel, got %v", err)
	}
	if runID != FailedRunID {
		t.Fatalf("run id: got %d", runID)
	}
	if client.chats != 1 {
		t.Fatalf("chat calls: got %d want 1", client.chats)
	}
}

func TestRunTimeoutScoresZeroAndContinues(t *testing.T) {
	client := &fakeClient{
		chatFn: func(ctx context.Context, codename string, req *llm.ChatRequest) (*llm.Response, error) {
			if strings.Contains(req.Prompt, "first") {
				return nil, &llm.CallError{Kind: llm.KindTimeout, Backend: "ollama", Err: context.DeadlineExceeded}
			}
			return &llm.Response{ResponseText: "right"}, nil
		},
	}
	writer := &fakeWriter{}
	r := &Runner{
		Client: client,
		Source: &fakeSource{questions: []store.Question{
			question("q1", "first", "right"),
			question("q2", "second", "right"),
		}},
		Writer: writer,
		Model:  "test-model",
		Config: Config{Code: "bench"},
	}

	runID, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if runID != 7 {
		t.Fatalf("run id: %d", runID)
	}
	if writer.details[0].Score != 0 {
		t.Fatalf("timed-out question score: %d", writer.details[0].Score)
	}
	if !strings.Contains(writer.details[0].DebugJSON, `"error":"timeout"`) {
		t.Fatalf("timeout tag missing: %s", writer.details[0].DebugJSON)
	}
	if writer.details[1].Score != 100 {
		t.Fatalf("second question score: %d", writer.details[1].Score)
	}
}

func TestRunMalformedQuestionScoresZero(t *testing.T) {
	client := &fakeClient{}
	writer := &fakeWriter{}
	r := &Runner{
		Client: client,
		Source: &fakeSource{questions: []store.Question{
			{QuestionID: "q1", Benchmark: "bench", InfoJSON: "not json"},
			question("q2", "second", "right"),
		}},
		Writer: writer,
		Model:  "test-model",
		Config: Config{Code: "bench"},
	}

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if client.chats != 1 {
		t.Fatalf("malformed question must not reach the backend, chats=%d", client.chats)
	}
	if writer.details[0].Score != 0 || writer.details[0].DebugJSON == "" {
		t.Fatalf("detail[0]: %#v", writer.details[0])
	}
}

func TestRunPersistenceFailure(t *testing.T) {
	writer := &fakeWriter{
		insertFn: func(ctx context.Context, model, benchmark string, score int, details []store.RunDetail) (int64, error) {
			return 0, errors.New("disk full")
		},
	}
	r := &Runner{
		Client: &fakeClient{chatFn: func(ctx context.Context, codename string, req *llm.ChatRequest) (*llm.Response, error) {
			return &llm.Response{ResponseText: "x"}, nil
		}},
		Source: &fakeSource{questions: []store.Question{question("q1", "first", "x")}},
		Writer: writer,
		Model:  "test-model",
		Config: Config{Code: "bench"},
	}

	runID, err := r.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if runID != FailedRunID {
		t.Fatalf("run id: got %d want %d", runID, FailedRunID)
	}
}

func TestRunStructuredAnswerPath(t *testing.T) {
	client := &fakeClient{
		chatFn: func(ctx context.Context, codename string, req *llm.ChatRequest) (*llm.Response, error) {
			if req.Schema == nil {
				t.Fatal("expected schema on request")
			}
			return &llm.Response{StructuredData: map[string]any{"count": float64(3)}}, nil
		},
	}
	writer := &fakeWriter{}
	r := &Runner{
		Client: client,
		Source: &fakeSource{questions: []store.Question{{
			QuestionID: "q1",
			Benchmark:  "0012_letter_count",
			InfoJSON:   `{"question_text":"How many r letters are in strawberry?","answer_type":"numeric","correct_answer":3}`,
		}}},
		Writer: writer,
		Model:  "test-model",
		Config: Config{Code: "0012_letter_count"},
	}

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if writer.score != 100 {
		t.Fatalf("score: %d", writer.score)
	}
}

func TestCalculateScore(t *testing.T) {
	mk := func(scores ...int) []store.RunDetail {
		out := make([]store.RunDetail, len(scores))
		for i, s := range scores {
			out[i] = store.RunDetail{Score: s}
		}
		return out
	}

	if got := calculateScore(Config{}, nil); got != 0 {
		t.Fatalf("empty: %d", got)
	}
	if got := calculateScore(Config{}, mk(100, 100, 100)); got != 100 {
		t.Fatalf("all correct: %d", got)
	}
	if got := calculateScore(Config{}, mk(0, 0)); got != 0 {
		t.Fatalf("all wrong: %d", got)
	}
	// Floors: 2 of 3 correct is 66, and partial 50s do not count.
	if got := calculateScore(Config{}, mk(100, 100, 0)); got != 66 {
		t.Fatalf("two thirds: %d", got)
	}
	if got := calculateScore(Config{}, mk(100, 50, 0, 0)); got != 25 {
		t.Fatalf("partial excluded: %d", got)
	}

	if got := calculateScore(Config{ScoreMultiplier: 4}, mk(100, 100, 100, 0, 0)); got != 12 {
		t.Fatalf("multiplier: %d", got)
	}
	if got := calculateScore(Config{ScoreMultiplier: 10}, mk(100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100)); got != 100 {
		t.Fatalf("multiplier cap: %d", got)
	}
}

func TestRunNilGuards(t *testing.T) {
	var r *Runner
	if _, err := r.Run(context.Background()); err == nil {
		t.Fatal("nil runner: expected error")
	}

	r = &Runner{}
	if _, err := r.Run(context.Background()); err == nil {
		t.Fatal("missing deps: expected error")
	}
}
