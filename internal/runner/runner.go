package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stellarlinkco/model-bench/internal/evaluator"
	"github.com/stellarlinkco/model-bench/internal/llm"
	"github.com/stellarlinkco/model-bench/internal/store"
)

// FailedRunID is returned when a run produced nothing worth persisting or
// persistence itself failed. Real run ids start at 1.
const FailedRunID int64 = -1

// Config identifies the benchmark being run and how its aggregate score
// is computed.
type Config struct {
	Code            string
	ScoreMultiplier int
}

// ChatClient is the slice of the router the runner needs.
type ChatClient interface {
	Warm(ctx context.Context, codename string) bool
	Chat(ctx context.Context, codename string, req *llm.ChatRequest) (*llm.Response, error)
}

// QuestionSource loads a benchmark's questions.
type QuestionSource interface {
	LoadQuestions(ctx context.Context, benchmark string) ([]store.Question, error)
}

// RunWriter persists a finished run.
type RunWriter interface {
	InsertRun(ctx context.Context, model, benchmark string, score int, details []store.RunDetail) (int64, error)
}

// Runner executes one benchmark against one model: load questions, warm
// the backend, walk the questions strictly in order, aggregate, persist.
// A per-question failure scores that question 0 and the run continues.
type Runner struct {
	Client ChatClient
	Source QuestionSource
	Writer RunWriter
	Model  string
	Config Config

	// Strategy overrides the registered per-benchmark strategy; nil
	// means look it up by Config.Code.
	Strategy Strategy
}

// Run executes the benchmark and returns the persisted run id. Fatal
// outcomes (no questions, unroutable model, persistence failure) return
// FailedRunID alongside the error.
func (r *Runner) Run(ctx context.Context) (int64, error) {
	if r == nil {
		return FailedRunID, errors.New("runner: nil runner")
	}
	if ctx == nil {
		return FailedRunID, errors.New("runner: nil context")
	}
	if r.Client == nil || r.Source == nil || r.Writer == nil {
		return FailedRunID, errors.New("runner: missing client/source/writer")
	}

	questions, err := r.Source.LoadQuestions(ctx, r.Config.Code)
	if err != nil {
		return FailedRunID, fmt.Errorf("runner: load questions: %w", err)
	}
	if len(questions) == 0 {
		return FailedRunID, fmt.Errorf("runner: benchmark %q has no questions", r.Config.Code)
	}

	// Best effort; a cold backend just makes the first question slow.
	r.Client.Warm(ctx, r.Model)

	details := make([]store.RunDetail, 0, len(questions))
	for i := range questions {
		detail, err := r.processQuestion(ctx, &questions[i])
		if err != nil {
			return FailedRunID, err
		}
		details = append(details, detail)
	}

	score := calculateScore(r.Config, details)

	runID, err := r.Writer.InsertRun(ctx, r.Model, r.Config.Code, score, details)
	if err != nil {
		return FailedRunID, fmt.Errorf("runner: persist run: %w", err)
	}
	return runID, nil
}

// processQuestion grades one question. The only error it propagates is
// an unroutable model, which is fatal to the whole run; every other
// failure becomes a zero-score detail with a tagged debug payload.
func (r *Runner) processQuestion(ctx context.Context, q *store.Question) (store.RunDetail, error) {
	detail := store.RunDetail{QuestionID: q.QuestionID}

	info, err := evaluator.ParseQuestionInfo(q.InfoJSON)
	if err != nil {
		detail.DebugJSON = debugJSON(map[string]any{"error": err.Error()})
		return detail, nil
	}

	prompt := r.strategy().Prepare(info)
	req := &llm.ChatRequest{
		Prompt:  prompt.Text,
		Brief:   prompt.Brief,
		Schema:  prompt.Schema,
		Context: prompt.Context,
	}

	resp, err := r.Client.Chat(ctx, r.Model, req)
	if err != nil {
		if errors.Is(err, llm.ErrUnsupportedModel) {
			return detail, fmt.Errorf("runner: model %q: %w", r.Model, err)
		}
		tag := err.Error()
		if llm.IsTimeout(err) {
			tag = "timeout"
		}
		detail.DebugJSON = debugJSON(map[string]any{
			"error":  tag,
			"prompt": prompt.Text,
		})
		return detail, nil
	}

	var answer any
	if prompt.Schema != nil {
		answer = resp.StructuredData
	} else {
		answer = resp.ResponseText
	}

	detail.Score = evaluator.Score(answer, info)
	detail.EvalMsec = int64(resp.Usage.TotalMsec)
	detail.DebugJSON = debugJSON(map[string]any{
		"prompt":     prompt.Text,
		"response":   answer,
		"expected":   info.CorrectAnswer,
		"is_correct": detail.Score == evaluator.MaxScore,
		"tokens_in":  resp.Usage.TokensIn,
		"tokens_out": resp.Usage.TokensOut,
		"cost":       resp.Usage.Cost,
	})
	return detail, nil
}

func (r *Runner) strategy() Strategy {
	if r.Strategy != nil {
		return r.Strategy
	}
	return StrategyFor(r.Config.Code)
}

// calculateScore folds per-question scores into the run score. The
// default is the floored percentage of fully correct answers; a declared
// multiplier instead scales the correct count, capped at 100.
func calculateScore(cfg Config, details []store.RunDetail) int {
	if len(details) == 0 {
		return 0
	}

	correct := 0
	for _, d := range details {
		if d.Score == evaluator.MaxScore {
			correct++
		}
	}

	if cfg.ScoreMultiplier > 1 {
		score := correct * cfg.ScoreMultiplier
		if score > 100 {
			score = 100
		}
		return score
	}
	return correct * 100 / len(details)
}

func debugJSON(payload map[string]any) string {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf(`{"error":"marshal debug: %v"}`, err)
	}
	return string(b)
}
