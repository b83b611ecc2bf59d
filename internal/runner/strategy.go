package runner

import (
	"fmt"
	"strings"

	"github.com/stellarlinkco/model-bench/internal/evaluator"
)

// Prompt is everything one question turns into on the wire: the user
// prompt, an optional response schema, an optional system context, and
// whether the reply should be capped short.
type Prompt struct {
	Text    string
	Schema  map[string]any
	Context string
	Brief   bool
}

// Strategy turns a question into a Prompt. Strategies are pure: no I/O,
// no randomness, same question in, same prompt out.
type Strategy interface {
	Name() string
	Prepare(info *evaluator.QuestionInfo) Prompt
}

var strategies = map[string]Strategy{}

// RegisterStrategy binds a benchmark codename to a prompt strategy.
func RegisterStrategy(code string, s Strategy) {
	code = strings.TrimSpace(code)
	if code == "" || s == nil {
		return
	}
	strategies[code] = s
}

// StrategyFor returns the strategy for a benchmark, falling back to
// plain free text.
func StrategyFor(code string) Strategy {
	if s, ok := strategies[strings.TrimSpace(code)]; ok {
		return s
	}
	return freeTextStrategy{}
}

func init() {
	RegisterStrategy("0012_letter_count", letterCountStrategy{})
	RegisterStrategy("0015_spell_check", spellCheckStrategy{})
	RegisterStrategy("0020_definitions", briefTextStrategy{})
	RegisterStrategy("0022_unit_conversion", unitConversionStrategy{})
	RegisterStrategy("0030_analyze_paragraph", multipleChoiceStrategy{})
	RegisterStrategy("0040_general_knowledge", briefTextStrategy{})
}

// freeTextStrategy sends the question text as-is.
type freeTextStrategy struct{}

func (freeTextStrategy) Name() string { return "free_text" }

func (freeTextStrategy) Prepare(info *evaluator.QuestionInfo) Prompt {
	return Prompt{Text: info.QuestionText}
}

// briefTextStrategy is free text with a short reply budget, for
// benchmarks graded by containment or short exact answers.
type briefTextStrategy struct{}

func (briefTextStrategy) Name() string { return "brief_text" }

func (briefTextStrategy) Prepare(info *evaluator.QuestionInfo) Prompt {
	return Prompt{Text: info.QuestionText, Brief: true}
}

// multipleChoiceStrategy lists the choices and asks for a JSON object
// with commentary plus the chosen answer, so the model can reason before
// committing.
type multipleChoiceStrategy struct{}

func (multipleChoiceStrategy) Name() string { return "multiple_choice" }

func (multipleChoiceStrategy) Prepare(info *evaluator.QuestionInfo) Prompt {
	var sb strings.Builder
	sb.WriteString(info.QuestionText)
	if len(info.Choices) > 0 {
		sb.WriteString("\n\nAnswer choices:\n")
		for _, choice := range info.Choices {
			fmt.Fprintf(&sb, "- %s\n", choice)
		}
	}

	return Prompt{
		Text: sb.String(),
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"commentary": map[string]any{"type": "string"},
				"answer":     map[string]any{"type": "string"},
			},
			"required": []string{"commentary", "answer"},
		},
		Context: "Answer the multiple choice question. Think through it in the commentary field, then put only the chosen answer in the answer field.",
	}
}

// spellCheckStrategy asks for the misspelled word and its correction.
type spellCheckStrategy struct{}

func (spellCheckStrategy) Name() string { return "spell_check" }

func (spellCheckStrategy) Prepare(info *evaluator.QuestionInfo) Prompt {
	return Prompt{
		Text: info.QuestionText,
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"incorrect": map[string]any{"type": "string"},
				"correct":   map[string]any{"type": "string"},
			},
			"required": []string{"incorrect", "correct"},
		},
		Context: "Find the misspelled word in the sentence. Report the word as written in the incorrect field and its correct spelling in the correct field.",
	}
}

// letterCountStrategy asks for a bare count.
type letterCountStrategy struct{}

func (letterCountStrategy) Name() string { return "letter_count" }

func (letterCountStrategy) Prepare(info *evaluator.QuestionInfo) Prompt {
	return Prompt{
		Text: info.QuestionText,
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"count": map[string]any{"type": "integer"},
			},
			"required": []string{"count"},
		},
		Context: "Count carefully, checking the word letter by letter before answering.",
	}
}

// unitConversionStrategy asks for the converted numeric value.
type unitConversionStrategy struct{}

func (unitConversionStrategy) Name() string { return "unit_conversion" }

func (unitConversionStrategy) Prepare(info *evaluator.QuestionInfo) Prompt {
	return Prompt{
		Text: info.QuestionText,
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"value": map[string]any{"type": "number"},
			},
			"required": []string{"value"},
		},
		Context: "Convert the quantity and report only the numeric result in the value field.",
	}
}
