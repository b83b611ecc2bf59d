package evaluator

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type scoreFunc func(answer, expected any, c Criteria) int

var scorers = map[AnswerType]scoreFunc{
	AnswerFreeText:       scoreFreeText,
	AnswerMultipleChoice: scoreMultipleChoice,
	AnswerJSON:           scoreJSON,
	AnswerBoolean:        scoreBoolean,
	AnswerNumeric:        scoreNumeric,
}

// Score grades an answer against a question and returns an integer in
// [0, 100]. It never panics and never returns an error: anything that
// cannot be interpreted under the question's answer type scores 0.
func Score(answer any, info *QuestionInfo) int {
	if info == nil {
		return 0
	}
	fn, ok := scorers[info.AnswerType]
	if !ok {
		fn = scoreDefault
	}
	return fn(answer, info.CorrectAnswer, info.Criteria)
}

func scoreFreeText(answer, expected any, c Criteria) int {
	got := strings.TrimSpace(stringify(answer))
	want := strings.TrimSpace(stringify(expected))
	if want == "" {
		return 0
	}
	if c.Contains {
		if strings.Contains(strings.ToLower(got), strings.ToLower(want)) {
			return MaxScore
		}
		return 0
	}
	if strings.EqualFold(got, want) {
		return MaxScore
	}
	return 0
}

func scoreMultipleChoice(answer, expected any, c Criteria) int {
	got := stringify(answer)
	if m, ok := answer.(map[string]any); ok {
		if v, ok := m["answer"]; ok {
			got = stringify(v)
		}
	}
	if strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(stringify(expected))) {
		return MaxScore
	}
	return 0
}

func scoreJSON(answer, expected any, c Criteria) int {
	got, ok := answer.(map[string]any)
	if !ok {
		return 0
	}
	want, ok := expected.(map[string]any)
	if !ok {
		return 0
	}

	fields := c.RequiredFields
	if len(fields) == 0 {
		fields = make([]string, 0, len(want))
		for k := range want {
			fields = append(fields, k)
		}
	}
	if len(fields) == 0 {
		return 0
	}

	for _, field := range fields {
		wantVal, ok := want[field]
		if !ok {
			return 0
		}
		gotVal, ok := got[field]
		if !ok {
			return 0
		}
		if !valueEqual(gotVal, wantVal) {
			return 0
		}
	}
	return MaxScore
}

func scoreBoolean(answer, expected any, c Criteria) int {
	got := strings.ToLower(strings.TrimSpace(stringify(answer)))
	if got != "true" && got != "false" {
		return 0
	}
	if got == strings.ToLower(strings.TrimSpace(stringify(expected))) {
		return MaxScore
	}
	return 0
}

func scoreNumeric(answer, expected any, c Criteria) int {
	got, ok := parseNumber(answer)
	if !ok {
		return 0
	}
	want, ok := parseNumber(expected)
	if !ok {
		return 0
	}

	diff := math.Abs(got - want)
	if diff <= c.Tolerance {
		return MaxScore
	}
	if c.PartialCredit && diff <= 3*c.Tolerance {
		return PartialScore
	}
	return 0
}

func scoreDefault(answer, expected any, c Criteria) int {
	if strings.TrimSpace(stringify(answer)) == strings.TrimSpace(stringify(expected)) {
		return MaxScore
	}
	return 0
}

// stringify renders any decoded JSON value as comparison text.
func stringify(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case json.Number:
		return value.String()
	case map[string]any, []any:
		b, err := json.Marshal(value)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return ""
		}
		return strings.Trim(string(b), `"`)
	}
}

// parseNumber coerces decoded JSON values and numeric strings to float64.
// A single-entry object counts as its lone value, the usual shape of a
// schema-constrained numeric reply.
func parseNumber(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case int:
		return float64(value), true
	case int64:
		return float64(value), true
	case json.Number:
		f, err := value.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		return f, err == nil
	case map[string]any:
		if len(value) != 1 {
			return 0, false
		}
		for _, inner := range value {
			return parseNumber(inner)
		}
		return 0, false
	default:
		return 0, false
	}
}

// valueEqual compares decoded JSON values, treating all numeric
// representations of the same quantity as equal.
func valueEqual(got, want any) bool {
	if gf, ok := parseNumberStrict(got); ok {
		wf, ok := parseNumberStrict(want)
		return ok && gf == wf
	}

	switch w := want.(type) {
	case string:
		g, ok := got.(string)
		return ok && g == w
	case bool:
		g, ok := got.(bool)
		return ok && g == w
	case nil:
		return got == nil
	case []any:
		g, ok := got.([]any)
		if !ok || len(g) != len(w) {
			return false
		}
		for i := range w {
			if !valueEqual(g[i], w[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		g, ok := got.(map[string]any)
		if !ok || len(g) != len(w) {
			return false
		}
		for k, wv := range w {
			gv, ok := g[k]
			if !ok || !valueEqual(gv, wv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func parseNumberStrict(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case int:
		return float64(value), true
	case int64:
		return float64(value), true
	case json.Number:
		f, err := value.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
