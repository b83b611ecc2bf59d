package evaluator

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AnswerType selects the grading rule applied to a question.
type AnswerType string

const (
	AnswerFreeText       AnswerType = "free_text"
	AnswerMultipleChoice AnswerType = "multiple_choice"
	AnswerJSON           AnswerType = "json"
	AnswerBoolean        AnswerType = "boolean"
	AnswerNumeric        AnswerType = "numeric"
)

const (
	// MaxScore is a fully correct answer.
	MaxScore = 100
	// PartialScore is the numeric near-miss tier.
	PartialScore = 50
)

// Criteria tunes the grading rule for a single question.
type Criteria struct {
	Contains       bool     `json:"contains,omitempty"`
	RequiredFields []string `json:"required_fields,omitempty"`
	Tolerance      float64  `json:"tolerance,omitempty"`
	PartialCredit  bool     `json:"partial_credit,omitempty"`
}

// QuestionInfo is the stored description of one benchmark question.
type QuestionInfo struct {
	QuestionText  string     `json:"question_text"`
	AnswerType    AnswerType `json:"answer_type"`
	CorrectAnswer any        `json:"correct_answer"`
	Choices       []string   `json:"choices,omitempty"`
	Category      string     `json:"category,omitempty"`
	Criteria      Criteria   `json:"evaluation_criteria,omitempty"`
}

// ParseQuestionInfo decodes the stored JSON blob for a question.
func ParseQuestionInfo(raw string) (*QuestionInfo, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("evaluator: empty question info")
	}

	var info QuestionInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return nil, fmt.Errorf("evaluator: parse question info: %w", err)
	}
	if strings.TrimSpace(info.QuestionText) == "" {
		return nil, fmt.Errorf("evaluator: question info missing question_text")
	}
	return &info, nil
}
