package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fasahat78/startege-sub004/internal/models"
)

const (
	maxPromptLength      = 4000
	maxOptionTextLength  = 1000
	maxExplanationLength = 4000
	maxTagLength         = 100
)

// QuestionValidator handles question-specific validation
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuestion checks one authored question and reports every problem found
func (v *QuestionValidator) ValidateQuestion(question *models.Question) ValidationErrors {
	var errs ValidationErrors

	prompt := strings.TrimSpace(question.Prompt)
	switch {
	case prompt == "":
		errs = append(errs, ValidationError{Field: "prompt", Message: "is required", Rule: "required"})
	case len(prompt) > maxPromptLength:
		errs = append(errs, ValidationError{Field: "prompt", Message: fmt.Sprintf("must be at most %d characters", maxPromptLength), Rule: "max"})
	}

	if question.Order < 1 {
		errs = append(errs, ValidationError{Field: "order", Message: "must be at least 1", Value: question.Order, Rule: "min"})
	}

	options := question.CanonicalOptions()
	if err := options.Validate(); err != nil {
		errs = append(errs, ValidationError{Field: "options", Message: err.Error(), Rule: "options"})
	} else {
		for _, opt := range options {
			if len(opt.Text) > maxOptionTextLength {
				errs = append(errs, ValidationError{
					Field:   "option_" + strings.ToLower(string(opt.Key)),
					Message: fmt.Sprintf("must be at most %d characters", maxOptionTextLength),
					Rule:    "max",
				})
			}
		}
	}

	if !question.CorrectKey.IsValid() {
		errs = append(errs, ValidationError{Field: "correct_answer", Message: "must be one of A, B, C, D", Value: question.CorrectKey, Rule: "answer_key"})
	}

	if question.Explanation != nil && len(*question.Explanation) > maxExplanationLength {
		errs = append(errs, ValidationError{Field: "explanation", Message: fmt.Sprintf("must be at most %d characters", maxExplanationLength), Rule: "max"})
	}

	if question.Difficulty != "" && !question.Difficulty.IsValid() {
		errs = append(errs, ValidationError{Field: "difficulty", Message: "must be easy, medium, or hard", Value: question.Difficulty, Rule: "difficulty_level"})
	}

	for field, tag := range map[string]string{
		"domain":       question.Domain,
		"topic":        question.Topic,
		"jurisdiction": question.Jurisdiction,
	} {
		if len(tag) > maxTagLength {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters", maxTagLength), Rule: "max"})
		}
	}

	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return errs
}

// ValidateBatch validates multiple questions and rejects duplicate positions
func (v *QuestionValidator) ValidateBatch(questions []*models.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("question batch cannot be empty")
	}

	seen := make(map[int]bool, len(questions))
	for i, question := range questions {
		if errs := v.ValidateQuestion(question); len(errs) > 0 {
			return fmt.Errorf("validation failed for question %d: %w", i+1, errs)
		}
		if seen[question.Order] {
			return fmt.Errorf("duplicate question order %d", question.Order)
		}
		seen[question.Order] = true
	}

	return nil
}

// ValidatePositions requires the positions to run 1..n without gaps so that
// callers can page through an exam by order
func (v *QuestionValidator) ValidatePositions(questions []*models.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("exam has no questions")
	}

	orders := make([]int, len(questions))
	for i, q := range questions {
		orders[i] = q.Order
	}
	sort.Ints(orders)

	for i, order := range orders {
		if order != i+1 {
			return fmt.Errorf("question positions must run 1..%d without gaps, found %d at index %d", len(orders), order, i)
		}
	}
	return nil
}
